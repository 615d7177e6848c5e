// Package dataprocessing reconciles the claims and outstanding claims
// registers into one dataset and derives the summaries behind the date of
// loss analysis.
//
// # Architecture
//
// Every stage is a function from immutable Tables to a new Table:
//
//  1. ReadWorkbook / Loader: xlsx upload to Table, placeholder columns removed
//  2. Dedupe: first row per key tuple wins
//  3. Normalize: source column names onto the canonical schema
//  4. Reconcile: Kategori from join key membership in both registers
//  5. Merge: claims rows then outstanding rows, fixed column prune list
//  6. Derive: dates, "Bulan ke-", claim age range, cause category, coverage
//  7. Filter: range labels, date of loss range, month range
//  8. Aggregate / BuildCharts: describe, grouped counts and sums, top causes
//
// Pipeline composes the stages with tracing, metrics and structured logs.
//
// # Usage
//
//	p := dataprocessing.NewPipeline(dataprocessing.DefaultPipelineOptions(), logger, nil)
//	claims, _, err := p.Prepare(ctx, domain.SourceClaims, claimsTable)
//	if err != nil {
//	    return err
//	}
//	os, _, err := p.Prepare(ctx, domain.SourceOutstanding, osTable)
//	if err != nil {
//	    return err
//	}
//	ds, err := p.Build(ctx, claims, os)
//	if err != nil {
//	    return err
//	}
//	report, err := p.Report(ctx, ds, dataprocessing.FilterParams{Ranges: []string{"0-3"}})
//
// # Error Handling
//
// LoadError and SchemaError abort a run and name the source, stage and
// column involved. Cells that cannot be parsed become null; their number is
// reported in DeriveStats rather than as an error.
//
// # Data Quality
//
// Rows without a date of loss, an inception date or a claim age range are
// dropped by Derive on purpose and counted in DeriveStats.DroppedRows.
// Rows whose cause of loss is outside the taxonomy stay in the dataset with
// a null cause category and are counted as unclassified in summaries.
// A row with a null POLIS or KLAIM never matches across registers, not even
// another row with the same null key; such rows keep their own register's
// Kategori and are counted in ReconcileStats.MissingKeys.
package dataprocessing
