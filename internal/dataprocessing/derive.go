package dataprocessing

import (
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// DeriveOptions configures feature derivation.
type DeriveOptions struct {
	Taxonomy CauseTaxonomy
	Buckets  []Bucket
}

// DefaultDeriveOptions returns the fixed taxonomy and claim age buckets.
func DefaultDeriveOptions() DeriveOptions {
	return DeriveOptions{
		Taxonomy: DefaultCauseTaxonomy(),
		Buckets:  DefaultBuckets(),
	}
}

// DeriveStats reports data quality signals from derivation.
type DeriveStats struct {
	RowsIn        int `json:"rows_in"`
	RowsOut       int `json:"rows_out"`
	DroppedRows   int `json:"dropped_rows"`
	UnparsedDates int `json:"unparsed_dates"`
	UnmappedCause int `json:"unmapped_cause"`
}

var dateColumns = []string{domain.ColInceptionDate, domain.ColExpiryDate, domain.ColDOL}

// Derive parses the date columns, computes "Bulan ke-", the cause of loss
// category, Coverage and the claim age range, and drops rows that end up
// without months, range or date of loss. Unparseable dates become null.
func Derive(t *Table, opts DeriveOptions) (*Table, DeriveStats, error) {
	stats := DeriveStats{RowsIn: t.Len()}
	if err := t.Require("derive", domain.ColInceptionDate, domain.ColExpiryDate, domain.ColDOL, domain.ColCauseOfLoss); err != nil {
		return nil, stats, err
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = DefaultCauseTaxonomy()
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = DefaultBuckets()
	}

	out := t
	parsed := make(map[string][]Value, len(dateColumns))
	for _, col := range dateColumns {
		values := make([]Value, t.Len())
		for i := range values {
			v := t.Get(i, col)
			if v.IsNull() {
				continue
			}
			d, err := ParseDate(col, v)
			if err != nil {
				stats.UnparsedDates++
				continue
			}
			values[i] = DateValue(d)
		}
		parsed[col] = values
		var err error
		if out, err = out.WithColumn(col, values); err != nil {
			return nil, stats, err
		}
	}

	n := t.Len()
	causeCats := make([]Value, n)
	coverage := make([]Value, n)
	months := make([]Value, n)
	ranges := make([]Value, n)
	for i := 0; i < n; i++ {
		if cat, ok := opts.Taxonomy.Category(t.Get(i, domain.ColCauseOfLoss)); ok {
			causeCats[i] = StringValue(cat)
		} else {
			stats.UnmappedCause++
		}

		cov := t.Lookup(i, domain.ColTypeOfCover, StringValue(""))
		if cov.IsNull() {
			cov = StringValue("")
		}
		coverage[i] = cov

		inception, okInc := parsed[domain.ColInceptionDate][i].Date()
		dol, okDol := parsed[domain.ColDOL][i].Date()
		if !okInc || !okDol {
			continue
		}
		m := monthsBetween(inception, dol)
		months[i] = NumberValue(float64(m))
		if label, ok := Bucketize(opts.Buckets, m); ok {
			ranges[i] = StringValue(label)
		}
	}

	for _, c := range []struct {
		name   string
		values []Value
	}{
		{domain.ColCauseCategory, causeCats},
		{domain.ColCoverage, coverage},
		{domain.ColMonthsSinceInception, months},
		{domain.ColClaimRange, ranges},
	} {
		var err error
		if out, err = out.WithColumn(c.name, c.values); err != nil {
			return nil, stats, err
		}
	}
	out = out.Drop(domain.ColTypeOfCover)

	out = out.selectRows(func(i int) bool {
		return !months[i].IsNull() && !ranges[i].IsNull() && !parsed[domain.ColDOL][i].IsNull()
	})
	stats.RowsOut = out.Len()
	stats.DroppedRows = stats.RowsIn - stats.RowsOut
	return out, stats, nil
}
