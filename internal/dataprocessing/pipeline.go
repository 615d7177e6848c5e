package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

const tracerName = "analisadol/dataprocessing"

// Stage names used in logs, spans, metrics and SchemaErrors.
const (
	StageDedupe    = "dedupe"
	StageNormalize = "normalize"
	StageReconcile = "reconcile"
	StageMerge     = "merge"
	StageDerive    = "derive"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
)

// PipelineOptions configures every stage.
type PipelineOptions struct {
	ClaimsKeys        []string
	OutstandingKeys   []string
	ClaimsSchema      Schema
	OutstandingSchema Schema
	DropColumns       []string
	Derive            DeriveOptions
}

// DefaultPipelineOptions returns the property claims configuration.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		ClaimsKeys:        ClaimsKeyColumns,
		OutstandingKeys:   OutstandingKeyColumns,
		ClaimsSchema:      ClaimsSchema(),
		OutstandingSchema: OutstandingSchema(),
		DropColumns:       DefaultDropColumns,
		Derive:            DefaultDeriveOptions(),
	}
}

// PrepareStats reports what deduplication did to one upload.
type PrepareStats struct {
	Source     domain.Source `json:"source"`
	RowsIn     int           `json:"rows_in"`
	RowsOut    int           `json:"rows_out"`
	Duplicates int           `json:"duplicates"`
}

// Dataset is the merged, enriched result of both uploads.
type Dataset struct {
	Table     *Table         `json:"-"`
	Reconcile ReconcileStats `json:"reconcile"`
	Derive    DeriveStats    `json:"derive"`
	BuiltAt   time.Time      `json:"built_at"`
}

// Report is a filtered view of a dataset with its summaries.
type Report struct {
	Filter  FilterResult       `json:"filter"`
	Rows    *Table             `json:"-"`
	Summary *domain.Summary    `json:"summary"`
	Charts  []domain.ChartSpec `json:"charts"`
}

// Pipeline runs the stages from uploaded tables to reports. It holds no
// per-session state and is safe for concurrent use.
type Pipeline struct {
	opts    PipelineOptions
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

// NewPipeline creates a pipeline. metrics may be nil.
func NewPipeline(opts PipelineOptions, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:    opts,
		logger:  logger.With(slog.String("component", "pipeline")),
		tracer:  otel.Tracer(tracerName),
		metrics: metrics,
	}
}

// Prepare tags an upload with its provenance and removes duplicate rows
// using the source's key columns.
func (p *Pipeline) Prepare(ctx context.Context, source domain.Source, raw *Table) (*Table, PrepareStats, error) {
	stats := PrepareStats{Source: source, RowsIn: raw.Len()}
	keys := p.opts.ClaimsKeys
	if source == domain.SourceOutstanding {
		keys = p.opts.OutstandingKeys
	}

	var out *Table
	err := p.stage(ctx, StageDedupe, func(ctx context.Context) (int, int, error) {
		deduped, err := Dedupe(raw, keys)
		if err != nil {
			return 0, 0, err
		}
		out = Tag(deduped, source)
		return out.Len(), raw.Len() - out.Len(), nil
	}, attribute.String("source", string(source)))
	if err != nil {
		return nil, stats, err
	}

	stats.RowsOut = out.Len()
	stats.Duplicates = stats.RowsIn - stats.RowsOut
	return out, stats, nil
}

// Build normalizes, reconciles, merges and derives features from the two
// prepared uploads.
func (p *Pipeline) Build(ctx context.Context, claims, outstanding *Table) (*Dataset, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.build")
	defer span.End()

	ds := &Dataset{}
	var a, b, merged *Table

	steps := []struct {
		name string
		run  func(ctx context.Context) (int, int, error)
	}{
		{StageNormalize, func(context.Context) (int, int, error) {
			var err error
			if a, err = Normalize(claims, p.opts.ClaimsSchema); err != nil {
				return 0, 0, err
			}
			if b, err = Normalize(outstanding, p.opts.OutstandingSchema); err != nil {
				return 0, 0, err
			}
			return a.Len() + b.Len(), 0, nil
		}},
		{StageReconcile, func(ctx context.Context) (int, int, error) {
			var err error
			a, b, ds.Reconcile, err = Reconcile(a, b)
			if err != nil {
				return 0, 0, err
			}
			if ds.Reconcile.SeparatorCollisions > 0 {
				p.logger.WarnContext(ctx, "identifiers contain the join key separator",
					slog.Int("count", ds.Reconcile.SeparatorCollisions))
			}
			return a.Len() + b.Len(), 0, nil
		}},
		{StageMerge, func(context.Context) (int, int, error) {
			merged = Merge(a, b, p.opts.DropColumns)
			return merged.Len(), 0, nil
		}},
		{StageDerive, func(context.Context) (int, int, error) {
			var err error
			ds.Table, ds.Derive, err = Derive(merged, p.opts.Derive)
			if err != nil {
				return 0, 0, err
			}
			return ds.Table.Len(), ds.Derive.DroppedRows, nil
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.stage(ctx, s.name, s.run); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	ds.BuiltAt = time.Now()
	span.SetAttributes(
		attribute.Int("rows", ds.Table.Len()),
		attribute.Int("dropped_rows", ds.Derive.DroppedRows),
		attribute.Int("keys.both", ds.Reconcile.Both))
	p.logger.InfoContext(ctx, "dataset built",
		slog.Int("rows", ds.Table.Len()),
		slog.Int("claims_only", ds.Reconcile.ClaimsOnly),
		slog.Int("outstanding_only", ds.Reconcile.OutstandingOnly),
		slog.Int("both", ds.Reconcile.Both),
		slog.Int("dropped_rows", ds.Derive.DroppedRows),
		slog.Int("unparsed_dates", ds.Derive.UnparsedDates))
	return ds, nil
}

// Report filters a dataset and aggregates the filtered rows.
func (p *Pipeline) Report(ctx context.Context, ds *Dataset, params FilterParams) (*Report, error) {
	if ds == nil || ds.Table == nil {
		return nil, fmt.Errorf("report: no dataset")
	}

	r := &Report{}
	err := p.stage(ctx, StageFilter, func(context.Context) (int, int, error) {
		var err error
		r.Rows, r.Filter, err = Filter(ds.Table, params)
		if err != nil {
			return 0, 0, err
		}
		return r.Rows.Len(), 0, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, StageAggregate, func(context.Context) (int, int, error) {
		var err error
		if r.Summary, err = Aggregate(r.Rows); err != nil {
			return 0, 0, err
		}
		r.Charts = BuildCharts(r.Summary)
		return r.Summary.Rows, 0, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// stage runs fn inside a span and records its duration, output rows and
// dropped rows.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) (int, int, error), attrs ...attribute.KeyValue) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	rows, dropped, err := fn(ctx)
	elapsed := time.Since(start)
	p.metrics.RecordStage(ctx, name, elapsed, rows, dropped, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.WarnContext(ctx, "pipeline stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()))
		return err
	}

	span.SetAttributes(attribute.Int("rows", rows), attribute.Int("dropped", dropped))
	p.logger.DebugContext(ctx, "pipeline stage complete",
		slog.String("stage", name),
		slog.Int("rows", rows),
		slog.Int("dropped", dropped),
		slog.Duration("duration", elapsed))
	return nil
}
