package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	"github.com/revaldyhazza/analisadolproperty/internal/exporter"
	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/events"
)

// EventPublisher delivers session events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, sessionID string, msgType events.MessageType, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, events.MessageType, interface{}) {}

// AnalysisService owns the analysis sessions: it accepts the two register
// uploads, rebuilds the merged dataset and serves filtered reports.
type AnalysisService struct {
	cfg       *config.Config
	pipeline  *dataprocessing.Pipeline
	loader    *dataprocessing.Loader
	sessions  *gocache.Cache
	publisher EventPublisher
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewAnalysisService creates the service. publisher and metrics may be nil.
func NewAnalysisService(cfg *config.Config, pipeline *dataprocessing.Pipeline, loader *dataprocessing.Loader,
	publisher EventPublisher, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalysisService {
	if cfg == nil {
		cfg = config.Default()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	logger = infrastructure.WithComponent(logger, "analysis_service")
	if pipeline == nil {
		pipeline = dataprocessing.NewPipeline(dataprocessing.DefaultPipelineOptions(), logger, metrics)
	}
	if loader == nil {
		loader = dataprocessing.NewLoader(cfg.Cache.WorkbookTTL, logger)
	}

	s := &AnalysisService{
		cfg:       cfg,
		pipeline:  pipeline,
		loader:    loader,
		sessions:  gocache.New(cfg.Session.TTL, cfg.Session.CleanupInterval),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
	s.sessions.OnEvicted(s.onEvicted)
	return s
}

// CreateSession starts an empty analysis session.
func (s *AnalysisService) CreateSession(ctx context.Context) api.SessionResponse {
	sess := newSession(uuid.NewString())
	s.sessions.Set(sess.id, sess, gocache.DefaultExpiration)
	if s.metrics != nil {
		s.metrics.SessionsActive.Add(ctx, 1)
	}

	s.logger.InfoContext(ctx, "session created", slog.String("session_id", sess.id))
	return api.SessionResponse{
		SessionID: sess.id,
		CreatedAt: sess.createdAt,
		ExpiresAt: sess.createdAt.Add(s.cfg.Session.TTL),
	}
}

// DeleteSession discards a session and everything uploaded to it.
func (s *AnalysisService) DeleteSession(ctx context.Context, id string) error {
	if _, ok := s.sessions.Get(id); !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(id)
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

// HasSession reports whether id names a live session.
func (s *AnalysisService) HasSession(id string) bool {
	_, ok := s.sessions.Get(id)
	return ok
}

// SessionCount returns the number of sessions held in memory.
func (s *AnalysisService) SessionCount() int {
	return s.sessions.ItemCount()
}

// LoaderStats reports the workbook memo cache counters.
func (s *AnalysisService) LoaderStats() dataprocessing.LoaderStats {
	return s.loader.Stats()
}

func (s *AnalysisService) onEvicted(id string, _ interface{}) {
	ctx := context.Background()
	if s.metrics != nil {
		s.metrics.SessionsActive.Add(ctx, -1)
	}
	s.publisher.Publish(ctx, id, events.MessageTypeSessionClosed, nil)
	s.logger.Debug("session closed", slog.String("session_id", id))
}

// session returns the session and extends its lifetime. Replace only
// succeeds while the entry still exists, so a session deleted between the
// two calls stays deleted.
func (s *AnalysisService) session(id string) (*session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*session)
	if err := s.sessions.Replace(id, sess, gocache.DefaultExpiration); err != nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Upload parses one register and stores it in the session. Once both
// registers are present the dataset is rebuilt; a rebuild overtaken by a
// newer upload is discarded.
func (s *AnalysisService) Upload(ctx context.Context, id string, source domain.Source, filename string, data []byte) (*api.UploadResponse, error) {
	if !source.Valid() {
		return nil, ErrInvalidSource
	}
	if int64(len(data)) > s.cfg.Upload.MaxBytes {
		return nil, ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
	default:
		return nil, ErrUnsupportedFormat
	}

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		slog.String("session_id", id),
		slog.String("source", string(source)),
		slog.String("filename", filename))

	raw, cached, err := s.loader.Load(ctx, string(source), data)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordUpload(ctx, string(source), len(data), cached)

	prepared, stats, err := s.pipeline.Prepare(ctx, source, raw)
	if err != nil {
		return nil, err
	}

	version, claims, outstanding := sess.store(source, &upload{
		filename: filename,
		table:    prepared,
		stats:    stats,
		cached:   cached,
		at:       time.Now(),
	})
	logger.InfoContext(ctx, "upload stored",
		slog.Uint64("version", version),
		slog.Int("rows", stats.RowsOut),
		slog.Int("duplicates", stats.Duplicates),
		slog.Bool("cached", cached))

	resp := &api.UploadResponse{
		Source:     source,
		Filename:   filename,
		RowsIn:     stats.RowsIn,
		Rows:       stats.RowsOut,
		Duplicates: stats.Duplicates,
		Columns:    prepared.Columns(),
		Preview:    plainRecords(prepared.Head(s.cfg.Upload.PreviewRow)),
		Cached:     cached,
	}

	if claims != nil && outstanding != nil {
		ready, err := s.rebuild(ctx, sess, version, claims.table, outstanding.table)
		if err != nil {
			return nil, err
		}
		resp.Ready = ready
	}

	s.publisher.Publish(ctx, id, events.MessageTypeUploadProcessed, events.UploadProcessed{
		Source:     string(source),
		Filename:   filename,
		RowsIn:     resp.RowsIn,
		Rows:       resp.Rows,
		Duplicates: resp.Duplicates,
		Cached:     cached,
		Ready:      resp.Ready,
	})
	return resp, nil
}

// rebuild builds the dataset for version and commits it when version is
// still the latest. It reports whether a dataset was committed.
func (s *AnalysisService) rebuild(ctx context.Context, sess *session, version uint64, claims, outstanding *dataprocessing.Table) (bool, error) {
	ds, err := s.pipeline.Build(ctx, claims, outstanding)
	if !sess.commit(version, ds, err) {
		s.logger.InfoContext(ctx, "stale build discarded",
			slog.String("session_id", sess.id),
			slog.Uint64("version", version))
		return false, nil
	}

	if err != nil {
		failed := events.DatasetFailed{Version: version, Error: err.Error()}
		var se *dataprocessing.SchemaError
		if errors.As(err, &se) {
			failed.Stage, failed.Column = se.Stage, se.Column
		}
		s.publisher.Publish(ctx, sess.id, events.MessageTypeDatasetFailed, failed)
		return false, err
	}

	s.publisher.Publish(ctx, sess.id, events.MessageTypeDatasetUpdated, events.DatasetUpdated{
		Version:         version,
		Rows:            ds.Table.Len(),
		ClaimsOnly:      ds.Reconcile.ClaimsOnly,
		OutstandingOnly: ds.Reconcile.OutstandingOnly,
		Both:            ds.Reconcile.Both,
		DroppedRows:     ds.Derive.DroppedRows,
		BuiltAt:         ds.BuiltAt,
	})
	return true, nil
}

// Options returns the filter bounds of the session's dataset.
func (s *AnalysisService) Options(ctx context.Context, id string) (*api.OptionsResponse, error) {
	ds, err := s.dataset(id)
	if err != nil {
		return nil, err
	}
	opts, err := dataprocessing.Options(ds.Table)
	if err != nil {
		return nil, err
	}
	return &api.OptionsResponse{
		Ranges:   opts.Ranges,
		MinDOL:   opts.MinDOL,
		MaxDOL:   opts.MaxDOL,
		MinMonth: opts.MinMonth,
		MaxMonth: opts.MaxMonth,
		Rows:     ds.Table.Len(),
	}, nil
}

// Query filters the session's dataset and returns one page of rows with
// the summaries of every matching row.
func (s *AnalysisService) Query(ctx context.Context, id string, req api.QueryRequest) (*api.QueryResponse, error) {
	ds, err := s.dataset(id)
	if err != nil {
		return nil, err
	}
	report, err := s.report(ctx, ds, req)
	if err != nil {
		return nil, err
	}

	page, size := s.paging(req)
	total := report.Rows.Len()
	totalPages := (total + size - 1) / size

	return &api.QueryResponse{
		RowsAfterFilter: total,
		Page:            page,
		PageSize:        size,
		TotalPages:      totalPages,
		Columns:         report.Rows.Columns(),
		Rows:            plainRecords(report.Rows.Slice((page-1)*size, size)),
		Summary:         report.Summary,
		Charts:          report.Charts,
		Reconcile:       reconcileSummary(ds),
		Warnings:        report.Filter.Warnings,
	}, nil
}

// Export is a filtered dataset ready to be written in one format.
type Export struct {
	Filename    string
	ContentType string
	Rows        int
	write       func(w io.Writer) error
}

// NewExport describes a download of rows records that write encodes.
func NewExport(filename, contentType string, rows int, write func(w io.Writer) error) *Export {
	return &Export{Filename: filename, ContentType: contentType, Rows: rows, write: write}
}

// Write encodes the export to w.
func (e *Export) Write(w io.Writer) error {
	return e.write(w)
}

// Export filters the session's dataset for download.
func (s *AnalysisService) Export(ctx context.Context, id string, req api.ExportRequest) (*Export, error) {
	ds, err := s.dataset(id)
	if err != nil {
		return nil, err
	}
	report, err := s.report(ctx, ds, req.QueryRequest)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().Format("20060102_150405")
	var exp *Export
	switch req.Format {
	case api.FormatXLSX, "":
		exp = NewExport("analisa_dol_"+stamp+".xlsx", exporter.ContentTypeXLSX, report.Rows.Len(),
			func(w io.Writer) error {
				return exporter.WriteXLSX(w, report.Rows, report.Summary)
			})
	case api.FormatCSV:
		exp = NewExport("analisa_dol_"+stamp+".csv", exporter.ContentTypeCSV, report.Rows.Len(),
			func(w io.Writer) error {
				return exporter.NewCSVWriter(exporter.CSVOptions{BOMPrefix: req.BOM}).Write(w, report.Rows)
			})
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", ErrInvalidQuery, req.Format)
	}

	s.logger.InfoContext(ctx, "export prepared",
		slog.String("session_id", id),
		slog.String("format", req.Format),
		slog.Int("rows", exp.Rows))
	return exp, nil
}

// dataset returns the session's current dataset.
func (s *AnalysisService) dataset(id string) (*dataprocessing.Dataset, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.current()
}

func (s *AnalysisService) report(ctx context.Context, ds *dataprocessing.Dataset, req api.QueryRequest) (*dataprocessing.Report, error) {
	params, err := FilterParams(req)
	if err != nil {
		return nil, err
	}
	report, err := s.pipeline.Report(ctx, ds, params)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ReportsGenerated.Add(ctx, 1,
			metric.WithAttributes(attribute.Bool("filtered", report.Filter.RowsOut != report.Filter.RowsIn)))
	}
	return report, nil
}

func (s *AnalysisService) paging(req api.QueryRequest) (page, size int) {
	page, size = req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = config.DefaultPageSize
	}
	if limit := s.cfg.Session.MaxPageSize; limit > 0 && size > limit {
		size = limit
	}
	return page, size
}

// FilterParams converts a query request into pipeline filter parameters.
// An open side of the month range is unbounded.
func FilterParams(req api.QueryRequest) (dataprocessing.FilterParams, error) {
	var p dataprocessing.FilterParams

	for _, r := range req.Ranges {
		if domain.RangeOrder(r) < 0 {
			return p, fmt.Errorf("%w: unknown range %q", ErrInvalidQuery, r)
		}
	}
	p.Ranges = req.Ranges

	var err error
	if p.Dates.Start, err = parseQueryDate("dol_start", req.DOLStart); err != nil {
		return p, err
	}
	if p.Dates.End, err = parseQueryDate("dol_end", req.DOLEnd); err != nil {
		return p, err
	}
	if p.Dates.Complete() && p.Dates.Start.After(*p.Dates.End) {
		return p, fmt.Errorf("%w: dol_start is after dol_end", ErrInvalidQuery)
	}

	if req.MonthMin != nil || req.MonthMax != nil {
		months := &dataprocessing.MonthRange{Min: math.MinInt, Max: math.MaxInt}
		if req.MonthMin != nil {
			months.Min = *req.MonthMin
		}
		if req.MonthMax != nil {
			months.Max = *req.MonthMax
		}
		if months.Min > months.Max {
			return p, fmt.Errorf("%w: month_min is greater than month_max", ErrInvalidQuery)
		}
		p.Months = months
	}
	return p, nil
}

func parseQueryDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dataprocessing.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidQuery, field)
	}
	return &t, nil
}

func reconcileSummary(ds *dataprocessing.Dataset) api.ReconcileSummary {
	return api.ReconcileSummary{
		ClaimsOnly:          ds.Reconcile.ClaimsOnly,
		OutstandingOnly:     ds.Reconcile.OutstandingOnly,
		Both:                ds.Reconcile.Both,
		MissingKeys:         ds.Reconcile.MissingKeys,
		SeparatorCollisions: ds.Reconcile.SeparatorCollisions,
		DroppedRows:         ds.Derive.DroppedRows,
		UnparsedDates:       ds.Derive.UnparsedDates,
		UnmappedCause:       ds.Derive.UnmappedCause,
	}
}

// plainRecords converts rows to JSON-friendly maps.
func plainRecords(t *dataprocessing.Table) []map[string]interface{} {
	records := make([]map[string]interface{}, 0, t.Len())
	for _, rec := range t.Records() {
		m := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			m[k] = v.Interface()
		}
		records = append(records, m)
	}
	return records
}
