package services

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	"github.com/revaldyhazza/analisadolproperty/internal/shared/testutil"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/events"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []events.Message
}

func (p *recordingPublisher) Publish(_ context.Context, sessionID string, msgType events.MessageType, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, events.NewMessage(msgType, sessionID, data))
}

func (p *recordingPublisher) types() []events.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.MessageType, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Type)
	}
	return out
}

func (p *recordingPublisher) last(t events.MessageType) (events.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if p.messages[i].Type == t {
			return p.messages[i], true
		}
	}
	return events.Message{}, false
}

func newTestService(t *testing.T, mutate ...func(*config.Config)) (*AnalysisService, *recordingPublisher) {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(cfg)
	}
	logger, _ := testutil.NewTestLogger(t)
	pub := &recordingPublisher{}
	return NewAnalysisService(cfg, nil, nil, pub, nil, logger), pub
}

// readySession creates a session with both registers uploaded.
func readySession(t *testing.T, svc *AnalysisService) string {
	t.Helper()
	ctx := context.Background()
	id := svc.CreateSession(ctx).SessionID

	_, err := svc.Upload(ctx, id, domain.SourceClaims, "klaim.xlsx", testutil.ClaimsWorkbook(t))
	require.NoError(t, err)
	resp, err := svc.Upload(ctx, id, domain.SourceOutstanding, "os.xlsx", testutil.OutstandingWorkbook(t))
	require.NoError(t, err)
	require.True(t, resp.Ready)
	return id
}

func TestAnalysisService_UploadFlow(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	sess := svc.CreateSession(ctx)
	require.NotEmpty(t, sess.SessionID)
	assert.Equal(t, config.DefaultSessionTTL, sess.ExpiresAt.Sub(sess.CreatedAt))
	assert.Equal(t, 1, svc.SessionCount())

	claims, err := svc.Upload(ctx, sess.SessionID, domain.SourceClaims, "klaim.xlsx", testutil.ClaimsWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, 4, claims.RowsIn)
	assert.Equal(t, 3, claims.Rows)
	assert.Equal(t, 1, claims.Duplicates)
	assert.Len(t, claims.Preview, 3)
	assert.Contains(t, claims.Columns, domain.ColSource)
	assert.Equal(t, "A1", claims.Preview[0]["NO POLIS"])
	assert.False(t, claims.Ready)

	_, err = svc.Options(ctx, sess.SessionID)
	assert.ErrorIs(t, err, ErrDatasetNotReady)

	outstanding, err := svc.Upload(ctx, sess.SessionID, domain.SourceOutstanding, "os.xlsx", testutil.OutstandingWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, 2, outstanding.Rows)
	assert.True(t, outstanding.Ready)

	assert.Equal(t, []events.MessageType{
		events.MessageTypeUploadProcessed,
		events.MessageTypeDatasetUpdated,
		events.MessageTypeUploadProcessed,
	}, pub.types())

	msg, ok := pub.last(events.MessageTypeDatasetUpdated)
	require.True(t, ok)
	updated := msg.Data.(events.DatasetUpdated)
	assert.Equal(t, uint64(2), updated.Version)
	assert.Equal(t, 5, updated.Rows)
	assert.Equal(t, 1, updated.Both)
}

func TestAnalysisService_Query(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := readySession(t, svc)

	t.Run("whole dataset", func(t *testing.T) {
		resp, err := svc.Query(ctx, id, api.QueryRequest{})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.RowsAfterFilter)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, config.DefaultPageSize, resp.PageSize)
		assert.Equal(t, 1, resp.TotalPages)
		assert.Len(t, resp.Rows, 5)
		require.NotNil(t, resp.Summary)
		assert.Equal(t, 5, resp.Summary.Rows)
		assert.NotEmpty(t, resp.Charts)
		assert.Equal(t, 2, resp.Reconcile.ClaimsOnly)
		assert.Equal(t, 1, resp.Reconcile.OutstandingOnly)
		assert.Equal(t, 1, resp.Reconcile.Both)
	})

	t.Run("paging", func(t *testing.T) {
		resp, err := svc.Query(ctx, id, api.QueryRequest{Page: 3, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Len(t, resp.Rows, 1)
		assert.Equal(t, 5, resp.RowsAfterFilter)
	})

	t.Run("page size capped", func(t *testing.T) {
		resp, err := svc.Query(ctx, id, api.QueryRequest{PageSize: 1 << 20})
		require.NoError(t, err)
		assert.Equal(t, config.DefaultMaxPageSize, resp.PageSize)
	})

	t.Run("range filter", func(t *testing.T) {
		resp, err := svc.Query(ctx, id, api.QueryRequest{Ranges: []string{domain.RangeOver12}})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.RowsAfterFilter)
		assert.Equal(t, 1, resp.Summary.Rows)
	})

	t.Run("single date bound warns", func(t *testing.T) {
		resp, err := svc.Query(ctx, id, api.QueryRequest{DOLStart: "2023-01-01"})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.RowsAfterFilter)
		assert.Contains(t, resp.Warnings, dataprocessing.WarnSingleDateBound)
	})

	t.Run("invalid month range", func(t *testing.T) {
		lo, hi := 6, 2
		_, err := svc.Query(ctx, id, api.QueryRequest{MonthMin: &lo, MonthMax: &hi})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestAnalysisService_Options(t *testing.T) {
	svc, _ := newTestService(t)
	id := readySession(t, svc)

	opts, err := svc.Options(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Rows)
	require.NotEmpty(t, opts.Ranges)
	assert.Equal(t, domain.RangeUpTo3, opts.Ranges[0])
	require.NotNil(t, opts.MinDOL)
	require.NotNil(t, opts.MaxDOL)
	assert.Equal(t, "2023-04-20", opts.MinDOL.Format(dataprocessing.DateLayout))
	assert.Equal(t, "2023-12-05", opts.MaxDOL.Format(dataprocessing.DateLayout))
}

func TestAnalysisService_UploadValidation(t *testing.T) {
	svc, _ := newTestService(t, func(c *config.Config) { c.Upload.MaxBytes = 1 << 20 })
	ctx := context.Background()
	id := svc.CreateSession(ctx).SessionID
	book := testutil.ClaimsWorkbook(t)

	tests := []struct {
		name     string
		id       string
		source   domain.Source
		filename string
		data     []byte
		wantErr  error
	}{
		{"invalid source", id, domain.Source("premi"), "a.xlsx", book, ErrInvalidSource},
		{"too large", id, domain.SourceClaims, "a.xlsx", make([]byte, 1<<20+1), ErrUploadTooLarge},
		{"empty", id, domain.SourceClaims, "a.xlsx", nil, ErrEmptyUpload},
		{"csv file", id, domain.SourceClaims, "a.csv", book, ErrUnsupportedFormat},
		{"unknown session", "missing", domain.SourceClaims, "a.xlsx", book, ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.id, tt.source, tt.filename, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("unreadable workbook", func(t *testing.T) {
		_, err := svc.Upload(ctx, id, domain.SourceClaims, "broken.xlsx", []byte("not a zip"))
		require.Error(t, err)
		assert.True(t, dataprocessing.IsLoadError(err))
	})
}

func TestAnalysisService_BuildFailure(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	id := svc.CreateSession(ctx).SessionID

	_, err := svc.Upload(ctx, id, domain.SourceClaims, "klaim.xlsx", testutil.ClaimsWorkbook(t))
	require.NoError(t, err)

	noPolicy := testutil.Workbook(t,
		[]interface{}{"CLAIM NO", "CAUSE OF LOSS"},
		[]interface{}{"K1", "Banjir"},
	)
	_, err = svc.Upload(ctx, id, domain.SourceOutstanding, "os.xlsx", noPolicy)
	require.Error(t, err)
	assert.True(t, dataprocessing.IsSchemaError(err))

	msg, ok := pub.last(events.MessageTypeDatasetFailed)
	require.True(t, ok)
	failed := msg.Data.(events.DatasetFailed)
	assert.Equal(t, uint64(2), failed.Version)
	assert.Equal(t, dataprocessing.StageReconcile, failed.Stage)

	_, err = svc.Query(ctx, id, api.QueryRequest{})
	assert.ErrorIs(t, err, ErrDatasetNotReady)
	assert.True(t, dataprocessing.IsSchemaError(err))

	// A valid re-upload recovers the session.
	resp, err := svc.Upload(ctx, id, domain.SourceOutstanding, "os.xlsx", testutil.OutstandingWorkbook(t))
	require.NoError(t, err)
	assert.True(t, resp.Ready)
	_, err = svc.Query(ctx, id, api.QueryRequest{})
	assert.NoError(t, err)
}

func TestAnalysisService_ConcurrentUploads(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := svc.CreateSession(ctx).SessionID
	claims, outstanding := testutil.ClaimsWorkbook(t), testutil.OutstandingWorkbook(t)

	for round := 0; round < 5; round++ {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := svc.Upload(gctx, id, domain.SourceClaims, "klaim.xlsx", claims)
			return err
		})
		g.Go(func() error {
			_, err := svc.Upload(gctx, id, domain.SourceOutstanding, "os.xlsx", outstanding)
			return err
		})
		require.NoError(t, g.Wait())

		opts, err := svc.Options(ctx, id)
		require.NoError(t, err, "latest upload must leave a committed dataset")
		assert.Equal(t, 5, opts.Rows)
	}
	assert.Positive(t, svc.LoaderStats().Hits)
}

func TestSession_StaleBuildDiscarded(t *testing.T) {
	s := newSession("s1")
	v1, _, _ := s.store(domain.SourceClaims, &upload{})
	v2, _, _ := s.store(domain.SourceOutstanding, &upload{})
	require.Equal(t, v1+1, v2)

	stale := &dataprocessing.Dataset{Table: dataprocessing.MustTable([]string{"x"}, nil)}
	assert.False(t, s.commit(v1, stale, nil))
	_, err := s.current()
	assert.ErrorIs(t, err, ErrDatasetNotReady)

	fresh := &dataprocessing.Dataset{Table: dataprocessing.MustTable([]string{"x"}, nil)}
	assert.True(t, s.commit(v2, fresh, nil))
	ds, err := s.current()
	require.NoError(t, err)
	assert.Same(t, fresh, ds)

	s.store(domain.SourceClaims, &upload{})
	_, err = s.current()
	assert.ErrorIs(t, err, ErrDatasetNotReady, "a newer upload hides the previous dataset")
}

func TestAnalysisService_DeleteSession(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	id := svc.CreateSession(ctx).SessionID

	require.NoError(t, svc.DeleteSession(ctx, id))
	assert.Zero(t, svc.SessionCount())
	assert.Contains(t, pub.types(), events.MessageTypeSessionClosed)
	assert.ErrorIs(t, svc.DeleteSession(ctx, id), ErrSessionNotFound)

	_, err := svc.Query(ctx, id, api.QueryRequest{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnalysisService_DeletedSessionStaysDeleted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		id := svc.CreateSession(ctx).SessionID

		var g errgroup.Group
		for i := 0; i < 8; i++ {
			g.Go(func() error {
				for j := 0; j < 50; j++ {
					_, err := svc.Options(ctx, id)
					if err != nil && !errors.Is(err, ErrDatasetNotReady) && !errors.Is(err, ErrSessionNotFound) {
						return err
					}
				}
				return nil
			})
		}
		g.Go(func() error { return svc.DeleteSession(ctx, id) })
		require.NoError(t, g.Wait())

		assert.False(t, svc.HasSession(id), "round %d: lookup brought the session back", round)
		_, err := svc.Options(ctx, id)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
	assert.Zero(t, svc.SessionCount())
}

func TestAnalysisService_SessionExpiry(t *testing.T) {
	svc, pub := newTestService(t, func(c *config.Config) {
		c.Session.TTL = 50 * time.Millisecond
		c.Session.CleanupInterval = 10 * time.Millisecond
	})
	id := svc.CreateSession(context.Background()).SessionID

	assert.Eventually(t, func() bool {
		_, ok := pub.last(events.MessageTypeSessionClosed)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	_, err := svc.Options(context.Background(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnalysisService_Export(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := readySession(t, svc)

	t.Run("xlsx", func(t *testing.T) {
		exp, err := svc.Export(ctx, id, api.ExportRequest{Format: api.FormatXLSX})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(exp.Filename, ".xlsx"))
		assert.Equal(t, 5, exp.Rows)

		var buf bytes.Buffer
		require.NoError(t, exp.Write(&buf))
		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), "Data")
	})

	t.Run("csv with bom", func(t *testing.T) {
		exp, err := svc.Export(ctx, id, api.ExportRequest{
			QueryRequest: api.QueryRequest{Ranges: []string{domain.RangeOver12}},
			Format:       api.FormatCSV,
			BOM:          true,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, exp.Rows)

		var buf bytes.Buffer
		require.NoError(t, exp.Write(&buf))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 2)
		assert.Contains(t, lines[0], domain.ColPolicy)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := svc.Export(ctx, id, api.ExportRequest{Format: "pdf"})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestFilterParams(t *testing.T) {
	three := 3

	tests := []struct {
		name    string
		req     api.QueryRequest
		check   func(t *testing.T, p dataprocessing.FilterParams)
		wantErr bool
	}{
		{
			name: "empty request",
			req:  api.QueryRequest{},
			check: func(t *testing.T, p dataprocessing.FilterParams) {
				assert.Empty(t, p.Ranges)
				assert.Nil(t, p.Months)
				assert.False(t, p.Dates.Complete())
			},
		},
		{
			name: "open month maximum",
			req:  api.QueryRequest{MonthMin: &three},
			check: func(t *testing.T, p dataprocessing.FilterParams) {
				require.NotNil(t, p.Months)
				assert.Equal(t, 3, p.Months.Min)
				assert.Equal(t, math.MaxInt, p.Months.Max)
			},
		},
		{
			name: "open month minimum",
			req:  api.QueryRequest{MonthMax: &three},
			check: func(t *testing.T, p dataprocessing.FilterParams) {
				require.NotNil(t, p.Months)
				assert.Equal(t, math.MinInt, p.Months.Min)
			},
		},
		{
			name: "both dates",
			req:  api.QueryRequest{DOLStart: "2023-01-01", DOLEnd: "2023-06-30"},
			check: func(t *testing.T, p dataprocessing.FilterParams) {
				assert.True(t, p.Dates.Complete())
				assert.Equal(t, time.June, p.Dates.End.Month())
			},
		},
		{name: "reversed dates", req: api.QueryRequest{DOLStart: "2023-06-30", DOLEnd: "2023-01-01"}, wantErr: true},
		{name: "bad date", req: api.QueryRequest{DOLStart: "30/06/2023"}, wantErr: true},
		{name: "unknown range", req: api.QueryRequest{Ranges: []string{"12+"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FilterParams(tt.req)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidQuery))
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}
