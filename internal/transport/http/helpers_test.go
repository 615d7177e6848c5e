package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	apierrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	"github.com/revaldyhazza/analisadolproperty/internal/services"
	"github.com/revaldyhazza/analisadolproperty/internal/shared/testutil"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) CreateSession(ctx context.Context) api.SessionResponse {
	return m.Called(ctx).Get(0).(api.SessionResponse)
}

func (m *mockAnalysisService) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAnalysisService) HasSession(id string) bool {
	return m.Called(id).Bool(0)
}

func (m *mockAnalysisService) Upload(ctx context.Context, id string, source domain.Source, filename string, data []byte) (*api.UploadResponse, error) {
	args := m.Called(ctx, id, source, filename, data)
	resp, _ := args.Get(0).(*api.UploadResponse)
	return resp, args.Error(1)
}

func (m *mockAnalysisService) Options(ctx context.Context, id string) (*api.OptionsResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*api.OptionsResponse)
	return resp, args.Error(1)
}

func (m *mockAnalysisService) Query(ctx context.Context, id string, req api.QueryRequest) (*api.QueryResponse, error) {
	args := m.Called(ctx, id, req)
	resp, _ := args.Get(0).(*api.QueryResponse)
	return resp, args.Error(1)
}

func (m *mockAnalysisService) Export(ctx context.Context, id string, req api.ExportRequest) (*services.Export, error) {
	args := m.Called(ctx, id, req)
	resp, _ := args.Get(0).(*services.Export)
	return resp, args.Error(1)
}

// newServiceRouter mounts a session handler backed by a real service.
func newServiceRouter(t *testing.T) (http.Handler, *services.AnalysisService) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	cfg := config.Default()
	svc := services.NewAnalysisService(cfg, nil, nil, nil, nil, logger)
	h := NewSessionHandler(svc, nil, apierrors.NewErrorHandler(logger, false), cfg.Upload.MaxBytes, logger)
	return h.Routes(), svc
}

// newMockRouter mounts a session handler backed by a mock service.
func newMockRouter(t *testing.T, svc AnalysisService, maxUpload int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewSessionHandler(svc, nil, apierrors.NewErrorHandler(logger, false), maxUpload, logger).Routes()
}

// multipartBody builds an upload form with data under field.
func multipartBody(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, h http.Handler, id string, source domain.Source, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, formField, filename, data)
	return doRequest(t, h, http.MethodPost, "/"+id+"/uploads/"+string(source), body, ct)
}

// decodeData unmarshals the data field of a success envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, "success", env.Status)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}
