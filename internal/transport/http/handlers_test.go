package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	apierrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	"github.com/revaldyhazza/analisadolproperty/internal/services"
	"github.com/revaldyhazza/analisadolproperty/internal/shared/testutil"
	ws "github.com/revaldyhazza/analisadolproperty/internal/websocket"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/events"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name       string
		sessions   services.SessionCounter
		path       string
		wantStatus int
		wantBody   []string
	}{
		{"health", nil, "/health", http.StatusOK, []string{`"status":"ok"`}},
		{"liveness", nil, "/health/live", http.StatusOK, []string{`"status":"alive"`}},
		{"not ready without sessions", nil, "/health/ready", http.StatusServiceUnavailable,
			[]string{`"not_ready"`, `"error_code":"SERVICE_UNAVAILABLE"`, `"type":"/errors/service-unavailable"`}},
		{"ready", services.NewAnalysisService(nil, nil, nil, nil, nil, logger), "/health/ready", http.StatusOK, []string{`"status":"ready"`}},
		{"version", nil, "/version", http.StatusOK, []string{contracts.Version}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(services.NewHealthService(tt.sessions, nil, nil, logger), apierrors.NewErrorHandler(logger, false), logger)
			r := chi.NewRouter()
			r.Get("/health", h.HealthCheck)
			r.Get("/health/ready", h.ReadinessCheck)
			r.Get("/health/live", h.LivenessCheck)
			r.Get("/version", h.Version)

			rec := doRequest(t, r, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestMetricsHandler_GetStats(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewAnalysisService(nil, nil, nil, nil, nil, logger)
	svc.CreateSession(context.Background())
	hub := ws.NewHub(logger)

	rec := doRequest(t, NewMetricsHandler(svc, hub).Routes(), http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["sessions"])
	assert.Contains(t, body, "workbook_cache")
	assert.Contains(t, body, "websocket")
}

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLevel  slog.Level
	}{
		{"info entry", `{"level":"info","message":"table rendered","data":{"rows":5}}`, http.StatusOK, slog.LevelInfo},
		{"error entry", `{"level":"error","message":"chart failed","source":"charts.js"}`, http.StatusOK, slog.LevelError},
		{"level defaults to info", `{"message":"no level"}`, http.StatusOK, slog.LevelInfo},
		{"missing message", `{"level":"info"}`, http.StatusBadRequest, 0},
		{"unknown level", `{"level":"fatal","message":"x"}`, http.StatusBadRequest, 0},
		{"invalid json", `invalid json`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewClientLogHandler(nil, apierrors.NewErrorHandler(logger, false), logger)

			rec := doRequest(t, http.HandlerFunc(h.Handle), http.MethodPost, "/api/log/client",
				strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
				records := logs.Records()
				require.NotEmpty(t, records)
				assert.Equal(t, tt.wantLevel, records[len(records)-1].Level)
			}
		})
	}
}

func TestWebSocketHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := ws.NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	svc := services.NewAnalysisService(nil, nil, nil, hub, nil, logger)
	id := svc.CreateSession(context.Background()).SessionID

	h := NewWebSocketHandler(hub, svc, config.Default().WebSocket, nil, apierrors.NewErrorHandler(logger, false), logger)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	t.Run("missing session parameter", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/ws", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/ws?session=nope", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("subscriber receives session events", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + id
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg events.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, events.MessageTypeConnected, msg.Type)

		require.Eventually(t, func() bool { return hub.SessionClientCount(id) == 1 }, 2*time.Second, 10*time.Millisecond)
		require.NoError(t, svc.DeleteSession(context.Background(), id))

		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, events.MessageTypeSessionClosed, msg.Type)
		assert.Equal(t, id, msg.SessionID)
	})

	t.Run("foreign origin rejected", func(t *testing.T) {
		other := svc.CreateSession(context.Background()).SessionID
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + other
		header := http.Header{"Origin": []string{"http://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
