package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
)

// StatsSource supplies the runtime counters reported by /api/stats.
type StatsSource interface {
	SessionCount() int
	LoaderStats() dataprocessing.LoaderStats
}

// HubStats reports websocket hub counters.
type HubStats interface {
	Stats() map[string]interface{}
}

// MetricsHandler serves a JSON snapshot of service counters. Prometheus
// metrics are exposed separately on /metrics.
type MetricsHandler struct {
	sessions StatsSource
	hub      HubStats
}

// NewMetricsHandler creates a metrics handler. hub may be nil.
func NewMetricsHandler(sessions StatsSource, hub HubStats) *MetricsHandler {
	return &MetricsHandler{sessions: sessions, hub: hub}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetStats)
	return r
}

// GetStats handles GET /api/stats
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	loader := h.sessions.LoaderStats()
	response := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sessions":  h.sessions.SessionCount(),
		"workbook_cache": map[string]interface{}{
			"entries": loader.Entries,
			"hits":    loader.Hits,
			"misses":  loader.Misses,
		},
	}
	if h.hub != nil {
		response["websocket"] = h.hub.Stats()
	}
	render.JSON(w, r, response)
}
