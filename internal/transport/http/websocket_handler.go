package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	apierrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	ws "github.com/revaldyhazza/analisadolproperty/internal/websocket"
)

// SessionChecker reports whether a session exists.
type SessionChecker interface {
	HasSession(id string) bool
}

// WebSocketHandler upgrades connections that subscribe to one session's
// events.
type WebSocketHandler struct {
	hub          *ws.Hub
	sessions     SessionChecker
	upgrader     websocket.Upgrader
	cfg          config.WebSocketConfig
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewWebSocketHandler creates a websocket handler. An empty allowedOrigins
// accepts only same-host origins.
func NewWebSocketHandler(hub *ws.Hub, sessions SessionChecker, cfg config.WebSocketConfig, allowedOrigins []string,
	errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		cfg:          cfg,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "websocket")),
	}
}

// ServeHTTP handles GET /ws?session={id}
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("session", "session is required"))
		return
	}
	if !h.sessions.HasSession(sessionID) {
		h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return
	}

	client := ws.NewClient(h.hub, conn, sessionID, h.cfg)
	client.Serve()
	h.logger.InfoContext(r.Context(), "websocket client connected",
		slog.String("session_id", sessionID),
		slog.String("client_id", client.ID()))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
