package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/events"
)

// outbound is a serialized message addressed to one session.
type outbound struct {
	sessionID string
	payload   []byte
	msgType   events.MessageType
}

// Hub maintains the set of active clients and fans out session events to
// the clients subscribed to that session.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *hubMetrics

	messagesSent    atomic.Int64
	messagesDropped atomic.Int64

	quit     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// NewHub creates a new Hub instance with dependency injection
func NewHub(logger *slog.Logger) *Hub {
	logger = infrastructure.WithComponent(logger, "websocket.hub")
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		logger:     logger,
		metrics:    newHubMetrics(otel.Meter(infrastructure.MeterName), logger),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in a new goroutine. It is a no-op when running.
func (h *Hub) Start() {
	if h.running.CompareAndSwap(false, true) {
		go h.Run()
	}
}

// Run is the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.connected(context.Background(), 1)

			h.logger.Info("Client registered",
				slog.String("client_id", client.id),
				slog.String("session_id", client.sessionID),
				slog.Int("total_clients", count))

			h.deliver(client, events.NewMessage(events.MessageTypeConnected, client.sessionID,
				events.Connected{ClientID: client.id, Status: "connected"}))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.connected(context.Background(), -1)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// fanOut sends msg to every subscriber of its session. Subscribers whose
// buffer is full are disconnected.
func (h *Hub) fanOut(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients {
		if client.sessionID != msg.sessionID {
			continue
		}
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			close(client.send)
			delete(h.clients, client)
			h.messagesDropped.Add(1)
			h.metrics.connected(context.Background(), -1)
			h.logger.Warn("Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
	h.messagesSent.Add(int64(delivered))
	h.metrics.sent(context.Background(), msg.msgType, delivered)

	h.logger.Debug("Broadcast session event",
		slog.String("session_id", msg.sessionID),
		slog.String("type", string(msg.msgType)),
		slog.Int("recipients", delivered))
}

// deliver queues msg for one client without blocking.
func (h *Hub) deliver(client *Client, msg events.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// Publish sends an event to the subscribers of sessionID. It never blocks
// the caller for longer than it takes to queue the message; when the hub
// is stopped or its queue is full the message is dropped.
func (h *Hub) Publish(ctx context.Context, sessionID string, msgType events.MessageType, data interface{}) {
	msg := events.NewMessage(msgType, sessionID, data)
	msg.TraceID = infrastructure.GetTraceID(ctx)

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- outbound{sessionID: sessionID, payload: payload, msgType: msgType}:
	case <-h.quit:
	default:
		h.messagesDropped.Add(1)
		h.logger.WarnContext(ctx, "Broadcast queue full, dropping message",
			slog.String("type", string(msgType)))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClientCount returns the number of clients subscribed to sessionID.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Stats returns delivery counters.
func (h *Hub) Stats() map[string]interface{} {
	return map[string]interface{}{
		"active_clients":   h.ClientCount(),
		"messages_sent":    h.messagesSent.Load(),
		"messages_dropped": h.messagesDropped.Load(),
	}
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		h.running.Store(false)
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// hubMetrics records websocket activity on the global meter.
type hubMetrics struct {
	active   metric.Int64UpDownCounter
	messages metric.Int64Counter
}

func newHubMetrics(meter metric.Meter, logger *slog.Logger) *hubMetrics {
	active, err := meter.Int64UpDownCounter("websocket_connections_active",
		metric.WithDescription("Number of active websocket connections"))
	if err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	messages, err := meter.Int64Counter("websocket_messages_sent_total",
		metric.WithDescription("Websocket messages delivered to clients"))
	if err != nil {
		logger.Warn("websocket metrics disabled", slog.String("error", err.Error()))
		return nil
	}
	return &hubMetrics{active: active, messages: messages}
}

func (m *hubMetrics) connected(ctx context.Context, delta int64) {
	if m != nil {
		m.active.Add(ctx, delta)
	}
}

func (m *hubMetrics) sent(ctx context.Context, t events.MessageType, n int) {
	if m != nil && n > 0 {
		m.messages.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", string(t))))
	}
}
