package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revaldyhazza/analisadolproperty/internal/config"
	"github.com/revaldyhazza/analisadolproperty/internal/infrastructure"
	"github.com/revaldyhazza/analisadolproperty/internal/shared/testutil"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/events"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func connect(t *testing.T, hub *Hub, sessionID string) (*Client, *mockConn) {
	t.Helper()
	conn := newMockConn()
	client := NewClientWithConnection(hub, conn, sessionID, config.Default().WebSocket)
	client.Serve()
	return client, conn
}

func decode(t *testing.T, payload []byte) events.Message {
	t.Helper()
	var msg events.Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestHub_PublishReachesOnlySessionSubscribers(t *testing.T) {
	hub := startHub(t)
	_, a1 := connect(t, hub, "session-a")
	_, a2 := connect(t, hub, "session-a")
	_, b := connect(t, hub, "session-b")

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, waitFor, tick)
	assert.Equal(t, 2, hub.SessionClientCount("session-a"))

	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	hub.Publish(ctx, "session-a", events.MessageTypeDatasetUpdated, events.DatasetUpdated{Version: 2, Rows: 5})

	for _, conn := range []*mockConn{a1, a2} {
		require.Eventually(t, func() bool { return len(conn.messages()) == 2 }, waitFor, tick)
		msgs := conn.messages()
		assert.Equal(t, events.MessageTypeConnected, decode(t, msgs[0]).Type)

		updated := decode(t, msgs[1])
		assert.Equal(t, events.MessageTypeDatasetUpdated, updated.Type)
		assert.Equal(t, "session-a", updated.SessionID)
		assert.Equal(t, "trace-1", updated.TraceID)
		assert.Equal(t, float64(5), updated.Data.(map[string]interface{})["rows"])
	}

	require.Eventually(t, func() bool { return len(b.messages()) == 1 }, waitFor, tick)
	never := func() bool { return len(b.messages()) > 1 }
	assert.Never(t, never, 50*time.Millisecond, tick)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	_, conn := connect(t, hub, "s")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitFor, tick)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, waitFor, tick)
}

func TestHub_StopClosesClients(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()

	_, conn := connect(t, hub, "s")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, waitFor, tick)

	hub.Stop()
	hub.Stop()

	assert.Eventually(t, func() bool {
		select {
		case <-conn.closed:
			return true
		default:
			return false
		}
	}, waitFor, tick)
	assert.Eventually(t, func() bool { return logs.ContainsMessage("Hub shutting down") }, waitFor, tick)

	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), "s", events.MessageTypeSessionClosed, nil)
	})
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := startHub(t)
	hub.Publish(context.Background(), "nobody", events.MessageTypeUploadProcessed, events.UploadProcessed{Source: "klaim"})

	assert.Eventually(t, func() bool {
		return hub.Stats()["messages_sent"].(int64) == 0 && len(hub.broadcast) == 0
	}, waitFor, tick)
}

func TestClient_SendsPings(t *testing.T) {
	hub := startHub(t)
	conn := newMockConn()
	client := NewClientWithConnection(hub, conn, "s", config.WebSocketConfig{
		PingPeriod: 10 * time.Millisecond,
		PongWait:   time.Second,
	})
	client.Serve()

	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		for _, typ := range conn.types {
			if typ == websocket.PingMessage {
				return true
			}
		}
		return false
	}, waitFor, tick)
	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.limit == maxMessageSize
	}, waitFor, tick)
	assert.NotEmpty(t, client.ID())
}

func TestNewClient_FixesInvalidKeepalive(t *testing.T) {
	hub := NewHub(nil)
	client := NewClientWithConnection(hub, newMockConn(), "s", config.WebSocketConfig{
		PingPeriod: time.Minute,
		PongWait:   30 * time.Second,
	})
	assert.Less(t, client.pingPeriod, client.pongWait)
}
