// Package events defines the messages pushed to websocket subscribers.
package events

import "time"

// MessageType identifies a websocket message.
type MessageType string

const (
	MessageTypeConnected       MessageType = "connection"
	MessageTypeUploadProcessed MessageType = "upload.processed"
	MessageTypeDatasetUpdated  MessageType = "dataset.updated"
	MessageTypeDatasetFailed   MessageType = "dataset.failed"
	MessageTypeSessionClosed   MessageType = "session.closed"
	MessageTypeError           MessageType = "error"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(t MessageType, sessionID string, data interface{}) Message {
	return Message{
		Type:      t,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Connected is sent to a client right after it subscribes.
type Connected struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// UploadProcessed reports a parsed and deduplicated upload.
type UploadProcessed struct {
	Source     string `json:"source"`
	Filename   string `json:"filename"`
	RowsIn     int    `json:"rows_in"`
	Rows       int    `json:"rows"`
	Duplicates int    `json:"duplicates"`
	Cached     bool   `json:"cached"`
	Ready      bool   `json:"ready"`
}

// DatasetUpdated reports a rebuilt dataset.
type DatasetUpdated struct {
	Version         uint64    `json:"version"`
	Rows            int       `json:"rows"`
	ClaimsOnly      int       `json:"claims_only"`
	OutstandingOnly int       `json:"outstanding_only"`
	Both            int       `json:"both"`
	DroppedRows     int       `json:"dropped_rows"`
	BuiltAt         time.Time `json:"built_at"`
}

// DatasetFailed reports a rebuild that stopped with an error.
type DatasetFailed struct {
	Version uint64 `json:"version"`
	Stage   string `json:"stage,omitempty"`
	Column  string `json:"column,omitempty"`
	Error   string `json:"error"`
}
