package config

import "time"

// Application constants
const (
	AppName = "Analisa DoL"

	// Sizes and limits
	DefaultMaxUploadBytes = 50 << 20
	DefaultPreviewRows    = 5
	DefaultMaxPageSize    = 1000
	DefaultPageSize       = 100

	// Lifetimes
	DefaultSessionTTL       = 2 * time.Hour
	DefaultWorkbookCacheTTL = 30 * time.Minute

	// File Paths (relative to executable)
	DefaultLogsDir = "logs"
	DefaultLogFile = "analisadol.log"
)

// Endpoints
const (
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
