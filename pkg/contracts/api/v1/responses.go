package api

import (
	"time"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Response is the success envelope of every JSON endpoint.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

// SessionResponse describes a newly created session.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadResponse describes a processed upload.
type UploadResponse struct {
	Source     domain.Source            `json:"source"`
	Filename   string                   `json:"filename"`
	RowsIn     int                      `json:"rows_in"`
	Rows       int                      `json:"rows"`
	Duplicates int                      `json:"duplicates"`
	Columns    []string                 `json:"columns"`
	Preview    []map[string]interface{} `json:"preview"`
	Cached     bool                     `json:"cached"`
	// Ready is true once both registers are uploaded and the dataset built.
	Ready bool `json:"ready"`
}

// OptionsResponse bounds the filter controls.
type OptionsResponse struct {
	Ranges   []string   `json:"ranges"`
	MinDOL   *time.Time `json:"min_dol,omitempty"`
	MaxDOL   *time.Time `json:"max_dol,omitempty"`
	MinMonth *int       `json:"min_month,omitempty"`
	MaxMonth *int       `json:"max_month,omitempty"`
	Rows     int        `json:"rows"`
}

// ReconcileSummary counts how the two registers matched.
type ReconcileSummary struct {
	ClaimsOnly          int `json:"claims_only"`
	OutstandingOnly     int `json:"outstanding_only"`
	Both                int `json:"both"`
	MissingKeys         int `json:"missing_keys"`
	SeparatorCollisions int `json:"separator_collisions"`
	DroppedRows         int `json:"dropped_rows"`
	UnparsedDates       int `json:"unparsed_dates"`
	UnmappedCause       int `json:"unmapped_cause"`
}

// QueryResponse is one page of filtered rows with the summaries of every
// filtered row.
type QueryResponse struct {
	RowsAfterFilter int                      `json:"rows_after_filter"`
	Page            int                      `json:"page"`
	PageSize        int                      `json:"page_size"`
	TotalPages      int                      `json:"total_pages"`
	Columns         []string                 `json:"columns"`
	Rows            []map[string]interface{} `json:"rows"`
	Summary         *domain.Summary          `json:"summary"`
	Charts          []domain.ChartSpec       `json:"charts"`
	Reconcile       ReconcileSummary         `json:"reconcile"`
	Warnings        []string                 `json:"warnings,omitempty"`
}
