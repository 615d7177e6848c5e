// Package api contains the request and response payloads of the HTTP API.
package api

// QueryRequest selects the rows of a session's dataset. Every field is
// optional; an empty request returns the whole dataset.
type QueryRequest struct {
	// Ranges keeps rows whose "Range Terjadi Klaim" is one of the labels.
	Ranges []string `json:"ranges,omitempty" validate:"omitempty,dive,oneof=0-3 >3-6 >6-9 >9-12 >12"`
	// DOLStart and DOLEnd bound the date of loss (YYYY-MM-DD). The range
	// only applies when both are present.
	DOLStart string `json:"dol_start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DOLEnd   string `json:"dol_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	// MonthMin and MonthMax bound "Bulan ke-". A missing side is open.
	MonthMin *int `json:"month_min,omitempty" validate:"omitempty,min=0"`
	MonthMax *int `json:"month_max,omitempty" validate:"omitempty,min=0"`

	Page     int `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize int `json:"page_size,omitempty" validate:"omitempty,min=1"`
}

// ExportRequest is a QueryRequest plus the download format.
type ExportRequest struct {
	QueryRequest
	Format string `json:"format" validate:"required,oneof=xlsx csv"`
	// BOM prefixes CSV output with a UTF-8 byte order mark for Excel.
	BOM bool `json:"bom,omitempty"`
}

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)
