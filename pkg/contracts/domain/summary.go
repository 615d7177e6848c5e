package domain

import (
	"github.com/shopspring/decimal"
)

// Summary is the presentation-ready aggregation of a filtered claims dataset.
type Summary struct {
	Rows           int             `json:"rows"`
	CategoryCounts []CategoryCount `json:"category_counts"`
	Describe       []ColumnStats   `json:"describe"`
	GroupedCounts  []GroupCount    `json:"grouped_counts"`
	GroupedSums    []GroupSum      `json:"grouped_sums"`
	TopBySeverity  []CauseTotal    `json:"top_by_severity"`
	TopByFrequency []CauseCount    `json:"top_by_frequency"`
	// Unclassified counts rows whose cause of loss has no taxonomy entry.
	Unclassified int `json:"unclassified"`
}

// CategoryCount is one line of the Kategori summary.
type CategoryCount struct {
	Kategori string `json:"kategori"`
	Jumlah   int    `json:"jumlah"`
}

// ColumnStats holds descriptive statistics for one numeric column.
// Nil fields are undefined for the sample (no values, or std of one value).
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q75    *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// GroupCount is the number of claims in a (range, cause category) cell.
// CauseCategory is nil for causes outside the taxonomy.
type GroupCount struct {
	Range         string  `json:"range_klaim"`
	CauseCategory *string `json:"kategori_cause"`
	Count         int     `json:"jumlah_klaim"`
}

// GroupSum is the claim amount in a (range, cause category) cell.
type GroupSum struct {
	Range         string          `json:"range_klaim"`
	CauseCategory *string         `json:"kategori_cause"`
	Amount        decimal.Decimal `json:"claim_amount_idr"`
	AmountM       decimal.Decimal `json:"amount_m"`
}

// CauseTotal ranks a cause of loss by summed claim amount.
type CauseTotal struct {
	Cause    string          `json:"cause_of_loss"`
	Severity decimal.Decimal `json:"severity"`
}

// CauseCount ranks a cause of loss by number of claims.
type CauseCount struct {
	Cause     string `json:"cause_of_loss"`
	Frequency int    `json:"frequency"`
}

// ChartOrientation is the bar direction of a chart.
type ChartOrientation string

const (
	OrientationVertical   ChartOrientation = "v"
	OrientationHorizontal ChartOrientation = "h"
)

// ChartSpec describes a chart for the display layer. The data rows carry
// the keys named by X, Y and Series.
type ChartSpec struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Kind        string                   `json:"kind"`
	X           string                   `json:"x"`
	Y           string                   `json:"y"`
	Series      string                   `json:"series,omitempty"`
	Orientation ChartOrientation         `json:"orientation"`
	BarMode     string                   `json:"bar_mode,omitempty"`
	Labels      map[string]string        `json:"labels,omitempty"`
	Data        []map[string]interface{} `json:"data"`
}
