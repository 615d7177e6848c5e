package dataprocessing

import (
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Chart identifiers.
const (
	ChartAmountByRange = "amount-by-range"
	ChartCountByRange  = "count-by-range"
	ChartTopSeverity   = "top-severity"
	ChartTopFrequency  = "top-frequency"
)

// BuildCharts turns a summary into chart specifications for the display
// layer: grouped bars of amount and count per claim age range, and
// horizontal bars of the top causes by severity and frequency.
func BuildCharts(s *domain.Summary) []domain.ChartSpec {
	amount := domain.ChartSpec{
		ID:          ChartAmountByRange,
		Title:       "Amount of Claim",
		Kind:        "bar",
		X:           "range_klaim",
		Y:           "claim_amount_idr",
		Series:      "kategori_cause",
		Orientation: domain.OrientationVertical,
		BarMode:     "group",
		Labels:      map[string]string{"range_klaim": domain.ColClaimRange, "claim_amount_idr": domain.ColClaimAmount, "kategori_cause": domain.ColCauseCategory},
		Data:        make([]map[string]interface{}, 0, len(s.GroupedSums)),
	}
	for _, g := range s.GroupedSums {
		amount.Data = append(amount.Data, map[string]interface{}{
			"range_klaim":      g.Range,
			"kategori_cause":   g.CauseCategory,
			"claim_amount_idr": g.Amount.InexactFloat64(),
			"amount_m":         g.AmountM.InexactFloat64(),
		})
	}

	count := domain.ChartSpec{
		ID:          ChartCountByRange,
		Title:       "Number of Claim",
		Kind:        "bar",
		X:           "range_klaim",
		Y:           "jumlah_klaim",
		Series:      "kategori_cause",
		Orientation: domain.OrientationVertical,
		BarMode:     "group",
		Labels:      map[string]string{"range_klaim": domain.ColClaimRange, "jumlah_klaim": "Jumlah Klaim", "kategori_cause": domain.ColCauseCategory},
		Data:        make([]map[string]interface{}, 0, len(s.GroupedCounts)),
	}
	for _, g := range s.GroupedCounts {
		count.Data = append(count.Data, map[string]interface{}{
			"range_klaim":    g.Range,
			"kategori_cause": g.CauseCategory,
			"jumlah_klaim":   g.Count,
		})
	}

	severity := domain.ChartSpec{
		ID:          ChartTopSeverity,
		Title:       "10 Sumber Klaim Terbesar Berdasarkan Cause of Loss",
		Kind:        "bar",
		X:           "severity",
		Y:           "cause_of_loss",
		Orientation: domain.OrientationHorizontal,
		Labels:      map[string]string{"severity": "Severity", "cause_of_loss": "Causeofloss"},
		Data:        make([]map[string]interface{}, 0, len(s.TopBySeverity)),
	}
	for _, c := range s.TopBySeverity {
		severity.Data = append(severity.Data, map[string]interface{}{
			"cause_of_loss": c.Cause,
			"severity":      c.Severity.InexactFloat64(),
		})
	}

	frequency := domain.ChartSpec{
		ID:          ChartTopFrequency,
		Title:       "10 Sumber Klaim Terbanyak Berdasarkan Cause of Loss",
		Kind:        "bar",
		X:           "frequency",
		Y:           "cause_of_loss",
		Orientation: domain.OrientationHorizontal,
		Labels:      map[string]string{"frequency": "Frequency", "cause_of_loss": "Causeofloss"},
		Data:        make([]map[string]interface{}, 0, len(s.TopByFrequency)),
	}
	for _, c := range s.TopByFrequency {
		frequency.Data = append(frequency.Data, map[string]interface{}{
			"cause_of_loss": c.Cause,
			"frequency":     c.Frequency,
		})
	}

	return []domain.ChartSpec{amount, count, severity, frequency}
}
