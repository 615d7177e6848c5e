package dataprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// identifierColumns never get descriptive statistics even when numeric.
var identifierColumns = map[string]bool{
	domain.ColPolicy:            true,
	domain.ColClaim:             true,
	domain.ColClaimsCertificate: true,
	domain.ColCertificate:       true,
	domain.ColInceptionDate:     true,
	domain.ColExpiryDate:        true,
	domain.ColDOL:               true,
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max for every numeric column of t that is not an identifier or date.
// A column is numeric when it has at least one value and all its non-null
// values are numbers.
func Describe(t *Table) []domain.ColumnStats {
	out := make([]domain.ColumnStats, 0)
	for j, col := range t.columns {
		if identifierColumns[col] {
			continue
		}
		values, ok := numericColumn(t, j)
		if !ok {
			continue
		}
		out = append(out, describeValues(col, values))
	}
	return out
}

func numericColumn(t *Table, j int) ([]float64, bool) {
	values := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		switch r[j].Kind() {
		case KindNull:
		case KindNumber:
			n, _ := r[j].Number()
			values = append(values, n)
		default:
			return nil, false
		}
	}
	return values, len(values) > 0
}

func describeValues(col string, values []float64) domain.ColumnStats {
	s := domain.ColumnStats{Column: col, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	s.Mean = floatPtr(mean)
	if len(sorted) > 1 {
		s.Std = floatPtr(std)
	}
	s.Min = floatPtr(sorted[0])
	s.Q25 = floatPtr(quantile(sorted, 0.25))
	s.Median = floatPtr(quantile(sorted, 0.5))
	s.Q75 = floatPtr(quantile(sorted, 0.75))
	s.Max = floatPtr(sorted[len(sorted)-1])
	return s
}

// quantile interpolates linearly between closest ranks: position
// (n-1)*p in the sorted sample.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func floatPtr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
