package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

var amountScale = decimal.NewFromInt(domain.AmountScale)

// Aggregate summarizes a derived (and usually filtered) dataset.
func Aggregate(t *Table) (*domain.Summary, error) {
	if err := t.Require("aggregate",
		domain.ColCategory,
		domain.ColCauseOfLoss,
		domain.ColClaimAmount,
		domain.ColClaimRange,
		domain.ColCauseCategory,
	); err != nil {
		return nil, err
	}

	s := &domain.Summary{
		Rows:           t.Len(),
		CategoryCounts: CategoryCounts(t),
		Describe:       Describe(t),
		TopBySeverity:  TopCausesBySeverity(t, domain.TopCausesMax),
		TopByFrequency: TopCausesByFrequency(t, domain.TopCausesMax),
	}
	s.GroupedCounts, s.GroupedSums, s.Unclassified = groupByRangeAndCause(t)
	return s, nil
}

// CategoryCounts counts rows per Kategori, largest first. Equal counts keep
// first-appearance order.
func CategoryCounts(t *Table) []domain.CategoryCount {
	counts := make(map[string]int)
	order := make([]string, 0, len(domain.Categories))
	for i := 0; i < t.Len(); i++ {
		v := t.Get(i, domain.ColCategory)
		if v.IsNull() {
			continue
		}
		k := v.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	out := make([]domain.CategoryCount, len(order))
	for i, k := range order {
		out[i] = domain.CategoryCount{Kategori: k, Jumlah: counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Jumlah > out[j].Jumlah })
	return out
}

type groupKey struct {
	rng   string
	cause string
	null  bool
}

type groupAcc struct {
	count  int
	amount decimal.Decimal
}

// groupByRangeAndCause counts rows and sums claim amounts per (range,
// cause category). Rows without a cause category form their own group.
func groupByRangeAndCause(t *Table) ([]domain.GroupCount, []domain.GroupSum, int) {
	groups := make(map[groupKey]*groupAcc)
	unclassified := 0
	for i := 0; i < t.Len(); i++ {
		rng := t.Get(i, domain.ColClaimRange)
		if rng.IsNull() {
			continue
		}
		k := groupKey{rng: rng.String()}
		if cat := t.Get(i, domain.ColCauseCategory); cat.IsNull() {
			k.null = true
			unclassified++
		} else {
			k.cause = cat.String()
		}

		acc, ok := groups[k]
		if !ok {
			acc = &groupAcc{amount: decimal.Zero}
			groups[k] = acc
		}
		acc.count++
		if n, ok := t.Get(i, domain.ColClaimAmount).Number(); ok {
			acc.amount = acc.amount.Add(decimal.NewFromFloat(n))
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return groupLess(keys[i], keys[j]) })

	counts := make([]domain.GroupCount, len(keys))
	sums := make([]domain.GroupSum, len(keys))
	for i, k := range keys {
		var cause *string
		if !k.null {
			c := k.cause
			cause = &c
		}
		acc := groups[k]
		counts[i] = domain.GroupCount{Range: k.rng, CauseCategory: cause, Count: acc.count}
		sums[i] = domain.GroupSum{
			Range:         k.rng,
			CauseCategory: cause,
			Amount:        acc.amount,
			AmountM:       acc.amount.Div(amountScale),
		}
	}
	return counts, sums, unclassified
}

// groupLess orders by bucket position (unknown labels last, by name), then
// by cause category with the null category last.
func groupLess(a, b groupKey) bool {
	if a.rng != b.rng {
		oa, ob := domain.RangeOrder(a.rng), domain.RangeOrder(b.rng)
		switch {
		case oa >= 0 && ob >= 0:
			return oa < ob
		case oa >= 0:
			return true
		case ob >= 0:
			return false
		default:
			return a.rng < b.rng
		}
	}
	if a.null != b.null {
		return !a.null
	}
	return a.cause < b.cause
}

// TopCausesBySeverity returns up to n causes of loss with the largest summed
// claim amount. Causes are visited in name order before the stable
// descending sort, so equal totals rank alphabetically.
func TopCausesBySeverity(t *Table, n int) []domain.CauseTotal {
	totals := make(map[string]decimal.Decimal)
	for i := 0; i < t.Len(); i++ {
		cause := t.Get(i, domain.ColCauseOfLoss)
		if cause.IsNull() {
			continue
		}
		k := cause.String()
		sum, ok := totals[k]
		if !ok {
			sum = decimal.Zero
		}
		if amt, ok := t.Get(i, domain.ColClaimAmount).Number(); ok {
			sum = sum.Add(decimal.NewFromFloat(amt))
		}
		totals[k] = sum
	}

	out := make([]domain.CauseTotal, 0, len(totals))
	for k, v := range totals {
		out = append(out, domain.CauseTotal{Cause: k, Severity: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cause < out[j].Cause })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.GreaterThan(out[j].Severity) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopCausesByFrequency returns up to n causes of loss with the most rows.
// Equal counts keep first-appearance order.
func TopCausesByFrequency(t *Table, n int) []domain.CauseCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		cause := t.Get(i, domain.ColCauseOfLoss)
		if cause.IsNull() {
			continue
		}
		k := cause.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	out := make([]domain.CauseCount, len(order))
	for i, k := range order {
		out[i] = domain.CauseCount{Cause: k, Frequency: counts[k]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
