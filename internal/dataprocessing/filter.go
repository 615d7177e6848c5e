package dataprocessing

import (
	"sort"
	"time"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Filter warnings.
const (
	WarnSingleDateBound = "date range ignored: both start and end are required"
	WarnNoRows          = "no rows match the selected filters"
)

// DateRange is an inclusive range over the date of loss. It only applies
// when both bounds are set.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Complete reports whether both bounds are set.
func (r DateRange) Complete() bool {
	return r.Start != nil && r.End != nil
}

// Partial reports whether exactly one bound is set.
func (r DateRange) Partial() bool {
	return (r.Start == nil) != (r.End == nil)
}

// MonthRange is an inclusive range over "Bulan ke-".
type MonthRange struct {
	Min int
	Max int
}

// FilterParams is the user's filter selection. Empty Ranges and a nil
// Months impose no restriction.
type FilterParams struct {
	Ranges []string
	Dates  DateRange
	Months *MonthRange
}

// FilterResult describes how a filter was applied.
type FilterResult struct {
	RowsIn   int      `json:"rows_in"`
	RowsOut  int      `json:"rows_out"`
	Warnings []string `json:"warnings,omitempty"`
}

// Filter returns the rows of t that satisfy every predicate in p. t is not
// modified.
func Filter(t *Table, p FilterParams) (*Table, FilterResult, error) {
	res := FilterResult{RowsIn: t.Len()}
	if err := t.Require("filter", domain.ColClaimRange, domain.ColDOL, domain.ColMonthsSinceInception); err != nil {
		return nil, res, err
	}

	selected := make(map[string]bool, len(p.Ranges))
	for _, r := range p.Ranges {
		selected[r] = true
	}
	if p.Dates.Partial() {
		res.Warnings = append(res.Warnings, WarnSingleDateBound)
	}

	out := t.selectRows(func(i int) bool {
		if len(selected) > 0 && !selected[t.Get(i, domain.ColClaimRange).String()] {
			return false
		}
		if p.Dates.Complete() {
			d, err := ParseDate(domain.ColDOL, t.Get(i, domain.ColDOL))
			if err != nil || d.Before(dateOnly(*p.Dates.Start)) || d.After(dateOnly(*p.Dates.End)) {
				return false
			}
		}
		if p.Months != nil {
			m, ok := t.Get(i, domain.ColMonthsSinceInception).Number()
			if !ok || m < float64(p.Months.Min) || m > float64(p.Months.Max) {
				return false
			}
		}
		return true
	})

	res.RowsOut = out.Len()
	if res.RowsOut == 0 {
		res.Warnings = append(res.Warnings, WarnNoRows)
	}
	return out, res, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterOptions bounds the filter controls for a dataset.
type FilterOptions struct {
	Ranges   []string   `json:"ranges"`
	MinDOL   *time.Time `json:"min_dol,omitempty"`
	MaxDOL   *time.Time `json:"max_dol,omitempty"`
	MinMonth *int       `json:"min_month,omitempty"`
	MaxMonth *int       `json:"max_month,omitempty"`
}

// Options returns the range labels present in t in bucket order, and the
// observed date of loss and "Bulan ke-" bounds.
func Options(t *Table) (FilterOptions, error) {
	var opts FilterOptions
	if err := t.Require("options", domain.ColClaimRange, domain.ColDOL, domain.ColMonthsSinceInception); err != nil {
		return opts, err
	}

	present := make(map[string]bool)
	for i := 0; i < t.Len(); i++ {
		if v := t.Get(i, domain.ColClaimRange); !v.IsNull() {
			present[v.String()] = true
		}
		if d, err := ParseDate(domain.ColDOL, t.Get(i, domain.ColDOL)); err == nil {
			if opts.MinDOL == nil || d.Before(*opts.MinDOL) {
				d := d
				opts.MinDOL = &d
			}
			if opts.MaxDOL == nil || d.After(*opts.MaxDOL) {
				d := d
				opts.MaxDOL = &d
			}
		}
		if m, ok := t.Get(i, domain.ColMonthsSinceInception).Number(); ok {
			mi := int(m)
			if opts.MinMonth == nil || mi < *opts.MinMonth {
				opts.MinMonth = &mi
			}
			if opts.MaxMonth == nil || mi > *opts.MaxMonth {
				v := mi
				opts.MaxMonth = &v
			}
		}
	}

	opts.Ranges = make([]string, 0, len(present))
	for _, label := range domain.RangeLabels {
		if present[label] {
			opts.Ranges = append(opts.Ranges, label)
			delete(present, label)
		}
	}
	rest := make([]string, 0, len(present))
	for label := range present {
		rest = append(rest, label)
	}
	sort.Strings(rest)
	opts.Ranges = append(opts.Ranges, rest...)
	return opts, nil
}
