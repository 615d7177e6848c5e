package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func TestFilter(t *testing.T) {
	ds := dataset(t)

	tests := []struct {
		name     string
		params   FilterParams
		want     []string
		warnings []string
	}{
		{
			name: "empty selection keeps everything",
			want: []string{"A1", "A2", "A3", "A1", "B9"},
		},
		{
			name:   "ranges",
			params: FilterParams{Ranges: []string{"0-3", ">12"}},
			want:   []string{"A1", "A3", "A1"},
		},
		{
			name:   "inclusive date bounds",
			params: FilterParams{Dates: DateRange{Start: datePtr("2023-04-20"), End: datePtr("2023-09-30")}},
			want:   []string{"A1", "A3", "A1", "B9"},
		},
		{
			name:     "single date bound is ignored",
			params:   FilterParams{Dates: DateRange{Start: datePtr("2023-10-01")}},
			want:     []string{"A1", "A2", "A3", "A1", "B9"},
			warnings: []string{WarnSingleDateBound},
		},
		{
			name:   "inclusive month bounds",
			params: FilterParams{Months: &MonthRange{Min: 7, Max: 11}},
			want:   []string{"A2", "B9"},
		},
		{
			name: "predicates combine",
			params: FilterParams{
				Ranges: []string{"0-3", ">6-9"},
				Months: &MonthRange{Min: 4, Max: 20},
			},
			want: []string{"B9"},
		},
		{
			name:     "no match",
			params:   FilterParams{Ranges: []string{"unknown"}},
			want:     []string{},
			warnings: []string{WarnNoRows},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res, err := Filter(ds.Table, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, column(t, out, "POLIS"))
			assert.Equal(t, ds.Table.Len(), res.RowsIn)
			assert.Equal(t, len(tt.want), res.RowsOut)
			assert.Equal(t, tt.warnings, res.Warnings)
		})
	}
}

func TestFilter_SubsetAndIdempotent(t *testing.T) {
	ds := dataset(t)
	before := ds.Table.Records()
	params := FilterParams{
		Ranges: []string{"0-3", ">9-12"},
		Dates:  DateRange{Start: datePtr("2023-01-01"), End: datePtr("2023-12-31")},
	}

	once, _, err := Filter(ds.Table, params)
	require.NoError(t, err)
	twice, _, err := Filter(once, params)
	require.NoError(t, err)

	assert.Equal(t, once.Records(), twice.Records())
	assert.LessOrEqual(t, once.Len(), ds.Table.Len())
	for _, rec := range once.Records() {
		assert.Contains(t, before, rec)
	}
	assert.Equal(t, before, ds.Table.Records(), "input is not modified")
}

func TestFilter_SchemaError(t *testing.T) {
	_, _, err := Filter(tbl(t, []string{"POLIS"}), FilterParams{})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestOptions(t *testing.T) {
	opts, err := Options(dataset(t).Table)
	require.NoError(t, err)

	assert.Equal(t, []string{"0-3", ">6-9", ">9-12", ">12"}, opts.Ranges)
	require.NotNil(t, opts.MinDOL)
	require.NotNil(t, opts.MaxDOL)
	assert.Equal(t, "2023-04-20", opts.MinDOL.Format(DateLayout))
	assert.Equal(t, "2023-12-05", opts.MaxDOL.Format(DateLayout))
	require.NotNil(t, opts.MinMonth)
	require.NotNil(t, opts.MaxMonth)
	assert.Equal(t, 3, *opts.MinMonth)
	assert.Equal(t, 14, *opts.MaxMonth)
}

func TestOptions_UnknownLabelsSortLast(t *testing.T) {
	in := tbl(t, []string{"Range Terjadi Klaim", "DOL", "Bulan ke-"},
		[]interface{}{"zeta", nil, nil},
		[]interface{}{">12", nil, nil},
		[]interface{}{"alpha", nil, nil},
		[]interface{}{"0-3", nil, nil},
	)
	opts, err := Options(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"0-3", ">12", "alpha", "zeta"}, opts.Ranges)
	assert.Nil(t, opts.MinDOL)
	assert.Nil(t, opts.MinMonth)
}
