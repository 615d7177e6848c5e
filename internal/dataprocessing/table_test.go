package dataprocessing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"integer number", NumberValue(12345), "12345"},
		{"fractional number", NumberValue(1.5), "1.5"},
		{"string", StringValue("K-01"), "K-01"},
		{"date drops time", DateValue(time.Date(2023, 4, 20, 13, 45, 0, 0, time.UTC)), "2023-04-20"},
		{"null", Null(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, StringValue("1").Equal(StringValue("1")))
	assert.False(t, StringValue("1").Equal(NumberValue(1)), "kinds differ")
	assert.False(t, Null().Equal(Null()), "null equals nothing")
	assert.True(t, NumberValue(2).Equal(NumberValue(2)))
}

func TestValue_Number(t *testing.T) {
	tests := []struct {
		name   string
		in     Value
		want   float64
		wantOK bool
	}{
		{"number", NumberValue(42.5), 42.5, true},
		{"plain string", StringValue("1500"), 1500, true},
		{"thousands", StringValue(" 1,250,000 "), 1250000, true},
		{"thousands with decimals", StringValue("12,345.67"), 12345.67, true},
		{"negative thousands", StringValue("-1,000"), -1000, true},
		{"decimal comma", StringValue("1,5"), 0, false},
		{"two digit group", StringValue("1,50"), 0, false},
		{"long first group", StringValue("1234,567"), 0, false},
		{"comma in fraction", StringValue("1.234,56"), 0, false},
		{"dangling comma", StringValue("1,"), 0, false},
		{"text", StringValue("n/a"), 0, false},
		{"null", Null(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := tt.in.Number()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, n, 1e-9)
			}
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	row := []Value{StringValue("A1"), NumberValue(3), DateValue(date("2023-04-20")), Null()}
	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["A1", 3, "2023-04-20", null]`, string(b))
}

func TestNewTable_RejectsDuplicateColumns(t *testing.T) {
	_, err := NewTable([]string{"A", "A"}, nil)
	assert.Error(t, err)
}

func TestTable_Transformations(t *testing.T) {
	base := tbl(t, []string{"A", "B"},
		[]interface{}{"a1", 1},
		[]interface{}{"a2", 2},
	)

	t.Run("WithColumn appends and keeps input intact", func(t *testing.T) {
		out, err := base.WithColumn("C", []Value{StringValue("x"), StringValue("y")})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C"}, out.Columns())
		assert.Equal(t, []string{"x", "y"}, column(t, out, "C"))
		assert.False(t, base.HasColumn("C"))
	})

	t.Run("WithColumn replaces in place", func(t *testing.T) {
		out, err := base.WithColumn("A", []Value{Null(), Null()})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, out.Columns())
		assert.True(t, out.Get(0, "A").IsNull())
		assert.Equal(t, "a1", base.Get(0, "A").String())
	})

	t.Run("WithColumn rejects length mismatch", func(t *testing.T) {
		_, err := base.WithColumn("C", []Value{Null()})
		assert.Error(t, err)
	})

	t.Run("Drop ignores absent columns", func(t *testing.T) {
		out := base.Drop("B", "missing")
		assert.Equal(t, []string{"A"}, out.Columns())
		assert.Equal(t, 2, out.Len())
	})

	t.Run("Lookup falls back to default", func(t *testing.T) {
		assert.Equal(t, "dflt", base.Lookup(0, "TOC_MOD", StringValue("dflt")).String())
		assert.Equal(t, "a2", base.Lookup(1, "A", StringValue("dflt")).String())
	})

	t.Run("Head and Slice", func(t *testing.T) {
		assert.Equal(t, 1, base.Head(1).Len())
		assert.Equal(t, 2, base.Head(10).Len())
		assert.Equal(t, []string{"a2"}, column(t, base.Slice(1, 5), "A"))
	})

	t.Run("Require names the missing column", func(t *testing.T) {
		err := base.Require("derive", "A", "DOL")
		require.Error(t, err)
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "derive", se.Stage)
		assert.Equal(t, "DOL", se.Column)
	})
}
