package dataprocessing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// v converts a Go literal into a cell value.
func v(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return StringValue(t)
	case int:
		return NumberValue(float64(t))
	case float64:
		return NumberValue(t)
	case time.Time:
		return DateValue(t)
	default:
		panic(fmt.Sprintf("unsupported test value %T", x))
	}
}

// tbl builds a table from literal rows.
func tbl(t *testing.T, columns []string, rows ...[]interface{}) *Table {
	t.Helper()
	data := make([][]Value, len(rows))
	for i, r := range rows {
		data[i] = make([]Value, len(r))
		for j, c := range r {
			data[i][j] = v(c)
		}
	}
	out, err := NewTable(columns, data)
	require.NoError(t, err)
	return out
}

// column returns a column's values rendered as strings.
func column(t *testing.T, tb *Table, name string) []string {
	t.Helper()
	values, ok := tb.Column(name)
	require.True(t, ok, "column %q missing", name)
	out := make([]string, len(values))
	for i, val := range values {
		out[i] = val.String()
	}
	return out
}

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// workbook writes rows into the first sheet of a new xlsx file.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		row := r
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// claimsTable is a small prepared claims register.
func claimsTable(t *testing.T) *Table {
	return tbl(t,
		[]string{"NO POLIS", "NO SERTIFIKAT", "NO KLAIM", "CAUSE OF LOSS", "INCEPTION DATE", "EXPIRY DATE", "DOL", "CLAIM AMOUNT (IDR)", "TOC_MOD", "SISTEM"},
		[]interface{}{"A1", "S1", "K1", "Gempa Bumi", "2023-01-15", "2024-01-15", "2023-04-20", 5_000_000, "PAR", "X"},
		[]interface{}{"A2", "S2", "K2", "Kebakaran", "2023-01-01", "2024-01-01", "2023-12-05", 2_000_000, "PAR", "X"},
		[]interface{}{"A3", "S3", "K3", "Unknown Cause", "2022-06-10", "2023-06-10", "2023-08-01", 1_000_000, "EQVET", "X"},
	)
}

// outstandingTable is a small prepared outstanding register.
func outstandingTable(t *testing.T) *Table {
	return tbl(t,
		[]string{"POLICY NO", "CLAIM NO", "CAUSE OF LOSS", "INCEPTION DATE", "EXPIRY DATE", "DOL", "CLAIM AMOUNT (IDR)", "CURRENCY"},
		[]interface{}{"A1", "K1", "Gempa Bumi", "2023-01-15", "2024-01-15", "2023-04-20", 4_500_000, "IDR"},
		[]interface{}{"B9", "K9", "Banjir", "2023-02-01", "2024-02-01", "2023-09-30", 750_000, "IDR"},
	)
}

// dataset runs the fixtures through Prepare and Build.
func dataset(t *testing.T) *Dataset {
	t.Helper()
	ctx := context.Background()
	p := NewPipeline(DefaultPipelineOptions(), nil, nil)

	claims, _, err := p.Prepare(ctx, domain.SourceClaims, claimsTable(t))
	require.NoError(t, err)
	outstanding, _, err := p.Prepare(ctx, domain.SourceOutstanding, outstandingTable(t))
	require.NoError(t, err)

	ds, err := p.Build(ctx, claims, outstanding)
	require.NoError(t, err)
	return ds
}
