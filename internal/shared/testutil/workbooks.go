package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ClaimsHeader is the header row of the claims register fixture.
var ClaimsHeader = []interface{}{
	"NO POLIS", "NO SERTIFIKAT", "NO KLAIM", "CAUSE OF LOSS", "INCEPTION DATE",
	"EXPIRY DATE", "DOL", "CLAIM AMOUNT (IDR)", "TOC_MOD", "SISTEM",
}

// OutstandingHeader is the header row of the outstanding register fixture.
var OutstandingHeader = []interface{}{
	"POLICY NO", "CLAIM NO", "CAUSE OF LOSS", "INCEPTION DATE", "EXPIRY DATE",
	"DOL", "CLAIM AMOUNT (IDR)", "CURRENCY",
}

// Workbook writes rows into the first sheet of a new xlsx file.
func Workbook(t testing.TB, rows ...[]interface{}) []byte {
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

// ClaimsWorkbook is a claims register with one duplicated row. A1/K1 is
// also outstanding; A3 has a cause of loss outside the taxonomy.
func ClaimsWorkbook(t testing.TB) []byte {
	return Workbook(t,
		ClaimsHeader,
		[]interface{}{"A1", "S1", "K1", "Gempa Bumi", "2023-01-15", "2024-01-15", "2023-04-20", 5000000, "PAR", "X"},
		[]interface{}{"A1", "S1", "K1", "Gempa Bumi", "2023-01-15", "2024-01-15", "2023-04-20", 5000000, "PAR", "X"},
		[]interface{}{"A2", "S2", "K2", "Kebakaran", "2023-01-01", "2024-01-01", "2023-12-05", 2000000, "PAR", "X"},
		[]interface{}{"A3", "S3", "K3", "Unknown Cause", "2022-06-10", "2023-06-10", "2023-08-01", 1000000, "EQVET", "X"},
	)
}

// OutstandingWorkbook is an outstanding claims register matching
// ClaimsWorkbook on A1/K1.
func OutstandingWorkbook(t testing.TB) []byte {
	return Workbook(t,
		OutstandingHeader,
		[]interface{}{"A1", "K1", "Gempa Bumi", "2023-01-15", "2024-01-15", "2023-04-20", 4500000, "IDR"},
		[]interface{}{"B9", "K9", "Banjir", "2023-02-01", "2024-02-01", "2023-09-30", 750000, "IDR"},
	)
}
