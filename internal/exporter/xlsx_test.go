package exporter

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

func sampleSummary() *domain.Summary {
	fire := "Kebakaran"
	return &domain.Summary{
		Rows: 2,
		CategoryCounts: []domain.CategoryCount{
			{Kategori: domain.CategoryClaims, Jumlah: 1},
			{Kategori: domain.CategoryOutstanding, Jumlah: 1},
		},
		GroupedCounts: []domain.GroupCount{
			{Range: "0-3", CauseCategory: &fire, Count: 1},
			{Range: ">12", CauseCategory: nil, Count: 1},
		},
		GroupedSums: []domain.GroupSum{
			{Range: "0-3", CauseCategory: &fire, Amount: decimal.NewFromInt(5000000), AmountM: decimal.NewFromInt(5)},
		},
	}
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable(), sampleSummary()))

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{SheetData, SheetCategories, SheetAmounts, SheetCounts}, f.GetSheetList())

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"POLIS", "CAUSE OF LOSS", "DOL", "CLAIM AMOUNT (IDR)"}, rows[0])
	assert.Equal(t, "A1", rows[1][0])
	assert.Equal(t, "2023-04-20", rows[1][2])

	cats, err := f.GetRows(SheetCategories)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, []string{"Kategori", "Jumlah"}, cats[0])
	assert.Equal(t, []string{domain.CategoryClaims, "1"}, cats[1])

	counts, err := f.GetRows(SheetCounts)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, UnclassifiedLabel, counts[2][1])

	amounts, err := f.GetRows(SheetAmounts)
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.Equal(t, "5000000", amounts[1][2])
}

func TestWriteXLSX_WithoutSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable(), nil))

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{SheetData}, f.GetSheetList())
}
