package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Sheet names of the exported workbook.
const (
	SheetData       = "Data"
	SheetCategories = "Ringkasan Kategori"
	SheetAmounts    = "Amount Klaim"
	SheetCounts     = "Jumlah Klaim"
)

// UnclassifiedLabel names the cause category of causes outside the taxonomy.
const UnclassifiedLabel = "Unclassified"

const dataColumnWidth = 18

// WriteXLSX writes rows to the Data sheet and, when summary is non-nil, the
// category, amount and count summaries to their own sheets.
func WriteXLSX(w io.Writer, rows *dataprocessing.Table, summary *domain.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeDataSheet(f, rows, header); err != nil {
		return err
	}

	if summary != nil {
		sheets := []struct {
			name    string
			headers []string
			rows    [][]interface{}
		}{
			{SheetCategories, []string{"Kategori", "Jumlah"}, categoryRows(summary)},
			{SheetAmounts, []string{"Range Klaim", "Kategori Cause", "Claim Amount (IDR)", "Amount (M)"}, amountRows(summary)},
			{SheetCounts, []string{"Range Klaim", "Kategori Cause", "Jumlah Klaim"}, countRows(summary)},
		}
		for _, s := range sheets {
			if err := writeSheet(f, s.name, s.headers, s.rows, header); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeDataSheet streams the table rows, so large datasets are not held
// twice in memory.
func writeDataSheet(f *excelize.File, t *dataprocessing.Table, header int) error {
	sw, err := f.NewStreamWriter(SheetData)
	if err != nil {
		return fmt.Errorf("failed to open data sheet: %w", err)
	}

	columns := t.Columns()
	if len(columns) > 0 {
		if err := sw.SetColWidth(1, len(columns), dataColumnWidth); err != nil {
			return err
		}
	}

	cells := make([]interface{}, len(columns))
	for j, c := range columns {
		cells[j] = excelize.Cell{StyleID: header, Value: c}
	}
	if err := sw.SetRow("A1", cells, excelize.RowOpts{Height: 20}); err != nil {
		return fmt.Errorf("failed to write data header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(columns))
		for j, v := range t.Row(i) {
			row[j] = v.Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write data row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}, header int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}

	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, header); err != nil {
		return err
	}

	for i, r := range rows {
		row := r
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i, err)
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", lastCol, dataColumnWidth)
}

func categoryRows(s *domain.Summary) [][]interface{} {
	rows := make([][]interface{}, 0, len(s.CategoryCounts))
	for _, c := range s.CategoryCounts {
		rows = append(rows, []interface{}{c.Kategori, c.Jumlah})
	}
	return rows
}

func amountRows(s *domain.Summary) [][]interface{} {
	rows := make([][]interface{}, 0, len(s.GroupedSums))
	for _, g := range s.GroupedSums {
		rows = append(rows, []interface{}{
			g.Range,
			causeLabel(g.CauseCategory),
			g.Amount.InexactFloat64(),
			g.AmountM.InexactFloat64(),
		})
	}
	return rows
}

func countRows(s *domain.Summary) [][]interface{} {
	rows := make([][]interface{}, 0, len(s.GroupedCounts))
	for _, g := range s.GroupedCounts {
		rows = append(rows, []interface{}{g.Range, causeLabel(g.CauseCategory), g.Count})
	}
	return rows
}

func causeLabel(c *string) string {
	if c == nil {
		return UnclassifiedLabel
	}
	return *c
}
