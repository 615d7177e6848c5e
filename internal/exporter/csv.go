package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
)

// Content types of the export formats.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// CSVWriter writes tables as CSV.
type CSVWriter struct {
	opts CSVOptions
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(opts CSVOptions) *CSVWriter {
	return &CSVWriter{opts: opts}
}

// Write writes the header and every row of t to out. Null cells are empty,
// dates are YYYY-MM-DD.
func (w *CSVWriter) Write(out io.Writer, t *dataprocessing.Table) error {
	if w.opts.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if w.opts.Comma != 0 {
		writer.Comma = w.opts.Comma
	}

	columns := t.Columns()
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			record[j] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
