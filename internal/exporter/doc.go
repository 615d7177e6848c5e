// Package exporter writes filtered claims datasets for download.
//
// WriteXLSX produces a workbook with the filtered rows on the "Data" sheet
// followed by one sheet per summary table. CSVWriter writes the rows only,
// optionally prefixed with a UTF-8 BOM so Excel detects the encoding.
//
// Example usage:
//
//	err := exporter.WriteXLSX(w, report.Rows, report.Summary)
//
//	csvw := exporter.NewCSVWriter(exporter.CSVOptions{BOMPrefix: true})
//	err = csvw.Write(w, report.Rows)
//
// SaveFile writes either format to disk for the command line report.
package exporter
