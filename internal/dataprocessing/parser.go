package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// UnnamedPrefix marks placeholder columns created for empty header cells.
const UnnamedPrefix = "Unnamed"

// ReadWorkbook parses the first worksheet of an xlsx workbook into a Table.
// The first row is the header. Columns whose name starts with UnnamedPrefix
// are removed and fully blank rows are skipped.
func ReadWorkbook(r io.Reader, source string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Source: source, Reason: "not a valid xlsx workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Source: source, Reason: "workbook has no sheets", Err: ErrNoColumns}
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Source: source, Reason: fmt.Sprintf("failed to read sheet %q", sheet), Err: err}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &LoadError{Source: source, Reason: "sheet is empty", Err: ErrNoColumns}
	}

	header := headerNames(rows[0])
	keep := make([]int, 0, len(header))
	columns := make([]string, 0, len(header))
	for j, name := range header {
		if strings.HasPrefix(name, UnnamedPrefix) {
			continue
		}
		keep = append(keep, j)
		columns = append(columns, name)
	}
	if len(columns) == 0 {
		return nil, &LoadError{Source: source, Reason: "no named columns in header row", Err: ErrNoColumns}
	}

	styles := newDateStyles(f)
	data := make([][]Value, 0, len(rows)-1)
	skipped := 0
	for i := 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			skipped++
			continue
		}
		row := make([]Value, len(keep))
		for k, j := range keep {
			if j >= len(rows[i]) {
				continue
			}
			row[k] = cellValue(f, styles, sheet, j+1, i+1, rows[i][j])
		}
		data = append(data, row)
	}

	slog.Debug("workbook parsed",
		slog.String("source", source),
		slog.String("sheet", sheet),
		slog.Int("columns", len(columns)),
		slog.Int("dropped_columns", len(header)-len(columns)),
		slog.Int("rows", len(data)),
		slog.Int("blank_rows", skipped))

	return NewTable(columns, data)
}

// headerNames turns the header row into unique column names: empty cells
// become "Unnamed: <index>" and repeats get ".1", ".2" suffixes.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for j, h := range raw {
		name := h
		if strings.TrimSpace(name) == "" {
			name = UnnamedPrefix + ": " + strconv.Itoa(j)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[j] = name
	}
	return names
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellValue types a raw cell. Text cells stay strings. Numeric cells are
// read from their raw value; those carrying a date number format become
// dates, the rest stay numbers.
func cellValue(f *excelize.File, styles *dateStyles, sheet string, col, row int, raw string) Value {
	if raw == "" {
		return Null()
	}

	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return StringValue(raw)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return StringValue(raw)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return StringValue(raw)
	case excelize.CellTypeDate:
		if t, ok := parseDateString(raw); ok {
			return DateValue(t)
		}
		return StringValue(raw)
	default:
		// Unset, number and cached formula results.
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return StringValue(raw)
		}
		if styles.isDate(sheet, axis) && n >= minExcelSerial && n <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				return DateValue(t)
			}
		}
		return NumberValue(n)
	}
}

// dateStyles answers whether a cell's number format displays a calendar
// date, caching the answer per style index.
type dateStyles struct {
	f     *excelize.File
	known map[int]bool
}

func newDateStyles(f *excelize.File) *dateStyles {
	return &dateStyles{f: f, known: make(map[int]bool)}
}

func (d *dateStyles) isDate(sheet, axis string) bool {
	idx, err := d.f.GetCellStyle(sheet, axis)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.known[idx]; ok {
		return v
	}
	v := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			v = isDateFormatCode(*style.CustomNumFmt)
		} else {
			v = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.known[idx] = v
	return v
}

// isBuiltInDateFormat reports the built-in number formats that show a
// calendar date. Time-only formats (18-21, 45-47) are not dates.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code shows a calendar
// date: it has a year or day token, or a month token outside a time.
// Quoted literals, escaped characters and bracketed sections are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			inBracket = c != ']'
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\', c == '_', c == '*':
			i++
		default:
			b.WriteByte(c)
		}
	}
	s := strings.ToLower(b.String())
	if strings.ContainsAny(s, "yd") {
		return true
	}
	return strings.Contains(s, "m") && !strings.ContainsAny(s, "hs")
}
