package dataprocessing

import (
	"errors"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Excel serial numbers accepted as dates: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var errUnrecognizedDate = errors.New("unrecognized date format")

// dateLayouts are tried in order. Month-first precedes day-first for the
// ambiguous slash form, matching the usual spreadsheet export convention.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"1/2/2006",
	"02-01-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"20060102",
}

// ParseDate interprets a cell as a calendar date. Date cells are returned
// as is, numbers are read as Excel serial dates and strings are matched
// against the known layouts. Anything else yields a *ParseError.
func ParseDate(column string, v Value) (time.Time, error) {
	switch v.Kind() {
	case KindDate:
		t, _ := v.Date()
		return t, nil
	case KindNumber:
		n, _ := v.Number()
		if n < minExcelSerial || n > maxExcelSerial {
			return time.Time{}, &ParseError{Column: column, Raw: v.String(), Err: errors.New("serial out of range")}
		}
		t, err := excelize.ExcelDateToTime(n, false)
		if err != nil {
			return time.Time{}, &ParseError{Column: column, Raw: v.String(), Err: err}
		}
		return t, nil
	case KindString:
		if t, ok := parseDateString(v.String()); ok {
			return t, nil
		}
		return time.Time{}, &ParseError{Column: column, Raw: v.String(), Err: errUnrecognizedDate}
	default:
		return time.Time{}, &ParseError{Column: column, Err: errors.New("missing value")}
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthsBetween is the calendar month difference used for "Bulan ke-":
// (year(to) - year(from)) * 12 + (month(to) - month(from)).
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
