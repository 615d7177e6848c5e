package dataprocessing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the display form of date cells.
const DateLayout = "2006-01-02"

// Kind is the type of a cell value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single immutable table cell.
type Value struct {
	kind Kind
	str  string
	num  float64
	date time.Time
}

// Null returns the missing value.
func Null() Value { return Value{} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps f. NaN is stored as null.
func NumberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// DateValue wraps the calendar date of t (time of day is discarded).
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Kind returns the cell type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the numeric content. Numeric strings are accepted with
// "," as thousands separator and "." as decimal point; a comma anywhere
// else ("1,5" or "1,50") is ambiguous and not a number.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s, ok := stripThousands(strings.TrimSpace(v.str))
		if !ok || s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stripThousands removes "," group separators from s. ok is false unless
// every group after the first has exactly three digits.
func stripThousands(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Contains(frac, ",") {
		return "", false
	}
	groups := strings.Split(strings.TrimLeft(intPart, "+-"), ",")
	for i, g := range groups {
		if !allDigits(g) || (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
			return "", false
		}
	}
	return strings.ReplaceAll(s, ",", ""), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Date returns the date content of a date cell.
func (v Value) Date() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// String renders the value the way it is shown to users and used in join
// keys: numbers in shortest decimal form, dates as YYYY-MM-DD, null as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return ""
	}
}

// Equal reports whether both values have the same kind and content.
// Null never equals anything.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	default:
		return v.date.Equal(o.date)
	}
}

// Interface returns the value as a plain Go value for encoders.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return nil
	}
}

// MarshalJSON encodes numbers as JSON numbers, dates as YYYY-MM-DD strings
// and null as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// keyPart encodes v for composite keys so that values of different kinds
// never collide.
func (v Value) keyPart() string {
	s := v.String()
	return strconv.Itoa(int(v.kind)) + ":" + strconv.Itoa(len(s)) + ":" + s
}
