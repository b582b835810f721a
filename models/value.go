package models

import (
	"strconv"
	"strings"
)

// Value is a single nullable table cell. The zero Value is null.
type Value struct {
	s     string
	valid bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Text trims s and returns it as a Value. Empty text is null.
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{s: s, valid: true}
}

// TextPtr is Text for an optional string.
func TextPtr(s *string) Value {
	if s == nil {
		return Value{}
	}
	return Text(*s)
}

// Number renders f in its shortest canonical decimal form.
func Number(f float64) Value {
	return Value{s: strconv.FormatFloat(f, 'f', -1, 64), valid: true}
}

// Float returns a numeric Value, or null when f is nil.
func Float(f *float64) Value {
	if f == nil {
		return Value{}
	}
	return Number(*f)
}

// Bool returns "true"/"false", or null when b is nil.
func Bool(b *bool) Value {
	if b == nil {
		return Value{}
	}
	return Value{s: strconv.FormatBool(*b), valid: true}
}

// IsNull reports whether the cell holds no value.
func (v Value) IsNull() bool { return !v.valid }

// String returns the cell text; null renders as the empty string.
func (v Value) String() string { return v.s }

// Float64 parses the cell as a number.
func (v Value) Float64() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
