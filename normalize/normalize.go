// Package normalize converts loosely-formatted source values ("$450,000",
// "2,400 sq ft", "3.5 baths") into typed numbers. Every function is total
// over arbitrary input and returns nil instead of failing.
package normalize

import (
	"math"
	"regexp"
	"strconv"
)

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// ParseFloat normalizes a numeric-like value to a float. Strings are
// stripped of everything but digits and decimal points before parsing,
// so signs and thousands separators are discarded uniformly. Returns nil
// for nil, empty, or unparseable input.
func ParseFloat(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return &x
	case float32:
		f := float64(x)
		return &f
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		s := nonNumeric.ReplaceAllString(x, "")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// ParseInt applies ParseFloat and truncates toward zero. Values beyond
// int32 range are rejected: no field parsed here (price, square footage,
// counts) is legitimately that large, and int conversion of an
// out-of-range float is implementation-defined.
func ParseInt(v any) *int {
	f := ParseFloat(v)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

// DigitsOnly reports whether s is non-empty and purely numeric. Used to
// guard identifier fields against non-ID text under similar key names.
func DigitsOnly(s string) bool {
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
