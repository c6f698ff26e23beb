package fields

import (
	"math"
	"strings"
)

// Percent parses a percentage cell such as "67", "67.5" or "67%".
func Percent(s string) *float64 {
	return parseFloat(s)
}

// Decimal parses a score cell such as a progress measure ("-0.34").
// It shares Percent's sentinel handling; the two differ only in what the value means.
func Decimal(s string) *float64 {
	return parseFloat(s)
}

func parseFloat(s string) *float64 {
	if IsNull(s) {
		return nil
	}

	v, ok := leadingFloat(strings.TrimSpace(s))
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

// Int parses an optional integer cell. Unparseable text yields nil.
func Int(s string) *int {
	if IsNull(s) {
		return nil
	}

	v, ok := leadingInt(strings.TrimSpace(s))
	if !ok {
		return nil
	}

	return &v
}

// IntOr parses an integer cell, falling back to def when the cell is absent or unparseable.
func IntOr(s string, def int) int {
	if v := Int(s); v != nil {
		return *v
	}

	return def
}

// Float parses a plain float cell (coordinates). Unlike Percent it requires the whole
// trimmed cell to be numeric.
func Float(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, ok := leadingFloat(s)
	if !ok || len(floatPrefix.FindString(s)) != len(s) {
		return 0, false
	}

	return v, true
}

// Round rounds half up, matching how distances and means are published.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}
