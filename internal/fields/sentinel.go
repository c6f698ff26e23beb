// Package fields parses the free-text cells found in government and council exports.
//
// Every parser is total: malformed input yields nil (or a documented default), never a panic.
// Optional values are returned as pointers so they serialize as JSON null.
package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// nullSentinels lists the cell values that mean "no value" in any source file.
// SUPP/NE/NA/NEW come from the performance tables, N/A and - from council booklets.
var nullSentinels = map[string]struct{}{
	"":     {},
	"SUPP": {},
	"NE":   {},
	"NA":   {},
	"NEW":  {},
	"N/A":  {},
	"-":    {},
}

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// IsNull reports whether s, once trimmed, is one of the shared null sentinels.
func IsNull(s string) bool {
	_, ok := nullSentinels[strings.TrimSpace(s)]

	return ok
}

// leadingFloat parses the numeric prefix of s ("45%" -> 45).
func leadingFloat(s string) (float64, bool) {
	match := floatPrefix.FindString(s)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// leadingInt parses the integer prefix of s ("90 places" -> 90, "1.5" -> 1).
func leadingInt(s string) (int, bool) {
	match := intPrefix.FindString(s)
	if match == "" {
		return 0, false
	}

	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}

	return v, true
}
