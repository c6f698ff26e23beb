package fields

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MetresPerMile is the conversion factor used for "last distance offered" figures.
const MetresPerMile = 1609.34

// ErrUnrecognizedDistance is wrapped by UnparsedDistanceError.
var ErrUnrecognizedDistance = errors.New("unrecognized distance format")

// UnparsedDistanceError carries the raw text of a distance that matched no known unit.
type UnparsedDistanceError struct {
	Raw string
}

func (e *UnparsedDistanceError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnrecognizedDistance, e.Raw)
}

func (e *UnparsedDistanceError) Unwrap() error {
	return ErrUnrecognizedDistance
}

type distanceUnit struct {
	pattern *regexp.Regexp
	factor  float64
}

const numberPattern = `(\d+(?:\.\d*)?|\.\d+)`

// Order matters: "mi" must be tried before the metre form so "m" stays metres.
var distanceUnits = []distanceUnit{
	{regexp.MustCompile(`^` + numberPattern + `\s*(?:miles?|mi)$`), MetresPerMile},
	{regexp.MustCompile(`^` + numberPattern + `\s*(?:km|kilometres?)$`), 1000},
	{regexp.MustCompile(`^` + numberPattern + `\s*(?:metres?|m)$`), 1},
	{regexp.MustCompile(`^` + numberPattern + `$`), 1},
}

// Distance normalizes a free-text distance ("0.432 miles", "312m", "1.2km", "450") to whole metres.
//
// Sentinels return (nil, nil). Text that matches no known form returns nil and an
// *UnparsedDistanceError; callers treat it as a warning and keep going.
func Distance(s string) (*int, error) {
	if IsNull(s) {
		return nil, nil
	}

	text := strings.ToLower(strings.TrimSpace(s))

	for _, unit := range distanceUnits {
		m := unit.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			break
		}

		metres := Round(n * unit.factor)

		return &metres, nil
	}

	return nil, &UnparsedDistanceError{Raw: s}
}
