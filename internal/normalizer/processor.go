// Package normalizer turns raw government and council exports into publishable records.
//
// Each pipeline owns its accumulator (SchoolsNormalizer, ResultsNormalizer, AdmissionsAggregator,
// PriceAggregator) for exactly one run; nothing is shared between them.
package normalizer

import (
	"encoding/csv"
	"errors"
	"maps"
	"slices"
)

// RowStats counts rows read, kept and rejected (by reason) during one run.
// Rejected rows are not errors; the counts are reported to the operator.
type RowStats struct {
	rejected map[string]int
	Read     int
	Kept     int
}

// NewRowStats returns empty counters.
func NewRowStats() RowStats {
	return RowStats{rejected: make(map[string]int)}
}

// Reject records a dropped row.
func (s *RowStats) Reject(reason string) {
	if s.rejected == nil {
		s.rejected = make(map[string]int)
	}

	s.rejected[reason]++
}

// Rejected returns the number of rows dropped for reason.
func (s *RowStats) Rejected(reason string) int {
	return s.rejected[reason]
}

// TotalRejected returns the number of rows dropped for any reason.
func (s *RowStats) TotalRejected() int {
	total := 0
	for _, n := range s.rejected {
		total += n
	}

	return total
}

// Reasons returns the rejection reasons seen, sorted.
func (s *RowStats) Reasons() []string {
	return slices.Sorted(maps.Keys(s.rejected))
}

// recoverable reports whether err is a malformed CSV row that can be skipped.
func recoverable(err error) bool {
	var parseErr *csv.ParseError

	return errors.As(err, &parseErr)
}
