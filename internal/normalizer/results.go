package normalizer

import (
	"fmt"
	"io"
	"strings"

	"schooldata/internal/fields"
	"schooldata/internal/logger"
	"schooldata/internal/models"
	"schooldata/internal/source"
)

// ResultsVariant describes one performance table: which column gates a row and how a row
// becomes a record.
type ResultsVariant[T any] struct {
	build    func(row source.Row, year int) T
	Name     string
	Headline string
}

// KS2 is the primary (SATs) variant; rows need a combined reading, writing and maths figure.
var KS2 = ResultsVariant[models.KS2Result]{
	Name:     "ks2",
	Headline: "PTRWM_EXP",
	build: func(row source.Row, year int) models.KS2Result {
		return models.KS2Result{
			Year:             year,
			ReadingExpected:  fields.Percent(row.Get("PTREAD_EXP")),
			WritingExpected:  fields.Percent(row.Get("PTWRITTA_EXP")),
			MathsExpected:    fields.Percent(row.Get("PTMAT_EXP")),
			CombinedExpected: fields.Percent(row.Get("PTRWM_EXP")),
			ReadingHigher:    fields.Percent(row.Get("PTREAD_HIGH")),
			WritingHigher:    fields.Percent(row.Get("PTWRITTA_HIGH")),
			MathsHigher:      fields.Percent(row.Get("PTMAT_HIGH")),
			ProgressReading:  fields.Decimal(row.Get("READPROG")),
			ProgressWriting:  fields.Decimal(row.Get("WRITPROG")),
			ProgressMaths:    fields.Decimal(row.Get("MATPROG")),
		}
	},
}

// KS4 is the secondary (GCSE) variant; rows need an Attainment 8 score.
var KS4 = ResultsVariant[models.KS4Result]{
	Name:     "ks4",
	Headline: "ATT8SCR",
	build: func(row source.Row, year int) models.KS4Result {
		return models.KS4Result{
			Year:           year,
			Attainment8:    fields.Decimal(row.Get("ATT8SCR")),
			Progress8:      fields.Decimal(row.Get("P8MEA")),
			Basics94:       fields.Percent(row.Get("PTL2BASICS_94")),
			Basics95:       fields.Percent(row.Get("PTL2BASICS_95")),
			EBacc:          fields.Percent(row.Get("PTEBACC")),
			EBaccAvgPoints: fields.Decimal(row.Get("EBACCAPS")),
		}
	},
}

// YearCount records how many rows one year's file contributed.
type YearCount struct {
	Year int
	Read int
	Kept int
}

// ResultsSummary is the operator report for a results run.
type ResultsSummary struct {
	Years   []YearCount
	Rows    RowStats
	Schools int
}

// ResultsNormalizer accumulates one variant's records by urn.
//
// Records for a urn appear in the order years are added, not calendar order. Callers add
// years newest first so that the first record is the latest.
type ResultsNormalizer[T any] struct {
	log     *logger.Logger
	byURN   map[string][]T
	variant ResultsVariant[T]
	summary ResultsSummary
}

// NewResultsNormalizer creates an empty accumulator for variant.
func NewResultsNormalizer[T any](variant ResultsVariant[T], log *logger.Logger) *ResultsNormalizer[T] {
	return &ResultsNormalizer[T]{
		log:     log,
		byURN:   make(map[string][]T),
		variant: variant,
		summary: ResultsSummary{Rows: NewRowStats()},
	}
}

// AddYear consumes one year's performance table.
func (n *ResultsNormalizer[T]) AddYear(year int, r io.Reader) error {
	count := YearCount{Year: year}

	for row, err := range source.WithHeader(r) {
		count.Read++

		if err != nil {
			if !recoverable(err) {
				return fmt.Errorf("failed to read %s %d: %w", n.variant.Name, year, err)
			}

			n.log.Debug("Skipping malformed row", "year", year, "line", row.Line, "error", err)
			n.summary.Rows.Reject(ReasonMalformed)

			continue
		}

		urn := strings.TrimSpace(row.Get("URN"))
		if urn == "" {
			n.summary.Rows.Reject(ReasonMissingURN)
			continue
		}

		if fields.Decimal(row.Get(n.variant.Headline)) == nil {
			n.summary.Rows.Reject(ReasonHeadline)
			continue
		}

		n.byURN[urn] = append(n.byURN[urn], n.variant.build(row, year))
		count.Kept++
	}

	n.summary.Rows.Read += count.Read
	n.summary.Rows.Kept += count.Kept
	n.summary.Years = append(n.summary.Years, count)

	return nil
}

// Results returns the accumulated records keyed by urn.
func (n *ResultsNormalizer[T]) Results() (map[string][]T, *ResultsSummary) {
	summary := n.summary
	summary.Schools = len(n.byURN)

	return n.byURN, &summary
}
