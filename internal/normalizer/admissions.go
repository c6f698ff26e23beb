package normalizer

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"schooldata/internal/fields"
	"schooldata/internal/logger"
	"schooldata/internal/models"
	"schooldata/internal/source"
)

// AdmissionsColumns is the header the admissions CSV must carry.
var AdmissionsColumns = []string{
	"urn", "year", "pan", "applications", "offers", "last_distance",
	"offers_looked_after", "offers_siblings", "offers_distance", "offers_other",
	"appeals", "appeals_successful", "source", "source_url",
}

// AdmissionsExample is written for operators when no admissions file exists yet.
var AdmissionsExample = strings.Join(AdmissionsColumns, ",") + "\n" +
	"100000,2024,90,187,90,0.432 miles,2,35,53,0,12,3,Camden Council Admissions Booklet 2024,https://www.camden.gov.uk/documents/admissions-2024.pdf\n" +
	"100001,2024,60,245,60,312m,1,28,31,0,8,1,Islington Council Secondary Admissions 2024,https://www.islington.gov.uk/admissions\n"

// DistanceStats summarizes every normalized last-distance figure in a run.
type DistanceStats struct {
	Count int
	Min   int
	Max   int
	Mean  float64
}

// MeanMiles returns the mean converted back to miles.
func (d DistanceStats) MeanMiles() float64 {
	return d.Mean / fields.MetresPerMile
}

// AdmissionsSummary is the operator report for an admissions run.
type AdmissionsSummary struct {
	Rows             RowStats
	Distance         DistanceStats
	Schools          int
	UnparsedDistance int
}

// AdmissionsAggregator groups admissions rows by school.
type AdmissionsAggregator struct {
	log      *logger.Logger
	byURN    map[string][]models.AdmissionsRecord
	rows     RowStats
	unparsed int
}

// NewAdmissionsAggregator creates an empty aggregator.
func NewAdmissionsAggregator(log *logger.Logger) *AdmissionsAggregator {
	return &AdmissionsAggregator{
		log:   log,
		byURN: make(map[string][]models.AdmissionsRecord),
		rows:  NewRowStats(),
	}
}

// Add consumes an admissions CSV.
func (a *AdmissionsAggregator) Add(r io.Reader) error {
	for row, err := range source.WithHeader(r) {
		a.rows.Read++

		if err != nil {
			if !recoverable(err) {
				return fmt.Errorf("failed to read admissions: %w", err)
			}

			a.log.Debug("Skipping malformed row", "line", row.Line, "error", err)
			a.rows.Reject(ReasonMalformed)

			continue
		}

		record, reason := a.transform(row)
		if reason != "" {
			a.rows.Reject(reason)
			continue
		}

		a.byURN[record.URN] = append(a.byURN[record.URN], record)
		a.rows.Kept++
	}

	return nil
}

func (a *AdmissionsAggregator) transform(row source.Row) (models.AdmissionsRecord, string) {
	urn := strings.TrimSpace(row.Get("urn"))
	if urn == "" {
		return models.AdmissionsRecord{}, ReasonMissingURN
	}

	year := fields.Int(row.Get("year"))
	if year == nil {
		return models.AdmissionsRecord{}, ReasonBadYear
	}

	distance, err := fields.Distance(row.Get("last_distance"))
	if err != nil {
		var unparsed *fields.UnparsedDistanceError
		if errors.As(err, &unparsed) {
			a.unparsed++
			a.log.Warn("Could not parse distance", "urn", urn, "year", *year, "distance", unparsed.Raw)
		}
	}

	record := models.AdmissionsRecord{
		URN:                urn,
		Year:               *year,
		PAN:                fields.Int(row.Get("pan")),
		Applications:       fields.Int(row.Get("applications")),
		Offers:             fields.Int(row.Get("offers")),
		LastDistanceMetres: distance,
		OffersLookedAfter:  fields.Int(row.Get("offers_looked_after")),
		OffersSiblings:     fields.Int(row.Get("offers_siblings")),
		OffersDistance:     fields.Int(row.Get("offers_distance")),
		OffersOther:        fields.Int(row.Get("offers_other")),
		Appeals:            fields.Int(row.Get("appeals")),
		AppealsSuccessful:  fields.Int(row.Get("appeals_successful")),
		Source:             strings.TrimSpace(row.Get("source")),
		SourceURL:          optionalText(row.Get("source_url")),
	}

	if !record.HasData() {
		return models.AdmissionsRecord{}, ReasonNoData
	}

	return record, ""
}

// Result sorts every school's records newest year first and returns them with the run summary.
func (a *AdmissionsAggregator) Result() (map[string][]models.AdmissionsRecord, *AdmissionsSummary) {
	var distances []int

	for _, records := range a.byURN {
		slices.SortStableFunc(records, func(x, y models.AdmissionsRecord) int {
			return cmp.Compare(y.Year, x.Year)
		})

		for _, r := range records {
			if r.LastDistanceMetres != nil {
				distances = append(distances, *r.LastDistanceMetres)
			}
		}
	}

	return a.byURN, &AdmissionsSummary{
		Rows:             a.rows,
		Distance:         distanceStats(distances),
		Schools:          len(a.byURN),
		UnparsedDistance: a.unparsed,
	}
}

func distanceStats(distances []int) DistanceStats {
	if len(distances) == 0 {
		return DistanceStats{}
	}

	sum := 0
	for _, d := range distances {
		sum += d
	}

	return DistanceStats{
		Count: len(distances),
		Min:   slices.Min(distances),
		Max:   slices.Max(distances),
		Mean:  float64(sum) / float64(len(distances)),
	}
}
