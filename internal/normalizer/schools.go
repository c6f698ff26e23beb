package normalizer

import (
	"fmt"
	"io"
	"strings"

	"schooldata/internal/config"
	"schooldata/internal/fields"
	"schooldata/internal/logger"
	"schooldata/internal/models"
	"schooldata/internal/source"
)

// Establishment registry columns.
const (
	colURN        = "URN"
	colName       = "EstablishmentName"
	colStatus     = "EstablishmentStatus"
	colPhase      = "PhaseOfEducation"
	colType       = "TypeOfEstablishment"
	colStreet     = "Street"
	colTown       = "Town"
	colPostcode   = "Postcode"
	colLatitude   = "Latitude"
	colLongitude  = "Longitude"
	colOfsted     = "OfstedRating"
	colOfstedDate = "OfstedLastInsp"
	colPupils     = "NumberOfPupils"
	colLowAge     = "StatutoryLowAge"
	colHighAge    = "StatutoryHighAge"
	colWebsite    = "SchoolWebsite"
	statusOpen    = "Open"
)

// SchoolsSummary is the operator report for a schools run.
type SchoolsSummary struct {
	ByPhase     map[models.Phase]int
	Rows        RowStats
	Outstanding int
	Good        int
	WithOfsted  int
}

// SchoolsNormalizer filters and normalizes the establishment registry.
type SchoolsNormalizer struct {
	log     *logger.Logger
	phases  map[string]struct{}
	ageLow  int
	ageHigh int
}

// NewSchoolsNormalizer creates a normalizer using the configured phase allow-list and age defaults.
func NewSchoolsNormalizer(cfg config.SchoolsConfig, log *logger.Logger) *SchoolsNormalizer {
	phases := make(map[string]struct{}, len(cfg.Phases))
	for _, p := range cfg.Phases {
		phases[p] = struct{}{}
	}

	return &SchoolsNormalizer{
		log:     log,
		phases:  phases,
		ageLow:  cfg.DefaultAgeLow,
		ageHigh: cfg.DefaultAgeHigh,
	}
}

// Normalize reads the registry and returns open schools in file order.
func (n *SchoolsNormalizer) Normalize(r io.Reader) ([]models.School, *SchoolsSummary, error) {
	summary := &SchoolsSummary{
		ByPhase: make(map[models.Phase]int),
		Rows:    NewRowStats(),
	}
	schools := make([]models.School, 0)

	for row, err := range source.WithHeader(r) {
		if err != nil {
			if !recoverable(err) {
				return nil, nil, fmt.Errorf("failed to read establishments: %w", err)
			}

			n.log.Debug("Skipping malformed row", "line", row.Line, "error", err)
			summary.Rows.Read++
			summary.Rows.Reject(ReasonMalformed)

			continue
		}

		summary.Rows.Read++

		school, reason := n.transform(row)
		if reason != "" {
			summary.Rows.Reject(reason)
			continue
		}

		summary.Rows.Kept++
		summary.ByPhase[school.Phase]++

		if school.OfstedRating != nil {
			summary.WithOfsted++

			switch *school.OfstedRating {
			case models.OfstedOutstanding:
				summary.Outstanding++
			case models.OfstedGood:
				summary.Good++
			}
		}

		schools = append(schools, school)
	}

	return schools, summary, nil
}

// transform applies the row filter and maps a kept row to a School.
// It returns a rejection reason instead when the row is filtered out.
func (n *SchoolsNormalizer) transform(row source.Row) (models.School, string) {
	if strings.TrimSpace(row.Get(colStatus)) != statusOpen {
		return models.School{}, ReasonNotOpen
	}

	phaseText := strings.TrimSpace(row.Get(colPhase))
	if _, ok := n.phases[phaseText]; !ok {
		return models.School{}, ReasonPhase
	}

	lat, latOK := fields.Float(row.Get(colLatitude))
	lng, lngOK := fields.Float(row.Get(colLongitude))

	if !latOK || !lngOK {
		return models.School{}, ReasonCoordinates
	}

	urn := strings.TrimSpace(row.Get(colURN))
	name := strings.TrimSpace(row.Get(colName))

	return models.School{
		URN:          urn,
		Name:         name,
		Slug:         Slugify(name, urn),
		Phase:        NormalizePhase(phaseText),
		Type:         strings.TrimSpace(row.Get(colType)),
		Street:       strings.TrimSpace(row.Get(colStreet)),
		Town:         strings.TrimSpace(row.Get(colTown)),
		Postcode:     strings.TrimSpace(row.Get(colPostcode)),
		Lat:          lat,
		Lng:          lng,
		OfstedRating: OfstedRating(row.Get(colOfsted)),
		OfstedDate:   optionalText(row.Get(colOfstedDate)),
		// Pupils is null when unknown but the age bounds always fall back to defaults;
		// pages render age ranges unconditionally.
		Pupils:  fields.Int(row.Get(colPupils)),
		AgeLow:  fields.IntOr(row.Get(colLowAge), n.ageLow),
		AgeHigh: fields.IntOr(row.Get(colHighAge), n.ageHigh),
		Website: optionalText(row.Get(colWebsite)),
	}, ""
}
