// Package models defines the normalized records the pipelines publish.
package models

// Phase is the normalized phase of education.
type Phase string

// Phases produced by the schools pipeline.
const (
	PhasePrimary    Phase = "primary"
	PhaseSecondary  Phase = "secondary"
	PhaseAllThrough Phase = "all-through"
	PhaseSixteen    Phase = "16-plus"
)

// Ofsted grades, lowest is best.
const (
	OfstedOutstanding         = 1
	OfstedGood                = 2
	OfstedRequiresImprovement = 3
	OfstedInadequate          = 4
)

// School is one open establishment from the registry.
// AgeLow and AgeHigh are always populated; Pupils is nil when the registry has no count.
type School struct {
	URN          string  `json:"urn"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Phase        Phase   `json:"phase"`
	Type         string  `json:"type"`
	Street       string  `json:"street"`
	Town         string  `json:"town"`
	Postcode     string  `json:"postcode"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	OfstedRating *int    `json:"ofsted_rating"`
	OfstedDate   *string `json:"ofsted_date"`
	Pupils       *int    `json:"pupils"`
	AgeLow       int     `json:"age_low"`
	AgeHigh      int     `json:"age_high"`
	Website      *string `json:"website"`
}
