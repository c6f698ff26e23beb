package normalizer

import (
	"regexp"
	"strings"

	"schooldata/internal/models"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ofstedGrades maps inspection judgement text to the 1-4 grade.
var ofstedGrades = map[string]int{
	"Outstanding":          models.OfstedOutstanding,
	"Good":                 models.OfstedGood,
	"Requires improvement": models.OfstedRequiresImprovement,
	"Requires Improvement": models.OfstedRequiresImprovement,
	"Inadequate":           models.OfstedInadequate,
	"Serious Weaknesses":   models.OfstedInadequate,
	"Special Measures":     models.OfstedInadequate,
}

// Slugify builds the URL slug for a school. The urn suffix keeps slugs unique
// across schools that share a name.
func Slugify(name, urn string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")

	return slug + "-" + urn
}

// OfstedRating maps a judgement to its grade; anything unrecognized is nil.
func OfstedRating(text string) *int {
	grade, ok := ofstedGrades[strings.TrimSpace(text)]
	if !ok {
		return nil
	}

	return &grade
}

// NormalizePhase turns "All-through" into "all-through" and "16 plus" into "16-plus".
func NormalizePhase(text string) models.Phase {
	phase := whitespaceRun.ReplaceAllString(strings.TrimSpace(text), "-")

	return models.Phase(strings.ToLower(phase))
}

// CleanPostcode uppercases a postcode and strips all whitespace ("sw1a 1aa" -> "SW1A1AA").
func CleanPostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// optionalText returns nil for blank cells and the trimmed text otherwise.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
