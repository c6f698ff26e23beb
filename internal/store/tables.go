package store

import (
	"maps"
	"slices"

	"schooldata/internal/models"
)

// SchoolsTable maps schools to the schools table, in input order.
func SchoolsTable(schools []models.School) Table {
	t := Table{
		Name: "schools",
		Columns: []string{
			"urn", "name", "slug", "phase", "type", "street", "town", "postcode", "lat", "lng",
			"ofsted_rating", "ofsted_date", "pupils", "age_low", "age_high", "website",
		},
		Rows: make([][]any, 0, len(schools)),
	}

	for _, s := range schools {
		t.Rows = append(t.Rows, []any{
			s.URN, s.Name, s.Slug, string(s.Phase), s.Type, s.Street, s.Town, s.Postcode, s.Lat, s.Lng,
			s.OfstedRating, s.OfstedDate, s.Pupils, s.AgeLow, s.AgeHigh, s.Website,
		})
	}

	return t
}

// KS2Table flattens KS2 results, urns in sorted order.
func KS2Table(results map[string][]models.KS2Result) Table {
	t := Table{
		Name: "ks2_results",
		Columns: []string{
			"urn", "year", "reading_expected", "writing_expected", "maths_expected", "combined_expected",
			"reading_higher", "writing_higher", "maths_higher",
			"progress_reading", "progress_writing", "progress_maths",
		},
	}

	for _, urn := range slices.Sorted(maps.Keys(results)) {
		for _, r := range results[urn] {
			t.Rows = append(t.Rows, []any{
				urn, r.Year, r.ReadingExpected, r.WritingExpected, r.MathsExpected, r.CombinedExpected,
				r.ReadingHigher, r.WritingHigher, r.MathsHigher,
				r.ProgressReading, r.ProgressWriting, r.ProgressMaths,
			})
		}
	}

	return t
}

// KS4Table flattens KS4 results, urns in sorted order.
func KS4Table(results map[string][]models.KS4Result) Table {
	t := Table{
		Name: "ks4_results",
		Columns: []string{
			"urn", "year", "attainment8", "progress8", "basics_9_4", "basics_9_5", "ebacc_entry", "ebacc_avg_points",
		},
	}

	for _, urn := range slices.Sorted(maps.Keys(results)) {
		for _, r := range results[urn] {
			t.Rows = append(t.Rows, []any{
				urn, r.Year, r.Attainment8, r.Progress8, r.Basics94, r.Basics95, r.EBacc, r.EBaccAvgPoints,
			})
		}
	}

	return t
}

// AdmissionsTable flattens admissions records, urns in sorted order.
func AdmissionsTable(admissions map[string][]models.AdmissionsRecord) Table {
	t := Table{
		Name: "admissions",
		Columns: []string{
			"urn", "year", "pan", "applications", "offers", "last_distance_metres",
			"offers_looked_after", "offers_siblings", "offers_distance", "offers_other",
			"appeals", "appeals_successful", "source", "source_url",
		},
	}

	for _, urn := range slices.Sorted(maps.Keys(admissions)) {
		for _, a := range admissions[urn] {
			t.Rows = append(t.Rows, []any{
				a.URN, a.Year, a.PAN, a.Applications, a.Offers, a.LastDistanceMetres,
				a.OffersLookedAfter, a.OffersSiblings, a.OffersDistance, a.OffersOther,
				a.Appeals, a.AppealsSuccessful, a.Source, a.SourceURL,
			})
		}
	}

	return t
}

// PricesTable maps postcode statistics to postcode_prices, postcodes in sorted order.
func PricesTable(prices map[string]models.PriceStat) Table {
	t := Table{
		Name:    "postcode_prices",
		Columns: []string{"postcode", "median_price", "avg_price", "min_price", "max_price", "sales_count"},
	}

	for _, postcode := range slices.Sorted(maps.Keys(prices)) {
		p := prices[postcode]
		t.Rows = append(t.Rows, []any{postcode, p.Median, p.Avg, p.Min, p.Max, p.Count})
	}

	return t
}
