package normalizer

import (
	"fmt"
	"io"
	"slices"

	"schooldata/internal/config"
	"schooldata/internal/fields"
	"schooldata/internal/logger"
	"schooldata/internal/models"
	"schooldata/internal/source"
)

// Price-paid files carry no header; these are the positions used.
// The full layout is id, price, date, postcode, propertyType, newBuild, duration, paon, saon,
// street, locality, town, district, county, ppd, recordStatus.
const (
	pricePaidPrice    = 1
	pricePaidPostcode = 3
)

// PriceSummary is the operator report for a prices run.
type PriceSummary struct {
	Rows           RowStats
	Files          int
	PostcodesSeen  int
	PostcodesKept  int
	OverallAverage int
}

// PriceAggregator pools sale prices by postcode across every file it is given.
type PriceAggregator struct {
	log      *logger.Logger
	buckets  map[string][]int
	rows     RowStats
	files    int
	minPrice int
	maxPrice int
	minSales int
}

// NewPriceAggregator creates an aggregator with the configured price bounds and sample floor.
func NewPriceAggregator(cfg config.PricesConfig, log *logger.Logger) *PriceAggregator {
	return &PriceAggregator{
		log:      log,
		buckets:  make(map[string][]int),
		rows:     NewRowStats(),
		minPrice: cfg.MinPrice,
		maxPrice: cfg.MaxPrice,
		minSales: cfg.MinSales,
	}
}

// Add consumes one headerless price-paid file. Years are pooled, not kept apart.
func (a *PriceAggregator) Add(r io.Reader) error {
	a.files++

	for row, err := range source.Positional(r) {
		a.rows.Read++

		if err != nil {
			if !recoverable(err) {
				return fmt.Errorf("failed to read price-paid data: %w", err)
			}

			a.rows.Reject(ReasonMalformed)

			continue
		}

		if row.Len() <= pricePaidPostcode {
			a.rows.Reject(ReasonShortRow)
			continue
		}

		postcode := CleanPostcode(row.At(pricePaidPostcode))
		if postcode == "" {
			a.rows.Reject(ReasonPostcode)
			continue
		}

		price := fields.Int(row.At(pricePaidPrice))
		if price == nil || !inRange(*price, a.minPrice, a.maxPrice) {
			a.rows.Reject(ReasonPrice)
			continue
		}

		a.buckets[postcode] = append(a.buckets[postcode], *price)
		a.rows.Kept++
	}

	return nil
}

// Aggregate summarizes every postcode with at least the minimum number of sales.
// Smaller buckets are left out of the result entirely.
func (a *PriceAggregator) Aggregate() (map[string]models.PriceStat, *PriceSummary) {
	stats := make(map[string]models.PriceStat)
	avgTotal := 0

	for postcode, prices := range a.buckets {
		if len(prices) < a.minSales {
			continue
		}

		stat := Summarize(prices)
		stats[postcode] = stat
		avgTotal += stat.Avg
	}

	summary := &PriceSummary{
		Rows:          a.rows,
		Files:         a.files,
		PostcodesSeen: len(a.buckets),
		PostcodesKept: len(stats),
	}

	if len(stats) > 0 {
		summary.OverallAverage = roundDiv(avgTotal, len(stats))
	}

	return stats, summary
}

// Summarize computes count, median, mean, min and max for a non-empty bucket.
//
// Median is sorted[n/2]: the upper of the two middle values for even counts, as the
// published figures have always been computed.
func Summarize(prices []int) models.PriceStat {
	sorted := slices.Clone(prices)
	slices.Sort(sorted)

	sum := 0
	for _, p := range sorted {
		sum += p
	}

	n := len(sorted)

	return models.PriceStat{
		Count:  n,
		Median: sorted[n/2],
		Avg:    roundDiv(sum, n),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// roundDiv divides non-negative sum by n, rounding half up.
func roundDiv(sum, n int) int {
	return (2*sum + n) / (2 * n)
}
