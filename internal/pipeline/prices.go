package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"schooldata/internal/formatter"
	"schooldata/internal/normalizer"
)

const pricesDownloadURL = "https://www.gov.uk/government/statistical-data-sets/price-paid-data-downloads"

// RunPrices pools the yearly price-paid files into per-postcode statistics.
func (r *Runner) RunPrices(ctx context.Context) error {
	log := r.log.Pipeline(NamePrices)
	cfg := r.cfg.Prices

	agg := normalizer.NewPriceAggregator(cfg, log)

	for _, year := range cfg.Years {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := r.cfg.YearPath(cfg.InputPattern, year)

		f, err := open(path)
		if errors.Is(err, ErrMissingInput) {
			log.Info("Skipping year, file not found", "year", year, "path", path, "download", pricesDownloadURL)
			continue
		}

		if err != nil {
			return err
		}

		log.Info("Processing year", "year", year, "path", path)

		err = agg.Add(f)
		f.Close()

		if err != nil {
			return err
		}
	}

	stats, summary := agg.Aggregate()

	res, err := r.write(log, cfg.Output, stats)
	if err != nil {
		return err
	}

	log.Info("Prices processed", "postcodes", summary.PostcodesKept, "overall_average", summary.OverallAverage)

	report := formatter.NewTable("", "Prices", "Value").
		Add("files", summary.Files).
		Add("postcodes seen", summary.PostcodesSeen).
		Add("postcodes output", summary.PostcodesKept).
		Add("below minimum sales", summary.PostcodesSeen-summary.PostcodesKept).
		Add("overall average", "£"+formatPounds(summary.OverallAverage))

	r.print(rowsTable("## Prices", summary.Rows), report, outputTable(res))

	return nil
}

// formatPounds groups thousands: 1234567 -> "1,234,567".
func formatPounds(n int) string {
	if n < 0 {
		return "-" + formatPounds(-n)
	}

	s := strconv.Itoa(n)

	var sb strings.Builder

	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}

		sb.WriteRune(c)
	}

	return sb.String()
}
