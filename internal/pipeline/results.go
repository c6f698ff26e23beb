package pipeline

import (
	"context"
	"errors"

	"schooldata/internal/config"
	"schooldata/internal/formatter"
	"schooldata/internal/normalizer"
	"schooldata/internal/output"
)

const resultsDownloadURL = "https://www.find-school-performance.service.gov.uk/download-data"

// RunResults normalizes the KS4 then the KS2 performance tables. Years without a file are
// skipped; an output is written even when no year was found.
func (r *Runner) RunResults(ctx context.Context) error {
	log := r.log.Pipeline(NameResults)

	ks4, ks4Summary, err := runVariant(ctx, r, normalizer.KS4, r.cfg.Results.KS4)
	if err != nil {
		return err
	}

	ks2, ks2Summary, err := runVariant(ctx, r, normalizer.KS2, r.cfg.Results.KS2)
	if err != nil {
		return err
	}

	years := formatter.NewTable("", "Variant", "Year", "Read", "Kept")

	for _, v := range []struct {
		name    string
		summary *normalizer.ResultsSummary
	}{
		{normalizer.KS4.Name, ks4Summary},
		{normalizer.KS2.Name, ks2Summary},
	} {
		for _, y := range v.summary.Years {
			years.Add(v.name, y.Year, y.Read, y.Kept)
		}

		log.Info("Variant processed", "variant", v.name, "schools", v.summary.Schools)
	}

	r.print(
		rowsTable("## Results (KS4)", ks4Summary.Rows),
		rowsTable("## Results (KS2)", ks2Summary.Rows),
		years,
		formatter.NewTable("", "Variant", "Schools").
			Add(normalizer.KS4.Name, ks4Summary.Schools).
			Add(normalizer.KS2.Name, ks2Summary.Schools),
		outputTable(ks4, ks2),
	)

	return nil
}

// runVariant reads each configured year in list order and writes the variant's output.
func runVariant[T any](ctx context.Context, r *Runner, variant normalizer.ResultsVariant[T], cfg config.VariantConfig) (*output.Result, *normalizer.ResultsSummary, error) {
	log := r.log.Pipeline(NameResults).With("variant", variant.Name)

	if !cfg.Descending() {
		log.Warn("Years are not listed newest first; records will not be in calendar order", "years", cfg.Years)
	}

	n := normalizer.NewResultsNormalizer(variant, log)

	for _, year := range cfg.Years {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		path := r.cfg.YearPath(cfg.InputPattern, year)

		f, err := open(path)
		if errors.Is(err, ErrMissingInput) {
			log.Info("Skipping year, file not found", "year", year, "path", path, "download", resultsDownloadURL)
			continue
		}

		if err != nil {
			return nil, nil, err
		}

		log.Info("Processing year", "year", year, "path", path)

		err = n.AddYear(year, f)
		f.Close()

		if err != nil {
			return nil, nil, err
		}
	}

	results, summary := n.Results()

	res, err := r.write(log, cfg.Output, results)
	if err != nil {
		return nil, nil, err
	}

	return res, summary, nil
}
