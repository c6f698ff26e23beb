package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schooldata/internal/formatter"
	"schooldata/internal/normalizer"
	"schooldata/internal/output"
)

// RunAdmissions normalizes the hand-compiled council admissions file.
//
// When the file is missing it prints the expected layout, writes an example next to where the
// file should be and returns nil: the dataset is built up by hand, so its absence is not a failure.
func (r *Runner) RunAdmissions(ctx context.Context) error {
	log := r.log.Pipeline(NameAdmissions)
	cfg := r.cfg.Admissions
	path := r.cfg.RawPath(cfg.Input)

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := open(path)
	if errors.Is(err, ErrMissingInput) {
		return r.writeAdmissionsExample(path)
	}

	if err != nil {
		return err
	}
	defer f.Close()

	log.Info("Reading admissions", "path", path)

	agg := normalizer.NewAdmissionsAggregator(log)
	if err := agg.Add(f); err != nil {
		return err
	}

	byURN, summary := agg.Result()

	res, err := r.write(log, cfg.Output, byURN)
	if err != nil {
		return err
	}

	log.Info("Admissions processed", "schools", summary.Schools, "records", summary.Rows.Kept)

	stats := formatter.NewTable("", "Admissions", "Value").
		Add("schools", summary.Schools).
		Add("records", summary.Rows.Kept).
		Add("with distance", summary.Distance.Count).
		Add("unparsed distance", summary.UnparsedDistance)

	if d := summary.Distance; d.Count > 0 {
		stats.Add("min distance", fmt.Sprintf("%dm", d.Min)).
			Add("max distance", fmt.Sprintf("%dm", d.Max)).
			Add("mean distance", fmt.Sprintf("%.0fm (%.2f miles)", d.Mean, d.MeanMiles()))
	}

	r.print(rowsTable("## Admissions", summary.Rows), stats, outputTable(res))

	return nil
}

func (r *Runner) writeAdmissionsExample(missing string) error {
	example := r.cfg.RawPath(r.cfg.Admissions.Example)

	if err := output.WriteFile(example, []byte(normalizer.AdmissionsExample)); err != nil {
		return fmt.Errorf("failed to write admissions example: %w", err)
	}

	r.log.Pipeline(NameAdmissions).Info("No admissions file; wrote example", "missing", missing, "example", example)

	r.print(guidance{
		"Input file not found: " + missing,
		"",
		"Create a CSV file with the following columns:",
		strings.Join(normalizer.AdmissionsColumns, ","),
		"",
		"Data sources:",
		"- Council admissions booklets (PDFs)",
		"- School websites",
		"- FOI requests to councils",
		"",
		"Created example file: " + example,
	})

	return nil
}
