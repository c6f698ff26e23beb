package pipeline

import (
	"context"
	"errors"

	"schooldata/internal/formatter"
	"schooldata/internal/models"
	"schooldata/internal/normalizer"
)

const schoolsDownloadURL = "https://get-information-schools.service.gov.uk/Downloads"

// RunSchools normalizes the establishment registry. A missing registry fails the run.
func (r *Runner) RunSchools(ctx context.Context) error {
	log := r.log.Pipeline(NameSchools)
	cfg := r.cfg.Schools
	path := r.cfg.RawPath(cfg.Input)

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := open(path)
	if errors.Is(err, ErrMissingInput) {
		r.print(guidance{
			"Input file not found: " + path,
			"Download the establishment fields CSV from: " + schoolsDownloadURL,
		})

		return err
	}

	if err != nil {
		return err
	}
	defer f.Close()

	log.Info("Reading establishments", "path", path)

	schools, summary, err := normalizer.NewSchoolsNormalizer(cfg, log).Normalize(f)
	if err != nil {
		return err
	}

	res, err := r.write(log, cfg.Output, schools)
	if err != nil {
		return err
	}

	log.Info("Schools processed", "read", summary.Rows.Read, "kept", summary.Rows.Kept)

	stats := formatter.NewTable("", "Schools", "Count").
		Add("total", len(schools)).
		Add("primary", summary.ByPhase[models.PhasePrimary]).
		Add("secondary", summary.ByPhase[models.PhaseSecondary]).
		Add("all-through", summary.ByPhase[models.PhaseAllThrough]).
		Add("16-plus", summary.ByPhase[models.PhaseSixteen]).
		Add("outstanding", summary.Outstanding).
		Add("good", summary.Good).
		Add("with ofsted rating", summary.WithOfsted)

	r.print(rowsTable("## Schools", summary.Rows), stats, outputTable(res))

	return nil
}
