package store

import (
	"context"
	"errors"
	"fmt"

	"schooldata/internal/config"
	"schooldata/internal/models"
	"schooldata/internal/output"
	"schooldata/internal/source"
)

// dataset loads one processed file and maps it to its table.
type dataset struct {
	file string
	load func(path string) (Table, error)
}

func datasets(cfg *config.Config) []dataset {
	return []dataset{
		{cfg.Schools.Output, func(path string) (Table, error) {
			var v []models.School
			err := output.ReadJSON(path, &v)

			return SchoolsTable(v), err
		}},
		{cfg.Results.KS2.Output, func(path string) (Table, error) {
			var v map[string][]models.KS2Result
			err := output.ReadJSON(path, &v)

			return KS2Table(v), err
		}},
		{cfg.Results.KS4.Output, func(path string) (Table, error) {
			var v map[string][]models.KS4Result
			err := output.ReadJSON(path, &v)

			return KS4Table(v), err
		}},
		{cfg.Admissions.Output, func(path string) (Table, error) {
			var v map[string][]models.AdmissionsRecord
			err := output.ReadJSON(path, &v)

			return AdmissionsTable(v), err
		}},
		{cfg.Prices.Output, func(path string) (Table, error) {
			var v map[string]models.PriceStat
			err := output.ReadJSON(path, &v)

			return PricesTable(v), err
		}},
	}
}

// PublishAll replaces each table whose processed file exists. Missing files are skipped so
// a partial run does not wipe tables it did not rebuild. Each table is independent.
func (p *Publisher) PublishAll(ctx context.Context, cfg *config.Config) error {
	var errs []error

	for _, ds := range datasets(cfg) {
		path := cfg.ProcessedPath(ds.file)

		if !source.Exists(path) {
			p.log.Warn("Skipping table, processed file not found", "path", path)
			continue
		}

		t, err := ds.load(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load %s: %w", path, err))
			continue
		}

		if err := p.Replace(ctx, t); err != nil {
			errs = append(errs, err)

			if ctx.Err() != nil {
				break
			}
		}
	}

	return errors.Join(errs...)
}
