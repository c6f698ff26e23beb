package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"schooldata/internal/logger"
	"schooldata/internal/models"
)

func TestInsertQuery(t *testing.T) {
	got := insertQuery("postcode_prices", []string{"postcode", "median_price", "sales_count"}, 2)
	want := "INSERT INTO postcode_prices (postcode, median_price, sales_count) VALUES ($1,$2,$3),($4,$5,$6)"

	if got != want {
		t.Errorf("insertQuery() =\n%s\nwant\n%s", got, want)
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		columns    int
		want       int
	}{
		{"configured fits", 500, 16, 500},
		{"capped by parameter limit", 10000, 16, 4095},
		{"unset uses limit", 0, 6, 10922},
		{"no columns", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := batchSize(tt.configured, tt.columns); got != tt.want {
				t.Errorf("batchSize(%d, %d) = %d, want %d", tt.configured, tt.columns, got, tt.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([][]any{{"a", 1}, {"b", 2}})
	if len(got) != 4 || got[0] != "a" || got[3] != 2 {
		t.Errorf("flatten() = %v", got)
	}
}

func TestSchoolsTable(t *testing.T) {
	rating := 1

	table := SchoolsTable([]models.School{{
		URN:          "123456",
		Name:         "St Mary's CE Primary",
		Slug:         "st-mary-s-ce-primary-123456",
		Phase:        models.PhasePrimary,
		OfstedRating: &rating,
		AgeLow:       4,
		AgeHigh:      11,
	}})

	if len(table.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(table.Rows))
	}

	row := table.Rows[0]
	if len(row) != len(table.Columns) {
		t.Fatalf("Row has %d values for %d columns", len(row), len(table.Columns))
	}

	if row[3] != "primary" {
		t.Errorf("phase = %v, want primary", row[3])
	}

	if got, ok := row[12].(*int); !ok || got != nil {
		t.Errorf("pupils = %v, want a nil *int", row[12])
	}
}

func TestResultTables_SortedByURN(t *testing.T) {
	score := 50.0

	ks4 := KS4Table(map[string][]models.KS4Result{
		"200": {{Year: 2023, Attainment8: &score}},
		"100": {{Year: 2023, Attainment8: &score}, {Year: 2022, Attainment8: &score}},
	})

	if len(ks4.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(ks4.Rows))
	}

	if ks4.Rows[0][0] != "100" || ks4.Rows[1][1] != 2022 || ks4.Rows[2][0] != "200" {
		t.Errorf("Unexpected row order: %v", ks4.Rows)
	}

	ks2 := KS2Table(map[string][]models.KS2Result{"300": {{Year: 2019}}})
	if len(ks2.Rows) != 1 || len(ks2.Rows[0]) != len(ks2.Columns) {
		t.Errorf("Unexpected KS2 table: %+v", ks2)
	}
}

func TestTables_KeepDuplicateRows(t *testing.T) {
	a8 := 50.0

	ks4 := KS4Table(map[string][]models.KS4Result{
		"100": {{Year: 2023, Attainment8: &a8}, {Year: 2023}},
	})
	if len(ks4.Rows) != 2 {
		t.Fatalf("Expected both 2023 rows, got %d", len(ks4.Rows))
	}

	ks2 := KS2Table(map[string][]models.KS2Result{
		"300": {{Year: 2019}, {Year: 2019}},
	})
	if len(ks2.Rows) != 2 {
		t.Fatalf("Expected both 2019 rows, got %d", len(ks2.Rows))
	}

	schools := SchoolsTable([]models.School{
		{URN: "100000", Slug: "twin-school-100000", Phase: models.PhasePrimary},
		{URN: "100000", Slug: "twin-school-100000", Phase: models.PhasePrimary},
	})
	if len(schools.Rows) != 2 {
		t.Fatalf("Expected both school rows, got %d", len(schools.Rows))
	}
}

func TestSchema_NoUniqueKeysOnPipelineTables(t *testing.T) {
	for _, table := range []string{"schools", "ks2_results", "ks4_results", "admissions"} {
		t.Run(table, func(t *testing.T) {
			start := strings.Index(schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
			if start < 0 {
				t.Fatalf("table %s missing from schema", table)
			}

			body := schema[start:]
			body = body[:strings.Index(body, ");")]

			for _, constraint := range []string{"PRIMARY KEY", "UNIQUE"} {
				if strings.Contains(body, constraint) {
					t.Errorf("%s declares %s:\n%s", table, constraint, body)
				}
			}
		})
	}

	for _, drop := range []string{"schools_pkey", "schools_slug_key", "ks2_results_pkey", "ks4_results_pkey"} {
		if !strings.Contains(schema, "DROP CONSTRAINT IF EXISTS "+drop) {
			t.Errorf("schema does not drop %s from existing databases", drop)
		}
	}
}

func TestAdmissionsAndPricesTables(t *testing.T) {
	pan := 90

	adm := AdmissionsTable(map[string][]models.AdmissionsRecord{
		"100000": {{URN: "100000", Year: 2024, PAN: &pan, Source: "Camden"}},
	})

	if len(adm.Rows) != 1 || len(adm.Rows[0]) != len(adm.Columns) {
		t.Fatalf("Unexpected admissions table: %+v", adm)
	}

	prices := PricesTable(map[string]models.PriceStat{
		"NW18AB": {Count: 3, Median: 200000, Avg: 200000, Min: 100000, Max: 300000},
		"E16AN":  {Count: 4, Median: 400000, Avg: 300000, Min: 10000, Max: 500000},
	})

	if prices.Rows[0][0] != "E16AN" || prices.Rows[1][5] != 3 {
		t.Errorf("Unexpected prices rows: %v", prices.Rows)
	}
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(context.Background(), "", 500, logger.Discard())
	if !errors.Is(err, ErrMissingDSN) {
		t.Errorf("Expected ErrMissingDSN, got %v", err)
	}
}
