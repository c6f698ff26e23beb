// Package store publishes processed datasets to PostgreSQL for the site to query.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"schooldata/internal/logger"
)

// ErrMissingDSN is returned when no database URL is configured.
var ErrMissingDSN = errors.New("database url is required (set DATABASE_URL)")

// Postgres allows at most 65535 bind parameters per statement.
const maxParams = 65535

const (
	pingAttempts = 5
	pingDelay    = 2 * time.Second
)

// Table is a full replacement for one database table.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Publisher replaces table contents inside a transaction.
type Publisher struct {
	db        *sql.DB
	log       *logger.Logger
	batchSize int
}

// Open connects to PostgreSQL, waits for it to answer and applies the schema.
func Open(ctx context.Context, dsn string, batchSize int, log *logger.Logger) (*Publisher, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}

		log.Warn("Database not ready", "attempt", attempt, "error", err)

		if attempt < pingAttempts {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(pingDelay):
			}
		}
	}

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	p := &Publisher{db: db, log: log, batchSize: batchSize}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return p, nil
}

func (p *Publisher) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)

	return err
}

// Close closes the database handle.
func (p *Publisher) Close() error {
	return p.db.Close()
}

// Replace deletes every row of t.Name and inserts t.Rows in batches, all in one transaction.
// Readers see either the old or the new contents.
func (p *Publisher) Replace(ctx context.Context, t Table) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin %s: %w", t.Name, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				p.log.Error("Rollback failed", "table", t.Name, "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+t.Name); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", t.Name, err)
	}

	size := batchSize(p.batchSize, len(t.Columns))

	for start := 0; start < len(t.Rows); start += size {
		end := min(start+size, len(t.Rows))
		batch := t.Rows[start:end]

		if _, err = tx.ExecContext(ctx, insertQuery(t.Name, t.Columns, len(batch)), flatten(batch)...); err != nil {
			return fmt.Errorf("postgres: insert %s rows %d-%d: %w", t.Name, start, end, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", t.Name, err)
	}

	p.log.Info("Table replaced", "table", t.Name, "rows", len(t.Rows))

	return nil
}

// batchSize caps the configured rows per statement to the bind parameter limit.
func batchSize(configured, columns int) int {
	if columns == 0 {
		return max(configured, 1)
	}

	limit := maxParams / columns
	if configured <= 0 || configured > limit {
		return limit
	}

	return configured
}

// insertQuery builds a multi-row INSERT with numbered placeholders.
func insertQuery(table string, columns []string, rows int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	n := 1

	for r := range rows {
		if r > 0 {
			sb.WriteString(",")
		}

		sb.WriteString("(")

		for c := range columns {
			if c > 0 {
				sb.WriteString(",")
			}

			fmt.Fprintf(&sb, "$%d", n)
			n++
		}

		sb.WriteString(")")
	}

	return sb.String()
}

func flatten(rows [][]any) []any {
	n := 0
	for _, row := range rows {
		n += len(row)
	}

	args := make([]any, 0, n)
	for _, row := range rows {
		args = append(args, row...)
	}

	return args
}

// Only postcode_prices carries a key: its rows come from a map. The other
// tables hold whatever the processed files contain, duplicates included.
const schema = `
CREATE TABLE IF NOT EXISTS schools (
	urn           TEXT NOT NULL,
	name          TEXT NOT NULL,
	slug          TEXT NOT NULL,
	phase         TEXT NOT NULL,
	type          TEXT NOT NULL DEFAULT '',
	street        TEXT NOT NULL DEFAULT '',
	town          TEXT NOT NULL DEFAULT '',
	postcode      TEXT NOT NULL DEFAULT '',
	lat           DOUBLE PRECISION NOT NULL,
	lng           DOUBLE PRECISION NOT NULL,
	ofsted_rating SMALLINT,
	ofsted_date   TEXT,
	pupils        INTEGER,
	age_low       SMALLINT NOT NULL,
	age_high      SMALLINT NOT NULL,
	website       TEXT
);

ALTER TABLE schools DROP CONSTRAINT IF EXISTS schools_pkey;
ALTER TABLE schools DROP CONSTRAINT IF EXISTS schools_slug_key;

CREATE INDEX IF NOT EXISTS idx_schools_urn      ON schools(urn);
CREATE INDEX IF NOT EXISTS idx_schools_slug     ON schools(slug);
CREATE INDEX IF NOT EXISTS idx_schools_phase    ON schools(phase);
CREATE INDEX IF NOT EXISTS idx_schools_postcode ON schools(postcode);

CREATE TABLE IF NOT EXISTS ks2_results (
	urn               TEXT NOT NULL,
	year              SMALLINT NOT NULL,
	reading_expected  DOUBLE PRECISION,
	writing_expected  DOUBLE PRECISION,
	maths_expected    DOUBLE PRECISION,
	combined_expected DOUBLE PRECISION,
	reading_higher    DOUBLE PRECISION,
	writing_higher    DOUBLE PRECISION,
	maths_higher      DOUBLE PRECISION,
	progress_reading  DOUBLE PRECISION,
	progress_writing  DOUBLE PRECISION,
	progress_maths    DOUBLE PRECISION
);

ALTER TABLE ks2_results DROP CONSTRAINT IF EXISTS ks2_results_pkey;
CREATE INDEX IF NOT EXISTS idx_ks2_results_urn ON ks2_results(urn, year);

CREATE TABLE IF NOT EXISTS ks4_results (
	urn              TEXT NOT NULL,
	year             SMALLINT NOT NULL,
	attainment8      DOUBLE PRECISION,
	progress8        DOUBLE PRECISION,
	basics_9_4       DOUBLE PRECISION,
	basics_9_5       DOUBLE PRECISION,
	ebacc_entry      DOUBLE PRECISION,
	ebacc_avg_points DOUBLE PRECISION
);

ALTER TABLE ks4_results DROP CONSTRAINT IF EXISTS ks4_results_pkey;
CREATE INDEX IF NOT EXISTS idx_ks4_results_urn ON ks4_results(urn, year);

CREATE TABLE IF NOT EXISTS admissions (
	urn                  TEXT NOT NULL,
	year                 SMALLINT NOT NULL,
	pan                  INTEGER,
	applications         INTEGER,
	offers               INTEGER,
	last_distance_metres INTEGER,
	offers_looked_after  INTEGER,
	offers_siblings      INTEGER,
	offers_distance      INTEGER,
	offers_other         INTEGER,
	appeals              INTEGER,
	appeals_successful   INTEGER,
	source               TEXT NOT NULL DEFAULT '',
	source_url           TEXT
);

CREATE INDEX IF NOT EXISTS idx_admissions_urn ON admissions(urn);

CREATE TABLE IF NOT EXISTS postcode_prices (
	postcode     TEXT PRIMARY KEY,
	median_price INTEGER NOT NULL,
	avg_price    INTEGER NOT NULL,
	min_price    INTEGER NOT NULL,
	max_price    INTEGER NOT NULL,
	sales_count  INTEGER NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
