// Package pipeline runs the normalizers against the configured raw files and writes the processed
// datasets.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"schooldata/internal/config"
	"schooldata/internal/formatter"
	"schooldata/internal/logger"
	"schooldata/internal/normalizer"
	"schooldata/internal/output"
	"schooldata/internal/source"
)

// ErrMissingInput is returned when a pipeline's required raw file does not exist.
var ErrMissingInput = errors.New("input file not found")

// Pipeline names, used in logs and RunAll errors.
const (
	NameSchools    = "schools"
	NameResults    = "results"
	NameAdmissions = "admissions"
	NamePrices     = "prices"
)

// Runner executes pipelines for one configuration. Reports go to out; logs go to the logger.
type Runner struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
	mu  sync.Mutex
}

// NewRunner creates a runner. A nil out discards the operator reports.
func NewRunner(cfg *config.Config, log *logger.Logger, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}

	return &Runner{cfg: cfg, log: log, out: out}
}

// Run executes the named pipeline.
func (r *Runner) Run(ctx context.Context, name string) error {
	switch name {
	case NameSchools:
		return r.RunSchools(ctx)
	case NameResults:
		return r.RunResults(ctx)
	case NameAdmissions:
		return r.RunAdmissions(ctx)
	case NamePrices:
		return r.RunPrices(ctx)
	default:
		return fmt.Errorf("unknown pipeline %q", name)
	}
}

// RunAll runs every pipeline concurrently. A failing pipeline does not stop the others;
// the returned error joins every failure.
func (r *Runner) RunAll(ctx context.Context) error {
	names := []string{NameSchools, NameResults, NameAdmissions, NamePrices}
	errs := make([]error, len(names))

	var g errgroup.Group

	for i, name := range names {
		g.Go(func() error {
			if err := r.Run(ctx, name); err != nil {
				r.log.Error("Pipeline failed", "pipeline", name, "error", err)
				errs[i] = fmt.Errorf("%s: %w", name, err)

				return errs[i]
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}

	return nil
}

// open opens a raw input, mapping absence to ErrMissingInput.
func open(path string) (*os.File, error) {
	f, err := source.Open(path)
	if errors.Is(err, source.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}

	return f, err
}

// write stores v at the processed path for name and logs the digest.
func (r *Runner) write(log *logger.Logger, name string, v any) (*output.Result, error) {
	res, err := output.WriteJSON(r.cfg.ProcessedPath(name), v)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	log.Info("Output written", "path", res.Path, "bytes", res.Bytes, "sha256", res.Digest)

	return res, nil
}

// print writes a block of operator text in one piece so concurrent pipelines do not interleave.
func (r *Runner) print(blocks ...fmt.Stringer) {
	var sb strings.Builder

	for _, b := range blocks {
		sb.WriteString(b.String())
		sb.WriteString("\n")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.out, sb.String()); err != nil {
		r.log.Warn("Failed to write report", "error", err)
	}
}

// guidance is free text shown to the operator, such as where to download a missing file.
type guidance []string

func (g guidance) String() string {
	return strings.Join(g, "\n") + "\n"
}

// rowsTable reports read, kept and per-reason rejection counts.
func rowsTable(title string, stats normalizer.RowStats) *formatter.Table {
	t := formatter.NewTable(title, "Rows", "Count").
		Add("read", stats.Read).
		Add("kept", stats.Kept)

	for _, reason := range stats.Reasons() {
		t.Add("rejected: "+reason, stats.Rejected(reason))
	}

	return t
}

// outputTable reports where a dataset was written.
func outputTable(results ...*output.Result) *formatter.Table {
	t := formatter.NewTable("", "Output", "Bytes", "SHA-256")
	for _, res := range results {
		t.Add(res.Path, res.Bytes, res.Digest[:12])
	}

	return t
}
