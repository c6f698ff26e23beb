// Package fetch downloads raw source files into the raw data directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"schooldata/internal/config"
	"schooldata/internal/logger"
	"schooldata/internal/output"
	"schooldata/internal/source"
)

var (
	// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrTooLarge indicates a download that exceeded the configured size limit.
	ErrTooLarge = errors.New("download exceeds size limit")
)

// Result describes one source after a fetch.
type Result struct {
	Name     string
	Path     string
	Status   int
	Bytes    int
	Attempts int
	Duration time.Duration
	Skipped  bool
}

// Downloader fetches sources with config-driven retry logic.
type Downloader struct {
	client    *http.Client
	log       *logger.Logger
	retry     config.RetryPolicy
	userAgent string
	maxBytes  int64
}

// NewDownloader creates a downloader from the fetch configuration.
func NewDownloader(cfg config.FetchConfig, log *logger.Logger) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: cfg.Retry.GetTimeout()},
		log:       log,
		retry:     cfg.Retry,
		userAgent: cfg.UserAgent,
		maxBytes:  int64(cfg.MaxSizeMb) * 1024 * 1024,
	}
}

// FetchAll downloads every enabled source into rawDir. Sources already on disk are skipped when
// skipExisting is set. A failed source does not stop the rest; the returned error joins them.
func (d *Downloader) FetchAll(ctx context.Context, cfg *config.Config) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)

	for _, src := range cfg.Fetch.EnabledSources() {
		path := cfg.RawPath(src.File)
		log := d.log.With("source", src.Name)

		if cfg.Fetch.SkipExisting && source.Exists(path) {
			log.Info("Skipping download, file exists", "path", path)
			results = append(results, Result{Name: src.Name, Path: path, Skipped: true})

			continue
		}

		res, err := d.Download(ctx, src.URL, path)
		if err != nil {
			log.Error("Download failed", "url", src.URL, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))

			if ctx.Err() != nil {
				break
			}

			continue
		}

		res.Name = src.Name
		log.Info("Downloaded", "path", path, "bytes", res.Bytes, "attempts", res.Attempts, "duration", res.Duration)
		results = append(results, *res)
	}

	return results, errors.Join(errs...)
}

// Download fetches url and atomically writes the body to path.
// Transport errors and retryable statuses are retried per the policy; other statuses fail at once.
func (d *Downloader) Download(ctx context.Context, url, path string) (*Result, error) {
	var lastErr error

	lastStatus := 0
	start := time.Now()

	for attempt := 1; attempt <= d.retry.MaxAttempts; attempt++ {
		if err := sleep(ctx, d.retry.GetRetryDelay(attempt)); err != nil {
			return nil, err
		}

		body, status, err := d.get(ctx, url)
		lastStatus = status

		if err == nil {
			if err := output.WriteFile(path, body); err != nil {
				return nil, err
			}

			return &Result{
				Path:     path,
				Status:   status,
				Bytes:    len(body),
				Attempts: attempt,
				Duration: time.Since(start),
			}, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, d.retry.MaxAttempts, err)

		if status != 0 && !isRetryableStatus(status) {
			break
		}

		if ctx.Err() != nil {
			break
		}

		d.log.Warn("Download attempt failed", "url", url, "attempt", attempt, "status", lastStatus, "error", err)
	}

	return nil, lastErr
}

// get performs a single request. status is 0 when no response was received.
func (d *Downloader) get(ctx context.Context, url string) (body []byte, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/csv,application/octet-stream;q=0.9,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// Read one byte past the limit to tell "exactly at the limit" from "over it".
	body, err = io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > d.maxBytes {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d MB", ErrTooLarge, d.maxBytes/(1024*1024))
	}

	return body, resp.StatusCode, nil
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus reports whether a status code indicates a temporary failure.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable, // 503
		http.StatusGatewayTimeout,  // 504
		http.StatusBadGateway,      // 502
		http.StatusTooManyRequests, // 429
		http.StatusRequestTimeout:  // 408
		return true
	}

	return false
}
