// Package config provides configuration management for the school data pipelines.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvRawDir       = "SCHOOLDATA_RAW_DIR"
	EnvProcessedDir = "SCHOOLDATA_PROCESSED_DIR"
	EnvLogLevel     = "SCHOOLDATA_LOG_LEVEL"
	EnvDatabaseURL  = "DATABASE_URL"
)

// Configuration validation errors.
var (
	ErrMissingRawDir            = errors.New("paths.raw_dir is required")
	ErrMissingProcessedDir      = errors.New("paths.processed_dir is required")
	ErrMissingInput             = errors.New("input file name is required")
	ErrMissingOutput            = errors.New("output file name is required")
	ErrInvalidPattern           = errors.New("input pattern must contain exactly one %d")
	ErrNoYears                  = errors.New("at least one year is required")
	ErrDuplicateYear            = errors.New("year listed more than once")
	ErrNoPhases                 = errors.New("schools.phases must not be empty")
	ErrInvalidAgeDefaults       = errors.New("schools age defaults must satisfy 0 <= low <= high")
	ErrInvalidPriceRange        = errors.New("prices.min_price must be positive and below prices.max_price")
	ErrInvalidMinSales          = errors.New("prices.min_sales must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidMaxAttempts       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetch.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.retry.timeout_sec must be at least 1")
	ErrSourceMissingURL         = errors.New("fetch source url is required")
	ErrSourceMissingFile        = errors.New("fetch source file is required")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Schools    SchoolsConfig    `yaml:"schools"`
	Results    ResultsConfig    `yaml:"results"`
	Admissions AdmissionsConfig `yaml:"admissions"`
	Prices     PricesConfig     `yaml:"prices"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
}

// PathsConfig locates raw inputs and processed outputs.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir"`
}

// SchoolsConfig configures the establishment registry pipeline.
type SchoolsConfig struct {
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Phases         []string `yaml:"phases"`
	DefaultAgeLow  int      `yaml:"default_age_low"`
	DefaultAgeHigh int      `yaml:"default_age_high"`
}

// ResultsConfig holds both performance table variants.
type ResultsConfig struct {
	KS2 VariantConfig `yaml:"ks2"`
	KS4 VariantConfig `yaml:"ks4"`
}

// VariantConfig configures one results variant.
// Years is iterated in order and that order is preserved in the output.
type VariantConfig struct {
	InputPattern string `yaml:"input_pattern"`
	Output       string `yaml:"output"`
	Years        []int  `yaml:"years"`
}

// AdmissionsConfig configures the council admissions pipeline.
type AdmissionsConfig struct {
	Input   string `yaml:"input"`
	Example string `yaml:"example"`
	Output  string `yaml:"output"`
}

// PricesConfig configures the price-paid pipeline.
type PricesConfig struct {
	InputPattern string `yaml:"input_pattern"`
	Output       string `yaml:"output"`
	Years        []int  `yaml:"years"`
	MinPrice     int    `yaml:"min_price"`
	MaxPrice     int    `yaml:"max_price"`
	MinSales     int    `yaml:"min_sales"`
}

// FetchConfig lists raw files to download before a run.
type FetchConfig struct {
	Sources      []SourceConfig `yaml:"sources"`
	Retry        RetryPolicy    `yaml:"retry"`
	MaxSizeMb    int            `yaml:"max_size_mb"`
	UserAgent    string         `yaml:"user_agent"`
	SkipExisting bool           `yaml:"skip_existing"`
}

// SourceConfig is one downloadable raw file.
type SourceConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	File    string `yaml:"file"`
	Enabled bool   `yaml:"enabled"`
}

// RetryPolicy defines retry behavior for downloads.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig configures the publish step. The DSN normally comes from DATABASE_URL.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"`
	BatchSize   int    `yaml:"batch_size"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			RawDir:       "./data/raw",
			ProcessedDir: "./data/processed",
		},
		Schools: SchoolsConfig{
			Input:          "establishments.csv",
			Output:         "schools.json",
			Phases:         []string{"Primary", "Secondary", "All-through", "16 plus"},
			DefaultAgeLow:  4,
			DefaultAgeHigh: 18,
		},
		Results: ResultsConfig{
			// 2020 and 2021 were not published.
			KS2: VariantConfig{InputPattern: "ks2_%d.csv", Output: "ks2_results.json", Years: []int{2023, 2022, 2019}},
			KS4: VariantConfig{InputPattern: "ks4_%d.csv", Output: "ks4_results.json", Years: []int{2023, 2022, 2019}},
		},
		Admissions: AdmissionsConfig{
			Input:   "admissions.csv",
			Example: "admissions_example.csv",
			Output:  "admissions.json",
		},
		Prices: PricesConfig{
			InputPattern: "pp-%d.csv",
			Output:       "prices_by_postcode.json",
			Years:        []int{2024, 2023, 2022, 2021, 2020},
			MinPrice:     10000,
			MaxPrice:     50000000,
			MinSales:     3,
		},
		Fetch: FetchConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        300,
			},
			MaxSizeMb:    512,
			UserAgent:    "schooldata-fetch/1.0",
			SkipExisting: true,
		},
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{BatchSize: 500},
	}
}

// DefaultPath is the config file the commands use when -config is not given.
const DefaultPath = "configs/pipeline.yaml"

// Resolve returns path, or DefaultPath when path is empty and that file exists.
// An empty result means defaults plus environment.
func Resolve(path string) string {
	if path != "" {
		return path
	}

	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}

	return ""
}

// LoadConfig overlays the YAML file at path (if non-empty) and the environment onto the defaults.
// A .env file in the working directory is honoured when present.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRawDir); v != "" {
		c.Paths.RawDir = v
	}

	if v := os.Getenv(EnvProcessedDir); v != "" {
		c.Paths.ProcessedDir = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Store.DatabaseURL = v
	}
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Paths.RawDir == "" {
		return ErrMissingRawDir
	}

	if c.Paths.ProcessedDir == "" {
		return ErrMissingProcessedDir
	}

	if c.Schools.Input == "" || c.Admissions.Input == "" {
		return ErrMissingInput
	}

	if c.Schools.Output == "" || c.Admissions.Output == "" || c.Prices.Output == "" {
		return ErrMissingOutput
	}

	if len(c.Schools.Phases) == 0 {
		return ErrNoPhases
	}

	if c.Schools.DefaultAgeLow < 0 || c.Schools.DefaultAgeLow > c.Schools.DefaultAgeHigh {
		return ErrInvalidAgeDefaults
	}

	variants := map[string]VariantConfig{"ks2": c.Results.KS2, "ks4": c.Results.KS4}
	for name, v := range variants {
		if v.Output == "" {
			return fmt.Errorf("%w: results.%s", ErrMissingOutput, name)
		}

		if err := validateYearFiles(v.InputPattern, v.Years); err != nil {
			return fmt.Errorf("results.%s: %w", name, err)
		}
	}

	if err := validateYearFiles(c.Prices.InputPattern, c.Prices.Years); err != nil {
		return fmt.Errorf("prices: %w", err)
	}

	if c.Prices.MinPrice <= 0 || c.Prices.MinPrice >= c.Prices.MaxPrice {
		return ErrInvalidPriceRange
	}

	if c.Prices.MinSales < 1 {
		return ErrInvalidMinSales
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return c.Fetch.validate()
}

func (f *FetchConfig) validate() error {
	for i, src := range f.Sources {
		if src.URL == "" {
			return fmt.Errorf("%w: fetch.sources[%d]", ErrSourceMissingURL, i)
		}

		if src.File == "" {
			return fmt.Errorf("%w: fetch.sources[%d]", ErrSourceMissingFile, i)
		}
	}

	if f.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if f.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if f.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if f.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

func validateYearFiles(pattern string, years []int) error {
	if strings.Count(pattern, "%d") != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	if len(years) == 0 {
		return ErrNoYears
	}

	seen := make(map[int]bool, len(years))
	for _, y := range years {
		if seen[y] {
			return fmt.Errorf("%w: %d", ErrDuplicateYear, y)
		}

		seen[y] = true
	}

	return nil
}

// Descending reports whether years is sorted newest first.
// Downstream "latest result" lookups assume it is.
func (v VariantConfig) Descending() bool {
	return slices.IsSortedFunc(v.Years, func(a, b int) int { return b - a })
}

// RawPath resolves a raw input file name.
func (c *Config) RawPath(name string) string {
	return filepath.Join(c.Paths.RawDir, name)
}

// ProcessedPath resolves a processed output file name.
func (c *Config) ProcessedPath(name string) string {
	return filepath.Join(c.Paths.ProcessedDir, name)
}

// YearPath resolves the raw file for one year of a yearly pattern.
func (c *Config) YearPath(pattern string, year int) string {
	return c.RawPath(strings.Replace(pattern, "%d", strconv.Itoa(year), 1))
}

// EnabledSources returns only enabled fetch sources.
func (f *FetchConfig) EnabledSources() []SourceConfig {
	var enabled []SourceConfig

	for _, src := range f.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	return enabled
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Raw: %s, Processed: %s, KS2Years: %v, KS4Years: %v, PriceYears: %v}",
		c.Paths.RawDir,
		c.Paths.ProcessedDir,
		c.Results.KS2.Years,
		c.Results.KS4.Years,
		c.Prices.Years,
	)
}
