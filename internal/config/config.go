// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration shared by the server and the tools.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// DataDir is the root of the dataset files when Source is "fs".
	DataDir string `koanf:"data_dir" validate:"required_if=Source fs"`

	// Source selects where datasets are read from: fs or s3.
	Source string `koanf:"source" validate:"oneof=fs s3"`

	// S3 settings, used when Source is "s3".
	S3Bucket string `koanf:"s3_bucket" validate:"required_if=Source s3"`
	S3Region string `koanf:"s3_region" validate:"required_if=Source s3"`
	S3Prefix string `koanf:"s3_prefix"`

	// LookupConcurrency bounds how many contests one query evaluates at once.
	LookupConcurrency int `koanf:"lookup_concurrency" validate:"min=1,max=256"`

	// CacheTTLSeconds is how long a loaded dataset stays in memory.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds" validate:"min=0"`

	// CacheCleanupSeconds is how often expired datasets are purged.
	CacheCleanupSeconds int `koanf:"cache_cleanup_seconds" validate:"min=0"`

	// AllowedOrigins lists the origins allowed by CORS.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// RequestTimeoutSeconds caps a single HTTP request.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds" validate:"min=1"`

	// Data collector settings. URL templates use {contest_id} as placeholder.
	FetchContestsURL    string `koanf:"fetch_contests_url" validate:"url"`
	FetchResultsURL     string `koanf:"fetch_results_url" validate:"required,contains={contest_id}"`
	FetchExtendedURL    string `koanf:"fetch_extended_url" validate:"required,contains={contest_id}"`
	FetchHomeURL        string `koanf:"fetch_home_url" validate:"url"`
	FetchSessionFile    string `koanf:"fetch_session_file"`
	FetchIntervalMS     int    `koanf:"fetch_interval_ms" validate:"min=0"`
	FetchTimeoutSeconds int    `koanf:"fetch_timeout_seconds" validate:"min=1"`
	FetchWorkers        int    `koanf:"fetch_workers" validate:"min=1,max=16"`
	FetchQueueSize      int    `koanf:"fetch_queue_size" validate:"min=1"`
	FetchCompress       bool   `koanf:"fetch_compress"`
	FetchUserAgent      string `koanf:"fetch_user_agent"`
}

// MaxLookupConcurrency is the largest accepted lookup_concurrency.
const MaxLookupConcurrency = 256

// DefaultLookupConcurrency derives the default fan-out from a CPU count,
// kept within [1, MaxLookupConcurrency].
func DefaultLookupConcurrency(cpus int) int {
	return max(1, min(cpus, MaxLookupConcurrency))
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DataDir:               "data",
		Source:                "fs",
		LookupConcurrency:     DefaultLookupConcurrency(runtime.NumCPU()),
		CacheTTLSeconds:       300,
		CacheCleanupSeconds:   600,
		AllowedOrigins:        []string{"http://localhost:3000"},
		RequestTimeoutSeconds: 30,

		FetchContestsURL:    "https://kenkoooo.com/atcoder/resources/contests.json",
		FetchResultsURL:     "https://atcoder.jp/contests/{contest_id}/results/json",
		FetchExtendedURL:    "https://atcoder.jp/contests/{contest_id}/standings/extended/json?showAllUsers=true",
		FetchHomeURL:        "https://atcoder.jp/home",
		FetchSessionFile:    "session.json",
		FetchIntervalMS:     5000,
		FetchTimeoutSeconds: 30,
		FetchWorkers:        1,
		FetchQueueSize:      1024,
		FetchUserAgent:      "ahcview-fetch/1.0",
	}
}

// CacheTTL returns the dataset cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// CacheCleanup returns the dataset cache cleanup interval.
func (c *Config) CacheCleanup() time.Duration {
	return time.Duration(c.CacheCleanupSeconds) * time.Second
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// FetchInterval returns the minimum spacing between upstream requests.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalMS) * time.Millisecond
}

// FetchTimeout returns the upstream request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
