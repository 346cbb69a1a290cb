package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidConcurrency is returned when fewer than one worker is requested.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidTorTimeout is returned when the Tor startup timeout is not positive.
	ErrInvalidTorTimeout = errors.New("invalid tor startup timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrEmptyProxyAddress is returned when an external Tor proxy is used without an address.
	ErrEmptyProxyAddress = errors.New("tor proxy address is required when using external tor")

	// ErrInvalidBM25Params is returned when k1 is negative or b is outside [0, 1].
	ErrInvalidBM25Params = errors.New("invalid bm25 parameters: k1 must be >= 0 and b within [0, 1]")

	// ErrInvalidLimit is returned when a result limit is not positive.
	ErrInvalidLimit = errors.New("invalid limit: must be positive")

	// ErrEmptyDataDir is returned when no data directory is configured.
	ErrEmptyDataDir = errors.New("data directory must not be empty")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
