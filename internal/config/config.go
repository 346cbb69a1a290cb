package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/onionsearch/internal/risk"
	"github.com/nao1215/onionsearch/internal/text"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "onionsearch"

	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultMaxDepth is the number of depth levels crawled.
	DefaultMaxDepth = 2

	// DefaultConcurrency is the number of fetches in flight during a crawl.
	DefaultConcurrency = 5

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 20 * time.Second

	// DefaultCrawlDelay is the minimum spacing between fetch starts. Zero disables it.
	DefaultCrawlDelay = time.Duration(0)

	// DefaultUserAgent is sent with every crawl request.
	DefaultUserAgent = "DarkWebCrawler/1.0"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024 // 10MB

	// DefaultSeedEngine is the onion search engine used for seed discovery.
	DefaultSeedEngine = "http://juhanurmihxlp77nkq76byazcldy2hlmovfu2epvl5ankdibsot4csyd.onion/"

	// DefaultSeedTimeout bounds a seed discovery request.
	DefaultSeedTimeout = 30 * time.Second

	// DefaultBM25K1 and DefaultBM25B are the Okapi BM25 parameters.
	DefaultBM25K1 = 1.5
	DefaultBM25B  = 0.75

	// DefaultSearchLimit is the number of results printed by search.
	DefaultSearchLimit = 5

	// DefaultAssessTop is the number of recent pages assessed by assess.
	DefaultAssessTop = 5

	// indexDirName is the artifact directory below the data directory.
	indexDirName = "indices"
)

// Config holds all configuration options for onionsearch.
// It is populated by NewConfig, the YAML file and CLI flags, then passed
// down by dependency injection.
type Config struct {
	// TorProxyAddress is the Tor SOCKS5 proxy in "host:port" form.
	// Only used when UseExternalTor is true.
	TorProxyAddress string

	// UseExternalTor disables the embedded Tor daemon.
	UseExternalTor bool

	// TorStartupTimeout bounds the embedded daemon's bootstrap.
	TorStartupTimeout time.Duration

	// MaxDepth is the number of depth levels crawled. 1 fetches only the
	// seeds, 2 also fetches the pages they link to.
	MaxDepth int

	// Concurrency is the hard bound on in-flight fetches.
	Concurrency int

	// Timeout bounds a single fetch including redirects and body read.
	Timeout time.Duration

	// CrawlDelay is the minimum spacing between fetch starts.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with crawl requests.
	UserAgent string

	// MaxBodySize caps how many bytes of a response body are read.
	MaxBodySize int64

	// SeedEngine is the onion search engine queried by `crawl --query`.
	SeedEngine string

	// SeedTimeout bounds the seed discovery request.
	SeedTimeout time.Duration

	// DataDir holds the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/onionsearch on Linux).
	DataDir string

	// IndexDir holds the index artifacts. Empty means DataDir/indices.
	IndexDir string

	// Tokenizer selects the normalization steps applied to documents and queries.
	Tokenizer text.Options

	// BM25K1 and BM25B are used when the BM25 artifact is built.
	BM25K1 float64
	BM25B  float64

	// SearchLimit is the number of results printed by search.
	SearchLimit int

	// AssessTop is the number of recently visited pages assessed.
	AssessTop int

	// RiskCategories are the keyword sets used by assess.
	RiskCategories []risk.Category

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit YAML file. Empty searches the default locations.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
		MaxDepth:          DefaultMaxDepth,
		Concurrency:       DefaultConcurrency,
		Timeout:           DefaultTimeout,
		CrawlDelay:        DefaultCrawlDelay,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		SeedEngine:        DefaultSeedEngine,
		SeedTimeout:       DefaultSeedTimeout,
		DataDir:           XDGDataDir(),
		Tokenizer:         text.DefaultOptions(),
		BM25K1:            DefaultBM25K1,
		BM25B:             DefaultBM25B,
		SearchLimit:       DefaultSearchLimit,
		AssessTop:         DefaultAssessTop,
		RiskCategories:    risk.DefaultCategories(),
	}
}

// XDGDataDir returns the XDG data directory for onionsearch.
// On Linux: ~/.local/share/onionsearch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for onionsearch.
// On Linux: ~/.config/onionsearch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// IndexPath returns the directory holding the index artifacts.
func (c *Config) IndexPath() string {
	if c.IndexDir != "" {
		return c.IndexDir
	}
	return filepath.Join(c.DataDir, indexDirName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if !c.UseExternalTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTorTimeout
	}
	if c.UseExternalTor && c.TorProxyAddress == "" {
		return ErrEmptyProxyAddress
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.BM25K1 < 0 || c.BM25B < 0 || c.BM25B > 1 {
		return ErrInvalidBM25Params
	}
	if c.SearchLimit <= 0 || c.AssessTop <= 0 {
		return ErrInvalidLimit
	}
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
