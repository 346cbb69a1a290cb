package config

import (
	"time"

	"github.com/nao1215/onionsearch/internal/risk"
)

// File represents the structure of the .onionsearch YAML file.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	Tor       TorSection       `yaml:"tor,omitempty"`
	Crawl     CrawlSection     `yaml:"crawl,omitempty"`
	Seed      SeedSection      `yaml:"seed,omitempty"`
	Storage   StorageSection   `yaml:"storage,omitempty"`
	Tokenizer TokenizerSection `yaml:"tokenizer,omitempty"`
	Search    SearchSection    `yaml:"search,omitempty"`
	Risk      RiskSection      `yaml:"risk,omitempty"`
}

// TorSection configures Tor access.
type TorSection struct {
	Proxy          string         `yaml:"proxy,omitempty"`
	External       *bool          `yaml:"external,omitempty"`
	StartupTimeout *time.Duration `yaml:"startup_timeout,omitempty"`
}

// CrawlSection configures the crawl engine and fetcher.
type CrawlSection struct {
	MaxDepth    *int           `yaml:"max_depth,omitempty"`
	Concurrency *int           `yaml:"concurrency,omitempty"`
	Timeout     *time.Duration `yaml:"timeout,omitempty"`
	Delay       *time.Duration `yaml:"delay,omitempty"`
	UserAgent   string         `yaml:"user_agent,omitempty"`
	MaxBodySize *int64         `yaml:"max_body_size,omitempty"`
}

// SeedSection configures seed discovery.
type SeedSection struct {
	Engine  string         `yaml:"engine,omitempty"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// StorageSection configures where the database and indices live.
type StorageSection struct {
	DataDir  string `yaml:"data_dir,omitempty"`
	IndexDir string `yaml:"index_dir,omitempty"`
}

// TokenizerSection toggles individual normalization steps.
type TokenizerSection struct {
	Lowercase        *bool `yaml:"lowercase,omitempty"`
	StripPunctuation *bool `yaml:"strip_punctuation,omitempty"`
	RemoveStopwords  *bool `yaml:"remove_stopwords,omitempty"`
	Lemmatize        *bool `yaml:"lemmatize,omitempty"`
}

// SearchSection configures ranking and result counts.
type SearchSection struct {
	K1        *float64 `yaml:"k1,omitempty"`
	B         *float64 `yaml:"b,omitempty"`
	Limit     *int     `yaml:"limit,omitempty"`
	AssessTop *int     `yaml:"assess_top,omitempty"`
}

// RiskSection replaces the built-in risk categories when non-empty.
type RiskSection struct {
	Categories []risk.Category `yaml:"categories,omitempty"`
}

// Apply copies every set field of f into c.
func (f *File) Apply(c *Config) {
	setString(&c.TorProxyAddress, f.Tor.Proxy)
	setPtr(&c.UseExternalTor, f.Tor.External)
	setPtr(&c.TorStartupTimeout, f.Tor.StartupTimeout)

	setPtr(&c.MaxDepth, f.Crawl.MaxDepth)
	setPtr(&c.Concurrency, f.Crawl.Concurrency)
	setPtr(&c.Timeout, f.Crawl.Timeout)
	setPtr(&c.CrawlDelay, f.Crawl.Delay)
	setString(&c.UserAgent, f.Crawl.UserAgent)
	setPtr(&c.MaxBodySize, f.Crawl.MaxBodySize)

	setString(&c.SeedEngine, f.Seed.Engine)
	setPtr(&c.SeedTimeout, f.Seed.Timeout)

	setString(&c.DataDir, f.Storage.DataDir)
	setString(&c.IndexDir, f.Storage.IndexDir)

	setPtr(&c.Tokenizer.Lowercase, f.Tokenizer.Lowercase)
	setPtr(&c.Tokenizer.StripPunctuation, f.Tokenizer.StripPunctuation)
	setPtr(&c.Tokenizer.RemoveStopwords, f.Tokenizer.RemoveStopwords)
	setPtr(&c.Tokenizer.Lemmatize, f.Tokenizer.Lemmatize)

	setPtr(&c.BM25K1, f.Search.K1)
	setPtr(&c.BM25B, f.Search.B)
	setPtr(&c.SearchLimit, f.Search.Limit)
	setPtr(&c.AssessTop, f.Search.AssessTop)

	if len(f.Risk.Categories) > 0 {
		c.RiskCategories = f.Risk.Categories
	}
}

func setPtr[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
