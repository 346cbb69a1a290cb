package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultEngine is the onion search engine queried for seeds.
	DefaultEngine = "http://juhanurmihxlp77nkq76byazcldy2hlmovfu2epvl5ankdibsot4csyd.onion/"

	// DefaultTimeout bounds the search request.
	DefaultTimeout = 30 * time.Second

	// defaultUserAgent mimics Tor Browser; the engine rejects unknown agents.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; rv:102.0) Gecko/20100101 Firefox/102.0"

	maxResultPageSize = 5 * 1024 * 1024
)

// Discoverer queries a search engine for onion URLs.
type Discoverer struct {
	client  *http.Client
	engine  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithEngine sets the search engine base URL.
func WithEngine(engine string) Option {
	return func(d *Discoverer) {
		if engine != "" {
			d.engine = engine
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDiscoverer creates a Discoverer using client, which should route
// through Tor.
func NewDiscoverer(client *http.Client, opts ...Option) *Discoverer {
	d := &Discoverer{
		client:  client,
		engine:  DefaultEngine,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Discover searches for query and returns the onion URLs found on the result
// page, deduplicated in page order. Any failure is logged and yields an
// empty slice.
func (d *Discoverer) Discover(ctx context.Context, query string) []string {
	seeds, err := d.discover(ctx, query)
	if err != nil {
		d.logger.Warn("failed to get seeds from search engine", "query", query, "error", err)
		return []string{}
	}
	d.logger.Info("seeds discovered", "query", query, "count", len(seeds))
	return seeds
}

func (d *Discoverer) discover(ctx context.Context, query string) ([]string, error) {
	searchURL, err := d.searchURL(query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", d.engine)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResultPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	return ExtractSeeds(doc), nil
}

// searchURL builds <engine>/search/?q=<query>.
func (d *Discoverer) searchURL(query string) (string, error) {
	base, err := url.Parse(d.engine)
	if err != nil {
		return "", fmt.Errorf("invalid search engine URL: %w", err)
	}
	ref := &url.URL{Path: "search/", RawQuery: url.Values{"q": {query}}.Encode()}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref).String(), nil
}

// ExtractSeeds returns the redirect targets of a result page that point at
// onion services.
func ExtractSeeds(doc *goquery.Document) []string {
	seeds := make([]string, 0)
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/redirect?") || !strings.Contains(href, "redirect_url=") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		target := u.Query().Get("redirect_url")
		if target == "" || !strings.Contains(target, ".onion") {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		seeds = append(seeds, target)
	})

	return seeds
}
