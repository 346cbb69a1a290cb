package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultFetchTimeout bounds a single fetch, including redirects and body read.
	DefaultFetchTimeout = 20 * time.Second

	// DefaultUserAgent identifies the crawler to onion services.
	DefaultUserAgent = "DarkWebCrawler/1.0"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024 // 10MB
)

// Response is the outcome of a completed HTTP exchange.
// Any status code is a Response; only transport failures are errors.
type Response struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// Body is the response body, cut at the fetcher's size limit.
	Body string
}

// TransportError reports a fetch that did not produce an HTTP response:
// connection failure, timeout, too many redirects, or a broken body.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// PageFetcher retrieves a single URL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Fetcher performs single GET requests through an HTTP client that is
// expected to route over Tor. Redirects are the client's concern. Fetcher
// never retries.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	limiter     *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithDelay spaces request starts at least d apart across all workers.
// Zero disables the limiter.
func WithDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewFetcher creates a Fetcher around client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch issues a GET for rawURL. Every failure that prevents an HTTP
// response is returned as a *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Response{
		URL:        rawURL,
		FinalURL:   final,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}
