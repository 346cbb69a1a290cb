package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/onionsearch/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConcurrency is returned when the engine is configured with fewer
// than one worker.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// ErrInvalidMaxDepth is returned when the maximum depth is negative.
var ErrInvalidMaxDepth = errors.New("max depth must not be negative")

const (
	// DefaultMaxDepth is the number of levels crawled when not configured.
	// Depth 0 holds the seeds, so 2 means seeds plus the pages they link to.
	DefaultMaxDepth = 2

	// DefaultConcurrency is the number of fetches in flight when not configured.
	DefaultConcurrency = 5
)

// Session is one unit of work against the page store. Each crawl task opens
// its own Session and closes it when finished.
type Session interface {
	// PageExists reports whether a page with the exact URL is stored.
	PageExists(ctx context.Context, url string) (bool, error)

	// SavePage stores a page. Saving an existing URL is a no-op.
	SavePage(ctx context.Context, url, title, content string, statusCode int) error

	// SaveLink records an edge. It is a no-op unless both pages exist.
	SaveLink(ctx context.Context, fromURL, toURL string) error

	// Close releases the session.
	Close() error
}

// SessionOpener opens a new Session.
type SessionOpener func(ctx context.Context) (Session, error)

// Stats summarizes a crawl run.
type Stats struct {
	// Levels is the number of depth levels that were dispatched.
	Levels int `json:"levels"`

	// Attempted counts URLs that were fetched.
	Attempted int `json:"attempted"`

	// Saved counts pages stored with status 200.
	Saved int `json:"saved"`

	// Failed counts transport errors, non-200 responses and store errors.
	Failed int `json:"failed"`

	// Skipped counts URLs that were already visited or already stored.
	Skipped int `json:"skipped"`

	// Discovered counts distinct URLs staged for a following level. URLs
	// already visited or dispatched in the current level are not counted.
	Discovered int `json:"discovered"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Engine performs a level-synchronous breadth-first crawl.
//
// The frontier is held as three sets: visited, the current level and the
// staged next level. A URL is fetched at most once per run. A pool of
// concurrency workers is started once per Run, so the bound on in-flight
// fetches holds across the whole run, and a per-level barrier keeps depth
// levels from overlapping.
//
// An Engine must not be used by more than one Run at a time.
type Engine struct {
	fetcher     PageFetcher
	open        SessionOpener
	maxDepth    int
	concurrency int
	progress    Progress
	logger      *slog.Logger

	// mu guards visited, current and next. Membership checks and inserts
	// happen under the same critical section.
	mu        sync.Mutex
	visited   map[string]struct{}
	current   map[string]struct{}
	next      map[string]struct{}
	nextOrder []string

	attempted  atomic.Int64
	saved      atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	discovered atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDepth sets the number of depth levels to crawl.
// 1 crawls only the seeds; 0 crawls nothing.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithConcurrency sets the number of workers.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithProgress sets the progress observer.
func WithProgress(p Progress) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.progress = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine that fetches with fetcher and persists through
// sessions opened by open.
func NewEngine(fetcher PageFetcher, open SessionOpener, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:     fetcher,
		open:        open,
		maxDepth:    DefaultMaxDepth,
		concurrency: DefaultConcurrency,
		progress:    NopProgress{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// job is one URL dispatched to a worker, tied to its level barrier.
type job struct {
	url  string
	done *sync.WaitGroup
}

// Run crawls from seeds until maxDepth levels are done or a level has nothing
// left to visit. Failures of individual URLs are logged and never stop the
// run. Cancelling ctx stops dispatching; in-flight fetches observe ctx and
// Run returns the partial stats together with ctx.Err().
func (e *Engine) Run(ctx context.Context, seeds []string) (Stats, error) {
	if e.concurrency < 1 {
		return Stats{}, ErrInvalidConcurrency
	}
	if e.maxDepth < 0 {
		return Stats{}, ErrInvalidMaxDepth
	}

	e.reset()
	start := time.Now()

	jobs := make(chan job, e.concurrency)

	// Workers never return an error: a failed URL must not cancel siblings.
	var g errgroup.Group
	for range e.concurrency {
		g.Go(func() error {
			for j := range jobs {
				e.process(ctx, j.url)
				j.done.Done()
			}
			return nil
		})
	}

	levels := 0
	current := uniqueStrings(seeds)

levelLoop:
	for depth := 0; depth < e.maxDepth; depth++ {
		if ctx.Err() != nil {
			break
		}

		toVisit := e.unvisited(current)
		if len(toVisit) == 0 {
			break
		}

		levels++
		e.logger.Info("crawling level", "depth", depth, "urls", len(toVisit))
		e.progress.StartLevel(depth, len(toVisit))

		var wg sync.WaitGroup
		for _, u := range toVisit {
			wg.Add(1)
			select {
			case jobs <- job{url: u, done: &wg}:
			case <-ctx.Done():
				wg.Done()
				wg.Wait()
				e.progress.EndLevel()
				break levelLoop
			}
		}
		wg.Wait()
		e.progress.EndLevel()

		current = e.takeNext()
	}

	close(jobs)
	_ = g.Wait() //nolint:errcheck // workers always return nil

	stats := Stats{
		Levels:     levels,
		Attempted:  int(e.attempted.Load()),
		Saved:      int(e.saved.Load()),
		Failed:     int(e.failed.Load()),
		Skipped:    int(e.skipped.Load()),
		Discovered: int(e.discovered.Load()),
		Elapsed:    time.Since(start),
	}

	e.logger.Info("crawl finished",
		"levels", stats.Levels,
		"saved", stats.Saved,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed,
	)

	return stats, ctx.Err()
}

// process runs the crawl task for a single URL.
func (e *Engine) process(ctx context.Context, pageURL string) {
	defer e.progress.Advance()

	if e.isVisited(pageURL) {
		e.skipped.Add(1)
		return
	}
	defer e.markVisited(pageURL)

	sess, err := e.open(ctx)
	if err != nil {
		e.failed.Add(1)
		e.logger.Warn("failed to open store session", "url", pageURL, "error", err)
		return
	}
	defer func() {
		if err := sess.Close(); err != nil {
			e.logger.Debug("failed to close store session", "error", err)
		}
	}()

	exists, err := sess.PageExists(ctx, pageURL)
	if err != nil {
		e.failed.Add(1)
		e.logger.Warn("failed to check page", "url", pageURL, "error", err)
		return
	}
	if exists {
		e.skipped.Add(1)
		return
	}

	e.attempted.Add(1)
	resp, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		e.failed.Add(1)
		e.logger.Warn("error fetching page", "url", pageURL, "error", err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		e.failed.Add(1)
		e.logger.Debug("unexpected status", "url", pageURL, "status", resp.StatusCode)
		return
	}

	parsed := ParseDocument(resp.Body)
	page := &model.Page{
		URL:        pageURL,
		Title:      parsed.Title,
		Content:    parsed.Text,
		StatusCode: resp.StatusCode,
	}
	page.TruncateContent()

	if err := sess.SavePage(ctx, page.URL, page.Title, page.Content, page.StatusCode); err != nil {
		e.failed.Add(1)
		e.logger.Warn("failed to save page", "url", pageURL, "error", err)
		return
	}
	e.saved.Add(1)

	for _, link := range ExtractLinks(resp.Body) {
		if err := sess.SaveLink(ctx, pageURL, link); err != nil {
			e.logger.Debug("failed to save link", "from", pageURL, "to", link, "error", err)
		}
		if e.stage(link) {
			e.discovered.Add(1)
			e.progress.Grow(1)
		}
	}
}

// reset clears the frontier and counters for a new run.
func (e *Engine) reset() {
	e.mu.Lock()
	e.visited = make(map[string]struct{})
	e.current = make(map[string]struct{})
	e.next = make(map[string]struct{})
	e.nextOrder = nil
	e.mu.Unlock()

	e.attempted.Store(0)
	e.saved.Store(0)
	e.failed.Store(0)
	e.skipped.Store(0)
	e.discovered.Store(0)
}

func (e *Engine) isVisited(u string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.visited[u]
	return ok
}

func (e *Engine) markVisited(u string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visited[u] = struct{}{}
}

// unvisited returns the URLs of level that are not visited, in order, and
// records them as the level being dispatched.
func (e *Engine) unvisited(level []string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(level))
	e.current = make(map[string]struct{}, len(level))
	for _, u := range level {
		if _, ok := e.visited[u]; !ok {
			out = append(out, u)
			e.current[u] = struct{}{}
		}
	}
	return out
}

// stage adds u to the next level unless it is visited, part of the level in
// flight, or already staged. It reports whether u was added.
func (e *Engine) stage(u string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.visited[u]; ok {
		return false
	}
	if _, ok := e.current[u]; ok {
		return false
	}
	if _, ok := e.next[u]; ok {
		return false
	}
	e.next[u] = struct{}{}
	e.nextOrder = append(e.nextOrder, u)
	return true
}

// takeNext returns the staged level in staging order and clears it.
func (e *Engine) takeNext() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	level := e.nextOrder
	e.next = make(map[string]struct{})
	e.nextOrder = nil
	return level
}

// uniqueStrings removes duplicates, keeping first occurrences.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
