package crawler

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress observes the crawl one level at a time.
// Implementations must be safe for concurrent use: Grow and Advance are
// called from worker goroutines.
type Progress interface {
	// StartLevel is called before a level is dispatched with its URL count.
	StartLevel(depth, total int)

	// Grow adds n newly staged URLs to the running total.
	Grow(n int)

	// Advance marks one URL of the current level as finished.
	Advance()

	// EndLevel is called after the level barrier.
	EndLevel()
}

// NopProgress discards progress events.
type NopProgress struct{}

// StartLevel implements Progress.
func (NopProgress) StartLevel(int, int) {}

// Grow implements Progress.
func (NopProgress) Grow(int) {}

// Advance implements Progress.
func (NopProgress) Advance() {}

// EndLevel implements Progress.
func (NopProgress) EndLevel() {}

// LineProgress redraws a single status line per level on w:
//
//	Depth 0  3/12  00:41
type LineProgress struct {
	w     io.Writer
	mu    sync.Mutex
	depth int
	done  int
	total int
	start time.Time
	now   func() time.Time
}

// NewLineProgress creates a LineProgress writing to w, usually os.Stderr.
func NewLineProgress(w io.Writer) *LineProgress {
	return &LineProgress{w: w, now: time.Now}
}

// StartLevel implements Progress.
func (p *LineProgress) StartLevel(depth, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.depth = depth
	p.done = 0
	p.total = total
	p.start = p.now()
	p.draw()
}

// Grow implements Progress.
func (p *LineProgress) Grow(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += n
	p.draw()
}

// Advance implements Progress.
func (p *LineProgress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.draw()
}

// EndLevel implements Progress.
func (p *LineProgress) EndLevel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw()
	_, _ = fmt.Fprintln(p.w)
}

// draw must be called with p.mu held.
func (p *LineProgress) draw() {
	elapsed := p.now().Sub(p.start).Truncate(time.Second)
	mins := int(elapsed / time.Minute)
	secs := int((elapsed % time.Minute) / time.Second)
	_, _ = fmt.Fprintf(p.w, "\rDepth %d  %d/%d  %02d:%02d", p.depth, p.done, p.total, mins, secs)
}
