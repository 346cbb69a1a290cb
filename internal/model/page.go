package model

import (
	"strings"
	"time"
)

// MaxContentSize is the maximum size of extracted page text kept in a Page.
const MaxContentSize = 512 * 1024 // 512 KB

// Page represents a fetched page. A Page is created once per unique URL on the
// first successful fetch and is never mutated afterwards.
type Page struct {
	// ID is the durable identifier assigned by the store.
	// It is also the document ID used by every index artifact.
	ID int64 `json:"id"`

	// URL is the absolute URL of the page. It is the unique key.
	URL string `json:"url"`

	// Title is the trimmed text of the <title> element, or empty.
	Title string `json:"title"`

	// Content is the whitespace-joined text of the page body.
	Content string `json:"content,omitempty"`

	// StatusCode is the HTTP status code of the fetch that created the page.
	StatusCode int `json:"status_code"`

	// VisitedAt is when the page was stored.
	VisitedAt time.Time `json:"visited_at"`
}

// DisplayTitle returns the title, or a placeholder when the page has none.
func (p *Page) DisplayTitle() string {
	if strings.TrimSpace(p.Title) == "" {
		return "No Title"
	}
	return p.Title
}

// Text returns the text indexed for the page: title and content joined by a space.
func (p *Page) Text() string {
	return p.Title + " " + p.Content
}

// TruncateContent ensures the content doesn't exceed MaxContentSize.
// The cut is moved back to a rune boundary so the result stays valid UTF-8.
func (p *Page) TruncateContent() {
	if len(p.Content) <= MaxContentSize {
		return
	}
	cut := MaxContentSize
	for cut > 0 && !isRuneStart(p.Content[cut]) {
		cut--
	}
	p.Content = p.Content[:cut]
}

// isRuneStart reports whether b can begin a UTF-8 encoded rune.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Link is a directed edge between two persisted pages.
type Link struct {
	// FromURL is the page the link was found on.
	FromURL string `json:"from_url"`

	// ToURL is the discovered target.
	ToURL string `json:"to_url"`
}

// Document is one entry of the corpus snapshot read by the index builder.
type Document struct {
	// ID is the Page ID.
	ID int64 `json:"id"`

	// Text is the raw text to index (title + " " + content).
	Text string `json:"text"`
}

// NewDocument builds the corpus entry for a page.
func NewDocument(p *Page) Document {
	return Document{ID: p.ID, Text: p.Text()}
}
