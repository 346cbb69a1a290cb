package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/onionsearch/internal/risk"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Page content is left out; results carry id, URL, title and score.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONSearch is the JSON document written for a query.
type JSONSearch struct {
	Query       string    `json:"query"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
	Results     []JSONHit `json:"results"`
}

// JSONHit is one search result without page content.
type JSONHit struct {
	Rank  int      `json:"rank"`
	ID    int64    `json:"id"`
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Score *float64 `json:"score,omitempty"`
}

// JSONAssessment is the JSON document written for a risk assessment.
type JSONAssessment struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Pages       []JSONPageResult `json:"pages"`
}

// JSONPageResult is the assessment of one page without its content.
type JSONPageResult struct {
	ID          int64              `json:"id"`
	URL         string             `json:"url"`
	Title       string             `json:"title"`
	VisitedAt   time.Time          `json:"visited_at"`
	Score       float64            `json:"score"`
	TopCategory string             `json:"top_category,omitempty"`
	Categories  map[string]float64 `json:"categories"`
}

// WriteSearch outputs the query and its results.
func (w *JSONWriter) WriteSearch(report *SearchReport) (int, error) {
	doc := JSONSearch{
		Query:       report.Query,
		Model:       report.Model.String(),
		GeneratedAt: report.GeneratedAt,
		Results:     make([]JSONHit, 0, len(report.Results)),
	}
	for i, r := range report.Results {
		doc.Results = append(doc.Results, JSONHit{
			Rank:  i + 1,
			ID:    r.Page.ID,
			URL:   r.Page.URL,
			Title: r.Page.Title,
			Score: r.Score,
		})
	}
	return w.writeJSON(doc)
}

// WriteAssessment outputs the per-page risk results.
func (w *JSONWriter) WriteAssessment(report *AssessmentReport) (int, error) {
	doc := JSONAssessment{
		GeneratedAt: report.GeneratedAt,
		Pages:       make([]JSONPageResult, 0, len(report.Pages)),
	}
	for _, pr := range report.Pages {
		doc.Pages = append(doc.Pages, newJSONPageResult(pr))
	}
	return w.writeJSON(doc)
}

func newJSONPageResult(pr risk.PageResult) JSONPageResult {
	categories := pr.Result.Categories
	if categories == nil {
		categories = map[string]float64{}
	}
	return JSONPageResult{
		ID:          pr.Page.ID,
		URL:         pr.Page.URL,
		Title:       pr.Page.Title,
		VisitedAt:   pr.Page.VisitedAt,
		Score:       pr.Result.Score,
		TopCategory: pr.Result.TopCategory(),
		Categories:  categories,
	}
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
