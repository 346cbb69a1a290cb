package report

import (
	"fmt"
	"io"
	"strings"
)

// snippetLen is the number of content runes shown in verbose mode.
const snippetLen = 160

// SimpleWriter outputs one line per result for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds a content snippet under each result.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables a content snippet under each result.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSearch prints each result as
//
//	• title (URL: url) [Score: 0.1234]
//
// The score is omitted for boolean queries.
func (w *SimpleWriter) WriteSearch(report *SearchReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Results for %q (%s):\n", report.Query, report.Model)
	if len(report.Results) == 0 {
		sb.WriteString("No results found.\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, r := range report.Results {
		fmt.Fprintf(&sb, "• %s (URL: %s)", r.Page.DisplayTitle(), r.Page.URL)
		if r.Score != nil {
			fmt.Fprintf(&sb, " [Score: %.4f]", *r.Score)
		}
		sb.WriteString("\n")
		w.writeSnippet(&sb, r.Page.Content)
	}

	return io.WriteString(w.output, sb.String())
}

// WriteAssessment prints the risk score and category shares of each page.
func (w *SimpleWriter) WriteAssessment(report *AssessmentReport) (int, error) {
	var sb strings.Builder

	if len(report.Pages) == 0 {
		sb.WriteString("No pages to assess.\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, pr := range report.Pages {
		fmt.Fprintf(&sb, "• %s (URL: %s)\n", pr.Page.DisplayTitle(), pr.Page.URL)
		fmt.Fprintf(&sb, "  Risk Score: %.4f\n", pr.Result.Score)

		top := pr.Result.TopCategory()
		if top == "" {
			sb.WriteString("  Categories: none\n")
			w.writeSnippet(&sb, pr.Page.Content)
			continue
		}

		fmt.Fprintf(&sb, "  Top Category: %s\n", top)
		parts := make([]string, 0, len(pr.Result.Categories))
		for _, name := range sortedCategories(pr.Result.Categories) {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", name, pr.Result.Categories[name]*100))
		}
		fmt.Fprintf(&sb, "  Categories: %s\n", strings.Join(parts, ", "))
		w.writeSnippet(&sb, pr.Page.Content)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeSnippet(sb *strings.Builder, content string) {
	if !w.verbose || content == "" {
		return
	}
	fmt.Fprintf(sb, "  %s\n", truncateString(content, snippetLen))
}
