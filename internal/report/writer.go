package report

import (
	"cmp"
	"io"
	"slices"
	"time"

	"github.com/nao1215/onionsearch/internal/model"
	"github.com/nao1215/onionsearch/internal/risk"
)

// SearchReport is the outcome of one query.
type SearchReport struct {
	// Query is the raw query string as typed by the user.
	Query string

	// Model is the retrieval model that produced Results.
	Model model.Model

	// Results are ordered best first. Scores are nil for boolean queries.
	Results []model.Result

	// GeneratedAt is when the query ran.
	GeneratedAt time.Time
}

// AssessmentReport is the outcome of a risk assessment run.
type AssessmentReport struct {
	// Pages are the assessed pages, highest score first.
	Pages []risk.PageResult

	// GeneratedAt is when the assessment ran.
	GeneratedAt time.Time
}

// Writer defines the interface for report output.
type Writer interface {
	// WriteSearch outputs search results.
	// Returns the number of bytes written and any error encountered.
	WriteSearch(report *SearchReport) (int, error)

	// WriteAssessment outputs risk assessment results.
	WriteAssessment(report *AssessmentReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSearch outputs the search report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteSearch(report *SearchReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSearch(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAssessment outputs the assessment to all configured Writers.
func (m *MultiWriter) WriteAssessment(report *AssessmentReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAssessment(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sortedCategories returns category names by share, largest first.
// Equal shares are ordered by name.
func sortedCategories(categories map[string]float64) []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(categories[b], categories[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
