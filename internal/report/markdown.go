package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// HighRiskScore is the score at or above which a page is called out.
const HighRiskScore = 0.5

// MarkdownWriter outputs reports in Markdown format for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSearch outputs the query summary and a results table.
func (w *MarkdownWriter) WriteSearch(report *SearchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Search Results")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + report.Query + "`"},
			{"Model", report.Model.String()},
			{"Date", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Results", strconv.Itoa(len(report.Results))},
		},
	})
	md.PlainText("")

	if len(report.Results) == 0 {
		md.Note("No results found.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	header := []string{"#", "Title", "URL"}
	if report.Model.Ranked() {
		header = append(header, "Score")
	}

	rows := make([][]string, 0, len(report.Results))
	for i, r := range report.Results {
		row := []string{
			strconv.Itoa(i + 1),
			truncateString(r.Page.DisplayTitle(), 60),
			"`" + r.Page.URL + "`",
		}
		if report.Model.Ranked() {
			score := "-"
			if r.Score != nil {
				score = fmt.Sprintf("%.4f", *r.Score)
			}
			row = append(row, score)
		}
		rows = append(rows, row)
	}

	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAssessment outputs a per-page risk table, a chart of top categories
// and an alert when any page reaches HighRiskScore.
func (w *MarkdownWriter) WriteAssessment(report *AssessmentReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Risk Assessment")
	md.PlainText("")
	md.PlainTextf("Assessed %d page(s) on %s.", len(report.Pages),
		report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.Note("No pages to assess.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	w.writeAlert(md, report)

	rows := make([][]string, 0, len(report.Pages))
	for _, pr := range report.Pages {
		top := pr.Result.TopCategory()
		if top == "" {
			top = "-"
		}
		rows = append(rows, []string{
			truncateString(pr.Page.DisplayTitle(), 50),
			"`" + pr.Page.URL + "`",
			fmt.Sprintf("%.4f", pr.Result.Score),
			top,
		})
	}
	md.H2("Pages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Title", "URL", "Score", "Top Category"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeAlert writes a warning for high-risk pages, or a tip when none match.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *AssessmentReport) {
	high, matched := 0, 0
	for _, pr := range report.Pages {
		if pr.Result.Score >= HighRiskScore {
			high++
		}
		if pr.Result.Score > 0 {
			matched++
		}
	}

	switch {
	case high > 0:
		md.Warningf("%d page(s) scored at or above %.2f.", high, HighRiskScore)
	case matched > 0:
		md.Importantf("%d page(s) matched risk keywords.", matched)
	default:
		md.Tip("No risk keywords matched.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of pages per top category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *AssessmentReport) {
	counts := make(map[string]float64)
	for _, pr := range report.Pages {
		if top := pr.Result.TopCategory(); top != "" {
			counts[top]++
		}
	}
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Top Category Distribution"),
		piechart.WithShowData(true),
	)
	for _, name := range sortedCategories(counts) {
		chart.LabelAndIntValue(name, uint64(counts[name]))
	}

	md.H2("Categories")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [onionsearch](https://github.com/nao1215/onionsearch)*")
}
