// Package report renders search results and risk assessments.
//
// Three formats are provided:
//   - SimpleWriter: one line per result for terminal display
//   - JSONWriter: structured output for other tools
//   - MarkdownWriter: tables for sharing, with a category chart for assessments
//
// All writers implement Writer and can be combined with MultiWriter.
package report
