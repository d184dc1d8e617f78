// Package report writes LinkFinder test reports.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: JSON for other tools
//   - MarkdownWriter: Markdown with a mermaid chart, for sharing
//
// TestTable and ResultTable render stored tests and paginated results as
// terminal tables.
package report
