package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/linkfinder/internal/model"
)

// maxListedURLs caps each difference list in the Markdown report.
const maxListedURLs = 200

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.TestReport) (int, error) {
	summary := NewSummary(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeList(md, "Only in HTML", "Pages reachable by links but missing from the sitemap.", report.OnlyInHTML)
	w.writeList(md, "Only in Sitemap", "Sitemap entries that no link leads to.", report.OnlyInSitemap)
	w.writeResults(md, report.Results)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the counts in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("LinkFinder Report")
	md.PlainText("")

	rows := [][]string{
		{"Site", "`" + s.Site + "`"},
		{"Crawl Date", s.DateCrawled.Format("2006-01-02 15:04:05 MST")},
		{"Status", statusText(s)},
	}
	if s.TestID > 0 {
		rows = append(rows, []string{"Test ID", strconv.FormatInt(s.TestID, 10)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(s *Summary) string {
	if s.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if s.Error != "" {
		return "❌ Error - " + s.Error
	}
	if s.IsTruncated() {
		return "⚠️ Truncated by page limit (" + strings.Join(s.Truncated, ", ") + ")"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Source", "URLs"},
		Rows: [][]string{
			{"HTML crawl", strconv.Itoa(s.HTMLLinks)},
			{"Sitemap", strconv.Itoa(s.SitemapLinks)},
			{"In both", strconv.Itoa(s.Common)},
			{"Only in HTML", strconv.Itoa(s.OnlyInHTML)},
			{"Only in sitemap", strconv.Itoa(s.OnlyInSitemap)},
		},
	})
	md.PlainText("")

	if s.Common+s.OnlyInHTML+s.OnlyInSitemap > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.IsTruncated():
		md.Warningf("The page limit stopped %s. The differences below may be incomplete or spurious.", strings.Join(s.Truncated, " and "))
	case s.SitemapLinks == 0:
		md.Warningf("No sitemap entries were found for %s.", s.Site)
	case s.HasDifferences():
		md.Importantf("The sitemap and the crawled pages differ on %d URLs.", s.OnlyInHTML+s.OnlyInSitemap)
	default:
		md.Tip("The sitemap matches the crawled pages.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Sources"),
		piechart.WithShowData(true),
	)
	if s.Common > 0 {
		chart.LabelAndIntValue("Both", uint64(s.Common))
	}
	if s.OnlyInHTML > 0 {
		chart.LabelAndIntValue("Only HTML", uint64(s.OnlyInHTML))
	}
	if s.OnlyInSitemap > 0 {
		chart.LabelAndIntValue("Only sitemap", uint64(s.OnlyInSitemap))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeList(md *markdown.Markdown, title, description string, urls []string) {
	md.H2(title)
	md.PlainText("")

	if len(urls) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	md.PlainText(description)
	md.PlainText("")

	shown := urls
	if len(shown) > maxListedURLs {
		shown = shown[:maxListedURLs]
	}
	md.BulletList(shown...)
	if len(urls) > len(shown) {
		md.PlainTextf("*%d more not shown.*", len(urls)-len(shown))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResults(md *markdown.Markdown, results []model.Result) {
	if len(results) == 0 {
		return
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			truncateString(r.URL, 80),
			check(r.InHTML),
			check(r.InSitemap),
			depth(r.HTMLDepth),
			depth(r.SitemapDepth),
		}
	}

	md.H2("All URLs")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "HTML", "Sitemap", "HTML depth", "Sitemap depth"},
		Rows:   rows,
	})
	md.PlainText("")
}

func check(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [LinkFinder](https://github.com/nao1215/linkfinder)*")
}
