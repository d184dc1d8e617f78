package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/linkfinder/internal/model"
)

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints difference sections even when they have no entries.
	showEmpty bool

	// verbose adds the merged result table.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose lists every URL with its depth in each source.
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

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.TestReport) (int, error) {
	summary := NewSummary(report)

	var sb strings.Builder
	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeList(&sb, "ONLY IN HTML (missing from the sitemap)", report.OnlyInHTML)
	w.writeList(&sb, "ONLY IN SITEMAP (not reachable by links)", report.OnlyInSitemap)
	if w.verbose {
		w.writeResults(&sb, report.Results)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the counts in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *Summary) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                         LINKFINDER REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Site:           %s\n", s.Site)
	if s.TestID > 0 {
		fmt.Fprintf(sb, "Test ID:        %d\n", s.TestID)
	}
	fmt.Fprintf(sb, "Crawl Date:     %s\n", s.DateCrawled.Format("2006-01-02 15:04:05 MST"))

	switch {
	case s.TimedOut:
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	case s.Error != "":
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", s.Error)
	case s.IsTruncated():
		fmt.Fprintf(sb, "Status:         TRUNCATED by page limit (%s)\n", strings.Join(s.Truncated, ", "))
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *Summary) {
	rule(sb, "-")
	sb.WriteString("SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  HTML crawl:      %d\n", s.HTMLLinks)
	fmt.Fprintf(sb, "  Sitemap:         %d\n", s.SitemapLinks)
	fmt.Fprintf(sb, "  In both:         %d\n", s.Common)
	fmt.Fprintf(sb, "  Only in HTML:    %d\n", s.OnlyInHTML)
	fmt.Fprintf(sb, "  Only in sitemap: %d\n", s.OnlyInSitemap)
	sb.WriteString("\n")

	switch {
	case s.IsTruncated():
		sb.WriteString("  [!] A crawl hit the page limit. Differences may be incomplete or spurious.\n\n")
	case !s.HasDifferences():
		sb.WriteString("  [+] The sitemap matches the crawled pages.\n\n")
	}
}

func (w *SimpleWriter) writeList(sb *strings.Builder, title string, urls []string) {
	if len(urls) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(urls) == 0 {
		sb.WriteString("  None\n")
	}
	for _, u := range urls {
		fmt.Fprintf(sb, "  [!] %s\n", u)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeResults(sb *strings.Builder, results []model.Result) {
	rule(sb, "-")
	sb.WriteString("ALL URLS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, r := range results {
		fmt.Fprintf(sb, "  %s %s  %s\n", sourceMark(r), depthText(r), r.URL)
	}
	sb.WriteString("\n")
}

// sourceMark shows the sources of r as "HS", "H-" or "-S".
func sourceMark(r model.Result) string {
	mark := []byte("--")
	if r.InHTML {
		mark[0] = 'H'
	}
	if r.InSitemap {
		mark[1] = 'S'
	}
	return string(mark)
}

func depthText(r model.Result) string {
	return fmt.Sprintf("html=%-2s sitemap=%-2s", depth(r.HTMLDepth), depth(r.SitemapDepth))
}

func depth(d int) string {
	if d < 0 {
		return "-"
	}
	return fmt.Sprint(d)
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by LinkFinder\n")
	rule(sb, "=")
}
