package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/linkfinder/internal/model"
)

// createTestReport creates a compared report with sample data.
func createTestReport() *model.TestReport {
	report := model.NewTestReport("https://example.com")
	report.TestID = 7
	report.DateCrawled = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	report.HTMLLinks = []model.Link{
		model.NewLink("https://example.com", 0),
		model.NewLink("https://example.com/about", 1),
		model.NewLink("https://example.com/team", 2),
	}
	report.SitemapLinks = []model.Link{
		model.NewLink("https://example.com/about", 1),
		model.NewLink("https://example.com/orphan", 1),
	}
	report.PerformedSteps = []string{"html_crawl", "sitemap_crawl", "compare"}
	report.Compare()
	return report
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("counts compared report", func(t *testing.T) {
		t.Parallel()

		s := NewSummary(createTestReport())
		if s.HTMLLinks != 3 || s.SitemapLinks != 2 {
			t.Errorf("links = %d/%d, want 3/2", s.HTMLLinks, s.SitemapLinks)
		}
		if s.Common != 1 || s.OnlyInHTML != 2 || s.OnlyInSitemap != 1 {
			t.Errorf("common/html/sitemap = %d/%d/%d, want 1/2/1", s.Common, s.OnlyInHTML, s.OnlyInSitemap)
		}
		if !s.HasDifferences() {
			t.Error("expected differences")
		}
	})

	t.Run("carries truncation", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Truncated = []string{"sitemap_crawl"}

		s := NewSummary(report)
		if !s.IsTruncated() || s.Truncated[0] != "sitemap_crawl" {
			t.Errorf("Truncated = %v", s.Truncated)
		}
		if NewSummary(createTestReport()).IsTruncated() {
			t.Error("untruncated report reported as truncated")
		}
	})

	t.Run("compares report that skipped the compare step", func(t *testing.T) {
		t.Parallel()

		report := model.NewTestReport("https://example.com")
		report.HTMLLinks = []model.Link{model.NewLink("https://example.com/a", 1)}
		report.SitemapLinks = []model.Link{model.NewLink("https://example.com/a", 1)}

		s := NewSummary(report)
		if s.Common != 1 || s.HasDifferences() {
			t.Errorf("unexpected summary: %+v", s)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and differences", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"LINKFINDER REPORT",
			"https://example.com",
			"Test ID:        7",
			"Only in HTML:    2",
			"ONLY IN SITEMAP",
			"[!] https://example.com/orphan",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "ALL URLS") {
			t.Error("result table should only be written in verbose mode")
		}
	})

	t.Run("verbose lists every URL", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "ALL URLS") {
			t.Error("expected result table")
		}
		if !strings.Contains(output, "HS html=1  sitemap=1") {
			t.Errorf("expected both-source row, got:\n%s", output)
		}
	})

	t.Run("matching sources", func(t *testing.T) {
		t.Parallel()

		report := model.NewTestReport("https://example.com")
		report.HTMLLinks = []model.Link{model.NewLink("https://example.com/a", 1)}
		report.SitemapLinks = []model.Link{model.NewLink("https://example.com/a", 1)}
		report.Compare()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "sitemap matches") {
			t.Error("expected match message")
		}
		if !strings.Contains(output, "None") {
			t.Error("expected empty sections with WithShowEmpty")
		}
	})

	t.Run("error status", func(t *testing.T) {
		t.Parallel()

		report := model.NewTestReport("https://down.example.com")
		report.ErrorMessage = "site unreachable"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ERROR - site unreachable") {
			t.Error("expected error status")
		}
	})

	t.Run("truncated status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Truncated = []string{"html_crawl"}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "TRUNCATED by page limit (html_crawl)") {
			t.Errorf("expected truncated status, got:\n%s", output)
		}
		if !strings.Contains(output, "Differences may be incomplete") {
			t.Error("expected truncation warning")
		}
	})

	t.Run("timed out status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.TimedOut = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(NewSummary(report)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TIMED OUT") {
			t.Error("expected timed out status")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes compact report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["site"] != "https://example.com" {
			t.Errorf("site = %v", decoded["site"])
		}
		if only, ok := decoded["only_in_sitemap"].([]any); !ok || len(only) != 1 {
			t.Errorf("only_in_sitemap = %v", decoded["only_in_sitemap"])
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output should be a single line")
		}
	})

	t.Run("pretty prints", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteSummary(NewSummary(createTestReport())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"site\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("full writer wraps report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("version = %q", decoded.Version)
		}
		if decoded.Summary == nil || decoded.Summary.OnlyInHTML != 2 {
			t.Errorf("summary = %+v", decoded.Summary)
		}
		if decoded.Report == nil || len(decoded.Report.Results) != 4 {
			t.Errorf("report = %+v", decoded.Report)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# LinkFinder Report",
			"## Summary",
			"## Only in HTML",
			"## Only in Sitemap",
			"## All URLs",
			"```mermaid",
			"- https://example.com/orphan",
			"[!IMPORTANT]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("warns when sitemap is empty", func(t *testing.T) {
		t.Parallel()

		report := model.NewTestReport("https://example.com")
		report.HTMLLinks = []model.Link{model.NewLink("https://example.com", 0)}
		report.Compare()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected warning alert")
		}
	})

	t.Run("warns when a crawl was truncated", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Truncated = []string{"html_crawl", "sitemap_crawl"}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected warning alert")
		}
		if strings.Contains(output, "[!IMPORTANT]") {
			t.Error("truncated report should not claim differences")
		}
		if !strings.Contains(output, "Truncated by page limit") {
			t.Error("expected truncated status")
		}
	})

	t.Run("summary only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(NewSummary(createTestReport())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "## All URLs") {
			t.Error("summary should not list URLs")
		}
	})
}

// failingWriter is a Writer that always fails.
type failingWriter struct{}

func (failingWriter) Write(*model.TestReport) (int, error) { return 0, errors.New("write failed") }
func (failingWriter) WriteSummary(*Summary) (int, error)   { return 0, errors.New("write failed") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected output in both writers")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		if _, err := mw.WriteSummary(NewSummary(createTestReport())); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not run")
		}
	})
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSummaryWriter(NewJSONWriter(&buf))
	if _, err := w.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a summary: %v", err)
	}
	if got.OnlyInSitemap != 1 || got.OnlyInHTML != 2 {
		t.Errorf("unexpected summary: %+v", got)
	}
	if strings.Contains(buf.String(), "orphan") {
		t.Error("summary must not contain link lists")
	}
}

func TestTables(t *testing.T) {
	t.Parallel()

	t.Run("tests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := TestTable(&buf, []model.Test{{
			ID:        3,
			URL:       "https://example.com",
			Status:    model.TestStatusDone,
			Attempts:  1,
			CreatedAt: time.Now(),
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "https://example.com") || !strings.Contains(buf.String(), "done") {
			t.Errorf("unexpected table:\n%s", buf.String())
		}
	})

	t.Run("results page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := ResultTable(&buf, ResultPage{
			TestID:  3,
			Page:    1,
			PerPage: 2,
			Total:   5,
			Results: createTestReport().Results[:2],
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "https://example.com/about") {
			t.Errorf("missing row:\n%s", output)
		}
		if !strings.Contains(output, "page 2 of 3 (5 results)") {
			t.Errorf("missing page indicator:\n%s", output)
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{input: "short", maxLen: 10, want: "short"},
		{input: "exactly10!", maxLen: 10, want: "exactly10!"},
		{input: "this is too long", maxLen: 10, want: "this is..."},
		{input: "abcdef", maxLen: 3, want: "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
