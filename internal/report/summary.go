package report

import (
	"time"

	"github.com/nao1215/linkfinder/internal/model"
)

// Summary holds the counts of a TestReport without its link lists.
type Summary struct {
	TestID        int64     `json:"test_id,omitempty"`
	Site          string    `json:"site"`
	DateCrawled   time.Time `json:"date_crawled"`
	HTMLLinks     int       `json:"html_links"`
	SitemapLinks  int       `json:"sitemap_links"`
	Common        int       `json:"common"`
	OnlyInHTML    int       `json:"only_in_html"`
	OnlyInSitemap int       `json:"only_in_sitemap"`
	Error         string    `json:"error,omitempty"`
	TimedOut      bool      `json:"timed_out,omitempty"`
	Truncated     []string  `json:"truncated,omitempty"`
}

// NewSummary counts the links of report. Results are computed when the
// comparison step did not run.
func NewSummary(report *model.TestReport) *Summary {
	if len(report.Results) == 0 && (len(report.HTMLLinks) > 0 || len(report.SitemapLinks) > 0) {
		report.Compare()
	}

	return &Summary{
		TestID:        report.TestID,
		Site:          report.Site,
		DateCrawled:   report.DateCrawled,
		HTMLLinks:     len(report.HTMLLinks),
		SitemapLinks:  len(report.SitemapLinks),
		Common:        report.CommonCount(),
		OnlyInHTML:    len(report.OnlyInHTML),
		OnlyInSitemap: len(report.OnlyInSitemap),
		Error:         report.ErrorMessage,
		TimedOut:      report.TimedOut,
		Truncated:     report.Truncated,
	}
}

// IsTruncated reports whether the page cap stopped a crawl. Differences of a
// truncated report may name pages that exist in both sources.
func (s *Summary) IsTruncated() bool {
	return len(s.Truncated) > 0
}

// HasDifferences reports whether the sources disagree on any URL.
func (s *Summary) HasDifferences() bool {
	return s.OnlyInHTML > 0 || s.OnlyInSitemap > 0
}
