package model

import "time"

// TestReport is the result of running both crawl strategies against one site.
// Pipeline steps fill it in order: the two crawls first, then the comparison.
type TestReport struct {
	// TestID is the database id of the test, or 0 for unsaved runs.
	TestID int64 `json:"test_id,omitempty"`

	// Site is the seed URL both strategies started from.
	Site string `json:"site"`

	// DateCrawled is when the report was created.
	DateCrawled time.Time `json:"date_crawled"`

	// HTMLLinks are the pages reached by following hyperlinks, in discovery order.
	HTMLLinks []Link `json:"html_links"`

	// SitemapLinks are the entries declared by the site's sitemap, in document order.
	SitemapLinks []Link `json:"sitemap_links"`

	// Results merges both link sets, one row per URL.
	Results []Result `json:"results"`

	// OnlyInHTML lists pages reachable by links but missing from the sitemap.
	OnlyInHTML []string `json:"only_in_html"`

	// OnlyInSitemap lists sitemap entries that no hyperlink led to.
	OnlyInSitemap []string `json:"only_in_sitemap"`

	// PerformedSteps records the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the error that stopped the pipeline, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is true when the run was cancelled before all steps completed.
	TimedOut bool `json:"timed_out,omitempty"`

	// Truncated names the crawl steps stopped by the page cap. Their link
	// sets are partial, so the difference lists may name pages that exist
	// on both sides.
	Truncated []string `json:"truncated,omitempty"`
}

// NewTestReport creates an empty report for site.
func NewTestReport(site string) *TestReport {
	return &TestReport{
		Site:           site,
		DateCrawled:    time.Now(),
		HTMLLinks:      make([]Link, 0),
		SitemapLinks:   make([]Link, 0),
		Results:        make([]Result, 0),
		OnlyInHTML:     make([]string, 0),
		OnlyInSitemap:  make([]string, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Compare merges HTMLLinks and SitemapLinks into Results and fills the
// OnlyInHTML and OnlyInSitemap lists.
func (r *TestReport) Compare() {
	r.Results = MergeResults(r.HTMLLinks, r.SitemapLinks)
	r.OnlyInHTML = make([]string, 0)
	r.OnlyInSitemap = make([]string, 0)
	for _, res := range r.Results {
		switch {
		case res.InHTML && !res.InSitemap:
			r.OnlyInHTML = append(r.OnlyInHTML, res.URL)
		case res.InSitemap && !res.InHTML:
			r.OnlyInSitemap = append(r.OnlyInSitemap, res.URL)
		}
	}
}

// CommonCount returns the number of URLs found by both strategies.
func (r *TestReport) CommonCount() int {
	n := 0
	for _, res := range r.Results {
		if res.InHTML && res.InSitemap {
			n++
		}
	}
	return n
}

// IsTruncated reports whether any crawl was stopped by the page cap.
func (r *TestReport) IsTruncated() bool {
	return len(r.Truncated) > 0
}

// HasDifferences reports whether the two sources disagree on any URL.
func (r *TestReport) HasDifferences() bool {
	return len(r.OnlyInHTML) > 0 || len(r.OnlyInSitemap) > 0
}

// MergeResults joins the two link sets on their normalized URL.
// Rows keep HTML discovery order first, followed by sitemap-only entries in
// sitemap order. The URL of a row is the first spelling that was seen.
func MergeResults(html, sitemap []Link) []Result {
	results := make([]Result, 0, len(html)+len(sitemap))
	index := make(map[string]int, len(html)+len(sitemap))

	for _, l := range html {
		key := l.Key()
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(results)
		results = append(results, Result{
			URL:          l.URL,
			InHTML:       true,
			HTMLDepth:    l.Depth,
			SitemapDepth: -1,
			ResponseTime: l.ResponseTime,
		})
	}

	for _, l := range sitemap {
		key := l.Key()
		if i, ok := index[key]; ok {
			if !results[i].InSitemap {
				results[i].InSitemap = true
				results[i].SitemapDepth = l.Depth
			}
			continue
		}
		index[key] = len(results)
		results = append(results, Result{
			URL:          l.URL,
			InSitemap:    true,
			HTMLDepth:    -1,
			SitemapDepth: l.Depth,
			ResponseTime: l.ResponseTime,
		})
	}

	return results
}
