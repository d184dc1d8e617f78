package model

import "time"

// TestStatus is the lifecycle state of a stored test.
type TestStatus string

// Test lifecycle states. A test starts pending, is claimed by a worker
// (running) and ends either done or failed. A failed attempt with retries
// left goes back to pending.
const (
	TestStatusPending TestStatus = "pending"
	TestStatusRunning TestStatus = "running"
	TestStatusDone    TestStatus = "done"
	TestStatusFailed  TestStatus = "failed"
)

// String returns the status as stored in the database.
func (s TestStatus) String() string {
	return string(s)
}

// IsFinal reports whether no worker will pick the test up again.
func (s TestStatus) IsFinal() bool {
	return s == TestStatusDone || s == TestStatusFailed
}

// Test is a request to crawl one site with both strategies.
type Test struct {
	ID         int64      `json:"id"`
	URL        string     `json:"url"`
	Status     TestStatus `json:"status"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  time.Time  `json:"started_at,omitzero"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

// Result is a single URL of a finished test.
// InHTML and InSitemap tell which strategies discovered it.
type Result struct {
	URL       string `json:"url"`
	InHTML    bool   `json:"in_html"`
	InSitemap bool   `json:"in_sitemap"`

	// HTMLDepth and SitemapDepth are -1 when the URL is absent from that source.
	HTMLDepth    int `json:"html_depth"`
	SitemapDepth int `json:"sitemap_depth"`

	// ResponseTime is the probe latency measured by the HTML crawl.
	ResponseTime time.Duration `json:"response_time,omitempty"`
}
