package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/linkfinder/internal/crawler"
	"github.com/nao1215/linkfinder/internal/model"
)

// Step names recorded in TestReport.PerformedSteps.
const (
	StepHTMLCrawl    = "html_crawl"
	StepSitemapCrawl = "sitemap_crawl"
	StepCompare      = "compare"
)

// LinkCollector gathers the links of a site. *crawler.Crawler implements it.
type LinkCollector interface {
	GetLinks(ctx context.Context, seed string) ([]model.Link, error)
}

// HTMLCrawlStep follows hyperlinks from the site's seed page.
type HTMLCrawlStep struct {
	collector LinkCollector
	logger    *slog.Logger
}

// NewHTMLCrawlStep creates the hyperlink crawl step.
func NewHTMLCrawlStep(collector LinkCollector, logger *slog.Logger) *HTMLCrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLCrawlStep{collector: collector, logger: logger}
}

// Name returns the step name.
func (s *HTMLCrawlStep) Name() string {
	return StepHTMLCrawl
}

// Do stores the crawled pages in report.HTMLLinks. Links collected before a
// cancellation are kept. A crawl stopped by the page cap is recorded in
// report.Truncated and does not fail the step.
func (s *HTMLCrawlStep) Do(ctx context.Context, report *model.TestReport) error {
	links, err := s.collector.GetLinks(ctx, report.Site)
	report.HTMLLinks = links
	err = markTruncated(report, StepHTMLCrawl, err, s.logger)
	if err != nil {
		return fmt.Errorf("html crawl: %w", err)
	}
	if len(links) == 0 {
		return fmt.Errorf("%w: %s", ErrSiteUnreachable, report.Site)
	}
	s.logger.Debug("html crawl collected links", "site", report.Site, "links", len(links))
	return nil
}

// SitemapCrawlStep reads the entries of the site's sitemap.
// A site without a sitemap is not an error; it simply has no entries.
type SitemapCrawlStep struct {
	collector LinkCollector
	logger    *slog.Logger
}

// NewSitemapCrawlStep creates the sitemap step.
func NewSitemapCrawlStep(collector LinkCollector, logger *slog.Logger) *SitemapCrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapCrawlStep{collector: collector, logger: logger}
}

// Name returns the step name.
func (s *SitemapCrawlStep) Name() string {
	return StepSitemapCrawl
}

// Do stores the sitemap entries in report.SitemapLinks.
func (s *SitemapCrawlStep) Do(ctx context.Context, report *model.TestReport) error {
	links, err := s.collector.GetLinks(ctx, report.Site)
	report.SitemapLinks = links
	err = markTruncated(report, StepSitemapCrawl, err, s.logger)
	if err != nil {
		return fmt.Errorf("sitemap crawl: %w", err)
	}
	if len(links) == 0 {
		s.logger.Warn("sitemap has no entries", "site", report.Site)
	}
	return nil
}

// markTruncated records step in report.Truncated when err is the page cap
// and clears it. Any other error is returned unchanged.
func markTruncated(report *model.TestReport, step string, err error, logger *slog.Logger) error {
	if !errors.Is(err, crawler.ErrPageLimit) {
		return err
	}
	report.Truncated = append(report.Truncated, step)
	logger.Warn("crawl truncated by page limit, differences may be incomplete",
		"site", report.Site,
		"step", step,
	)
	return nil
}

// CompareStep joins both link sets and fills the difference lists.
type CompareStep struct{}

// Name returns the step name.
func (CompareStep) Name() string {
	return StepCompare
}

// Do implements Step.
func (CompareStep) Do(_ context.Context, report *model.TestReport) error {
	report.Compare()
	return nil
}

// DefaultPipeline creates the standard test pipeline: the HTML crawl, then
// the sitemap crawl, then the comparison.
//
// The pipeline continues after a failed HTML crawl so that the sitemap of an
// unreachable site is still reported.
func DefaultPipeline(html, sitemap LinkCollector, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger), WithContinueOnError(true)}, opts...)...)
	p.AddSteps(
		NewHTMLCrawlStep(html, logger),
		NewSitemapCrawlStep(sitemap, logger),
		CompareStep{},
	)
	return p
}
