package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/linkfinder/internal/model"
)

// Strategy shapes the breadth-first traversal performed by Crawler.
type Strategy interface {
	// Name identifies the strategy in logs and stored results.
	Name() string

	// Entry returns the first URL to fetch for a seed.
	Entry(seed string) string

	// ShouldExpand reports whether a newly discovered link is queued for
	// fetching. Links that are not expanded are emitted immediately.
	ShouldExpand(link model.Link) bool

	// FilterSiteMembership reports whether candidates must pass
	// Validator.IsInCurrentSite against the seed.
	FilterSiteMembership() bool

	// EmitExpanded reports whether fetched links are emitted themselves once
	// their probe succeeds.
	EmitExpanded() bool
}

// Strategy names, also used as the source tag in stored results.
const (
	StrategyHTML    = "html"
	StrategySitemap = "sitemap"
)

// HTMLStrategy follows hyperlinks inside the seed's site. Every reachable
// page is emitted, starting with the seed at depth 0.
type HTMLStrategy struct{}

// Name implements Strategy.
func (HTMLStrategy) Name() string { return StrategyHTML }

// Entry implements Strategy. The crawl starts at the seed itself.
func (HTMLStrategy) Entry(seed string) string { return seed }

// ShouldExpand implements Strategy.
func (HTMLStrategy) ShouldExpand(model.Link) bool { return true }

// FilterSiteMembership implements Strategy.
func (HTMLStrategy) FilterSiteMembership() bool { return true }

// EmitExpanded implements Strategy.
func (HTMLStrategy) EmitExpanded() bool { return true }

// DefaultSitemapPath is where SitemapStrategy looks for the sitemap.
const DefaultSitemapPath = "/sitemap.xml"

// SitemapStrategy reads one sitemap document and emits its entries at depth 1.
// Entries are never fetched, and nested sitemap index files are not followed.
// Site membership is not re-checked because sitemap entries are declared by
// the site itself.
type SitemapStrategy struct {
	// Path is the sitemap location relative to the site root.
	// Empty means DefaultSitemapPath.
	Path string
}

// Name implements Strategy.
func (SitemapStrategy) Name() string { return StrategySitemap }

// Entry implements Strategy. A seed that already names an .xml document is
// used as is; otherwise the sitemap is looked up at the root of the seed's host.
func (s SitemapStrategy) Entry(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return seed
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".xml") {
		return seed
	}

	path := s.Path
	if path == "" {
		path = DefaultSitemapPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u.Path = path
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ShouldExpand implements Strategy. Sitemap entries are leaves.
func (SitemapStrategy) ShouldExpand(model.Link) bool { return false }

// FilterSiteMembership implements Strategy.
func (SitemapStrategy) FilterSiteMembership() bool { return false }

// EmitExpanded implements Strategy. The sitemap document is not a page.
func (SitemapStrategy) EmitExpanded() bool { return false }
