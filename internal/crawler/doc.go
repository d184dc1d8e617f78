// Package crawler discovers the pages of a website.
//
// # Architecture
//
// A single breadth-first driver, Crawler, is parameterized by a Strategy:
//
//   - HTMLStrategy follows hyperlinks from page to page inside the site.
//   - SitemapStrategy reads the site's sitemap.xml and reports its entries
//     as leaves without visiting them.
//
// The driver orchestrates four substitutable collaborators:
//
//   - Validator: syntactic checks, file-extension exclusion, site membership
//   - Parser: extracts raw link strings from a document (HTMLParser, SitemapParser)
//   - Converter: turns relative links into absolute URLs (LinkConverter)
//   - RequestService: probes and downloads pages (HTTPRequestService)
//
// # Failure handling
//
// Every per-page problem is absorbed locally. An unreachable page is pruned,
// a malformed document yields no links, and an unresolvable link is dropped.
// GetLinks only returns an error when its context is cancelled or when the
// WithMaxPages cap stopped the run (ErrPageLimit). Either way the links
// collected so far are returned with it.
//
// # Usage
//
//	c := crawler.New(crawler.HTMLStrategy{}, crawler.NewHTTPRequestService(client),
//		crawler.NewHTMLParser(), crawler.NewLinkConverter(), crawler.NewLinkValidator(),
//		crawler.WithMaxDepth(3))
//	links, err := c.GetLinks(ctx, "https://www.example.com/")
package crawler
