package pipeline

import (
	"log/slog"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/crawler"
	"github.com/nao1215/linkfinder/internal/transport"
)

// Factory builds the crawlers and pipelines for each site from the global
// configuration and the site overrides of the configuration file.
type Factory struct {
	cfg    *config.Config
	client *transport.Client
	logger *slog.Logger
}

// NewFactory creates a Factory. It fails when the proxy address is invalid.
func NewFactory(cfg *config.Config, logger *slog.Logger) (*Factory, error) {
	client, err := transport.NewClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cfg: cfg, client: client, logger: logger}, nil
}

// Client returns the transport shared by every crawler of the factory.
func (f *Factory) Client() *transport.Client {
	return f.client
}

// Crawlers returns the HTML and sitemap crawlers configured for site.
// Both share one HTTP client, so cookies set while crawling the pages are
// also sent when the sitemap is fetched.
func (f *Factory) Crawlers(site string) (htmlCrawler, sitemapCrawler *crawler.Crawler) {
	sc := f.cfg.SiteConfigs.ForURL(site)

	depth := f.cfg.CrawlDepth
	if sc.Depth > 0 {
		depth = sc.Depth
	}

	reqOpts := []crawler.RequestOption{
		crawler.WithUserAgent(f.cfg.UserAgent),
		crawler.WithMaxBodySize(f.cfg.MaxBodySize),
		crawler.WithRequestLogger(f.logger),
		crawler.WithHeaders(sc.Headers),
	}
	if sc.Cookie != "" {
		reqOpts = append(reqOpts, crawler.WithCookie(sc.Cookie))
	}
	requester := crawler.NewHTTPRequestService(f.client.NewHTTPClient(), reqOpts...)

	var validator crawler.Validator
	if f.cfg.StrictHost || sc.StrictHost {
		validator = crawler.NewStrictHostValidator(crawler.WithFileExtensions(sc.FileExtensions...))
	} else {
		validator = crawler.NewLinkValidator(crawler.WithFileExtensions(sc.FileExtensions...))
	}

	common := []crawler.Option{
		crawler.WithMaxPages(f.cfg.MaxPages),
		crawler.WithConcurrency(f.cfg.Concurrency),
		crawler.WithIgnorePatterns(sc.IgnorePatterns),
		crawler.WithFollowPatterns(sc.FollowPatterns),
		crawler.WithLogger(f.logger),
	}

	htmlCrawler = crawler.New(
		crawler.HTMLStrategy{},
		requester,
		crawler.NewHTMLParser(),
		crawler.NewLinkConverter(),
		validator,
		append(common, crawler.WithMaxDepth(depth))...,
	)
	sitemapCrawler = crawler.New(
		crawler.SitemapStrategy{Path: sc.SitemapPath},
		requester,
		crawler.NewSitemapParser(),
		crawler.NewLinkConverter(),
		validator,
		common...,
	)
	return htmlCrawler, sitemapCrawler
}

// Pipeline returns the default pipeline for site.
func (f *Factory) Pipeline(site string) *Pipeline {
	htmlCrawler, sitemapCrawler := f.Crawlers(site)
	return DefaultPipeline(htmlCrawler, sitemapCrawler, f.logger)
}
