package crawler

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkfinder/internal/model"
)

// ErrPageLimit is returned by GetLinks, together with the links, when the
// run stopped because the page cap was reached. More links may exist.
var ErrPageLimit = errors.New("page limit reached")

// Validator decides which discovered strings are worth keeping.
type Validator interface {
	// IsCorrectLink reports whether link is a well-formed absolute web URL.
	// The string explains the rejection.
	IsCorrectLink(link string) (bool, string)

	// IsFileLink reports whether link points at a static asset.
	IsFileLink(link string) bool

	// IsInCurrentSite reports whether link belongs to the site of baseURL.
	IsInCurrentSite(link, baseURL string) bool
}

// Parser extracts raw link strings from a document body.
// Malformed input yields whatever could be recovered, possibly nothing.
type Parser interface {
	Parse(body string) iter.Seq[string]
}

// DocumentParser is implemented by parsers that classify a document in the
// same pass that extracts its links. index is true for documents whose links
// name further documents of the same kind, such as sitemap index files. The
// crawler does not descend into those.
type DocumentParser interface {
	ParseDocument(body string) (links iter.Seq[string], index bool)
}

// Converter resolves raw link strings against the URL of the page they were
// found on.
type Converter interface {
	RelativeToAbsolute(raw iter.Seq[string], baseURL string) iter.Seq[string]
}

// RequestService talks to the network on behalf of the crawler.
type RequestService interface {
	// SendRequest probes a URL without keeping its body.
	SendRequest(ctx context.Context, rawURL string) Probe

	// DownloadPage returns the body of link, or "" when it cannot be fetched.
	DownloadPage(ctx context.Context, link model.Link) string
}

// Crawler performs a breadth-first traversal from a seed URL. What is
// fetched, expanded and emitted is decided by its Strategy.
//
// A Crawler holds no per-run state and may be reused for several seeds,
// including concurrently.
type Crawler struct {
	strategy  Strategy
	requester RequestService
	parser    Parser
	converter Converter
	validator Validator

	// maxDepth is the deepest link emitted. 0 means unlimited.
	maxDepth int

	// maxPages caps the number of emitted links. 0 means unlimited.
	maxPages int

	// concurrency bounds the fetches in flight within one level.
	// Values below 2 crawl strictly one link at a time.
	concurrency int

	filter PatternFilter
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth limits how far from the seed links are emitted.
// 0 = unlimited, 1 = the entry page and the links found on it, etc.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// WithMaxPages caps the number of links a run emits. 0 = unlimited.
func WithMaxPages(maxPages int) Option {
	return func(c *Crawler) {
		if maxPages >= 0 {
			c.maxPages = maxPages
		}
	}
}

// WithConcurrency fetches up to n links of the same depth in parallel.
// The emitted sequence is the same as with a sequential crawl.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		c.concurrency = n
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.Ignore = patterns
	}
}

// WithFollowPatterns restricts crawling to URL paths matching at least one
// pattern. Empty means all paths are allowed (subject to ignore patterns).
func WithFollowPatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.filter.Follow = patterns
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler from its collaborators.
func New(strategy Strategy, requester RequestService, parser Parser, converter Converter, validator Validator, opts ...Option) *Crawler {
	c := &Crawler{
		strategy:    strategy,
		requester:   requester,
		parser:      parser,
		converter:   converter,
		validator:   validator,
		concurrency: 1,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Strategy returns the traversal strategy of the crawler.
func (c *Crawler) Strategy() Strategy {
	return c.strategy
}

// expansion is what fetching a single queued link produced.
type expansion struct {
	probe      Probe
	candidates []string
}

// run is the mutable state of one GetLinks call. It is only touched by the
// goroutine that calls GetLinks.
type run struct {
	id      string
	seed    string
	visited map[string]struct{}
	links   []model.Link
}

// GetLinks crawls from seed and returns the links discovered, in discovery
// order and without duplicates.
//
// Per-page failures never surface: an unreachable page is pruned and an
// unparsable document yields no links. GetLinks returns the context's error
// on cancellation, or ErrPageLimit when WithMaxPages stopped the run. Both
// come with the links collected so far.
func (c *Crawler) GetLinks(ctx context.Context, seed string) ([]model.Link, error) {
	if seed == "" {
		return []model.Link{}, nil
	}
	if ok, reason := c.validator.IsCorrectLink(seed); !ok {
		c.logger.Debug("seed rejected", "seed", seed, "reason", reason)
		return []model.Link{}, nil
	}

	r := &run{
		id:      uuid.NewString(),
		seed:    seed,
		visited: make(map[string]struct{}),
		links:   make([]model.Link, 0),
	}
	logger := c.logger.With("run", r.id, "strategy", c.strategy.Name())

	start := time.Now()
	logger.Info("crawl started", "seed", seed)

	entry := model.NewLink(c.strategy.Entry(seed), 0)
	r.visited[entry.Key()] = struct{}{}
	level := []model.Link{entry}

	err := c.drain(ctx, r, logger, level)

	logger.Info("crawl finished",
		"seed", seed,
		"links", len(r.links),
		"duration", time.Since(start),
	)
	if errors.Is(err, ErrPageLimit) {
		logger.Warn("page limit reached, results are incomplete", "seed", seed, "max_pages", c.maxPages)
	}
	return r.links, err
}

// drain processes the queue one depth level at a time. Every level is merged
// in queue order, which is what keeps the parallel and sequential crawls
// identical.
func (c *Crawler) drain(ctx context.Context, r *run, logger *slog.Logger, level []model.Link) error {
	for len(level) > 0 {
		var expanded []expansion
		if c.concurrency > 1 && len(level) > 1 {
			expanded = c.expandLevel(ctx, r, logger, level)
		}

		next := make([]model.Link, 0)
		for i, item := range level {
			if err := ctx.Err(); err != nil {
				return err
			}

			var exp expansion
			if expanded != nil {
				exp = expanded[i]
			} else {
				exp = c.expand(ctx, r, logger, item)
			}

			var done bool
			next, done = c.merge(r, logger, item, exp, next)
			if done {
				return ErrPageLimit
			}
		}
		level = next
	}

	return ctx.Err()
}

// expandLevel fetches every link of a level with at most c.concurrency
// requests in flight. Results are indexed like level.
func (c *Crawler) expandLevel(ctx context.Context, r *run, logger *slog.Logger, level []model.Link) []expansion {
	out := make([]expansion, len(level))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, item := range level {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out[i] = c.expand(ctx, r, logger, item)
			return nil
		})
	}
	_ = g.Wait() // expand never fails

	return out
}

// expand probes item and, when it is reachable and deep enough to have
// children, downloads it and returns the filtered candidate URLs.
// It only reads r.seed, so it is safe to run concurrently.
func (c *Crawler) expand(ctx context.Context, r *run, logger *slog.Logger, item model.Link) expansion {
	probe := c.requester.SendRequest(ctx, item.URL)
	exp := expansion{probe: probe}
	if !probe.OK() {
		logger.Debug("link pruned", "url", item.URL, "status", probe.StatusCode, "error", probe.Err)
		return exp
	}

	if c.maxDepth > 0 && item.Depth >= c.maxDepth {
		return exp
	}

	body := c.requester.DownloadPage(ctx, item)
	if body == "" {
		return exp
	}

	links := c.parser.Parse(body)
	if d, ok := c.parser.(DocumentParser); ok {
		var index bool
		if links, index = d.ParseDocument(body); index {
			logger.Warn("sitemap index is not followed", "url", item.URL)
		}
	}

	for candidate := range c.converter.RelativeToAbsolute(links, item.URL) {
		if c.accept(candidate, r.seed) {
			exp.candidates = append(exp.candidates, candidate)
		}
	}

	return exp
}

// accept applies the validator and the path patterns to a candidate.
func (c *Crawler) accept(candidate, seed string) bool {
	if ok, _ := c.validator.IsCorrectLink(candidate); !ok {
		return false
	}
	if c.validator.IsFileLink(candidate) {
		return false
	}
	if c.strategy.FilterSiteMembership() && !c.validator.IsInCurrentSite(candidate, seed) {
		return false
	}
	return c.filter.Allow(candidate)
}

// merge folds the expansion of item into the run: item is emitted when the
// strategy asks for it, unseen candidates are either queued onto next or
// emitted as leaves. done is true once the page cap is reached.
func (c *Crawler) merge(r *run, logger *slog.Logger, item model.Link, exp expansion, next []model.Link) ([]model.Link, bool) {
	if !exp.probe.OK() {
		return next, false
	}

	if c.strategy.EmitExpanded() {
		item.ResponseTime = exp.probe.Elapsed
		if c.emit(r, item) {
			return next, true
		}
	}

	for _, candidate := range exp.candidates {
		link := model.NewLink(candidate, item.Depth+1)
		key := link.Key()
		if _, seen := r.visited[key]; seen {
			continue
		}
		if c.maxDepth > 0 && link.Depth > c.maxDepth {
			continue
		}
		r.visited[key] = struct{}{}

		if c.strategy.ShouldExpand(link) {
			next = append(next, link)
			continue
		}
		if c.emit(r, link) {
			return next, true
		}
	}

	if len(exp.candidates) > 0 {
		logger.Debug("page expanded", "url", item.URL, "candidates", len(exp.candidates))
	}
	return next, false
}

// emit appends link to the result and reports whether the page cap is reached.
func (c *Crawler) emit(r *run, link model.Link) bool {
	r.links = append(r.links, link)
	return c.maxPages > 0 && len(r.links) >= c.maxPages
}
