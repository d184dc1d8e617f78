package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/model"
)

// PipelineFactory creates the pipeline for one site. Each test gets a fresh
// pipeline so that no state leaks between sites.
type PipelineFactory func(site string) *Pipeline

// BatchProcessor tests several sites concurrently.
type BatchProcessor struct {
	pipelineFactory PipelineFactory
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites tested at once.
// Non-positive values keep config.DefaultBatchSize.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory PipelineFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch tests every site and returns the reports in the order of
// sites. A failed test does not stop the others; its error is in its report.
// Sites not started before cancellation have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []string) ([]*model.TestReport, error) {
	results := make([]*model.TestReport, len(sites))
	err := bp.ProcessBatchWithCallback(ctx, sites, func(report *model.TestReport, index int) {
		results[index] = report
	})
	return results, err
}

// ProcessBatchWithCallback tests every site and calls callback with each
// finished report and the index of its site. The callback is called from the
// goroutine that ran the test, so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sites []string,
	callback func(report *model.TestReport, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			bp.logger.Info("testing site",
				"site", site,
				"index", i+1,
				"total", len(sites),
			)

			report := model.NewTestReport(site)
			if err := bp.pipelineFactory(site).Execute(ctx, report); err != nil {
				bp.logger.Warn("test failed",
					"site", site,
					"error", err,
				)
			} else {
				bp.logger.Info("test completed",
					"site", site,
					"html_links", len(report.HTMLLinks),
					"sitemap_links", len(report.SitemapLinks),
				)
			}

			callback(report, i)
			return nil
		})
	}

	_ = g.Wait() // goroutines never fail; errors live in the reports

	bp.logger.Info("batch processing complete",
		"total_sites", len(sites),
		"elapsed", time.Since(startTime),
	)
	return ctx.Err()
}
