package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkfinder/internal/config"
	"github.com/nao1215/linkfinder/internal/model"
)

// Store is the part of the test database a Worker needs.
// *database.TestDB implements it.
type Store interface {
	ClaimNextPending(ctx context.Context) (*model.Test, error)
	CompleteTest(ctx context.Context, id int64, html, sitemap []model.Link) error
	FailTest(ctx context.Context, id int64, cause error, retry bool) (model.TestStatus, error)
}

// Worker processes pending tests from a Store.
type Worker struct {
	store           Store
	pipelineFactory PipelineFactory
	pollInterval    time.Duration
	concurrency     int
	logger          *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets how long an idle worker waits before looking for
// new tests again.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithWorkerConcurrency sets how many tests a worker runs at once.
func WithWorkerConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a Worker.
func NewWorker(store Store, pipelineFactory PipelineFactory, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:           store,
		pipelineFactory: pipelineFactory,
		pollInterval:    config.DefaultPollInterval,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// Run processes tests until ctx is cancelled, polling the store every poll
// interval while the queue is empty. Cancellation is a normal stop and
// returns nil; store failures are returned.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		"poll_interval", w.pollInterval,
		"concurrency", w.concurrency,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return nil
		case <-timer.C:
		}

		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return nil
			}
			return err
		}
		timer.Reset(w.pollInterval)
	}
}

// RunOnce claims and processes tests until no test is claimable, then
// returns the number of tests processed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for gctx.Err() == nil {
		test, err := w.store.ClaimNextPending(gctx)
		if err != nil {
			g.Go(func() error { return err })
			break
		}
		if test == nil {
			break
		}

		g.Go(func() error {
			if err := w.process(gctx, test); err != nil {
				return err
			}
			processed.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return int(processed.Load()), err
}

// process runs the pipeline for test and stores the outcome. The outcome is
// stored even when ctx is cancelled so that interrupted tests are retried.
func (w *Worker) process(ctx context.Context, test *model.Test) error {
	logger := w.logger.With("test_id", test.ID, "site", test.URL, "attempt", test.Attempts)
	logger.Info("test claimed")

	report := model.NewTestReport(test.URL)
	report.TestID = test.ID
	runErr := w.pipelineFactory(test.URL).Execute(ctx, report)

	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		status, err := w.store.FailTest(storeCtx, test.ID, runErr, retryable(runErr))
		if err != nil {
			return fmt.Errorf("failed to record failure of test %d: %w", test.ID, err)
		}
		logger.Warn("test failed", "error", runErr, "status", status)
		return nil
	}

	if err := w.store.CompleteTest(storeCtx, test.ID, report.HTMLLinks, report.SitemapLinks); err != nil {
		return fmt.Errorf("failed to store results of test %d: %w", test.ID, err)
	}
	logger.Info("test done",
		"html_links", len(report.HTMLLinks),
		"sitemap_links", len(report.SitemapLinks),
		"only_in_html", len(report.OnlyInHTML),
		"only_in_sitemap", len(report.OnlyInSitemap),
	)
	return nil
}

// retryable reports whether a test that failed with err may succeed later.
func retryable(err error) bool {
	return errors.Is(err, ErrSiteUnreachable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
