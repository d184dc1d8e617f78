package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nao1215/linkfinder/internal/database"
	"github.com/nao1215/linkfinder/internal/model"
)

func setupStore(t *testing.T) *database.TestDB {
	t.Helper()

	opts := database.DefaultOptions()
	opts.RetryBaseDelay = 0
	db, err := database.Open(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// siteFactory returns pipelines whose crawls produce fixed links per site.
// Sites listed in unreachable produce no HTML links.
func siteFactory(unreachable ...string) PipelineFactory {
	return func(site string) *Pipeline {
		html := &fakeCollector{links: map[string][]model.Link{
			site: append(links(0, site), links(1, site+"/a", site+"/b")...),
		}}
		for _, u := range unreachable {
			if u == site {
				html = &fakeCollector{}
			}
		}
		sitemap := &fakeCollector{links: map[string][]model.Link{
			site: links(1, site+"/b", site+"/c"),
		}}
		return DefaultPipeline(html, sitemap, quietLogger())
	}
}

func TestWorkerRunOnce(t *testing.T) {
	t.Parallel()

	t.Run("completes pending tests", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		ctx := context.Background()

		ids := make([]int64, 0, 5)
		for i := range 5 {
			id, err := store.CreateTest(ctx, fmt.Sprintf("https://site%d.example.com", i))
			if err != nil {
				t.Fatalf("CreateTest failed: %v", err)
			}
			ids = append(ids, id)
		}

		w := NewWorker(store, siteFactory(), WithWorkerConcurrency(3), WithWorkerLogger(quietLogger()))
		n, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if n != len(ids) {
			t.Errorf("processed %d tests, want %d", n, len(ids))
		}

		for _, id := range ids {
			test, err := store.GetTest(ctx, id)
			if err != nil {
				t.Fatalf("GetTest failed: %v", err)
			}
			if test.Status != model.TestStatusDone {
				t.Errorf("test %d status = %s, want done", id, test.Status)
			}

			onlySitemap, err := store.CountResults(ctx, id, database.ResultFilter{InSitemap: true})
			if err != nil {
				t.Fatalf("CountResults failed: %v", err)
			}
			if onlySitemap != 2 {
				t.Errorf("test %d: %d sitemap results, want 2", id, onlySitemap)
			}
			all, err := store.CountResults(ctx, id, database.ResultFilter{})
			if err != nil {
				t.Fatalf("CountResults failed: %v", err)
			}
			if all != 4 {
				t.Errorf("test %d: %d results, want 4", id, all)
			}
		}
	})

	t.Run("retries unreachable sites until attempts run out", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		ctx := context.Background()

		const site = "https://down.example.com"
		id, err := store.CreateTest(ctx, site)
		if err != nil {
			t.Fatalf("CreateTest failed: %v", err)
		}

		w := NewWorker(store, siteFactory(site), WithWorkerLogger(quietLogger()))
		if _, err := w.RunOnce(ctx); err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}

		test, err := store.GetTest(ctx, id)
		if err != nil {
			t.Fatalf("GetTest failed: %v", err)
		}
		if test.Status != model.TestStatusFailed {
			t.Errorf("status = %s, want failed", test.Status)
		}
		if test.Attempts != database.DefaultMaxAttempts {
			t.Errorf("attempts = %d, want %d", test.Attempts, database.DefaultMaxAttempts)
		}
		if test.Error == "" {
			t.Error("expected error message")
		}
	})

	t.Run("other errors fail without retry", func(t *testing.T) {
		t.Parallel()

		store := setupStore(t)
		ctx := context.Background()

		id, err := store.CreateTest(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("CreateTest failed: %v", err)
		}

		factory := func(string) *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{
				name: "broken",
				doFunc: func(_ context.Context, _ *model.TestReport) error {
					return errors.New("broken step")
				},
			})
			return p
		}

		w := NewWorker(store, factory, WithWorkerLogger(quietLogger()))
		if _, err := w.RunOnce(ctx); err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}

		test, err := store.GetTest(ctx, id)
		if err != nil {
			t.Fatalf("GetTest failed: %v", err)
		}
		if test.Status != model.TestStatusFailed || test.Attempts != 1 {
			t.Errorf("got status %s after %d attempts, want failed after 1", test.Status, test.Attempts)
		}
	})

	t.Run("empty queue", func(t *testing.T) {
		t.Parallel()

		w := NewWorker(setupStore(t), siteFactory(), WithWorkerLogger(quietLogger()))
		n, err := w.RunOnce(context.Background())
		if err != nil || n != 0 {
			t.Errorf("RunOnce = %d, %v; want 0, nil", n, err)
		}
	})
}

func TestWorkerRun(t *testing.T) {
	t.Parallel()

	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(store, siteFactory(),
		WithPollInterval(10*time.Millisecond),
		WithWorkerLogger(quietLogger()),
	)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Tests added while the worker is idle are picked up by a later poll.
	id, err := store.CreateTest(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		test, err := store.GetTest(context.Background(), id)
		if err != nil {
			t.Fatalf("GetTest failed: %v", err)
		}
		if test.Status == model.TestStatusDone {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("test not processed, status %s", test.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unreachable", err: fmt.Errorf("wrap: %w", ErrSiteUnreachable), want: true},
		{name: "cancelled", err: context.Canceled, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
