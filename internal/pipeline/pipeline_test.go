package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nao1215/linkfinder/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.TestReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.TestReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		order := make([]string, 0)
		p := New(WithLogger(quietLogger()))
		for _, name := range []string{"step-1", "step-2", "step-3"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.TestReport) error {
					order = append(order, name)
					return nil
				},
			})
		}

		report := model.NewTestReport("https://example.com")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"step-1", "step-2", "step-3"}
		for i := range want {
			if order[i] != want[i] || report.PerformedSteps[i] != want[i] {
				t.Errorf("step %d: ran %q, recorded %q, want %q", i, order[i], report.PerformedSteps[i], want[i])
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(quietLogger()))
		p.AddSteps(
			&mockStep{
				name: "failing-step",
				doFunc: func(_ context.Context, _ *model.TestReport) error {
					return expectedErr
				},
			},
			second,
		)

		report := model.NewTestReport("https://example.com")
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if report.ErrorMessage != expectedErr.Error() {
			t.Errorf("ErrorMessage = %q", report.ErrorMessage)
		}
	})

	t.Run("continues on error and returns the first error", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		second := &mockStep{name: "should-run"}

		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddSteps(
			&mockStep{
				name: "failing-step",
				doFunc: func(_ context.Context, _ *model.TestReport) error {
					return first
				},
			},
			second,
			&mockStep{
				name: "failing-again",
				doFunc: func(_ context.Context, _ *model.TestReport) error {
					return errors.New("second")
				},
			},
		)

		report := model.NewTestReport("https://example.com")
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, first) {
			t.Errorf("expected first error, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
		if !errors.Is(report.Error, first) {
			t.Errorf("report.Error = %v, want first error", report.Error)
		}
		if len(report.PerformedSteps) != 3 {
			t.Errorf("performed steps = %v", report.PerformedSteps)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(quietLogger()))
		p.AddStep(step)

		report := model.NewTestReport("https://example.com")
		err := p.Execute(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if !report.TimedOut {
			t.Error("report.TimedOut should be true")
		}
	})

	t.Run("step returning a context error marks the report timed out", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(quietLogger()))
		p.AddStep(&mockStep{
			name: "slow",
			doFunc: func(_ context.Context, _ *model.TestReport) error {
				return context.DeadlineExceeded
			},
		})

		report := model.NewTestReport("https://example.com")
		_ = p.Execute(context.Background(), report) //nolint:errcheck // checked via report
		if !report.TimedOut {
			t.Error("report.TimedOut should be true")
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	if names := p.StepNames(); len(names) != 0 {
		t.Errorf("expected empty slice, got %v", names)
	}

	p.AddSteps(
		&mockStep{name: "alpha"},
		&mockStep{name: "beta"},
	)
	names := p.StepNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("unexpected names: %v", names)
	}
}
