package pdf

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func unitPages(texts ...string) [][]TranslationUnit {
	units := make([]TranslationUnit, len(texts))
	for i, text := range texts {
		units[i] = TranslationUnit{
			PageIndexes:  []int{0},
			BlockIndexes: []int{i},
			Boxes:        []BoundingBox{{X0: 0, Y0: 0, X1: 100, Y1: 20}},
			Sizes:        []float64{10},
			Text:         text,
		}
	}
	return [][]TranslationUnit{units}
}

func TestTranslateUnitsRewritesInPlace(t *testing.T) {
	pages := unitPages("alpha", "beta", "gamma")

	var progressCalls int64
	o, err := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	}, OrchestratorConfig{
		RetryDelay: time.Millisecond,
		OnProgress: func(completed, total int) {
			atomic.AddInt64(&progressCalls, 1)
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
		},
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	if err := o.TranslateUnits(context.Background(), pages); err != nil {
		t.Fatalf("TranslateUnits: %v", err)
	}
	for i, want := range []string{"ALPHA", "BETA", "GAMMA"} {
		if pages[0][i].Text != want {
			t.Errorf("unit %d text = %q, want %q", i, pages[0][i].Text, want)
		}
	}
	if n := atomic.LoadInt64(&progressCalls); n != 3 {
		t.Errorf("progress calls = %d, want 3", n)
	}
}

func TestTranslateUnitsBlankPassThrough(t *testing.T) {
	pages := unitPages("  ", "real text")

	var calls int64
	o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
		atomic.AddInt64(&calls, 1)
		return text, nil
	}, OrchestratorConfig{RetryDelay: time.Millisecond})

	if err := o.TranslateUnits(context.Background(), pages); err != nil {
		t.Fatalf("TranslateUnits: %v", err)
	}
	if calls != 1 {
		t.Errorf("translator called %d times, want 1 (blank skipped)", calls)
	}
	if pages[0][0].Text != "  " {
		t.Errorf("blank unit text changed to %q", pages[0][0].Text)
	}
}

func TestTranslateUnitsFailFast(t *testing.T) {
	pages := unitPages("one", "two", "poison", "four", "five")

	o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
		if text == "poison" {
			return "", NonRetryable(errors.New("backend rejected payload"))
		}
		// Healthy units wait for cancellation so the failure has to
		// propagate through the group context.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return strings.ToUpper(text), nil
		}
	}, OrchestratorConfig{RetryDelay: time.Millisecond})

	start := time.Now()
	err := o.TranslateUnits(context.Background(), pages)
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("failure did not cancel in-flight units promptly")
	}

	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Code != ErrTranslateFailed {
		t.Errorf("err = %v, want PipelineError with code TRANSLATE_FAILED", err)
	}
	for _, u := range pages[0] {
		if u.Text != "poison" && strings.ToUpper(u.Text) == u.Text {
			t.Errorf("unit %q was rewritten after failure", u.Text)
		}
	}
}

func TestTranslateWithRetry(t *testing.T) {
	t.Run("recovers after transient failures", func(t *testing.T) {
		var attempts int64
		o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
			if atomic.AddInt64(&attempts, 1) < 3 {
				return "", errors.New("temporarily unavailable")
			}
			return "ok", nil
		}, OrchestratorConfig{MaxAttempts: 4, RetryDelay: time.Millisecond})

		got, err := o.translateWithRetry(context.Background(), "payload")
		if err != nil || got != "ok" {
			t.Fatalf("got (%q, %v), want (ok, nil)", got, err)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("exhausts the attempt budget", func(t *testing.T) {
		var attempts int64
		o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
			atomic.AddInt64(&attempts, 1)
			return "", errors.New("always failing")
		}, OrchestratorConfig{MaxAttempts: 2, RetryDelay: time.Millisecond})

		if _, err := o.translateWithRetry(context.Background(), "payload"); err == nil {
			t.Fatal("expected error")
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("non-retryable errors abort immediately", func(t *testing.T) {
		var attempts int64
		o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
			atomic.AddInt64(&attempts, 1)
			return "", NonRetryable(errors.New("bad configuration"))
		}, OrchestratorConfig{MaxAttempts: 4, RetryDelay: time.Millisecond})

		if _, err := o.translateWithRetry(context.Background(), "payload"); err == nil {
			t.Fatal("expected error")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("cancelled context stops before the first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
			t.Error("translator should not run with a cancelled context")
			return "", nil
		}, OrchestratorConfig{RetryDelay: time.Millisecond})

		if _, err := o.translateWithRetry(ctx, "payload"); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestTranslateUnitsCancellation(t *testing.T) {
	pages := unitPages("alpha", "beta")
	ctx, cancel := context.WithCancel(context.Background())

	o, _ := NewOrchestrator(func(ctx context.Context, text string) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	}, OrchestratorConfig{RetryDelay: time.Millisecond})

	err := o.TranslateUnits(ctx, pages)
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Code != ErrCancelled {
		t.Errorf("err = %v, want PipelineError with code CANCELLED", err)
	}
}

func TestNewOrchestratorRequiresTranslate(t *testing.T) {
	_, err := NewOrchestrator(nil, OrchestratorConfig{})
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Code != ErrConfigInvalid {
		t.Errorf("err = %v, want CONFIG_INVALID", err)
	}
}
