package pdf

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"paper-translator/internal/logger"
)

const (
	// DefaultMaxAttempts is how many times a unit translation is tried
	// before the run fails.
	DefaultMaxAttempts = 4
	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = 2 * time.Second
)

// TranslateFunc translates one text payload. Implementations must be
// safe for concurrent use.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// nonRetryableError marks a failure that retrying cannot fix, such as
// a configuration or programmer error.
type nonRetryableError struct{ err error }

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable wraps err so the orchestrator fails immediately instead
// of burning retry attempts on it.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// OrchestratorConfig tunes concurrent unit translation.
type OrchestratorConfig struct {
	// MaxAttempts per unit; zero means DefaultMaxAttempts.
	MaxAttempts int
	// RetryDelay between attempts; zero means DefaultRetryDelay.
	RetryDelay time.Duration
	// OnProgress, when set, is called after every completed unit with
	// the running completed count and the total. Calls may arrive from
	// multiple goroutines.
	OnProgress func(completed, total int)
}

// Orchestrator fans translation units out to the translator, one
// goroutine per unit, and rewrites each unit's text in place with the
// translation. The first hard failure cancels all in-flight work.
type Orchestrator struct {
	translate   TranslateFunc
	maxAttempts int
	retryDelay  time.Duration
	onProgress  func(completed, total int)
}

// NewOrchestrator creates an orchestrator around translate.
func NewOrchestrator(translate TranslateFunc, cfg OrchestratorConfig) (*Orchestrator, error) {
	if translate == nil {
		return nil, NewPipelineError(ErrConfigInvalid, "translate function is required", nil)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Orchestrator{
		translate:   translate,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		onProgress:  cfg.OnProgress,
	}, nil
}

// TranslateUnits translates every unit in place. Blank units pass
// through untouched but still count toward progress. Returns a
// PipelineError with code TRANSLATE_FAILED when any unit exhausts its
// attempts, and CANCELLED when ctx ends first.
func (o *Orchestrator) TranslateUnits(ctx context.Context, pages [][]TranslationUnit) error {
	total := CountUnits(pages)
	if total == 0 {
		return nil
	}

	var completed int64
	g, gctx := errgroup.WithContext(ctx)

	for pageIdx := range pages {
		for unitIdx := range pages[pageIdx] {
			unit := &pages[pageIdx][unitIdx]
			g.Go(func() error {
				if !unit.IsBlank() {
					translated, err := o.translateWithRetry(gctx, unit.Text)
					if err != nil {
						return err
					}
					unit.Text = translated
				}
				done := int(atomic.AddInt64(&completed, 1))
				if o.onProgress != nil {
					o.onProgress(done, total)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return NewPipelineError(ErrCancelled, "translation cancelled", ctx.Err())
		}
		return NewPipelineError(ErrTranslateFailed, "unit translation failed", err)
	}
	return nil
}

// translateWithRetry runs one unit through the translator with bounded
// retry and a fixed delay. Context cancellation and non-retryable
// errors abort immediately.
func (o *Orchestrator) translateWithRetry(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := o.translate(ctx, text)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var permanent *nonRetryableError
		if errors.As(err, &permanent) {
			return "", err
		}
		if attempt == o.maxAttempts {
			break
		}

		logger.Warn("translation attempt failed, retrying",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", o.maxAttempts),
			logger.Err(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(o.retryDelay):
		}
	}
	return "", lastErr
}
