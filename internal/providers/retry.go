package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// RetryConfig bounds the retry engine.
type RetryConfig struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt; doubles each retry
}

// DefaultRetryConfig gives 3 attempts with 2s, 4s (and 8s cap) backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// Retryer applies classified retry policy around a provider call.
// Sleep is swappable for tests; the default sleep is cancelled early when
// ctx is done or the shutdown flag flips.
type Retryer struct {
	Config   RetryConfig
	Shutdown *atomic.Bool // optional; short-circuits remaining backoff
	Sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryer builds a Retryer with the default policy.
func NewRetryer(shutdown *atomic.Bool) *Retryer {
	return &Retryer{Config: DefaultRetryConfig(), Shutdown: shutdown}
}

// Do runs fn under the retry policy. Errors classified as non-retryable
// (rate limit, unsupported model, missing key) surface immediately.
// Retryable failures back off 2s, 4s, 8s between attempts; exhausting all
// attempts returns ErrRetriesExhausted wrapping the last failure. A
// shutdown observed during backoff returns ErrShutdown.
func (r *Retryer) Do(ctx context.Context, fn func() (*ChatResponse, error)) (*ChatResponse, error) {
	cfg := r.Config
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := fn()
		if err == nil {
			return resp, nil
		}

		var perr *Error
		if errors.As(err, &perr) && !perr.Retryable() {
			return nil, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("provider call failed, backing off",
			"attempt", attempt, "delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (r *Retryer) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}

	// Poll the shutdown flag so backoff never outlives a shutdown request.
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-tick.C:
			if r.Shutdown != nil && r.Shutdown.Load() {
				return ErrShutdown
			}
		}
	}
}
