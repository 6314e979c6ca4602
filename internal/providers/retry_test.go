package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func recordingRetryer(sleeps *[]time.Duration) *Retryer {
	return &Retryer{
		Config: DefaultRetryConfig(),
		Sleep: func(_ context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		},
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	var sleeps []time.Duration
	r := recordingRetryer(&sleeps)

	calls := 0
	resp, err := r.Do(context.Background(), func() (*ChatResponse, error) {
		calls++
		return &ChatResponse{Content: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Content != "ok" || calls != 1 || len(sleeps) != 0 {
		t.Errorf("calls=%d sleeps=%v", calls, sleeps)
	}
}

func TestRetryBacksOffThenRecovers(t *testing.T) {
	var sleeps []time.Duration
	r := recordingRetryer(&sleeps)

	calls := 0
	resp, err := r.Do(context.Background(), func() (*ChatResponse, error) {
		calls++
		if calls < 3 {
			return nil, &Error{Kind: KindNetwork, Provider: "test", Message: "reset"}
		}
		return &ChatResponse{Content: "recovered"}, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Content != "recovered" || calls != 3 {
		t.Errorf("calls=%d resp=%+v", calls, resp)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeps) != 2 || sleeps[0] != want[0] || sleeps[1] != want[1] {
		t.Errorf("sleeps = %v, want %v", sleeps, want)
	}
}

func TestRetryExhaustion(t *testing.T) {
	var sleeps []time.Duration
	r := recordingRetryer(&sleeps)

	calls := 0
	_, err := r.Do(context.Background(), func() (*ChatResponse, error) {
		calls++
		return nil, &Error{Kind: KindServiceUnavailable, Provider: "test", Status: 503}
	})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// No sleep after the final attempt.
	if len(sleeps) != 2 {
		t.Errorf("sleeps = %v, want 2 entries", sleeps)
	}
}

func TestRetryNonRetryableSurfacesImmediately(t *testing.T) {
	for _, kind := range []Kind{KindRateLimited, KindModelUnsupported, KindNoAPIKey} {
		var sleeps []time.Duration
		r := recordingRetryer(&sleeps)

		calls := 0
		_, err := r.Do(context.Background(), func() (*ChatResponse, error) {
			calls++
			return nil, &Error{Kind: kind, Provider: "test"}
		})

		var perr *Error
		if !errors.As(err, &perr) || perr.Kind != kind {
			t.Errorf("kind %v: got %v", kind, err)
		}
		if calls != 1 || len(sleeps) != 0 {
			t.Errorf("kind %v: calls=%d sleeps=%v, want single attempt", kind, calls, sleeps)
		}
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetryer(nil)
	calls := 0
	_, err := r.Do(ctx, func() (*ChatResponse, error) {
		calls++
		return nil, &Error{Kind: KindNetwork, Provider: "test"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("fn called %d times on cancelled context", calls)
	}
}

func TestRetrySleepObservesShutdown(t *testing.T) {
	var flag atomic.Bool
	flag.Store(true)

	r := NewRetryer(&flag)
	start := time.Now()
	err := r.sleep(context.Background(), 10*time.Second)
	if !errors.Is(err, ErrShutdown) {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("sleep took %s despite shutdown", elapsed)
	}
}

func TestRetryShutdownDuringBackoff(t *testing.T) {
	var flag atomic.Bool
	flag.Store(true)

	r := NewRetryer(&flag)
	calls := 0
	_, err := r.Do(context.Background(), func() (*ChatResponse, error) {
		calls++
		return nil, &Error{Kind: KindNetwork, Provider: "test", Message: "reset"}
	})
	if !errors.Is(err, ErrShutdown) {
		t.Fatalf("expected ErrShutdown from aborted backoff, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (shutdown cancels remaining attempts)", calls)
	}
}
