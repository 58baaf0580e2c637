package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/weft/backoff"
	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

func newWoven(t *testing.T, target weave.Target, aspects ...*weave.Aspect) *weave.Woven {
	t.Helper()
	w, err := weave.NewWeaver(nil, aspects...)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}
	return w.Weave(target)
}

func TestNewDriver_Defaults(t *testing.T) {
	d := NewDriver(Config{})
	if d.config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", d.config.MaxAttempts)
	}
	if !d.config.RetryIf(signal.Retry(nil, false)) {
		t.Error("default RetryIf must retry on a retry signal")
	}
	if !d.config.RetryIf(signal.Timeout(time.Second)) {
		t.Error("default RetryIf must retry on a timeout signal")
	}
	if d.config.RetryIf(errors.New("plain failure")) {
		t.Error("default RetryIf must give up on non-signal failures")
	}
}

func TestDriver_SuccessOnFirstAttempt(t *testing.T) {
	attempts := 0
	woven := newWoven(t, func(context.Context) (any, error) {
		attempts++
		return "ok", nil
	})

	out, err := NewDriver(Config{}).Do(context.Background(), woven)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("Value = %v, want ok", out.Value)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDriver_RetriesOnSignal(t *testing.T) {
	attempts := 0
	woven := newWoven(t, func(context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, signal.Retry(errors.New("transient"), false)
		}
		return "eventually", nil
	})

	out, err := NewDriver(Config{MaxAttempts: 5}).Do(context.Background(), woven)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out.Value != "eventually" {
		t.Errorf("Value = %v, want eventually", out.Value)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDriver_Exhaustion(t *testing.T) {
	attempts := 0
	woven := newWoven(t, func(context.Context) (any, error) {
		attempts++
		return nil, signal.Retry(nil, false)
	})

	_, err := NewDriver(Config{MaxAttempts: 4}).Do(context.Background(), woven)

	s, ok := signal.As(err)
	if !ok {
		t.Fatalf("Do() error = %v, want retry-exceeded signal", err)
	}
	if s.Kind != signal.KindRetryExceeded {
		t.Errorf("Kind = %v, want KindRetryExceeded", s.Kind)
	}
	if s.MaxRetry != 4 {
		t.Errorf("MaxRetry = %d, want 4", s.MaxRetry)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4", attempts)
	}
}

func TestDriver_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	woven := newWoven(t, func(context.Context) (any, error) {
		attempts++
		return nil, boom
	})

	_, err := NewDriver(Config{MaxAttempts: 5}).Do(context.Background(), woven)
	if !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want the target failure", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDriver_OnRetryCallback(t *testing.T) {
	woven := newWoven(t, func(context.Context) (any, error) {
		return nil, signal.Retry(nil, false)
	})

	var calls []int
	_, _ = NewDriver(Config{
		MaxAttempts: 3,
		OnRetry: func(attempt int, err error) {
			calls = append(calls, attempt)
		},
	}).Do(context.Background(), woven)

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("OnRetry calls = %v, want [1 2]", calls)
	}
}

func TestDriver_BackoffDelayGrowsAcrossAttempts(t *testing.T) {
	var mu sync.Mutex
	var seen []time.Duration
	strategy := &backoff.Strategy{
		Type: "recording",
		Next: func(d time.Duration) time.Duration {
			mu.Lock()
			seen = append(seen, d)
			mu.Unlock()
			return d * 2
		},
	}
	aspect, err := backoff.Aspect("backoff", backoff.Config{Strategy: strategy, InitialDelay: 100})
	if err != nil {
		t.Fatalf("Aspect() error = %v", err)
	}

	attempts := 0
	woven := newWoven(t, func(context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, signal.Retry(nil, false)
		}
		return nil, nil
	}, aspect)

	if _, err := NewDriver(Config{MaxAttempts: 5}).Do(context.Background(), woven); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	// One scope spans all attempts, so the delay compounds.
	mu.Lock()
	defer mu.Unlock()
	want := []time.Duration{100, 200, 400}
	if len(seen) != len(want) {
		t.Fatalf("observed delays = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observed delays = %v, want %v", seen, want)
		}
	}
}

func TestDriver_CancelledContext(t *testing.T) {
	woven := newWoven(t, func(context.Context) (any, error) {
		return nil, signal.Retry(nil, false)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(Config{MaxAttempts: 10}).Do(ctx, woven)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
