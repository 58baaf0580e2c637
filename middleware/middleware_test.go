package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

type timerState struct {
	started  int
	complete int
	failed   int
	cleaned  int
	cause    error
}

func timerOptions() Options[timerState] {
	return Options[timerState]{
		Name:       "timer",
		NewContext: func() *timerState { return &timerState{} },
		Before: func(_ context.Context, s *timerState) error {
			s.started++
			return nil
		},
		Complete: func(_ context.Context, s *timerState) error {
			s.complete++
			return nil
		},
		Failure: func(_ context.Context, s *timerState, cause error) error {
			s.failed++
			s.cause = cause
			return nil
		},
		Cleanup: func(_ context.Context, s *timerState) error {
			s.cleaned++
			return nil
		},
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options[timerState]{NewContext: func() *timerState { return nil }}); !errors.Is(err, ErrNoName) {
		t.Errorf("New() error = %v, want ErrNoName", err)
	}
	if _, err := New(Options[timerState]{Name: "x"}); !errors.Is(err, ErrNoContext) {
		t.Errorf("New() error = %v, want ErrNoContext", err)
	}
}

func TestNew_HookWiring(t *testing.T) {
	aspect, err := New(timerOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if aspect.Name != "timer" {
		t.Errorf("Name = %q, want timer", aspect.Name)
	}
	if aspect.Before == nil || aspect.AfterReturning == nil || aspect.AfterThrowing == nil || aspect.After == nil {
		t.Error("all four hooks must be wired")
	}
	if aspect.Around != nil {
		t.Error("middleware must not declare around advice")
	}
	for _, adv := range []*weave.Advice{aspect.Before, aspect.AfterReturning, aspect.AfterThrowing, aspect.After} {
		if len(adv.Use) != 1 || adv.Use[0] != weave.Section("timer") {
			t.Errorf("Use = %v, want exactly the middleware's own section", adv.Use)
		}
	}
}

// observedState reads the middleware's state after the call by sharing
// the generated instance through the closure.
func TestNew_SuccessPath(t *testing.T) {
	opts := timerOptions()
	var state *timerState
	gen := opts.NewContext
	opts.NewContext = func() *timerState {
		state = gen()
		return state
	}

	aspect, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}

	out, err := w.Weave(func(context.Context) (any, error) {
		return "ok", nil
	}).Call(context.Background())
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("Value = %v, want ok", out.Value)
	}

	if state.started != 1 || state.complete != 1 || state.cleaned != 1 {
		t.Errorf("state = %+v, want before/complete/cleanup once each", state)
	}
	if state.failed != 0 {
		t.Errorf("failed = %d, want 0 on success", state.failed)
	}
}

func TestNew_FailurePath(t *testing.T) {
	opts := timerOptions()
	var state *timerState
	gen := opts.NewContext
	opts.NewContext = func() *timerState {
		state = gen()
		return state
	}

	aspect, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}

	boom := errors.New("boom")
	_, err = w.Weave(func(context.Context) (any, error) {
		return nil, boom
	}).Call(context.Background())
	if err == nil {
		t.Fatal("Call() error = nil, want target failure")
	}

	if state.failed != 1 || state.complete != 0 {
		t.Errorf("state = %+v, want failure once and no complete", state)
	}
	if state.cleaned != 1 {
		t.Errorf("cleaned = %d, want cleanup even on failure", state.cleaned)
	}
	if state.cause == nil || !errors.Is(state.cause, boom) {
		t.Errorf("cause = %v, want chain containing the target error", state.cause)
	}
}

func TestNew_InvalidContextSignal(t *testing.T) {
	aspect, err := New(timerOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}
	woven := w.Weave(func(context.Context) (any, error) { return nil, nil })

	// The section exists but was never initialized for this call.
	scope := weave.NewScope(func() map[weave.Section]any {
		return map[weave.Section]any{"timer": nil}
	})
	err = scope.Execute(context.Background(), func(ctx context.Context) error {
		_, err := woven.Invoke(ctx)
		return err
	})

	s, ok := signal.As(err)
	if !ok {
		t.Fatalf("Invoke() error = %v, want invalid-context signal", err)
	}
	if s.Kind != signal.KindInvalidContext {
		t.Errorf("Kind = %v, want KindInvalidContext", s.Kind)
	}
	if s.Middleware != "timer" {
		t.Errorf("Middleware = %q, want timer", s.Middleware)
	}
}

func TestNew_ForeignTypedSection(t *testing.T) {
	aspect, err := New(timerOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w, err := weave.NewWeaver(nil, aspect)
	if err != nil {
		t.Fatalf("NewWeaver() error = %v", err)
	}
	woven := w.Weave(func(context.Context) (any, error) { return nil, nil })

	scope := weave.NewScope(func() map[weave.Section]any {
		return map[weave.Section]any{"timer": "not a timerState"}
	})
	err = scope.Execute(context.Background(), func(ctx context.Context) error {
		_, err := woven.Invoke(ctx)
		return err
	})

	if !signal.Is(err, signal.KindInvalidContext) {
		t.Errorf("Invoke() error = %v, want invalid-context signal", err)
	}
}
