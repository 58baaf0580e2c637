package weave

import (
	"context"
)

type contextKey int

const (
	stateKey contextKey = iota
	failureKey
)

// Scope isolates top-level calls from each other: every Execute builds
// one fresh State and threads it through the context for the call's
// full dynamic extent. Two concurrent calls through the same scope
// never observe each other's State.
type Scope struct {
	generator func() map[Section]any
}

// NewScope creates a scope whose Execute builds section values with
// gen. gen may be nil, in which case only ExecuteWith is usable.
func NewScope(gen func() map[Section]any) *Scope {
	return &Scope{generator: gen}
}

// Execute creates a fresh State from the scope's generator and runs op
// with that State bound to the context. The State is discarded when op
// settles.
func (s *Scope) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if s.generator == nil {
		return ErrNoGenerator
	}
	return s.ExecuteWith(ctx, s.generator(), op)
}

// ExecuteWith is Execute with caller-supplied section values.
func (s *Scope) ExecuteWith(ctx context.Context, sections map[Section]any, op func(ctx context.Context) error) error {
	st := newState(sections)
	return op(context.WithValue(ctx, stateKey, st))
}

// FromContext returns the State of the enclosing Execute/ExecuteWith.
// Outside an active scope it fails with ErrContextNotFound.
func FromContext(ctx context.Context) (*State, error) {
	st, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, ErrContextNotFound
	}
	return st, nil
}

// withFailure binds the call's pending failure for the afterThrowing
// and after stages.
func withFailure(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, failureKey, err)
}

// FailureFromContext returns the failure the current call is settling
// with. It is non-nil only inside afterThrowing and after advice of a
// failing call.
func FailureFromContext(ctx context.Context) error {
	err, _ := ctx.Value(failureKey).(error)
	return err
}
