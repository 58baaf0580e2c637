package middleware

import (
	"context"
	"errors"

	"github.com/jonwraymond/weft/signal"
	"github.com/jonwraymond/weft/weave"
)

// Construction errors.
var (
	// ErrNoName is returned when a middleware is built without a name.
	ErrNoName = errors.New("middleware: name is required")

	// ErrNoContext is returned when a middleware is built without a
	// context generator.
	ErrNoContext = errors.New("middleware: context generator is required")
)

// Hook is a lifecycle callback over the middleware's private state.
type Hook[S any] func(ctx context.Context, state *S) error

// FailureHook additionally receives the failure the call is settling
// with.
type FailureHook[S any] func(ctx context.Context, state *S, cause error) error

// Options defines a middleware. Name doubles as the section key for
// the middleware's private state; it must be unique among everything
// registered with one weaver.
type Options[S any] struct {
	Name       string
	NewContext func() *S

	// Before runs before the target. Complete runs only when the call
	// succeeds, Failure only when it fails, Cleanup always.
	Before   Hook[S]
	Complete Hook[S]
	Cleanup  Hook[S]
	Failure  FailureHook[S]
}

// New wires the options into one weave.Aspect. Each attached advice
// declares exactly the middleware's own section.
func New[S any](opts Options[S]) (*weave.Aspect, error) {
	if opts.Name == "" {
		return nil, ErrNoName
	}
	if opts.NewContext == nil {
		return nil, ErrNoContext
	}

	sec := weave.Section(opts.Name)
	use := []weave.Section{sec}

	aspectOpts := []weave.AspectOption{
		weave.WithSection(sec, func() any { return opts.NewContext() }),
	}

	adapt := func(hook Hook[S]) weave.AdviceFunc {
		return func(ctx context.Context, v *weave.View) error {
			state, err := stateOf[S](v, sec, opts.Name)
			if err != nil {
				return err
			}
			return hook(ctx, state)
		}
	}

	if opts.Before != nil {
		aspectOpts = append(aspectOpts, weave.WithBefore(use, adapt(opts.Before)))
	}
	if opts.Complete != nil {
		aspectOpts = append(aspectOpts, weave.WithAfterReturning(use, adapt(opts.Complete)))
	}
	if opts.Failure != nil {
		hook := opts.Failure
		aspectOpts = append(aspectOpts, weave.WithAfterThrowing(use, func(ctx context.Context, v *weave.View) error {
			state, err := stateOf[S](v, sec, opts.Name)
			if err != nil {
				return err
			}
			return hook(ctx, state, weave.FailureFromContext(ctx))
		}))
	}
	if opts.Cleanup != nil {
		aspectOpts = append(aspectOpts, weave.WithAfter(use, adapt(opts.Cleanup)))
	}

	return weave.NewAspect(opts.Name, aspectOpts...), nil
}

// stateOf extracts the middleware's typed state from its section. A
// nil or foreign-typed value means the section was never initialized
// for this call and surfaces as an invalid-context signal.
func stateOf[S any](v *weave.View, sec weave.Section, name string) (*S, error) {
	val, err := v.Get(sec)
	if err != nil {
		return nil, err
	}
	state, ok := val.(*S)
	if !ok || state == nil {
		return nil, signal.InvalidContext(name)
	}
	return state, nil
}
