package weave

import (
	"context"
)

// Section names a partition of the per-call shared context. Sections
// are the unit of declaration and locking: an advice may only touch
// the sections it lists in Use, and no two in-flight advices hold the
// same section at once.
type Section string

// Kind identifies an advice lifecycle stage. Stages execute in the
// declared order; After always runs, regardless of earlier outcomes.
type Kind int

const (
	KindBefore Kind = iota
	KindAround
	KindAfterReturning
	KindAfterThrowing
	KindAfter
)

func (k Kind) String() string {
	switch k {
	case KindBefore:
		return "before"
	case KindAround:
		return "around"
	case KindAfterReturning:
		return "after_returning"
	case KindAfterThrowing:
		return "after_throwing"
	case KindAfter:
		return "after"
	default:
		return "unknown"
	}
}

// Target is the operation a composed call wraps. The engine treats it
// as opaque.
type Target func(ctx context.Context) (any, error)

// AdviceFunc is the body of a before/afterReturning/afterThrowing/
// after advice. The view exposes exactly the sections the advice
// declared and is invalid once the advice settles.
type AdviceFunc func(ctx context.Context, view *View) error

// AroundFunc builds a replacement target. next is the target as
// wrapped so far; returning nil keeps it unchanged. The view is only
// valid during the wrap call itself, not inside the returned Target.
type AroundFunc func(ctx context.Context, view *View, next Target) (Target, error)

// Advice pairs a declared section set with an advice body.
type Advice struct {
	Use []Section
	Run AdviceFunc
}

// AroundAdvice pairs a declared section set with a target wrapper.
type AroundAdvice struct {
	Use  []Section
	Wrap AroundFunc
}

// Aspect is a named bundle of lifecycle advice contributed to a
// composed call. Provide lists the sections the aspect owns and their
// per-call value generators; section names must be unique across all
// aspects registered with one weaver.
type Aspect struct {
	Name    string
	Provide map[Section]func() any

	Before         *Advice
	Around         *AroundAdvice
	AfterReturning *Advice
	AfterThrowing  *Advice
	After          *Advice
}

// AspectOption configures an Aspect.
type AspectOption func(*Aspect)

// NewAspect creates a named aspect.
func NewAspect(name string, opts ...AspectOption) *Aspect {
	a := &Aspect{
		Name:    name,
		Provide: make(map[Section]func() any),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithSection declares a section owned by the aspect along with its
// per-call value generator.
func WithSection(name Section, gen func() any) AspectOption {
	return func(a *Aspect) {
		a.Provide[name] = gen
	}
}

// WithBefore attaches a before advice.
func WithBefore(use []Section, fn AdviceFunc) AspectOption {
	return func(a *Aspect) {
		a.Before = &Advice{Use: use, Run: fn}
	}
}

// WithAround attaches an around advice.
func WithAround(use []Section, fn AroundFunc) AspectOption {
	return func(a *Aspect) {
		a.Around = &AroundAdvice{Use: use, Wrap: fn}
	}
}

// WithAfterReturning attaches an advice that runs only when the target
// succeeds.
func WithAfterReturning(use []Section, fn AdviceFunc) AspectOption {
	return func(a *Aspect) {
		a.AfterReturning = &Advice{Use: use, Run: fn}
	}
}

// WithAfterThrowing attaches an advice that runs only when the target
// fails.
func WithAfterThrowing(use []Section, fn AdviceFunc) AspectOption {
	return func(a *Aspect) {
		a.AfterThrowing = &Advice{Use: use, Run: fn}
	}
}

// WithAfter attaches a cleanup advice that always runs.
func WithAfter(use []Section, fn AdviceFunc) AspectOption {
	return func(a *Aspect) {
		a.After = &Advice{Use: use, Run: fn}
	}
}

// advice returns the plain advice for the given kind, or nil. Around
// is excluded; it has its own shape.
func (a *Aspect) advice(kind Kind) *Advice {
	switch kind {
	case KindBefore:
		return a.Before
	case KindAfterReturning:
		return a.AfterReturning
	case KindAfterThrowing:
		return a.AfterThrowing
	case KindAfter:
		return a.After
	default:
		return nil
	}
}

// declaredSections returns every section any advice of the aspect
// lists in Use.
func (a *Aspect) declaredSections() []Section {
	var out []Section
	for _, adv := range []*Advice{a.Before, a.AfterReturning, a.AfterThrowing, a.After} {
		if adv != nil {
			out = append(out, adv.Use...)
		}
	}
	if a.Around != nil {
		out = append(out, a.Around.Use...)
	}
	return out
}
