package weave

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/weft/signal"
)

// RunMode decides what a failed advice fan-out does to the call.
type RunMode int

const (
	// Halt aborts the call; the failure propagates to the caller.
	Halt RunMode = iota
	// Continue records the failure and lets the call proceed.
	Continue
)

// Policy maps each lifecycle kind to its failure mode. Unset kinds
// default to Halt.
type Policy map[Kind]RunMode

func (p Policy) mode(kind Kind) RunMode {
	if p == nil {
		return Halt
	}
	return p[kind]
}

// Weaver orders and executes all registered aspects' advice around one
// target call. It owns the per-call State and the section lock set for
// the duration of each call.
type Weaver struct {
	aspects []*Aspect
	policy  Policy
	provide map[Section]func() any
}

// NewWeaver validates the aspects and builds a weaver. Section
// collisions across aspects and advice that use undeclared sections
// are configuration errors caught here, not at call time.
func NewWeaver(policy Policy, aspects ...*Aspect) (*Weaver, error) {
	provide := make(map[Section]func() any)
	for _, a := range aspects {
		if a == nil || a.Name == "" {
			return nil, errors.New("weave: aspect requires a name")
		}
		for sec, gen := range a.Provide {
			if _, ok := provide[sec]; ok {
				return nil, fmt.Errorf("%w: %q", ErrSectionCollision, sec)
			}
			if gen == nil {
				return nil, fmt.Errorf("weave: section %q of aspect %q has no generator", sec, a.Name)
			}
			provide[sec] = gen
		}
	}
	for _, a := range aspects {
		for _, sec := range a.declaredSections() {
			if _, ok := provide[sec]; !ok {
				return nil, fmt.Errorf("%w: %q (used by aspect %q)", ErrSectionNotDeclared, sec, a.Name)
			}
		}
	}
	return &Weaver{aspects: aspects, policy: policy, provide: provide}, nil
}

// Scope returns a scope that builds one fresh section map per call
// from the registered aspects' generators.
func (w *Weaver) Scope() *Scope {
	return NewScope(w.newSections)
}

func (w *Weaver) newSections() map[Section]any {
	out := make(map[Section]any, len(w.provide))
	for sec, gen := range w.provide {
		out[sec] = gen()
	}
	return out
}

// Weave binds a target to the weaver.
func (w *Weaver) Weave(target Target) *Woven {
	return &Woven{weaver: w, target: target}
}

// Woven is a target composed with a weaver's aspects.
type Woven struct {
	weaver *Weaver
	target Target
}

// Scope returns the weaver's scope. Drivers that re-invoke the target
// open it once so all attempts share one State.
func (wv *Woven) Scope() *Scope {
	return wv.weaver.Scope()
}

// Outcome is the settled result of a composed call: the target's value
// plus every failure recorded under a Continue policy.
type Outcome struct {
	Value      any
	Rejections []*AdviceError
}

// Call opens a fresh scope and invokes the woven target once. Each
// Call gets its own isolated State; concurrent Calls never share one.
func (wv *Woven) Call(ctx context.Context) (*Outcome, error) {
	var out *Outcome
	err := wv.weaver.Scope().Execute(ctx, func(ctx context.Context) error {
		o, err := wv.Invoke(ctx)
		out = o
		return err
	})
	return out, err
}

// Invoke runs the woven target inside an already-open scope. Retry
// drivers use it to share one State across attempts; outside a scope
// it fails with ErrContextNotFound.
//
// Stage order is fixed: before fan-out, around chain construction,
// target, afterReturning on success or afterThrowing on failure, and
// after, which always runs. A halting failure skips the remaining
// stages except after.
func (wv *Woven) Invoke(ctx context.Context) (*Outcome, error) {
	st, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}
	w := wv.weaver

	pending := w.stage(ctx, st, KindBefore)

	var value any
	targetRan := false
	if pending == nil {
		var chain Target
		chain, pending = w.aroundChain(ctx, st, wv.target)
		if pending == nil {
			targetRan = true
			var targetErr error
			value, targetErr = chain(ctx)
			if targetErr != nil {
				pending = classifyTarget(targetErr)
			}
		}
	}

	if targetRan {
		if pending == nil {
			pending = w.stage(ctx, st, KindAfterReturning)
		} else if cause := w.stage(withFailure(ctx, pending), st, KindAfterThrowing); cause != nil {
			pending = errors.Join(pending, cause)
		}
	}

	afterCtx := ctx
	if pending != nil {
		afterCtx = withFailure(ctx, pending)
	}
	if cause := w.stage(afterCtx, st, KindAfter); cause != nil {
		if pending != nil {
			pending = errors.Join(pending, cause)
		} else {
			pending = cause
		}
	}

	if pending != nil {
		return nil, haltWrap(pending)
	}
	return &Outcome{Value: value, Rejections: st.Rejections()}, nil
}

// stage runs one lifecycle kind's fan-out: every aspect that declared
// the kind is launched together, and the stage settles only once all
// of them have. Failures are collected in registration order into one
// AdviceError, then resolved per policy. The returned error is nil
// when the stage passed or its failures were recorded to continue.
func (w *Weaver) stage(ctx context.Context, st *State, kind Kind) error {
	var advices []*Advice
	for _, a := range w.aspects {
		if adv := a.advice(kind); adv != nil {
			advices = append(advices, adv)
		}
	}
	if len(advices) == 0 {
		return nil
	}

	errs := make([]error, len(advices))
	g := new(errgroup.Group)
	for i, adv := range advices {
		g.Go(func() error {
			errs[i] = runAdvice(ctx, st, adv)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return w.resolve(st, &AdviceError{Kind: kind, Errs: failures})
}

// aroundChain builds the wrapped target. Aspects wrap in registration
// order, so the first-registered aspect sits innermost and the
// original target is always the innermost call. Wrap failures are
// collected like any other fan-out; under Continue the failing
// aspect's wrapping is simply skipped.
func (w *Weaver) aroundChain(ctx context.Context, st *State, target Target) (Target, error) {
	chain := target
	var failures []error
	for _, a := range w.aspects {
		if a.Around == nil {
			continue
		}
		wrapped, err := runWrap(ctx, st, a.Around, chain)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if wrapped != nil {
			chain = wrapped
		}
	}
	if len(failures) == 0 {
		return chain, nil
	}
	if err := w.resolve(st, &AdviceError{Kind: KindAround, Errs: failures}); err != nil {
		return nil, err
	}
	return chain, nil
}

// resolve applies the halt/continue policy to one kind's aggregated
// failures. A halting fan-out whose failures are all signals surfaces
// the dominant signal instead of an engine error; mixed failures keep
// everything in the AdviceError's cause list.
func (w *Weaver) resolve(st *State, advErr *AdviceError) error {
	if w.policy.mode(advErr.Kind) == Continue {
		st.addRejection(advErr)
		return nil
	}

	sigs := make([]*signal.Signal, 0, len(advErr.Errs))
	for _, err := range advErr.Errs {
		s, ok := signal.As(err)
		if !ok {
			return advErr
		}
		sigs = append(sigs, s)
	}
	return signal.Resolve(sigs...)
}

func runAdvice(ctx context.Context, st *State, adv *Advice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UnknownError{Value: r}
		}
	}()
	return st.Use(adv.Use, func(v *View) error {
		return adv.Run(ctx, v)
	})
}

func runWrap(ctx context.Context, st *State, adv *AroundAdvice, next Target) (wrapped Target, err error) {
	defer func() {
		if r := recover(); r != nil {
			wrapped, err = nil, &UnknownError{Value: r}
		}
	}()
	err = st.Use(adv.Use, func(v *View) error {
		t, werr := adv.Wrap(ctx, v, next)
		wrapped = t
		return werr
	})
	if err != nil {
		return nil, err
	}
	return wrapped, nil
}

// classifyTarget turns a target failure into its propagating form: a
// signal travels as itself, anything else wraps in TargetError so
// callers can tell "the work failed" from "the policy failed".
func classifyTarget(err error) error {
	if s, ok := signal.As(err); ok {
		return s
	}
	return &TargetError{Err: err}
}

// haltWrap gives a pending failure its terminal form. Signals pass
// through untouched; causes carrying an UnknownError become
// UnknownHaltError; everything else becomes HaltError.
func haltWrap(cause error) error {
	if s, ok := cause.(*signal.Signal); ok {
		return s
	}
	var unknown *UnknownError
	if errors.As(cause, &unknown) {
		return &UnknownHaltError{Err: cause}
	}
	return &HaltError{Err: cause}
}
