package weave

import (
	"errors"
	"fmt"
)

// Sentinel errors for the weaving engine.
var (
	// ErrSectionNotDeclared is returned when an advice touches a
	// section it never declared.
	ErrSectionNotDeclared = errors.New("weave: section not declared")

	// ErrSectionInUse is returned when a requested section is checked
	// out by another advice.
	ErrSectionInUse = errors.New("weave: section in use")

	// ErrReadOnlyView is returned on any attempt to mutate a view.
	ErrReadOnlyView = errors.New("weave: view is read-only")

	// ErrContextNotFound is returned when the per-call state is
	// accessed outside an active scope.
	ErrContextNotFound = errors.New("weave: context not found")

	// ErrNoGenerator is returned by Execute on a scope built without
	// a generator.
	ErrNoGenerator = errors.New("weave: scope has no generator")

	// ErrSectionCollision is returned when two aspects provide the
	// same section.
	ErrSectionCollision = errors.New("weave: section provided by multiple aspects")
)

// TargetError wraps a failure of the target operation itself, as
// opposed to a failure of cross-cutting advice.
type TargetError struct {
	Err error
}

func (e *TargetError) Error() string {
	return "weave: target failed: " + e.Err.Error()
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// AdviceError aggregates every failure produced during one lifecycle
// kind's fan-out, in aspect registration order. It is only constructed
// by the weaver.
type AdviceError struct {
	Kind Kind
	Errs []error
}

func (e *AdviceError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("weave: %s advice failed: %v", e.Kind, e.Errs[0])
	}
	return fmt.Sprintf("weave: %d %s advices failed: %v", len(e.Errs), e.Kind, e.Errs[0])
}

// Unwrap exposes every collected cause to errors.Is/As chains.
func (e *AdviceError) Unwrap() []error {
	return e.Errs
}

// HaltError is the terminal failure of a composed call. It wraps the
// true cause chain and always propagates to the caller. Like
// AdviceError it is only constructed by the weaver.
type HaltError struct {
	Err error
}

func (e *HaltError) Error() string {
	return "weave: halted: " + e.Err.Error()
}

func (e *HaltError) Unwrap() error {
	return e.Err
}

// UnknownHaltError is a HaltError whose cause chain contains a failure
// that was not one of the engine's own types.
type UnknownHaltError struct {
	Err error
}

func (e *UnknownHaltError) Error() string {
	return "weave: halted on unknown failure: " + e.Err.Error()
}

func (e *UnknownHaltError) Unwrap() error {
	return e.Err
}

// UnknownError wraps a value that escaped an advice body without being
// an error the engine understands, typically a recovered panic.
type UnknownError struct {
	Value any
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("weave: unknown failure: %v", e.Value)
}

// Unwrap returns the wrapped value when it is itself an error.
func (e *UnknownError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
