package signal

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the signal variant. The set is closed: consumers
// switch exhaustively on Kind instead of chaining type tests.
type Kind int

const (
	// KindRetry requests re-invocation of the current attempt.
	KindRetry Kind = iota
	// KindTimeout reports that the current attempt exceeded its delay.
	KindTimeout
	// KindRetryExceeded reports that all retry attempts are exhausted.
	KindRetryExceeded
	// KindInvalidContext reports that a middleware's private context
	// section was never initialized for the current call.
	KindInvalidContext
)

func (k Kind) String() string {
	switch k {
	case KindRetry:
		return "retry"
	case KindTimeout:
		return "timeout"
	case KindRetryExceeded:
		return "retry_exceeded"
	case KindInvalidContext:
		return "invalid_context"
	default:
		return "unknown"
	}
}

// Fixed priorities per kind. Higher wins when several signals compete
// in the same turn.
const (
	PriorityRetry          = 10
	PriorityTimeout        = 20
	PriorityRetryExceeded  = 30
	PriorityInvalidContext = 40
)

func (k Kind) priority() int {
	switch k {
	case KindRetry:
		return PriorityRetry
	case KindTimeout:
		return PriorityTimeout
	case KindRetryExceeded:
		return PriorityRetryExceeded
	case KindInvalidContext:
		return PriorityInvalidContext
	default:
		return 0
	}
}

// Signal is a typed, prioritized control-flow value. Construct signals
// only through the package constructors; Priority is fixed per Kind.
type Signal struct {
	Kind     Kind
	Message  string
	Priority int

	// Delay is set for KindTimeout signals.
	Delay time.Duration

	// Reason and Propagated are set for KindRetry signals. Propagated
	// marks a retry that was re-raised by an outer driver rather than
	// requested by the attempt itself.
	Reason     error
	Propagated bool

	// MaxRetry is set for KindRetryExceeded signals.
	MaxRetry int

	// Middleware is set for KindInvalidContext signals.
	Middleware string
}

// Error implements the error interface.
func (s *Signal) Error() string {
	return fmt.Sprintf("signal: %s: %s", s.Kind, s.Message)
}

// Unwrap exposes the retry reason, if any, to errors.Is/As chains.
func (s *Signal) Unwrap() error {
	return s.Reason
}

// Retry creates a signal requesting re-invocation of the target.
// reason records why the attempt is being retried and may be nil.
func Retry(reason error, propagated bool) *Signal {
	msg := "retry requested"
	if reason != nil {
		msg = "retry requested: " + reason.Error()
	}
	return &Signal{
		Kind:       KindRetry,
		Message:    msg,
		Priority:   PriorityRetry,
		Reason:     reason,
		Propagated: propagated,
	}
}

// Timeout creates a signal reporting that an attempt exceeded delay.
func Timeout(delay time.Duration) *Signal {
	return &Signal{
		Kind:     KindTimeout,
		Message:  fmt.Sprintf("timed out after %s", delay),
		Priority: PriorityTimeout,
		Delay:    delay,
	}
}

// RetryExceeded creates a signal reporting exhausted retry attempts.
func RetryExceeded(maxRetry int) *Signal {
	return &Signal{
		Kind:     KindRetryExceeded,
		Message:  fmt.Sprintf("exceeded %d attempts", maxRetry),
		Priority: PriorityRetryExceeded,
		MaxRetry: maxRetry,
	}
}

// InvalidContext creates a signal reporting that the named
// middleware's context section was never initialized for this call.
func InvalidContext(middlewareName string) *Signal {
	return &Signal{
		Kind:       KindInvalidContext,
		Message:    fmt.Sprintf("middleware %q has no context", middlewareName),
		Priority:   PriorityInvalidContext,
		Middleware: middlewareName,
	}
}

// As extracts a Signal from err, unwrapping as needed.
func As(err error) (*Signal, bool) {
	var s *Signal
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// Is reports whether err is (or wraps) a signal of the given kind.
func Is(err error, kind Kind) bool {
	s, ok := As(err)
	return ok && s.Kind == kind
}

// Resolve returns the dominant signal: the one with the highest
// priority. On equal priority the earlier signal wins. Returns nil
// when no signals are given.
func Resolve(signals ...*Signal) *Signal {
	var winner *Signal
	for _, s := range signals {
		if s == nil {
			continue
		}
		if winner == nil || s.Priority > winner.Priority {
			winner = s
		}
	}
	return winner
}
