// Package backoff provides delay strategies and an around aspect that
// postpones target invocation according to a pluggable strategy.
//
// A Strategy is a pure function from the current delay to the next
// one; the aspect has no opinion on the shape of the curve. Constant,
// Linear and Exponential cover the common cases, and FromBackOff
// adapts any github.com/cenkalti/backoff/v5 policy. The per-call
// Context carries the delay of the next attempt and only mutates
// inside the aspect's advice.
package backoff
