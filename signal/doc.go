// Package signal provides typed, prioritized control-flow values for
// the weaving engine.
//
// A Signal is an expected outcome, not an implementation fault: "retry
// this attempt", "the attempt timed out", "attempts are exhausted",
// "a middleware's private context was never initialized". Signals
// implement error so they travel through ordinary error returns, but
// consumers are expected to match on Kind rather than treat them as
// generic failures. When several signals apply in the same turn,
// Resolve picks the one with the highest fixed priority.
package signal
