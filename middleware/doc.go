// Package middleware builds named, typed middleware units on top of
// the weaving engine's advice protocol.
//
// A middleware is defined by a context generator and up to four
// lifecycle callbacks: Before, Complete (target succeeded), Failure
// (target or an earlier advice failed), and Cleanup (always runs).
// New wires the callbacks into one weave.Aspect whose advices request
// exactly one section, keyed by the middleware's own name. A section
// value that was never initialized for the call raises
// signal.InvalidContext instead of invoking the user callback, turning
// "a middleware references its own private state" into a single
// well-defined failure mode.
package middleware
