// Package weave is an aspect-weaving execution engine for
// asynchronous operations.
//
// Independent aspects attach lifecycle advice (before, around,
// afterReturning, afterThrowing, after) around a single target call.
// The engine guarantees that each advice only touches the context
// sections it declared, that no two in-flight advices hold the same
// section at once, and that advice failures are classified and either
// halt the composed call or are collected and continued, per a
// caller-supplied Policy.
//
// A Weaver validates and orders the registered aspects; Weave binds a
// target; Call runs the composed call with a fresh, isolated per-call
// State. Concurrent calls through the same Woven never observe each
// other's state. Retry drivers that need one State across several
// attempts open a scope themselves and use Invoke.
package weave
