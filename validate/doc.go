// Package validate provides a token-validation middleware for woven
// calls.
//
// The JWT middleware parses and validates a bearer token before the
// target runs, storing the verified claims in its own context section
// so later stages of the same call can read the principal. Invalid,
// expired or missing tokens fail the before stage and are subject to
// the weaver's halt/continue policy like any other advice failure.
package validate
