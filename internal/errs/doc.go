// Package errs holds the error taxonomy shared by every hugegraph package.
//
// The public packages re-export these values so callers can match them with
// errors.Is regardless of which package produced the error.
package errs
