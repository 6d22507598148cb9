// Package wserr centralizes the sentinel errors surfaced across the
// segmentation engines, in the style of pkg/korel/internalerr: callers
// wrap a sentinel with fmt.Errorf("%w", ...) and test with errors.Is.
package wserr

import "errors"

var (
	// ErrMalformedInput covers an empty sentence, an unreadable
	// grammar rule, or an a/b hyperparameter out of range.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNumericUnderflow marks an underflow during CKY or derivation
	// re-count; the caller logs a warning and skips or retries rather
	// than failing the run.
	ErrNumericUnderflow = errors.New("numeric underflow")

	// ErrParseFailure marks a sentence the Earley filter or CKY chart
	// could not derive at all; fatal for that sentence.
	ErrParseFailure = errors.New("parse failure")

	// ErrInvariantViolation marks a detected structural bug (negative
	// count, restaurant sum mismatch, ...).
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConfigConflict marks an inconsistent combination of run
	// settings (flip+online, decayed+batch, train_frac outside
	// [0,1], bigram decayed-MCMC with forget_rate set).
	ErrConfigConflict = errors.New("configuration conflict")
)
