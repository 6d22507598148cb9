// Package store defines the persistence interface a wordseg run
// writes its progress to: per-iteration trace rows, lexicon
// checkpoints, and evaluation results, grounded on
// pkg/korel/store.Store's shape (a small interface with a SQLite
// implementation and an in-memory test double) but resized to this
// module's own domain instead of documents, tokens, and cards.
package store

import (
	"context"
	"time"
)

// Store is the persistence boundary a run writes to.
type Store interface {
	Close() error

	RecordIteration(ctx context.Context, rec IterationRecord) error
	RecordCheckpoint(ctx context.Context, cp LexiconCheckpoint) error
	RecordEvaluation(ctx context.Context, ev EvaluationRecord) error

	IterationHistory(ctx context.Context, runID string) ([]IterationRecord, error)
	Checkpoints(ctx context.Context, runID string) ([]LexiconCheckpoint, error)
	Evaluations(ctx context.Context, runID string) ([]EvaluationRecord, error)
}

// IterationRecord is one row of the per-iteration trace (spec §6's
// "decimal format for log-likelihood traces").
type IterationRecord struct {
	RunID         string
	Iteration     int
	Temperature   float64
	LogLikelihood float64
	At            time.Time
}

// LexiconCheckpoint snapshots the segmented corpus at a given
// iteration, so a run can be resumed or its history inspected.
type LexiconCheckpoint struct {
	RunID     string
	Iteration int
	Segmented string
	At        time.Time
}

// EvaluationRecord is one scored pass against an eval file (spec
// §6's --eval-file/--eval-interval).
type EvaluationRecord struct {
	RunID       string
	Iteration   int
	BoundaryF1  float64
	TokenF1     float64
	LexiconF1   float64
	TwoAFCScore float64
	At          time.Time
}
