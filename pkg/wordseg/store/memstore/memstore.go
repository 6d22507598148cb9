// Package memstore is an in-memory store.Store, used in tests the
// same way pkg/korel/store/memstore is used by the teacher's test
// suites: a dependency-free double for exercising the run facade
// without a SQLite file.
package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/wordseg/pkg/wordseg/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu           sync.RWMutex
	iterations   []store.IterationRecord
	checkpoints  []store.LexiconCheckpoint
	evaluations  []store.EvaluationRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// RecordIteration implements store.Store.
func (s *Store) RecordIteration(ctx context.Context, rec store.IterationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iterations = append(s.iterations, rec)
	return nil
}

// RecordCheckpoint implements store.Store.
func (s *Store) RecordCheckpoint(ctx context.Context, cp store.LexiconCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints = append(s.checkpoints, cp)
	return nil
}

// RecordEvaluation implements store.Store.
func (s *Store) RecordEvaluation(ctx context.Context, ev store.EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations = append(s.evaluations, ev)
	return nil
}

// IterationHistory implements store.Store.
func (s *Store) IterationHistory(ctx context.Context, runID string) ([]store.IterationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterByRun(s.iterations, runID, func(r store.IterationRecord) string { return r.RunID }), nil
}

// Checkpoints implements store.Store.
func (s *Store) Checkpoints(ctx context.Context, runID string) ([]store.LexiconCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterByRun(s.checkpoints, runID, func(r store.LexiconCheckpoint) string { return r.RunID }), nil
}

// Evaluations implements store.Store.
func (s *Store) Evaluations(ctx context.Context, runID string) ([]store.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterByRun(s.evaluations, runID, func(r store.EvaluationRecord) string { return r.RunID }), nil
}

func filterByRun[T any](items []T, runID string, keyOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keyOf(it) == runID {
			out = append(out, it)
		}
	}
	return out
}
