// Package sqlite implements store.Store on top of modernc.org/sqlite,
// grounded on pkg/korel/store/sqlite's OpenSQLite (WAL pragma, schema
// creation on open, plain database/sql queries) resized to this
// module's three record kinds instead of korel's documents/tokens/cards.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/wordseg/pkg/wordseg/store"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database at path with WAL mode enabled and
// ensures the schema exists.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS iterations (
	run_id TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	temperature REAL NOT NULL,
	log_likelihood REAL NOT NULL,
	at TEXT NOT NULL,
	PRIMARY KEY(run_id, iteration)
);

CREATE TABLE IF NOT EXISTS checkpoints (
	run_id TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	segmented TEXT NOT NULL,
	at TEXT NOT NULL,
	PRIMARY KEY(run_id, iteration)
);

CREATE TABLE IF NOT EXISTS evaluations (
	run_id TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	boundary_f1 REAL NOT NULL,
	token_f1 REAL NOT NULL,
	lexicon_f1 REAL NOT NULL,
	twoafc_score REAL NOT NULL,
	at TEXT NOT NULL,
	PRIMARY KEY(run_id, iteration)
);
`
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("sqlite: init schema: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) RecordIteration(ctx context.Context, rec store.IterationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO iterations(run_id, iteration, temperature, log_likelihood, at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, iteration) DO UPDATE SET temperature=excluded.temperature, log_likelihood=excluded.log_likelihood, at=excluded.at`,
		rec.RunID, rec.Iteration, rec.Temperature, rec.LogLikelihood, rec.At.Format(time.RFC3339Nano))
	return err
}

func (s *sqliteStore) RecordCheckpoint(ctx context.Context, cp store.LexiconCheckpoint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints(run_id, iteration, segmented, at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, iteration) DO UPDATE SET segmented=excluded.segmented, at=excluded.at`,
		cp.RunID, cp.Iteration, cp.Segmented, cp.At.Format(time.RFC3339Nano))
	return err
}

func (s *sqliteStore) RecordEvaluation(ctx context.Context, ev store.EvaluationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations(run_id, iteration, boundary_f1, token_f1, lexicon_f1, twoafc_score, at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, iteration) DO UPDATE SET boundary_f1=excluded.boundary_f1, token_f1=excluded.token_f1, lexicon_f1=excluded.lexicon_f1, twoafc_score=excluded.twoafc_score, at=excluded.at`,
		ev.RunID, ev.Iteration, ev.BoundaryF1, ev.TokenF1, ev.LexiconF1, ev.TwoAFCScore, ev.At.Format(time.RFC3339Nano))
	return err
}

func (s *sqliteStore) IterationHistory(ctx context.Context, runID string) ([]store.IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, temperature, log_likelihood, at FROM iterations WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.IterationRecord
	for rows.Next() {
		var rec store.IterationRecord
		var at string
		rec.RunID = runID
		if err := rows.Scan(&rec.Iteration, &rec.Temperature, &rec.LogLikelihood, &at); err != nil {
			return nil, err
		}
		rec.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Checkpoints(ctx context.Context, runID string) ([]store.LexiconCheckpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, segmented, at FROM checkpoints WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.LexiconCheckpoint
	for rows.Next() {
		var cp store.LexiconCheckpoint
		var at string
		cp.RunID = runID
		if err := rows.Scan(&cp.Iteration, &cp.Segmented, &at); err != nil {
			return nil, err
		}
		cp.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Evaluations(ctx context.Context, runID string) ([]store.EvaluationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, boundary_f1, token_f1, lexicon_f1, twoafc_score, at FROM evaluations WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EvaluationRecord
	for rows.Next() {
		var ev store.EvaluationRecord
		var at string
		ev.RunID = runID
		if err := rows.Scan(&ev.Iteration, &ev.BoundaryF1, &ev.TokenF1, &ev.LexiconF1, &ev.TwoAFCScore, &at); err != nil {
			return nil, err
		}
		ev.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
