package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/wordseg/pkg/wordseg/store"
)

func TestOpenRecordsAndReadsBackIterations(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "run.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	rec := store.IterationRecord{RunID: "r1", Iteration: 1, Temperature: 1, LogLikelihood: -12.5, At: time.Now()}
	if err := st.RecordIteration(ctx, rec); err != nil {
		t.Fatalf("RecordIteration: %v", err)
	}

	got, err := st.IterationHistory(ctx, "r1")
	if err != nil {
		t.Fatalf("IterationHistory: %v", err)
	}
	if len(got) != 1 || got[0].LogLikelihood != rec.LogLikelihood {
		t.Fatalf("IterationHistory = %+v, want one record matching %+v", got, rec)
	}
}

func TestRecordIterationUpsertsOnConflict(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "run.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	base := store.IterationRecord{RunID: "r1", Iteration: 1, Temperature: 1, LogLikelihood: -1, At: time.Now()}
	if err := st.RecordIteration(ctx, base); err != nil {
		t.Fatalf("RecordIteration: %v", err)
	}
	base.LogLikelihood = -2
	if err := st.RecordIteration(ctx, base); err != nil {
		t.Fatalf("RecordIteration (update): %v", err)
	}

	got, err := st.IterationHistory(ctx, "r1")
	if err != nil {
		t.Fatalf("IterationHistory: %v", err)
	}
	if len(got) != 1 || got[0].LogLikelihood != -2 {
		t.Fatalf("IterationHistory = %+v, want a single updated record", got)
	}
}

func TestCheckpointsAndEvaluationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "run.db")

	st, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	cp := store.LexiconCheckpoint{RunID: "r1", Iteration: 3, Segmented: "th e\ncat\n", At: time.Now()}
	if err := st.RecordCheckpoint(ctx, cp); err != nil {
		t.Fatalf("RecordCheckpoint: %v", err)
	}
	ev := store.EvaluationRecord{RunID: "r1", Iteration: 3, BoundaryF1: 0.9, TokenF1: 0.8, LexiconF1: 0.7, At: time.Now()}
	if err := st.RecordEvaluation(ctx, ev); err != nil {
		t.Fatalf("RecordEvaluation: %v", err)
	}

	cps, err := st.Checkpoints(ctx, "r1")
	if err != nil || len(cps) != 1 || cps[0].Segmented != cp.Segmented {
		t.Fatalf("Checkpoints = %+v, err %v", cps, err)
	}
	evs, err := st.Evaluations(ctx, "r1")
	if err != nil || len(evs) != 1 || evs[0].BoundaryF1 != ev.BoundaryF1 {
		t.Fatalf("Evaluations = %+v, err %v", evs, err)
	}
}
