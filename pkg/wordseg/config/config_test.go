package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRunIsValid(t *testing.T) {
	if err := DefaultRun().Validate(); err != nil {
		t.Fatalf("DefaultRun() should validate cleanly: %v", err)
	}
}

func TestValidateRejectsFlipOnline(t *testing.T) {
	r := DefaultRun()
	r.Estimator = EstimatorFlip
	r.Mode = ModeOnline
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for flip+online")
	}
}

func TestValidateRejectsDecayedBatch(t *testing.T) {
	r := DefaultRun()
	r.Estimator = EstimatorDecayed
	r.Mode = ModeBatch
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for decayed+batch")
	}
}

func TestValidateRejectsTrainFracOutOfRange(t *testing.T) {
	r := DefaultRun()
	r.TrainFrac = 1.5
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for train_frac > 1")
	}
}

func TestValidateRejectsBigramDecayedWithForgetRate(t *testing.T) {
	r := DefaultRun()
	r.Ngram = 2
	r.Estimator = EstimatorDecayed
	r.Mode = ModeOnline
	r.ForgetRate = 0.1
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for bigram decayed-MCMC with forget_rate")
	}
}

func TestValidateRejectsUnknownBaseDist(t *testing.T) {
	r := DefaultRun()
	r.BaseDist = "not-a-real-dist"
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for an unknown base_dist")
	}
}

func TestValidateAcceptsEveryKnownBaseDist(t *testing.T) {
	for _, bd := range []BaseDist{BaseDistGeometric, BaseDistGeometricNonEmpty, BaseDistLearned, BaseDistLearnedBigram, BaseDistMBDP} {
		r := DefaultRun()
		r.BaseDist = bd
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate() rejected base_dist=%q: %v", bd, err)
		}
	}
}

func TestLoaderAppliesDefaultsThenOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte("niterations: 50\nestimator: tree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{Path: path}
	run, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if run.NIterations != 50 {
		t.Fatalf("NIterations = %d, want 50", run.NIterations)
	}
	if run.Estimator != EstimatorTree {
		t.Fatalf("Estimator = %v, want tree", run.Estimator)
	}
	if run.PYB != 1 {
		t.Fatalf("PYB = %v, want default 1 to survive an unset field", run.PYB)
	}
}

func TestLoaderWithEmptyPathReturnsDefaults(t *testing.T) {
	l := &Loader{}
	run, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if run != DefaultRun() {
		t.Fatalf("Load() with no path = %+v, want DefaultRun()", run)
	}
}

func TestDefaultAGRunRequiresGrammarFile(t *testing.T) {
	r := DefaultAGRun()
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for a missing grammar_file")
	}
	r.GrammarFile = "grammar.txt"
	if err := r.Validate(); err != nil {
		t.Fatalf("DefaultAGRun() with grammar_file set should validate cleanly: %v", err)
	}
}

func TestAGRunValidateRejectsOutOfRangeDefaultA(t *testing.T) {
	r := DefaultAGRun()
	r.GrammarFile = "grammar.txt"
	r.DefaultA = 1.5
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for default_a > 1")
	}
}

func TestAGRunValidateRejectsNonPositiveDefaultB(t *testing.T) {
	r := DefaultAGRun()
	r.GrammarFile = "grammar.txt"
	r.DefaultB = 0
	if err := r.Validate(); err == nil {
		t.Fatal("expected a config conflict for default_b <= 0")
	}
}

func TestAGLoaderAppliesDefaultsThenOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ag.yaml")
	if err := os.WriteFile(path, []byte("niterations: 200\ngrammar_file: grammar.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &AGLoader{Path: path}
	run, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if run.NIterations != 200 {
		t.Fatalf("NIterations = %d, want 200", run.NIterations)
	}
	if run.GrammarFile != "grammar.txt" {
		t.Fatalf("GrammarFile = %q, want grammar.txt", run.GrammarFile)
	}
	if run.DefaultB != 1 {
		t.Fatalf("DefaultB = %v, want default 1 to survive an unset field", run.DefaultB)
	}
}

func TestAGLoaderWithEmptyPathReturnsDefaults(t *testing.T) {
	l := &AGLoader{}
	run, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if run != DefaultAGRun() {
		t.Fatalf("Load() with no path = %+v, want DefaultAGRun()", run)
	}
}
