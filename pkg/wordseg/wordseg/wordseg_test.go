package wordseg

import (
	"context"
	"strings"
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/config"
	"github.com/cognicore/wordseg/pkg/wordseg/corpus"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

func testRunConfig() config.Run {
	cfg := config.DefaultRun()
	cfg.NIterations = 50
	cfg.RandSeed = 7
	cfg.HyperResampleEvery = 0
	cfg.InitPBoundary = 0.5
	return cfg
}

// TestTrainViterbiConvergesLexiconToRepeatedWord is spec.md scenario 1:
// two identical two-character utterances, enough batch iterations for
// the Viterbi estimator to settle on the repeated word "ab" with a
// lexicon token count of 2. It fails if resampleSentence ever forgets
// to erase/reseat the sentence's words around the Viterbi proposal,
// since the lexicon would then keep reflecting whatever segmentation
// seatAll() produced at init instead of the MAP analysis the
// estimator converges to.
func TestTrainViterbiConvergesLexiconToRepeatedWord(t *testing.T) {
	cfg := testRunConfig()
	cfg.Estimator = config.EstimatorViterbi

	utts := []corpus.Utterance{
		{Text: "ab", Words: []string{"ab"}},
		{Text: "ab", Words: []string{"ab"}},
	}

	r, err := New(Options{Ctx: symtab.New(), Run: cfg, Corpus: utts})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Train(context.Background()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if got := r.uni.Adaptor().NLabel("ab"); got != 2 {
		t.Fatalf("NLabel(%q) = %d, want 2 after converging", "ab", got)
	}
	for _, line := range r.Segment() {
		if line != "ab" {
			t.Fatalf("Segment() line = %q, want %q", line, "ab")
		}
	}
}

// TestTrainViterbiBigramReseatsLexicon is the bigram analogue: it
// exercises the EraseWordsBigram/InsertWordsBigram branch of the same
// fix.
func TestTrainViterbiBigramReseatsLexicon(t *testing.T) {
	cfg := testRunConfig()
	cfg.Estimator = config.EstimatorViterbi
	cfg.Ngram = 2

	utts := []corpus.Utterance{
		{Text: "ab", Words: []string{"ab"}},
		{Text: "ab", Words: []string{"ab"}},
	}

	r, err := New(Options{Ctx: symtab.New(), Run: cfg, Corpus: utts})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Train(context.Background()); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if got := r.uni.Adaptor().NLabel("ab"); got != 2 {
		t.Fatalf("NLabel(%q) = %d, want 2 after converging", "ab", got)
	}
}

func TestTrainEveryEstimatorProducesASegmentationForEverySentence(t *testing.T) {
	utts := []corpus.Utterance{
		{Text: "thedog", Words: []string{"the", "dog"}},
		{Text: "ranfast", Words: []string{"ran", "fast"}},
	}

	for _, est := range []config.Estimator{config.EstimatorFlip, config.EstimatorViterbi, config.EstimatorTree} {
		cfg := testRunConfig()
		cfg.Estimator = est
		cfg.NIterations = 5

		r, err := New(Options{Ctx: symtab.New(), Run: cfg, Corpus: utts})
		if err != nil {
			t.Fatalf("[%s] New: %v", est, err)
		}
		if err := r.Train(context.Background()); err != nil {
			t.Fatalf("[%s] Train: %v", est, err)
		}

		out := r.Segment()
		if len(out) != len(utts) {
			t.Fatalf("[%s] len(Segment()) = %d, want %d", est, len(out), len(utts))
		}
		for i, line := range out {
			if joined := strings.ReplaceAll(line, " ", ""); joined != utts[i].Text {
				t.Fatalf("[%s] Segment()[%d] = %q, concatenated != original text %q", est, i, line, utts[i].Text)
			}
		}
		if err := r.uni.CheckInvariants(); err != nil {
			t.Fatalf("[%s] lexicon invariants violated after training: %v", est, err)
		}
	}
}

func TestNewDispatchesEveryBaseDist(t *testing.T) {
	utts := []corpus.Utterance{{Text: "ab", Words: []string{"ab"}}}

	for _, bd := range []config.BaseDist{
		config.BaseDistGeometric,
		config.BaseDistGeometricNonEmpty,
		config.BaseDistLearned,
		config.BaseDistLearnedBigram,
		config.BaseDistMBDP,
	} {
		cfg := testRunConfig()
		cfg.BaseDist = bd
		cfg.BaseB = 1

		if _, err := New(Options{Ctx: symtab.New(), Run: cfg, Corpus: utts}); err != nil {
			t.Fatalf("New with base_dist=%q: %v", bd, err)
		}
	}
}

func TestNewRejectsUnknownBaseDist(t *testing.T) {
	cfg := testRunConfig()
	cfg.BaseDist = "not-a-real-dist"
	utts := []corpus.Utterance{{Text: "ab", Words: []string{"ab"}}}

	if _, err := New(Options{Ctx: symtab.New(), Run: cfg, Corpus: utts}); err == nil {
		t.Fatal("expected an error for an unknown base_dist")
	}
}
