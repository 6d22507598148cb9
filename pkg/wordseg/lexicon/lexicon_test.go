package lexicon

import (
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/base"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
)

func newTestUnigram(seed uint64) *Unigram {
	rnd := rng.New(seed)
	charBase := base.NewGeometricChar(0.5, 26, "<nl>")
	return NewUnigram(charBase, 0, 1.0, rnd)
}

func TestUnigramSeatUnseatIdentity(t *testing.T) {
	u := newTestUnigram(1)
	for i := 0; i < 4; i++ {
		u.Seat("cat")
	}
	n0, types0 := u.NTokens(), u.NTypes()

	for i := 0; i < 4; i++ {
		u.Unseat("cat")
	}
	for i := 0; i < 4; i++ {
		u.Seat("cat")
	}

	if u.NTokens() != n0 || u.NTypes() != types0 {
		t.Fatalf("after unseat+reseat cycle: tokens=%d types=%d, want %d,%d", u.NTokens(), u.NTypes(), n0, types0)
	}
	if err := u.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestUnigramPredictiveRichGetsRicher(t *testing.T) {
	u := newTestUnigram(2)
	before := u.Predict("cat")
	u.Seat("cat")
	after := u.Predict("cat")

	if after <= before {
		t.Fatalf("predictive for cat should rise after seating it: before=%v after=%v", before, after)
	}
}

func TestBigramSharesUnigramBase(t *testing.T) {
	rnd := rng.New(3)
	uni := newTestUnigram(3)
	bg := NewBigram(uni, 0, 1.0, rnd)

	bg.Seat("the", "cat")
	bg.Seat("a", "cat")

	// Both contexts seat into the same underlying unigram lexicon, so
	// the unigram should have seen two occurrences of "cat" even
	// though no context individually has.
	if uni.NTokens() < 2 {
		t.Fatalf("shared unigram should have recorded both occurrences of cat, got NTokens=%d", uni.NTokens())
	}
}

func TestBigramUnseatDeletesEmptyContext(t *testing.T) {
	rnd := rng.New(4)
	uni := newTestUnigram(4)
	bg := NewBigram(uni, 0, 1.0, rnd)

	bg.Seat("the", "cat")
	if bg.NContexts() != 1 {
		t.Fatalf("NContexts = %d, want 1", bg.NContexts())
	}

	bg.Unseat("the", "cat")
	if bg.NContexts() != 0 {
		t.Fatalf("NContexts = %d, want 0 after unseating the only occurrence", bg.NContexts())
	}
}

func TestBigramPredictUnseenContextFallsBackToUnigram(t *testing.T) {
	rnd := rng.New(5)
	uni := newTestUnigram(5)
	bg := NewBigram(uni, 0, 1.0, rnd)

	uni.Seat("dog") // give the unigram some mass to predict from
	got := bg.Predict("never-seen-context", "dog")
	want := uni.Predict("dog")
	if got != want {
		t.Fatalf("Predict on unseen context = %v, want unigram fallback %v", got, want)
	}
}

func TestForgetPolicyUniformReducesTokenCount(t *testing.T) {
	u := newTestUnigram(6)
	counts := map[string]int{}
	var words []string
	for i := 0; i < 10; i++ {
		u.Seat("cat")
		counts["cat"]++
	}
	words = append(words, "cat")

	fp := ForgetPolicy{Method: ForgetUniform, Rate: 0.5}
	removed := fp.Apply(u, words, counts)

	if len(removed) == 0 {
		t.Fatal("expected at least one forgotten occurrence")
	}
	if u.NTokens() > 5 {
		t.Fatalf("NTokens = %d, want <= 5 after forgetting half", u.NTokens())
	}
}
