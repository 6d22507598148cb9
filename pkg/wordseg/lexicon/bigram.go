package lexicon

import (
	"github.com/cognicore/wordseg/pkg/wordseg/py"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
)

// Bigram maps a previous word to a Pitman-Yor adaptor over the next
// word; every per-context adaptor shares the same Unigram lexicon as
// its base, exactly as spec §4.4 requires ("all such PYAdaptors share
// the *same* unigram lexicon as their base"). Unigram is a borrowed
// reference: Bigram never outlives the Unigram it was constructed
// with, and never takes ownership of it (spec §9, "Cyclic / shared
// ownership").
type Bigram struct {
	unigram *Unigram
	a, b    float64
	rnd     *rng.Source
	byPrev  map[string]*py.Adaptor
}

// NewBigram returns a Bigram lexicon whose per-context adaptors use
// discount a and concentration b over unigram.
func NewBigram(unigram *Unigram, a, b float64, rnd *rng.Source) *Bigram {
	return &Bigram{
		unigram: unigram,
		a:       a,
		b:       b,
		rnd:     rnd,
		byPrev:  make(map[string]*py.Adaptor),
	}
}

// unigramBase adapts *Unigram to py.Base so it can sit under a
// per-context adaptor.
type unigramBase struct{ u *Unigram }

func (b unigramBase) P(word string) float64 { return b.u.Predict(word) }
func (b unigramBase) Insert(word string)     { b.u.Seat(word) }
func (b unigramBase) Erase(word string)      { b.u.Unseat(word) }

func (bg *Bigram) contextFor(prev string) *py.Adaptor {
	ad, ok := bg.byPrev[prev]
	if !ok {
		ad = py.NewAdaptor(unigramBase{u: bg.unigram}, bg.a, bg.b)
		bg.byPrev[prev] = ad
	}
	return ad
}

// Seat adds one occurrence of w2 following w1, returning its
// predictive probability under the pre-update state.
func (bg *Bigram) Seat(w1, w2 string) float64 {
	return bg.contextFor(w1).Seat(w2, bg.rnd)
}

// Unseat removes one occurrence of w2 following w1, deleting the
// context entry entirely once its restaurant becomes empty.
func (bg *Bigram) Unseat(w1, w2 string) {
	ad := bg.contextFor(w1)
	ad.Unseat(w2, bg.rnd)
	if ad.N() == 0 {
		delete(bg.byPrev, w1)
	}
}

// Predict returns the predictive probability of w2 following w1
// without mutating state.
func (bg *Bigram) Predict(w1, w2 string) float64 {
	ad, ok := bg.byPrev[w1]
	if !ok {
		// No restaurant for this context yet: the predictive reduces
		// to the new-table term entirely, i.e. the unigram's own
		// predictive probability (m=0, n=0 in the empty prototype
		// restaurant collapses the PY formula to P_base).
		return bg.unigram.Predict(w2)
	}
	return ad.Predict(w2)
}

// NContexts reports the number of distinct previous-word contexts
// with at least one occurrence.
func (bg *Bigram) NContexts() int { return len(bg.byPrev) }

// Contexts returns every live per-context adaptor, for hyperparameter
// resampling (package hyper resamples each one against the shared
// prior in turn).
func (bg *Bigram) Contexts() []*py.Adaptor {
	out := make([]*py.Adaptor, 0, len(bg.byPrev))
	for _, ad := range bg.byPrev {
		out = append(out, ad)
	}
	return out
}

// Unigram returns the shared base unigram lexicon.
func (bg *Bigram) Unigram() *Unigram { return bg.unigram }

// LogProb returns the sum of the Pitman-Yor log probabilities of
// every per-context adaptor plus the shared unigram base.
func (bg *Bigram) LogProb() float64 {
	total := bg.unigram.LogProb()
	for _, ad := range bg.byPrev {
		total += ad.LogProb()
	}
	return total
}
