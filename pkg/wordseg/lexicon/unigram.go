// Package lexicon implements the unigram and bigram word models: a
// single Pitman-Yor adaptor over a character base (Unigram), and a
// context-indexed family of adaptors sharing that same unigram as
// their base (Bigram). Both expose Seat/Unseat/Predict in the shape
// the boundary samplers in package dpseg drive them with.
package lexicon

import (
	"github.com/cognicore/wordseg/pkg/wordseg/base"
	"github.com/cognicore/wordseg/pkg/wordseg/py"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
)

// Unigram is a single Pitman-Yor adaptor over a character-sequence
// base distribution.
type Unigram struct {
	ad   *py.Adaptor
	base base.Dist
	rnd  *rng.Source
}

// NewUnigram returns a Unigram lexicon with discount a, concentration
// b, over the given character base.
func NewUnigram(baseDist base.Dist, a, b float64, rnd *rng.Source) *Unigram {
	return &Unigram{
		ad:   py.NewAdaptor(baseDist, a, b),
		base: baseDist,
		rnd:  rnd,
	}
}

// Seat adds one occurrence of word, returning its predictive
// probability under the pre-update state.
func (u *Unigram) Seat(word string) float64 { return u.ad.Seat(word, u.rnd) }

// Unseat removes one occurrence of word.
func (u *Unigram) Unseat(word string) { u.ad.Unseat(word, u.rnd) }

// Predict returns word's predictive probability without mutating
// state.
func (u *Unigram) Predict(word string) float64 { return u.ad.Predict(word) }

// NTypes reports the number of distinct words with at least one
// occurrence.
func (u *Unigram) NTypes() int { return len(u.ad.Labels()) }

// NTokens reports the total number of word occurrences seated.
func (u *Unigram) NTokens() int { return u.ad.N() }

// LogProb returns the Pitman-Yor log probability of the lexicon's
// current state.
func (u *Unigram) LogProb() float64 { return u.ad.LogProb() }

// Adaptor exposes the underlying adaptor for hyperparameter
// resampling (package hyper operates on *py.Adaptor directly).
func (u *Unigram) Adaptor() *py.Adaptor { return u.ad }

// CheckInvariants verifies the underlying adaptor's bookkeeping.
func (u *Unigram) CheckInvariants() error { return u.ad.CheckInvariants() }
