// Package dpseg implements the DPSEG boundary samplers over a
// sentence's boundary vector: Gibbs flip sampling of individual
// boundaries, dynamic-programming tree sampling of a whole utterance,
// Viterbi maximization, and the decayed-MCMC online boundary
// selector (spec §4.8).
package dpseg

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// Rand is the minimal PRNG surface the samplers need.
type Rand interface {
	Float64() float64
}

func wordText(ctx *symtab.Ctx, s *sentence.Sentence, from, to int) string {
	return ctx.Text(symtab.Span{Start: s.Span.Start + from, Len: to - from})
}

// FlipUnigram resamples a single interior boundary at position i of s
// under the unigram model, per spec §4.8's flip sampler: the affected
// word(s) are unseated, both hypotheses are scored, one is drawn at
// temperature temp, and the corresponding word(s) are reseated.
// pContinue is the prior probability that the sentence continues
// after a word (used only for the boundary-present hypothesis).
func FlipUnigram(ctx *symtab.Ctx, s *sentence.Sentence, u *lexicon.Unigram, i int, pContinue, temp float64, rnd Rand) {
	_, i1, i2, _ := s.Neighbors(i)

	wasPresent := s.Boundary[i]
	if wasPresent {
		u.Unseat(wordText(ctx, s, i1, i))
		u.Unseat(wordText(ctx, s, i, i2))
	} else {
		u.Unseat(wordText(ctx, s, i1, i2))
	}

	pPresent := u.Predict(wordText(ctx, s, i1, i)) * u.Predict(wordText(ctx, s, i, i2)) * pContinue
	pAbsent := u.Predict(wordText(ctx, s, i1, i2))

	present := flipDecision(pPresent, pAbsent, temp, rnd)
	s.Boundary[i] = present

	if present {
		u.Seat(wordText(ctx, s, i1, i))
		u.Seat(wordText(ctx, s, i, i2))
	} else {
		u.Seat(wordText(ctx, s, i1, i2))
	}
}

// FlipBigram is FlipUnigram's bigram counterpart: it additionally
// needs the boundaries i0 and i3 just outside i1/i2, since both
// candidate words condition on (and are conditioned by) their
// neighbors.
func FlipBigram(ctx *symtab.Ctx, s *sentence.Sentence, bg *lexicon.Bigram, bos string, i int, temp float64, rnd Rand) {
	i0, i1, i2, i3 := s.Neighbors(i)

	w0 := bos
	if i0 != 0 {
		w0 = wordText(ctx, s, i0, i1)
	}
	w3 := wordText(ctx, s, i2, i3)

	wasPresent := s.Boundary[i]
	if wasPresent {
		word1 := wordText(ctx, s, i1, i)
		word2 := wordText(ctx, s, i, i2)
		bg.Unseat(w0, word1)
		bg.Unseat(word1, word2)
		bg.Unseat(word2, w3)
	} else {
		word12 := wordText(ctx, s, i1, i2)
		bg.Unseat(w0, word12)
		bg.Unseat(word12, w3)
	}

	word1 := wordText(ctx, s, i1, i)
	word2 := wordText(ctx, s, i, i2)
	word12 := wordText(ctx, s, i1, i2)

	pPresent := bg.Predict(w0, word1) * bg.Predict(word1, word2) * bg.Predict(word2, w3)
	pAbsent := bg.Predict(w0, word12) * bg.Predict(word12, w3)

	present := flipDecision(pPresent, pAbsent, temp, rnd)
	s.Boundary[i] = present

	if present {
		bg.Seat(w0, word1)
		bg.Seat(word1, word2)
		bg.Seat(word2, w3)
	} else {
		bg.Seat(w0, word12)
		bg.Seat(word12, w3)
	}
}

// flipDecision draws the boundary-present outcome with probability
// proportional to (pPresent, pAbsent) each raised to 1/temp.
func flipDecision(pPresent, pAbsent, temp float64, rnd Rand) bool {
	if pPresent <= 0 && pAbsent <= 0 {
		return false
	}
	wp := math.Pow(pPresent, 1/temp)
	wa := math.Pow(pAbsent, 1/temp)
	if wp+wa <= 0 || math.IsNaN(wp) || math.IsNaN(wa) {
		return false
	}
	return rnd.Float64()*(wp+wa) < wp
}

// SweepUnigram flips every possible boundary of s once, in the order
// given by s.Possible (callers typically randomize that order
// per-iteration themselves, per spec §5's "random-order" switch).
func SweepUnigram(ctx *symtab.Ctx, s *sentence.Sentence, u *lexicon.Unigram, pContinue, temp float64, rnd Rand) {
	for _, i := range s.Possible {
		FlipUnigram(ctx, s, u, i, pContinue, temp, rnd)
	}
}

// SweepBigram is SweepUnigram's bigram counterpart.
func SweepBigram(ctx *symtab.Ctx, s *sentence.Sentence, bg *lexicon.Bigram, bos string, temp float64, rnd Rand) {
	for _, i := range s.Possible {
		FlipBigram(ctx, s, bg, bos, i, temp, rnd)
	}
}
