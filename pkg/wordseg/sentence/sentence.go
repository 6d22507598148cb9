// Package sentence represents an utterance as a character span plus a
// boundary vector, and knows how to seat or unseat the words the
// boundary vector implies into a unigram or bigram lexicon.
package sentence

import (
	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// Sentence is a span of characters plus a boundary vector over it.
// Per spec §3: b[0], b[1], b[n-1], b[n] are always true sentinels
// (the sentence-start and newline boundaries); Possible lists the
// interior positions the sampler may toggle, and True records the
// gold segmentation for scoring.
type Sentence struct {
	Span     symtab.Span
	Boundary []bool // length n+1, where n = Span.Len
	Possible []int  // interior indices the sampler may toggle
	True     []int  // gold boundary indices, for scoring only
}

// New returns a Sentence over sp with every possible-boundary position
// initialized to initPBoundary >= 0 by independent coin flips, or
// copied from gold boundaries when initPBoundary < 0 (spec §8 scenario
// 2: "init_pboundary = -1 (initialize with gold)").
func New(sp symtab.Span, possible, gold []int, initPBoundary float64, coin func() float64) *Sentence {
	n := sp.Len
	b := make([]bool, n+1)
	b[0] = true
	if n >= 1 {
		b[1] = true
		b[n-1] = true
	}
	b[n] = true

	goldSet := make(map[int]bool, len(gold))
	for _, g := range gold {
		goldSet[g] = true
	}

	for _, p := range possible {
		if initPBoundary < 0 {
			b[p] = goldSet[p]
		} else {
			b[p] = coin() < initPBoundary
		}
	}

	return &Sentence{Span: sp, Boundary: b, Possible: append([]int(nil), possible...), True: append([]int(nil), gold...)}
}

// NBoundary returns the number of interior boundary positions.
func (s *Sentence) NBoundary() int { return len(s.Possible) }

// Words returns the word spans implied by the current boundary
// vector, as offsets relative to Span.Start.
func (s *Sentence) Words() []symtab.Span {
	var out []symtab.Span
	start := 0
	for i := 1; i < len(s.Boundary); i++ {
		if s.Boundary[i] {
			out = append(out, symtab.Span{Start: s.Span.Start + start, Len: i - start})
			start = i
		}
	}
	return out
}

// leftBoundary returns the nearest set boundary strictly before i
// (the search starts from i-1 down to 0), or 0 if none is set.
func (s *Sentence) leftBoundary(i int) int {
	for j := i - 1; j >= 0; j-- {
		if s.Boundary[j] {
			return j
		}
	}
	return 0
}

// rightBoundary returns the nearest set boundary strictly after i
// (the search starts from i+1).
func (s *Sentence) rightBoundary(i int) int {
	for j := i + 1; j < len(s.Boundary); j++ {
		if s.Boundary[j] {
			return j
		}
	}
	return len(s.Boundary) - 1
}

// Neighbors returns, for interior position i, the nearest set
// boundaries strictly to the left and right (i1, i2 in spec §4.8's
// flip sampler), and for the bigram sampler the next boundaries out
// beyond those (i0, i3).
func (s *Sentence) Neighbors(i int) (i0, i1, i2, i3 int) {
	i1 = s.leftBoundary(i)
	i2 = s.rightBoundary(i)
	i0 = s.leftBoundary(i1)
	i3 = s.rightBoundary(i2)
	return
}

// EraseWords unseats every word implied by the current boundary
// vector from u, the inverse of InsertWords. Spec §8 scenario 3
// requires EraseWords;InsertWords to be a strict identity.
func (s *Sentence) EraseWords(ctx *symtab.Ctx, u *lexicon.Unigram) {
	for _, w := range s.Words() {
		u.Unseat(ctx.Text(w))
	}
}

// InsertWords seats every word implied by the current boundary vector
// into u.
func (s *Sentence) InsertWords(ctx *symtab.Ctx, u *lexicon.Unigram) {
	for _, w := range s.Words() {
		u.Seat(ctx.Text(w))
	}
}

// EraseWordsBigram is EraseWords for a bigram lexicon: each word is
// unseated conditioned on its predecessor (the sentence-boundary
// sentinel precedes the first word).
func (s *Sentence) EraseWordsBigram(ctx *symtab.Ctx, bg *lexicon.Bigram, bos string) {
	prev := bos
	for _, w := range s.Words() {
		word := ctx.Text(w)
		bg.Unseat(prev, word)
		prev = word
	}
}

// InsertWordsBigram is InsertWords for a bigram lexicon.
func (s *Sentence) InsertWordsBigram(ctx *symtab.Ctx, bg *lexicon.Bigram, bos string) {
	prev := bos
	for _, w := range s.Words() {
		word := ctx.Text(w)
		bg.Seat(prev, word)
		prev = word
	}
}
