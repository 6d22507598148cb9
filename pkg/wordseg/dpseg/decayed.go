package dpseg

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// Decayed implements the online-only decayed-MCMC boundary selector
// (spec §4.8): every utterance contributes its possible-boundary
// positions to a running history; each sample favors more recently
// seen boundaries, with selection probability falling off as
// (age+1)^-decayRate. Offset probabilities are cached and the
// cumulative total is updated incrementally as history grows, per
// spec §3's "Decayed-MCMC state".
type Decayed struct {
	decayRate float64

	offsetProb []float64 // offsetProb[k] = (k+1)^-decayRate, cached and extended lazily
	cumulative []float64 // cumulative[k] = sum(offsetProb[0..k])

	history []historyEntry // one entry per possible-boundary position ever seen, oldest first
}

type historyEntry struct {
	sentenceIdx int
	position    int
}

// NewDecayed returns a Decayed selector with the given decay exponent.
func NewDecayed(decayRate float64) *Decayed {
	return &Decayed{decayRate: decayRate}
}

// N reports the total number of potential boundaries seen so far.
func (d *Decayed) N() int { return len(d.history) }

// Observe registers every possible-boundary position of a newly seen
// sentence (identified by sentenceIdx, the caller's running utterance
// counter) into the history, extending the cached offset table.
func (d *Decayed) Observe(sentenceIdx int, possible []int) {
	for _, p := range possible {
		d.history = append(d.history, historyEntry{sentenceIdx: sentenceIdx, position: p})
		d.extendCache()
	}
}

func (d *Decayed) extendCache() {
	k := len(d.offsetProb)
	p := math.Pow(float64(k+1), -d.decayRate)
	d.offsetProb = append(d.offsetProb, p)
	prev := 0.0
	if k > 0 {
		prev = d.cumulative[k-1]
	}
	d.cumulative = append(d.cumulative, prev+p)
}

// totalMass is the Σ_{k=0}^{N-1} (k+1)^-decayRate normalizer.
func (d *Decayed) totalMass() float64 {
	if len(d.cumulative) == 0 {
		return 0
	}
	return d.cumulative[len(d.cumulative)-1]
}

// Select draws one history entry to resample, per spec §4.8: draw
// r in [0, S), locate the offset k* whose cumulative bracket contains
// r, and resample the history entry k* positions back from the most
// recent (index N-1-k*, so more recent boundaries are favored).
func (d *Decayed) Select(rnd Rand) (sentenceIdx, position int, ok bool) {
	n := d.N()
	if n == 0 {
		return 0, 0, false
	}
	s := d.totalMass()
	if s <= 0 {
		return 0, 0, false
	}
	r := rnd.Float64() * s
	kStar := locateBracket(d.cumulative, r)
	idx := n - 1 - kStar
	if idx < 0 {
		idx = 0
	}
	e := d.history[idx]
	return e.sentenceIdx, e.position, true
}

// locateBracket returns the smallest k such that cumulative[k] > r.
func locateBracket(cumulative []float64, r float64) int {
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] > r {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// SampleOnce draws samplesPerUtt boundary resamples from the decayed
// history and applies a single unigram flip at each selected position,
// the per-utterance inference step of the online decayed-MCMC mode.
// lookup must return the Sentence for a given sentenceIdx (the
// caller's sentence store); positions outside that sentence's current
// Possible set are skipped.
func (d *Decayed) SampleOnce(ctx *symtab.Ctx, lookup func(sentenceIdx int) *sentence.Sentence, u *lexicon.Unigram, pContinue, temp float64, samplesPerUtt int, rnd Rand) {
	for i := 0; i < samplesPerUtt; i++ {
		sentIdx, pos, ok := d.Select(rnd)
		if !ok {
			return
		}
		s := lookup(sentIdx)
		if s == nil {
			continue
		}
		if !isPossible(s, pos) {
			continue
		}
		FlipUnigram(ctx, s, u, pos, pContinue, temp, rnd)
	}
}

func isPossible(s *sentence.Sentence, pos int) bool {
	for _, p := range s.Possible {
		if p == pos {
			return true
		}
	}
	return false
}
