package base

import (
	"github.com/cognicore/wordseg/pkg/wordseg/py"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
)

// charUniform is the flat base distribution under a learned character
// adaptor: every string it is asked about scores 1/k, so every
// character in a fixed alphabet of size k is equally likely. It
// exists only to terminate the recursion of py.Adaptor.Seat when a
// brand new character is observed.
type charUniform struct {
	k int // alphabet size
}

func (c charUniform) P(string) float64     { return 1.0 / float64(c.k) }
func (c charUniform) Insert(string)        {}
func (c charUniform) Erase(string)         {}

// LearnedChar replaces the fixed alphabet distribution of
// GeometricChar with its own Pitman-Yor adaptor over individual
// characters, so that character frequencies learned from the corpus
// feed back into word-form probabilities.
type LearnedChar struct {
	PNL   float64
	NLSym string
	chars *py.Adaptor
	rnd   *rng.Source
}

// NewLearnedChar returns a LearnedChar base over an alphabet of size
// k, with discount/concentration (a,b) for the character adaptor.
func NewLearnedChar(pNL float64, nlSym string, k int, a, b float64, rnd *rng.Source) *LearnedChar {
	return &LearnedChar{
		PNL:   pNL,
		NLSym: nlSym,
		chars: py.NewAdaptor(charUniform{k: k}, a, b),
		rnd:   rnd,
	}
}

func (l *LearnedChar) P(word string) float64 {
	if word == l.NLSym {
		return l.PNL
	}
	p := 1 - l.PNL
	for _, r := range word {
		p *= l.chars.Predict(string(r))
	}
	return p * l.PNL
}

func (l *LearnedChar) Insert(word string) {
	if word == l.NLSym {
		return
	}
	for _, r := range word {
		l.chars.Seat(string(r), l.rnd)
	}
}

func (l *LearnedChar) Erase(word string) {
	if word == l.NLSym {
		return
	}
	for _, r := range word {
		l.chars.Unseat(string(r), l.rnd)
	}
}

// LearnedBigramChar is LearnedChar generalized to a bigram-of-characters
// model: the adaptor for the next character is selected by the
// previous character seen (or NLSym at word start).
type LearnedBigramChar struct {
	PNL    float64
	NLSym  string
	K      int
	A, B   float64
	rnd    *rng.Source
	byPrev map[string]*py.Adaptor
}

// NewLearnedBigramChar returns a LearnedBigramChar over an alphabet of
// size k.
func NewLearnedBigramChar(pNL float64, nlSym string, k int, a, b float64, rnd *rng.Source) *LearnedBigramChar {
	return &LearnedBigramChar{
		PNL: pNL, NLSym: nlSym, K: k, A: a, B: b, rnd: rnd,
		byPrev: make(map[string]*py.Adaptor),
	}
}

func (l *LearnedBigramChar) adaptorFor(prev string) *py.Adaptor {
	ad, ok := l.byPrev[prev]
	if !ok {
		ad = py.NewAdaptor(charUniform{k: l.K}, l.A, l.B)
		l.byPrev[prev] = ad
	}
	return ad
}

func (l *LearnedBigramChar) P(word string) float64 {
	if word == l.NLSym {
		return l.PNL
	}
	p := 1 - l.PNL
	prev := "^"
	for _, r := range word {
		p *= l.adaptorFor(prev).Predict(string(r))
		prev = string(r)
	}
	return p * l.PNL
}

func (l *LearnedBigramChar) Insert(word string) {
	if word == l.NLSym {
		return
	}
	prev := "^"
	for _, r := range word {
		l.adaptorFor(prev).Seat(string(r), l.rnd)
		prev = string(r)
	}
}

func (l *LearnedBigramChar) Erase(word string) {
	if word == l.NLSym {
		return
	}
	prev := "^"
	for _, r := range word {
		ad := l.adaptorFor(prev)
		ad.Unseat(string(r), l.rnd)
		if ad.N() == 0 {
			delete(l.byPrev, prev)
		}
		prev = string(r)
	}
}

var _ Dist = (*GeometricChar)(nil)
var _ Dist = (*GeometricCharNonEmpty)(nil)
var _ Dist = (*LearnedChar)(nil)
var _ Dist = (*LearnedBigramChar)(nil)
