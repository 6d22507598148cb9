// Package base implements the closed family of character-level base
// distributions that sit under a unigram lexicon's Pitman-Yor
// adaptor: a fixed geometric model over characters, a variant that
// forbids the empty string, a learned (PY-adapted) character model,
// and Brent's MBDP unigram scorer.
package base

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/py"
)

// Dist is the common interface every base distribution satisfies.
// It is also the py.Base interface, so any Dist can sit directly
// under a py.Adaptor.
type Dist interface {
	P(word string) float64
	Insert(word string)
	Erase(word string)
}

var _ py.Base = Dist(nil)

// GeometricChar is a fixed geometric character model:
//
//	P(w) = (1-pNL)^|w| / K^|w| * pNL
//
// with a special end-of-utterance string scoring pNL directly.
type GeometricChar struct {
	PNL   float64 // stop probability
	K     int     // alphabet size
	NLSym string  // end-of-utterance sentinel string
}

// NewGeometricChar returns a GeometricChar with the given stop
// probability, alphabet size, and end-of-utterance sentinel.
func NewGeometricChar(pNL float64, k int, nlSym string) *GeometricChar {
	return &GeometricChar{PNL: pNL, K: k, NLSym: nlSym}
}

func (g *GeometricChar) P(word string) float64 {
	if word == g.NLSym {
		return g.PNL
	}
	n := float64(runeLen(word))
	return math.Pow(1-g.PNL, n) / math.Pow(float64(g.K), n) * g.PNL
}

// Insert and Erase are no-ops: the fixed geometric model never
// changes shape in response to observations.
func (g *GeometricChar) Insert(string) {}
func (g *GeometricChar) Erase(string)  {}

// GeometricCharNonEmpty is GeometricChar with the empty string
// forbidden: probability mass for length-0 words is redistributed by
// renormalizing the first character's distribution uniformly over
// the remaining characters.
type GeometricCharNonEmpty struct {
	GeometricChar
}

// NewGeometricCharNonEmpty returns a CharSeq0-style non-empty variant.
func NewGeometricCharNonEmpty(pNL float64, k int, nlSym string) *GeometricCharNonEmpty {
	return &GeometricCharNonEmpty{GeometricChar{PNL: pNL, K: k, NLSym: nlSym}}
}

func (g *GeometricCharNonEmpty) P(word string) float64 {
	if word == g.NLSym {
		return g.PNL
	}
	n := runeLen(word)
	if n == 0 {
		return 0
	}
	// First character drawn uniformly from K-1 "continue" outcomes
	// (K outcomes total minus the one reserved for immediate stop),
	// remaining characters as in the base geometric model.
	first := 1.0 / float64(g.K-1)
	rest := math.Pow(1-g.PNL, float64(n-1)) / math.Pow(float64(g.K), float64(n-1))
	return first * rest * g.PNL
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
