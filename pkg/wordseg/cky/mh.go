package cky

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/tree"
)

// Accept implements the Metropolis-Hastings acceptance test of spec
// §4.9: pi0/pi1 are the true joint probabilities of the current and
// proposed derivations (including every AdaptedParent's LogProb
// contribution along the path), and r0/r1 are their probabilities
// under the chart's own proposal distribution (the product of the
// per-span predictive weights Sample drew from). Any underflow to
// zero or non-finite ratio is treated as acceptance, since it means
// the comparison itself has become unreliable rather than that the
// proposal is actually worse.
func Accept(pi0, pi1, r0, r1, temp float64, rnd Rand) bool {
	if pi0 <= 0 || r1 <= 0 {
		return true
	}
	ratio := (pi1 * r0) / (pi0 * r1)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return true
	}
	p := math.Pow(math.Min(1, ratio), 1/temp)
	return rnd.Float64() < p
}

// ShouldShortCircuit reports whether the proposed derivation t1 is
// structurally identical to the current derivation t0 (ignoring the
// root's table count, which legitimately differs across resamples of
// the same shape): when true, the caller should keep t0 without
// running the Metropolis-Hastings test at all, since there is nothing
// to move between.
func ShouldShortCircuit(arena *tree.Arena, t0, t1 tree.NodeID) bool {
	return arena.EqualIgnoringTopCount(t0, t1)
}
