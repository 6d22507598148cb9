package dpseg

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// candidateCuts returns every position the tree/Viterbi DP is allowed
// to treat as a boundary: the sentence's possible-boundary set plus
// the start/end sentinels, in increasing order.
func candidateCuts(s *sentence.Sentence) []int {
	n := len(s.Boundary) - 1
	set := make(map[int]bool, len(s.Possible)+2)
	set[0] = true
	set[n] = true
	for _, p := range s.Possible {
		set[p] = true
	}
	cuts := make([]int, 0, len(set))
	for i := 0; i <= n; i++ {
		if set[i] {
			cuts = append(cuts, i)
		}
	}
	return cuts
}

// TreeUnigram resamples the entire boundary vector of s at once via
// dynamic programming (spec §4.8's tree sampler): a forward pass
// fills a lattice cell(j) = total mass of all segmentations of the
// prefix ending at j over every admissible cut point, then a backward
// pass samples a full path through predecessors proportional to their
// contribution.
//
// The sentence's words must already be unseated from u before calling
// TreeUnigram (mirroring the erase/propose/seat discipline in spec
// §5); the caller reseats the resulting segmentation afterward, since
// this function only needs Predict, not Seat/Unseat.
func TreeUnigram(ctx *symtab.Ctx, s *sentence.Sentence, u *lexicon.Unigram, pContinue, temp float64, rnd Rand) {
	cuts := candidateCuts(s)
	mass := make(map[int]float64, len(cuts))
	mass[cuts[0]] = 1

	for jIdx := 1; jIdx < len(cuts); jIdx++ {
		j := cuts[jIdx]
		var total float64
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := cuts[iIdx]
			mi := mass[i]
			if mi == 0 {
				continue
			}
			w := wordText(ctx, s, i, j)
			p := math.Pow(u.Predict(w)*pContinue, 1/temp)
			total += mi * p
		}
		mass[j] = total
	}

	chosen := backwardSample(cuts, mass, func(i, j int) float64 {
		return math.Pow(u.Predict(wordText(ctx, s, i, j))*pContinue, 1/temp)
	}, rnd)

	applyCuts(s, chosen)
}

// backwardSample walks cuts from the last position back to the first,
// at each step drawing a predecessor with probability proportional to
// mass[i] * weight(i, j), and returns the set of chosen cut positions.
func backwardSample(cuts []int, mass map[int]float64, weight func(i, j int) float64, rnd Rand) map[int]bool {
	chosen := map[int]bool{cuts[len(cuts)-1]: true, cuts[0]: true}
	j := cuts[len(cuts)-1]
	for j != cuts[0] {
		jIdx := indexOf(cuts, j)
		var total float64
		weights := make([]float64, jIdx)
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := cuts[iIdx]
			w := mass[i] * weight(i, j)
			weights[iIdx] = w
			total += w
		}
		if total <= 0 {
			break
		}
		r := rnd.Float64() * total
		acc := 0.0
		next := cuts[0]
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			acc += weights[iIdx]
			if r < acc {
				next = cuts[iIdx]
				break
			}
		}
		chosen[next] = true
		j = next
	}
	return chosen
}

func indexOf(cuts []int, v int) int {
	for idx, c := range cuts {
		if c == v {
			return idx
		}
	}
	return -1
}

func applyCuts(s *sentence.Sentence, chosen map[int]bool) {
	for _, i := range s.Possible {
		s.Boundary[i] = chosen[i]
	}
}

// ViterbiUnigram replaces TreeUnigram's summation with maximization:
// it finds the single highest-mass segmentation (the MAP estimate)
// over the same candidate cut points, rather than sampling one
// proportional to its mass.
func ViterbiUnigram(ctx *symtab.Ctx, s *sentence.Sentence, u *lexicon.Unigram, pContinue, temp float64) {
	cuts := candidateCuts(s)
	best := make(map[int]float64, len(cuts))
	back := make(map[int]int, len(cuts))
	best[cuts[0]] = 1

	for jIdx := 1; jIdx < len(cuts); jIdx++ {
		j := cuts[jIdx]
		bestI, bestP := cuts[0], -1.0
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := cuts[iIdx]
			bi := best[i]
			if bi <= 0 && i != cuts[0] {
				continue
			}
			w := wordText(ctx, s, i, j)
			p := bi * math.Pow(u.Predict(w)*pContinue, 1/temp)
			if p > bestP {
				bestP = p
				bestI = i
			}
		}
		best[j] = bestP
		back[j] = bestI
	}

	chosen := map[int]bool{cuts[0]: true}
	j := cuts[len(cuts)-1]
	chosen[j] = true
	for j != cuts[0] {
		i, ok := back[j]
		if !ok {
			break
		}
		chosen[i] = true
		j = i
	}

	applyCuts(s, chosen)
}
