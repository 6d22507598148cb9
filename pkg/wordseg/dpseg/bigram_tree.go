package dpseg

import (
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// bgState is one node of the bigram tree/Viterbi 2-D lattice (spec
// §4.8: "Bigram tree samplers use a 2-D lattice (prev, curr)"): the
// most recently closed word spans [H,I), so H<0 marks the sentence-
// initial state where I has no predecessor word yet and the
// conditioning context is the bos sentinel.
type bgState struct{ H, I int }

func bgPrevWord(ctx *symtab.Ctx, s *sentence.Sentence, st bgState, bos string) string {
	if st.H < 0 {
		return bos
	}
	return wordText(ctx, s, st.H, st.I)
}

// TreeBigram is TreeUnigram's bigram counterpart. A single-dimension
// lattice keyed by position cannot condition on the previous word's
// identity, so the state here is the span of the last closed word;
// the forward pass sums mass into every (h,j) state reachable from
// state (h's predecessor, h), and the backward pass samples a full
// chain of such states proportional to their contribution, exactly
// mirroring TreeUnigram's single-dimension backwardSample one level
// up.
func TreeBigram(ctx *symtab.Ctx, s *sentence.Sentence, bg *lexicon.Bigram, bos string, temp float64, rnd Rand) {
	cuts := candidateCuts(s)
	start, end := cuts[0], cuts[len(cuts)-1]

	mass := map[bgState]float64{{H: -1, I: start}: 1}
	statesAt := map[int][]bgState{start: {{H: -1, I: start}}}

	weight := func(st bgState, i, j int) float64 {
		prev := bgPrevWord(ctx, s, st, bos)
		word := wordText(ctx, s, i, j)
		return math.Pow(bg.Predict(prev, word), 1/temp)
	}

	for jIdx := 1; jIdx < len(cuts); jIdx++ {
		j := cuts[jIdx]
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := cuts[iIdx]
			for _, st := range statesAt[i] {
				m := mass[st]
				if m <= 0 {
					continue
				}
				next := bgState{H: i, I: j}
				if _, seen := mass[next]; !seen {
					statesAt[j] = append(statesAt[j], next)
				}
				mass[next] += m * weight(st, i, j)
			}
		}
	}

	chosen := map[int]bool{start: true, end: true}
	cur, ok := bgSampleState(statesAt[end], mass, rnd)
	for ok && cur.H >= 0 {
		chosen[cur.H] = true
		preds := statesAt[cur.H]
		weights := make([]float64, len(preds))
		total := 0.0
		for k, st := range preds {
			w := mass[st] * weight(st, cur.H, cur.I)
			weights[k] = w
			total += w
		}
		cur, ok = bgChoosePred(preds, weights, total, rnd)
	}

	applyCuts(s, chosen)
}

func bgSampleState(states []bgState, mass map[bgState]float64, rnd Rand) (bgState, bool) {
	total := 0.0
	for _, st := range states {
		total += mass[st]
	}
	if total <= 0 {
		return bgState{}, false
	}
	r := rnd.Float64() * total
	acc := 0.0
	for _, st := range states {
		acc += mass[st]
		if r < acc {
			return st, true
		}
	}
	return states[len(states)-1], true
}

func bgChoosePred(preds []bgState, weights []float64, total float64, rnd Rand) (bgState, bool) {
	if total <= 0 || len(preds) == 0 {
		return bgState{}, false
	}
	r := rnd.Float64() * total
	acc := 0.0
	for k, w := range weights {
		acc += w
		if r < acc {
			return preds[k], true
		}
	}
	return preds[len(preds)-1], true
}

// ViterbiBigram replaces TreeBigram's summation with maximization,
// yielding the MAP bigram segmentation over the same lattice.
func ViterbiBigram(ctx *symtab.Ctx, s *sentence.Sentence, bg *lexicon.Bigram, bos string, temp float64) {
	cuts := candidateCuts(s)
	start, end := cuts[0], cuts[len(cuts)-1]

	best := map[bgState]float64{{H: -1, I: start}: 1}
	back := map[bgState]bgState{}
	statesAt := map[int][]bgState{start: {{H: -1, I: start}}}

	weight := func(st bgState, i, j int) float64 {
		prev := bgPrevWord(ctx, s, st, bos)
		word := wordText(ctx, s, i, j)
		return math.Pow(bg.Predict(prev, word), 1/temp)
	}

	for jIdx := 1; jIdx < len(cuts); jIdx++ {
		j := cuts[jIdx]
		for iIdx := 0; iIdx < jIdx; iIdx++ {
			i := cuts[iIdx]
			for _, st := range statesAt[i] {
				b := best[st]
				if b <= 0 {
					continue
				}
				next := bgState{H: i, I: j}
				cand := b * weight(st, i, j)
				if cand > best[next] {
					if _, seen := best[next]; !seen {
						statesAt[j] = append(statesAt[j], next)
					}
					best[next] = cand
					back[next] = st
				}
			}
		}
	}

	bestFinal, bestP := bgState{}, -1.0
	for _, st := range statesAt[end] {
		if best[st] > bestP {
			bestP = best[st]
			bestFinal = st
		}
	}

	chosen := map[int]bool{start: true, end: true}
	cur := bestFinal
	for cur.H >= 0 {
		chosen[cur.H] = true
		prev, ok := back[cur]
		if !ok {
			break
		}
		cur = prev
	}

	applyCuts(s, chosen)
}
