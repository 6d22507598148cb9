package lexicon

// ForgetMethod selects how a ForgetPolicy picks which occurrences to
// drop when decaying lexicon memory, supplemented from
// original_source (wordseg/algos/dpseg/include/Unigrams.h) since the
// distilled spec names --forget-method {U,P} on the CLI surface
// without specifying its semantics.
type ForgetMethod int

const (
	// ForgetUniform drops occurrences of the first word, in the order
	// given to Apply, that still has a remaining count, regardless of
	// word frequency ("U"). The choice is deterministic.
	ForgetUniform ForgetMethod = iota
	// ForgetProportional drops occurrences of the word with the
	// highest remaining count first, so the most over-represented
	// words are forgotten first ("P"). The choice is deterministic.
	ForgetProportional
)

// ForgetPolicy decays a Unigram lexicon's memory by a fixed rate per
// application, modeling type- and token-memory limits.
//
// Per the spec's own Open Question (§9): bigram decayed-MCMC does not
// consult ForgetPolicy. This is deliberate, not an oversight: decayed
// sampling already has its own notion of "how much history matters"
// via the decay-rate offset distribution (package dpseg), and
// stacking a second forgetting mechanism on top was not exercised by
// the original and is not guessed at here.
type ForgetPolicy struct {
	Method      ForgetMethod
	Rate        float64 // fraction of memory forgotten per application, in [0,1]
	TypeMemory  int     // if > 0, cap on distinct word types retained
	TokenMemory int     // if > 0, cap on total tokens retained
}

// Apply forgets occurrences from u until the configured rate, and the
// type/token memory caps, are satisfied. words lists words in the
// order they should be considered for forgetting (oldest first);
// counts gives each word's current occurrence count in the lexicon.
// It returns one Forgotten entry per occurrence actually removed.
func (fp ForgetPolicy) Apply(u *Unigram, words []string, counts map[string]int) []Forgotten {
	if fp.Rate <= 0 && fp.TypeMemory <= 0 && fp.TokenMemory <= 0 {
		return nil
	}

	target := u.NTokens()
	if fp.Rate > 0 {
		target = int(float64(u.NTokens()) * (1 - fp.Rate))
	}
	if fp.TokenMemory > 0 && fp.TokenMemory < target {
		target = fp.TokenMemory
	}

	var removed []Forgotten
	typesSeen := map[string]bool{}
	for _, w := range words {
		typesSeen[w] = true
	}

	for u.NTokens() > target || (fp.TypeMemory > 0 && len(typesSeen) > fp.TypeMemory) {
		w := fp.choose(words, counts)
		if w == "" {
			break
		}
		u.Unseat(w)
		counts[w]--
		removed = append(removed, Forgotten{Word: w})
		if counts[w] <= 0 {
			delete(typesSeen, w)
		}
	}
	return removed
}

// Forgotten records one forgotten occurrence.
type Forgotten struct {
	Word string
}

// choose picks the next word to forget according to Method. Uniform
// picks the first word with remaining count; Proportional favors the
// word with the highest remaining count, reflecting "over-represented
// words are forgotten first".
func (fp ForgetPolicy) choose(words []string, counts map[string]int) string {
	switch fp.Method {
	case ForgetProportional:
		best, bestCount := "", 0
		for _, w := range words {
			if counts[w] > bestCount {
				best, bestCount = w, counts[w]
			}
		}
		return best
	default: // ForgetUniform
		for _, w := range words {
			if counts[w] > 0 {
				return w
			}
		}
		return ""
	}
}
