// Package earley implements the optional predictive parse filter
// (spec §4.5): given a terminal sequence, it computes which
// categories are provably derivable over each span, as a pure
// boolean predicate over the chart that package cky may consult to
// prune categories before doing any probability arithmetic.
//
// Completion uses agenda-style propagation, grounded on
// pkg/korel/inference/simple.Engine's queryTransitive (a depth-first
// closure over a fact graph): here the "facts" are (category, span)
// admissions and the graph is the grammar's RHS trie, generalized
// from a visited-set DFS to an explicit worklist because a newly
// completed category at one span must re-trigger examination of every
// active edge elsewhere that was waiting on it.
package earley

import (
	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/trie"
)

// Filter classifies a grammar's rules once and reuses that
// classification across every sentence it filters.
type Filter struct {
	g *grammar.Grammar

	// preterminal maps a terminal symbol to the set of categories
	// that rewrite directly to it (fast lexical admission).
	preterminal map[symtab.Symbol]map[symtab.Symbol]bool
}

// New classifies the preterminal-over-terminal rules (passed in by
// the caller, which already knows which rules are lexical) used for
// fast lexical admission; all other rules are walked on-demand via
// g.RHSTrie() during Admissible.
func New(g *grammar.Grammar, preterminalRules map[symtab.Symbol][]symtab.Symbol) *Filter {
	f := &Filter{g: g, preterminal: make(map[symtab.Symbol]map[symtab.Symbol]bool)}
	for parent, rhs := range preterminalRules {
		if len(rhs) != 1 {
			continue
		}
		term := rhs[0]
		if f.preterminal[term] == nil {
			f.preterminal[term] = make(map[symtab.Symbol]bool)
		}
		f.preterminal[term][parent] = true
	}
	return f
}

// Span identifies a chart cell by its character-index range.
type Span struct{ Left, Right int }

// agendaItem is a completed category at a span, queued for
// re-examination by every active edge waiting on it.
type agendaItem struct {
	Span
	cat symtab.Symbol
}

// Admissible computes complete[span] = set of categories the grammar
// can derive over that span, for every 0 <= left < right <= len(terms).
func (f *Filter) Admissible(terms []symtab.Symbol) map[Span]map[symtab.Symbol]bool {
	n := len(terms)
	complete := make(map[Span]map[symtab.Symbol]bool)

	var agenda []agendaItem
	push := func(sp Span, cat symtab.Symbol) {
		set, ok := complete[sp]
		if !ok {
			set = make(map[symtab.Symbol]bool)
			complete[sp] = set
		}
		if set[cat] {
			return
		}
		set[cat] = true
		agenda = append(agenda, agendaItem{Span: sp, cat: cat})
	}

	for i := 0; i < n; i++ {
		sp := Span{i, i + 1}
		for parent := range f.preterminal[terms[i]] {
			push(sp, parent)
		}
	}

	// Unary closure, agenda-driven: popping a completed category
	// re-triggers its unary expansions at the same span.
	drainAgenda := func() {
		for len(agenda) > 0 {
			item := agenda[len(agenda)-1]
			agenda = agenda[:len(agenda)-1]
			for parent := range f.g.UnaryExpansions(item.cat) {
				push(item.Span, parent)
			}
		}
	}
	drainAgenda()

	// Binary and n-ary combination over increasing span length,
	// walking the RHS trie the same way package cky's inside fill
	// does, but only tracking admissibility rather than probability
	// mass.
	for width := 2; width <= n; width++ {
		for left := 0; left+width <= n; left++ {
			right := left + width
			f.combine(complete, push, left, right)
			drainAgenda()
		}
	}

	return complete
}

// combine walks every split point of (left,right), advancing the RHS
// trie through however many completed categories match at each
// sub-span, and pushes every parent reachable at a terminal trie node
// as admissible over the whole span.
func (f *Filter) combine(complete map[Span]map[symtab.Symbol]bool, push func(Span, symtab.Symbol), left, right int) {
	var walk func(node *trie.Node, pos int)
	walk = func(node *trie.Node, pos int) {
		if pos >= right {
			return
		}
		for mid := pos + 1; mid <= right; mid++ {
			for cat := range complete[Span{pos, mid}] {
				next, ok := node.Find1(cat)
				if !ok {
					continue
				}
				if mid == right {
					if parents, ok := next.Payload.(grammar.RHSPayload); ok {
						for parent := range parents {
							push(Span{left, right}, parent)
						}
					}
				}
				walk(next, mid)
			}
		}
	}
	walk(f.g.RHSTrie().Root(), left)
}
