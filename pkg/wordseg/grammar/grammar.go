// Package grammar models the adaptor grammar aggregate (spec §3's
// "Grammar (AG)"): the weighted PCFG rule table plus, for each
// adapted parent, a Pitman-Yor process over its cached derivations.
// package cky drives this structure to build inside charts and sample
// derivations; package gfile reads and writes it in the rule-file
// format (spec §6).
package grammar

import (
	"fmt"
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/py"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/trie"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// Rule is one weighted production Parent -> RHS (spec §6's grammar
// line format, minus the optional leading theta/a/b, which the loader
// applies to the parent through SetAdapted; an absent a/b is not
// filled in from Grammar's stored defaults).
type Rule struct {
	Parent symtab.Symbol
	RHS    []symtab.Symbol
	Weight float64
}

// RHSPayload is the payload stored at rhsTrie's terminal node for one
// RHS sequence: parent -> accumulated weight, spec's rhsParentWeight.
// Exported so package earley can type-assert it while walking the same
// trie to compute admissibility.
type RHSPayload map[symtab.Symbol]float64

// Grammar holds the rule table and per-parent adaptation state.
type Grammar struct {
	Start symtab.Symbol

	rhsTrie *trie.Trie // keyed by RHS symbol sequence -> rhsPayload
	unary   map[symtab.Symbol]map[symtab.Symbol]float64
	weight  map[symtab.Symbol]float64 // parentWeight: sum of all RHS weights for a parent

	parentPrior map[symtab.Symbol]float64
	ruleWeight  map[symtab.Symbol]float64 // Dirichlet pseudocount per rule, keyed by a synthetic rule id omitted here; kept minimal per spec's "rulePriorWeight"

	adapted map[symtab.Symbol]*AdaptedParent

	defaultA, defaultB float64
}

// New returns an empty Grammar that records defaultA and defaultB.
// The recorded defaults are not applied to any parent: a parent is
// adapted only through SetAdapted, with the a and b passed there.
func New(defaultA, defaultB float64) *Grammar {
	return &Grammar{
		rhsTrie:     trie.New(),
		unary:       make(map[symtab.Symbol]map[symtab.Symbol]float64),
		weight:      make(map[symtab.Symbol]float64),
		parentPrior: make(map[symtab.Symbol]float64),
		ruleWeight:  make(map[symtab.Symbol]float64),
		adapted:     make(map[symtab.Symbol]*AdaptedParent),
		defaultA:    defaultA,
		defaultB:    defaultB,
	}
}

// AddRule registers a production. The first rule added to a fresh
// Grammar fixes Start, per spec §6 ("The first rule's parent is the
// start symbol").
func (g *Grammar) AddRule(r Rule) error {
	if len(r.RHS) == 0 {
		return fmt.Errorf("rule for parent has empty RHS: %w", wserr.ErrMalformedInput)
	}
	if r.Weight < 0 {
		return fmt.Errorf("negative rule weight: %w", wserr.ErrMalformedInput)
	}
	if g.Start == 0 && len(g.weight) == 0 {
		g.Start = r.Parent
	}

	node := g.rhsTrie.Insert(r.RHS)
	payload, _ := node.Payload.(RHSPayload)
	if payload == nil {
		payload = make(RHSPayload)
		node.Payload = payload
	}
	payload[r.Parent] += r.Weight
	g.weight[r.Parent] += r.Weight

	if len(r.RHS) == 1 {
		child := r.RHS[0]
		if g.unary[child] == nil {
			g.unary[child] = make(map[symtab.Symbol]float64)
		}
		g.unary[child][r.Parent] += r.Weight
	}
	return nil
}

// ParentWeight returns the total weight of all rules with the given
// parent (the denominator of a rule's conditional probability).
func (g *Grammar) ParentWeight(parent symtab.Symbol) float64 { return g.weight[parent] }

// RHSTrie exposes the rhsParentWeight trie for package cky's binary
// combination step.
func (g *Grammar) RHSTrie() *trie.Trie { return g.rhsTrie }

// UnaryExpansions returns parent -> weight for every rule that
// rewrites child as a single nonterminal.
func (g *Grammar) UnaryExpansions(child symtab.Symbol) map[symtab.Symbol]float64 {
	return g.unary[child]
}

// SetAdapted marks parent as adapted with discount a and concentration
// b (a=1 disables adaptation per spec §6, so callers should not call
// SetAdapted for such parents).
func (g *Grammar) SetAdapted(parent symtab.Symbol, a, b float64) {
	g.adapted[parent] = NewAdaptedParent(a, b)
}

// Adapted returns the adaptation state for parent, or nil if parent is
// not adapted.
func (g *Grammar) Adapted(parent symtab.Symbol) *AdaptedParent {
	return g.adapted[parent]
}

// IsAdapted reports whether parent has an adaptation process.
func (g *Grammar) IsAdapted(parent symtab.Symbol) bool {
	_, ok := g.adapted[parent]
	return ok
}

// AdaptedParents returns every adapted parent symbol, for iteration
// during hyperparameter resampling and grammar-file writing.
func (g *Grammar) AdaptedParents() []symtab.Symbol {
	out := make([]symtab.Symbol, 0, len(g.adapted))
	for p := range g.adapted {
		out = append(out, p)
	}
	return out
}

// RuleProb returns the conditional probability of rewriting parent as
// exactly the given child sequence (ruleWeight/ParentWeight), and
// whether such a rule is registered at all. Covers unary and n-ary
// rules uniformly, the same RHS-trie walk package cky's naryWalk does
// while filling a chart cell, reusable by a caller (the run facade)
// computing the true joint probability of an already-built derivation
// rather than its chart-relative proposal mass.
func (g *Grammar) RuleProb(parent symtab.Symbol, children []symtab.Symbol) (float64, bool) {
	node := g.rhsTrie.Root()
	for _, c := range children {
		next, ok := node.Find1(c)
		if !ok {
			return 0, false
		}
		node = next
	}
	payload, ok := node.Payload.(RHSPayload)
	if !ok {
		return 0, false
	}
	w, ok := payload[parent]
	if !ok {
		return 0, false
	}
	pw := g.ParentWeight(parent)
	if pw <= 0 {
		return 0, false
	}
	return w / pw, true
}

// AdaptedParent is a Pitman-Yor process over one nonterminal's cached
// derivation yields, parallel to py.Adaptor but with the base
// probability supplied per call rather than through a stored Base:
// for a grammar parent, the base distribution is the CKY chart's own
// fresh-derivation mass at the span in question, which is inherently
// span-dependent and can't be captured by py.Base's single-argument
// interface. The table/customer bookkeeping itself reuses py.Restaurant
// directly.
type AdaptedParent struct {
	A, B float64

	n, m   int
	tables map[string]*py.Restaurant
}

// NewAdaptedParent returns an AdaptedParent with discount a,
// concentration b, and no cached yields.
func NewAdaptedParent(a, b float64) *AdaptedParent {
	return &AdaptedParent{A: a, B: b, tables: make(map[string]*py.Restaurant)}
}

// N reports total cached derivation customers; M reports occupied
// tables (distinct cached derivation instances).
func (p *AdaptedParent) N() int { return p.n }
func (p *AdaptedParent) M() int { return p.m }

// NYield reports the customer count currently cached under yield.
func (p *AdaptedParent) NYield(yield string) int {
	if r, ok := p.tables[yield]; ok {
		return r.N()
	}
	return 0
}

// ForEachYield calls fn once per cached yield with its table-size
// histogram, for package gfile's pycache block writer.
func (p *AdaptedParent) ForEachYield(fn func(yield string, tableSizes []int)) {
	for yield, r := range p.tables {
		fn(yield, r.TableSizes())
	}
}

// SeatRaw restores yield's cached table-size histogram directly,
// bypassing the usual draw-based Seat, for package gfile's pycache
// block reader restoring a previously written grammar.
func (p *AdaptedParent) SeatRaw(yield string, tableSizes []int) {
	r, ok := p.tables[yield]
	if !ok {
		r = py.NewRestaurant()
		p.tables[yield] = r
	}
	p.n -= r.N()
	p.m -= r.M()
	r.SeatTableSizes(tableSizes)
	p.n += r.N()
	p.m += r.M()
}

// Predict returns the predictive weight of yield given its
// CKY-computed fresh-derivation mass baseP, per spec §4.2's formula.
func (p *AdaptedParent) Predict(yield string, baseP float64) float64 {
	nv, mv := 0, 0
	if r, ok := p.tables[yield]; ok {
		nv, mv = r.N(), r.M()
	}
	old := maxFloat(0, float64(nv)-float64(mv)*p.A)
	fresh := (float64(p.m)*p.A + p.B) * baseP
	return (old + fresh) / (float64(p.n) + p.B)
}

// Seat draws whether yield is served by an existing cached table or a
// brand-new one, given its fresh-derivation mass baseP, mirroring
// py.Adaptor.Seat but without a recursive Base.Insert call: the
// caller is responsible for constructing the new derivation tree (via
// package cky's top-down sampler) when isNew is true.
func (p *AdaptedParent) Seat(yield string, baseP float64, rnd Rand) (predictive float64, isNew bool) {
	r, have := p.tables[yield]
	nv, mv := 0, 0
	if have {
		nv, mv = r.N(), r.M()
	}
	wOld := maxFloat(0, float64(nv)-float64(mv)*p.A)
	wNew := (float64(p.m)*p.A + p.B) * baseP
	predictive = (wOld + wNew) / (float64(p.n) + p.B)

	draw := rnd.Float64() * (wOld + wNew)
	if draw < wOld && have {
		r.SeatExistingTable(draw, p.A)
	} else {
		if !have {
			r = py.NewRestaurant()
			p.tables[yield] = r
		}
		r.SeatNewTable()
		p.m++
		isNew = true
	}
	p.n++
	return predictive, isNew
}

// Unseat removes one cached customer of yield, reporting whether its
// table closed (the caller then deletes the underlying derivation
// node via package tree's SelectiveDelete).
func (p *AdaptedParent) Unseat(yield string, rnd Rand) (tableClosed bool) {
	r, ok := p.tables[yield]
	if !ok || r.N() == 0 {
		panic("grammar: Unseat called on a yield with no cached customers: " + yield)
	}
	draw := rnd.Float64() * float64(r.N())
	newSize := r.Unseat(draw)
	p.n--
	if newSize == 0 {
		p.m--
		tableClosed = true
	}
	if r.N() == 0 {
		delete(p.tables, yield)
	}
	return tableClosed
}

// SumTableTerm returns sum_tables(lgamma(size-a) - lgamma(1-a)) over
// every cached yield's table-size histogram, evaluated at an
// arbitrary candidate discount a rather than p.A — the same role
// py.Adaptor.SumTableTerm plays for the lexicon adaptors, needed by
// package hyper to resample a over this adapted parent's own
// restaurant statistics.
func (p *AdaptedParent) SumTableTerm(a float64) float64 {
	total := 0.0
	for _, r := range p.tables {
		total += r.LogProbTables(a)
	}
	return total
}

// ConcentrationTerm returns the m/a/b term of the Pitman-Yor
// log-probability, evaluated at arbitrary candidate a, b rather than
// p.A, p.B; mirrors py.Adaptor.ConcentrationTerm.
func (p *AdaptedParent) ConcentrationTerm(a, b float64) float64 {
	m := float64(p.m)
	if a > 0 {
		lg1, _ := math.Lgamma(m + b/a)
		lg2, _ := math.Lgamma(b / a)
		return m*math.Log(a) + lg1 - lg2
	}
	return m * math.Log(b)
}

// LogProb returns the Pitman-Yor log probability of the cached-yield
// seating arrangement, spec §4.2's logProb formula.
func (p *AdaptedParent) LogProb() float64 {
	total := 0.0
	for _, r := range p.tables {
		total += r.LogProbTables(p.A)
	}

	m, n := float64(p.m), float64(p.n)
	if p.A > 0 {
		lg1, _ := math.Lgamma(m + p.B/p.A)
		lg2, _ := math.Lgamma(p.B / p.A)
		total += m*math.Log(p.A) + lg1 - lg2
	} else {
		total += m * math.Log(p.B)
	}

	lg3, _ := math.Lgamma(n + p.B)
	lg4, _ := math.Lgamma(p.B)
	return total - (lg3 - lg4)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Rand is the minimal PRNG surface AdaptedParent needs.
type Rand interface {
	Float64() float64
}
