// Package cky implements the CKY inside engine with Pitman-Yor
// correction (spec §4.6), the top-down derivation sampler (spec
// §4.7), and the Metropolis-Hastings acceptance step that reconciles
// a CKY-chart proposal with the true joint (spec §4.9).
//
// The chart indexes spans by (left, right) character offsets rather
// than threading a separate trie keyed by symbol sequence for cached
// derivations (spec's termsPyTrees): since grammar.AdaptedParent
// already keys cached derivations by their terminal-yield text, a
// direct substring lookup through symtab.Ctx.Text is the same
// operation as a trie walk over that substring's symbols, collapsed
// to one map lookup. The RHS trie (spec's rhsParentWeight) is used
// exactly as specified, for the binary/n-ary combination step.
package cky

import (
	"fmt"
	"math"

	"github.com/cognicore/wordseg/pkg/wordseg/earley"
	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/tree"
	"github.com/cognicore/wordseg/pkg/wordseg/trie"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

const unaryClosureTolerance = 1e-7

// Rand is the minimal PRNG surface the derivation sampler needs.
type Rand interface {
	Float64() float64
}

// Chart is the inside chart over one terminal sequence.
type Chart struct {
	ctx   *symtab.Ctx
	g     *grammar.Grammar
	base  symtab.Span // the sentence span terms was drawn from, for yield-text lookups
	terms []symtab.Symbol
	temp  float64

	predicted map[earley.Span]map[symtab.Symbol]bool // nil disables the filter

	inactive map[earley.Span]map[symtab.Symbol]float64
	active   map[earley.Span]map[*trie.Node]float64

	// oldMass/newMass record, per adapted parent per span, the
	// cached-derivation and fresh-derivation portions of inactive's
	// total mass separately, so the top-down sampler can threshold
	// between reusing a cached subtree and building a fresh one (spec
	// §4.7's "draw from the cached table mass or the fresh mass").
	oldMass map[earley.Span]map[symtab.Symbol]float64
	newMass map[earley.Span]map[symtab.Symbol]float64

	// baseMass records, per adapted parent per span, the grammar's own
	// fresh-derivation mass before any Pitman-Yor correction — exactly
	// the baseP argument grammar.AdaptedParent.Seat/Predict expect, and
	// independent of the adaptor's current seating (it is purely a
	// function of the PCFG rule weights and temperature). The run
	// facade reads this back via BaseMass when reseating an accepted
	// derivation.
	baseMass map[earley.Span]map[symtab.Symbol]float64

	// derivCache holds, per adapted parent per cached yield text, the
	// tree node of its currently-cached derivation, registered by the
	// caller (the run facade) as it accepts derivations across
	// iterations. Sampling a "reuse" branch with no registered node
	// falls back to building fresh, since that only happens when a
	// caller's bookkeeping and the restaurant counts have briefly
	// diverged (e.g. the very first pass over a sentence).
	derivCache map[symtab.Symbol]map[string]tree.NodeID
}

// NewChart returns an empty chart over terms (the terminal symbols of
// base, in order). predicted may be nil to disable Earley pruning.
func NewChart(ctx *symtab.Ctx, g *grammar.Grammar, base symtab.Span, terms []symtab.Symbol, temp float64, predicted map[earley.Span]map[symtab.Symbol]bool) *Chart {
	return &Chart{
		ctx: ctx, g: g, base: base, terms: terms, temp: temp, predicted: predicted,
		inactive:   make(map[earley.Span]map[symtab.Symbol]float64),
		active:     make(map[earley.Span]map[*trie.Node]float64),
		oldMass:    make(map[earley.Span]map[symtab.Symbol]float64),
		newMass:    make(map[earley.Span]map[symtab.Symbol]float64),
		baseMass:   make(map[earley.Span]map[symtab.Symbol]float64),
		derivCache: make(map[symtab.Symbol]map[string]tree.NodeID),
	}
}

// RegisterCachedDerivation records id as the current cached derivation
// of parent over yield, so future Sample calls may reuse it instead of
// building a fresh subtree. The caller (the run facade) is responsible
// for keeping this in step with the AdaptedParent restaurant it reads
// NYield from.
func (c *Chart) RegisterCachedDerivation(parent symtab.Symbol, yield string, id tree.NodeID) {
	m := c.derivCache[parent]
	if m == nil {
		m = make(map[string]tree.NodeID)
		c.derivCache[parent] = m
	}
	m[yield] = id
}

// ForgetCachedDerivation removes a previously registered cached
// derivation, e.g. after its table closed.
func (c *Chart) ForgetCachedDerivation(parent symtab.Symbol, yield string) {
	delete(c.derivCache[parent], yield)
}

func (c *Chart) admits(sp earley.Span, cat symtab.Symbol) bool {
	if c.predicted == nil {
		return true
	}
	return c.predicted[sp][cat]
}

func (c *Chart) yieldText(sp earley.Span) string {
	return c.ctx.Text(symtab.Span{Start: c.base.Start + sp.Left, Len: sp.Right - sp.Left})
}

// Fill builds the whole chart and returns inside(terms, start). An
// ErrParseFailure means the predictive filter (or the grammar itself)
// admits no derivation of start over the full span.
func (c *Chart) Fill() (float64, error) {
	n := len(c.terms)

	for i := 0; i < n; i++ {
		sp := earley.Span{Left: i, Right: i + 1}
		c.seedFresh(sp, map[symtab.Symbol]float64{c.terms[i]: 1})
		c.correctAndCache(sp)
		c.unaryClosure(sp)
		c.populateActive(sp)
	}

	for width := 2; width <= n; width++ {
		for left := 0; left+width <= n; left++ {
			right := left + width
			sp := earley.Span{Left: left, Right: right}
			c.combine(sp)
			c.correctAndCache(sp)
			c.unaryClosure(sp)
			c.populateActive(sp)
		}
	}

	full := earley.Span{Left: 0, Right: n}
	p := c.inactive[full][c.g.Start]
	if p <= 0 {
		return 0, fmt.Errorf("no derivation of start symbol over the full span: %w", wserr.ErrParseFailure)
	}
	return p, nil
}

func (c *Chart) seedFresh(sp earley.Span, fresh map[symtab.Symbol]float64) {
	dst := c.inactive[sp]
	if dst == nil {
		dst = make(map[symtab.Symbol]float64)
		c.inactive[sp] = dst
	}
	for cat, w := range fresh {
		if !c.admits(sp, cat) {
			continue
		}
		dst[cat] += w
	}
}

// combine fills inactive[sp] and the active trie edges that feed it,
// for every split point of sp's span, per spec §4.6 step 2.
func (c *Chart) combine(sp earley.Span) {
	for mid := sp.Left + 1; mid < sp.Right; mid++ {
		leftSp := earley.Span{Left: sp.Left, Right: mid}
		rightSp := earley.Span{Left: mid, Right: sp.Right}
		for node, leftProb := range c.active[leftSp] {
			for cat, rightProb := range c.inactive[rightSp] {
				child, ok := node.Find1(cat)
				if !ok {
					continue
				}
				contribution := math.Pow(leftProb*rightProb, 1/c.temp)
				if payload, ok := child.Payload.(grammar.RHSPayload); ok {
					for parent, ruleWeight := range payload {
						if !c.admits(sp, parent) {
							continue
						}
						pw := c.g.ParentWeight(parent)
						if pw <= 0 {
							continue
						}
						share := math.Pow(ruleWeight/pw, 1/c.temp)
						c.seedFresh(sp, map[symtab.Symbol]float64{parent: contribution * share})
					}
				}
				// child may or may not have further outgoing arcs; a
				// leaf simply never matches in a later Find1 lookup, so
				// it is harmless to record it here unconditionally.
				dst := c.active[sp]
				if dst == nil {
					dst = make(map[*trie.Node]float64)
					c.active[sp] = dst
				}
				dst[child] += contribution
			}
		}
	}
}

// populateActive seeds active[sp] with root-level trie edges for
// every category just completed at sp, so larger spans can extend
// through sp as a left-active edge (spec: "populate active[i,i+1]
// from the RHS trie", generalized to every span width).
func (c *Chart) populateActive(sp earley.Span) {
	root := c.g.RHSTrie().Root()
	for cat, w := range c.inactive[sp] {
		node, ok := root.Find1(cat)
		if !ok {
			continue
		}
		dst := c.active[sp]
		if dst == nil {
			dst = make(map[*trie.Node]float64)
			c.active[sp] = dst
		}
		dst[node] += w
	}
}

// correctAndCache applies the Pitman-Yor correction to every adapted
// parent's freshly computed mass at sp (scaling it by the new-table
// factor (m*a+b)/(n+b)) and adds the old-table mass contributed by
// any cached derivations whose yield matches sp's substring.
func (c *Chart) correctAndCache(sp earley.Span) {
	dst := c.inactive[sp]
	if dst == nil {
		return
	}
	yield := c.yieldText(sp)
	for _, parent := range c.g.AdaptedParents() {
		fresh, ok := dst[parent]
		if !ok || fresh <= 0 {
			continue
		}
		ap := c.g.Adapted(parent)
		newMass := fresh * math.Pow((float64(ap.M())*ap.A+ap.B)/(float64(ap.N())+ap.B), 1/c.temp)

		oldMass := 0.0
		if nv := ap.NYield(yield); nv > 0 {
			oldMass = math.Pow((float64(nv)-ap.A)/(float64(ap.N())+ap.B), 1/c.temp)
		}

		dst[parent] = newMass + oldMass
		c.recordMass(c.newMass, sp, parent, newMass)
		c.recordMass(c.oldMass, sp, parent, oldMass)
		c.recordMass(c.baseMass, sp, parent, fresh)
	}
}

// BaseMass returns the grammar's own fresh-derivation mass for parent
// over sp, before any Pitman-Yor correction — the baseP a caller
// reseating an accepted derivation should pass to
// grammar.AdaptedParent.Seat. It is 0 for any (sp, parent) Fill never
// produced fresh mass for.
func (c *Chart) BaseMass(sp earley.Span, parent symtab.Symbol) float64 {
	return c.baseMass[sp][parent]
}

func (c *Chart) recordMass(m map[earley.Span]map[symtab.Symbol]float64, sp earley.Span, cat symtab.Symbol, v float64) {
	dst := m[sp]
	if dst == nil {
		dst = make(map[symtab.Symbol]float64)
		m[sp] = dst
	}
	dst[cat] = v
}

// unaryClosure repeatedly promotes inactive[sp] through unary rules
// until no frontier addition exceeds unaryClosureTolerance. Only mass
// added since the previous round is propagated further, so a chain
// A->B->C is not re-counted on every pass.
func (c *Chart) unaryClosure(sp earley.Span) {
	dst := c.inactive[sp]
	if dst == nil {
		return
	}
	frontier := make(map[symtab.Symbol]float64, len(dst))
	for cat, w := range dst {
		frontier[cat] = w
	}

	for len(frontier) > 0 {
		additions := make(map[symtab.Symbol]float64)
		for cat, w := range frontier {
			for parent, ruleWeight := range c.g.UnaryExpansions(cat) {
				if !c.admits(sp, parent) {
					continue
				}
				pw := c.g.ParentWeight(parent)
				if pw <= 0 {
					continue
				}
				additions[parent] += w * math.Pow(ruleWeight/pw, 1/c.temp)
			}
		}
		next := make(map[symtab.Symbol]float64)
		for parent, add := range additions {
			if add >= unaryClosureTolerance {
				next[parent] = add
			}
			dst[parent] += add
		}
		frontier = next
	}
}

// Inactive exposes the inside probability of cat over sp, 0 if none.
func (c *Chart) Inactive(sp earley.Span, cat symtab.Symbol) float64 {
	return c.inactive[sp][cat]
}
