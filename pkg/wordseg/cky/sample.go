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

// option is one weighted way of deriving a category over a span:
// reusing a cached subtree, rewriting through an RHS sequence of
// children (a sequence of length one covers what a plain unary rule
// would), or standing as the bare terminal itself.
type option struct {
	weight float64
	kind   optionKind
	parts  []part      // nary, including length-1 (unary)
	cached tree.NodeID // reuse
}

type optionKind int

const (
	optTerminal optionKind = iota
	optNary
	optReuse
)

type part struct {
	span earley.Span
	cat  symtab.Symbol
}

// Sample draws one derivation of the chart's start symbol over the
// full terminal sequence, per spec §4.7: thresholding between cached
// derivations and fresh expansions at every adapted parent, and
// recursing depth-first through whichever fresh rule is chosen
// elsewhere. Fill must have already been called successfully. The
// second return is log(r1), the log-probability of the exact path
// drawn under this chart's own proposal distribution — the quantity
// spec §4.9's Metropolis-Hastings test calls treeProb(T1).
func (c *Chart) Sample(arena *tree.Arena, rnd Rand) (tree.NodeID, float64, error) {
	return c.SampleCategory(c.g.Start, arena, rnd)
}

// SampleCategory draws a derivation of cat over the full terminal
// sequence, the same way Sample does for the grammar's start symbol.
// The run facade uses this directly to rematerialize a cached
// derivation tree for an adapted parent loaded from a pycache block,
// whose on-disk form records only the yield text and table-size
// histogram, not the tree structure.
func (c *Chart) SampleCategory(cat symtab.Symbol, arena *tree.Arena, rnd Rand) (tree.NodeID, float64, error) {
	full := earley.Span{Left: 0, Right: len(c.terms)}
	return c.sampleSpan(full, cat, arena, rnd)
}

func (c *Chart) sampleSpan(sp earley.Span, cat symtab.Symbol, arena *tree.Arena, rnd Rand) (tree.NodeID, float64, error) {
	total := c.inactive[sp][cat]
	if total <= 0 {
		return 0, 0, fmt.Errorf("category has no derivation over its span: %w", wserr.ErrInvariantViolation)
	}

	opts := c.options(sp, cat)
	if len(opts) == 0 {
		return 0, 0, fmt.Errorf("no reconstructable option for an admissible category: %w", wserr.ErrInvariantViolation)
	}

	chosen := chooseOption(opts, rnd)
	logP := math.Log(chosen.weight / sumWeights(opts))

	switch chosen.kind {
	case optReuse:
		return chosen.cached, logP, nil
	case optTerminal:
		return arena.New(cat), logP, nil
	case optNary:
		n := arena.New(cat)
		for _, p := range chosen.parts {
			child, subLog, err := c.sampleSpan(p.span, p.cat, arena, rnd)
			if err != nil {
				return 0, 0, err
			}
			arena.Node(n).Children = append(arena.Node(n).Children, child)
			logP += subLog
		}
		return n, logP, nil
	}
	return 0, 0, fmt.Errorf("unreachable option kind: %w", wserr.ErrInvariantViolation)
}

func sumWeights(opts []option) float64 {
	total := 0.0
	for _, o := range opts {
		total += o.weight
	}
	return total
}

// TreeLogProb computes the log-probability that this chart's own
// sampleSpan would have produced the already-built subtree id over
// (sp, cat), without drawing anything — spec §4.9's r0, the proposal
// probability of reconstructing the current derivation T0 against the
// chart built with T0 already unseated. Each node's child spans are
// recovered from its terminal-leaf counts (TerminalYield), since arena
// nodes carry no position of their own: a derivation is built from a
// left-to-right sequence of contiguous spans, so consecutive child
// widths determine the split points uniquely.
func (c *Chart) TreeLogProb(arena *tree.Arena, id tree.NodeID, sp earley.Span, cat symtab.Symbol) (float64, error) {
	opts := c.options(sp, cat)
	total := sumWeights(opts)
	if total <= 0 {
		return 0, fmt.Errorf("category has no derivation over its span: %w", wserr.ErrInvariantViolation)
	}

	node := arena.Node(id)
	for _, o := range opts {
		if o.kind == optReuse && o.cached == id {
			return math.Log(o.weight / total), nil
		}
	}
	if len(node.Children) == 0 {
		for _, o := range opts {
			if o.kind == optTerminal {
				return math.Log(o.weight / total), nil
			}
		}
		return 0, fmt.Errorf("no terminal option matches existing leaf: %w", wserr.ErrInvariantViolation)
	}

	parts := make([]part, len(node.Children))
	pos := sp.Left
	for i, ch := range node.Children {
		w := len(arena.TerminalYield(ch, nil))
		parts[i] = part{span: earley.Span{Left: pos, Right: pos + w}, cat: arena.Node(ch).Label}
		pos += w
	}

	for _, o := range opts {
		if o.kind != optNary || len(o.parts) != len(parts) {
			continue
		}
		match := true
		for i := range parts {
			if o.parts[i] != parts[i] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		logP := math.Log(o.weight / total)
		for i, p := range parts {
			sub, err := c.TreeLogProb(arena, node.Children[i], p.span, p.cat)
			if err != nil {
				return 0, err
			}
			logP += sub
		}
		return logP, nil
	}
	return 0, fmt.Errorf("no matching derivation option for existing tree: %w", wserr.ErrInvariantViolation)
}

func chooseOption(opts []option, rnd Rand) option {
	total := 0.0
	for _, o := range opts {
		total += o.weight
	}
	draw := rnd.Float64() * total
	running := 0.0
	for _, o := range opts {
		running += o.weight
		if draw < running {
			return o
		}
	}
	return opts[len(opts)-1]
}

// options enumerates every way cat can be realized over sp: a cache
// reuse (if adapted and registered), the bare terminal (if sp is a
// single position matching it literally), single-child unary rules,
// and n-ary RHS sequences walked through the rule trie.
func (c *Chart) options(sp earley.Span, cat symtab.Symbol) []option {
	var opts []option

	// scale converts the raw grammar mass naryWalk recomputes (the
	// same "fresh" quantity correctAndCache derived dst[cat] from)
	// into the Pitman-Yor-corrected newMass correctAndCache actually
	// folded into the chart's total, so that reuse-vs-build-fresh
	// options are drawn in the same proportion as the chart's own
	// inside probability, not the uncorrected grammar probability.
	scale := 1.0
	if ap := c.g.Adapted(cat); ap != nil {
		old := c.oldMass[sp][cat]
		if old > 0 {
			if id, ok := c.derivCache[cat][c.yieldText(sp)]; ok {
				opts = append(opts, option{weight: old, kind: optReuse, cached: id})
			}
		}
		if fresh := c.baseMass[sp][cat]; fresh > 0 {
			scale = c.newMass[sp][cat] / fresh
		}
	}

	if sp.Right-sp.Left == 1 && cat == c.terms[sp.Left] {
		opts = append(opts, option{weight: scale, kind: optTerminal})
	}

	// naryWalk below covers both single-child (unary) and multi-child
	// RHS sequences, since rhsTrie stores length-1 sequences the same
	// way as longer ones; a separate pass over UnaryExpansions would
	// double-count the same rule mass already folded into
	// c.inactive[sp][cat] by unaryClosure.
	var nary []option
	c.naryWalk(c.g.RHSTrie().Root(), sp.Left, sp.Right, cat, nil, 1, &nary)
	for i := range nary {
		nary[i].weight *= scale
	}
	opts = append(opts, nary...)
	return opts
}

// naryWalk advances node through however many completed categories
// match between pos and right, one sub-span at a time, accumulating
// parts and the running probability mass. When it reaches exactly
// right with a payload containing cat, it records one option.
func (c *Chart) naryWalk(node *trie.Node, pos, right int, cat symtab.Symbol, parts []part, mass float64, opts *[]option) {
	if pos == right {
		payload, ok := node.Payload.(grammar.RHSPayload)
		if !ok {
			return
		}
		ruleWeight, ok := payload[cat]
		if !ok {
			return
		}
		pw := c.g.ParentWeight(cat)
		if pw <= 0 {
			return
		}
		share := math.Pow(ruleWeight/pw, 1/c.temp)
		partsCopy := make([]part, len(parts))
		copy(partsCopy, parts)
		*opts = append(*opts, option{weight: mass * share, kind: optNary, parts: partsCopy})
		return
	}
	for mid := pos + 1; mid <= right; mid++ {
		subSp := earley.Span{Left: pos, Right: mid}
		for childCat, w := range c.inactive[subSp] {
			next, ok := node.Find1(childCat)
			if !ok {
				continue
			}
			c.naryWalk(next, mid, right, cat, append(parts, part{span: subSp, cat: childCat}), mass*w, opts)
		}
	}
}
