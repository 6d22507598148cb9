package cky

import (
	"math"
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/earley"
	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/tree"
)

// buildWordGrammar builds a minimal adaptor grammar: Sentence rewrites
// to one or more Words, and Word is adapted over the character string
// it spans (a simplified stand-in for the real grammar file's
// Word -> Chars+ family).
func buildWordGrammar(ctx *symtab.Ctx) *grammar.Grammar {
	g := grammar.New(1, 1)
	sentence := ctx.Intern("Sentence")
	word := ctx.Intern("Word")
	chars := ctx.Intern("Chars")

	g.AddRule(grammar.Rule{Parent: sentence, RHS: []symtab.Symbol{word}, Weight: 1})
	g.AddRule(grammar.Rule{Parent: sentence, RHS: []symtab.Symbol{word, sentence}, Weight: 1})
	g.AddRule(grammar.Rule{Parent: word, RHS: []symtab.Symbol{chars}, Weight: 1})
	g.SetAdapted(word, 0.3, 2)

	_ = chars
	return g
}

func termsOf(ctx *symtab.Ctx, text string) []symtab.Symbol {
	terms := make([]symtab.Symbol, len([]rune(text)))
	chars := ctx.Intern("Chars")
	for i := range terms {
		terms[i] = chars
	}
	return terms
}

func TestFillProducesPositiveStartMass(t *testing.T) {
	ctx := symtab.New()
	g := buildWordGrammar(ctx)
	base := ctx.Append("cat")
	terms := termsOf(ctx, "cat")

	c := NewChart(ctx, g, base, terms, 1.0, nil)
	p, err := c.Fill()
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		t.Fatalf("Fill() = %v, want a finite positive mass", p)
	}
}

func TestFillRespectsEarleyFilter(t *testing.T) {
	ctx := symtab.New()
	g := buildWordGrammar(ctx)
	base := ctx.Append("cat")
	terms := termsOf(ctx, "cat")

	empty := map[earley.Span]map[symtab.Symbol]bool{}
	c := NewChart(ctx, g, base, terms, 1.0, empty)
	_, err := c.Fill()
	if err == nil {
		t.Fatal("expected ErrParseFailure when the filter admits nothing")
	}
}

func TestSampleProducesWellFormedDerivation(t *testing.T) {
	ctx := symtab.New()
	g := buildWordGrammar(ctx)
	base := ctx.Append("cat")
	terms := termsOf(ctx, "cat")

	c := NewChart(ctx, g, base, terms, 1.0, nil)
	if _, err := c.Fill(); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	arena := tree.NewArena()
	rnd := rng.New(7)
	root, logR, err := c.Sample(arena, rnd)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if logR > 0 || math.IsNaN(logR) {
		t.Fatalf("Sample() logR = %v, want a finite non-positive log-probability", logR)
	}

	var yield []symtab.Symbol
	yield = arena.TerminalYield(root, nil)
	if len(yield) != len(terms) {
		t.Fatalf("sampled derivation yields %d terminals, want %d", len(yield), len(terms))
	}
	for i, sym := range yield {
		if sym != terms[i] {
			t.Fatalf("yield[%d] = %v, want %v", i, sym, terms[i])
		}
	}
}

func TestTreeLogProbMatchesSampleForItsOwnDraw(t *testing.T) {
	ctx := symtab.New()
	g := buildWordGrammar(ctx)
	base := ctx.Append("cat")
	terms := termsOf(ctx, "cat")

	c := NewChart(ctx, g, base, terms, 1.0, nil)
	if _, err := c.Fill(); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	arena := tree.NewArena()
	rnd := rng.New(11)
	root, logR, err := c.Sample(arena, rnd)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	full := earley.Span{Left: 0, Right: len(terms)}
	got, err := c.TreeLogProb(arena, root, full, g.Start)
	if err != nil {
		t.Fatalf("TreeLogProb: %v", err)
	}
	if math.Abs(got-logR) > 1e-9 {
		t.Fatalf("TreeLogProb(Sample's own draw) = %v, want %v", got, logR)
	}
}

func TestAcceptAlwaysTakesAnImprovingProposal(t *testing.T) {
	rnd := rng.New(3)
	if !Accept(0.01, 0.9, 0.5, 0.5, 1.0, rnd) {
		t.Fatal("a strictly better proposal at equal proposal density should always be accepted")
	}
}

func TestAcceptTreatsUnderflowAsAcceptance(t *testing.T) {
	rnd := rng.New(4)
	if !Accept(0, 0.5, 0.5, 0.5, 1.0, rnd) {
		t.Fatal("pi0 == 0 should be treated as an automatic accept")
	}
}

func TestShouldShortCircuitOnIdenticalShape(t *testing.T) {
	ctx := symtab.New()
	arena := tree.NewArena()
	label := ctx.Intern("Word")
	a := arena.New(label)
	arena.Node(a).Count = 3
	b := arena.New(label)
	arena.Node(b).Count = 9

	if !ShouldShortCircuit(arena, a, b) {
		t.Fatal("two leaves with the same label should short-circuit regardless of differing counts")
	}
}
