package grammar

import (
	"math"
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/rng"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

func TestAddRuleFirstParentBecomesStart(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	s := ctx.Intern("S")
	a := ctx.Intern("A")

	if err := g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{a}, Weight: 1}); err != nil {
		t.Fatal(err)
	}
	if g.Start != s {
		t.Fatalf("Start = %v, want first rule's parent %v", g.Start, s)
	}
}

func TestAddRuleRejectsEmptyRHS(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	err := g.AddRule(Rule{Parent: ctx.Intern("S")})
	if err == nil {
		t.Fatal("expected error for empty RHS")
	}
}

func TestParentWeightSumsAllRules(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	s, a, b := ctx.Intern("S"), ctx.Intern("A"), ctx.Intern("B")
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{a}, Weight: 2})
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{b}, Weight: 3})

	if g.ParentWeight(s) != 5 {
		t.Fatalf("ParentWeight = %v, want 5", g.ParentWeight(s))
	}
}

func TestUnaryExpansionsIndexedByChild(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	s, a := ctx.Intern("S"), ctx.Intern("A")
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{a}, Weight: 1})

	exp := g.UnaryExpansions(a)
	if exp[s] != 1 {
		t.Fatalf("UnaryExpansions(A)[S] = %v, want 1", exp[s])
	}
}

func TestAdaptedParentSeatUnseatIdentity(t *testing.T) {
	p := NewAdaptedParent(0.3, 2)
	rnd := rng.New(1)

	for i := 0; i < 5; i++ {
		p.Seat("the dog", 0.01, rnd)
	}
	n0, m0 := p.N(), p.M()

	for i := 0; i < 5; i++ {
		p.Unseat("the dog", rnd)
	}
	if p.N() != 0 || p.M() != 0 {
		t.Fatalf("N=%d M=%d after unseating everything, want 0,0", p.N(), p.M())
	}
	if n0 == 0 || m0 == 0 {
		t.Fatal("sanity: seating should have produced nonzero N/M")
	}
}

func TestAdaptedParentLogProbFinite(t *testing.T) {
	p := NewAdaptedParent(0.2, 1.5)
	rnd := rng.New(2)
	for i := 0; i < 10; i++ {
		p.Seat("yield", 0.02, rnd)
	}
	lp := p.LogProb()
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		t.Fatalf("LogProb() = %v, want finite", lp)
	}
}

func TestAdaptedParentHyperTermsFinite(t *testing.T) {
	p := NewAdaptedParent(0.3, 2)
	rnd := rng.New(3)
	for i := 0; i < 8; i++ {
		p.Seat("the dog", 0.01, rnd)
		p.Seat("a cat", 0.02, rnd)
	}

	if st := p.SumTableTerm(0.3); math.IsNaN(st) || math.IsInf(st, 0) {
		t.Fatalf("SumTableTerm(0.3) = %v, want finite", st)
	}
	if ct := p.ConcentrationTerm(0.3, 2); math.IsNaN(ct) || math.IsInf(ct, 0) {
		t.Fatalf("ConcentrationTerm(0.3, 2) = %v, want finite", ct)
	}
}

func TestRuleProbMatchesWeightRatio(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	s, a, b, c := ctx.Intern("S"), ctx.Intern("A"), ctx.Intern("B"), ctx.Intern("C")
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{a, b}, Weight: 3})
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{c}, Weight: 1})

	p, ok := g.RuleProb(s, []symtab.Symbol{a, b})
	if !ok {
		t.Fatal("expected rule S -> A B to be registered")
	}
	if want := 0.75; math.Abs(p-want) > 1e-9 {
		t.Fatalf("RuleProb(S -> A B) = %v, want %v", p, want)
	}
}

func TestRuleProbMissingRuleNotOK(t *testing.T) {
	g := New(0, 1)
	ctx := symtab.New()
	s, a := ctx.Intern("S"), ctx.Intern("A")
	g.AddRule(Rule{Parent: s, RHS: []symtab.Symbol{a}, Weight: 1})

	if _, ok := g.RuleProb(s, []symtab.Symbol{ctx.Intern("Z")}); ok {
		t.Fatal("expected RuleProb for an unregistered RHS to report ok=false")
	}
}
