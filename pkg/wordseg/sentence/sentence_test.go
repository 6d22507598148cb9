package sentence

import (
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/base"
	"github.com/cognicore/wordseg/pkg/wordseg/lexicon"
	"github.com/cognicore/wordseg/pkg/wordseg/rng"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

func TestSentenceSentinelsAlwaysSet(t *testing.T) {
	ctx := symtab.New()
	sp := ctx.Append("thecat")
	s := New(sp, []int{1, 2, 3, 4, 5}, nil, 0.5, func() float64 { return 0.9 })

	if !s.Boundary[0] || !s.Boundary[1] || !s.Boundary[len(s.Boundary)-2] || !s.Boundary[len(s.Boundary)-1] {
		t.Fatalf("sentinels not all set: %v", s.Boundary)
	}
}

func TestSentenceGoldInit(t *testing.T) {
	ctx := symtab.New()
	sp := ctx.Append("thecat")
	gold := []int{3}
	s := New(sp, []int{1, 2, 3, 4, 5}, gold, -1, func() float64 { return 0 })

	if !s.Boundary[3] {
		t.Fatal("gold boundary at 3 should be set when initPBoundary < 0")
	}
	if s.Boundary[2] {
		t.Fatal("non-gold interior position 2 should be clear")
	}
}

func TestSentenceWordsSplitsOnBoundaries(t *testing.T) {
	ctx := symtab.New()
	sp := ctx.Append("thecat")
	s := New(sp, []int{1, 2, 3, 4, 5}, []int{3}, -1, func() float64 { return 0 })

	words := s.Words()
	var texts []string
	for _, w := range words {
		texts = append(texts, ctx.Text(w))
	}
	if len(texts) != 2 || texts[0] != "the" || texts[1] != "cat" {
		t.Fatalf("Words() = %v, want [the cat]", texts)
	}
}

func TestSentenceEraseInsertIdentity(t *testing.T) {
	ctx := symtab.New()
	rnd := rng.New(1)
	u := lexicon.NewUnigram(base.NewGeometricChar(0.5, 26, "<nl>"), 0, 1.0, rnd)

	sp := ctx.Append("thecat")
	s := New(sp, []int{1, 2, 3, 4, 5}, []int{3}, -1, func() float64 { return 0 })
	s.InsertWords(ctx, u)

	n0, types0 := u.NTokens(), u.NTypes()

	s.EraseWords(ctx, u)
	s.InsertWords(ctx, u)

	if u.NTokens() != n0 || u.NTypes() != types0 {
		t.Fatalf("erase+insert changed lexicon: tokens=%d types=%d, want %d,%d", u.NTokens(), u.NTypes(), n0, types0)
	}
}

func TestSentenceNeighbors(t *testing.T) {
	ctx := symtab.New()
	sp := ctx.Append("abcdef")
	s := New(sp, []int{1, 2, 3, 4, 5}, []int{2, 4}, -1, func() float64 { return 0 })

	i0, i1, i2, i3 := s.Neighbors(3)
	if i1 != 2 || i2 != 4 {
		t.Fatalf("Neighbors(3) inner = (%d,%d), want (2,4)", i1, i2)
	}
	if i0 != 0 || i3 != 6 {
		t.Fatalf("Neighbors(3) outer = (%d,%d), want (0,6)", i0, i3)
	}
}
