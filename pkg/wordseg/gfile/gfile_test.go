package gfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

const sampleGrammar = `
1 Sentence --> Word
1 Sentence --> Word Sentence
1 0.3 2 Word --> Chars
`

func TestLoadParsesThetaAndOverrides(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1, DefaultTheta: 1}
	g, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	word, ok := ctx.Lookup("Word")
	if !ok {
		t.Fatal("Word symbol missing")
	}
	if !g.IsAdapted(word) {
		t.Fatal("Word should be adapted from its inline a/b override")
	}
	ap := g.Adapted(word)
	if ap.A != 0.3 || ap.B != 2 {
		t.Fatalf("Word adaptation a=%v b=%v, want 0.3 2", ap.A, ap.B)
	}

	sentence, _ := ctx.Lookup("Sentence")
	if g.Start != sentence {
		t.Fatalf("Start = %v, want Sentence (%v)", g.Start, sentence)
	}
	if g.ParentWeight(sentence) != 2 {
		t.Fatalf("ParentWeight(Sentence) = %v, want 2", g.ParentWeight(sentence))
	}
}

func TestLoadRejectsMissingArrow(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1}
	_, err := l.Load(ctx, strings.NewReader("1 Sentence Word\n"))
	if err == nil {
		t.Fatal("expected an error for a line with no arrow")
	}
}

func TestLoadRejectsOutOfRangeA(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1}
	_, err := l.Load(ctx, strings.NewReader("1 1.5 2 Word --> Chars\n"))
	if err == nil {
		t.Fatal("expected an error for a > 1")
	}
}

func TestWriteGrammarRoundTrips(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1, DefaultTheta: 1}
	g, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteGrammar(ctx, g, &buf); err != nil {
		t.Fatalf("WriteGrammar: %v", err)
	}

	ctx2 := symtab.New()
	g2, err := l.Load(ctx2, strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("reload: %v\n%s", err, buf.String())
	}
	word, _ := ctx2.Lookup("Word")
	if !g2.IsAdapted(word) {
		t.Fatal("reloaded grammar lost Word's adaptation")
	}
}

func TestPycacheRoundTripsTableSizes(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1, DefaultTheta: 1}
	g, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	word, _ := ctx.Lookup("Word")
	g.Adapted(word).SeatRaw("cat", []int{2, 1})

	var buf bytes.Buffer
	if err := WritePycache(ctx, g, &buf, WriteOptions{}); err != nil {
		t.Fatalf("WritePycache: %v", err)
	}

	g2, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("reload grammar: %v", err)
	}
	if err := ReadPycache(ctx, g2, strings.NewReader(buf.String())); err != nil {
		t.Fatalf("ReadPycache: %v\n%s", err, buf.String())
	}
	if g2.Adapted(word).NYield("cat") != 3 {
		t.Fatalf("NYield(cat) = %d, want 3", g2.Adapted(word).NYield("cat"))
	}
}

func TestPycacheCompactFormRoundTripsCounts(t *testing.T) {
	ctx := symtab.New()
	l := &Loader{DefaultA: 1, DefaultB: 1, DefaultTheta: 1}
	g, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	word, _ := ctx.Lookup("Word")
	g.Adapted(word).SeatRaw("dog", []int{1, 1, 1})

	var buf bytes.Buffer
	if err := WritePycache(ctx, g, &buf, WriteOptions{CompactTrees: true}); err != nil {
		t.Fatalf("WritePycache: %v", err)
	}

	g2, err := l.Load(ctx, strings.NewReader(sampleGrammar))
	if err != nil {
		t.Fatalf("reload grammar: %v", err)
	}
	if err := ReadPycache(ctx, g2, strings.NewReader(buf.String())); err != nil {
		t.Fatalf("ReadPycache: %v", err)
	}
	if g2.Adapted(word).NYield("dog") != 3 {
		t.Fatalf("NYield(dog) = %d, want 3", g2.Adapted(word).NYield("dog"))
	}
}
