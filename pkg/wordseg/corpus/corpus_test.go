package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

func TestParseLineJoinsWordsAndRecordsThem(t *testing.T) {
	u, err := ParseLine("th e cat")
	if err != nil {
		t.Fatal(err)
	}
	if u.Text != "thecat" {
		t.Fatalf("Text = %q, want %q", u.Text, "thecat")
	}
	if len(u.Words) != 3 {
		t.Fatalf("Words = %v, want 3 entries", u.Words)
	}
}

func TestParseLineEmptyIsError(t *testing.T) {
	_, err := ParseLine("   ")
	if !errors.Is(err, wserr.ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestReadAllReadsEveryLine(t *testing.T) {
	r := strings.NewReader("ab c\nd ef\n")
	utts, err := ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(utts) != 2 {
		t.Fatalf("got %d utterances, want 2", len(utts))
	}
	if utts[0].Text != "abc" || utts[1].Text != "def" {
		t.Fatalf("unexpected utterance text: %+v", utts)
	}
}

func TestToSentenceMarksGoldBoundary(t *testing.T) {
	u, err := ParseLine("th e")
	if err != nil {
		t.Fatal(err)
	}
	ctx := symtab.New()
	s := u.ToSentence(ctx, -1, nil)
	if len(s.Words()) != 2 {
		t.Fatalf("Words() = %v, want 2 words from gold init", s.Words())
	}
}

func TestExperimentalReaderSplitsSections(t *testing.T) {
	input := "Training:\nab c\nTest:\nfoo\tbar\n"
	exp, err := NewExperimentalReader(strings.NewReader(input)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.Training) != 1 || exp.Training[0].Text != "abc" {
		t.Fatalf("Training = %+v", exp.Training)
	}
	if len(exp.Test) != 1 || exp.Test[0] != (TwoAFCItem{WordA: "foo", WordB: "bar"}) {
		t.Fatalf("Test = %+v", exp.Test)
	}
}

func TestExperimentalReaderRejectsLineBeforeHeader(t *testing.T) {
	_, err := NewExperimentalReader(strings.NewReader("ab c\n")).ReadAll()
	if !errors.Is(err, wserr.ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}
