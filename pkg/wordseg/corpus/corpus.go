// Package corpus reads the line-oriented utterance format that drives
// both engines: one utterance per line, whitespace marks gold
// boundaries, empty lines are errors. Grounded on pkg/korel/ingest's
// Doc/Validate shape — a value type plus a validation method, not a
// parser framework.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/wordseg/pkg/wordseg/sentence"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// Utterance is one parsed corpus line before it becomes a
// sentence.Sentence: the concatenated (unspaced) text, and the gold
// words it was joined from. ToSentence derives the gold boundary
// positions (character offsets, not counting sentinels) from Words.
type Utterance struct {
	Text  string
	Words []string // whitespace-delimited gold words, in order
}

// Validate reports ErrMalformedInput for an empty utterance.
func (u *Utterance) Validate() error {
	if strings.TrimSpace(u.Text) == "" {
		return fmt.Errorf("utterance has no words: %w", wserr.ErrMalformedInput)
	}
	return nil
}

// ParseLine splits a raw corpus line into an Utterance: whitespace
// positions become gold word boundaries, and are stripped from Text.
func ParseLine(line string) (Utterance, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return Utterance{}, fmt.Errorf("empty corpus line: %w", wserr.ErrMalformedInput)
	}
	return Utterance{Text: strings.Join(words, ""), Words: words}, nil
}

// Reader reads utterances one per line from r.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the next utterance, or io.EOF when the stream is
// exhausted.
func (rd *Reader) Next() (Utterance, error) {
	if !rd.sc.Scan() {
		if err := rd.sc.Err(); err != nil {
			return Utterance{}, err
		}
		return Utterance{}, io.EOF
	}
	u, err := ParseLine(rd.sc.Text())
	if err != nil {
		return Utterance{}, err
	}
	return u, nil
}

// ReadAll drains a Reader into a slice of Utterances.
func ReadAll(r io.Reader) ([]Utterance, error) {
	rd := NewReader(r)
	var out []Utterance
	for {
		u, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, u)
	}
}

// ToSentence converts an Utterance into a sentence.Sentence, appending
// its text to ctx and recording gold boundary positions. initPBoundary
// and coin follow sentence.New's scenario-2 gold-init convention:
// initPBoundary < 0 seeds every interior possible boundary from the
// gold split; otherwise each is a coin flip at that probability.
func (u Utterance) ToSentence(ctx *symtab.Ctx, initPBoundary float64, coin func() float64) *sentence.Sentence {
	sp := ctx.Append(u.Text)

	possible := make([]int, 0, sp.Len-1)
	for i := 1; i < sp.Len; i++ {
		possible = append(possible, i)
	}

	gold := make([]int, 0, len(u.Words)-1)
	pos := 0
	for i, w := range u.Words {
		pos += len([]rune(w))
		if i < len(u.Words)-1 {
			gold = append(gold, pos)
		}
	}

	return sentence.New(sp, possible, gold, initPBoundary, coin)
}
