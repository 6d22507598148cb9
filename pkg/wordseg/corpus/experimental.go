package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

// TwoAFCItem is one two-alternative-forced-choice test pair: the model
// should prefer WordA over WordB (or vice versa; scoring decides),
// drawn from the Test: section of an experimental corpus.
type TwoAFCItem struct {
	WordA string
	WordB string
}

// Experimental is the parsed result of an interleaved
// "Training:"/"Test:" corpus (spec §6): training utterances plus a
// list of 2-AFC test pairs.
type Experimental struct {
	Training []Utterance
	Test     []TwoAFCItem
}

// ExperimentalReader reads the Training:/Test: interleaved format.
type ExperimentalReader struct {
	sc *bufio.Scanner
}

// NewExperimentalReader returns an ExperimentalReader over r.
func NewExperimentalReader(r io.Reader) *ExperimentalReader {
	return &ExperimentalReader{sc: bufio.NewScanner(r)}
}

// ReadAll parses the whole stream into an Experimental value. Section
// headers are case-sensitive "Training:" and "Test:" on their own
// line; lines before the first header are an error.
func (rd *ExperimentalReader) ReadAll() (Experimental, error) {
	var out Experimental
	section := ""
	for rd.sc.Scan() {
		line := rd.sc.Text()
		switch strings.TrimSpace(line) {
		case "Training:":
			section = "training"
			continue
		case "Test:":
			section = "test"
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch section {
		case "training":
			u, err := ParseLine(line)
			if err != nil {
				return out, err
			}
			out.Training = append(out.Training, u)
		case "test":
			item, err := parseTwoAFCLine(line)
			if err != nil {
				return out, err
			}
			out.Test = append(out.Test, item)
		default:
			return out, fmt.Errorf("line before Training:/Test: header: %w", wserr.ErrMalformedInput)
		}
	}
	if err := rd.sc.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func parseTwoAFCLine(line string) (TwoAFCItem, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TwoAFCItem{}, fmt.Errorf("malformed 2-afc test pair %q: %w", line, wserr.ErrMalformedInput)
	}
	return TwoAFCItem{WordA: parts[0], WordB: parts[1]}, nil
}
