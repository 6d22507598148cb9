// Package gfile reads and writes adaptor grammars in the rule-file
// line format (spec §6): each non-empty, non-comment line is
//
//	[theta [a [b]]] Parent --> Child1 Child2 ...
//
// Grounded on pkg/korel/config.Loader's shape (a small struct whose
// Load method turns file paths into ready-to-use in-memory
// components) generalized from YAML-and-delimited-text configuration
// files to this line grammar.
package gfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
	"github.com/cognicore/wordseg/pkg/wordseg/wserr"
)

const arrow = "-->"

// Loader reads a grammar file into a grammar.Grammar.
type Loader struct {
	Path      string
	DefaultA  float64
	DefaultB  float64
	DefaultTheta float64
}

// LoadFile opens l.Path and loads it via Load.
func (l *Loader) LoadFile(ctx *symtab.Ctx) (*grammar.Grammar, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("gfile: opening %s: %w", l.Path, err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load reads a grammar file from r into a fresh Grammar.
func (l *Loader) Load(ctx *symtab.Ctx, r io.Reader) (*grammar.Grammar, error) {
	theta := l.DefaultTheta
	if theta == 0 {
		theta = 1
	}
	g := grammar.New(l.DefaultA, l.DefaultB)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, a, b, hasAB, err := parseRuleLine(ctx, line, theta)
		if err != nil {
			return nil, fmt.Errorf("gfile: line %d: %w", lineNo, err)
		}
		if err := g.AddRule(rule); err != nil {
			return nil, fmt.Errorf("gfile: line %d: %w", lineNo, err)
		}
		if hasAB && a != 1 {
			g.SetAdapted(rule.Parent, a, b)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gfile: reading grammar: %w", err)
	}
	return g, nil
}

// parseRuleLine parses "[theta [a [b]]] Parent --> Child1 Child2 ...".
func parseRuleLine(ctx *symtab.Ctx, line string, defaultTheta float64) (rule grammar.Rule, a, b float64, hasAB bool, err error) {
	arrowIdx := strings.Index(line, arrow)
	if arrowIdx < 0 {
		return rule, 0, 0, false, fmt.Errorf("missing %q: %w", arrow, wserr.ErrMalformedInput)
	}
	head := strings.Fields(line[:arrowIdx])
	tail := strings.Fields(line[arrowIdx+len(arrow):])
	if len(head) == 0 {
		return rule, 0, 0, false, fmt.Errorf("missing parent: %w", wserr.ErrMalformedInput)
	}
	if len(tail) == 0 {
		return rule, 0, 0, false, fmt.Errorf("empty RHS: %w", wserr.ErrMalformedInput)
	}

	// The last head token is always the parent; up to three numeric
	// tokens may precede it: theta, a, b.
	parentTok := head[len(head)-1]
	nums := head[:len(head)-1]
	if len(nums) > 3 {
		return rule, 0, 0, false, fmt.Errorf("too many leading numbers: %w", wserr.ErrMalformedInput)
	}

	theta := defaultTheta
	a = 0
	b = 1
	switch len(nums) {
	case 1:
		theta, err = parseFloat(nums[0])
	case 2:
		if theta, err = parseFloat(nums[0]); err == nil {
			a, err = parseFloat(nums[1])
			hasAB = true
		}
	case 3:
		if theta, err = parseFloat(nums[0]); err == nil {
			if a, err = parseFloat(nums[1]); err == nil {
				b, err = parseFloat(nums[2])
				hasAB = true
			}
		}
	}
	if err != nil {
		return rule, 0, 0, false, fmt.Errorf("invalid numeric field: %w", wserr.ErrMalformedInput)
	}
	if theta == 0 {
		theta = defaultTheta
	}
	if a < 0 || a > 1 {
		return rule, 0, 0, false, fmt.Errorf("a=%v out of [0,1]: %w", a, wserr.ErrMalformedInput)
	}
	if b <= 0 {
		return rule, 0, 0, false, fmt.Errorf("b=%v must be > 0: %w", b, wserr.ErrMalformedInput)
	}

	rhs := make([]symtab.Symbol, len(tail))
	for i, tok := range tail {
		rhs[i] = ctx.Intern(tok)
	}
	rule = grammar.Rule{Parent: ctx.Intern(parentTok), RHS: rhs, Weight: theta}
	return rule, a, b, hasAB, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
