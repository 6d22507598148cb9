package gfile

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/wordseg/pkg/wordseg/grammar"
	"github.com/cognicore/wordseg/pkg/wordseg/symtab"
)

// WriteOptions controls grammar serialization. CompactTrees is an
// explicit field here rather than a process-wide flag the writer
// flips and restores: the latter (the original tool's approach) makes
// concurrent writers observe each other's in-flight format, which
// this module avoids entirely by threading the choice through the
// call instead.
type WriteOptions struct {
	// CompactTrees, when true, collapses a pycache entry's table-size
	// histogram to "n/m" (customers/tables) instead of listing every
	// table size; round-tripping such a grammar loses the exact
	// histogram (every table is assumed size n/m on read).
	CompactTrees bool
}

// WriteGrammar writes every rule in g, one per line, in the format
// Loader.Load reads.
func WriteGrammar(ctx *symtab.Ctx, g *grammar.Grammar, w io.Writer) error {
	bw := bufio.NewWriter(w)
	var writeErr error
	g.RHSTrie().ForEach(func(keys []symtab.Symbol, payload any) bool {
		parents, ok := payload.(grammar.RHSPayload)
		if !ok {
			return true
		}
		rhsText := make([]string, len(keys))
		for i, k := range keys {
			rhsText[i] = ctx.String(k)
		}
		parentNames := make([]string, 0, len(parents))
		for p := range parents {
			parentNames = append(parentNames, ctx.String(p))
		}
		sort.Strings(parentNames)
		for _, name := range parentNames {
			parent, _ := ctx.Lookup(name)
			weight := parents[parent]
			line := fmt.Sprintf("%s %s %s %s\n", formatFloat(weight), name, arrow, strings.Join(rhsText, " "))
			if ap := g.Adapted(parent); ap != nil {
				line = fmt.Sprintf("%s %s %s %s %s %s\n", formatFloat(weight), formatFloat(ap.A), formatFloat(ap.B), name, arrow, strings.Join(rhsText, " "))
			}
			if _, err := bw.WriteString(line); err != nil {
				writeErr = err
				return false
			}
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("gfile: writing grammar: %w", writeErr)
	}
	return bw.Flush()
}

// WritePycache writes one "pycache Parent" block per adapted parent,
// followed by one line per cached yield.
func WritePycache(ctx *symtab.Ctx, g *grammar.Grammar, w io.Writer, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	parents := g.AdaptedParents()
	names := make([]string, len(parents))
	byName := make(map[string]symtab.Symbol, len(parents))
	for i, p := range parents {
		names[i] = ctx.String(p)
		byName[names[i]] = p
	}
	sort.Strings(names)

	for _, name := range names {
		parent := byName[name]
		ap := g.Adapted(parent)
		if _, err := fmt.Fprintf(bw, "pycache %s\n", name); err != nil {
			return err
		}

		type entry struct {
			yield string
			sizes []int
		}
		var entries []entry
		ap.ForEachYield(func(yield string, sizes []int) {
			entries = append(entries, entry{yield, sizes})
		})
		sort.Slice(entries, func(i, j int) bool { return entries[i].yield < entries[j].yield })

		for _, e := range entries {
			if opts.CompactTrees {
				n, m := 0, len(e.sizes)
				for _, s := range e.sizes {
					n += s
				}
				if _, err := fmt.Fprintf(bw, "%s\t%d/%d\n", e.yield, n, m); err != nil {
					return err
				}
				continue
			}
			fields := make([]string, len(e.sizes))
			for i, s := range e.sizes {
				fields[i] = strconv.Itoa(s)
			}
			if _, err := fmt.Fprintf(bw, "%s\t%s\n", e.yield, strings.Join(fields, " ")); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadPycache parses the pycache blocks written by WritePycache (in
// either compact or full form) and seats their contents into g's
// matching adapted parents.
func ReadPycache(ctx *symtab.Ctx, g *grammar.Grammar, r io.Reader) error {
	sc := bufio.NewScanner(r)
	var current *grammar.AdaptedParent
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "pycache ") {
			name := strings.TrimSpace(strings.TrimPrefix(line, "pycache "))
			sym, ok := ctx.Lookup(name)
			if !ok {
				return fmt.Errorf("gfile: line %d: pycache for unknown parent %q", lineNo, name)
			}
			current = g.Adapted(sym)
			if current == nil {
				return fmt.Errorf("gfile: line %d: parent %q is not adapted", lineNo, name)
			}
			continue
		}
		if current == nil {
			return fmt.Errorf("gfile: line %d: yield entry before any pycache header", lineNo)
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return fmt.Errorf("gfile: line %d: malformed pycache entry", lineNo)
		}
		sizes, err := parseTableSizes(parts[1])
		if err != nil {
			return fmt.Errorf("gfile: line %d: %w", lineNo, err)
		}
		current.SeatRaw(parts[0], sizes)
	}
	return sc.Err()
}

func parseTableSizes(field string) ([]int, error) {
	if n, m, ok := strings.Cut(field, "/"); ok {
		nv, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		mv, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil {
			return nil, err
		}
		return compactSizes(nv, mv), nil
	}
	fields := strings.Fields(field)
	sizes := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		sizes[i] = v
	}
	return sizes, nil
}

// compactSizes reconstructs an approximate histogram of m tables
// totalling n customers as evenly as possible, since the compact form
// discards the exact per-table breakdown.
func compactSizes(n, m int) []int {
	if m <= 0 {
		return nil
	}
	base := n / m
	extra := n % m
	sizes := make([]int, m)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
		if sizes[i] == 0 {
			sizes[i] = 1
		}
	}
	return sizes
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
