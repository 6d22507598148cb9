// Package trace writes the per-iteration log-likelihood trace a run
// produces (spec §6: "the decimal format for log-likelihood traces
// uses base-10 with a field separator configurable at startup").
// It is a dedicated writer rather than anything routed through `log`:
// trace rows are data, not diagnostics.
package trace

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Writer appends one row per call to Row, each field joined by Sep
// (defaulting to a tab when unset).
type Writer struct {
	w     io.Writer
	Sep   string
	start time.Time
}

// New returns a Writer over w with the given field separator. An
// empty sep defaults to a tab.
func New(w io.Writer, sep string) *Writer {
	if sep == "" {
		sep = "\t"
	}
	return &Writer{w: w, Sep: sep, start: time.Now()}
}

// Row writes one trace line: iteration, temperature, and
// log-likelihood in plain decimal, per spec §6.
func (t *Writer) Row(iteration int, temperature, logLikelihood float64) error {
	_, err := fmt.Fprintf(t.w, "%d%s%g%s%g\n", iteration, t.Sep, temperature, t.Sep, logLikelihood)
	return err
}

// Summary writes a human-readable progress line (iteration count and
// elapsed wall time), distinct from Row's machine-parseable output;
// go-humanize renders both in a form meant for a terminal, not a
// downstream parser.
func (t *Writer) Summary(iteration, total int) error {
	elapsed := humanize.RelTime(t.start, time.Now(), "", "")
	_, err := fmt.Fprintf(t.w, "# iteration %s of %s, %s elapsed\n",
		humanize.Comma(int64(iteration)), humanize.Comma(int64(total)), elapsed)
	return err
}
