// Package runid mints run and checkpoint identifiers, grounded on
// pkg/korel/cards.Builder's ownership of a single
// ulid.MonotonicEntropy per builder: here one Generator owns the
// entropy source for the lifetime of a run, so sequential IDs stay
// monotonic without any shared global state.
package runid

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator mints monotonically increasing ULIDs.
type Generator struct {
	entropy *ulid.MonotonicEntropy
}

// New returns a Generator with a fresh entropy source.
func New() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewID mints a new ULID string for the current time.
func (g *Generator) NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
