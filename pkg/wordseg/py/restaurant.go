// Package py implements the Pitman-Yor restaurant and the adaptor that
// composes many restaurants over a shared base distribution. This is
// the Chinese-Restaurant-Process machinery that both the adaptor
// grammar and the DPSEG lexicons are built on.
package py

import (
	"math"
	"sort"
)

// Restaurant holds the table-occupancy statistics for a single Pitman-Yor
// restaurant: how many customers are seated, how many tables are
// occupied, and the histogram of table sizes. It has no notion of
// *what* label the restaurant serves; PYAdaptor maps labels to
// Restaurants.
type Restaurant struct {
	n               int         // total customers
	m               int         // occupied tables
	tableSizeCounts map[int]int // table occupancy k -> number of tables of that size
}

// NewRestaurant returns an empty restaurant.
func NewRestaurant() *Restaurant {
	return &Restaurant{tableSizeCounts: make(map[int]int)}
}

// N reports the total customer count.
func (r *Restaurant) N() int { return r.n }

// M reports the number of occupied tables.
func (r *Restaurant) M() int { return r.m }

// Empty reports whether the restaurant currently seats nobody.
func (r *Restaurant) Empty() bool { return r.n == 0 }

// SeatNewTable seats a customer at a brand new table.
func (r *Restaurant) SeatNewTable() {
	r.n++
	r.m++
	r.tableSizeCounts[1]++
}

// SeatExistingTable interprets draw as a uniform sample in
// [0, sum_k tableSizeCounts[k]*(k-a)), locates the table-size bin the
// draw falls into, moves one table from that bin to the k+1 bin, and
// seats a customer there.
func (r *Restaurant) SeatExistingTable(draw float64, a float64) {
	remaining := draw
	sizes := sortedSizes(r.tableSizeCounts)
	for _, k := range sizes {
		c := r.tableSizeCounts[k]
		weight := float64(c) * (float64(k) - a)
		if remaining < weight {
			r.moveTable(k, 1)
			r.n++
			return
		}
		remaining -= weight
	}
	// Floating point slop: fall back to the last (largest) bin rather
	// than silently doing nothing.
	if len(sizes) > 0 {
		r.moveTable(sizes[len(sizes)-1], 1)
		r.n++
		return
	}
	panic("py: SeatExistingTable called on an empty restaurant")
}

// moveTable moves one table from bin k to bin k+delta, i.e. with
// delta=+1 removes one table of size k and adds one of size k+1
// (kept as a parameter for symmetry with unseat).
func (r *Restaurant) moveTable(k, delta int) {
	r.tableSizeCounts[k]--
	if r.tableSizeCounts[k] == 0 {
		delete(r.tableSizeCounts, k)
	}
	r.tableSizeCounts[k+delta]++
}

// Unseat interprets draw as a uniform sample in [0, sum_k k*c_k),
// locates the table the departing customer sat at, and removes them
// from it. It returns the new size of that table (0 meaning the table
// is gone and m should be decremented by the caller).
func (r *Restaurant) Unseat(draw float64) int {
	remaining := draw
	sizes := sortedSizes(r.tableSizeCounts)
	for _, k := range sizes {
		c := r.tableSizeCounts[k]
		weight := float64(k) * float64(c)
		if remaining < weight {
			r.tableSizeCounts[k]--
			if r.tableSizeCounts[k] == 0 {
				delete(r.tableSizeCounts, k)
			}
			newSize := k - 1
			if newSize > 0 {
				r.tableSizeCounts[newSize]++
			} else {
				r.m--
			}
			r.n--
			return newSize
		}
		remaining -= weight
	}
	if len(sizes) > 0 {
		k := sizes[len(sizes)-1]
		r.tableSizeCounts[k]--
		if r.tableSizeCounts[k] == 0 {
			delete(r.tableSizeCounts, k)
		}
		newSize := k - 1
		if newSize > 0 {
			r.tableSizeCounts[newSize]++
		} else {
			r.m--
		}
		r.n--
		return newSize
	}
	panic("py: Unseat called on an empty restaurant")
}

// TableSizes returns the occupied table sizes, one entry per table, in
// no particular order. Used by package gfile to write a pycache block.
func (r *Restaurant) TableSizes() []int {
	sizes := make([]int, 0, r.m)
	for k, c := range r.tableSizeCounts {
		for i := 0; i < c; i++ {
			sizes = append(sizes, k)
		}
	}
	return sizes
}

// SeatTableSizes resets the restaurant to exactly the given table
// sizes, recomputing n and m from them. Used by package gfile to
// restore a restaurant from a pycache block; every size must be > 0.
func (r *Restaurant) SeatTableSizes(sizes []int) {
	r.tableSizeCounts = make(map[int]int)
	r.n, r.m = 0, 0
	for _, k := range sizes {
		if k <= 0 {
			panic("py: SeatTableSizes given a non-positive table size")
		}
		r.tableSizeCounts[k]++
		r.n += k
		r.m++
	}
}

// LogProbTables returns sum over tables of (lgamma(size-a) - lgamma(1-a)).
func (r *Restaurant) LogProbTables(a float64) float64 {
	lg1a, _ := math.Lgamma(1 - a)
	total := 0.0
	for k, c := range r.tableSizeCounts {
		lg, _ := math.Lgamma(float64(k) - a)
		total += float64(c) * (lg - lg1a)
	}
	return total
}

// CheckInvariants verifies m <= n, every (k,c) entry has k>0 and c>0,
// sum(c) == m and sum(k*c) == n. It returns a descriptive error rather
// than panicking so callers can decide how fatal the violation is.
func (r *Restaurant) CheckInvariants() error {
	if r.m > r.n {
		return errInvariant("m > n")
	}
	sumC, sumKC := 0, 0
	for k, c := range r.tableSizeCounts {
		if k <= 0 || c <= 0 {
			return errInvariant("non-positive table size or count")
		}
		sumC += c
		sumKC += k * c
	}
	if sumC != r.m {
		return errInvariant("sum(c) != m")
	}
	if sumKC != r.n {
		return errInvariant("sum(k*c) != n")
	}
	return nil
}

type invariantError string

func (e invariantError) Error() string { return "py: invariant violated: " + string(e) }

func errInvariant(msg string) error { return invariantError(msg) }

func sortedSizes(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
