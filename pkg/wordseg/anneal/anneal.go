// Package anneal computes the simulated-annealing temperature
// schedule applied to acceptance ratios during inference (spec
// §4.12): a piecewise schedule, a sigmoid schedule, and a final
// z_its/z_temp override that takes precedence over either.
package anneal

import "math"

// Mode selects which schedule Temperature uses during the annealing
// window.
type Mode int

const (
	Piecewise Mode = iota
	Sigmoid
)

// Schedule holds every parameter needed to compute the temperature at
// a given iteration.
type Schedule struct {
	Mode Mode

	Iterations int     // length of the annealing window, in iterations
	TempStart  float64
	TempStop   float64

	// SigmoidA and SigmoidB parameterize the Sigmoid mode; unused by
	// Piecewise.
	SigmoidA float64
	SigmoidB float64

	// ZIts final iterations (at the very end of the run, not the
	// annealing window) run at a fixed 1/ZTemp, overriding whatever
	// the schedule would otherwise say. ZIts == 0 disables the
	// override.
	ZIts  int
	ZTemp float64

	// TotalIterations is the full run length, needed to recognize the
	// final ZIts iterations.
	TotalIterations int
}

// Temperature returns the annealing temperature at iteration iter (0
// based), honoring the z_its/z_temp override over both schedule
// modes.
func (s Schedule) Temperature(iter int) float64 {
	if s.ZIts > 0 && iter >= s.TotalIterations-s.ZIts {
		return 1 / s.ZTemp
	}
	if iter >= s.Iterations {
		return s.TempStop
	}
	switch s.Mode {
	case Sigmoid:
		return s.sigmoidTemp(iter)
	default:
		return s.piecewiseTemp(iter)
	}
}

// piecewiseTemp partitions the annealing window into 9 bins; bin i
// (0-indexed) uses temperature ((10/(i+1) - 1)*(start-stop)/9 + stop).
func (s Schedule) piecewiseTemp(iter int) float64 {
	binWidth := float64(s.Iterations) / 9
	i := int(float64(iter) / binWidth)
	if i > 8 {
		i = 8
	}
	return (10/float64(i+1)-1)*(s.TempStart-s.TempStop)/9 + s.TempStop
}

// sigmoidTemp computes
//
//	T(x) = (start-stop)*(σ(a*(x-b)) - σ(a))/(σ(0) - σ(a)) + stop
//
// with x = iter/Iterations.
func (s Schedule) sigmoidTemp(iter int) float64 {
	x := float64(iter) / float64(s.Iterations)
	num := sigmoid(s.SigmoidA*(x-s.SigmoidB)) - sigmoid(s.SigmoidA)
	den := sigmoid(0) - sigmoid(s.SigmoidA)
	return (s.TempStart-s.TempStop)*num/den + s.TempStop
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
