// Package slice implements Neal's univariate slice sampler with the
// doubling procedure for interval expansion and shrinkage for
// rejection, used by package hyper to resample Pitman-Yor
// hyperparameters against their log-posterior.
package slice

import "math"

// LogDensity is an unnormalized log-density. Callers must return
// -Inf outside the support of x (e.g. out of [minX, maxX]).
type LogDensity func(x float64) float64

// Rand is the minimal PRNG surface the sampler needs.
type Rand interface {
	Float64() float64
}

// Config bounds and tunes one slice-sampling call.
type Config struct {
	W            float64 // initial interval width estimate
	MaxDoublings int     // p: maximum number of interval doublings
	MinX, MaxX   float64 // support of x; enforced only if HasBounds
	HasBounds    bool
}

// Sample draws one new value for x0 under ell using the
// doubling-and-shrinkage procedure (spec §4.10):
//
//  1. sample a slice height y = ell(x0) + log(U(0,1))
//  2. double an initial random interval around x0 until both ends
//     fall below y or MaxDoublings is reached
//  3. repeatedly draw a candidate uniformly from the interval,
//     shrinking toward x0 on rejection, accepting the first candidate
//     both above the slice and passing the doubling-reversibility
//     acceptance test
func Sample(ell LogDensity, x0 float64, cfg Config, rnd Rand) float64 {
	bounded := boundedDensity(ell, cfg)

	y := bounded(x0) + math.Log(rnd.Float64())

	u := rnd.Float64()
	l := x0 - cfg.W*u
	r := l + cfg.W

	kLeft := bounded(l) < y
	kRight := bounded(r) < y
	doublings := 0
	for (!kLeft || !kRight) && doublings < cfg.MaxDoublings {
		if rnd.Float64() < 0.5 {
			l -= r - l
		} else {
			r += r - l
		}
		kLeft = bounded(l) < y
		kRight = bounded(r) < y
		doublings++
	}

	for {
		x1 := l + rnd.Float64()*(r-l)
		if bounded(x1) >= y && accept(bounded, cfg, x0, x1, y, l, r) {
			return x1
		}
		if x1 < x0 {
			l = x1
		} else {
			r = x1
		}
		if r-l < 1e-12 {
			return x0 // degenerate interval: give up and stay put
		}
	}
}

// accept implements the doubling acceptance test: walking the same
// doubling procedure backward from x1 must reproduce an interval
// containing x0, ruling out candidates the forward doubling process
// could not actually have produced — required for detailed balance
// (Neal 2003, figure 4).
func accept(bounded func(float64) float64, cfg Config, x0, x1, y, l, r float64) bool {
	d := false
	ll, rr := l, r
	for rr-ll > 1.1*cfg.W {
		mid := (ll + rr) / 2
		if (x0 < mid && x1 >= mid) || (x0 >= mid && x1 < mid) {
			d = true
		}
		if x1 < mid {
			rr = mid
		} else {
			ll = mid
		}
		if d && bounded(ll) < y && bounded(rr) < y {
			return false
		}
	}
	return true
}

// SamplePositive is the positive-reals variant: it log-transforms x
// before sampling and exponentiates the result back, so callers can
// slice-sample a strictly positive parameter (e.g. PY concentration b)
// with the same doubling/shrinkage machinery operating on an
// unconstrained scale.
func SamplePositive(ell LogDensity, x0 float64, cfg Config, rnd Rand) float64 {
	logEll := func(logX float64) float64 {
		x := math.Exp(logX)
		// Change of variables: d(log x) has Jacobian x, so the
		// log-density in log-space picks up a +log(x) term.
		return ell(x) + logX
	}
	logCfg := cfg
	if cfg.HasBounds {
		logCfg.MinX = safeLog(cfg.MinX)
		logCfg.MaxX = safeLog(cfg.MaxX)
	}
	logX1 := Sample(logEll, safeLog(x0), logCfg, rnd)
	return math.Exp(logX1)
}

func boundedDensity(ell LogDensity, cfg Config) func(float64) float64 {
	return func(x float64) float64 {
		if cfg.HasBounds && (x < cfg.MinX || x > cfg.MaxX) {
			return math.Inf(-1)
		}
		return ell(x)
	}
}

func safeLog(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return math.Log(x)
}
