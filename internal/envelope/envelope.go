// Package envelope derives amplitude-envelope and transient-energy series
// from a resampled PCG buffer: smoothed-abs, Shannon, and Teager-Kaiser.
package envelope

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// Smoothed returns |x| box-smoothed over a window of round(smoothMs ms)
// at sample rate sr — the amplitude envelope used throughout the pipeline.
func Smoothed(x []float32, sr int, smoothMs float64) []float32 {
	win := int(math.Round(smoothMs * 1e-3 * float64(sr)))
	if win < 1 {
		win = 1
	}
	return numeric.MovingAverage(x, win)
}

// Shannon returns the Shannon (amplitude-weighted) energy envelope:
// -x^2*log(x^2 + eps), box-smoothed identically to Smoothed.
func Shannon(x []float32, sr int, smoothMs float64) []float32 {
	e := make([]float32, len(x))
	for i, v := range x {
		sq := float64(v) * float64(v)
		e[i] = float32(-sq * math.Log(sq+1e-9))
	}
	win := int(math.Round(smoothMs * 1e-3 * float64(sr)))
	if win < 1 {
		win = 1
	}
	return numeric.MovingAverage(e, win)
}

// TKEO computes the Teager-Kaiser energy operator: y[t] = x[t]^2 -
// x[t-1]*x[t+1], clamped to >= 0, with zeroed boundaries.
func TKEO(x []float32) []float32 {
	n := len(x)
	y := make([]float32, n)
	for t := 1; t < n-1; t++ {
		v := float64(x[t])*float64(x[t]) - float64(x[t-1])*float64(x[t+1])
		if v < 0 {
			v = 0
		}
		y[t] = float32(v)
	}
	return y
}

// NormalizeByMax returns x scaled so its maximum absolute value is 1.
// A degenerate (all-zero) input is returned unchanged.
func NormalizeByMax(x []float32) []float32 {
	var maxAbs float32
	for _, v := range x {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return append([]float32(nil), x...)
	}
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = v / maxAbs
	}
	return out
}
