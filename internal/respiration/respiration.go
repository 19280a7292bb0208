// Package respiration estimates a respiratory rate from a smoothed,
// decimated envelope and correlates it against an S2-split series to
// classify the split pattern.
package respiration

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

const (
	bandLoHz, bandHiHz = 0.08, 0.8
	smoothSec          = 0.5
	targetFs           = 20.0
)

// Estimate smooths env over a 0.5s window, decimates it to ~20Hz, and
// picks the dominant frequency in [0.08, 0.8]Hz via a Hann-windowed FFT.
// It returns the decimated series and its sample rate for downstream
// correlation, alongside the rate (breaths/min) and its dominance.
func Estimate(env []float32, sr int) (rate, dominance float64, decimated []float64, fs float64, ok bool) {
	lf := numeric.MovingAverage(env, maxInt(1, int(smoothSec*float64(sr))))

	k := int(math.Round(float64(sr) / targetFs))
	if k < 1 {
		k = 1
	}
	for i := 0; i < len(lf); i += k {
		decimated = append(decimated, float64(lf[i]))
	}
	fs = float64(sr) / float64(k)

	m := len(decimated)
	if m < 4 {
		return 0, 0, decimated, fs, false
	}

	nfft := nextPow2(maxInt(64, m))
	hann := numeric.Hann(m)
	frame := make([]float64, nfft)
	for i := 0; i < m; i++ {
		frame[i] = decimated[i] * hann[i]
	}
	mag := numeric.RFFTMag(frame, ones(nfft))

	var bestIdx = -1
	var bestMag float64
	var bandSum float64
	var bandCount int
	for i := range mag {
		f := float64(i) * fs / float64(nfft)
		if f < bandLoHz || f > bandHiHz {
			continue
		}
		bandSum += mag[i]
		bandCount++
		if bestIdx < 0 || mag[i] > bestMag {
			bestIdx = i
			bestMag = mag[i]
		}
	}
	if bandCount == 0 {
		return 0, 0, decimated, fs, false
	}
	freq := float64(bestIdx) * fs / float64(nfft)
	rate = freq * 60
	dominance = bestMag / (bandSum/float64(bandCount) + 1e-9)
	return rate, dominance, decimated, fs, true
}

// CorrAtEvents samples series (at rate fs) via nearest-index lookup at
// each eventIdx (in the sr-Hz sample domain) and returns the Pearson
// correlation of those sampled values against a linear index ramp — a
// simple trend indicator used for S2-split/respiration phase coupling.
func CorrAtEvents(series []float64, fs float64, eventIdx []int, sr int) float64 {
	if len(eventIdx) < 3 || len(series) == 0 {
		return 0
	}
	vals := make([]float64, 0, len(eventIdx))
	for _, idx := range eventIdx {
		k := int(math.Round(float64(idx) / float64(sr) * fs))
		if k < 0 {
			k = 0
		}
		if k >= len(series) {
			k = len(series) - 1
		}
		vals = append(vals, series[k])
	}
	ramp := make([]float64, len(vals))
	for i := range ramp {
		ramp[i] = float64(i)
	}
	return pearson(vals, ramp)
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if n < 2 {
		return 0
	}
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)
	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return numeric.Clamp(cov/denom, -1, 1)
}

// ClassifySplit implements the wide/fixed/physiologic/paradoxical/
// indeterminate decision from the median/std of the split series and its
// respiration correlation.
func ClassifySplit(splitsMs []float64, corr float64) string {
	if len(splitsMs) == 0 {
		return "indeterminate"
	}
	med := medianF64(splitsMs)
	std := stdF64(splitsMs, meanF64(splitsMs))

	switch {
	case med > 50:
		return "wide"
	case std < 10 && med > 30:
		return "fixed"
	case corr > 0.2:
		return "physiologic"
	case corr < -0.2:
		return "paradoxical"
	default:
		return "indeterminate"
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func meanF64(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func stdF64(x []float64, mean float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var acc float64
	for _, v := range x {
		d := v - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(x)))
}

func medianF64(x []float64) float64 {
	s := append([]float64(nil), x...)
	n := len(s)
	if n == 0 {
		return 0
	}
	// simple insertion sort is fine; split counts are tiny.
	for i := 1; i < n; i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
