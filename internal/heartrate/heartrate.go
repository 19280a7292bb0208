// Package heartrate estimates cardiac cycle period (BPM) and its salience
// from an amplitude envelope, via restricted-lag-window autocorrelation.
package heartrate

import (
	"math"
	"sort"

	"github.com/gvasels/pcg-analyzer/internal/envelope"
	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// DefaultBPM and DefaultSalience are the fallback values used when the
// autocorrelation search range is invalid (too little data).
const (
	DefaultBPM      = 75.0
	DefaultSalience = 0.0

	minLagSec = 0.3
	maxLagSec = 1.8
)

// Estimate returns the heart rate in BPM and a salience in [0,1] from an
// amplitude envelope env sampled at sr Hz.
func Estimate(env []float32, sr int) (bpm, salience float64) {
	normalized := envelope.NormalizeByMax(env)

	minLag := int(minLagSec * float64(sr))
	maxLag := int(maxLagSec * float64(sr))
	if maxLag <= minLag+5 || maxLag >= len(normalized) {
		if maxLag >= len(normalized) {
			maxLag = len(normalized) - 1
		}
		if maxLag <= minLag+5 {
			return DefaultBPM, DefaultSalience
		}
	}

	ac := numeric.Autocorr(normalized, maxLag)
	if minLag >= len(ac) {
		return DefaultBPM, DefaultSalience
	}
	seg := ac[minLag:]

	peakIdx := 0
	peakVal := seg[0]
	for i, v := range seg {
		if v > peakVal {
			peakVal = v
			peakIdx = i
		}
	}
	lag := minLag + peakIdx
	if lag <= 0 {
		return DefaultBPM, DefaultSalience
	}

	bpm = 60 * float64(sr) / float64(lag)

	med := median(seg)
	maxSeg := peakVal
	sal := (peakVal - med + 1e-9) / (maxSeg + 1e-9)
	salience = numeric.Clamp(sal, 0, 1)

	if math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return DefaultBPM, DefaultSalience
	}
	return bpm, salience
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
