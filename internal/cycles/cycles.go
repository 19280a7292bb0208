// Package cycles derives per-cardiac-cycle timing and transient features
// from S1/S2 event indices: RR/systole/diastole statistics, S2 split,
// A2-OS, S3/S4, and click detection.
package cycles

import (
	"math"
	"sort"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// RR returns the beat-to-beat interval series (seconds) from consecutive
// S1 positions.
func RR(s1 []int, sr int) []float64 {
	if len(s1) < 2 {
		return nil
	}
	out := make([]float64, len(s1)-1)
	for i := 1; i < len(s1); i++ {
		out[i-1] = float64(s1[i]-s1[i-1]) / float64(sr)
	}
	return out
}

// SystoleDiastole pairs each S1 with its nearest later S2 (systole) and
// each S2 with its nearest later S1 (diastole), applying the acceptance
// windows from the component design.
func SystoleDiastole(s1, s2 []int, sr int) (systole, diastole []float64, dsRatio *float64) {
	for _, a := range s1 {
		if b, ok := nearestLater(s2, a); ok {
			d := float64(b-a) / float64(sr)
			if d > 0 && d <= 0.8 {
				systole = append(systole, d)
			}
		}
	}
	for _, a := range s2 {
		if b, ok := nearestLater(s1, a); ok {
			d := float64(b-a) / float64(sr)
			if d > 0 {
				diastole = append(diastole, d)
			}
		}
	}
	if len(systole) > 0 && len(diastole) > 0 {
		r := mean(diastole) / mean(systole)
		dsRatio = &r
	}
	return systole, diastole, dsRatio
}

func nearestLater(sorted []int, after int) (int, bool) {
	i := sort.SearchInts(sorted, after+1)
	if i >= len(sorted) {
		return 0, false
	}
	return sorted[i], true
}

// Split holds a detected S2-split distance in milliseconds.
type Split struct {
	Ms float64
	Ok bool
}

// S2Split detects the 12-80ms double-peak structure around a single S2
// event by finding the two largest local maxima of a smoothed |dy/dt|
// signal in the HF-emphasized differential.
func S2Split(y []float32, sr int, s2 int) Split {
	winStart := s2 - int(0.02*float64(sr))
	winEnd := s2 + int(0.12*float64(sr))
	seg, segStart := slice(y, winStart, winEnd)
	if len(seg) < 2 {
		return Split{}
	}

	diffSeg := make([]float32, len(seg))
	diffSeg[0] = 0
	for i := 1; i < len(seg); i++ {
		diffSeg[i] = absF32(seg[i] - seg[i-1])
	}
	smoothWin := maxInt(1, int(0.004*float64(sr)))
	hf := numeric.MovingAverage(diffSeg, smoothWin)

	searchStart := s2 + int(0.012*float64(sr)) - segStart
	searchEnd := s2 + int(0.08*float64(sr)) - segStart
	if searchStart < 0 {
		searchStart = 0
	}
	if searchEnd > len(hf) {
		searchEnd = len(hf)
	}
	if searchEnd-searchStart < 2 {
		return Split{}
	}
	sub := hf[searchStart:searchEnd]

	p1 := argmax(sub)
	v1 := sub[p1]

	masked := append([]float32(nil), sub...)
	for k := p1 - 3; k <= p1+3; k++ {
		if k >= 0 && k < len(masked) {
			masked[k] = 0
		}
	}
	p2 := argmax(masked)
	v2 := masked[p2]

	if float64(v2) < 0.3*float64(v1) {
		return Split{}
	}
	dms := math.Abs(float64(p2-p1)) * 1000 / float64(sr)
	if dms < 12 || dms > 80 {
		return Split{}
	}
	return Split{Ms: dms, Ok: true}
}

// A2OS detects an opening-snap transient 40-120ms after S2.
func A2OS(y []float32, sr int, s2 int) Split {
	start := s2 + int(0.04*float64(sr))
	end := s2 + int(0.12*float64(sr))
	seg, segStart := slice(y, start, end)
	if len(seg) == 0 {
		return Split{}
	}
	abs := make([]float32, len(seg))
	for i, v := range seg {
		abs[i] = absF32(v)
	}
	peakI := argmax(abs)
	med := medianF32(abs)
	std := stdF32(abs, med)
	if float64(abs[peakI]) <= med+3*std {
		return Split{}
	}
	ms := float64(segStart+peakI-s2) * 1000 / float64(sr)
	return Split{Ms: ms, Ok: true}
}

const (
	s3s4LowBandLo, s3s4LowBandHi = 20.0, 100.0
	s3s4ScoreThreshold           = 2.5
)

// S3Hit tests for low-band energy elevation 80-200ms after S2.
func S3Hit(y []float32, sr int, s2 int) bool {
	winStart := s2 + int(0.08*float64(sr))
	winEnd := s2 + int(0.20*float64(sr))
	seg, _ := slice(y, winStart, winEnd)
	baseline, _ := slice(y, winStart-int(0.2*float64(sr)), winStart)
	return bandScore(seg, baseline, sr) > s3s4ScoreThreshold
}

// S4Hit tests for low-band energy elevation 60-120ms before S1.
func S4Hit(y []float32, sr int, s1 int) bool {
	winStart := s1 - int(0.12*float64(sr))
	winEnd := s1 - int(0.06*float64(sr))
	seg, _ := slice(y, winStart, winEnd)
	baseline, _ := slice(y, winStart-int(0.2*float64(sr)), winStart)
	return bandScore(seg, baseline, sr) > s3s4ScoreThreshold
}

func bandScore(seg, baseline []float32, sr int) float64 {
	if len(seg) < 8 || len(baseline) < 8 {
		return 0
	}
	e := numeric.WelchBandPower(seg, sr, s3s4LowBandLo, s3s4LowBandHi)
	base := numeric.WelchBandPower(baseline, sr, s3s4LowBandLo, s3s4LowBandHi)
	return e / (base + 1e-9)
}

// EjectionClick tests for a TKEO transient 20-60ms after S1.
func EjectionClick(tkeo []float32, sr int, s1 int) bool {
	start := s1 + int(0.02*float64(sr))
	end := s1 + int(0.06*float64(sr))
	seg, _ := slice(tkeo, start, end)
	return clickZScore(seg) > 3.0
}

// MidSystolicClick tests for a TKEO transient within 10ms of the
// systole midpoint.
func MidSystolicClick(tkeo []float32, sr int, s1, s2 int) bool {
	mid := s1 + (s2-s1)/2
	win := int(0.01 * float64(sr))
	seg, _ := slice(tkeo, mid-win, mid+win)
	return clickZScore(seg) > 3.0
}

func clickZScore(seg []float32) float64 {
	if len(seg) == 0 {
		return 0
	}
	med := medianF32(seg)
	std := stdF32(seg, med)
	var maxZ float64
	for _, v := range seg {
		z := (float64(v) - med) / (std + 1e-9)
		if z > maxZ {
			maxZ = z
		}
	}
	return maxZ
}

// EventWidthMs estimates the median duration (ms) of the events in idx:
// for each event it expands outward from the event index while the
// envelope stays at or above 25% of the local (±50ms) envelope peak.
func EventWidthMs(env []float32, sr int, idx []int) (float64, bool) {
	var widths []float64
	win := int(0.05 * float64(sr))
	for _, c := range idx {
		seg, segStart := slice(env, c-win, c+win)
		if len(seg) == 0 {
			continue
		}
		var maxV float32
		for _, v := range seg {
			if v > maxV {
				maxV = v
			}
		}
		if maxV <= 0 {
			continue
		}
		thr := 0.25 * maxV
		center := c - segStart
		if center < 0 || center >= len(seg) {
			continue
		}
		left := center
		for left > 0 && seg[left] >= thr {
			left--
		}
		right := center
		for right < len(seg)-1 && seg[right] >= thr {
			right++
		}
		widths = append(widths, float64(right-left)*1000/float64(sr))
	}
	if len(widths) == 0 {
		return 0, false
	}
	return medianF64(widths), true
}

func slice(x []float32, start, end int) ([]float32, int) {
	if start < 0 {
		start = 0
	}
	if end > len(x) {
		end = len(x)
	}
	if start >= end {
		return nil, start
	}
	return x[start:end], start
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func argmax(x []float32) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func medianF32(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	sort.Float64s(f)
	return medianSorted(f)
}

func medianF64(x []float64) float64 {
	f := append([]float64(nil), x...)
	sort.Float64s(f)
	return medianSorted(f)
}

func medianSorted(f []float64) float64 {
	n := len(f)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return f[n/2]
	}
	return (f[n/2-1] + f[n/2]) / 2
}

func stdF32(x []float32, mean float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var acc float64
	for _, v := range x {
		d := float64(v) - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(x)))
}
