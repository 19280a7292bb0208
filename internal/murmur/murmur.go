// Package murmur characterizes systolic and diastolic murmurs from
// per-cycle 150-400Hz frame energy: presence, shape, pitch, coverage,
// band ratio, a grade proxy, and a confidence score.
package murmur

import (
	"math"
	"sort"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

const (
	murmurBandLo, murmurBandHi = 150.0, 400.0
	lowBandLo, lowBandHi       = 20.0, 150.0
)

// Descriptor is the murmur summary for one cycle phase (systolic or
// diastolic).
type Descriptor struct {
	Present  bool
	Extent   string // early, mid, late, holo
	Shape    string // crescendo, decrescendo, plateau
	PitchHz  float64
	BandHz   float64 // band ratio (150-400Hz / 20-150Hz)
	Coverage float64
}

// Result bundles both phase descriptors plus the overall grade/confidence.
type Result struct {
	Present    bool
	Phase      string
	Systolic   Descriptor
	Diastolic  Descriptor
	GradeProxy int
	Confidence float64
}

// Characterize derives the murmur descriptors for the systolic windows
// (s1[j], s2[j]) and diastolic windows (s2[j], s1[j+1]).
func Characterize(y []float32, sr int, s1, s2 []int, snrDb, usablePct float64) Result {
	bandRatioWhole := (numeric.WelchBandPower(y, sr, murmurBandLo, murmurBandHi) + 1e-9) /
		(numeric.WelchBandPower(y, sr, lowBandLo, lowBandHi) + 1e-9)

	sysPairs := pairSystole(s1, s2)
	diaPairs := pairDiastole(s1, s2)

	sys := cycleDescriptor(y, sr, sysPairs, bandRatioWhole)
	dia := cycleDescriptor(y, sr, diaPairs, bandRatioWhole)

	present := sys.Present || dia.Present
	phase := ""
	if sys.Present {
		phase += "systolic"
	}
	if dia.Present {
		if phase != "" {
			phase += "+"
		}
		phase += "diastolic"
	}

	sysSide := sys.Coverage * sys.BandHz
	diaSide := dia.Coverage * dia.BandHz
	raw := sysSide
	if diaSide > raw {
		raw = diaSide
	}
	grade := gradeFromRaw(raw)
	confidence := numeric.Clamp((snrDb+5)/15, 0, 1) * numeric.Clamp(usablePct, 0, 1)

	return Result{
		Present:    present,
		Phase:      phase,
		Systolic:   sys,
		Diastolic:  dia,
		GradeProxy: grade,
		Confidence: confidence,
	}
}

func gradeFromRaw(raw float64) int {
	switch {
	case raw < 0.1:
		return 0
	case raw < 0.3:
		return 1
	case raw < 0.6:
		return 2
	default:
		return 3
	}
}

func pairSystole(s1, s2 []int) [][2]int {
	var pairs [][2]int
	n := minLen(s1, s2)
	for j := 0; j < n; j++ {
		if s2[j] > s1[j] {
			pairs = append(pairs, [2]int{s1[j], s2[j]})
		}
	}
	return pairs
}

func pairDiastole(s1, s2 []int) [][2]int {
	var pairs [][2]int
	n := minLen(s1, s2)
	for j := 0; j < n-1 && j < len(s2); j++ {
		if j+1 >= len(s1) {
			break
		}
		if s1[j+1] > s2[j] {
			pairs = append(pairs, [2]int{s2[j], s1[j+1]})
		}
	}
	return pairs
}

func minLen(a, b []int) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

func cycleDescriptor(y []float32, sr int, pairs [][2]int, bandRatioWhole float64) Descriptor {
	hop := maxInt(8, int(0.01*float64(sr)))
	win := maxInt(16, int(0.02*float64(sr)))

	var shapes []string
	var pitches []float64
	var coverages []float64
	anyPresent := false

	hann := numeric.Hann(win)
	freqs := numeric.RFFTFreqs(win, sr)

	for _, pr := range pairs {
		a, b := pr[0], pr[1]
		var powers []float64
		var centroids []float64
		for start := a; start+win <= b; start += hop {
			frame := make([]float64, win)
			for i := 0; i < win; i++ {
				frame[i] = float64(y[start+i])
			}
			mag := numeric.RFFTMag(frame, hann)
			var bandPower, weighted float64
			for i, f := range freqs {
				if f >= murmurBandLo && f <= murmurBandHi {
					p := mag[i] * mag[i]
					bandPower += p
					weighted += f * p
				}
			}
			powers = append(powers, bandPower)
			if bandPower > 0 {
				centroids = append(centroids, weighted/bandPower)
			}
		}
		if len(powers) < 3 {
			continue
		}

		maxP := 0.0
		for _, p := range powers {
			if p > maxP {
				maxP = p
			}
		}
		if maxP == 0 {
			continue
		}
		norm := make([]float64, len(powers))
		for i, p := range powers {
			norm[i] = p / maxP
		}

		med, std := medianStd(norm)
		thr := med + 0.3*std
		active := 0
		for _, v := range norm {
			if v > thr {
				active++
			}
		}
		frac := float64(active) / float64(len(norm))
		if frac > 0.3 {
			anyPresent = true
		}

		slope := linearFitSlope(norm)
		var shape string
		switch {
		case slope > 0.05:
			shape = "crescendo"
		case slope < -0.05:
			shape = "decrescendo"
		default:
			shape = "plateau"
		}

		shapes = append(shapes, shape)
		coverages = append(coverages, frac)
		if len(centroids) > 0 {
			pitches = append(pitches, medianF64(centroids))
		}
	}

	if len(coverages) == 0 {
		return Descriptor{Present: false, Shape: "plateau", BandHz: bandRatioWhole}
	}

	cov := medianF64(coverages)
	return Descriptor{
		Present:  anyPresent,
		Extent:   extentFromCoverage(cov),
		Shape:    modeString(shapes),
		PitchHz:  medianF64(pitches),
		BandHz:   bandRatioWhole,
		Coverage: cov,
	}
}

func extentFromCoverage(c float64) string {
	switch {
	case c > 0.8:
		return "holo"
	case c <= 0.4:
		return "early"
	case c <= 0.6:
		return "mid"
	default:
		return "late"
	}
}

func linearFitSlope(y []float64) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i) / float64(n-1)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

func modeString(xs []string) string {
	counts := map[string]int{}
	for _, x := range xs {
		counts[x]++
	}
	best := ""
	bestCount := -1
	for _, x := range xs {
		if counts[x] > bestCount {
			bestCount = counts[x]
			best = x
		}
	}
	return best
}

func medianF64(x []float64) float64 {
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

func medianStd(x []float64) (med, std float64) {
	med = medianF64(x)
	var acc float64
	for _, v := range x {
		d := v - med
		acc += d * d
	}
	if len(x) > 0 {
		std = math.Sqrt(acc / float64(len(x)))
	}
	return med, std
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
