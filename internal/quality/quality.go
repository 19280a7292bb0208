// Package quality implements the recording-quality gate: a cheap,
// heuristic screen for "is this actually a heart sound, and is it clean
// enough to trust" that runs ahead of (and independently from) the full
// HSMM segmentation pipeline.
package quality

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/envelope"
	"github.com/gvasels/pcg-analyzer/internal/events"
	"github.com/gvasels/pcg-analyzer/internal/frames"
	"github.com/gvasels/pcg-analyzer/internal/heartrate"
	"github.com/gvasels/pcg-analyzer/internal/hsmm"
	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

const (
	minLagSec, maxLagSec = 0.3, 1.8
	periodicityThreshold = 0.12
	lowBandThreshold      = 0.50
	minDurationSec        = 3.0
	scoreThreshold         = 0.5
	cycleCVThreshold       = 0.8
)

// Assess runs the quality gate on a buffer already resampled to the
// analysis domain (2kHz). It mirrors the same Welch-band, autocorrelation
// periodicity, and simple-peak cycle-consistency heuristics used across
// the pipeline, then falls back to a full HSMM pass when the heuristics
// alone can't confirm a heart-like signal.
func Assess(y []float32, sr int) models.QualityReport {
	n := len(y)
	if sr <= 0 || n == 0 {
		return models.QualityReport{Issues: []string{"empty"}}
	}

	dur := float64(n) / float64(sr)
	var issues []string
	if dur < minDurationSec {
		issues = append(issues, "too_short")
	}

	pLo := numeric.WelchBandPower(y, sr, 20, 150)
	pMid := numeric.WelchBandPower(y, sr, 150, 400)
	pHF := numeric.WelchBandPower(y, sr, 600, 1000)
	pVLF := numeric.WelchBandPower(y, sr, 0, 20)
	snrDb := 10 * math.Log10((pLo+pMid+1e-9)/(pVLF+1e-9))
	lowProp := (pLo + pMid) / (pLo + pMid + pHF + 1e-9)
	if lowProp < lowBandThreshold {
		issues = append(issues, "energy_not_in_heart_band")
	}

	periodicity, hrBpmEst := estimatePeriodicity(y, sr)
	if periodicity < periodicityThreshold {
		issues = append(issues, "weak_periodicity")
	}

	cycleCV, hasCycles := cycleConsistency(y, sr)
	if !hasCycles || cycleCV > cycleCVThreshold {
		issues = append(issues, "unstable_cycles")
	}

	score := 0.4*periodicity +
		0.25*numeric.Clamp((snrDb+5)/15, 0, 1) +
		0.2*numeric.Clamp((lowProp-0.4)/0.6, 0, 1) +
		0.15*numeric.Clamp(1-math.Min(1, cycleCV), 0, 1)

	isHeart := (periodicity >= periodicityThreshold && lowProp >= lowBandThreshold && dur >= minDurationSec) ||
		score >= scoreThreshold

	if !isHeart {
		isHeart = confirmViaHSMM(y, sr)
	}

	qualityOk := isHeart && snrDb >= 0 && cycleCV <= cycleCVThreshold

	metrics := models.QualityMetrics{
		DurationSec: dur,
		SNRDb:       snrDb,
		LowBandProp: lowProp,
		Periodicity: periodicity,
		CycleCV:     cycleCV,
		SampleRate:  sr,
	}
	if hrBpmEst > 0 {
		metrics.HRBpmEst = &hrBpmEst
	}

	return models.QualityReport{
		IsHeart:   isHeart,
		QualityOk: qualityOk,
		Score:     score,
		Issues:    issues,
		Metrics:   metrics,
	}
}

// estimatePeriodicity normalizes a 50ms-smoothed envelope and finds the
// strongest autocorrelation peak in the [0.3s, 1.8s] lag window, returning
// the normalized peak height and an implied heart rate.
func estimatePeriodicity(y []float32, sr int) (periodicity, hrBpm float64) {
	win := maxInt(1, int(0.05*float64(sr)))
	env := numeric.MovingAverage(y, win)

	var peak float32
	for _, v := range env {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return 0, 0
	}
	norm := make([]float32, len(env))
	for i, v := range env {
		norm[i] = v / (peak + 1e-9)
	}

	maxLag := int(maxLagSec * float64(sr))
	ac := numeric.Autocorr(norm, maxLag)
	if len(ac) == 0 {
		return 0, 0
	}
	ac0 := ac[0] + 1e-9

	maxLag = len(ac) - 1
	minLag := int(minLagSec * float64(sr))
	if maxLag <= minLag+5 {
		return 0, 0
	}
	seg := ac[minLag:maxLag]
	pk := 0
	for i, v := range seg {
		if v > seg[pk] {
			pk = i
		}
	}
	peakVal := seg[pk]
	periodicity = numeric.Clamp(peakVal/ac0, 0, 1)
	lag := minLag + pk
	if lag > 0 {
		hrBpm = 60 * float64(sr) / float64(lag)
	}
	return periodicity, hrBpm
}

// cycleConsistency picks local envelope maxima with a simple threshold
// peak finder and reports the coefficient of variation of the resulting
// RR series.
func cycleConsistency(y []float32, sr int) (cv float64, ok bool) {
	win := maxInt(1, int(0.05*float64(sr)))
	env := numeric.MovingAverage(y, win)

	var mean, m2 float64
	for _, v := range env {
		mean += float64(v)
	}
	n := float64(len(env))
	if n == 0 {
		return 1, false
	}
	mean /= n
	for _, v := range env {
		d := float64(v) - mean
		m2 += d * d
	}
	std := math.Sqrt(m2 / n)

	thr := math.Max(0.15, mean+0.5*std)
	minDist := maxInt(1, int(0.2*float64(sr)))

	var peaks []int
	i := minDist
	for i < len(env)-minDist {
		lo, hi := i-minDist, i+minDist+1
		isMax := true
		for k := lo; k < hi; k++ {
			if float64(env[k]) > float64(env[i]) {
				isMax = false
				break
			}
		}
		if isMax && float64(env[i]) >= thr {
			peaks = append(peaks, i)
			i += minDist
		}
		i++
	}
	if len(peaks) < 2 {
		return 1, false
	}

	rr := make([]float64, 0, len(peaks)-1)
	for k := 1; k < len(peaks); k++ {
		rr = append(rr, float64(peaks[k]-peaks[k-1])/float64(sr))
	}
	var rrMean float64
	for _, v := range rr {
		rrMean += v
	}
	rrMean /= float64(len(rr))
	var rrVar float64
	for _, v := range rr {
		d := v - rrMean
		rrVar += d * d
	}
	rrVar /= float64(len(rr))
	cv = math.Sqrt(rrVar) / (rrMean + 1e-9)
	return cv, true
}

// confirmViaHSMM runs the full segmenter as a last-resort confirmation:
// a heart rate in [40,200] bpm backed by at least 3 S1/S2 pairs is taken
// as evidence of a genuine cardiac signal even when the cheap heuristics
// above were inconclusive. A buffer whose envelope is zero everywhere has
// nothing to segment and is never confirmed.
func confirmViaHSMM(y []float32, sr int) bool {
	env := envelope.Smoothed(y, sr, 50)
	var envPeak float32
	for _, v := range env {
		if v > envPeak {
			envPeak = v
		}
	}
	if envPeak <= 0 {
		return false
	}
	hrBpm, _ := heartrate.Estimate(env, sr)
	g := frames.NewGrid(len(y), sr)
	feat := frames.Extract(y, env, sr, g)
	norm := frames.NormalizeColumns(feat)
	priors := hsmm.BuildPriors(float64(sr)/float64(g.HopSamples), hrBpm, g.T)
	emissions := hsmm.EmissionScores(norm)
	result := hsmm.Viterbi(emissions, priors)
	s1, s2 := events.ExtractS1S2(result.Path, g, env)

	if hrBpm < 40 || hrBpm > 200 {
		return false
	}
	return minInt(len(s1), len(s2)) >= 3
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
