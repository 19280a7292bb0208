// Package analysis implements the end-to-end PCG pipeline: resampling,
// envelope/feature extraction, HSMM cardiac-cycle segmentation (or a
// peak-picking fallback), cycle/murmur/respiration/rhythm feature
// derivation, and report assembly.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/gvasels/pcg-analyzer/internal/cycles"
	"github.com/gvasels/pcg-analyzer/internal/envelope"
	"github.com/gvasels/pcg-analyzer/internal/events"
	"github.com/gvasels/pcg-analyzer/internal/frames"
	"github.com/gvasels/pcg-analyzer/internal/heartrate"
	"github.com/gvasels/pcg-analyzer/internal/hsmm"
	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/murmur"
	"github.com/gvasels/pcg-analyzer/internal/numeric"
	"github.com/gvasels/pcg-analyzer/internal/quality"
	"github.com/gvasels/pcg-analyzer/internal/respiration"
	"github.com/gvasels/pcg-analyzer/internal/rhythm"
)

// Analyzer runs the PCG pipeline over already-decoded PCM buffers. It
// holds no state of its own; every call is independent and safe to run
// concurrently.
type Analyzer struct{}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// StageTimings records wall-clock duration per major pipeline stage, for
// the analyze_* handlers' X-Stage-* response headers (spec.md §6.4).
type StageTimings map[string]time.Duration

// AnalyzePCM runs the full pipeline over a raw PCM buffer and returns the
// assembled report, alongside a breakdown of time spent in each major
// stage. useHSMM selects the segmental-Viterbi event extractor over the
// cheaper alternating-peak heuristic.
func (a *Analyzer) AnalyzePCM(sr int, samples []float32, useHSMM bool) (*models.Report, StageTimings, error) {
	resampleStart := time.Now()
	y, sr2, err := prepare(sr, samples)
	stages := StageTimings{"resample": time.Since(resampleStart)}
	if err != nil {
		return nil, stages, err
	}

	pipe := a.run(y, sr2, useHSMM)
	for name, d := range pipe.stages {
		stages[name] = d
	}
	return &pipe.report, stages, nil
}

// SegmentHSMM runs only the segmenter and returns its SQI-annotated
// summary, independent of the full report assembly.
func (a *Analyzer) SegmentHSMM(sr int, samples []float32) (*models.SegmentResult, error) {
	y, sr2, err := prepare(sr, samples)
	if err != nil {
		return nil, err
	}

	env := envelope.Smoothed(y, sr2, 50)
	g := frames.NewGrid(len(y), sr2)
	feat := frames.Extract(y, env, sr2, g)
	frameRate := float64(sr2) / float64(g.HopSamples)

	hrBpm, hrSal := heartrate.Estimate(env, sr2)
	if hrBpm <= 0 {
		hrBpm, hrSal = heartrate.DefaultBPM, heartrate.DefaultSalience
	}

	norm := frames.NormalizeColumns(feat)
	priors := hsmm.BuildPriors(frameRate, hrBpm, g.T)
	emissions := hsmm.EmissionScores(norm)
	path := hsmm.Viterbi(emissions, priors)
	s1, s2 := events.ExtractS1S2(path.Path, g, env)

	rr := cycles.RR(s1, sr2)
	systole, diastole, dsRatio := cycles.SystoleDiastole(s1, s2, sr2)

	var cycleCV *float64
	if len(rr) > 0 {
		cv := stdOf(rr) / (meanOf(rr) + 1e-9)
		cycleCV = &cv
	}
	cv := 1.0
	if cycleCV != nil {
		cv = *cycleCV
	}

	snrApprox := 10 * math.Log10((meanOf(feat.HFRatio)+1e-9)/(varOf(feat.Env)+1e-9))
	segQuality := numeric.Clamp(0.6*hrSal+0.4*(1-math.Min(1, cv)), 0, 1)

	result := &models.SegmentResult{
		SampleRate: sr2,
		FrameRate:  frameRate,
		HRBpm:      hrBpm,
		HRSalience: hrSal,
		Events:     models.EventList{S1: s1, S2: s2},
		RRMeanSec:  meanPtr(rr),
		RRStdSec:   stdPtr(rr),
		SystoleMs:  meanMsPtr(systole),
		DiastoleMs: meanMsPtr(diastole),
		DSRatio:    dsRatio,
		SQI: models.SQI{
			HRSalience:  hrSal,
			CycleCV:     cycleCV,
			SegQuality:  segQuality,
			SNRDbApprox: snrApprox,
		},
	}
	return result, nil
}

// QualityPCM runs the recording-quality gate on a raw PCM buffer.
func (a *Analyzer) QualityPCM(sr int, samples []float32) (*models.QualityReport, error) {
	y, sr2, err := prepare(sr, samples)
	if err != nil {
		q := models.QualityReport{Issues: []string{"empty"}}
		return &q, nil
	}
	q := quality.Assess(y, sr2)
	return &q, nil
}

// SpectralFeatures computes the whole-buffer spectral diagnostic bundle
// supplementing the main report.
func (a *Analyzer) SpectralFeatures(sr int, samples []float32) (*models.SpectralFeatureReport, error) {
	y, sr2, err := prepare(sr, samples)
	if err != nil {
		return nil, err
	}
	return spectralFeatures(y, sr2), nil
}

func prepare(sr int, samples []float32) ([]float32, int, error) {
	if sr <= 0 {
		return nil, 0, models.ErrInvalidSampleRate
	}
	if len(samples) == 0 {
		return nil, 0, models.ErrEmptyBuffer
	}
	y, sr2 := numeric.Resample(samples, sr, numeric.TargetSampleRate)
	if len(y) == 0 {
		return nil, 0, models.ErrEmptyBuffer
	}
	return y, sr2, nil
}

// pipeline carries the assembled report and the per-stage timings out of
// run. The HSMM path of run uses the same stage packages as SegmentHSMM;
// the quality gate is not part of run.
type pipeline struct {
	report models.Report
	stages StageTimings
}

func (a *Analyzer) run(y []float32, sr int, useHSMM bool) pipeline {
	n := len(y)
	dur := float64(n) / float64(sr)
	stages := StageTimings{}

	featuresStart := time.Now()
	env := envelope.Smoothed(y, sr, 50)
	tkeo := envelope.TKEO(y)

	g := frames.NewGrid(n, sr)
	feat := frames.Extract(y, env, sr, g)
	norm := frames.NormalizeColumns(feat)

	hrBpm, _ := heartrate.Estimate(env, sr)
	stages["features"] = time.Since(featuresStart)

	hsmmStart := time.Now()
	var s1, s2 []int
	if useHSMM {
		priors := hsmm.BuildPriors(float64(sr)/float64(g.HopSamples), hrBpm, g.T)
		emissions := hsmm.EmissionScores(norm)
		path := hsmm.Viterbi(emissions, priors)
		s1, s2 = events.ExtractS1S2(path.Path, g, env)
	} else {
		s1, s2 = events.AlternatingHeuristic(env, sr, hrBpm)
	}
	stages["hsmm"] = time.Since(hsmmStart)

	extractionStart := time.Now()
	rr := cycles.RR(s1, sr)
	systole, diastole, dsRatio := cycles.SystoleDiastole(s1, s2, sr)
	s1DurMs, _ := cycles.EventWidthMs(env, sr, s1)
	s2DurMs, _ := cycles.EventWidthMs(env, sr, s2)

	var splitVals, aosVals []float64
	for _, idx := range s2 {
		if sp := cycles.S2Split(y, sr, idx); sp.Ok {
			splitVals = append(splitVals, sp.Ms)
		}
		if ao := cycles.A2OS(y, sr, idx); ao.Ok {
			aosVals = append(aosVals, ao.Ms)
		}
	}

	cyclesN := maxInt(1, minInt(len(s1), len(s2)))
	var s3Hits, s4Hits, ejectHits, midHits int
	for _, idx := range s2 {
		if cycles.S3Hit(y, sr, idx) {
			s3Hits++
		}
	}
	for _, idx := range s1 {
		if cycles.S4Hit(y, sr, idx) {
			s4Hits++
		}
	}
	for j := 0; j < minInt(len(s1), len(s2)); j++ {
		if cycles.EjectionClick(tkeo, sr, s1[j]) {
			ejectHits++
		}
		if cycles.MidSystolicClick(tkeo, sr, s1[j], s2[j]) {
			midHits++
		}
	}
	openingSnapProb := numeric.Clamp(float64(len(aosVals))/float64(cyclesN), 0, 1)

	sigPow := numeric.WelchBandPower(y, sr, 25, 400)
	noisePow := numeric.WelchBandPower(y, sr, 0, 25)
	snrDb := 10 * math.Log10((sigPow+1e-9)/(noisePow+1e-9))

	envLF := numeric.MovingAverage(y, maxInt(1, int(0.3*float64(sr))))
	motionPct := numeric.Clamp(varAround(envLF, medianF32(envLF))/(varAround(env, medianF32(env))+1e-9), 0, 1)
	usablePct := fractionAbove(env, medianF32(env)+0.1*stdF32(env, medianF32(env)))

	murmurResult := murmur.Characterize(y, sr, s1, s2, snrDb, usablePct)

	respRate, respDom, decimated, fs, respOK := respiration.Estimate(env, sr)
	splitCorr := respiration.CorrAtEvents(decimated, fs, s2, sr)
	splitType := respiration.ClassifySplit(splitVals, splitCorr)
	_ = respDom

	rhythmStats := rhythm.Compute(rr)

	s1Intensity := meanAtIndices(env, s1)
	s2Intensity := meanAtIndices(env, s2)
	sysEnergy, diaEnergy := cycleBandEnergy(y, sr, s1, s2)
	sysShape := shapeFromSlopes(env, s1, s2)
	stages["features-extraction"] = time.Since(extractionStart)

	report := models.Report{
		DurationSec: dur,
		HRBpm:       floatPtr(hrBpm),
		RRMeanSec:   meanPtr(rr),
		RRStdSec:    stdPtr(rr),
		SystoleMs:   meanMsPtr(systole),
		DiastoleMs:  meanMsPtr(diastole),
		DSRatio:     dsRatio,
		S1DurMs:     optionalPtr(s1DurMs),
		S2DurMs:     optionalPtr(s2DurMs),
		S2SplitMs:   medianPtr(splitVals),
		A2OsMs:      medianPtr(aosVals),
		S1Intensity: s1Intensity,
		S2Intensity: s2Intensity,
		SysHighFreqEnergy: sysEnergy,
		DiaHighFreqEnergy: diaEnergy,
		SysShape:          sysShape,
		QC: models.QC{
			SNRDb:                 snrDb,
			MotionPct:             motionPct,
			UsablePct:             usablePct,
			ContactNoiseSuspected: snrDb < 3.0 || motionPct > 0.5,
		},
		Events: models.EventList{S1: s1, S2: s2},
		Extras: models.Extras{
			Respiration: models.Respiration{
				RespRate:      optionalOKPtr(respRate, respOK),
				RespDominance: optionalOKPtr(respDom, respOK),
				S2SplitType:   &splitType,
				S2SplitCorr:   floatPtr(splitCorr),
			},
			AdditionalSounds: models.AdditionalSounds{
				S3Prob:               numeric.Clamp(float64(s3Hits)/float64(cyclesN), 0, 1),
				S4Prob:               numeric.Clamp(float64(s4Hits)/float64(cyclesN), 0, 1),
				S3Cycles:             s3Hits,
				S4Cycles:             s4Hits,
				EjectionClickProb:    numeric.Clamp(float64(ejectHits)/float64(cyclesN), 0, 1),
				MidSystolicClickProb: numeric.Clamp(float64(midHits)/float64(cyclesN), 0, 1),
				OpeningSnapProb:      openingSnapProb,
			},
			Murmur: models.Murmur{
				Present:    murmurResult.Present,
				Phase:      murmurResult.Phase,
				Systolic:   toMurmurDescriptor(murmurResult.Systolic),
				Diastolic:  toMurmurDescriptor(murmurResult.Diastolic),
				GradeProxy: murmurResult.GradeProxy,
				Confidence: murmurResult.Confidence,
			},
			Rhythm: toRhythmStats(rhythmStats),
		},
	}

	return pipeline{report: report, stages: stages}
}

func toMurmurDescriptor(d murmur.Descriptor) models.MurmurDescriptor {
	return models.MurmurDescriptor{
		Present:   d.Present,
		Extent:    d.Extent,
		Shape:     d.Shape,
		PitchHz:   d.PitchHz,
		BandRatio: d.BandHz,
		Coverage:  d.Coverage,
	}
}

func toRhythmStats(s rhythm.Stats) models.RhythmStats {
	return models.RhythmStats{
		RRCV:            s.RRCV,
		PNN50:           s.PNN50,
		SampleEntropy:   s.SampleEntropy,
		PoincareSD1:     s.PoincareSD1,
		PoincareSD2:     s.PoincareSD2,
		AFSuspected:     s.AFSuspected,
		EctopySuspected: s.EctopySuspected,
	}
}

// cycleBandEnergy averages 150-600Hz Welch power over the systolic
// (s1[j],s2[j]) and diastolic (s2[j],s1[j+1]) windows.
func cycleBandEnergy(y []float32, sr int, s1, s2 []int) (sysEnergy, diaEnergy *float64) {
	var sysVals, diaVals []float64
	pairs := minInt(len(s1), len(s2))
	for j := 0; j < pairs; j++ {
		a, b := s1[j], s2[j]
		if b <= a {
			continue
		}
		sysVals = append(sysVals, numeric.WelchBandPower(safeSlice(y, a, b), sr, 150, 600))
		if j+1 < len(s1) {
			next := s1[j+1]
			if next > b {
				diaVals = append(diaVals, numeric.WelchBandPower(safeSlice(y, b, next), sr, 150, 600))
			}
		}
	}
	return meanPtr(sysVals), meanPtr(diaVals)
}

func shapeFromSlopes(env []float32, s1, s2 []int) *string {
	var slopes []float64
	pairs := minInt(len(s1), len(s2))
	for j := 0; j < pairs; j++ {
		a, b := s1[j], s2[j]
		if b <= a {
			continue
		}
		seg := safeSlice(env, a, b)
		if len(seg) < 5 {
			continue
		}
		vals := make([]float64, len(seg))
		for i, v := range seg {
			vals[i] = float64(v)
		}
		slopes = append(slopes, linearFitSlope(vals))
	}
	if len(slopes) == 0 {
		return nil
	}
	m := meanOf(slopes)
	var shape string
	switch {
	case m > 0.02:
		shape = "crescendo"
	case m < -0.02:
		shape = "decrescendo"
	default:
		shape = "plateau"
	}
	return &shape
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
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (nf*sumXY - sumX*sumY) / denom
}

func safeSlice[T any](x []T, a, b int) []T {
	if a < 0 {
		a = 0
	}
	if b > len(x) {
		b = len(x)
	}
	if a >= b {
		return nil
	}
	return x[a:b]
}

func meanAtIndices(env []float32, idx []int) *float64 {
	if len(idx) == 0 {
		return nil
	}
	var sum float64
	for _, i := range idx {
		if i >= 0 && i < len(env) {
			sum += float64(env[i])
		}
	}
	m := sum / float64(len(idx))
	return &m
}

func fractionAbove(x []float32, thr float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var c int
	for _, v := range x {
		if float64(v) > thr {
			c++
		}
	}
	return float64(c) / float64(len(x))
}

func varAround(x []float32, center float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var acc float64
	for _, v := range x {
		d := float64(v) - center
		acc += d * d
	}
	return acc / float64(len(x))
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
	n := len(f)
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

func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func varOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := meanOf(x)
	var acc float64
	for _, v := range x {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(x))
}

func stdOf(x []float64) float64 {
	return math.Sqrt(varOf(x))
}

func meanPtr(x []float64) *float64 {
	if len(x) == 0 {
		return nil
	}
	m := meanOf(x)
	return &m
}

func stdPtr(x []float64) *float64 {
	if len(x) == 0 {
		return nil
	}
	s := stdOf(x)
	return &s
}

func meanMsPtr(x []float64) *float64 {
	if len(x) == 0 {
		return nil
	}
	m := meanOf(x) * 1000
	return &m
}

func medianPtr(x []float64) *float64 {
	if len(x) == 0 {
		return nil
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	var m float64
	if n%2 == 1 {
		m = s[n/2]
	} else {
		m = (s[n/2-1] + s[n/2]) / 2
	}
	return &m
}

func optionalPtr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalOKPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func floatPtr(v float64) *float64 { return &v }

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
