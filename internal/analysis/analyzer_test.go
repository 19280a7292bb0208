package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func syntheticPCG(sr int, bpm float64, seconds float64) []float32 {
	n := int(seconds * float64(sr))
	y := make([]float32, n)
	period := 60.0 / bpm
	s1Width := 0.05
	s2Width := 0.04
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		phase := math.Mod(t, period)
		var v float64
		if phase < s1Width {
			v += math.Sin(2*math.Pi*60*phase) * math.Exp(-phase*40)
		}
		s2At := period * 0.35
		if phase >= s2At && phase < s2At+s2Width {
			d := phase - s2At
			v += 0.8 * math.Sin(2*math.Pi*90*d) * math.Exp(-d*50)
		}
		y[i] = float32(v)
	}
	return y
}

func TestAnalyzePCMRejectsInvalidInput(t *testing.T) {
	a := NewAnalyzer()
	_, _, err := a.AnalyzePCM(0, []float32{1, 2}, false)
	assert.Error(t, err)

	_, _, err = a.AnalyzePCM(2000, nil, false)
	assert.Error(t, err)
}

func TestAnalyzePCMProducesBoundedReport(t *testing.T) {
	sr := 4000
	y := syntheticPCG(sr, 75, 10)
	a := NewAnalyzer()

	report, stages, err := a.AnalyzePCM(sr, y, true)
	require.NoError(t, err)
	require.NotNil(t, report)
	for _, name := range []string{"resample", "features", "hsmm", "features-extraction"} {
		assert.Contains(t, stages, name)
	}

	assert.InDelta(t, 10.0, report.DurationSec, 0.2)
	if report.HRBpm != nil {
		assert.GreaterOrEqual(t, *report.HRBpm, 30.0)
		assert.LessOrEqual(t, *report.HRBpm, 220.0)
	}
	assert.GreaterOrEqual(t, report.QC.UsablePct, 0.0)
	assert.LessOrEqual(t, report.QC.UsablePct, 1.0)
	assert.GreaterOrEqual(t, report.QC.MotionPct, 0.0)
	assert.LessOrEqual(t, report.QC.MotionPct, 1.0)
	assert.GreaterOrEqual(t, report.Extras.AdditionalSounds.S3Prob, 0.0)
	assert.LessOrEqual(t, report.Extras.AdditionalSounds.S3Prob, 1.0)
	assert.GreaterOrEqual(t, report.Extras.Murmur.Confidence, 0.0)
	assert.LessOrEqual(t, report.Extras.Murmur.Confidence, 1.0)
}

func TestAnalyzePCMHeuristicPathRuns(t *testing.T) {
	sr := 4000
	y := syntheticPCG(sr, 90, 8)
	a := NewAnalyzer()

	report, _, err := a.AnalyzePCM(sr, y, false)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.InDelta(t, 8.0, report.DurationSec, 0.2)
}

func TestSegmentHSMMBoundedSQI(t *testing.T) {
	sr := 4000
	y := syntheticPCG(sr, 70, 10)
	a := NewAnalyzer()

	seg, err := a.SegmentHSMM(sr, y)
	require.NoError(t, err)
	require.NotNil(t, seg)

	assert.GreaterOrEqual(t, seg.SQI.SegQuality, 0.0)
	assert.LessOrEqual(t, seg.SQI.SegQuality, 1.0)
	assert.GreaterOrEqual(t, seg.SQI.HRSalience, 0.0)
	assert.LessOrEqual(t, seg.SQI.HRSalience, 1.0)
	if seg.SQI.CycleCV != nil {
		assert.GreaterOrEqual(t, *seg.SQI.CycleCV, 0.0)
	}
}

func TestQualityPCMOnSilence(t *testing.T) {
	sr := 2000
	y := make([]float32, sr*4)
	a := NewAnalyzer()

	q, err := a.QualityPCM(sr, y)
	require.NoError(t, err)
	assert.False(t, q.IsHeart)
}

func TestQualityPCMEmptyBuffer(t *testing.T) {
	a := NewAnalyzer()
	q, err := a.QualityPCM(2000, nil)
	require.NoError(t, err)
	assert.Contains(t, q.Issues, "empty")
}

func TestSpectralFeaturesBounded(t *testing.T) {
	sr := 4000
	y := syntheticPCG(sr, 80, 6)
	a := NewAnalyzer()

	feat, err := a.SpectralFeatures(sr, y)
	require.NoError(t, err)
	require.NotNil(t, feat)

	assert.GreaterOrEqual(t, feat.RMS, 0.0)
	assert.GreaterOrEqual(t, feat.ZeroCrossingRate, 0.0)
	assert.LessOrEqual(t, feat.ZeroCrossingRate, 1.0)
	assert.GreaterOrEqual(t, feat.SpectralFlatness, 0.0)
	assert.LessOrEqual(t, feat.SpectralFlatness, 1.0+1e-9)
	assert.GreaterOrEqual(t, feat.Rolloff95, 0.0)
}

func TestSpectralFeaturesEmptyBuffer(t *testing.T) {
	a := NewAnalyzer()
	_, err := a.SpectralFeatures(2000, nil)
	assert.Error(t, err)
}

// Report durations stay within a few resampler hops of the requested
// buffer length for any sample rate and length the pipeline is allowed
// to see.
func TestAnalyzePCMDurationMatchesBufferLength(t *testing.T) {
	a := NewAnalyzer()
	rapid.Check(t, func(rt *rapid.T) {
		sr := rapid.SampledFrom([]int{2000, 4000, 8000, 11025, 16000}).Draw(rt, "sr")
		seconds := rapid.Float64Range(2.0, 12.0).Draw(rt, "seconds")
		y := syntheticPCG(sr, 72, seconds)

		report, _, err := a.AnalyzePCM(sr, y, false)
		require.NoError(rt, err)
		assert.InDelta(rt, seconds, report.DurationSec, 0.3)
	})
}
