package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAssessEmptyBuffer(t *testing.T) {
	r := Assess(nil, 2000)
	assert.False(t, r.IsHeart)
	assert.False(t, r.QualityOk)
	assert.Contains(t, r.Issues, "empty")
}

func TestAssessSilenceFlagsWeakPeriodicity(t *testing.T) {
	sr := 2000
	y := make([]float32, sr*4)
	r := Assess(y, sr)
	assert.False(t, r.IsHeart)
	assert.Contains(t, r.Issues, "weak_periodicity")
	assert.InDelta(t, 4.0, r.Metrics.DurationSec, 1e-6)
}

func TestAssessPureToneOutOfHeartBand(t *testing.T) {
	sr := 2000
	n := sr * 4
	y := make([]float32, n)
	for i := range y {
		y[i] = float32(0.5 * math.Sin(2*math.Pi*100*float64(i)/float64(sr)))
	}
	r := Assess(y, sr)
	require.False(t, r.IsHeart)
	hasExpectedIssue := false
	for _, iss := range r.Issues {
		if iss == "energy_not_in_heart_band" || iss == "weak_periodicity" {
			hasExpectedIssue = true
		}
	}
	assert.True(t, hasExpectedIssue)
}

func TestAssessScoreBounded(t *testing.T) {
	sr := 2000
	n := sr * 5
	y := make([]float32, n)
	for i := range y {
		phase := 2 * math.Pi * 1.2 * float64(i) / float64(sr)
		y[i] = float32(0.8*math.Sin(phase) + 0.1*math.Sin(phase*7))
	}
	r := Assess(y, sr)
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 1.0)
}

// A pure 100Hz tone sits outside the heart band regardless of its sample
// rate or length, for any N >= 2*sr (spec.md §8).
func TestAssessPureToneOutOfHeartBandForAnyN(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sr := rapid.SampledFrom([]int{2000, 4000, 8000}).Draw(rt, "sr")
		seconds := rapid.Float64Range(2.0, 8.0).Draw(rt, "seconds")
		n := int(float64(sr) * seconds)
		y := make([]float32, n)
		for i := range y {
			y[i] = float32(0.5 * math.Sin(2*math.Pi*100*float64(i)/float64(sr)))
		}

		r := Assess(y, sr)
		require.False(rt, r.IsHeart)
		hasExpectedIssue := false
		for _, iss := range r.Issues {
			if iss == "energy_not_in_heart_band" || iss == "weak_periodicity" {
				hasExpectedIssue = true
			}
		}
		assert.True(rt, hasExpectedIssue)
		assert.GreaterOrEqual(rt, r.Score, 0.0)
		assert.LessOrEqual(rt, r.Score, 1.0)
	})
}
