package respiration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRecoversRespiratoryRate(t *testing.T) {
	sr := 2000
	n := sr * 20
	env := make([]float32, n)
	breathsHz := 0.25 // 15 breaths/min
	for i := range env {
		env[i] = float32(1 + 0.5*math.Sin(2*math.Pi*breathsHz*float64(i)/float64(sr)))
	}
	rate, dom, decimated, fs, ok := Estimate(env, sr)
	assert.True(t, ok)
	assert.InDelta(t, 15.0, rate, 3.0)
	assert.Greater(t, dom, 0.0)
	assert.NotEmpty(t, decimated)
	assert.Greater(t, fs, 0.0)
}

func TestClassifySplit(t *testing.T) {
	assert.Equal(t, "wide", ClassifySplit([]float64{60, 55, 58}, 0))
	assert.Equal(t, "fixed", ClassifySplit([]float64{35, 36, 34}, 0))
	assert.Equal(t, "physiologic", ClassifySplit([]float64{20, 22, 18}, 0.5))
	assert.Equal(t, "paradoxical", ClassifySplit([]float64{20, 22, 18}, -0.5))
	assert.Equal(t, "indeterminate", ClassifySplit([]float64{20, 22, 18}, 0))
}

func TestCorrAtEventsNeedsAtLeastThree(t *testing.T) {
	assert.Equal(t, 0.0, CorrAtEvents([]float64{1, 2, 3}, 20, []int{0, 100}, 2000))
}
