package murmur

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharacterizeRangesHonored(t *testing.T) {
	sr := 2000
	n := sr * 6
	y := make([]float32, n)
	var s1, s2 []int
	cycle := sr * 60 / 60
	for i := 0; i+cycle < n; i += cycle {
		s1 = append(s1, i)
		s2 = append(s2, i+cycle/3)
		for k := i; k < i+cycle/3 && k < n; k++ {
			y[k] += float32(0.5 * math.Sin(2*math.Pi*200*float64(k)/float64(sr)))
		}
	}
	res := Characterize(y, sr, s1, s2, 10, 0.8)
	assert.GreaterOrEqual(t, res.Systolic.Coverage, 0.0)
	assert.LessOrEqual(t, res.Systolic.Coverage, 1.0)
	assert.GreaterOrEqual(t, res.GradeProxy, 0)
	assert.LessOrEqual(t, res.GradeProxy, 3)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}

func TestCharacterizeEmptyEvents(t *testing.T) {
	res := Characterize(make([]float32, 2000), 2000, nil, nil, 0, 0)
	assert.False(t, res.Present)
}
