package cycles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRR(t *testing.T) {
	rr := RR([]int{0, 2000, 4000}, 2000)
	assert.Equal(t, []float64{1, 1}, rr)
}

func TestSystoleDiastoleAcceptsInRangePairs(t *testing.T) {
	sr := 2000
	s1 := []int{0, 2000, 4000}
	s2 := []int{600, 2600}
	sys, dia, ratio := SystoleDiastole(s1, s2, sr)
	assert.Len(t, sys, 2)
	assert.NotEmpty(t, dia)
	assert.NotNil(t, ratio)
}

func TestSystoleDiastoleEmptyWhenNoPairs(t *testing.T) {
	_, _, ratio := SystoleDiastole(nil, nil, 2000)
	assert.Nil(t, ratio)
}

func TestEventWidthMsMedian(t *testing.T) {
	sr := 2000
	env := make([]float32, sr)
	for i := sr/2 - 20; i < sr/2+20; i++ {
		env[i] = 1
	}
	ms, ok := EventWidthMs(env, sr, []int{sr / 2})
	assert.True(t, ok)
	assert.Greater(t, ms, 0.0)
}

func TestS2SplitDegenerateNoPanic(t *testing.T) {
	y := make([]float32, 100)
	assert.NotPanics(t, func() {
		S2Split(y, 2000, 50)
	})
}
