package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRegularRhythm(t *testing.T) {
	rr := []float64{1.0, 1.0, 1.0, 1.0, 1.0}
	s := Compute(rr)
	require.NotNil(t, s.RRCV)
	assert.InDelta(t, 0, *s.RRCV, 1e-9)
	assert.False(t, s.AFSuspected)
}

func TestComputeEmptyRR(t *testing.T) {
	s := Compute(nil)
	assert.Nil(t, s.RRCV)
	assert.Nil(t, s.PNN50)
	assert.False(t, s.AFSuspected)
	assert.False(t, s.EctopySuspected)
}

func TestComputeIrregularRRHasHighCV(t *testing.T) {
	rr := []float64{0.6, 1.4, 0.5, 1.5, 0.6, 1.4, 0.5, 1.5, 0.6, 1.4}
	s := Compute(rr)
	require.NotNil(t, s.RRCV)
	require.NotNil(t, s.PNN50)
	assert.Greater(t, *s.RRCV, 0.2)
}
