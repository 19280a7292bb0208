package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothedNonNegative(t *testing.T) {
	x := []float32{-1, 2, -3, 4, -5}
	e := Smoothed(x, 2000, 50)
	for _, v := range e {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}

func TestTKEOBoundaryZero(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	y := TKEO(x)
	assert.Equal(t, float32(0), y[0])
	assert.Equal(t, float32(0), y[len(y)-1])
}

func TestTKEOClampedNonNegative(t *testing.T) {
	x := []float32{1, 10, 1, 10, 1}
	y := TKEO(x)
	for _, v := range y {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}

func TestNormalizeByMax(t *testing.T) {
	x := []float32{0, 2, -4, 1}
	n := NormalizeByMax(x)
	assert.InDelta(t, -1.0, n[2], 1e-6)
}

func TestNormalizeByMaxDegenerate(t *testing.T) {
	x := []float32{0, 0, 0}
	n := NormalizeByMax(x)
	assert.Equal(t, x, n)
}

func TestShannonHandlesZeros(t *testing.T) {
	x := make([]float32, 50)
	assert.NotPanics(t, func() {
		Shannon(x, 2000, 50)
	})
}
