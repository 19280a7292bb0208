package frames

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGridFrameCount(t *testing.T) {
	g := NewGrid(4000, 2000)
	assert.Equal(t, 40, g.HopSamples)
	assert.Equal(t, 80, g.WinSamples)
	assert.Greater(t, g.T, 1)
}

func TestNewGridShortBufferSingleFrame(t *testing.T) {
	g := NewGrid(10, 2000)
	assert.Equal(t, 1, g.T)
}

func TestExtractProducesTLengthColumns(t *testing.T) {
	sr := 2000
	n := 4000
	x := make([]float32, n)
	env := make([]float32, n)
	for i := range x {
		x[i] = float32(math.Sin(2 * math.Pi * 100 * float64(i) / float64(sr)))
		env[i] = float32(math.Abs(float64(x[i])))
	}
	g := NewGrid(n, sr)
	f := Extract(x, env, sr, g)
	assert.Len(t, f.Env, g.T)
	assert.Len(t, f.DEnv, g.T)
	assert.Len(t, f.Flux, g.T)
	assert.Len(t, f.HFRatio, g.T)
	assert.Equal(t, 0.0, f.Flux[0])
}

func TestNormalizeColumnsBounded(t *testing.T) {
	f := Features{
		Env:     []float64{1, 2, 3, 100},
		DEnv:    []float64{0, 1, -1, 2},
		Flux:    []float64{0, 0.5, 0.2, 0.9},
		HFRatio: []float64{1, 1, 1, 1},
	}
	norm := NormalizeColumns(f)
	for _, row := range norm {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}
