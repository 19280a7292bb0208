package hsmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStateNextIsCyclic(t *testing.T) {
	assert.Equal(t, Systole, S1.Next())
	assert.Equal(t, S2, Systole.Next())
	assert.Equal(t, Diastole, S2.Next())
	assert.Equal(t, S1, Diastole.Next())
}

func TestBuildPriorsWithinFrameBudget(t *testing.T) {
	priors := BuildPriors(50, 60, 200)
	for _, p := range priors {
		assert.LessOrEqual(t, p.DMin, p.DMax)
		assert.GreaterOrEqual(t, p.DMin, 2)
	}
}

func TestViterbiTransitionsAreLegal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		frames := rapid.IntRange(20, 120).Draw(rt, "frames")
		e := make([][numStates]float64, frames)
		for i := range e {
			for s := 0; s < numStates; s++ {
				e[i][s] = rapid.Float64Range(-2, 2).Draw(rt, "e")
			}
		}
		priors := BuildPriors(50, 70, frames)
		res := Viterbi(e, priors)
		require.Len(t, res.Path, frames)
		for i := 1; i < len(res.Path); i++ {
			if res.Path[i] != res.Path[i-1] {
				assert.Equal(t, res.Path[i-1].Next(), res.Path[i])
			}
		}
	})
}

func TestViterbiEmptyInput(t *testing.T) {
	res := Viterbi(nil, BuildPriors(50, 70, 0))
	assert.Nil(t, res.Path)
}
