// Package hsmm implements the cardiac-cycle segmenter: a 4-state hidden
// semi-Markov model (S1, Systole, S2, Diastole) with explicit per-state
// duration priors, solved by a segmental Viterbi dynamic program.
package hsmm

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// State identifies a position in the cardiac cycle. States are cyclically
// connected: S1 -> Systole -> S2 -> Diastole -> S1.
type State int

const (
	S1 State = iota
	Systole
	S2
	Diastole
	numStates = 4
)

// Next returns the state that follows s in the fixed cycle.
func (s State) Next() State { return (s + 1) % numStates }

func prev(s State) State { return (s + numStates - 1) % numStates }

// DurationPrior is the Gaussian-on-duration prior for one state, valid only
// over the closed frame range [DMin, DMax].
type DurationPrior struct {
	Mu, Sigma  float64
	DMin, DMax int
}

func (p DurationPrior) logP(d int) float64 {
	if d < p.DMin || d > p.DMax {
		return math.Inf(-1)
	}
	z := (float64(d) - p.Mu) / p.Sigma
	return -0.5 * z * z
}

// BuildPriors derives the four duration priors from the expected frames
// per cardiac cycle C = frameRate*60/clamp(hrBPM, 30, 200), clamped against
// the number of available frames T.
func BuildPriors(frameRate, hrBPM float64, t int) [numStates]DurationPrior {
	c := frameRate * 60 / numeric.Clamp(hrBPM, 30, 200)

	s1Mu := numeric.Clamp(0.06*c, 2, 8)
	s2Mu := numeric.Clamp(0.06*c, 2, 8)
	sysMu := numeric.Clamp(0.32*c, 0.15*c, 0.45*c)
	diaMu := numeric.Clamp(0.62*c, 0.20*c, 0.80*c)

	s1Sigma := math.Max(1.5, 0.25*s1Mu)
	s2Sigma := math.Max(1.5, 0.25*s2Mu)
	sysSigma := 0.25 * sysMu
	diaSigma := 0.25 * diaMu

	sysDMin := maxInt(2, int(0.10*c))
	sysDMax := maxInt(int(0.60*c), sysDMin+2)
	diaDMin := maxInt(2, int(0.20*c))
	diaDMax := maxInt(int(1.00*c), diaDMin+2)

	if t > 0 {
		sysDMax = minInt(sysDMax, t)
		diaDMax = minInt(diaDMax, t)
	}

	var priors [numStates]DurationPrior
	priors[S1] = DurationPrior{Mu: s1Mu, Sigma: s1Sigma, DMin: 2, DMax: 8}
	priors[Systole] = DurationPrior{Mu: sysMu, Sigma: sysSigma, DMin: sysDMin, DMax: sysDMax}
	priors[S2] = DurationPrior{Mu: s2Mu, Sigma: s2Sigma, DMin: 2, DMax: 8}
	priors[Diastole] = DurationPrior{Mu: diaMu, Sigma: diaSigma, DMin: diaDMin, DMax: diaDMax}
	return priors
}

// emissionWeights is the hand-tuned 4x4 weight matrix mapping the
// normalized (env, d_env, flux, hf_ratio) feature vector onto a per-state
// emission score: S1 favors high envelope and rising edge, Systole favors
// flux and mid HF, S2 is S1-like with more HF, Diastole penalizes all of
// the above.
var emissionWeights = [numStates][4]float64{
	S1:       {1.4, 1.0, -0.2, 0.2},
	Systole:  {0.6, -0.2, 0.9, 0.5},
	S2:       {1.2, 1.0, 0.2, 0.8},
	Diastole: {-1.0, -0.6, -0.8, -0.5},
}

// EmissionScores computes E[t][s] = W_s . x[t] for every frame/state pair.
func EmissionScores(features [][4]float64) [][numStates]float64 {
	e := make([][numStates]float64, len(features))
	for t, x := range features {
		for s := 0; s < numStates; s++ {
			w := emissionWeights[s]
			e[t][s] = w[0]*x[0] + w[1]*x[1] + w[2]*x[2] + w[3]*x[3]
		}
	}
	return e
}

// Result is the outcome of the Viterbi segmentation.
type Result struct {
	Path []State // length T
}

// Viterbi runs the explicit-duration segmental Viterbi DP over T frames
// and 4 cyclic states, given per-frame emission scores and duration
// priors. Ties break toward the lower state index and the smaller
// duration, making the decoded path deterministic.
func Viterbi(e [][numStates]float64, priors [numStates]DurationPrior) Result {
	t := len(e)
	if t == 0 {
		return Result{Path: nil}
	}

	// Cumulative emission sums per state: cum[s][k] = sum_{tau<k} E[tau,s].
	var cum [numStates][]float64
	for s := 0; s < numStates; s++ {
		cum[s] = make([]float64, t+1)
		for k := 0; k < t; k++ {
			cum[s][k+1] = cum[s][k] + e[k][s]
		}
	}

	dp := make([][numStates]float64, t+1)
	ptrState := make([][numStates]int, t+1)
	ptrDur := make([][numStates]int, t+1)
	for s := 0; s < numStates; s++ {
		dp[0][s] = 0
		ptrState[0][s] = -1
		ptrDur[0][s] = 0
	}
	for tt := 1; tt <= t; tt++ {
		for s := 0; s < numStates; s++ {
			dp[tt][s] = math.Inf(-1)
			ptrState[tt][s] = -1
		}
	}

	for tt := 1; tt <= t; tt++ {
		for s := 0; s < numStates; s++ {
			ps := int(prev(State(s)))
			prior := priors[s]
			dMax := prior.DMax
			if dMax > tt {
				dMax = tt
			}
			best := math.Inf(-1)
			bestD := -1
			for d := prior.DMin; d <= dMax; d++ {
				base := dp[tt-d][ps]
				if math.IsInf(base, -1) {
					continue
				}
				emis := cum[s][tt] - cum[s][tt-d]
				score := base + prior.logP(d) + emis
				if score > best {
					best = score
					bestD = d
				}
			}
			if bestD >= 0 {
				dp[tt][s] = best
				ptrState[tt][s] = ps
				ptrDur[tt][s] = bestD
			}
		}
	}

	endState := 0
	best := dp[t][0]
	for s := 1; s < numStates; s++ {
		if dp[t][s] > best {
			best = dp[t][s]
			endState = s
		}
	}

	path := make([]State, t)
	tt := t
	s := endState
	for tt > 0 {
		d := ptrDur[tt][s]
		ps := ptrState[tt][s]
		if d <= 0 || math.IsInf(dp[tt][s], -1) {
			break
		}
		for i := tt - d; i < tt; i++ {
			path[i] = State(s)
		}
		tt -= d
		s = ps
	}

	if tt > 0 {
		var meanE [numStates]float64
		for st := 0; st < numStates; st++ {
			meanE[st] = cum[st][tt] / float64(tt)
		}
		fill := 0
		bestMean := meanE[0]
		for st := 1; st < numStates; st++ {
			if meanE[st] > bestMean {
				bestMean = meanE[st]
				fill = st
			}
		}
		for i := 0; i < tt; i++ {
			path[i] = State(fill)
		}
	}

	return Result{Path: path}
}

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
