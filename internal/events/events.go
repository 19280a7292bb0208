// Package events turns a decoded cardiac-cycle state path (or, in the
// non-HSMM mode, raw envelope peaks) into S1/S2 sample-index event lists.
package events

import (
	"math"
	"sort"

	"github.com/gvasels/pcg-analyzer/internal/frames"
	"github.com/gvasels/pcg-analyzer/internal/hsmm"
)

// MaxEvents is the truncation limit applied to both S1 and S2 lists.
const MaxEvents = 200

// FromPath collects contiguous path==target runs, maps each run to a
// sample range, and emits the argmax of |env| within that range.
func FromPath(path []hsmm.State, target hsmm.State, g frames.Grid, env []float32) []int {
	var out []int
	n := len(env)
	i := 0
	for i < len(path) {
		if path[i] != target {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] == target {
			j++
		}
		a := i * g.HopSamples
		b := j*g.HopSamples + g.WinSamples
		if b > n-1 {
			b = n - 1
		}
		if a <= b && a < n {
			out = append(out, argmaxAbs(env, a, b))
		}
		i = j
	}
	return dedupSortTruncate(out)
}

// ExtractS1S2 returns both event lists from a decoded path.
func ExtractS1S2(path []hsmm.State, g frames.Grid, env []float32) (s1, s2 []int) {
	return FromPath(path, hsmm.S1, g, env), FromPath(path, hsmm.S2, g, env)
}

func argmaxAbs(env []float32, a, b int) int {
	best := a
	bestVal := float32(math.Inf(-1))
	for k := a; k <= b && k < len(env); k++ {
		v := env[k]
		if v < 0 {
			v = -v
		}
		if v > bestVal {
			bestVal = v
			best = k
		}
	}
	return best
}

func dedupSortTruncate(idx []int) []int {
	if len(idx) == 0 {
		return idx
	}
	sort.Ints(idx)
	out := idx[:1]
	for _, v := range idx[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	if len(out) > MaxEvents {
		out = out[:MaxEvents]
	}
	return out
}

// AlternatingHeuristic extracts S1/S2 events without the HSMM: it finds
// envelope peaks above an adaptive threshold and assigns them to S1/S2 by
// alternating within an expected cycle length derived from hrBPM.
func AlternatingHeuristic(env []float32, sr int, hrBPM float64) (s1, s2 []int) {
	med := medianF32(env)
	std := stdF32(env, med)
	thr := math.Max(0.2, med+0.5*std)
	minDist := int(0.2 * float64(sr))
	cand := findPeaks(env, minDist, thr)

	var cycle float64
	if hrBPM > 0 {
		cycle = float64(sr) * 60 / hrBPM
	} else {
		cycle = float64(sr) * 0.8
	}

	var lastIdx int = -1
	lastIsS1 := true
	for i, c := range cand {
		if i == 0 {
			s1 = append(s1, c)
			lastIdx = c
			lastIsS1 = true
			continue
		}
		dt := float64(c - lastIdx)
		if dt < 0.7*cycle {
			if lastIsS1 {
				s2 = append(s2, c)
				lastIsS1 = false
			} else {
				s1 = append(s1, c)
				lastIsS1 = true
			}
		} else {
			s1 = append(s1, c)
			lastIsS1 = true
		}
		lastIdx = c
	}
	return dedupSortTruncate(s1), dedupSortTruncate(s2)
}

func findPeaks(x []float32, minDist int, threshold float64) []int {
	var peaks []int
	n := len(x)
	i := 0
	for i < n {
		if float64(x[i]) > threshold {
			end := i + minDist
			if end > n {
				end = n
			}
			best := i
			bestVal := x[i]
			for k := i; k < end; k++ {
				if x[k] > bestVal {
					bestVal = x[k]
					best = k
				}
			}
			peaks = append(peaks, best)
			i = best + minDist
		} else {
			i++
		}
	}
	return peaks
}

func medianF32(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	sort.Float64s(f)
	n := len(f)
	if n%2 == 1 {
		return f[n/2]
	}
	return (f[n/2-1] + f[n/2]) / 2
}

func stdF32(x []float32, mean float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var acc float64
	for _, v := range x {
		d := float64(v) - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(x)))
}
