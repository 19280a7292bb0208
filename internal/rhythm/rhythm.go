// Package rhythm computes RR-interval variability statistics and
// heuristic arrhythmia-suspicion flags.
package rhythm

import "math"

// Stats is the rhythm-variability summary for an RR series. Fields are
// nil when the RR series is too short to support the computation.
type Stats struct {
	RRCV          *float64
	PNN50         *float64
	SampleEntropy *float64
	PoincareSD1   *float64
	PoincareSD2   *float64
	AFSuspected   bool
	EctopySuspected bool
}

// Compute derives all rhythm statistics from an RR series (seconds).
func Compute(rr []float64) Stats {
	var s Stats
	if len(rr) == 0 {
		return s
	}

	mean := meanOf(rr)
	std := stdOf(rr, mean)
	if mean > 0 {
		cv := std / mean
		s.RRCV = &cv
	}

	var diffs []float64
	for i := 1; i < len(rr); i++ {
		diffs = append(diffs, rr[i]-rr[i-1])
	}

	if len(diffs) > 0 {
		var over50 int
		for _, d := range diffs {
			if math.Abs(d) > 0.05 {
				over50++
			}
		}
		p := float64(over50) / float64(len(diffs))
		s.PNN50 = &p

		varDiff := varianceOf(diffs)
		sd1 := math.Sqrt(0.5 * varDiff)
		s.PoincareSD1 = &sd1

		varRR := varianceOf(rr)
		sd2Sq := 2*varRR - 0.5*varDiff
		if sd2Sq < 0 {
			sd2Sq = 0
		}
		sd2 := math.Sqrt(sd2Sq)
		s.PoincareSD2 = &sd2
	}

	if len(rr) >= 4 {
		r := 0.2*std + 1e-9
		a := phi(rr, 2, r)
		b := phi(rr, 3, r)
		se := -math.Log((float64(b) + 1e-12) / (float64(a) + 1e-12))
		s.SampleEntropy = &se
	}

	rrCV := derefOr(s.RRCV, 0)
	pnn50 := derefOr(s.PNN50, 0)
	sampen := derefOr(s.SampleEntropy, 0)

	s.AFSuspected = rrCV > 0.2 && pnn50 > 0.2 && sampen > 0.5
	s.EctopySuspected = !s.AFSuspected && pnn50 > 0.1 && pnn50 < 0.3 && rrCV > 0.12

	return s
}

// phi is the O(N^2) sample-entropy template-match count for embedding
// dimension m and tolerance r. RR series lengths are typically < 100, so
// the quadratic cost is acceptable.
func phi(rr []float64, m int, r float64) int {
	n := len(rr)
	if n < m {
		return 0
	}
	vecCount := n - m + 1
	count := 0
	for i := 0; i < vecCount; i++ {
		for j := i + 1; j < vecCount; j++ {
			d := 0.0
			for k := 0; k < m; k++ {
				diff := math.Abs(rr[i+k] - rr[j+k])
				if diff > d {
					d = diff
				}
			}
			if d < r {
				count++
			}
		}
	}
	return count
}

func meanOf(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func varianceOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := meanOf(x)
	var acc float64
	for _, v := range x {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(x))
}

func stdOf(x []float64, mean float64) float64 {
	var acc float64
	for _, v := range x {
		d := v - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(x)))
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
