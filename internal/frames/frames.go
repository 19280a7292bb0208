// Package frames splits a resampled buffer into a uniform hop/window grid
// and derives the per-frame (env, d_env, flux, hf_ratio) feature matrix the
// HSMM segmenter scores against.
package frames

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// Grid describes a hop/window framing of a buffer of length n.
type Grid struct {
	HopSamples int
	WinSamples int
	T          int
}

// NewGrid builds the standard 20ms-hop/40ms-window grid for a buffer of n
// samples at sr Hz. T = 1 + floor((n-win)/hop) for n >= win, else 1.
func NewGrid(n, sr int) Grid {
	hop := int(math.Round(0.02 * float64(sr)))
	if hop < 1 {
		hop = 1
	}
	win := int(math.Round(0.04 * float64(sr)))
	if win < hop {
		win = hop
	}
	t := 1
	if n >= win {
		t = 1 + (n-win)/hop
	}
	return Grid{HopSamples: hop, WinSamples: win, T: t}
}

// Features holds the raw (pre-normalization) per-frame feature columns.
type Features struct {
	Env     []float64
	DEnv    []float64
	Flux    []float64
	HFRatio []float64
}

const (
	loBandLo, loBandHi = 20.0, 150.0
	hiBandLo, hiBandHi = 150.0, 400.0
)

// Extract computes the per-frame feature matrix from the raw buffer x and
// its amplitude envelope env (same length as x).
func Extract(x []float32, env []float32, sr int, g Grid) Features {
	f := Features{
		Env:     make([]float64, g.T),
		DEnv:    make([]float64, g.T),
		Flux:    make([]float64, g.T),
		HFRatio: make([]float64, g.T),
	}
	if g.T == 0 {
		return f
	}

	hann := numeric.Hann(g.WinSamples)
	freqs := numeric.RFFTFreqs(g.WinSamples, sr)

	var prevMag []float64
	n := len(x)

	for i := 0; i < g.T; i++ {
		start := i * g.HopSamples
		center := start + g.WinSamples/2
		if center >= len(env) {
			center = len(env) - 1
		}
		if center < 0 {
			center = 0
		}
		if len(env) > 0 {
			f.Env[i] = float64(env[center])
		}

		frame := make([]float64, g.WinSamples)
		for j := 0; j < g.WinSamples; j++ {
			idx := start + j
			if idx < n {
				frame[j] = float64(x[idx])
			}
		}
		mag := numeric.RFFTMag(frame, hann)

		var power float64
		var loE, hiE float64
		for k, fr := range freqs {
			p := mag[k] * mag[k]
			power += p
			if fr >= loBandLo && fr < loBandHi {
				loE += p
			}
			if fr >= hiBandLo && fr <= hiBandHi {
				hiE += p
			}
		}
		f.HFRatio[i] = (hiE + 1e-9) / (loE + 1e-9)

		if prevMag == nil {
			f.Flux[i] = 0
		} else {
			var sumSq float64
			for k := range mag {
				d := mag[k] - prevMag[k]
				sumSq += d * d
			}
			f.Flux[i] = math.Sqrt(sumSq)
		}
		prevMag = mag
	}

	for i := 0; i < g.T; i++ {
		if i == 0 {
			f.DEnv[i] = 0
		} else {
			f.DEnv[i] = f.Env[i] - f.Env[i-1]
		}
	}
	if g.T > 0 {
		f.Flux[0] = 0
	}

	return f
}

// NormalizeColumns z-score-normalizes each of the 4 feature columns,
// clips to [-3,3], then affine-remaps to [0,1]. Returns a T x 4 matrix.
func NormalizeColumns(f Features) [][4]float64 {
	cols := [][]float64{f.Env, f.DEnv, f.Flux, f.HFRatio}
	t := len(f.Env)
	norm := make([][4]float64, t)

	for c, col := range cols {
		mean, std := meanStd(col)
		for i, v := range col {
			z := (v - mean) / (std + 1e-6)
			z = numeric.Clamp(z, -3, 3)
			norm[i][c] = (z + 3) / 6
		}
	}
	return norm
}

func meanStd(x []float64) (mean, std float64) {
	n := len(x)
	if n == 0 {
		return 0, 0
	}
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)
	for _, v := range x {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(n))
	return mean, std
}
