package analysis

import (
	"math"

	"github.com/gvasels/pcg-analyzer/internal/frames"
	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/numeric"
)

// spectralFeatures computes whole-buffer time- and frequency-domain
// diagnostics on the same hop/window grid the segmenter uses, averaging
// the per-frame magnitude spectra into a single Welch-style periodogram.
func spectralFeatures(y []float32, sr int) *models.SpectralFeatureReport {
	n := len(y)
	if n == 0 {
		return &models.SpectralFeatureReport{}
	}

	var sumSq float64
	var peak float64
	var zc int
	for i, v := range y {
		f := float64(v)
		sumSq += f * f
		if math.Abs(f) > peak {
			peak = math.Abs(f)
		}
		if i > 0 && ((y[i-1] >= 0) != (v >= 0)) {
			zc++
		}
	}
	rms := math.Sqrt(sumSq / float64(n))
	zcr := float64(zc) / float64(n)
	crest := 0.0
	if rms > 0 {
		crest = peak / rms
	}

	g := frames.NewGrid(n, sr)
	hann := numeric.Hann(g.WinSamples)
	freqs := numeric.RFFTFreqs(g.WinSamples, sr)

	avgMag := make([]float64, len(freqs))
	var fluxSum float64
	var prevMag []float64
	frameCount := 0

	for i := 0; i < g.T; i++ {
		start := i * g.HopSamples
		frame := make([]float64, g.WinSamples)
		for j := 0; j < g.WinSamples; j++ {
			idx := start + j
			if idx < n {
				frame[j] = float64(y[idx])
			}
		}
		mag := numeric.RFFTMag(frame, hann)
		for k, v := range mag {
			avgMag[k] += v
		}
		if prevMag != nil {
			var d float64
			for k := range mag {
				diff := mag[k] - prevMag[k]
				d += diff * diff
			}
			fluxSum += math.Sqrt(d)
		}
		prevMag = mag
		frameCount++
	}

	if frameCount > 0 {
		for k := range avgMag {
			avgMag[k] /= float64(frameCount)
		}
	}
	flux := 0.0
	if frameCount > 1 {
		flux = fluxSum / float64(frameCount-1)
	}

	centroid, bandwidth, rolloff95, flatness := spectrumStats(freqs, avgMag)

	return &models.SpectralFeatureReport{
		RMS:               rms,
		ZeroCrossingRate:  zcr,
		SpectralCentroid:  centroid,
		SpectralBandwidth: bandwidth,
		Rolloff95:         rolloff95,
		SpectralFlatness:  flatness,
		SpectralFlux:      flux,
		Peak:              peak,
		CrestFactor:       crest,
	}
}

// spectrumStats derives centroid, bandwidth, 95%-energy rolloff, and
// flatness (geometric mean over arithmetic mean) from a magnitude
// spectrum and its bin frequencies.
func spectrumStats(freqs, mag []float64) (centroid, bandwidth, rolloff95, flatness float64) {
	var totalPower, weighted float64
	power := make([]float64, len(mag))
	for i, m := range mag {
		p := m * m
		power[i] = p
		totalPower += p
		weighted += p * freqs[i]
	}
	if totalPower <= 0 {
		return 0, 0, 0, 0
	}
	centroid = weighted / totalPower

	var varSum float64
	for i, p := range power {
		d := freqs[i] - centroid
		varSum += p * d * d
	}
	bandwidth = math.Sqrt(varSum / totalPower)

	target := 0.95 * totalPower
	var cum float64
	rolloff95 = freqs[len(freqs)-1]
	for i, p := range power {
		cum += p
		if cum >= target {
			rolloff95 = freqs[i]
			break
		}
	}

	var logSum float64
	var arithSum float64
	count := 0
	for _, m := range mag {
		if m <= 1e-12 {
			continue
		}
		logSum += math.Log(m)
		arithSum += m
		count++
	}
	if count > 0 && arithSum > 0 {
		geoMean := math.Exp(logSum / float64(count))
		arithMean := arithSum / float64(count)
		flatness = geoMean / arithMean
	}
	return centroid, bandwidth, rolloff95, flatness
}
