// Package numeric provides the low-level DSP kernels the PCG pipeline is
// built from: polyphase resampling, FFT/window helpers, autocorrelation,
// Welch band power, and a cumulative-sum moving average.
package numeric

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// TargetSampleRate is the fixed analysis rate every buffer is resampled to.
const TargetSampleRate = 2000

// gcd is a plain Euclidean-algorithm loop: a reduced up/down ratio needs
// the greatest common divisor and pulling in a dependency for it has no
// grounding in the examples.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// ntapsPerPhase is the number of taps per polyphase branch of the
// windowed-sinc prototype filter used by Resample; the prototype spans
// ntapsPerPhase input samples in full (ntapsPerPhase*up taps).
const ntapsPerPhase = 16

// Resample converts x from sr Hz to target Hz using a polyphase
// rational resampler: up = target/gcd(target,sr), down = sr/gcd(target,sr).
// Building the prototype filter costs O(ntapsPerPhase * up); the filtering
// loop then runs in O(outN * ntapsPerPhase). sr == target is a pass-through.
func Resample(x []float32, sr, target int) ([]float32, int) {
	if sr <= 0 || len(x) == 0 {
		return append([]float32(nil), x...), target
	}
	if sr == target {
		return append([]float32(nil), x...), sr
	}

	g := gcd(sr, target)
	up := target / g
	down := sr / g

	l := ntapsPerPhase * up
	fc := 1.0 / math.Max(float64(up), float64(down))
	center := float64(l-1) / 2.0

	h := make([]float64, l)
	hw := window.Hann(ones(l))
	for i := 0; i < l; i++ {
		h[i] = sinc(2*fc*(float64(i)-center)) * hw[i]
	}
	// Normalize so the DC gain of the prototype filter is `up` (the
	// zero-stuffing step this filter replaces would otherwise attenuate by up).
	sum := 0.0
	for _, v := range h {
		sum += v
	}
	if sum != 0 {
		scale := float64(up) / sum
		for i := range h {
			h[i] *= scale
		}
	}

	delay := (l / 2)
	// Round delay down to a multiple of up so integer phase arithmetic below
	// lines up with the prototype's center tap.
	delay -= delay % up

	n := len(x)
	outN := int(math.Round(float64(n) * float64(target) / float64(sr)))
	if outN < 0 {
		outN = 0
	}
	y := make([]float32, outN)

	for m := 0; m < outN; m++ {
		base := m*down + delay
		j0 := base % up
		var acc float64
		for p := 0; p < ntapsPerPhase; p++ {
			j := j0 + p*up
			if j >= l {
				break
			}
			idx := base - j
			if idx < 0 || idx%up != 0 {
				continue
			}
			k := idx / up
			if k < 0 || k >= n {
				continue
			}
			acc += h[j] * float64(x[k])
		}
		y[m] = float32(acc)
	}

	return y, target
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// HashBuffer computes the content-addressed hash for a resampled buffer:
// sha256("pcg-2k\0" || little-endian sr (4 bytes) || raw float32 bytes),
// truncated to its first 16 bytes and rendered as 32 lowercase hex digits.
func HashBuffer(sr int, samples []float32) string {
	h := sha256.New()
	h.Write([]byte("pcg-2k\x00"))
	var srBytes [4]byte
	binary.LittleEndian.PutUint32(srBytes[:], uint32(sr))
	h.Write(srBytes[:])
	buf := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Hann returns n Hann window coefficients.
func Hann(n int) []float64 {
	return window.Hann(ones(n))
}

// RFFTMag returns the magnitude spectrum (n/2+1 bins) of a Hann-windowed
// real-valued frame of length n. frame is not modified; the window is
// applied to an internal copy.
func RFFTMag(frame []float64, win []float64) []float64 {
	n := len(frame)
	buf := make([]float64, n)
	for i, v := range frame {
		if i < len(win) {
			buf[i] = v * win[i]
		} else {
			buf[i] = v
		}
	}
	fft := fourier.NewFFT(n)
	coef := fft.Coefficients(nil, buf)
	mag := make([]float64, len(coef))
	for i, c := range coef {
		mag[i] = math.Hypot(real(c), imag(c))
	}
	return mag
}

// RFFTFreqs returns the n/2+1 frequency-bin centers (Hz) for an n-point
// real FFT sampled at sr Hz.
func RFFTFreqs(n, sr int) []float64 {
	m := n/2 + 1
	freqs := make([]float64, m)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sr) / float64(n)
	}
	return freqs
}

// Autocorr computes the (biased) autocorrelation of x restricted to lags
// [0, maxLag], using float64 accumulators. It never materializes the full
// N^2 lag domain.
func Autocorr(x []float32, maxLag int) []float64 {
	n := len(x)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}
	xf := make([]float64, n)
	for i, v := range x {
		xf[i] = float64(v)
	}
	out := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var acc float64
		for i := 0; i+lag < n; i++ {
			acc += xf[i] * xf[i+lag]
		}
		out[lag] = acc
	}
	return out
}

// WelchBandPower estimates the average power of x in [lo, hi) Hz via
// Welch's method: overlapping Hann-windowed frames, summed squared
// magnitude within the band, averaged over frames.
func WelchBandPower(x []float32, sr int, lo, hi float64) float64 {
	n := len(x)
	if n < 64 {
		return 0
	}
	win := 1024
	if n < 2048 {
		win = 128
		for win*2 <= n {
			win *= 2
		}
	}
	if win > n {
		win = n
	}
	hop := win / 2
	if hop < 32 {
		hop = 32
	}
	if hop < 1 {
		hop = 1
	}

	hann := Hann(win)
	freqs := RFFTFreqs(win, sr)

	var total float64
	var frames int
	for start := 0; start+win <= n; start += hop {
		frame := make([]float64, win)
		for i := 0; i < win; i++ {
			frame[i] = float64(x[start+i])
		}
		mag := RFFTMag(frame, hann)
		var bandSum float64
		for i, f := range freqs {
			if f >= lo && f < hi {
				bandSum += mag[i] * mag[i]
			}
		}
		total += bandSum
		frames++
	}
	if frames == 0 {
		return 0
	}
	return total / float64(frames)
}

// MovingAverage returns a same-length moving average of |x| over a window
// of winSamples, computed via a cumulative sum (O(N) total, not O(N*win)).
// Edges are padded by extending the first/last averaged value, matching a
// "same" convolution with edge padding.
func MovingAverage(x []float32, winSamples int) []float32 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if winSamples < 1 {
		winSamples = 1
	}
	if winSamples > n {
		winSamples = n
	}

	abs := make([]float64, n)
	for i, v := range x {
		abs[i] = math.Abs(float64(v))
	}
	cum := make([]float64, n+1)
	for i, v := range abs {
		cum[i+1] = cum[i] + v
	}

	m := n - winSamples + 1
	means := make([]float64, m)
	for i := 0; i < m; i++ {
		means[i] = (cum[i+winSamples] - cum[i]) / float64(winSamples)
	}

	out := make([]float32, n)
	padLeft := winSamples / 2
	for i := 0; i < n; i++ {
		j := i - padLeft
		if j < 0 {
			j = 0
		}
		if j >= m {
			j = m - 1
		}
		out[i] = float32(means[j])
	}
	return out
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
