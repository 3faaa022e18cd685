// Package dsp holds the signal-processing primitives used by the synthesis
// stages: analysis windows, STFT/ISTFT, the mel filterbank, FIR design and
// filtering, and windowed-sinc sample-rate conversion.
package dsp

import "math"

// Hann returns a Hann window of length n. A periodic window (the STFT
// convention) has period n; a symmetric one has its last sample equal to
// its first.
func Hann(n int, periodic bool) []float64 {
	return cosineWindow(n, periodic, 0.5, 0.5)
}

// Hamming returns a Hamming window of length n.
func Hamming(n int, periodic bool) []float64 {
	return cosineWindow(n, periodic, 0.54, 0.46)
}

func cosineWindow(n int, periodic bool, a0, a1 float64) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	denom := float64(n - 1)
	if periodic {
		denom = float64(n)
	}
	for i := range w {
		w[i] = a0 - a1*math.Cos(2*math.Pi*float64(i)/denom)
	}
	return w
}

// padCenter zero-pads w symmetrically to length n.
func padCenter(w []float64, n int) []float64 {
	if len(w) >= n {
		return w
	}
	out := make([]float64, n)
	copy(out[(n-len(w))/2:], w)
	return out
}

// Sinc is the normalized sinc function sin(pi x)/(pi x).
func Sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
