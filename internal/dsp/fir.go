package dsp

import (
	"fmt"
	"math"
)

// FirWin designs a linear-phase FIR filter with a Hamming window and a
// single cutoff in Hz. With passZero false the filter is a high-pass, which
// requires an odd tap count. Coefficients are scaled to unity gain at DC for
// a low-pass and at Nyquist for a high-pass.
func FirWin(numTaps int, cutoff, fs float64, passZero bool) ([]float64, error) {
	nyq := fs / 2
	if numTaps <= 0 {
		return nil, fmt.Errorf("%w: taps=%d", ErrInvalidParams, numTaps)
	}
	if cutoff <= 0 || cutoff >= nyq {
		return nil, fmt.Errorf("%w: cutoff %g Hz outside (0, %g)", ErrInvalidParams, cutoff, nyq)
	}
	if !passZero && numTaps%2 == 0 {
		return nil, fmt.Errorf("%w: high-pass filter needs an odd tap count, got %d", ErrInvalidParams, numTaps)
	}

	c := cutoff / nyq
	left, right := 0.0, c
	if !passZero {
		left, right = c, 1
	}

	alpha := 0.5 * float64(numTaps-1)
	win := Hamming(numTaps, false)
	h := make([]float64, numTaps)
	for i := range h {
		m := float64(i) - alpha
		h[i] = (right*Sinc(right*m) - left*Sinc(left*m)) * win[i]
	}

	// Normalize at DC for a low-pass, at Nyquist for a high-pass.
	scaleFreq := 0.0
	if left != 0 {
		scaleFreq = 1
	}
	var s float64
	for i, v := range h {
		s += v * math.Cos(math.Pi*(float64(i)-alpha)*scaleFreq)
	}
	for i := range h {
		h[i] /= s
	}
	return h, nil
}

// LFilter applies the FIR filter b to x causally with zero initial state;
// the output has the same length as x.
func LFilter(b, x []float64) []float64 {
	y := make([]float64, len(x))
	for n := range x {
		var acc float64
		for k, bk := range b {
			if n-k < 0 {
				break
			}
			acc += bk * x[n-k]
		}
		y[n] = acc
	}
	return y
}

// FrequencyResponse returns |H(f)| of an FIR filter at frequency f Hz.
func FrequencyResponse(b []float64, f, fs float64) float64 {
	w := 2 * math.Pi * f / fs
	var re, im float64
	for k, bk := range b {
		re += bk * math.Cos(w*float64(k))
		im -= bk * math.Sin(w*float64(k))
	}
	return math.Hypot(re, im)
}
