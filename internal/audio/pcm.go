package audio

import "math"

// Quantize converts a float sample to int16 by truncating toward zero and
// saturating at the int16 range. NaN maps to 0.
func Quantize(x float64) int16 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= math.MaxInt16:
		return math.MaxInt16
	case x <= math.MinInt16:
		return math.MinInt16
	}
	return int16(x)
}

// QuantizeAll applies Quantize to every sample.
func QuantizeAll(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		out[i] = Quantize(v)
	}
	return out
}

// Floats widens a PCM buffer to float64 without rescaling.
func (p *PCM) Floats() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = float64(s)
	}
	return out
}

// FitLength returns x zero-padded or truncated to exactly n samples.
func FitLength(x []int16, n int) []int16 {
	out := make([]int16, n)
	copy(out, x)
	return out
}

// FitFloats is FitLength for float signals.
func FitFloats(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)
	return out
}
