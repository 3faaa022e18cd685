package dsp

import (
	"fmt"
	"math"
)

const (
	// DefaultZeroCrossings is the half-width of the interpolation kernel
	// in zero crossings.
	DefaultZeroCrossings = 8
	// DefaultRolloff places the kernel cutoff just below Nyquist.
	DefaultRolloff = 0.945
)

// ResampleOpts configures the windowed-sinc resampler.
type ResampleOpts struct {
	ZeroCrossings int
	Rolloff       float64
}

func (o ResampleOpts) withDefaults() ResampleOpts {
	if o.ZeroCrossings <= 0 {
		o.ZeroCrossings = DefaultZeroCrossings
	}
	if o.Rolloff <= 0 || o.Rolloff > 1 {
		o.Rolloff = DefaultRolloff
	}
	return o
}

// ResampledLength returns floor(n * to / from).
func ResampledLength(n, from, to int) int {
	return int(int64(n) * int64(to) / int64(from))
}

// Resample converts x from rate `from` to rate `to` by band-limited
// interpolation with a Hann-windowed sinc kernel. When downsampling the
// kernel is stretched so its cutoff tracks the output Nyquist.
func Resample(x []float64, from, to int, opts ResampleOpts) ([]float64, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("%w: sample rates from=%d to=%d", ErrInvalidParams, from, to)
	}
	if from == to {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}
	opts = opts.withDefaults()

	ratio := float64(to) / float64(from)
	scale := math.Min(1, ratio)
	zeros := float64(opts.ZeroCrossings)
	reach := zeros / scale // kernel half-width in input samples

	n := ResampledLength(len(x), from, to)
	out := make([]float64, n)
	for i := range out {
		tau := float64(i) / ratio
		lo := int(math.Ceil(tau - reach))
		hi := int(math.Floor(tau + reach))
		if lo < 0 {
			lo = 0
		}
		if hi > len(x)-1 {
			hi = len(x) - 1
		}
		var acc float64
		for j := lo; j <= hi; j++ {
			acc += x[j] * sincKernel(scale*math.Abs(tau-float64(j)), zeros, opts.Rolloff)
		}
		out[i] = acc * scale
	}
	return out, nil
}

// sincKernel evaluates the tapered interpolation kernel at distance u
// (in zero crossings) from its center.
func sincKernel(u, zeros, rolloff float64) float64 {
	if u > zeros {
		return 0
	}
	taper := 0.5 + 0.5*math.Cos(math.Pi*u/zeros)
	return rolloff * Sinc(rolloff*u) * taper
}
