package synth

import (
	"fmt"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/dsp"
)

// Mixer defaults.
const (
	DefaultHighpassCutoff   = 10500.0
	DefaultHighpassTaps     = 101
	DefaultSuperResStrength = 10.0
)

// Mixer adds the high-passed refinement signal onto the coarse signal and
// undoes the normalization gain.
type Mixer struct {
	SampleRate int
	Strength   float64

	taps []float64
}

// NewMixer designs the high-pass filter for sampleRate.
func NewMixer(sampleRate int, cutoff float64, numTaps int, strength float64) (*Mixer, error) {
	taps, err := dsp.FirWin(numTaps, cutoff, float64(sampleRate), false)
	if err != nil {
		return nil, fmt.Errorf("mixer high-pass: %w", err)
	}
	return &Mixer{SampleRate: sampleRate, Strength: strength, taps: taps}, nil
}

// Taps returns a copy of the high-pass filter coefficients.
func (m *Mixer) Taps() []float64 {
	return append([]float64(nil), m.taps...)
}

// Mix returns (coarse + quantize(strength * highpass(refinement))) / gain,
// requantized. The refinement is zero-padded or truncated to the coarse
// length; a nil refinement contributes nothing.
func (m *Mixer) Mix(coarse *audio.PCM, refinement *audio.Waveform, gain audio.Gain) (*audio.PCM, error) {
	if coarse == nil {
		return nil, fmt.Errorf("mix: nil coarse buffer")
	}
	if coarse.SampleRate != m.SampleRate {
		return nil, fmt.Errorf("mix: coarse rate %d, mixer designed for %d", coarse.SampleRate, m.SampleRate)
	}

	var detail []int16
	if refinement != nil {
		if refinement.SampleRate != m.SampleRate {
			return nil, fmt.Errorf("mix: refinement rate %d, mixer designed for %d", refinement.SampleRate, m.SampleRate)
		}
		filtered := dsp.LFilter(m.taps, refinement.Samples)
		for i := range filtered {
			filtered[i] *= m.Strength
		}
		detail = audio.QuantizeAll(filtered)
	}
	detail = audio.FitLength(detail, coarse.Len())

	g := gain.Value
	if g <= 0 {
		g = 1
	}
	out := make([]int16, coarse.Len())
	for i, c := range coarse.Samples {
		out[i] = audio.Quantize((float64(c) + float64(detail[i])) / g)
	}
	return &audio.PCM{Samples: out, SampleRate: coarse.SampleRate}, nil
}
