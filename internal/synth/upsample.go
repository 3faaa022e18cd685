package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/dsp"
)

// ErrDegenerateSignal marks a base waveform with zero peak. It is reported
// but never fatal: the utterance continues with unit gain.
var ErrDegenerateSignal = errors.New("degenerate signal: zero peak")

// DefaultGainExponent damps peak normalization so quiet lines are lifted
// less than fully.
const DefaultGainExponent = 0.9

// UpsampleOptions tunes normalization and resampling.
type UpsampleOptions struct {
	GainExponent  float64
	ZeroCrossings int
	Rolloff       float64
}

func (o UpsampleOptions) withDefaults() UpsampleOptions {
	if o.GainExponent <= 0 {
		o.GainExponent = DefaultGainExponent
	}
	if o.ZeroCrossings <= 0 {
		o.ZeroCrossings = dsp.DefaultZeroCrossings
	}
	if o.Rolloff <= 0 {
		o.Rolloff = dsp.DefaultRolloff
	}
	return o
}

// Upsampled is the output of the normalization and resampling stage.
type Upsampled struct {
	// Coarse is the normalized, resampled signal quantized to int16.
	Coarse *audio.PCM

	// Unit is the same signal before quantization, divided by MaxWavValue,
	// for mel recomputation.
	Unit *audio.Waveform

	// Gain is the normalization factor the mixer divides back out.
	Gain audio.Gain
}

// ComputeGain returns (MaxWavValue/peak)^exponent, capped so that the
// scaled peak stays within the int16 range. A zero (or non-finite) peak
// yields unit gain marked degenerate.
func ComputeGain(peak, exponent float64) audio.Gain {
	if peak <= 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return audio.Gain{Value: 1, Peak: peak, Degenerate: true}
	}
	g := math.Pow(audio.MaxWavValue/peak, exponent)
	if limit := math.MaxInt16 / peak; g > limit {
		g = limit
	}
	return audio.Gain{Value: g, Peak: peak}
}

// Upsample normalizes w by its damped peak gain and resamples it to
// targetRate.
func Upsample(w *audio.Waveform, targetRate int, opts UpsampleOptions) (*Upsampled, error) {
	if w == nil || w.SampleRate <= 0 {
		return nil, fmt.Errorf("upsample: waveform has no sample rate")
	}
	if targetRate <= 0 {
		return nil, fmt.Errorf("upsample: invalid target rate %d", targetRate)
	}
	opts = opts.withDefaults()

	gain := ComputeGain(w.Peak(), opts.GainExponent)
	scaled := make([]float64, len(w.Samples))
	for i, v := range w.Samples {
		scaled[i] = v * gain.Value
	}

	resampled, err := dsp.Resample(scaled, w.SampleRate, targetRate, dsp.ResampleOpts{
		ZeroCrossings: opts.ZeroCrossings,
		Rolloff:       opts.Rolloff,
	})
	if err != nil {
		return nil, fmt.Errorf("upsample: %w", err)
	}

	unit := make([]float64, len(resampled))
	for i, v := range resampled {
		unit[i] = v / audio.MaxWavValue
	}

	return &Upsampled{
		Coarse: &audio.PCM{Samples: audio.QuantizeAll(resampled), SampleRate: targetRate},
		Unit:   &audio.Waveform{Samples: unit, SampleRate: targetRate, Scale: audio.ScaleUnit},
		Gain:   gain,
	}, nil
}
