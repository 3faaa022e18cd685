package synth

import (
	"context"
	"fmt"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/dsp"
	"github.com/nadzzz/glados/internal/vocoder"
)

// Refiner re-vocodes the resampled signal with the super-resolution network
// to recover high-frequency detail.
type Refiner struct {
	Vocoder *vocoder.Vocoder
}

// Refine recomputes the mel of a unit-scale signal at the super-resolution
// rate and vocodes it. The result is full scale and is not loudness
// normalized.
func (r *Refiner) Refine(ctx context.Context, unit *audio.Waveform) (*audio.Waveform, error) {
	if unit.SampleRate != r.Vocoder.SampleRate() {
		return nil, fmt.Errorf("refine: signal at %d Hz, super-resolution vocoder runs at %d Hz", unit.SampleRate, r.Vocoder.SampleRate())
	}
	mel, err := dsp.MelSpectrogram(unit.Samples, r.Vocoder.Config.MelConfig(), audio.MelRefined)
	if err != nil {
		return nil, fmt.Errorf("refine: %w", err)
	}
	if mel.Frames == 0 {
		return &audio.Waveform{SampleRate: unit.SampleRate, Scale: audio.ScaleFull}, nil
	}
	return r.Vocoder.Vocode(ctx, mel)
}
