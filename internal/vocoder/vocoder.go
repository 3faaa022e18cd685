// Package vocoder turns mel-spectrograms into waveforms with a HiFi-GAN
// generator followed by spectral-subtraction denoising.
//
// The same type serves both the base vocoder (acoustic-model mels at the
// native rate) and the super-resolution network (mels recomputed at the
// target rate); a Vocoder only accepts mels carrying its own tag.
package vocoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/nadzzz/glados/internal/audio"
)

// ErrMelMismatch is returned when a mel is handed to the wrong vocoder.
var ErrMelMismatch = errors.New("mel does not match vocoder")

// DefaultDenoiserStrength is the bias multiplier applied by Vocode.
const DefaultDenoiserStrength = 35

// Generator evaluates the HiFi-GAN network. The returned samples are in
// [-1, 1] at the generator's rate.
type Generator interface {
	Generate(ctx context.Context, mel *audio.Mel) ([]float64, error)
}

// Vocoder pairs a generator with the denoiser measured from it.
type Vocoder struct {
	Tag      audio.MelTag
	Config   Config
	Gen      Generator
	Denoiser *Denoiser
	Strength float64
}

// New builds a vocoder and measures its denoiser bias.
func New(ctx context.Context, tag audio.MelTag, cfg Config, gen Generator) (*Vocoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := NewDenoiser(ctx, gen, tag, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s vocoder: %w", tag, err)
	}
	return &Vocoder{
		Tag:      tag,
		Config:   cfg,
		Gen:      gen,
		Denoiser: d,
		Strength: DefaultDenoiserStrength,
	}, nil
}

// SampleRate is the rate of the produced waveform.
func (v *Vocoder) SampleRate() int { return v.Config.SamplingRate }

// Vocode generates audio for mel, scales it to full scale and denoises it.
func (v *Vocoder) Vocode(ctx context.Context, mel *audio.Mel) (*audio.Waveform, error) {
	if mel == nil {
		return nil, fmt.Errorf("%w: nil mel", ErrMelMismatch)
	}
	if mel.Tag != v.Tag {
		return nil, fmt.Errorf("%w: %s mel given to %s vocoder", ErrMelMismatch, mel.Tag, v.Tag)
	}
	if mel.Bins != v.Config.NumMels {
		return nil, fmt.Errorf("%w: %d mel channels, vocoder expects %d", ErrMelMismatch, mel.Bins, v.Config.NumMels)
	}

	samples, err := v.Gen.Generate(ctx, mel)
	if err != nil {
		return nil, fmt.Errorf("%s vocoder: %w", v.Tag, err)
	}
	for i := range samples {
		samples[i] *= audio.MaxWavValue
	}
	if v.Denoiser != nil {
		samples = v.Denoiser.Denoise(samples, v.Strength)
	}

	return &audio.Waveform{
		Samples:    samples,
		SampleRate: v.Config.SamplingRate,
		Scale:      audio.ScaleFull,
	}, nil
}
