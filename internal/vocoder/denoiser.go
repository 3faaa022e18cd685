package vocoder

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/dsp"
)

// Denoiser STFT geometry and the length of the noise probe.
const (
	denoiserFilterLength = 1024
	denoiserHop          = 256
	denoiserWinLength    = 1024
	biasFrames           = 88
)

// Denoiser removes the generator's characteristic hiss by spectral
// subtraction of a bias spectrum measured once at construction.
type Denoiser struct {
	stft *dsp.STFT
	bias []float64
}

// NewDenoiser measures the bias spectrum: the magnitude of the first STFT
// frame of what gen produces for a seeded standard-normal mel.
func NewDenoiser(ctx context.Context, gen Generator, tag audio.MelTag, cfg Config) (*Denoiser, error) {
	stft, err := dsp.NewSTFT(denoiserFilterLength, denoiserHop, denoiserWinLength)
	if err != nil {
		return nil, err
	}

	seed := uint64(cfg.Seed)
	rng := rand.New(rand.NewPCG(seed, seed))
	probe := audio.NewMel(tag, cfg.NumMels, biasFrames)
	for i := range probe.Data {
		probe.Data[i] = float32(rng.NormFloat64())
	}

	out, err := gen.Generate(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("denoiser bias: %w", err)
	}
	frames := stft.Forward(out, denoiserFilterLength/2)
	if len(frames) == 0 {
		return nil, fmt.Errorf("denoiser bias: generator produced %d samples", len(out))
	}
	mag, _ := dsp.MagnitudePhase(frames[:1])
	return &Denoiser{stft: stft, bias: mag[0]}, nil
}

// NewDenoiserWithBias builds a denoiser from a known bias spectrum of
// length filterLength/2+1.
func NewDenoiserWithBias(bias []float64) (*Denoiser, error) {
	stft, err := dsp.NewSTFT(denoiserFilterLength, denoiserHop, denoiserWinLength)
	if err != nil {
		return nil, err
	}
	if len(bias) != stft.Bins() {
		return nil, fmt.Errorf("denoiser bias has %d bins, want %d", len(bias), stft.Bins())
	}
	return &Denoiser{stft: stft, bias: append([]float64(nil), bias...)}, nil
}

// Bias returns a copy of the bias spectrum.
func (d *Denoiser) Bias() []float64 {
	return append([]float64(nil), d.bias...)
}

// Denoise subtracts strength times the bias from every frame's magnitude,
// clamps at zero and resynthesizes with the original phase. The output has
// the same length as x.
func (d *Denoiser) Denoise(x []float64, strength float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	pad := denoiserFilterLength / 2
	mag, phase := dsp.MagnitudePhase(d.stft.Forward(x, pad))
	for _, frame := range mag {
		for k := range frame {
			v := frame[k] - strength*d.bias[k]
			if v < 0 {
				v = 0
			}
			frame[k] = v
		}
	}
	y := d.stft.Inverse(dsp.Polar(mag, phase), pad)
	return audio.FitFloats(y, len(x))
}
