package dsp

import (
	"fmt"
	"math"

	"github.com/nadzzz/glados/internal/audio"
)

const (
	// magnitudeEps keeps sqrt away from zero when taking STFT magnitudes.
	magnitudeEps = 1e-9
	// logClamp is the floor applied before the natural log.
	logClamp = 1e-5
)

// MelConfig describes how a mel-spectrogram is computed.
type MelConfig struct {
	SampleRate int
	NFFT       int
	NumMels    int
	HopSize    int
	WinSize    int
	Fmin       float64
	// Fmax is the upper edge of the filterbank; zero or negative means Nyquist.
	Fmax float64
}

// Validate reports inconsistent parameters.
func (c MelConfig) Validate() error {
	if c.SampleRate <= 0 || c.NumMels <= 0 {
		return fmt.Errorf("%w: sample_rate=%d num_mels=%d", ErrInvalidParams, c.SampleRate, c.NumMels)
	}
	if c.Fmin < 0 || (c.Fmax > 0 && c.Fmax <= c.Fmin) {
		return fmt.Errorf("%w: fmin=%g fmax=%g", ErrInvalidParams, c.Fmin, c.Fmax)
	}
	if _, err := NewSTFT(c.NFFT, c.HopSize, c.WinSize); err != nil {
		return err
	}
	return nil
}

func (c MelConfig) fmax() float64 {
	if c.Fmax <= 0 {
		return float64(c.SampleRate) / 2
	}
	return c.Fmax
}

// MelSpectrogram computes the log-mel spectrogram of a unit-scale signal:
// reflect padding of (n_fft-hop)/2, Hann-windowed STFT without centering,
// magnitude, Slaney mel projection and log of the values clamped at 1e-5.
func MelSpectrogram(x []float64, cfg MelConfig, tag audio.MelTag) (*audio.Mel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stft, err := NewSTFT(cfg.NFFT, cfg.HopSize, cfg.WinSize)
	if err != nil {
		return nil, err
	}

	frames := stft.Forward(x, (cfg.NFFT-cfg.HopSize)/2)
	basis := MelFilterbank(cfg.SampleRate, cfg.NFFT, cfg.NumMels, cfg.Fmin, cfg.fmax())

	mel := audio.NewMel(tag, cfg.NumMels, len(frames))
	mel.SampleRate = cfg.SampleRate
	mel.NFFT = cfg.NFFT
	mel.HopSize = cfg.HopSize
	mel.WinSize = cfg.WinSize
	mel.Fmin = cfg.Fmin
	mel.Fmax = cfg.fmax()

	mag := make([]float64, stft.Bins())
	for t, f := range frames {
		for k, c := range f {
			mag[k] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c) + magnitudeEps)
		}
		for m, row := range basis {
			var acc float64
			for k, w := range row {
				acc += w * mag[k]
			}
			mel.Set(m, t, float32(math.Log(math.Max(acc, logClamp))))
		}
	}
	return mel, nil
}

// MelFilterbank builds Slaney-style triangular filters with area
// normalization, one row per mel band over n_fft/2+1 FFT bins.
func MelFilterbank(sampleRate, nfft, nMels int, fmin, fmax float64) [][]float64 {
	nBins := nfft/2 + 1
	fftFreqs := make([]float64, nBins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}

	minMel := hzToMel(fmin)
	maxMel := hzToMel(fmax)
	melF := make([]float64, nMels+2)
	for i := range melF {
		melF[i] = melToHz(minMel + (maxMel-minMel)*float64(i)/float64(nMels+1))
	}

	weights := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		row := make([]float64, nBins)
		lowDiff := melF[m+1] - melF[m]
		highDiff := melF[m+2] - melF[m+1]
		enorm := 2 / (melF[m+2] - melF[m])
		for k, f := range fftFreqs {
			lower := (f - melF[m]) / lowDiff
			upper := (melF[m+2] - f) / highDiff
			if v := math.Min(lower, upper); v > 0 {
				row[k] = v * enorm
			}
		}
		weights[m] = row
	}
	return weights
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(f float64) float64 {
	if f >= melMinLogHz {
		return melMinLogMel + math.Log(f/melMinLogHz)/melLogStep
	}
	return f / melFSp
}

func melToHz(m float64) float64 {
	if m >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(m-melMinLogMel))
	}
	return m * melFSp
}
