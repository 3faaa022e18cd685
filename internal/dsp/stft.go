package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrInvalidParams is returned when transform parameters are inconsistent.
var ErrInvalidParams = errors.New("invalid dsp parameters")

// tinyFloat32 is the smallest normal float32; overlap-add positions whose
// window energy falls below it are left unnormalized.
const tinyFloat32 = 1.1754944e-38

// STFT is a short-time Fourier transform with a periodic Hann window
// zero-padded to the FFT size.
type STFT struct {
	NFFT int
	Hop  int
	Win  int

	window []float64
	fft    *fourier.FFT
}

// NewSTFT validates the parameters and precomputes the window.
func NewSTFT(nfft, hop, win int) (*STFT, error) {
	if nfft <= 0 || hop <= 0 || win <= 0 || win > nfft {
		return nil, fmt.Errorf("%w: n_fft=%d hop=%d win=%d", ErrInvalidParams, nfft, hop, win)
	}
	return &STFT{
		NFFT:   nfft,
		Hop:    hop,
		Win:    win,
		window: padCenter(Hann(win, true), nfft),
		fft:    fourier.NewFFT(nfft),
	}, nil
}

// Bins returns the number of one-sided frequency bins.
func (s *STFT) Bins() int { return s.NFFT/2 + 1 }

// Forward reflect-pads x by pad samples on each side and returns one
// one-sided spectrum per hop. Frames that would run past the padded signal
// are not produced.
func (s *STFT) Forward(x []float64, pad int) [][]complex128 {
	padded := reflectPad(x, pad)
	if len(padded) < s.NFFT {
		return nil
	}
	n := 1 + (len(padded)-s.NFFT)/s.Hop
	frames := make([][]complex128, n)
	buf := make([]float64, s.NFFT)
	for t := 0; t < n; t++ {
		seg := padded[t*s.Hop : t*s.Hop+s.NFFT]
		for i := range buf {
			buf[i] = seg[i] * s.window[i]
		}
		frames[t] = s.fft.Coefficients(nil, buf)
	}
	return frames
}

// Inverse overlap-adds the inverse transforms of frames, normalizes by the
// summed squared window and trims trim samples from both ends.
func (s *STFT) Inverse(frames [][]complex128, trim int) []float64 {
	if len(frames) == 0 {
		return nil
	}
	total := s.NFFT + s.Hop*(len(frames)-1)
	out := make([]float64, total)
	wss := make([]float64, total)
	seq := make([]float64, s.NFFT)
	scale := 1 / float64(s.NFFT)

	for t, coeff := range frames {
		s.fft.Sequence(seq, coeff)
		off := t * s.Hop
		for i, v := range seq {
			w := s.window[i]
			out[off+i] += v * scale * w
			wss[off+i] += w * w
		}
	}
	for i := range out {
		if wss[i] > tinyFloat32 {
			out[i] /= wss[i]
		}
	}

	if 2*trim >= len(out) {
		return []float64{}
	}
	return out[trim : len(out)-trim]
}

// MagnitudePhase splits complex frames into magnitude and phase.
func MagnitudePhase(frames [][]complex128) (mag, phase [][]float64) {
	mag = make([][]float64, len(frames))
	phase = make([][]float64, len(frames))
	for t, f := range frames {
		mag[t] = make([]float64, len(f))
		phase[t] = make([]float64, len(f))
		for k, c := range f {
			mag[t][k] = cmplx.Abs(c)
			phase[t][k] = cmplx.Phase(c)
		}
	}
	return mag, phase
}

// Polar rebuilds complex frames from magnitude and phase.
func Polar(mag, phase [][]float64) [][]complex128 {
	frames := make([][]complex128, len(mag))
	for t := range mag {
		frames[t] = make([]complex128, len(mag[t]))
		for k := range mag[t] {
			frames[t][k] = cmplx.Rect(mag[t][k], phase[t][k])
		}
	}
	return frames
}

// reflectPad mirrors x about its end samples without repeating them.
// Signals shorter than pad are mirrored repeatedly.
func reflectPad(x []float64, pad int) []float64 {
	n := len(x)
	if pad <= 0 || n == 0 {
		return x
	}
	out := make([]float64, n+2*pad)
	for i := range out {
		out[i] = x[mirror(i-pad, n)]
	}
	return out
}

func mirror(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = int(math.Abs(float64(i))) % period
	if i >= n {
		i = period - i
	}
	return i
}
