package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/nadzzz/glados/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, rate int, freq, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return x
}

func peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func TestHann(t *testing.T) {
	sym := Hann(5, false)
	assert.InDelta(t, 0, sym[0], 1e-12)
	assert.InDelta(t, 1, sym[2], 1e-12)
	assert.InDelta(t, 0, sym[4], 1e-12)

	per := Hann(4, true)
	assert.InDelta(t, 0, per[0], 1e-12)
	assert.InDelta(t, 1, per[2], 1e-12)
	assert.InDelta(t, 0.5, per[3], 1e-12)

	assert.Equal(t, []float64{1}, Hann(1, true))
}

func TestFirWinHighPass(t *testing.T) {
	const fs = 32000.0
	b, err := FirWin(101, 10500, fs, false)
	require.NoError(t, err)
	require.Len(t, b, 101)

	for i := 0; i < len(b)/2; i++ {
		assert.InDelta(t, b[i], b[len(b)-1-i], 1e-12, "tap %d not symmetric", i)
	}

	assert.InDelta(t, 1, FrequencyResponse(b, fs/2, fs), 1e-9, "unity gain at Nyquist")
	assert.Less(t, FrequencyResponse(b, 0, fs), 0.01, "DC rejected")
	assert.Less(t, FrequencyResponse(b, 4000, fs), 0.01, "speech band rejected")
	assert.Greater(t, FrequencyResponse(b, 14000, fs), 0.95, "pass band kept")
}

func TestFirWinLowPass(t *testing.T) {
	b, err := FirWin(64, 1000, 16000, true)
	require.NoError(t, err)
	assert.InDelta(t, 1, FrequencyResponse(b, 0, 16000), 1e-9)
}

func TestFirWinInvalid(t *testing.T) {
	tests := []struct {
		name     string
		taps     int
		cutoff   float64
		passZero bool
	}{
		{"even high-pass", 100, 10500, false},
		{"zero taps", 0, 10500, false},
		{"cutoff above nyquist", 101, 17000, false},
		{"zero cutoff", 101, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FirWin(tt.taps, tt.cutoff, 32000, tt.passZero)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestLFilter(t *testing.T) {
	b := []float64{0.5, 0.25, 0.125}
	impulse := []float64{1, 0, 0, 0, 0}
	assert.Equal(t, []float64{0.5, 0.25, 0.125, 0, 0}, LFilter(b, impulse))

	short := LFilter(b, []float64{1, 1})
	assert.Equal(t, []float64{0.5, 0.75}, short)
}

func TestResampleLength(t *testing.T) {
	x := make([]float64, 22050)
	y, err := Resample(x, 22050, 32000, ResampleOpts{})
	require.NoError(t, err)
	assert.Len(t, y, 32000)
	assert.Equal(t, 1451, ResampledLength(1000, 22050, 32000))
}

func TestResampleSameRateCopies(t *testing.T) {
	x := []float64{1, 2, 3}
	y, err := Resample(x, 16000, 16000, ResampleOpts{})
	require.NoError(t, err)
	assert.Equal(t, x, y)
	y[0] = 9
	assert.Equal(t, 1.0, x[0])
}

func TestResampleInvalidRates(t *testing.T) {
	_, err := Resample([]float64{1}, 0, 32000, ResampleOpts{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestResamplePreservesPeak(t *testing.T) {
	const amp = 20000.0
	x := sine(22050, 22050, 440, amp)

	up, err := Resample(x, 22050, 32000, ResampleOpts{ZeroCrossings: 8})
	require.NoError(t, err)
	// Ignore the kernel-length edges.
	mid := up[1000 : len(up)-1000]
	assert.InEpsilon(t, amp, peak(mid), 0.05)

	down, err := Resample(up, 32000, 22050, ResampleOpts{ZeroCrossings: 8})
	require.NoError(t, err)
	assert.InEpsilon(t, amp, peak(down[1000:len(down)-1000]), 0.05)
}

func TestResampleRejectsAboveNyquistWhenDownsampling(t *testing.T) {
	// 15 kHz cannot survive a 32 kHz -> 22.05 kHz conversion.
	x := sine(32000, 32000, 15000, 1)
	y, err := Resample(x, 32000, 22050, ResampleOpts{})
	require.NoError(t, err)
	assert.Less(t, peak(y[500:len(y)-500]), 0.1)
}

func TestSTFTRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, 4096)
	for i := range x {
		x[i] = rng.Float64()*2 - 1
	}

	s, err := NewSTFT(1024, 256, 1024)
	require.NoError(t, err)
	frames := s.Forward(x, 512)
	require.Len(t, frames, 17)
	assert.Len(t, frames[0], 513)

	y := s.Inverse(frames, 512)
	require.Len(t, y, len(x))
	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-9, "sample %d", i)
	}
}

func TestSTFTPolarRoundTrip(t *testing.T) {
	s, err := NewSTFT(512, 128, 512)
	require.NoError(t, err)
	x := sine(2048, 16000, 300, 0.5)

	mag, phase := MagnitudePhase(s.Forward(x, 256))
	y := s.Inverse(Polar(mag, phase), 256)
	require.Len(t, y, len(x))
	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-9)
	}
}

func TestNewSTFTInvalid(t *testing.T) {
	_, err := NewSTFT(512, 0, 512)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewSTFT(512, 128, 1024)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestReflectPad(t *testing.T) {
	assert.Equal(t, []float64{3, 2, 1, 2, 3, 4, 3, 2}, reflectPad([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{5, 5, 5}, reflectPad([]float64{5}, 1))
}

func TestMelFilterbank(t *testing.T) {
	fb := MelFilterbank(22050, 1024, 80, 0, 8000)
	require.Len(t, fb, 80)
	for m, row := range fb {
		require.Len(t, row, 513)
		var sum float64
		for _, w := range row {
			assert.GreaterOrEqual(t, w, 0.0)
			sum += w
		}
		assert.Greater(t, sum, 0.0, "band %d is empty", m)
	}
	// Nothing above fmax.
	for _, row := range fb {
		assert.Zero(t, row[len(row)-1])
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 440, 1000, 4000, 11025} {
		assert.InDelta(t, f, melToHz(hzToMel(f)), 1e-6)
	}
}

func TestMelSpectrogram(t *testing.T) {
	cfg := MelConfig{SampleRate: 22050, NFFT: 1024, NumMels: 80, HopSize: 256, WinSize: 1024, Fmin: 0, Fmax: 8000}
	x := sine(8192, 22050, 1000, 0.5)

	mel, err := MelSpectrogram(x, cfg, audio.MelRefined)
	require.NoError(t, err)
	assert.Equal(t, audio.MelRefined, mel.Tag)
	assert.Equal(t, 80, mel.Bins)
	assert.Equal(t, 8192/256, mel.Frames)
	assert.Equal(t, 22050, mel.SampleRate)
	assert.Equal(t, 8000.0, mel.Fmax)

	floor := float32(math.Log(logClamp))
	for _, v := range mel.Data {
		assert.False(t, math.IsNaN(float64(v)))
		assert.GreaterOrEqual(t, v, floor)
	}

	// The loudest band in a middle frame brackets 1 kHz.
	frame := mel.Frames / 2
	best := 0
	for b := 1; b < mel.Bins; b++ {
		if mel.At(b, frame) > mel.At(best, frame) {
			best = b
		}
	}
	minMel, maxMel := hzToMel(0), hzToMel(8000)
	edge := func(i int) float64 { return melToHz(minMel + (maxMel-minMel)*float64(i)/81) }
	assert.Less(t, edge(best), 1000.0)
	assert.Greater(t, edge(best+2), 1000.0)
}

func TestMelConfigValidate(t *testing.T) {
	good := MelConfig{SampleRate: 32000, NFFT: 1024, NumMels: 80, HopSize: 256, WinSize: 1024}
	assert.NoError(t, good.Validate())
	assert.Equal(t, 16000.0, good.fmax())

	bad := good
	bad.NumMels = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = good
	bad.Fmin, bad.Fmax = 8000, 4000
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}
