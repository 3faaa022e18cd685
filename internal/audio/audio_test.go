package audio

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"truncates positive", 12.9, 12},
		{"truncates negative toward zero", -12.9, -12},
		{"saturates high", 40000, math.MaxInt16},
		{"saturates low", -40000, math.MinInt16},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), math.MaxInt16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantize(tt.in))
		})
	}
}

func TestPeak(t *testing.T) {
	assert.Equal(t, 0.0, Peak(nil))
	assert.Equal(t, 5.0, Peak([]float64{1, -5, 3}))
	assert.Equal(t, 7.0, Peak([]float64{7, -5, 3}))

	w := &Waveform{Samples: []float64{0.25, -0.5}, SampleRate: 4}
	assert.Equal(t, 0.5, w.Peak())
	assert.Equal(t, 0.5, w.Duration())
}

func TestFitLength(t *testing.T) {
	assert.Equal(t, []int16{1, 2, 0, 0}, FitLength([]int16{1, 2}, 4))
	assert.Equal(t, []int16{1, 2}, FitLength([]int16{1, 2, 3}, 2))
	assert.Len(t, FitLength(nil, 3), 3)
}

func TestConcat(t *testing.T) {
	a := &PCM{Samples: []int16{1, 2}, SampleRate: 32000}
	b := &PCM{Samples: []int16{3}, SampleRate: 32000}

	out, err := Concat(a, nil, b)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, out.Samples)
	assert.Equal(t, 32000, out.SampleRate)

	_, err = Concat(a, &PCM{SampleRate: 22050})
	assert.Error(t, err)
}

func TestMelIndexing(t *testing.T) {
	m := NewMel(MelBase, 3, 4)
	m.Set(2, 1, 1.5)
	assert.Equal(t, float32(1.5), m.At(2, 1))
	assert.Equal(t, float32(1.5), m.Data[2*4+1])
	assert.Equal(t, []int64{1, 3, 4}, m.Shape())
	assert.Equal(t, "base", MelBase.String())
	assert.Equal(t, "refined", MelRefined.String())
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := &PCM{Samples: []int16{0, 100, -100, math.MaxInt16, math.MinInt16}, SampleRate: 32000}

	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	require.NoError(t, WriteWAV(path, pcm))

	got, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, pcm.SampleRate, got.SampleRate)
	assert.Equal(t, pcm.Samples, got.Samples)

	// Overwrites in place.
	short := &PCM{Samples: []int16{7}, SampleRate: 32000}
	require.NoError(t, WriteWAV(path, short))
	got, err = ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, []int16{7}, got.Samples)
}

func TestEncodeWAV(t *testing.T) {
	pcm := &PCM{Samples: []int16{1, -2, 3}, SampleRate: 22050}
	data, err := EncodeWAV(pcm)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))

	got, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, pcm.Samples, got.Samples)
	assert.Equal(t, 22050, got.SampleRate)

	_, err = EncodeWAV(&PCM{})
	assert.Error(t, err)
}
