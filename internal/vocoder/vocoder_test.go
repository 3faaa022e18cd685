package vocoder

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/glados/internal/audio"
)

const baseJSON = `{
  "resblock": "1",
  "num_gpus": 0,
  "batch_size": 16,
  "learning_rate": 0.0002,
  "upsample_rates": [8, 8, 2, 2],
  "segment_size": 8192,
  "num_mels": 80,
  "n_fft": 1024,
  "hop_size": 256,
  "win_size": 1024,
  "sampling_rate": 22050,
  "fmin": 0,
  "fmax": 8000,
  "seed": 1234
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testConfig() Config {
	return Config{
		SamplingRate: 22050,
		NFFT:         1024,
		NumMels:      80,
		HopSize:      256,
		WinSize:      1024,
		Fmax:         8000,
		Seed:         1234,
	}
}

// sineGenerator emits a 440 Hz tone of the given amplitude, one hop of
// samples per mel frame. The first sample also depends on the mel so that
// different probes give different output.
type sineGenerator struct {
	amp   float64
	rate  int
	hop   int
	calls int
}

func (g *sineGenerator) Generate(_ context.Context, mel *audio.Mel) ([]float64, error) {
	g.calls++
	out := make([]float64, mel.Frames*g.hop)
	for i := range out {
		out[i] = g.amp * math.Sin(2*math.Pi*440*float64(i)/float64(g.rate))
	}
	if len(out) > 0 && len(mel.Data) > 0 {
		out[0] += 0.01 * float64(mel.Data[0])
	}
	return out, nil
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, baseJSON))
	require.NoError(t, err)
	assert.Equal(t, testConfig(), cfg)
	assert.Equal(t, 22050, cfg.MelConfig().SampleRate)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero rate", `{"sampling_rate": 0, "num_mels": 80, "n_fft": 1024, "hop_size": 256, "win_size": 1024}`},
		{"window longer than fft", `{"sampling_rate": 32000, "num_mels": 80, "n_fft": 512, "hop_size": 256, "win_size": 1024}`},
		{"not json", `sampling_rate: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestVocodeRejectsForeignMel(t *testing.T) {
	gen := &sineGenerator{amp: 0.5, rate: 22050, hop: 256}
	v, err := New(context.Background(), audio.MelBase, testConfig(), gen)
	require.NoError(t, err)

	_, err = v.Vocode(context.Background(), audio.NewMel(audio.MelRefined, 80, 10))
	assert.ErrorIs(t, err, ErrMelMismatch)

	_, err = v.Vocode(context.Background(), audio.NewMel(audio.MelBase, 64, 10))
	assert.ErrorIs(t, err, ErrMelMismatch)

	_, err = v.Vocode(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMelMismatch)
}

func TestVocodeScalesToFullRange(t *testing.T) {
	gen := &sineGenerator{amp: 0.5, rate: 22050, hop: 256}
	v, err := New(context.Background(), audio.MelBase, testConfig(), gen)
	require.NoError(t, err)
	v.Strength = 0

	mel := audio.NewMel(audio.MelBase, 80, 40)
	w, err := v.Vocode(context.Background(), mel)
	require.NoError(t, err)

	assert.Equal(t, 22050, w.SampleRate)
	assert.Equal(t, audio.ScaleFull, w.Scale)
	require.Equal(t, 40*256, w.Len())
	for i := 1000; i < 1010; i++ {
		want := 0.5 * audio.MaxWavValue * math.Sin(2*math.Pi*440*float64(i)/22050)
		assert.InDelta(t, want, w.Samples[i], 1e-3)
	}
}

func TestDenoiserBiasIsSeeded(t *testing.T) {
	gen := &sineGenerator{amp: 0.1, rate: 22050, hop: 256}
	a, err := NewDenoiser(context.Background(), gen, audio.MelBase, testConfig())
	require.NoError(t, err)
	b, err := NewDenoiser(context.Background(), gen, audio.MelBase, testConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Bias(), b.Bias())
	assert.Len(t, a.Bias(), 513)
	assert.Equal(t, 2, gen.calls)
}

func TestDenoiseSubtractsBias(t *testing.T) {
	d, err := NewDenoiserWithBias(make([]float64, 513))
	require.NoError(t, err)

	x := make([]float64, 3000)
	for i := range x {
		x[i] = 1000 * math.Sin(2*math.Pi*300*float64(i)/22050)
	}

	same := d.Denoise(x, 35)
	require.Len(t, same, len(x))
	for i := 600; i < 2400; i += 97 {
		assert.InDelta(t, x[i], same[i], 1e-6)
	}

	ones := make([]float64, 513)
	for i := range ones {
		ones[i] = 1
	}
	d, err = NewDenoiserWithBias(ones)
	require.NoError(t, err)
	silent := d.Denoise(x, 1e9)
	require.Len(t, silent, len(x))
	for _, v := range silent {
		assert.InDelta(t, 0, v, 1e-9)
	}

	assert.Nil(t, d.Denoise(nil, 35))
}

func TestNewDenoiserWithBiasLength(t *testing.T) {
	_, err := NewDenoiserWithBias(make([]float64, 10))
	assert.Error(t, err)
}
