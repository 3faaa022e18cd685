package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.True(t, cfg.Transports.HTTP.Enabled)
	assert.Equal(t, "glados/say", cfg.Transports.MQTT.Topic)
	assert.Equal(t, "auto", cfg.Models.Device)
	assert.True(t, cfg.Synthesis.UsePhonemes)
	assert.Equal(t, 35.0, cfg.Synthesis.DenoiserStrength)
	assert.Equal(t, 10.0, cfg.Synthesis.SuperResStrength)
	assert.Equal(t, 10500.0, cfg.Synthesis.HighpassCutoff)
	assert.Equal(t, 101, cfg.Synthesis.HighpassTaps)
	assert.Equal(t, 0.9, cfg.Synthesis.GainExponent)
	assert.Equal(t, 8, cfg.Synthesis.ResampleZeros)
	assert.Equal(t, 3000, cfg.Synthesis.MaxDecoderSteps)
	assert.Equal(t, 0.25, cfg.Synthesis.GateThreshold)
	assert.Equal(t, "output/test.wav", cfg.Synthesis.OutputPath)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glados.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  device: cpu
  acoustic_dir: ${GLADOS_TEST_MODELS}
synthesis:
  use_phonemes: false
  strict_decoder_bound: true
  output_path: /tmp/out.wav
transports:
  mqtt:
    enabled: true
    password: ${GLADOS_TEST_MQTT_PASSWORD}
logging:
  format: text
`), 0o644))
	t.Setenv("GLADOS_TEST_MODELS", "/srv/models/tacotron2")
	t.Setenv("GLADOS_TEST_MQTT_PASSWORD", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Models.Device)
	assert.Equal(t, "/srv/models/tacotron2", cfg.Models.AcousticDir)
	assert.False(t, cfg.Synthesis.UsePhonemes)
	assert.True(t, cfg.Synthesis.StrictDecoderBound)
	assert.Equal(t, "/tmp/out.wav", cfg.Synthesis.OutputPath)
	assert.Equal(t, "hunter2", cfg.Transports.MQTT.Password)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 35.0, cfg.Synthesis.DenoiserStrength, "unset keys keep defaults")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GLADOS_SYNTHESIS_DENOISER_STRENGTH", "20")
	t.Setenv("GLADOS_MODELS_DEVICE", "cuda")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20.0, cfg.Synthesis.DenoiserStrength)
	assert.Equal(t, "cuda", cfg.Models.Device)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glados.yaml")
	require.NoError(t, os.WriteFile(path, []byte("synthesis: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"even taps", func(c *Config) { c.Synthesis.HighpassTaps = 100 }, "highpass_taps"},
		{"gate at one", func(c *Config) { c.Synthesis.GateThreshold = 1 }, "gate_threshold"},
		{"negative strength", func(c *Config) { c.Synthesis.DenoiserStrength = -1 }, "denoiser_strength"},
		{"zero steps", func(c *Config) { c.Synthesis.MaxDecoderSteps = 0 }, "max_decoder_steps"},
		{"unknown device", func(c *Config) { c.Models.Device = "tpu" }, "models.device"},
		{"http port", func(c *Config) { c.Transports.HTTP.Port = 70000 }, "transports.http.port"},
		{"mqtt qos", func(c *Config) { c.Transports.MQTT.QoS = 3 }, "qos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, base.Validate())
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("GLADOS_TEST_REF", "value")
	assert.Equal(t, "value", resolveEnvRef("${GLADOS_TEST_REF}"))
	assert.Equal(t, "${GLADOS_TEST_UNSET}", resolveEnvRef("${GLADOS_TEST_UNSET}"))
	assert.Equal(t, "plain", resolveEnvRef("plain"))
}
