package vocoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nadzzz/glados/internal/dsp"
)

// ErrInvalidConfig is returned for unreadable or inconsistent HiFi-GAN
// hyperparameter files.
var ErrInvalidConfig = errors.New("invalid vocoder config")

// Config holds the HiFi-GAN hyperparameters that matter at inference time.
// Training-only keys in the JSON file are ignored.
type Config struct {
	SamplingRate int     `mapstructure:"sampling_rate"`
	NFFT         int     `mapstructure:"n_fft"`
	NumMels      int     `mapstructure:"num_mels"`
	HopSize      int     `mapstructure:"hop_size"`
	WinSize      int     `mapstructure:"win_size"`
	Fmin         float64 `mapstructure:"fmin"`
	Fmax         float64 `mapstructure:"fmax"`
	Seed         int64   `mapstructure:"seed"`
}

// LoadConfig reads a HiFi-GAN config.json.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		v.SetConfigType("json")
	}
	v.SetDefault("seed", 1234)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no vocoder could run with.
func (c Config) Validate() error {
	switch {
	case c.SamplingRate <= 0:
		return fmt.Errorf("%w: sampling_rate must be positive, got %d", ErrInvalidConfig, c.SamplingRate)
	case c.NumMels <= 0:
		return fmt.Errorf("%w: num_mels must be positive, got %d", ErrInvalidConfig, c.NumMels)
	}
	if err := c.MelConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MelConfig returns the analysis parameters for recomputing mels at this
// vocoder's rate.
func (c Config) MelConfig() dsp.MelConfig {
	return dsp.MelConfig{
		SampleRate: c.SamplingRate,
		NFFT:       c.NFFT,
		NumMels:    c.NumMels,
		HopSize:    c.HopSize,
		WinSize:    c.WinSize,
		Fmin:       c.Fmin,
		Fmax:       c.Fmax,
	}
}
