// Package config handles loading and validating the glados configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the glados daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Models     ModelsConfig     `mapstructure:"models"`
	Synthesis  SynthesisConfig  `mapstructure:"synthesis"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int  `mapstructure:"health_port"`
	Metrics    bool `mapstructure:"metrics"` // expose /metrics on the health port
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MQTTConfig configures the MQTT transport.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

// ModelsConfig locates the model files and selects the inference device.
type ModelsConfig struct {
	OnnxRuntimeLib        string `mapstructure:"onnxruntime_lib"` // falls back to ONNXRUNTIME_LIB_PATH
	Device                string `mapstructure:"device"`          // auto, cpu, cuda
	IntraOpThreads        int    `mapstructure:"intra_op_threads"`
	AcousticDir           string `mapstructure:"acoustic_dir"` // encoder.onnx, decoder_iter.onnx, postnet.onnx
	BaseVocoder           string `mapstructure:"base_vocoder"`
	BaseVocoderConfig     string `mapstructure:"base_vocoder_config"`
	SuperResVocoder       string `mapstructure:"superres_vocoder"`
	SuperResVocoderConfig string `mapstructure:"superres_vocoder_config"`
	Dictionary            string `mapstructure:"dictionary"`
}

// SynthesisConfig tunes the speech pipeline.
type SynthesisConfig struct {
	UsePhonemes        bool    `mapstructure:"use_phonemes"`
	EndOfSentence      bool    `mapstructure:"end_of_sentence"`
	DenoiserStrength   float64 `mapstructure:"denoiser_strength"`
	SuperResStrength   float64 `mapstructure:"superres_strength"`
	HighpassCutoff     float64 `mapstructure:"highpass_cutoff"`
	HighpassTaps       int     `mapstructure:"highpass_taps"`
	GainExponent       float64 `mapstructure:"gain_exponent"`
	ResampleZeros      int     `mapstructure:"resample_zeros"`
	MaxDecoderSteps    int     `mapstructure:"max_decoder_steps"`
	GateThreshold      float64 `mapstructure:"gate_threshold"`
	StrictDecoderBound bool    `mapstructure:"strict_decoder_bound"`
	OutputPath         string  `mapstructure:"output_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./glados.yaml, ./configs/glados.yaml, /etc/glados/glados.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.metrics", true)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.topic", "glados/say")
	v.SetDefault("transports.mqtt.client_id", "glados")
	v.SetDefault("transports.mqtt.username", "")
	v.SetDefault("transports.mqtt.password", "")
	v.SetDefault("transports.mqtt.qos", 1)
	v.SetDefault("models.onnxruntime_lib", "")
	v.SetDefault("models.device", "auto")
	v.SetDefault("models.intra_op_threads", 0)
	v.SetDefault("models.acoustic_dir", "models/tacotron2")
	v.SetDefault("models.base_vocoder", "models/hifigan/generator.onnx")
	v.SetDefault("models.base_vocoder_config", "models/hifigan/config.json")
	v.SetDefault("models.superres_vocoder", "models/superres_hifigan/generator.onnx")
	v.SetDefault("models.superres_vocoder_config", "models/superres_hifigan/config_32k.json")
	v.SetDefault("models.dictionary", "models/merged.dict.txt")
	v.SetDefault("synthesis.use_phonemes", true)
	v.SetDefault("synthesis.end_of_sentence", true)
	v.SetDefault("synthesis.denoiser_strength", 35.0)
	v.SetDefault("synthesis.superres_strength", 10.0)
	v.SetDefault("synthesis.highpass_cutoff", 10500.0)
	v.SetDefault("synthesis.highpass_taps", 101)
	v.SetDefault("synthesis.gain_exponent", 0.9)
	v.SetDefault("synthesis.resample_zeros", 8)
	v.SetDefault("synthesis.max_decoder_steps", 3000)
	v.SetDefault("synthesis.gate_threshold", 0.25)
	v.SetDefault("synthesis.strict_decoder_bound", false)
	v.SetDefault("synthesis.output_path", "output/test.wav")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("glados")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/glados")
	}

	// Environment variables: GLADOS_SERVER_HEALTH_PORT, GLADOS_MODELS_DEVICE, etc.
	v.SetEnvPrefix("GLADOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references (e.g., "${MQTT_PASSWORD}", "${MODEL_DIR}")
	cfg.Transports.MQTT.Password = resolveEnvRef(cfg.Transports.MQTT.Password)
	cfg.Models.OnnxRuntimeLib = resolveEnvRef(cfg.Models.OnnxRuntimeLib)
	cfg.Models.AcousticDir = resolveEnvRef(cfg.Models.AcousticDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no pipeline could run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Synthesis
	check(s.DenoiserStrength >= 0, "synthesis.denoiser_strength must be >= 0, got %g", s.DenoiserStrength)
	check(s.SuperResStrength >= 0, "synthesis.superres_strength must be >= 0, got %g", s.SuperResStrength)
	check(s.HighpassCutoff > 0, "synthesis.highpass_cutoff must be > 0, got %g", s.HighpassCutoff)
	check(s.HighpassTaps > 0 && s.HighpassTaps%2 == 1, "synthesis.highpass_taps must be odd and positive, got %d", s.HighpassTaps)
	check(s.GainExponent > 0, "synthesis.gain_exponent must be > 0, got %g", s.GainExponent)
	check(s.ResampleZeros > 0, "synthesis.resample_zeros must be > 0, got %d", s.ResampleZeros)
	check(s.MaxDecoderSteps > 0, "synthesis.max_decoder_steps must be > 0, got %d", s.MaxDecoderSteps)
	check(s.GateThreshold > 0 && s.GateThreshold < 1, "synthesis.gate_threshold must be in (0, 1), got %g", s.GateThreshold)

	switch strings.ToLower(c.Models.Device) {
	case "", "auto", "cpu", "cuda":
	default:
		errs = append(errs, fmt.Errorf("models.device must be auto, cpu or cuda, got %q", c.Models.Device))
	}
	check(c.Models.IntraOpThreads >= 0, "models.intra_op_threads must be >= 0, got %d", c.Models.IntraOpThreads)

	t := c.Transports
	check(!t.HTTP.Enabled || validPort(t.HTTP.Port), "transports.http.port out of range: %d", t.HTTP.Port)
	check(!t.GRPC.Enabled || validPort(t.GRPC.Port), "transports.grpc.port out of range: %d", t.GRPC.Port)
	check(!t.MQTT.Enabled || t.MQTT.Topic != "", "transports.mqtt.topic is required")
	check(t.MQTT.QoS <= 2, "transports.mqtt.qos must be 0, 1 or 2, got %d", t.MQTT.QoS)
	check(validPort(c.Server.HealthPort), "server.health_port out of range: %d", c.Server.HealthPort)

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validPort(p int) bool { return p > 0 && p < 65536 }

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
