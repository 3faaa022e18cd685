package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nadzzz/glados/internal/acoustic"
	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/config"
	"github.com/nadzzz/glados/internal/metrics"
	"github.com/nadzzz/glados/internal/onnx"
	"github.com/nadzzz/glados/internal/phoneme"
	"github.com/nadzzz/glados/internal/vocoder"
)

// ErrConfigLoad wraps every failure to build the pipeline from disk. It is
// fatal at startup.
var ErrConfigLoad = errors.New("loading synthesis pipeline")

// Load builds a Pipeline from the model files named in cfg on the ONNX
// Runtime execution provider cfg selects.
func Load(ctx context.Context, cfg *config.Config, m *metrics.Collector) (*Pipeline, error) {
	p, err := load(ctx, cfg, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}
	return p, nil
}

func load(ctx context.Context, cfg *config.Config, m *metrics.Collector) (*Pipeline, error) {
	mc, sc := cfg.Models, cfg.Synthesis

	norm := &phoneme.Normalizer{
		UsePhonemes:   sc.UsePhonemes,
		EndOfSentence: sc.EndOfSentence,
	}
	if sc.UsePhonemes {
		dict, err := phoneme.LoadDictionary(mc.Dictionary)
		if err != nil {
			return nil, err
		}
		norm.Dictionary = dict
		slog.Info("phoneme dictionary loaded", "path", mc.Dictionary, "entries", dict.Len())
	}

	baseCfg, err := vocoder.LoadConfig(mc.BaseVocoderConfig)
	if err != nil {
		return nil, err
	}
	srCfg, err := vocoder.LoadConfig(mc.SuperResVocoderConfig)
	if err != nil {
		return nil, err
	}

	if err := onnx.Initialize(mc.OnnxRuntimeLib); err != nil {
		return nil, err
	}
	device, err := onnx.ParseDevice(mc.Device)
	if err != nil {
		return nil, err
	}
	ec := onnx.ExecutionContext{
		Device:         onnx.ResolveDevice(device),
		IntraOpThreads: mc.IntraOpThreads,
	}
	slog.Info("inference device selected", "device", ec.Device)

	var closers []func() error
	release := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	dims := acoustic.DefaultDims
	dims.NumMels = baseCfg.NumMels
	net, err := acoustic.LoadONNX(ec, mc.AcousticDir, dims)
	if err != nil {
		return nil, err
	}
	closers = append(closers, net.Close)

	adapter := acoustic.NewAdapter(net)
	adapter.MaxDecoderSteps = sc.MaxDecoderSteps
	adapter.GateThreshold = sc.GateThreshold
	adapter.SampleRate = baseCfg.SamplingRate

	base, err := loadVocoder(ctx, ec, audio.MelBase, mc.BaseVocoder, baseCfg, sc.DenoiserStrength, &closers)
	if err != nil {
		release()
		return nil, err
	}
	sr, err := loadVocoder(ctx, ec, audio.MelRefined, mc.SuperResVocoder, srCfg, sc.DenoiserStrength, &closers)
	if err != nil {
		release()
		return nil, err
	}

	mixer, err := NewMixer(srCfg.SamplingRate, sc.HighpassCutoff, sc.HighpassTaps, sc.SuperResStrength)
	if err != nil {
		release()
		return nil, err
	}

	p, err := New(Options{
		Normalizer: norm,
		Acoustic:   adapter,
		Base:       base,
		Refiner:    &Refiner{Vocoder: sr},
		Mixer:      mixer,
		Upsample: UpsampleOptions{
			GainExponent:  sc.GainExponent,
			ZeroCrossings: sc.ResampleZeros,
		},
		StrictDecoderBound: sc.StrictDecoderBound,
		OutputPath:         sc.OutputPath,
		Metrics:            m,
		Closers:            closers,
	})
	if err != nil {
		release()
		return nil, err
	}

	slog.Info("synthesis pipeline loaded",
		"base_rate", baseCfg.SamplingRate,
		"target_rate", srCfg.SamplingRate,
		"phonemes", sc.UsePhonemes)
	return p, nil
}

func loadVocoder(ctx context.Context, ec onnx.ExecutionContext, tag audio.MelTag, path string, cfg vocoder.Config, strength float64, closers *[]func() error) (*vocoder.Vocoder, error) {
	gen, err := vocoder.LoadONNX(ec, path)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, gen.Close)

	v, err := vocoder.New(ctx, tag, cfg, gen)
	if err != nil {
		return nil, err
	}
	v.Strength = strength
	return v, nil
}
