// Package synth assembles the speech pipeline: normalization, acoustic
// model, base vocoder, upsampling, super-resolution refinement and mixing.
//
// A Pipeline processes one line at a time and holds no per-request state, but
// it is not safe for concurrent use; callers serialize access.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/glados/internal/acoustic"
	"github.com/nadzzz/glados/internal/audio"
	"github.com/nadzzz/glados/internal/metrics"
	"github.com/nadzzz/glados/internal/phoneme"
	"github.com/nadzzz/glados/internal/tts"
	"github.com/nadzzz/glados/internal/vocoder"
)

// Options wires the stages of a Pipeline.
type Options struct {
	Normalizer *phoneme.Normalizer
	Acoustic   *acoustic.Adapter
	Base       *vocoder.Vocoder
	Refiner    *Refiner
	Mixer      *Mixer
	Upsample   UpsampleOptions

	// StrictDecoderBound skips lines whose decoder hit the step bound
	// instead of speaking the truncated mel.
	StrictDecoderBound bool

	// OutputPath receives each line's audio as a WAV file, overwritten per
	// line. Empty disables writing.
	OutputPath string

	Metrics *metrics.Collector

	// Closers are released by Close, in order.
	Closers []func() error
}

// Pipeline turns text into 16-bit audio at the super-resolution rate.
type Pipeline struct {
	opts       Options
	targetRate int
}

// New validates the wiring and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Normalizer == nil:
		return nil, errors.New("synth: normalizer is required")
	case opts.Acoustic == nil:
		return nil, errors.New("synth: acoustic model is required")
	case opts.Base == nil:
		return nil, errors.New("synth: base vocoder is required")
	case opts.Refiner == nil || opts.Refiner.Vocoder == nil:
		return nil, errors.New("synth: super-resolution vocoder is required")
	case opts.Mixer == nil:
		return nil, errors.New("synth: mixer is required")
	}
	if opts.Base.Tag != audio.MelBase || opts.Refiner.Vocoder.Tag != audio.MelRefined {
		return nil, fmt.Errorf("synth: vocoders tagged %s/%s, want %s/%s",
			opts.Base.Tag, opts.Refiner.Vocoder.Tag, audio.MelBase, audio.MelRefined)
	}

	target := opts.Refiner.Vocoder.SampleRate()
	if opts.Mixer.SampleRate != target {
		return nil, fmt.Errorf("synth: mixer designed for %d Hz, super-resolution rate is %d Hz", opts.Mixer.SampleRate, target)
	}
	return &Pipeline{opts: opts, targetRate: target}, nil
}

// SampleRate is the rate of every buffer the pipeline produces.
func (p *Pipeline) SampleRate() int { return p.targetRate }

// Say speaks each non-empty line of text in order, writing each result to
// the output path. Per-line failures are logged and skipped; only output
// I/O errors and context cancellation are returned.
func (p *Pipeline) Say(ctx context.Context, text string) error {
	_, err := p.run(ctx, text, tts.SynthesizeOpts{})
	return err
}

// Synthesize implements tts.Synthesizer.
func (p *Pipeline) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	return p.run(ctx, text, opts)
}

// Close releases the neural network sessions.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.opts.Closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) run(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	id := opts.UtteranceID
	if id == "" {
		id = uuid.NewString()
	}
	logger := slog.With("utterance_id", id)
	logger.Info("generating", "text", text)

	result := &tts.SynthesizeResult{
		UtteranceID: id,
		ContentType: tts.ContentTypeWAV,
		SampleRate:  p.targetRate,
		Channels:    1,
	}

	var spoken []*audio.PCM
	for i, line := range strings.Split(text, "\n") {
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lineLog := logger.With("line", i)
		start := time.Now()
		pcm, err := p.Line(ctx, lineLog, line)
		if err != nil {
			result.Skipped++
			status := metrics.StatusSkipped
			if !isSkippable(err) {
				status = metrics.StatusError
			}
			p.opts.Metrics.RecordUtterance(status)
			lineLog.Warn("line skipped", "error", err)
			continue
		}

		if p.opts.OutputPath != "" && !opts.SkipWrite {
			done := p.opts.Metrics.Time(metrics.StageWrite)
			err := audio.WriteWAV(p.opts.OutputPath, pcm)
			done()
			if err != nil {
				p.opts.Metrics.RecordUtterance(metrics.StatusError)
				return nil, fmt.Errorf("writing %s: %w", p.opts.OutputPath, err)
			}
		}

		p.opts.Metrics.RecordUtterance(metrics.StatusSuccess)
		lineLog.Info("line complete",
			"samples", pcm.Len(),
			"sample_rate", pcm.SampleRate,
			"duration", time.Since(start))
		spoken = append(spoken, pcm)
	}

	result.Lines = len(spoken)
	if len(spoken) == 0 {
		return result, nil
	}

	joined, err := audio.Concat(spoken...)
	if err != nil {
		return nil, err
	}
	if result.Audio, err = audio.EncodeWAV(joined); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	result.Duration = time.Duration(float64(joined.Len()) / float64(joined.SampleRate) * float64(time.Second))
	return result, nil
}

// isSkippable reports failures that are expected for some inputs rather
// than signs of a broken model.
func isSkippable(err error) bool {
	return errors.Is(err, phoneme.ErrEmptyInput) || errors.Is(err, acoustic.ErrInferenceTimeout)
}

// Line runs a single line through every stage and returns its mixed audio.
func (p *Pipeline) Line(ctx context.Context, logger *slog.Logger, line string) (*audio.PCM, error) {
	m := p.opts.Metrics

	done := m.Time(metrics.StageNormalize)
	normalized, err := p.opts.Normalizer.Normalize(line)
	done()
	if err != nil {
		return nil, err
	}
	symbols := phoneme.Encode(normalized)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %q has no speakable symbols", phoneme.ErrEmptyInput, normalized)
	}
	logger.Debug("normalized", "text", normalized, "symbols", len(symbols))

	done = m.Time(metrics.StageAcoustic)
	mel, err := p.opts.Acoustic.SynthesizeMel(ctx, symbols)
	done()
	switch {
	case errors.Is(err, acoustic.ErrInferenceTimeout):
		m.RecordTruncation()
		if p.opts.StrictDecoderBound {
			return nil, err
		}
		logger.Warn("speaking truncated mel", "error", err, "frames", mel.Frames)
	case err != nil:
		return nil, fmt.Errorf("acoustic model: %w", err)
	}
	m.ObserveFrames(mel.Frames)

	done = m.Time(metrics.StageVocode)
	base, err := p.opts.Base.Vocode(ctx, mel)
	done()
	if err != nil {
		return nil, err
	}

	done = m.Time(metrics.StageUpsample)
	up, err := Upsample(base, p.targetRate, p.opts.Upsample)
	done()
	if err != nil {
		return nil, err
	}
	m.ObserveGain(up.Gain.Value)

	var refined *audio.Waveform
	if up.Gain.Degenerate {
		m.RecordDegenerate()
		logger.Warn("skipping refinement", "error", ErrDegenerateSignal)
	} else {
		done = m.Time(metrics.StageRefine)
		refined, err = p.opts.Refiner.Refine(ctx, up.Unit)
		done()
		if err != nil {
			return nil, err
		}
	}

	done = m.Time(metrics.StageMix)
	mixed, err := p.opts.Mixer.Mix(up.Coarse, refined, up.Gain)
	done()
	if err != nil {
		return nil, err
	}

	logger.Debug("mixed",
		"base_samples", base.Len(),
		"coarse_samples", up.Coarse.Len(),
		"gain", up.Gain.Value,
		"peak", up.Gain.Peak)
	return mixed, nil
}
