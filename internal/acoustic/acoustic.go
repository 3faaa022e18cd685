// Package acoustic turns symbol sequences into mel-spectrograms with an
// autoregressive Tacotron2-style network.
//
// The decode loop lives here; the Network only evaluates one step at a time.
// That keeps the stop-gate threshold and the step bound in Go where they can
// be configured and tested without a model on disk.
package acoustic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nadzzz/glados/internal/audio"
)

// ErrInferenceTimeout is returned, together with the truncated mel, when the
// decoder hits its step bound without the stop gate firing.
var ErrInferenceTimeout = errors.New("decoder reached max steps without stop gate")

// Defaults for the decode loop.
const (
	DefaultMaxDecoderSteps = 3000
	DefaultGateThreshold   = 0.25
	DefaultSampleRate      = 22050
)

// State is the per-utterance recurrent state held by a Network between steps.
type State interface {
	// Close releases any native resources held by the state.
	Close() error
}

// Network evaluates the three stages of the acoustic model.
type Network interface {
	// NumMels is the mel channel count of every frame.
	NumMels() int

	// Encode runs the text encoder and returns the initial decoder state.
	Encode(ctx context.Context, symbols []int64) (State, error)

	// Step feeds the previous frame and returns the next one together with
	// the raw (pre-sigmoid) stop-gate logit.
	Step(ctx context.Context, st State, prev []float32) (frame []float32, gate float32, err error)

	// Postnet refines the decoded mel.
	Postnet(ctx context.Context, mel *audio.Mel) (*audio.Mel, error)
}

// Adapter runs the decode loop over a Network.
type Adapter struct {
	Net             Network
	MaxDecoderSteps int
	GateThreshold   float64

	// SampleRate tags the produced mel with the rate the base vocoder expects.
	SampleRate int
}

// NewAdapter returns an Adapter with the default step bound and gate threshold.
func NewAdapter(net Network) *Adapter {
	return &Adapter{
		Net:             net,
		MaxDecoderSteps: DefaultMaxDecoderSteps,
		GateThreshold:   DefaultGateThreshold,
		SampleRate:      DefaultSampleRate,
	}
}

// SynthesizeMel produces a base-tagged mel for the given symbol IDs.
//
// When the step bound is reached the partially decoded mel is still returned,
// with an error wrapping ErrInferenceTimeout. Callers decide whether to use it.
func (a *Adapter) SynthesizeMel(ctx context.Context, symbols []int64) (*audio.Mel, error) {
	if len(symbols) == 0 {
		return nil, errors.New("acoustic: no symbols to synthesize")
	}

	maxSteps := a.MaxDecoderSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxDecoderSteps
	}
	threshold := a.GateThreshold
	if threshold <= 0 {
		threshold = DefaultGateThreshold
	}

	st, err := a.Net.Encode(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("encoding %d symbols: %w", len(symbols), err)
	}
	defer st.Close()

	nMels := a.Net.NumMels()
	prev := make([]float32, nMels)
	frames := make([][]float32, 0, 256)
	stopped := false

	for len(frames) < maxSteps {
		frame, gate, err := a.Net.Step(ctx, st, prev)
		if err != nil {
			return nil, fmt.Errorf("decoder step %d: %w", len(frames), err)
		}
		if len(frame) != nMels {
			return nil, fmt.Errorf("decoder step %d: frame has %d channels, want %d", len(frames), len(frame), nMels)
		}
		frames = append(frames, frame)
		if sigmoid(float64(gate)) > threshold {
			stopped = true
			break
		}
		prev = frame
	}

	mel := a.assemble(frames, nMels)
	refined, err := a.Net.Postnet(ctx, mel)
	if err != nil {
		return nil, fmt.Errorf("postnet: %w", err)
	}
	refined.Tag = audio.MelBase
	refined.SampleRate = a.SampleRate

	if !stopped {
		slog.Warn("decoder reached step bound", "steps", maxSteps, "symbols", len(symbols))
		return refined, fmt.Errorf("%w: %d steps", ErrInferenceTimeout, maxSteps)
	}
	return refined, nil
}

// assemble transposes decoded frames into a Bins x Frames mel.
func (a *Adapter) assemble(frames [][]float32, nMels int) *audio.Mel {
	mel := audio.NewMel(audio.MelBase, nMels, len(frames))
	mel.SampleRate = a.SampleRate
	for f, frame := range frames {
		for b, v := range frame {
			mel.Set(b, f, v)
		}
	}
	return mel
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
