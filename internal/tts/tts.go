// Package tts defines the interface for text-to-speech synthesis.
//
// The dispatcher only depends on this contract; the synthesis pipeline in
// internal/synth is the production implementation and tests substitute
// their own.
package tts

import (
	"context"
	"time"
)

// ContentTypeWAV is the MIME type of synthesized audio.
const ContentTypeWAV = "audio/wav"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// UtteranceID correlates log lines for one request. Generated when empty.
	UtteranceID string

	// SkipWrite leaves the configured output file untouched.
	SkipWrite bool
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize speaks every non-empty line of text and returns the
	// concatenated audio as a WAV file.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// UtteranceID is the ID the request was logged under.
	UtteranceID string

	// Audio is the synthesized audio as a WAV file. Empty when no line
	// produced audio.
	Audio []byte

	// ContentType is the MIME type of the audio.
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 32000).
	SampleRate int

	// Channels is the number of audio channels (always 1).
	Channels int

	// Lines is the number of lines that produced audio.
	Lines int

	// Skipped is the number of lines dropped by a per-line failure.
	Skipped int

	// Duration is the length of Audio.
	Duration time.Duration
}
