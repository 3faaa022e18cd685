// Package message defines the request and response types exchanged with transports.
package message

import (
	"encoding/base64"
	"time"
)

// ResponseMode controls whether synthesized audio is returned to the caller.
type ResponseMode string

const (
	// ResponseModeAudio returns the synthesized WAV in the result.
	ResponseModeAudio ResponseMode = "audio"

	// ResponseModeNone only speaks to the configured output file and
	// returns metadata.
	ResponseModeNone ResponseMode = "none"
)

// Message is a speech request from any transport.
type Message struct {
	// ID is a unique identifier for this message (UUID). Assigned by the
	// dispatcher when empty.
	ID string `json:"id"`

	// Source identifies the sender (e.g., "console", "home-assistant").
	Source string `json:"source,omitempty"`

	// Text is the text to speak. Each line is synthesized separately.
	Text string `json:"text"`

	// ResponseMode selects what the result carries. Defaults to "audio".
	ResponseMode ResponseMode `json:"response_mode,omitempty"`

	// Timestamp is when the message was received.
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of a speech request.
type Result struct {
	// MessageID is the original message ID; synthesis logs carry it as
	// utterance_id.
	MessageID string `json:"message_id"`

	// Lines is the number of lines that produced audio.
	Lines int `json:"lines"`

	// Skipped is the number of lines dropped (empty after normalization,
	// decoder bound, inference failure).
	Skipped int `json:"skipped"`

	// SampleRate is the rate of Audio in Hz.
	SampleRate int `json:"sample_rate,omitempty"`

	// DurationSeconds is the length of the synthesized audio.
	DurationSeconds float64 `json:"duration_seconds"`

	// Audio is the WAV file as a base64-encoded string.
	// Populated when response_mode is "audio".
	Audio string `json:"audio,omitempty"`

	// ContentType is the MIME type of Audio (e.g., "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Error is set if processing failed.
	Error string `json:"error,omitempty"`

	// raw keeps the undecoded audio for transports that stream bytes.
	raw []byte
}

// SetAudioBytes base64-encodes raw audio bytes into Audio.
func (r *Result) SetAudioBytes(audio []byte) {
	r.raw = audio
	if len(audio) > 0 {
		r.Audio = base64.StdEncoding.EncodeToString(audio)
	}
}

// AudioBytes returns the raw audio set by SetAudioBytes, decoding Audio if
// the result was unmarshalled.
func (r *Result) AudioBytes() ([]byte, error) {
	if r.raw != nil || r.Audio == "" {
		return r.raw, nil
	}
	return base64.StdEncoding.DecodeString(r.Audio)
}
