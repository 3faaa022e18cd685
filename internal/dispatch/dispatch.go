// Package dispatch serializes speech requests from every transport onto the
// single synthesis pipeline.
//
// The pipeline owns native inference sessions and one output file, so only
// one request is synthesized at a time; the others wait their turn. The
// sender always receives a result, even when synthesis fails.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/glados/internal/message"
	"github.com/nadzzz/glados/internal/tts"
)

// Dispatcher is the central request handler.
type Dispatcher struct {
	mu          sync.Mutex
	synthesizer tts.Synthesizer
}

// New creates a new Dispatcher around the given synthesizer.
func New(synthesizer tts.Synthesizer) *Dispatcher {
	return &Dispatcher{synthesizer: synthesizer}
}

// resolveResponseMode determines the effective ResponseMode for a message.
func resolveResponseMode(mode message.ResponseMode) message.ResponseMode {
	if mode == message.ResponseModeNone {
		return mode
	}
	return message.ResponseModeAudio
}

// Handle speaks a single message.
// This function is passed as the transport.Handler to each transport.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message) (*message.Result, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	logger := slog.With("message_id", msg.ID, "source", msg.Source)

	result := &message.Result{MessageID: msg.ID}
	if strings.TrimSpace(msg.Text) == "" {
		result.Error = "message has no text"
		return result, nil
	}

	mode := resolveResponseMode(msg.ResponseMode)
	logger.Info("dispatch queued", "response_mode", mode, "text_length", len(msg.Text))

	d.mu.Lock()
	defer d.mu.Unlock()

	// A caller that gave up while queued is not worth synthesizing for.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", msg.ID, err)
	}

	start := time.Now()
	res, err := d.synthesizer.Synthesize(ctx, msg.Text, tts.SynthesizeOpts{UtteranceID: msg.ID})
	if err != nil {
		result.Error = fmt.Sprintf("synthesis failed: %v", err)
		logger.Error("synthesis failed", "error", err)
		return result, nil
	}

	result.Lines = res.Lines
	result.Skipped = res.Skipped
	result.SampleRate = res.SampleRate
	result.DurationSeconds = res.Duration.Seconds()
	if mode == message.ResponseModeAudio && len(res.Audio) > 0 {
		result.SetAudioBytes(res.Audio)
		result.ContentType = res.ContentType
	}
	if res.Lines == 0 {
		result.Error = "no line produced audio"
	}

	logger.Info("dispatch complete",
		"duration", time.Since(start),
		"lines", res.Lines,
		"skipped", res.Skipped)
	return result, nil
}
