package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/glados/internal/config"
	"github.com/nadzzz/glados/internal/message"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} { c := make(chan struct{}); close(c); return c }
func (t *doneToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	f.sent = append(f.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &doneToken{err: f.err}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    message.Message
	}{
		{
			name:    "plain text",
			payload: "Hello, and again, welcome",
			want:    message.Message{Text: "Hello, and again, welcome", Source: "mqtt", ResponseMode: message.ResponseModeNone},
		},
		{
			name:    "json",
			payload: `{"text": "Hi", "source": "ha", "response_mode": "audio"}`,
			want:    message.Message{Text: "Hi", Source: "ha", ResponseMode: message.ResponseModeAudio},
		},
		{
			name:    "json without mode",
			payload: ` {"text": "Hi"}`,
			want:    message.Message{Text: "Hi", Source: "mqtt", ResponseMode: message.ResponseModeNone},
		},
		{
			name:    "broken json is spoken as text",
			payload: `{"text": `,
			want:    message.Message{Text: `{"text": `, Source: "mqtt", ResponseMode: message.ResponseModeNone},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, *decodePayload([]byte(tc.payload)))
		})
	}
}

func TestHandleMessagePublishesResult(t *testing.T) {
	tr := New(config.MQTTConfig{Topic: "glados/say", QoS: 1})
	pub := &fakePublisher{}

	var got *message.Message
	handler := func(_ context.Context, msg *message.Message) (*message.Result, error) {
		got = msg
		return &message.Result{MessageID: "m1", Lines: 1, DurationSeconds: 0.5}, nil
	}
	tr.handleMessage(context.Background(), handler, pub, []byte("The cake is a lie"))

	require.NotNil(t, got)
	assert.Equal(t, "The cake is a lie", got.Text)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "glados/say/result", pub.sent[0].topic)
	assert.Equal(t, byte(1), pub.sent[0].qos)

	var res message.Result
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &res))
	assert.Equal(t, "m1", res.MessageID)
	assert.Equal(t, 1, res.Lines)
}

func TestHandleMessageReportsErrors(t *testing.T) {
	tr := New(config.MQTTConfig{Topic: "t"})
	pub := &fakePublisher{err: errors.New("not connected")}

	handler := func(_ context.Context, msg *message.Message) (*message.Result, error) {
		return nil, context.Canceled
	}
	tr.handleMessage(context.Background(), handler, pub, []byte(`{"id": "abc", "text": "hi"}`))

	require.Len(t, pub.sent, 1)
	var res message.Result
	require.NoError(t, json.Unmarshal(pub.sent[0].payload, &res))
	assert.Equal(t, "abc", res.MessageID)
	assert.Contains(t, res.Error, "canceled")
}
