// Package mqtt implements the MQTT transport for glados.
//
// MQTT is well-suited for home automation and IoT devices. This transport
// subscribes to a configurable topic and publishes each result as JSON to
// "<topic>/result". Payloads are either a JSON message or the plain text to
// speak. Audio is only included when the JSON message asks for it.
package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nadzzz/glados/internal/config"
	"github.com/nadzzz/glados/internal/message"
	"github.com/nadzzz/glados/internal/transport"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// ResultTopic returns the topic results are published to.
func ResultTopic(topic string) string { return topic + "/result" }

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg    config.MQTTConfig
	client paho.Client
}

// New creates a new MQTT transport.
func New(cfg config.MQTTConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// Listen connects to the MQTT broker and subscribes to the configured topic.
// The subscription is renewed on every reconnect.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	opts := paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetOrderMatters(false).
		SetConnectTimeout(connectTimeout)
	if t.cfg.Username != "" {
		opts.SetUsername(t.cfg.Username)
		opts.SetPassword(t.cfg.Password)
	}

	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(t.cfg.Topic, t.cfg.QoS, func(c paho.Client, m paho.Message) {
			t.handleMessage(ctx, handler, c, m.Payload())
		})
		if !token.WaitTimeout(connectTimeout) {
			slog.Error("mqtt subscribe timed out", "topic", t.cfg.Topic)
			return
		}
		if err := token.Error(); err != nil {
			slog.Error("mqtt subscribe failed", "topic", t.cfg.Topic, "error", err)
			return
		}
		slog.Info("mqtt subscribed", "topic", t.cfg.Topic, "qos", t.cfg.QoS)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})

	t.client = paho.NewClient(opts)
	token := t.client.Connect()
	// With connect retry enabled the token only completes once connected.
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", t.cfg.Broker, err)
		}
	case <-ctx.Done():
		t.Close()
		return nil
	}

	slog.Info("mqtt transport listening", "broker", t.cfg.Broker, "topic", t.cfg.Topic)
	<-ctx.Done()
	slog.Info("mqtt transport shutting down")
	return t.Close()
}

// publisher is the subset of paho.Client used to send results.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// handleMessage speaks one payload and publishes the result.
func (t *Transport) handleMessage(ctx context.Context, handler transport.Handler, pub publisher, payload []byte) {
	msg := decodePayload(payload)

	result, err := handler(ctx, msg)
	if err != nil {
		slog.Error("mqtt say failed", "error", err)
		result = &message.Result{MessageID: msg.ID, Error: err.Error()}
	}

	body, err := json.Marshal(result)
	if err != nil {
		slog.Error("mqtt encode result", "error", err)
		return
	}
	token := pub.Publish(ResultTopic(t.cfg.Topic), t.cfg.QoS, false, body)
	if !token.WaitTimeout(publishTimeout) {
		slog.Warn("mqtt publish timed out", "message_id", result.MessageID)
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("mqtt publish failed", "message_id", result.MessageID, "error", err)
	}
}

// decodePayload accepts a JSON message or plain text.
func decodePayload(payload []byte) *message.Message {
	msg := &message.Message{}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, msg) == nil {
		if msg.ResponseMode == "" {
			msg.ResponseMode = message.ResponseModeNone
		}
	} else {
		msg = &message.Message{Text: string(payload), ResponseMode: message.ResponseModeNone}
	}
	if msg.Source == "" {
		msg.Source = "mqtt"
	}
	return msg
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	// Disconnect also stops a connect that is still retrying.
	if t.client != nil {
		t.client.Disconnect(250)
	}
	return nil
}
