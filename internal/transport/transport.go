// Package transport defines the interface for pluggable text ingress.
//
// Each transport (HTTP, gRPC, MQTT) implements this interface and hands
// incoming speech requests to the dispatcher. The dispatcher doesn't care how
// requests arrive; it only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/glados/internal/message"
)

// Handler is a function that processes an incoming message and returns a result.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, msg *message.Message) (*message.Result, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting incoming messages and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
