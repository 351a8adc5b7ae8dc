// Package transport defines the interface for pluggable request transports.
//
// Each transport (HTTP, gRPC) implements Transport and calls into the same
// Service. The service doesn't care how requests arrive; it only works with
// the types in package message.
package transport

import (
	"context"

	"github.com/nadzzz/lekha/internal/message"
)

// Service is the letter pipeline as seen by a transport.
// *dispatch.Dispatcher implements it.
type Service interface {
	// Generate builds letters for req. The only error for well-formed
	// requests is empty input.
	Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error)

	// Detect reports the language of text.
	Detect(text string) message.Language

	// Transform runs a single transform server-side, so clients never hold
	// the translation credential.
	Transform(ctx context.Context, req message.TransformRequest) (message.TransformResult, error)

	// Capabilities describes the deployment.
	Capabilities() message.Capabilities
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests and serves them from svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
