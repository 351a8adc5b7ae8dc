package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nadzzz/lekha/internal/dispatch"
	"github.com/nadzzz/lekha/internal/message"
)

// generator is the part of the pipeline the function needs.
type generator interface {
	Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error)
}

// Response is the output of one invocation. Input errors are reported in
// Error rather than failing the invocation, so callers can tell them apart
// from infrastructure failures.
type Response struct {
	Result *message.GenerateResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

type handler struct {
	gen generator
}

func newHandler(gen generator) *handler {
	return &handler{gen: gen}
}

func (h *handler) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	// Warmup detection comes before any other processing.
	if warmup, ok := IsWarmupEvent(event); ok {
		return HandleWarmup(ctx, warmup)
	}

	var req message.GenerateRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return &Response{Error: fmt.Sprintf("invalid request: %v", err)}, nil
	}

	res, err := h.gen.Generate(ctx, &req)
	if errors.Is(err, dispatch.ErrEmptyInput) {
		return &Response{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Response{Result: res}, nil
}
