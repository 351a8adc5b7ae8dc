package main

import (
	"context"
	"encoding/json"
	"log/slog"
)

// WarmupSource identifies scheduled warmup events.
const WarmupSource = "warmup"

// WarmupEvent is the scheduled event payload that keeps an instance warm.
type WarmupEvent struct {
	Source string `json:"source"`
}

// WarmupResponse is returned for warmup invocations.
type WarmupResponse struct {
	Status string `json:"status"`
}

// IsWarmupEvent checks if the event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var ev WarmupEvent
	if err := json.Unmarshal(event, &ev); err != nil || ev.Source != WarmupSource {
		return nil, false
	}
	return &ev, true
}

// HandleWarmup answers a warmup event without touching the pipeline.
func HandleWarmup(_ context.Context, _ *WarmupEvent) (any, error) {
	slog.Debug("warmup invocation")
	return WarmupResponse{Status: "warm"}, nil
}
