package genai

import (
	"context"
	"log/slog"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewGenAIClient creates a generative client for mode.
// If mode is MOCK, returns a MockClient; otherwise returns a real Client.
func NewGenAIClient(ctx context.Context, cfg Config, mode string) (GenAIClient, error) {
	if mode == ModeMock {
		slog.Info("ASSIST_MODE=MOCK detected, using mock generative client")
		return NewMockClient(), nil
	}
	return NewClient(ctx, cfg)
}
