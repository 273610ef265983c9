// Package genai adapts the hosted generative model for chat, image and media prompts.
package genai

import "context"

// Chat is a remote conversation context. Each session owns exactly one.
type Chat interface {
	// Send appends message to the remote context and returns the model's text.
	Send(ctx context.Context, message string) (string, error)
}

// GenAIClient defines the generative operations used by the service layer.
type GenAIClient interface {
	// NewChat opens a fresh remote chat context.
	NewChat(ctx context.Context) (Chat, error)

	// SendText sends message on chat and waits for the full response.
	SendText(ctx context.Context, chat Chat, message string) Reply

	// SendMultimodal sends a text part and an inline image in one request.
	SendMultimodal(ctx context.Context, prompt string, image []byte, mimeType string) Reply

	// AnalyzeMedia uploads a file, waits for it to be processed and prompts against it.
	AnalyzeMedia(ctx context.Context, path, mimeType, prompt string) Reply

	// Model returns the configured model name.
	Model() string
}

// Ensure Client implements GenAIClient interface.
var _ GenAIClient = (*Client)(nil)
