package genai

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"unicode/utf8"
)

// MockClient is a deterministic GenAIClient for local runs and tests.
type MockClient struct {
	chats atomic.Int64
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements GenAIClient interface.
var _ GenAIClient = (*MockClient)(nil)

// Model returns the mock model name.
func (m *MockClient) Model() string {
	return "mock-gemini"
}

// NewChat opens a numbered mock chat that remembers its own turns.
func (m *MockClient) NewChat(ctx context.Context) (Chat, error) {
	return &mockChat{id: m.chats.Add(1)}, nil
}

// SendText echoes the message through the chat.
func (m *MockClient) SendText(ctx context.Context, chat Chat, message string) Reply {
	if chat == nil {
		return TextReply("", fmt.Errorf("chat is not open"))
	}
	text, err := chat.Send(ctx, message)
	return TextReply(text, err)
}

// SendMultimodal describes the image by size and type.
func (m *MockClient) SendMultimodal(ctx context.Context, prompt string, image []byte, mimeType string) Reply {
	if len(image) == 0 {
		return ImageReply("", fmt.Errorf("image is empty"))
	}
	return ImageReply(fmt.Sprintf("[MOCK] A %s image of %d bytes. Prompt: %q", mimeType, len(image), truncate(prompt, 100)), nil)
}

// AnalyzeMedia describes the file by name.
func (m *MockClient) AnalyzeMedia(ctx context.Context, path, mimeType, prompt string) Reply {
	return TextReply(fmt.Sprintf("[MOCK] Analysis of %s (%s). Prompt: %q", filepath.Base(path), mimeType, truncate(prompt, 100)), nil)
}

type mockChat struct {
	id    int64
	turns int
}

func (c *mockChat) Send(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.turns++
	return fmt.Sprintf("[MOCK chat %d, turn %d] Received your message: %q. This is a mock response.", c.id, c.turns, truncate(message, 100)), nil
}

// truncate keeps at most maxLen runes of s.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
