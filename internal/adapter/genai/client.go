package genai

import (
	"context"
	"fmt"
	"time"

	genaisdk "google.golang.org/genai"

	"github.com/xiaot623/visionassist/internal/domain"
)

// Config holds the model and generation settings.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	Temperature      float32
	TopP             float32
	TopK             float32
	MaxOutputTokens  int32
	ResponseMIMEType string
	Timeout          time.Duration
	PollInterval     time.Duration
	MaxWait          time.Duration
}

// DefaultConfig returns the generation settings the assistant ships with.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:           apiKey,
		Model:            "gemini-2.0-flash",
		Temperature:      1,
		TopP:             0.95,
		TopK:             40,
		MaxOutputTokens:  8192,
		ResponseMIMEType: "text/plain",
		Timeout:          2 * time.Minute,
		PollInterval:     10 * time.Second,
		MaxWait:          10 * time.Minute,
	}
}

// Client talks to the Gemini API.
type Client struct {
	sdk          *genaisdk.Client
	model        string
	generation   *genaisdk.GenerateContentConfig
	timeout      time.Duration
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewClient configures the Gemini client. An empty API key is a configuration error.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig("").Model
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig("").PollInterval
	}

	sdk, err := genaisdk.NewClient(ctx, &genaisdk.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genaisdk.BackendGeminiAPI,
		HTTPOptions: genaisdk.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &Client{
		sdk:   sdk,
		model: cfg.Model,
		generation: &genaisdk.GenerateContentConfig{
			Temperature:      genaisdk.Ptr(cfg.Temperature),
			TopP:             genaisdk.Ptr(cfg.TopP),
			TopK:             genaisdk.Ptr(cfg.TopK),
			MaxOutputTokens:  cfg.MaxOutputTokens,
			ResponseMIMEType: cfg.ResponseMIMEType,
		},
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// NewChat opens a remote chat with an empty history.
func (c *Client) NewChat(ctx context.Context) (Chat, error) {
	chat, err := c.sdk.Chats.Create(ctx, c.model, c.generation, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &remoteChat{chat: chat}, nil
}

// SendText sends message on chat. Faults are carried in the Reply.
func (c *Client) SendText(ctx context.Context, chat Chat, message string) Reply {
	if chat == nil {
		return TextReply("", fmt.Errorf("%w: chat is not open", domain.ErrValidation))
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	text, err := chat.Send(ctx, message)
	if err != nil {
		return TextReply("", fmt.Errorf("%w: %v", domain.ErrTransport, err))
	}
	return TextReply(text, nil)
}

// SendMultimodal sends prompt and the inline image bytes in a single request.
func (c *Client) SendMultimodal(ctx context.Context, prompt string, image []byte, mimeType string) Reply {
	if len(image) == 0 {
		return ImageReply("", fmt.Errorf("%w: image is empty", domain.ErrValidation))
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	contents := []*genaisdk.Content{
		genaisdk.NewContentFromParts([]*genaisdk.Part{
			genaisdk.NewPartFromText(prompt),
			genaisdk.NewPartFromBytes(image, mimeType),
		}, genaisdk.RoleUser),
	}
	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents, c.generation)
	if err != nil {
		return ImageReply("", fmt.Errorf("%w: %v", domain.ErrTransport, err))
	}
	return ImageReply(resp.Text(), nil)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

type remoteChat struct {
	chat *genaisdk.Chat
}

func (r *remoteChat) Send(ctx context.Context, message string) (string, error) {
	resp, err := r.chat.SendMessage(ctx, genaisdk.Part{Text: message})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
