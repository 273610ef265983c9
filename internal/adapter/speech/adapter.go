package speech

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xiaot623/visionassist/internal/domain"
)

// FailureText replaces the enhanced text when synthesis fails.
const FailureText = "An error occurred while generating enhanced text."

// Adapter runs text through the synthesizer and hands the text back.
// The audio is not surfaced to callers.
type Adapter struct {
	synth   Synthesizer
	timeout time.Duration
}

// NewAdapter creates a speech adapter. A nil synthesizer gives a pass-through adapter.
func NewAdapter(synth Synthesizer, timeout time.Duration) *Adapter {
	return &Adapter{synth: synth, timeout: timeout}
}

// Synthesize returns text once synthesis succeeds. On failure it returns FailureText
// and the cause.
func (a *Adapter) Synthesize(ctx context.Context, text string) (string, error) {
	if a.synth == nil {
		return text, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	audio, err := a.synth.Synthesize(ctx, text)
	if err != nil {
		slog.Warn("speech synthesis failed", "error", err)
		return FailureText, fmt.Errorf("%w: speech synthesis: %v", domain.ErrTransport, err)
	}
	slog.Debug("speech synthesized", "chars", len(text), "audio_bytes", len(audio))
	return text, nil
}

// Enhance is Synthesize without the error.
func (a *Adapter) Enhance(ctx context.Context, text string) string {
	out, _ := a.Synthesize(ctx, text)
	return out
}

// Close closes the synthesizer, if any.
func (a *Adapter) Close() error {
	if a.synth == nil {
		return nil
	}
	return a.synth.Close()
}
