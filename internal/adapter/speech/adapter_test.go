package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xiaot623/visionassist/internal/domain"
)

type fakeSynth struct {
	calls int
	got   string
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	f.got = text
	if f.err != nil {
		return nil, f.err
	}
	return []byte("ID3"), nil
}

func (f *fakeSynth) Close() error { return nil }

func TestSynthesizeReturnsInputText(t *testing.T) {
	synth := &fakeSynth{}
	a := NewAdapter(synth, time.Second)

	out, err := a.Synthesize(context.Background(), "Detections: person (0.87). User prompt: hi")
	assert.NoError(t, err)
	assert.Equal(t, "Detections: person (0.87). User prompt: hi", out)
	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, out, synth.got)
}

func TestSynthesizeFailure(t *testing.T) {
	a := NewAdapter(&fakeSynth{err: errors.New("quota exceeded")}, 0)

	out, err := a.Synthesize(context.Background(), "hello")
	assert.Equal(t, FailureText, out)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Equal(t, FailureText, a.Enhance(context.Background(), "hello"))
}

func TestPassThroughWithoutSynthesizer(t *testing.T) {
	a := NewAdapter(nil, 0)

	out, err := a.Synthesize(context.Background(), "plain")
	assert.NoError(t, err)
	assert.Equal(t, "plain", out)
	assert.NoError(t, a.Close())
}
