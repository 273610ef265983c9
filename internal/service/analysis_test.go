package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/policy"
)

func TestAnalyzeMissingInputCallsNothing(t *testing.T) {
	f := newFixture(t, Options{}, true)
	path := writeTestPNG(t)

	for _, req := range []AnalyzeRequest{
		{},
		{ImagePath: path},
		{Prompt: "what is this?"},
	} {
		result, text := f.svc.Analyze(context.Background(), req)
		assert.Nil(t, result)
		assert.Equal(t, InstructionText, text)
	}

	assert.Equal(t, 0, f.vision.calls)
	assert.Equal(t, 0, f.speech.calls)
	assert.Equal(t, 0, f.genai.textCalls+f.genai.multimodalCalls)
}

func TestAnalyzeNoDetections(t *testing.T) {
	f := newFixture(t, Options{}, false)

	result, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "anything?"})
	require.NotNil(t, result)
	assert.Contains(t, text, "No objects detected in the image.")
	assert.Equal(t, "Detections: No objects detected in the image.. User prompt: anything?", result.Prompt)
	assert.Equal(t, 1, f.speech.calls)
	assert.NotEmpty(t, result.AnnotatedImage)
}

func TestAnalyzeDetectionsInPrompt(t *testing.T) {
	f := newFixture(t, Options{}, false)
	f.vision.dets = []domain.Detection{{Label: "person", Confidence: 0.87, BBox: [4]float64{0, 0, 2, 2}}}

	result, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "who is there?"})
	require.NotNil(t, result)
	assert.Contains(t, f.speech.got, "person (0.87)")
	assert.Equal(t, "Detections: person (0.87). User prompt: who is there?", text)
	assert.Equal(t, f.vision.dets, result.Detections)
}

func TestAnalyzeDetectionFailureDegrades(t *testing.T) {
	f := newFixture(t, Options{}, false)
	f.vision.err = domain.ErrTransport

	result, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "p"})
	require.NotNil(t, result)
	assert.Nil(t, result.AnnotatedImage)
	assert.Equal(t, "Detections: Error in detection. User prompt: p", text)
}

func TestAnalyzeGenerativeEnhancer(t *testing.T) {
	f := newFixture(t, Options{Enhancer: domain.EnhancerGenerative}, false)
	f.vision.dets = []domain.Detection{{Label: "cat", Confidence: 0.5}}

	_, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "describe"})
	assert.Equal(t, "a described image", text)
	assert.Equal(t, 1, f.genai.multimodalCalls)
	assert.Equal(t, "image/png", f.genai.lastMIME)
	assert.Equal(t, 0, f.speech.calls)

	f.vision.err = domain.ErrTransport
	f.genai.sendErr = errBackendDown
	_, text = f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "describe"})
	assert.Equal(t, "Error: backend down", text)
}

func TestAnalyzePolicyRejectsLargeImage(t *testing.T) {
	f := newFixture(t, Options{MaxImageBytes: 10}, true)

	result, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: writeTestPNG(t), Prompt: "p"})
	assert.Nil(t, result)
	assert.True(t, strings.HasPrefix(text, "Image is too large"), text)
	assert.Equal(t, 0, f.vision.calls)
}

func TestAnalyzePolicyRejectsMediaType(t *testing.T) {
	f := newFixture(t, Options{MaxImageBytes: 1 << 20}, true)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))

	result, text := f.svc.Analyze(context.Background(), AnalyzeRequest{ImagePath: path, Prompt: "p"})
	assert.Nil(t, result)
	assert.Equal(t, `Unsupported image type "text/plain".`, text)
	assert.Equal(t, 0, f.vision.calls)
}

func TestAnalyzeRecordsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, false)

	_, _ = f.svc.Analyze(ctx, AnalyzeRequest{SessionID: "s1", ImagePath: writeTestPNG(t), Prompt: "p"})

	events, err := f.svc.ListEvents(ctx, "s1", 0, []string{string(domain.EventTypeAnalysisDone)}, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAnalyzeMediaEventsListableForNewSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{}, false)

	f.svc.AnalyzeMedia(ctx, "media-only", "/tmp/v.mp4", "video/mp4", "summarise")

	events, err := f.svc.ListEvents(ctx, "media-only", 0, nil, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeMediaAnalyzed, events[0].Type)

	f.svc.AnalyzeMedia(ctx, strings.Repeat("x", 200), "/tmp/v.mp4", "video/mp4", "summarise")
	assert.Equal(t, 2, f.genai.mediaCalls)
}

func TestDenialMessage(t *testing.T) {
	assert.Equal(t, "", DenialMessage(nil, "image/png", 1, 2))
	assert.Equal(t, InstructionText, DenialMessage([]string{policy.ReasonMissingPrompt}, "", 0, 0))
	assert.Equal(t,
		`Image is too large (20 bytes, limit 10). Unsupported image type "image/x-icon".`,
		DenialMessage([]string{policy.ReasonImageTooLarge, policy.ReasonUnsupportedMediaType}, "image/x-icon", 20, 10))
}

func TestSniffMediaType(t *testing.T) {
	data, err := os.ReadFile(writeTestPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", SniffMediaType(data))
	assert.Equal(t, "text/plain", SniffMediaType([]byte("hello")))
}

func TestDescribeImage(t *testing.T) {
	f := newFixture(t, Options{}, false)
	path := writeTestPNG(t)

	text := f.svc.DescribeImage(context.Background(), AnalyzeRequest{ImagePath: path, Prompt: "colours?"})
	assert.Equal(t, "Image Analysis:\na described image\n\nPrompt Analysis:\ncolours?", text)
	assert.Equal(t, "Here is an image. Analyze it based on: colours?", f.genai.lastPrompt)
	assert.Equal(t, "image/png", f.genai.lastMIME)

	f.genai.sendErr = errBackendDown
	text = f.svc.DescribeImage(context.Background(), AnalyzeRequest{ImagePath: path, Prompt: "colours?"})
	assert.Contains(t, text, "Error analyzing image: backend down")

	text = f.svc.DescribeImage(context.Background(), AnalyzeRequest{ImagePath: filepath.Join(t.TempDir(), "gone.png"), Prompt: "x"})
	assert.True(t, strings.HasPrefix(text, "Error analyzing image with prompt: "))

	assert.Equal(t, InstructionText, f.svc.DescribeImage(context.Background(), AnalyzeRequest{Prompt: "x"}))
}

func TestClearAnalysis(t *testing.T) {
	f := newFixture(t, Options{}, false)
	assert.Equal(t, "Analysis history cleared.", f.svc.ClearAnalysis(context.Background()))
}

func TestAnalyzeMedia(t *testing.T) {
	f := newFixture(t, Options{}, false)

	assert.Equal(t, "video summary", f.svc.AnalyzeMedia(context.Background(), "", "/tmp/v.mp4", "video/mp4", "summarise"))
	assert.Equal(t, 1, f.genai.mediaCalls)

	f.genai.sendErr = errBackendDown
	assert.Equal(t, "Error: backend down", f.svc.AnalyzeMedia(context.Background(), "", "/tmp/v.mp4", "video/mp4", "summarise"))

	assert.Equal(t, MediaInstructionText, f.svc.AnalyzeMedia(context.Background(), "", "", "", ""))
	assert.Equal(t, 2, f.genai.mediaCalls)
}
