package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/policy"
	"github.com/xiaot623/visionassist/tests/helpers"
)

type fakeChat struct {
	id       int
	messages []string
}

func (c *fakeChat) Send(ctx context.Context, message string) (string, error) {
	c.messages = append(c.messages, message)
	return fmt.Sprintf("chat %d: %s", c.id, message), nil
}

type fakeGenAI struct {
	mu              sync.Mutex
	chats           []*fakeChat
	sendErr         error
	emptyReply      bool
	textCalls       int
	multimodalCalls int
	mediaCalls      int
	lastPrompt      string
	lastMIME        string
}

func (f *fakeGenAI) Model() string { return "fake-model" }

func (f *fakeGenAI) NewChat(ctx context.Context) (genai.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeChat{id: len(f.chats) + 1}
	f.chats = append(f.chats, c)
	return c, nil
}

func (f *fakeGenAI) SendText(ctx context.Context, chat genai.Chat, message string) genai.Reply {
	f.mu.Lock()
	f.textCalls++
	f.lastPrompt = message
	sendErr, empty := f.sendErr, f.emptyReply
	f.mu.Unlock()

	if sendErr != nil {
		return genai.TextReply("", sendErr)
	}
	text, err := chat.Send(ctx, message)
	if empty {
		text = ""
	}
	return genai.TextReply(text, err)
}

func (f *fakeGenAI) SendMultimodal(ctx context.Context, prompt string, image []byte, mimeType string) genai.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.multimodalCalls++
	f.lastPrompt = prompt
	f.lastMIME = mimeType
	if f.sendErr != nil {
		return genai.ImageReply("", f.sendErr)
	}
	return genai.ImageReply("a described image", nil)
}

func (f *fakeGenAI) AnalyzeMedia(ctx context.Context, path, mimeType, prompt string) genai.Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaCalls++
	f.lastPrompt = prompt
	if f.sendErr != nil {
		return genai.TextReply("", f.sendErr)
	}
	return genai.TextReply("video summary", nil)
}

type fakeVision struct {
	calls int
	dets  []domain.Detection
	err   error
}

func (f *fakeVision) Detect(ctx context.Context, imagePath string) (image.Image, []domain.Detection, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), f.dets, nil
}

type fakeSpeech struct {
	calls int
	got   string
}

func (f *fakeSpeech) Enhance(ctx context.Context, text string) string {
	f.calls++
	f.got = text
	return text
}

type fixture struct {
	svc    *Service
	genai  *fakeGenAI
	vision *fakeVision
	speech *fakeSpeech
}

func newFixture(t *testing.T, opts Options, withPolicy bool) *fixture {
	t.Helper()
	f := &fixture{
		genai:  &fakeGenAI{},
		vision: &fakeVision{},
		speech: &fakeSpeech{},
	}
	var engine *policy.Engine
	if withPolicy {
		var err error
		engine, err = policy.NewEngine(context.Background(), policy.DefaultPolicy)
		if err != nil {
			t.Fatalf("NewEngine failed: %v", err)
		}
	}
	f.svc = New(helpers.NewTestSQLiteStore(t), f.genai, f.vision, f.speech, engine, opts)
	return f
}

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{0, 255, 0, 255})
	path := filepath.Join(t.TempDir(), "upload.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

var errBackendDown = errors.New("backend down")
