// Package service implements conversation management and image analysis.
package service

import (
	"context"
	"image"
	"sync"

	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/domain"
	"github.com/xiaot623/visionassist/internal/policy"
	"github.com/xiaot623/visionassist/internal/repository"
)

// VisionAdapter detects objects in an image file and returns an annotated copy.
type VisionAdapter interface {
	Detect(ctx context.Context, imagePath string) (image.Image, []domain.Detection, error)
}

// SpeechAdapter turns text into speech and hands back the displayable text.
type SpeechAdapter interface {
	Enhance(ctx context.Context, text string) string
}

// Options tunes the analysis path.
type Options struct {
	Enhancer      domain.Enhancer
	MaxImageBytes int64
}

type Service struct {
	store        repository.Store
	genaiClient  genai.GenAIClient
	vision       VisionAdapter
	speech       SpeechAdapter
	policyEngine *policy.Engine
	opts         Options

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// sessionState is the runtime half of a session: its remote chat and the lock
// that serialises submissions on it.
type sessionState struct {
	mu   sync.Mutex
	chat genai.Chat
}

func New(store repository.Store, genaiClient genai.GenAIClient, vision VisionAdapter, speech SpeechAdapter, policyEngine *policy.Engine, opts Options) *Service {
	if opts.Enhancer == "" {
		opts.Enhancer = domain.EnhancerSpeech
	}
	return &Service{
		store:        store,
		genaiClient:  genaiClient,
		vision:       vision,
		speech:       speech,
		policyEngine: policyEngine,
		opts:         opts,
		sessions:     make(map[string]*sessionState),
	}
}

// Ping checks the history store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// state returns the runtime state for sessionID, creating it on first use.
func (s *Service) state(sessionID string) *sessionState {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.sessions[sessionID]; ok {
		return st
	}
	st = &sessionState{}
	s.sessions[sessionID] = st
	return st
}
