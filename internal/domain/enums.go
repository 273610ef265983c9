// Package domain defines the core domain models for the assistant.
package domain

import "fmt"

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// EventType represents the type of an audit event.
type EventType string

const (
	EventTypeChatSubmitted  EventType = "chat_submitted"
	EventTypeGenAICallDone  EventType = "genai_call_done"
	EventTypeHistoryCleared EventType = "history_cleared"
	EventTypeSessionReset   EventType = "session_reset"
	EventTypeAnalysisDone   EventType = "analysis_done"
	EventTypeMediaAnalyzed  EventType = "media_analyzed"
)

// Enhancer selects the text-enhancement step used by image analysis.
type Enhancer string

const (
	EnhancerSpeech     Enhancer = "speech"
	EnhancerGenerative Enhancer = "generative"
)
