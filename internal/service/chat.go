package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/visionassist/internal/adapter/genai"
	"github.com/xiaot623/visionassist/internal/domain"
)

const maxSessionIDLen = 128

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: empty", domain.ErrInvalidSessionID)
	}
	if len(sessionID) > maxSessionIDLen {
		return fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidSessionID, maxSessionIDLen)
	}
	return nil
}

// CreateSession starts a new session. Its remote chat is opened on first submit.
func (s *Service) CreateSession(ctx context.Context) (*domain.Session, error) {
	session := &domain.Session{
		SessionID: "sess_" + uuid.New().String()[:8],
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Submit sends message on the session's own chat and records both turns.
// Generative faults are returned inside the Reply and stored as the assistant
// turn; the error return is kept for local faults.
func (s *Service) Submit(ctx context.Context, sessionID, message string) (genai.Reply, []domain.Turn, error) {
	if err := validateSessionID(sessionID); err != nil {
		return genai.Reply{}, nil, err
	}
	if _, err := s.store.GetOrCreateSession(ctx, sessionID); err != nil {
		return genai.Reply{}, nil, fmt.Errorf("failed to get session: %w", err)
	}

	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.appendTurn(ctx, sessionID, domain.RoleUser, message); err != nil {
		return genai.Reply{}, nil, err
	}
	s.auditEvent(ctx, sessionID, domain.EventTypeChatSubmitted, map[string]int{"chars": len(message)})

	start := time.Now()
	reply := s.send(ctx, st, message)
	latencyMs := time.Since(start).Milliseconds()

	s.auditEvent(ctx, sessionID, domain.EventTypeGenAICallDone, domain.GenAICallDonePayload{
		Model:     s.genaiClient.Model(),
		Kind:      "text",
		LatencyMs: latencyMs,
		Error:     errString(reply.Cause()),
	})
	if reply.Failed() {
		slog.Warn("generative call failed", "session_id", sessionID, "latency_ms", latencyMs, "error", reply.Err)
	}

	if err := s.appendTurn(ctx, sessionID, domain.RoleAssistant, reply.String()); err != nil {
		return reply, nil, err
	}

	history, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return reply, nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return reply, history, nil
}

// send opens the session chat if needed and sends message on it. The caller holds st.mu.
func (s *Service) send(ctx context.Context, st *sessionState, message string) genai.Reply {
	if st.chat == nil {
		chat, err := s.genaiClient.NewChat(ctx)
		if err != nil {
			return genai.TextReply("", err)
		}
		st.chat = chat
	}
	return s.genaiClient.SendText(ctx, st.chat, message)
}

func (s *Service) appendTurn(ctx context.Context, sessionID string, role domain.Role, content string) error {
	turn, err := domain.NewTurn(role, content)
	if err != nil {
		return err
	}
	turn.TurnID = "turn_" + uuid.New().String()[:8]
	turn.SessionID = sessionID
	if err := s.store.AppendTurn(ctx, &turn); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// History returns the session's turns in chronological order.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}

	turns, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return turns, nil
}

// Clear empties the session's history. The remote chat keeps its context, so the
// model may still refer to earlier turns.
func (s *Service) Clear(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	return s.clear(ctx, sessionID, false)
}

// Reset empties the history and opens a new remote chat for the session.
func (s *Service) Reset(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	return s.clear(ctx, sessionID, true)
}

func (s *Service) clear(ctx context.Context, sessionID string, resetChat bool) ([]domain.Turn, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetOrCreateSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := s.store.DeleteTurns(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear history: %w", err)
	}

	eventType := domain.EventTypeHistoryCleared
	if resetChat {
		eventType = domain.EventTypeSessionReset
		st.chat = nil
		chat, err := s.genaiClient.NewChat(ctx)
		if err != nil {
			slog.Warn("failed to open chat after reset, will retry on next submit", "session_id", sessionID, "error", err)
		} else {
			st.chat = chat
		}
	}
	s.auditEvent(ctx, sessionID, eventType, map[string]bool{"chat_reset": resetChat})

	return []domain.Turn{}, nil
}
