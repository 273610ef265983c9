package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/visionassist/internal/domain"
)

// recordEvent records an event to the store.
func (s *Service) recordEvent(ctx context.Context, sessionID string, eventType domain.EventType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:   "evt_" + uuid.New().String()[:8],
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
		Type:      eventType,
		Payload:   payloadBytes,
	}

	return s.store.CreateEvent(ctx, event)
}

// auditEvent records an event and only logs a failure. Events without a session
// are skipped; an unknown session is created so its events can be listed.
func (s *Service) auditEvent(ctx context.Context, sessionID string, eventType domain.EventType, payload interface{}) {
	if sessionID == "" {
		return
	}
	if err := validateSessionID(sessionID); err != nil {
		slog.Warn("skipping event", "type", eventType, "error", err)
		return
	}
	if _, err := s.store.GetOrCreateSession(ctx, sessionID); err != nil {
		slog.Warn("failed to record event", "type", eventType, "session_id", sessionID, "error", err)
		return
	}
	if err := s.recordEvent(ctx, sessionID, eventType, payload); err != nil {
		slog.Warn("failed to record event", "type", eventType, "session_id", sessionID, "error", err)
	}
}

// ListEvents returns the audit events of a session.
func (s *Service) ListEvents(ctx context.Context, sessionID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
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

	events, err := s.store.ListEvents(ctx, sessionID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
