// Package repository stores sessions, conversation history and audit events.
package repository

import (
	"context"

	"github.com/xiaot623/visionassist/internal/domain"
)

// Store is the history and audit store used by the service layer.
type Store interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetOrCreateSession(ctx context.Context, sessionID string) (*domain.Session, error)

	AppendTurn(ctx context.Context, turn *domain.Turn) error
	ListTurns(ctx context.Context, sessionID string) ([]domain.Turn, error)
	DeleteTurns(ctx context.Context, sessionID string) error

	CreateEvent(ctx context.Context, event *domain.Event) error
	ListEvents(ctx context.Context, sessionID string, afterTs int64, types []string, limit int) ([]domain.Event, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
