package ports

import (
	"context"
	"navigation-session-service/internal/domain"
)

// Port: a boundary for persisting session snapshots.
type SessionRepository interface {
	SaveSession(ctx context.Context, s *domain.Session) error
	// Return domain.ErrSessionNotFound when no row exists.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}
