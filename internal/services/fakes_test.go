package services

import (
	"context"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/ports"
	"sync"
)

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{sessions: map[string]*domain.Session{}}
}

func (r *memorySessionRepository) SaveSession(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memorySessionRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *memorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.SessionEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evt ports.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
