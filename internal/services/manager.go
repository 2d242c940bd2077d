package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/render"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PermissionRequest is returned to clients that created a session without
// fine location access.
type PermissionRequest struct {
	RequestCode int                 `json:"request_code"`
	Permissions []domain.Permission `json:"permissions"`
}

func locationPermissionRequest() *PermissionRequest {
	return &PermissionRequest{
		RequestCode: domain.LocationPermissionRequestCode,
		Permissions: []domain.Permission{domain.PermissionFineLocation, domain.PermissionCoarseLocation},
	}
}

// Manager owns the live navigation sessions.
type Manager struct {
	deps     NavigatorDeps
	request  location.Request
	style    json.RawMessage
	newID    func() string
	sessions map[string]*Navigator
	mu       sync.Mutex
	closed   bool
}

func NewManager(deps NavigatorDeps, req location.Request, style json.RawMessage) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{
		deps:     deps,
		request:  req,
		style:    style,
		newID:    uuid.NewString,
		sessions: map[string]*Navigator{},
	}
}

// Create starts a session with the given permissions already granted.
// The returned PermissionRequest is nil when location access is granted.
func (m *Manager) Create(perms ...domain.Permission) (*Navigator, *PermissionRequest, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, domain.ErrSessionClosed
	}
	s := domain.NewSession(m.newID(), m.deps.Now())
	s.Grant(perms...)
	granted := s.LocationGranted()

	nav := NewNavigator(s, render.NewCanvas(), location.NewFeed(m.request), m.deps)
	m.sessions[s.ID] = nav
	m.mu.Unlock()

	if err := nav.Start(m.style); err != nil {
		m.remove(s.ID)
		nav.Close()
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	m.deps.Logger.Info("session created",
		zap.String("session_id", nav.ID()),
		zap.Bool("location_granted", granted),
	)

	if !granted {
		return nav, locationPermissionRequest(), nil
	}
	return nav, nil, nil
}

func (m *Manager) Get(id string) (*Navigator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return nav, nil
}

// Lookup returns the state of a session. Live sessions answer from memory;
// otherwise the repository is consulted. live is false for stored sessions.
func (m *Manager) Lookup(ctx context.Context, id string) (s *domain.Session, live bool, err error) {
	if nav, err := m.Get(id); err == nil {
		s, err := nav.Session()
		if err == nil {
			return s, true, nil
		}
		if !errors.Is(err, domain.ErrSessionClosed) {
			return nil, false, err
		}
	}

	if m.deps.Repo == nil {
		return nil, false, domain.ErrSessionNotFound
	}
	s, err = m.deps.Repo.GetSession(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// Close stops a live session and forgets its stored snapshot.
func (m *Manager) Close(ctx context.Context, id string) error {
	nav := m.remove(id)
	if nav == nil {
		return domain.ErrSessionNotFound
	}
	nav.Close()

	if m.deps.Repo != nil {
		if err := m.deps.Repo.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return nil
}

func (m *Manager) remove(id string) *Navigator {
	m.mu.Lock()
	defer m.mu.Unlock()
	nav := m.sessions[id]
	delete(m.sessions, id)
	return nav
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every live session. Stored snapshots are kept.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	navs := make([]*Navigator, 0, len(m.sessions))
	for id, nav := range m.sessions {
		navs = append(navs, nav)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, nav := range navs {
		wg.Add(1)
		go func(n *Navigator) {
			defer wg.Done()
			n.Close()
		}(nav)
	}
	wg.Wait()
	m.deps.Logger.Info("sessions closed", zap.Int("count", len(navs)))
}
