package ports

import (
	"context"
	"time"
)

const (
	EventSessionCreated      = "session.created"
	EventOriginFixed         = "session.origin_fixed"
	EventDestinationSelected = "session.destination_selected"
	EventRouteDrawn          = "session.route_drawn"
	EventRouteFailed         = "session.route_failed"
	EventSessionClosed       = "session.closed"
)

type SessionEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, evt SessionEvent) error
}
