package ports

import (
	"context"
	"errors"
	"navigation-session-service/internal/domain"
)

var ErrCacheMiss = errors.New("route cache miss")

// Persistent cache of provider routes keyed by a normalized request key.
type RouteCache interface {
	// Return ErrCacheMiss when nothing is stored under key.
	Get(ctx context.Context, key string) (domain.Route, error)
	Put(ctx context.Context, key string, route domain.Route) error
}
