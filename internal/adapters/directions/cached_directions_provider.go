package directions

import (
	"context"
	"errors"
	"fmt"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"

	"go.uber.org/zap"
)

// CachedDirectionsProvider consults a RouteCache before the wrapped provider.
// Only the first route is cached; cache failures never fail a request.
type CachedDirectionsProvider struct {
	next  ports.DirectionsProvider
	cache ports.RouteCache
}

func NewCachedDirectionsProvider(next ports.DirectionsProvider, cache ports.RouteCache) *CachedDirectionsProvider {
	return &CachedDirectionsProvider{next: next, cache: cache}
}

// RouteKey normalizes a request to 1e-5 degrees, the polyline precision.
func RouteKey(req ports.DirectionsRequest) string {
	mode := req.Mode
	if mode == "" {
		mode = ports.TravelModeDriving
	}
	return fmt.Sprintf("%s|%.5f,%.5f|%.5f,%.5f",
		mode,
		req.Origin.Lat, req.Origin.Lng,
		req.Destination.Lat, req.Destination.Lng,
	)
}

func (c *CachedDirectionsProvider) GetRoutes(ctx context.Context, req ports.DirectionsRequest) ([]domain.Route, error) {
	key := RouteKey(req)
	log := obs.Logger(ctx)

	if c.cache != nil {
		r, err := c.cache.Get(ctx, key)
		if err == nil {
			return []domain.Route{r}, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			log.Warn("route cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	routes, err := c.next.GetRoutes(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && len(routes) > 0 {
		if err := c.cache.Put(ctx, key, routes[0]); err != nil {
			log.Warn("route cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return routes, nil
}
