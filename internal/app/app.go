package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"navigation-session-service/internal/adapters/cache"
	"navigation-session-service/internal/adapters/directions"
	"navigation-session-service/internal/adapters/events"
	"navigation-session-service/internal/adapters/location"
	"navigation-session-service/internal/adapters/repositories"
	"navigation-session-service/internal/config"
	"navigation-session-service/internal/platform/db"
	"navigation-session-service/internal/ports"
	"navigation-session-service/internal/render"
	"navigation-session-service/internal/services"
	"net/http"

	"go.uber.org/zap"
)

// App is the wired service: concrete adapters behind ports plus the
// session manager built on them.
type App struct {
	Manager *services.Manager

	logger  *zap.Logger
	closers []func() error
}

type Option func(*options)

type options struct {
	provider ports.DirectionsProvider
}

// WithDirectionsProvider replaces the configured directions provider.
// The route cache still wraps it.
func WithDirectionsProvider(p ports.DirectionsProvider) Option {
	return func(o *options) { o.provider = p }
}

// New opens storage, builds the directions provider and event publisher
// selected by cfg, and returns the wired App. Close releases everything.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	local, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}
	a.closers = append(a.closers, local.Close)
	if err := repositories.InitSchema(local); err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	repo, err := a.sessionRepository(cfg, local)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	routeCache, err := a.routeCache(ctx, cfg, local)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}

	provider := o.provider
	if provider == nil {
		provider, err = newDirectionsProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("new app: %w", err)
		}
	}
	provider = directions.NewCachedDirectionsProvider(provider, routeCache)

	deps := services.NavigatorDeps{
		Provider:      provider,
		Repo:          repo,
		Events:        a.eventPublisher(cfg),
		Logger:        logger,
		AnimateMarker: cfg.MarkerAnimation,
	}
	req := location.Request{
		Interval:             cfg.LocationInterval,
		FastestInterval:      cfg.LocationFastestInterval,
		SmallestDisplacement: cfg.LocationSmallestDisplacement,
		Priority:             location.PriorityHighAccuracy,
	}
	style := render.LoadStyle(cfg.MapStylePath, logger)

	a.Manager = services.NewManager(deps, req, style)
	return a, nil
}

func (a *App) sessionRepository(cfg *config.Config, local *sql.DB) (ports.SessionRepository, error) {
	if cfg.DatabaseURL == "" {
		a.logger.Info("sessions stored in sqlite", zap.String("path", cfg.DBPath))
		return repositories.NewSqliteSessionRepository(local), nil
	}

	pg, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	if err := repositories.InitPostgresSchema(pg); err != nil {
		return nil, err
	}
	a.logger.Info("sessions stored in postgres")
	return repositories.NewSQLSessionRepository(pg), nil
}

func (a *App) routeCache(ctx context.Context, cfg *config.Config, local *sql.DB) (ports.RouteCache, error) {
	if cfg.RedisURL == "" {
		return cache.NewSqliteRouteCache(local, cfg.RouteTTL), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("route cache in redis")
	return cache.NewRedisRouteCache(client, cfg.RouteTTL), nil
}

func (a *App) eventPublisher(cfg *config.Config) ports.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(a.logger)
	}

	pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, a.logger)
	a.closers = append(a.closers, pub.Close)
	a.logger.Info("session events to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return pub
}

func newDirectionsProvider(cfg *config.Config) (ports.DirectionsProvider, error) {
	switch cfg.DirectionsProvider {
	case "google":
		return directions.NewGoogleDirectionsProvider(cfg.DirectionsAPIKey, cfg.DirectionsBaseURL, cfg.DirectionsTimeout)
	case "ors":
		opts := []directions.ORSOption{
			directions.WithORSHTTPClient(&http.Client{Timeout: cfg.DirectionsTimeout}),
		}
		if cfg.DirectionsBaseURL != "" {
			opts = append(opts, directions.WithORSBaseURL(cfg.DirectionsBaseURL))
		}
		return directions.NewORSDirectionsProvider(cfg.DirectionsAPIKey, opts...)
	}
	return nil, fmt.Errorf("unknown directions provider %q", cfg.DirectionsProvider)
}

// Close stops all sessions, then releases storage and brokers in reverse
// order of acquisition.
func (a *App) Close() error {
	if a.Manager != nil {
		a.Manager.Shutdown()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
