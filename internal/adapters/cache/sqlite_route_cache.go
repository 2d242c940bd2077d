package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"navigation-session-service/internal/adapters/routecodec"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"
	"strings"
	"time"
)

// SQLite backed route cache. Rows older than TTL are treated as misses.
// The route_cache table is created by repositories.InitSchema.
type SqliteRouteCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSqliteRouteCache(db *sql.DB, ttl time.Duration) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db, TTL: ttl, Now: time.Now}
}

func (s *SqliteRouteCache) Get(ctx context.Context, key string) (_ domain.Route, err error) {
	defer obs.Time(ctx, "route.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return domain.Route{}, errors.New("route cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return domain.Route{}, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT
        payload,
        cached_at
    FROM route_cache
    WHERE cache_key = ?;
	`

	var payload []byte
	var cachedAt int64
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Route{}, ports.ErrCacheMiss
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	if s.TTL > 0 && s.Now().Sub(time.Unix(cachedAt, 0)) > s.TTL {
		return domain.Route{}, ports.ErrCacheMiss
	}

	return routecodec.Unmarshal(payload)
}

func (s *SqliteRouteCache) Put(ctx context.Context, key string, route domain.Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	payload, err := routecodec.Marshal(route)
	if err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
        cache_key,
        payload,
        cached_at
    )
    VALUES (?, ?, ?);
	`, key, payload, s.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
