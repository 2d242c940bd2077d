package cache

import (
	"context"
	"errors"
	"fmt"
	"navigation-session-service/internal/adapters/routecodec"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "route:"

// RedisRouteCache stores routes as JSON values with a TTL.
type RedisRouteCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{Client: client, TTL: ttl}
}

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ domain.Route, err error) {
	defer obs.Time(ctx, "route.cache.redis.Get")(&err)

	if c.Client == nil {
		return domain.Route{}, errors.New("route cache: redis client is nil")
	}

	b, err := c.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Route{}, ports.ErrCacheMiss
	}
	if err != nil {
		return domain.Route{}, fmt.Errorf("get route cache %q: %w", key, err)
	}

	return routecodec.Unmarshal(b)
}

func (c *RedisRouteCache) Put(ctx context.Context, key string, route domain.Route) error {
	if c.Client == nil {
		return errors.New("route cache: redis client is nil")
	}

	b, err := routecodec.Marshal(route)
	if err != nil {
		return fmt.Errorf("put route cache %q: %w", key, err)
	}

	if err := c.Client.Set(ctx, redisKeyPrefix+key, b, c.TTL).Err(); err != nil {
		return fmt.Errorf("put route cache %q: %w", key, err)
	}
	return nil
}
