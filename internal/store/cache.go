package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/confpilot/internal/agenda"
	"github.com/mohammad-safakhou/confpilot/internal/telemetry"
)

const catalogKey = "catalog:sessions"

// ErrCacheMiss is returned when the catalog has not been cached yet.
var ErrCacheMiss = errors.New("catalog cache miss")

// CatalogCache keeps the session catalog in redis so agenda builds don't
// hit Postgres on every request.
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached catalog or ErrCacheMiss.
func (c *CatalogCache) Get(ctx context.Context) ([]agenda.Session, error) {
	raw, err := c.rdb.Get(ctx, catalogKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var sessions []agenda.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, fmt.Errorf("decoding cached catalog: %w", err)
	}
	return sessions, nil
}

// Set replaces the cached catalog.
func (c *CatalogCache) Set(ctx context.Context, sessions []agenda.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, catalogKey, raw, c.ttl).Err()
}

// Invalidate drops the cached catalog; the next Get falls through to
// Postgres via Refresh.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogKey).Err()
}

// Refresh reads the catalog from the store and re-populates the cache.
func (c *CatalogCache) Refresh(ctx context.Context, s *Store) ([]agenda.Session, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Sessions is the read-through path: cached copy when present, Postgres
// (plus a cache write) when not.
func (c *CatalogCache) Sessions(ctx context.Context, s *Store) ([]agenda.Session, error) {
	sessions, err := c.Get(ctx)
	if err == nil {
		telemetry.CatalogCacheHits.Inc()
		return sessions, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	telemetry.CatalogCacheMisses.Inc()
	return c.Refresh(ctx, s)
}
