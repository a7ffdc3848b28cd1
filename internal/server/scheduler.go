package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/confpilot/internal/store"
	"github.com/mohammad-safakhou/confpilot/internal/telemetry"
	"github.com/mohammad-safakhou/confpilot/tools/relevance"
)

const lastRefreshKey = "sched:last:catalog"

// Scheduler refreshes the catalog cache and the search index on a cron
// schedule. A redis lock keeps multiple replicas from refreshing at once.
type Scheduler struct {
	Store    *store.Store
	Cache    *store.CatalogCache
	Index    *relevance.Index
	Rdb      *redis.Client
	Schedule string
	LockTTL  time.Duration
	Stop     chan struct{}
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(15 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	last := s.lastRefresh(ctx)
	if !isDue(s.Schedule, last) {
		return
	}

	// distributed lock to avoid duplicate refreshes
	if s.Rdb != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		ok, _ := s.Rdb.SetNX(ctx, "sched:lock:catalog", "1", ttl).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sched:lock:catalog")
	}

	logger := log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	sessions, err := s.Cache.Refresh(ctx, s.Store)
	if err != nil {
		logger.Printf("catalog refresh failed: %v", err)
		return
	}
	if s.Index != nil {
		if err := s.Index.IndexCatalog(ctx, sessions); err != nil {
			logger.Printf("catalog reindex failed: %v", err)
		}
	}
	if s.Rdb != nil {
		_ = s.Rdb.Set(ctx, lastRefreshKey, time.Now().UTC().Format(time.RFC3339), 0).Err()
	}
	telemetry.CatalogRefreshes.Inc()
	logger.Printf("catalog refreshed: %d sessions", len(sessions))
}

func (s *Scheduler) lastRefresh(ctx context.Context) *time.Time {
	if s.Rdb == nil {
		return nil
	}
	raw, err := s.Rdb.Get(ctx, lastRefreshKey).Result()
	if err != nil {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &ts
}

// isDue determines if a refresh with cronSpec should run now based on the
// last refresh time. Supports "@daily", "@hourly", and standard 5-field
// cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			// If never refreshed, due now
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
