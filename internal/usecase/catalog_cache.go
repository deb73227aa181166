package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fplscout/transfer-advisor/internal/domain/catalog"
	"github.com/fplscout/transfer-advisor/internal/platform/resilience"
)

// CatalogFetcher retrieves the full upstream catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (catalog.Bundle, error)
}

// CatalogCacheConfig controls staleness bounds and the refresh-failure
// policy of the catalog cache.
type CatalogCacheConfig struct {
	// TTL is the validity window of a snapshot. Defaults to 24h.
	TTL time.Duration
	// ServeStale keeps serving the previous snapshot when a refresh fails.
	// When false the refresh error is surfaced even if a snapshot exists.
	ServeStale bool
}

func NormalizeCatalogCacheConfig(cfg CatalogCacheConfig) CatalogCacheConfig {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return cfg
}

// CatalogCache holds the latest catalog snapshot and refreshes it lazily
// once its validity window elapses. Concurrent misses coalesce into a
// single upstream fetch; readers always see a fully formed snapshot via an
// atomic pointer swap.
type CatalogCache struct {
	fetcher CatalogFetcher
	cfg     CatalogCacheConfig
	logger  *slog.Logger
	now     func() time.Time

	current atomic.Pointer[catalog.Snapshot]
	flight  resilience.SingleFlight

	mu      sync.Mutex
	expired bool
}

func NewCatalogCache(fetcher CatalogFetcher, cfg CatalogCacheConfig, logger *slog.Logger) *CatalogCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogCache{
		fetcher: fetcher,
		cfg:     NormalizeCatalogCacheConfig(cfg),
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot returns the held snapshot while it is fresh, otherwise performs
// a synchronous refresh. On refresh failure the previous snapshot is served
// when ServeStale is set; without any prior snapshot the failure propagates
// as ErrUpstreamUnavailable (or ErrUpstreamTimeout).
func (c *CatalogCache) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogCache.Snapshot")
	defer span.End()

	if snap := c.current.Load(); snap != nil && c.fresh(snap) {
		return snap, nil
	}

	v, err, shared := c.flight.Do("catalog", func() (any, error) {
		// A waiter queued behind the winning fetch sees a fresh snapshot here.
		if snap := c.current.Load(); snap != nil && c.fresh(snap) {
			return snap, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	snap := v.(*catalog.Snapshot)
	if shared {
		c.logger.DebugContext(ctx, "catalog fetch shared with concurrent caller")
	}
	return snap, nil
}

// Invalidate forces the next Snapshot call to refetch regardless of age.
// The cache owns no timer; a scheduling collaborator calls this on its own
// interval.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	c.expired = true
	c.mu.Unlock()
}

func (c *CatalogCache) fresh(snap *catalog.Snapshot) bool {
	c.mu.Lock()
	expired := c.expired
	c.mu.Unlock()
	if expired {
		return false
	}
	return c.now().Sub(snap.FetchedAt()) < c.cfg.TTL
}

func (c *CatalogCache) refresh(ctx context.Context) (*catalog.Snapshot, error) {
	started := c.now()
	bundle, err := c.fetcher.FetchCatalog(ctx)
	if err != nil {
		if prev := c.current.Load(); prev != nil && c.cfg.ServeStale {
			c.logger.WarnContext(ctx, "catalog refresh failed, serving stale snapshot",
				"error", err,
				"snapshot_age", c.now().Sub(prev.FetchedAt()).String(),
			)
			return prev, nil
		}
		return nil, mapUpstreamError("fetch catalog", err)
	}

	snap := catalog.NewSnapshot(bundle, c.now())
	c.current.Store(snap)
	c.mu.Lock()
	c.expired = false
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "catalog snapshot refreshed",
		"players", snap.PlayerCount(),
		"teams", snap.TeamCount(),
		"duration_ms", c.now().Sub(started).Milliseconds(),
	)
	return snap, nil
}
