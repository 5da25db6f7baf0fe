package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/pkg/cache"
	"go.opentelemetry.io/otel/attribute"
)

const (
	snapshotKeyPart    = "offerings"
	lastVisitedKeyPart = "lastvisited"
)

// Visitor identifies whose last-visited pointer to read or write. Authenticated
// actors are keyed by ActorID, anonymous ones by their session cookie.
type Visitor struct {
	ActorID   string
	SessionID string
}

// key returns the visitor's key parts, or nil when the visitor is unidentified.
func (v Visitor) key() []string {
	switch {
	case v.ActorID != "":
		return []string{"user", v.ActorID}
	case v.SessionID != "":
		return []string{"session", v.SessionID}
	}
	return nil
}

// OfferingCacheConfig holds the cache key namespace and entry lifetimes.
type OfferingCacheConfig struct {
	KeyPrefix      string
	SnapshotTTL    time.Duration
	LastVisitedTTL time.Duration
}

// OfferingCache keeps the read-optimised views of offerings: the active
// offerings snapshot and each visitor's last-visited pointer.
//
// The cache is never authoritative. Any store failure is logged and treated
// as a miss, so callers see the same results with or without a working store.
type OfferingCache struct {
	store  cache.Store
	keys   cache.Keys
	cfg    OfferingCacheConfig
	logger zerolog.Logger
}

// NewOfferingCache creates an OfferingCache over store
func NewOfferingCache(store cache.Store, cfg OfferingCacheConfig, logger zerolog.Logger) *OfferingCache {
	if store == nil {
		store = cache.Disabled{}
	}
	return &OfferingCache{
		store:  store,
		keys:   cache.Keys{Prefix: cfg.KeyPrefix},
		cfg:    cfg,
		logger: logger.With().Str("component", "offering_cache").Logger(),
	}
}

func (c *OfferingCache) snapshotKey() string {
	return c.keys.Key(snapshotKeyPart, "active")
}

// ActiveOfferings returns the active offerings snapshot, calling load on a miss,
// an undecodable entry or a store failure. A freshly loaded list is written
// back on a best-effort basis.
func (c *OfferingCache) ActiveOfferings(ctx context.Context, load func(ctx context.Context) ([]*models.Offering, error)) ([]*models.Offering, error) {
	ctx, span := tracer.Start(ctx, "OfferingCache.ActiveOfferings")
	defer span.End()

	key := c.snapshotKey()
	res, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn().Err(err).Str("key", key).Msg("Snapshot read failed, loading from database")
	case res.Found:
		var offerings []*models.Offering
		err := json.Unmarshal(res.Value, &offerings)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return offerings, nil
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable snapshot")
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	offerings, err := load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(offerings)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode snapshot")
		return offerings, nil
	}
	if err := c.store.Set(ctx, key, payload, c.cfg.SnapshotTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Snapshot write failed")
	}
	return offerings, nil
}

// InvalidateActiveOfferings drops the snapshot so the next read reloads it.
// It runs after the mutation has committed, even if the request was cancelled.
func (c *OfferingCache) InvalidateActiveOfferings(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	key := c.snapshotKey()
	if err := c.store.Delete(ctx, key); err != nil {
		// The stale entry expires on its own after SnapshotTTL.
		c.logger.Warn().Err(err).Str("key", key).Dur("ttl", c.cfg.SnapshotTTL).Msg("Snapshot invalidation failed")
	}
}

// RememberVisit points the visitor's last-visited entry at ref.
func (c *OfferingCache) RememberVisit(ctx context.Context, visitor Visitor, ref models.OfferingRef) {
	parts := visitor.key()
	if parts == nil {
		return
	}
	key := c.keys.Key(append([]string{lastVisitedKeyPart}, parts...)...)

	payload, err := json.Marshal(ref)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode last-visited pointer")
		return
	}
	if err := c.store.Set(ctx, key, payload, c.cfg.LastVisitedTTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Last-visited write failed")
	}
}

// LastVisited returns the visitor's last-visited pointer. Absent, expired,
// undecodable and unreachable entries all read as not found.
func (c *OfferingCache) LastVisited(ctx context.Context, visitor Visitor) (*models.OfferingRef, bool) {
	parts := visitor.key()
	if parts == nil {
		return nil, false
	}
	key := c.keys.Key(append([]string{lastVisitedKeyPart}, parts...)...)

	res, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Last-visited read failed")
		return nil, false
	}
	if !res.Found {
		return nil, false
	}

	var ref models.OfferingRef
	if err := json.Unmarshal(res.Value, &ref); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding undecodable last-visited pointer")
		return nil, false
	}
	return &ref, true
}
