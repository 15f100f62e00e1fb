package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/melhorenem-api/internal/dto"
)

// DashboardCache stores rendered dashboards per owner in Redis. A nil *DashboardCache is valid
// and caches nothing.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDashboardCache wraps the redis client; it returns nil when client is nil.
func NewDashboardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *DashboardCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "dashboard_cache").Logger(),
	}
}

func dashboardCacheKey(ownerID string) string {
	return fmt.Sprintf("dashboard:owner:%s", ownerID)
}

// Get returns the cached dashboard for the owner, if any. Cache errors are logged and treated as misses.
func (c *DashboardCache) Get(ctx context.Context, ownerID string) (dto.DashboardResponse, bool) {
	if c == nil {
		return dto.DashboardResponse{}, false
	}

	cached, err := c.client.Get(ctx, dashboardCacheKey(ownerID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		return dto.DashboardResponse{}, false
	}

	var response dto.DashboardResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		c.logger.Warn().Err(err).Msg("discarding undecodable dashboard cache entry")
		return dto.DashboardResponse{}, false
	}
	return response, true
}

// Set stores the dashboard for the owner.
func (c *DashboardCache) Set(ctx context.Context, ownerID string, response dto.DashboardResponse) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode dashboard cache entry")
		return
	}
	if err := c.client.Set(ctx, dashboardCacheKey(ownerID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}

// Invalidate drops the owner's cached dashboard after a write.
func (c *DashboardCache) Invalidate(ctx context.Context, ownerID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, dashboardCacheKey(ownerID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to invalidate dashboard cache")
	}
}
