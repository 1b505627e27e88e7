package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	viewKeyPrefix    = "worklog:view:"  // Cached dashboard payload: worklog:view:{kind}:{viewer}:{params}
	ownerIndexPrefix = "worklog:owner:" // Set of view keys that read an owner's activities: worklog:owner:{owner_id}
	defaultTTL       = 5 * time.Minute
)

// DashboardCache keeps computed dashboard views in Redis. Every cached view is
// indexed under each owner whose activities it was built from, so a write by
// one owner drops exactly the views that could have changed.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDashboardCache creates a new DashboardCache. A non-positive ttl falls
// back to five minutes.
func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DashboardCache{client: client, ttl: ttl}
}

// Key builds a view key from its kind, the viewer and any query parameters.
func Key(kind, viewerID string, params ...string) string {
	parts := append([]string{kind, viewerID}, params...)
	return viewKeyPrefix + strings.Join(parts, ":")
}

// Get decodes the cached view into dst. The bool is false on a miss.
func (c *DashboardCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached view: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// A payload we can no longer decode is as good as a miss.
		c.client.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set stores v under key and records key in the index of every owner.
func (c *DashboardCache) Set(ctx context.Context, key string, ownerIDs []string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	for _, owner := range ownerIDs {
		idx := ownerIndexKey(owner)
		pipe.SAdd(ctx, idx, key)
		pipe.Expire(ctx, idx, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache view: %w", err)
	}
	return nil
}

// InvalidateOwner drops every view built from ownerID's activities.
func (c *DashboardCache) InvalidateOwner(ctx context.Context, ownerID string) error {
	idx := ownerIndexKey(ownerID)

	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read owner index: %w", err)
	}

	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, idx)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate owner views: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *DashboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func ownerIndexKey(ownerID string) string {
	return ownerIndexPrefix + ownerID
}
