package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SnapshotCache memoizes generation input snapshots in Redis. It is an
// explicit dependency handed to the service, and must be invalidated after
// every schedule replacement.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache builds the cache; ttl bounds staleness between runs.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(schoolID string) string {
	return "timetable:snapshot:" + schoolID
}

// Get returns the cached snapshot for the school, or nil on miss.
func (c *SnapshotCache) Get(ctx context.Context, schoolID string) (*models.Snapshot, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, snapshotKey(schoolID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot cache: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores the snapshot under the school key.
func (c *SnapshotCache) Set(ctx context.Context, snap *models.Snapshot) error {
	if c == nil || c.client == nil || snap == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(snap.SchoolID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot after a schedule replacement.
func (c *SnapshotCache) Invalidate(ctx context.Context, schoolID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, snapshotKey(schoolID)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot cache: %w", err)
	}
	return nil
}
