package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

// The cache degrades to a no-op when Redis is not configured; generation must
// keep working against the repository alone.
func TestSnapshotCacheWithoutClient(t *testing.T) {
	cache := NewSnapshotCache(nil, time.Minute)
	ctx := context.Background()

	snap, err := cache.Get(ctx, "school-1")
	require.NoError(t, err)
	require.Nil(t, snap)

	require.NoError(t, cache.Set(ctx, &models.Snapshot{SchoolID: "school-1"}))
	require.NoError(t, cache.Invalidate(ctx, "school-1"))
}

func TestSnapshotCacheNilReceiver(t *testing.T) {
	var cache *SnapshotCache
	ctx := context.Background()

	snap, err := cache.Get(ctx, "school-1")
	require.NoError(t, err)
	require.Nil(t, snap)
	require.NoError(t, cache.Set(ctx, nil))
	require.NoError(t, cache.Invalidate(ctx, "school-1"))
}

func TestSnapshotKey(t *testing.T) {
	require.Equal(t, "timetable:snapshot:school-1", snapshotKey("school-1"))
}
