package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelway/wheelway/internal/client/store"
)

func tripItem(id string, ts int64) *SyncItem {
	return &SyncItem{
		ID:        newItemID(RecordTrip, OpInsert, ts),
		Type:      RecordTrip,
		Operation: OpInsert,
		Data: &store.Trip{
			ID:             id,
			OwnerID:        "maria@example.com",
			DistanceMeters: 500,
			Path:           []store.GeoPoint{{Lat: 48.2, Lon: 16.37}},
		},
		Timestamp: ts,
		OwnerID:   "maria@example.com",
	}
}

func TestQueueStore_EmptyLoad(t *testing.T) {
	kv, err := store.OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	items, err := NewQueueStore(kv).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQueueStore_RoundTripsPayloads(t *testing.T) {
	kv, err := store.OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	qs := NewQueueStore(kv)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	attempt := now - 100
	items := []*SyncItem{
		tripItem("trip-1", now),
		{
			ID:          newItemID(RecordProfile, OpUpdate, now+1),
			Type:        RecordProfile,
			Operation:   OpUpdate,
			Data:        &store.Profile{ID: "maria@example.com", DisplayName: "Maria"},
			Timestamp:   now + 1,
			RetryCount:  2,
			LastAttempt: &attempt,
			Error:       "timeout",
			OwnerID:     "maria@example.com",
		},
		{
			ID:        newItemID(RecordRating, OpDelete, now+2),
			Type:      RecordRating,
			Operation: OpDelete,
			Data:      &store.FeatureRating{ID: "rating-9", FeatureRef: "osm:42"},
			Timestamp: now + 2,
			OwnerID:   "maria@example.com",
		},
	}
	require.NoError(t, qs.Save(ctx, items))

	loaded, err := qs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	trip, ok := loaded[0].Data.(*store.Trip)
	require.True(t, ok)
	assert.Equal(t, "trip-1", trip.ID)
	assert.InDelta(t, 16.37, trip.Path[0].Lon, 1e-9)

	profile, ok := loaded[1].Data.(*store.Profile)
	require.True(t, ok)
	assert.Equal(t, "Maria", profile.DisplayName)
	assert.Equal(t, 2, loaded[1].RetryCount)
	require.NotNil(t, loaded[1].LastAttempt)
	assert.Equal(t, attempt, *loaded[1].LastAttempt)
	assert.Equal(t, "timeout", loaded[1].Error)

	rating, ok := loaded[2].Data.(*store.FeatureRating)
	require.True(t, ok)
	assert.Equal(t, "rating-9", rating.ID)
}

// P1: every enqueued item survives a simulated process restart.
func TestQueueStore_SurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	kv, err := store.OpenKV(dbPath)
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	require.NoError(t, NewQueueStore(kv).Save(ctx, []*SyncItem{
		tripItem("trip-1", now),
		tripItem("trip-2", now+1),
	}))
	require.NoError(t, kv.Close())

	// simulated restart
	kv2, err := store.OpenKV(dbPath)
	require.NoError(t, err)
	defer kv2.Close()

	loaded, err := NewQueueStore(kv2).Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "trip-1", loaded[0].Data.RecordID())
	assert.Equal(t, "trip-2", loaded[1].Data.RecordID())
}

func TestQueueStore_LoadRestoresOldestFirst(t *testing.T) {
	kv, err := store.OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	qs := NewQueueStore(kv)
	ctx := context.Background()

	// stored out of order; load must come back oldest first
	require.NoError(t, qs.Save(ctx, []*SyncItem{
		tripItem("newest", 3000),
		tripItem("oldest", 1000),
		tripItem("middle", 2000),
	}))

	loaded, err := qs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "oldest", loaded[0].Data.RecordID())
	assert.Equal(t, "middle", loaded[1].Data.RecordID())
	assert.Equal(t, "newest", loaded[2].Data.RecordID())
}

// items enqueued within the same millisecond must keep their stored order
func TestQueueStore_SameTimestampKeepsStoredOrder(t *testing.T) {
	kv, err := store.OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	qs := NewQueueStore(kv)
	ctx := context.Background()

	require.NoError(t, qs.Save(ctx, []*SyncItem{
		tripItem("first", 1000),
		tripItem("second", 1000),
		tripItem("third", 1000),
	}))

	loaded, err := qs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "first", loaded[0].Data.RecordID())
	assert.Equal(t, "second", loaded[1].Data.RecordID())
	assert.Equal(t, "third", loaded[2].Data.RecordID())
}

func TestQueueStore_Clear(t *testing.T) {
	kv, err := store.OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	qs := NewQueueStore(kv)
	ctx := context.Background()

	require.NoError(t, qs.Save(ctx, []*SyncItem{tripItem("trip-1", 1)}))
	require.NoError(t, qs.Clear(ctx))

	items, err := qs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
