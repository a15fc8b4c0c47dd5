package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV_RoundTrip(t *testing.T) {
	kv, err := OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	ctx := context.Background()

	_, err = kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "a", []byte("one")))
	require.NoError(t, kv.Set(ctx, "a", []byte("two"))) // overwrite

	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, kv.Delete(ctx, "a"))
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// deleting a missing key is fine
	require.NoError(t, kv.Delete(ctx, "a"))
}

func TestKV_ListByPrefix(t *testing.T) {
	kv, err := OpenKV(":memory:")
	require.NoError(t, err)
	defer kv.Close()

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "trip/1", []byte("t1")))
	require.NoError(t, kv.Set(ctx, "trip/2", []byte("t2")))
	require.NoError(t, kv.Set(ctx, "rating/1", []byte("r1")))

	trips, err := kv.List(ctx, "trip/")
	require.NoError(t, err)
	assert.Len(t, trips, 2)
	assert.Equal(t, []byte("t1"), trips["trip/1"])
}

func TestKV_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	kv, err := OpenKV(dbPath)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	require.NoError(t, kv.Close())

	kv2, err := OpenKV(dbPath)
	require.NoError(t, err)
	defer kv2.Close()

	got, err := kv2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRecords_TripLifecycle(t *testing.T) {
	stores, err := Open(":memory:")
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	trip := &Trip{
		ID:             "trip-1",
		OwnerID:        "maria@example.com",
		Label:          "to the library",
		StartedAt:      time.Now().Add(-time.Hour).UTC(),
		DistanceMeters: 1200,
		Path:           []GeoPoint{{Lat: 52.52, Lon: 13.405}, {Lat: 52.53, Lon: 13.41}},
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	ok, err := stores.Trips.Has(ctx, trip.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, stores.Trips.Put(ctx, trip.ID, trip))

	got, err := stores.Trips.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.Label, got.Label)
	assert.Len(t, got.Path, 2)
	assert.InDelta(t, 52.52, got.Path[0].Lat, 1e-9)

	all, err := stores.Trips.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, stores.Trips.Delete(ctx, trip.ID))
	_, err = stores.Trips.Get(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRecords_CollectionsAreIsolated(t *testing.T) {
	stores, err := Open(":memory:")
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()
	require.NoError(t, stores.Ratings.Put(ctx, "r1", &FeatureRating{ID: "r1", FeatureRef: "osm:123", Score: 4}))

	trips, err := stores.Trips.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, trips)

	ratings, err := stores.Ratings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}
