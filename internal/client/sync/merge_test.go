package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelway/wheelway/internal/client/store"
	"github.com/wheelway/wheelway/internal/waysdk"
)

func newTestMerger(t *testing.T) (*Merger, *fakeProfileSink, *fakeTripSink, *fakeRatingSink, *store.Stores) {
	t.Helper()
	stores, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	profiles := &fakeProfileSink{}
	trips := &fakeTripSink{}
	ratings := &fakeRatingSink{}
	return NewMerger(profiles, trips, ratings, stores), profiles, trips, ratings, stores
}

func TestMerger_PullsRemoteOntoFreshStore(t *testing.T) {
	merger, profiles, trips, ratings, stores := newTestMerger(t)
	ctx := context.Background()

	profiles.owned = []*waysdk.ProfileRecord{
		{ID: "maria@example.com", DisplayName: "Maria", MobilityAid: "wheelchair"},
	}
	trips.owned = []*waysdk.TripRecord{
		{ID: "trip-1", OwnerID: "maria@example.com", Route: [][2]float64{{16.37, 48.2}}},
		{ID: "trip-2", OwnerID: "maria@example.com"},
	}
	ratings.owned = []*waysdk.RatingRecord{
		{ID: "rating-1", OwnerID: "maria@example.com", FeatureRef: "osm:42", Score: 4},
	}

	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	profile, err := stores.Profiles.Get(ctx, "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, "wheelchair", profile.MobilityAid)

	trip, err := stores.Trips.Get(ctx, "trip-1")
	require.NoError(t, err)
	// wire [lon, lat] comes back as local lat/lon
	require.Len(t, trip.Path, 1)
	assert.InDelta(t, 48.2, trip.Path[0].Lat, 1e-9)
	assert.InDelta(t, 16.37, trip.Path[0].Lon, 1e-9)

	rating, err := stores.Ratings.Get(ctx, "rating-1")
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Score)
}

// records already present locally are never clobbered by the remote copy
func TestMerger_LocalRecordWins(t *testing.T) {
	merger, _, trips, _, stores := newTestMerger(t)
	ctx := context.Background()

	local := &store.Trip{ID: "trip-1", Label: "edited offline"}
	require.NoError(t, stores.Trips.Put(ctx, local.ID, local))

	trips.owned = []*waysdk.TripRecord{
		{ID: "trip-1", Label: "stale server copy"},
		{ID: "trip-2", Label: "only known remotely"},
	}

	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	kept, err := stores.Trips.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "edited offline", kept.Label)

	pulled, err := stores.Trips.Get(ctx, "trip-2")
	require.NoError(t, err)
	assert.Equal(t, "only known remotely", pulled.Label)
}

// a remote copy with a newer timestamp still loses to the local edit
func TestMerger_NewerRemoteStillLoses(t *testing.T) {
	merger, _, trips, _, stores := newTestMerger(t)
	ctx := context.Background()

	edited := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	local := &store.Trip{ID: "trip-1", Label: "edited offline", UpdatedAt: edited}
	require.NoError(t, stores.Trips.Put(ctx, local.ID, local))

	trips.owned = []*waysdk.TripRecord{
		{ID: "trip-1", Label: "newer server copy", UpdatedAt: edited.Add(time.Hour)},
	}

	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	kept, err := stores.Trips.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "edited offline", kept.Label)
	assert.Equal(t, edited, kept.UpdatedAt)
}

// rerunning the merge after a partial failure must not duplicate or overwrite
func TestMerger_Idempotent(t *testing.T) {
	merger, _, trips, ratings, stores := newTestMerger(t)
	ctx := context.Background()

	trips.owned = []*waysdk.TripRecord{{ID: "trip-1", Label: "from remote"}}
	ratings.owned = []*waysdk.RatingRecord{{ID: "rating-1", Score: 3}}

	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	// local edit between the two runs
	trip, err := stores.Trips.Get(ctx, "trip-1")
	require.NoError(t, err)
	trip.Label = "edited after first merge"
	require.NoError(t, stores.Trips.Put(ctx, trip.ID, trip))

	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	trip, err = stores.Trips.Get(ctx, "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "edited after first merge", trip.Label)

	all, err := stores.Trips.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMerger_ListFailureAborts(t *testing.T) {
	merger, profiles, trips, _, stores := newTestMerger(t)
	ctx := context.Background()

	profiles.listErr = errors.New("connection reset")
	trips.owned = []*waysdk.TripRecord{{ID: "trip-1"}}

	err := merger.MergeFromRemote(ctx, "maria@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list remote profiles")

	// trips may or may not have landed before the failure; a rerun after the
	// listing recovers must still converge
	profiles.listErr = nil
	profiles.owned = []*waysdk.ProfileRecord{{ID: "maria@example.com"}}
	require.NoError(t, merger.MergeFromRemote(ctx, "maria@example.com"))

	has, err := stores.Trips.Has(ctx, "trip-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMerger_RequiresOwner(t *testing.T) {
	merger, _, _, _, _ := newTestMerger(t)
	err := merger.MergeFromRemote(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingIdentity)
}
