package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wheelway/wheelway/internal/client/store"
)

// Merger performs the one-time bootstrap merge after login: it pulls the
// user's existing remote records onto a fresh local store without duplicating
// anything already present. Records land directly in local storage, never in
// the sync queue -- they are by definition already confirmed remotely.
type Merger struct {
	profiles ProfileSink
	trips    TripSink
	ratings  RatingSink
	stores   *store.Stores
}

func NewMerger(profiles ProfileSink, trips TripSink, ratings RatingSink, stores *store.Stores) *Merger {
	return &Merger{
		profiles: profiles,
		trips:    trips,
		ratings:  ratings,
		stores:   stores,
	}
}

// MergeFromRemote reconciles the owner's remote records into local storage.
// Idempotent: records already present locally are skipped by durable
// identity, so re-running after a partial failure never duplicates.
func (m *Merger) MergeFromRemote(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrMissingIdentity
	}

	eg, egCtx := errgroup.WithContext(ctx)

	var profiles, trips, ratings int

	eg.Go(func() error {
		n, err := m.mergeProfiles(egCtx, ownerID)
		profiles = n
		return err
	})
	eg.Go(func() error {
		n, err := m.mergeTrips(egCtx, ownerID)
		trips = n
		return err
	})
	eg.Go(func() error {
		n, err := m.mergeRatings(egCtx, ownerID)
		ratings = n
		return err
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("bootstrap merge for %s: %w", ownerID, err)
	}

	slog.Info("bootstrap merge complete",
		"owner", ownerID,
		"profiles", profiles,
		"trips", trips,
		"ratings", ratings,
	)
	return nil
}

func (m *Merger) mergeProfiles(ctx context.Context, ownerID string) (int, error) {
	records, err := m.profiles.ListOwned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list remote profiles: %w", err)
	}

	merged := 0
	for _, rec := range records {
		local, err := m.stores.Profiles.Get(ctx, rec.ID)
		if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			return merged, err
		}
		var localUpdated *time.Time
		if local != nil {
			localUpdated = &local.UpdatedAt
		}
		if Resolve(rec.ID, localUpdated, rec.UpdatedAt) == KeepLocal {
			continue
		}
		if err := m.stores.Profiles.Put(ctx, rec.ID, profileFromWire(rec)); err != nil {
			return merged, fmt.Errorf("merge profile %s: %w", rec.ID, err)
		}
		merged++
	}
	return merged, nil
}

func (m *Merger) mergeTrips(ctx context.Context, ownerID string) (int, error) {
	records, err := m.trips.ListOwned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list remote trips: %w", err)
	}

	merged := 0
	for _, rec := range records {
		local, err := m.stores.Trips.Get(ctx, rec.ID)
		if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			return merged, err
		}
		var localUpdated *time.Time
		if local != nil {
			localUpdated = &local.UpdatedAt
		}
		if Resolve(rec.ID, localUpdated, rec.UpdatedAt) == KeepLocal {
			continue
		}
		if err := m.stores.Trips.Put(ctx, rec.ID, tripFromWire(rec)); err != nil {
			return merged, fmt.Errorf("merge trip %s: %w", rec.ID, err)
		}
		merged++
	}
	return merged, nil
}

func (m *Merger) mergeRatings(ctx context.Context, ownerID string) (int, error) {
	records, err := m.ratings.ListOwned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list remote ratings: %w", err)
	}

	merged := 0
	for _, rec := range records {
		local, err := m.stores.Ratings.Get(ctx, rec.ID)
		if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			return merged, err
		}
		var localUpdated *time.Time
		if local != nil {
			localUpdated = &local.UpdatedAt
		}
		if Resolve(rec.ID, localUpdated, rec.UpdatedAt) == KeepLocal {
			continue
		}
		if err := m.stores.Ratings.Put(ctx, rec.ID, ratingFromWire(rec)); err != nil {
			return merged, fmt.Errorf("merge rating %s: %w", rec.ID, err)
		}
		merged++
	}
	return merged, nil
}
