package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wheelway/wheelway/internal/client/identity"
	"github.com/wheelway/wheelway/internal/client/store"
	"github.com/wheelway/wheelway/internal/waysdk"
)

// Remote sink interfaces, one per record collection. The concrete waysdk APIs
// satisfy these; tests plug in fakes.

type ProfileSink interface {
	Create(ctx context.Context, record *waysdk.ProfileRecord) error
	Update(ctx context.Context, id string, record *waysdk.ProfileRecord) error
	Delete(ctx context.Context, id string) error
	ListOwned(ctx context.Context, ownerID string) ([]*waysdk.ProfileRecord, error)
}

type TripSink interface {
	Create(ctx context.Context, record *waysdk.TripRecord) error
	Update(ctx context.Context, id string, record *waysdk.TripRecord) error
	Delete(ctx context.Context, id string) error
	ListOwned(ctx context.Context, ownerID string) ([]*waysdk.TripRecord, error)
}

type RatingSink interface {
	Create(ctx context.Context, record *waysdk.RatingRecord) error
	Update(ctx context.Context, id string, record *waysdk.RatingRecord) error
	Delete(ctx context.Context, id string) error
	ListOwned(ctx context.Context, ownerID string) ([]*waysdk.RatingRecord, error)
}

// Dispatcher sends one queued mutation to the remote
type Dispatcher interface {
	Dispatch(ctx context.Context, item *SyncItem) error
}

// Adapter translates queued local mutations into remote operations. Each
// record type has its own handler; an insert that fails with the remote's
// duplicate-key error is transparently retried as an update, since
// insert-after-partial-sync is expected under at-least-once delivery.
type Adapter struct {
	profiles ProfileSink
	trips    TripSink
	ratings  RatingSink
	identity identity.Provider
	stores   *store.Stores

	handlers map[RecordType]func(ctx context.Context, item *SyncItem, ownerID string) error
}

func NewAdapter(profiles ProfileSink, trips TripSink, ratings RatingSink, idp identity.Provider, stores *store.Stores) *Adapter {
	a := &Adapter{
		profiles: profiles,
		trips:    trips,
		ratings:  ratings,
		identity: idp,
		stores:   stores,
	}
	a.handlers = map[RecordType]func(context.Context, *SyncItem, string) error{
		RecordProfile: a.dispatchProfile,
		RecordTrip:    a.dispatchTrip,
		RecordRating:  a.dispatchRating,
	}
	return a
}

// Dispatch sends item to the remote, returning nil on durable confirmation.
// The returned error classifies via waysdk.IsRetryable; ErrMissingIdentity is
// always terminal.
func (a *Adapter) Dispatch(ctx context.Context, item *SyncItem) error {
	handler, ok := a.handlers[item.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRecordType, item.Type)
	}
	if item.Data == nil {
		return fmt.Errorf("sync item %s has no payload", item.ID)
	}

	ownerID := item.OwnerID
	if ownerID == "" {
		// resolved lazily for items enqueued before sign-in completed
		resolved, err := a.identity.CurrentUserID(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMissingIdentity, item.ID)
		}
		ownerID = resolved
	}

	if err := handler(ctx, item, ownerID); err != nil {
		return err
	}

	if item.Operation != OpDelete {
		a.markSynced(ctx, item)
	}
	return nil
}

func (a *Adapter) dispatchProfile(ctx context.Context, item *SyncItem, ownerID string) error {
	p, ok := item.Data.(*store.Profile)
	if !ok {
		return fmt.Errorf("sync item %s: payload is not a profile", item.ID)
	}
	rec := profileToWire(p)
	if rec.ID == "" {
		rec.ID = ownerID
	}

	switch item.Operation {
	case OpInsert:
		return a.insertWithFallback(item,
			func() error { return a.profiles.Create(ctx, rec) },
			func() error { return a.profiles.Update(ctx, rec.ID, rec) },
		)
	case OpUpdate:
		return a.profiles.Update(ctx, rec.ID, rec)
	case OpDelete:
		return a.profiles.Delete(ctx, rec.ID)
	default:
		return fmt.Errorf("sync item %s: invalid operation %q", item.ID, item.Operation)
	}
}

func (a *Adapter) dispatchTrip(ctx context.Context, item *SyncItem, ownerID string) error {
	t, ok := item.Data.(*store.Trip)
	if !ok {
		return fmt.Errorf("sync item %s: payload is not a trip", item.ID)
	}
	rec := tripToWire(t, ownerID)

	switch item.Operation {
	case OpInsert:
		return a.insertWithFallback(item,
			func() error { return a.trips.Create(ctx, rec) },
			func() error { return a.trips.Update(ctx, rec.ID, rec) },
		)
	case OpUpdate:
		return a.trips.Update(ctx, rec.ID, rec)
	case OpDelete:
		return a.trips.Delete(ctx, rec.ID)
	default:
		return fmt.Errorf("sync item %s: invalid operation %q", item.ID, item.Operation)
	}
}

func (a *Adapter) dispatchRating(ctx context.Context, item *SyncItem, ownerID string) error {
	f, ok := item.Data.(*store.FeatureRating)
	if !ok {
		return fmt.Errorf("sync item %s: payload is not a rating", item.ID)
	}
	rec := ratingToWire(f, ownerID)

	switch item.Operation {
	case OpInsert:
		return a.insertWithFallback(item,
			func() error { return a.ratings.Create(ctx, rec) },
			func() error { return a.ratings.Update(ctx, rec.ID, rec) },
		)
	case OpUpdate:
		return a.ratings.Update(ctx, rec.ID, rec)
	case OpDelete:
		return a.ratings.Delete(ctx, rec.ID)
	default:
		return fmt.Errorf("sync item %s: invalid operation %q", item.ID, item.Operation)
	}
}

// insertWithFallback runs insert and, on the remote's duplicate-key failure,
// retries the same payload as an update within the same dispatch.
func (a *Adapter) insertWithFallback(item *SyncItem, insert, update func() error) error {
	err := insert()
	if err == nil {
		return nil
	}
	if !waysdk.IsDuplicateKey(err) {
		return err
	}

	slog.Debug("insert hit existing remote record, retrying as update",
		"item", item.ID, "record", item.Data.RecordID())
	return update()
}

// markSynced stamps SyncedAt on the local record for display purposes. Purely
// cosmetic; the queue is the authoritative record of what is unconfirmed, so
// failures here are logged and swallowed.
func (a *Adapter) markSynced(ctx context.Context, item *SyncItem) {
	if a.stores == nil {
		return
	}

	now := time.Now().UTC()
	recordID := item.Data.RecordID()

	var err error
	switch item.Type {
	case RecordProfile:
		var p *store.Profile
		if p, err = a.stores.Profiles.Get(ctx, recordID); err == nil {
			p.SyncedAt = &now
			err = a.stores.Profiles.Put(ctx, recordID, p)
		}
	case RecordTrip:
		var t *store.Trip
		if t, err = a.stores.Trips.Get(ctx, recordID); err == nil {
			t.SyncedAt = &now
			err = a.stores.Trips.Put(ctx, recordID, t)
		}
	case RecordRating:
		var f *store.FeatureRating
		if f, err = a.stores.Ratings.Get(ctx, recordID); err == nil {
			f.SyncedAt = &now
			err = a.stores.Ratings.Put(ctx, recordID, f)
		}
	}

	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		slog.Debug("failed to mark record synced", "record", recordID, "error", err)
	}
}
