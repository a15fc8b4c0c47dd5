package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/wheelway/wheelway/internal/waysdk"
)

// fakeDispatcher is a scriptable Dispatcher for engine tests
type fakeDispatcher struct {
	mu    gosync.Mutex
	calls []string // dispatched item ids, in order
	fail  func(item *SyncItem) error
	delay time.Duration
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, item *SyncItem) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, item.ID)
	f.mu.Unlock()

	if f.fail != nil {
		return f.fail(item)
	}
	return nil
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeProfileSink records remote profile operations
type fakeProfileSink struct {
	mu        gosync.Mutex
	created   []*waysdk.ProfileRecord
	updated   map[string]*waysdk.ProfileRecord
	deleted   []string
	owned     []*waysdk.ProfileRecord
	createErr error
	updateErr error
	listErr   error
}

func (f *fakeProfileSink) Create(ctx context.Context, record *waysdk.ProfileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeProfileSink) Update(ctx context.Context, id string, record *waysdk.ProfileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]*waysdk.ProfileRecord)
	}
	f.updated[id] = record
	return nil
}

func (f *fakeProfileSink) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProfileSink) ListOwned(ctx context.Context, ownerID string) ([]*waysdk.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned, f.listErr
}

// fakeTripSink records remote trip operations
type fakeTripSink struct {
	mu        gosync.Mutex
	created   []*waysdk.TripRecord
	updated   map[string]*waysdk.TripRecord
	deleted   []string
	owned     []*waysdk.TripRecord
	createErr error
}

func (f *fakeTripSink) Create(ctx context.Context, record *waysdk.TripRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeTripSink) Update(ctx context.Context, id string, record *waysdk.TripRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[string]*waysdk.TripRecord)
	}
	f.updated[id] = record
	return nil
}

func (f *fakeTripSink) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTripSink) ListOwned(ctx context.Context, ownerID string) ([]*waysdk.TripRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned, nil
}

// fakeRatingSink records remote rating operations
type fakeRatingSink struct {
	mu        gosync.Mutex
	created   []*waysdk.RatingRecord
	updated   map[string]*waysdk.RatingRecord
	deleted   []string
	owned     []*waysdk.RatingRecord
	createErr error
}

func (f *fakeRatingSink) Create(ctx context.Context, record *waysdk.RatingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, record)
	return nil
}

func (f *fakeRatingSink) Update(ctx context.Context, id string, record *waysdk.RatingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[string]*waysdk.RatingRecord)
	}
	f.updated[id] = record
	return nil
}

func (f *fakeRatingSink) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRatingSink) ListOwned(ctx context.Context, ownerID string) ([]*waysdk.RatingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned, nil
}
