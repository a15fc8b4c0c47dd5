package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wheelway/wheelway/internal/client/store"
	"github.com/wheelway/wheelway/internal/queue"
)

// queueKey is where the whole pending queue lives in the KV store, as one
// JSON document replaced atomically on every save.
const queueKey = "sync/queue"

// itemEnvelope is the persisted form of a SyncItem; the payload is kept as
// raw JSON and decoded per record type on load.
type itemEnvelope struct {
	ID          string          `json:"id"`
	Type        RecordType      `json:"type"`
	Operation   Operation       `json:"operation"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	RetryCount  int             `json:"retryCount"`
	LastAttempt *int64          `json:"lastAttempt,omitempty"`
	Error       string          `json:"error,omitempty"`
	OwnerID     string          `json:"ownerId,omitempty"`
}

// QueueStore persists the ordered pending-mutation queue across process
// restarts. Load and Save are atomic from the caller's perspective; a failed
// Save leaves the previously stored queue intact.
type QueueStore struct {
	kv *store.KV
}

func NewQueueStore(kv *store.KV) *QueueStore {
	return &QueueStore{kv: kv}
}

// Load returns the pending queue, oldest enqueued first
func (q *QueueStore) Load(ctx context.Context) ([]*SyncItem, error) {
	raw, err := q.kv.Get(ctx, queueKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load sync queue: %w", err)
	}

	var envelopes []*itemEnvelope
	if err := json.Unmarshal(raw, &envelopes); err != nil {
		return nil, fmt.Errorf("decode sync queue: %w", err)
	}

	// re-establish oldest-first order regardless of stored order
	pq := queue.NewPriorityQueue[*SyncItem]()
	for _, env := range envelopes {
		item, err := env.toItem()
		if err != nil {
			return nil, err
		}
		pq.Enqueue(item, item.Timestamp)
	}
	return pq.DequeueAll(), nil
}

// Save replaces the stored queue with items, in order. Failure propagates to
// the caller; silently losing a mutation is the one unacceptable failure
// mode here.
func (q *QueueStore) Save(ctx context.Context, items []*SyncItem) error {
	envelopes := make([]*itemEnvelope, 0, len(items))
	for _, item := range items {
		env, err := toEnvelope(item)
		if err != nil {
			return err
		}
		envelopes = append(envelopes, env)
	}

	raw, err := json.Marshal(envelopes)
	if err != nil {
		return fmt.Errorf("encode sync queue: %w", err)
	}

	if err := q.kv.Set(ctx, queueKey, raw); err != nil {
		return fmt.Errorf("persist sync queue: %w", err)
	}
	return nil
}

// Clear removes the stored queue entirely
func (q *QueueStore) Clear(ctx context.Context) error {
	return q.kv.Delete(ctx, queueKey)
}

func toEnvelope(item *SyncItem) (*itemEnvelope, error) {
	env := &itemEnvelope{
		ID:          item.ID,
		Type:        item.Type,
		Operation:   item.Operation,
		Timestamp:   item.Timestamp,
		RetryCount:  item.RetryCount,
		LastAttempt: item.LastAttempt,
		Error:       item.Error,
		OwnerID:     item.OwnerID,
	}

	if item.Data != nil {
		raw, err := json.Marshal(item.Data)
		if err != nil {
			return nil, fmt.Errorf("encode payload for %s: %w", item.ID, err)
		}
		env.Data = raw
	}
	return env, nil
}

func (env *itemEnvelope) toItem() (*SyncItem, error) {
	item := &SyncItem{
		ID:          env.ID,
		Type:        env.Type,
		Operation:   env.Operation,
		Timestamp:   env.Timestamp,
		RetryCount:  env.RetryCount,
		LastAttempt: env.LastAttempt,
		Error:       env.Error,
		OwnerID:     env.OwnerID,
	}

	if len(env.Data) == 0 {
		return item, nil
	}

	payload, err := decodePayload(env.Type, env.Data)
	if err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", env.ID, err)
	}
	item.Data = payload
	return item, nil
}

// decodePayload materializes the typed payload for a record type
func decodePayload(rt RecordType, raw json.RawMessage) (Payload, error) {
	switch rt {
	case RecordProfile:
		var p store.Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case RecordTrip:
		var t store.Trip
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	case RecordRating:
		var r store.FeatureRating
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordType, rt)
	}
}
