package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	profilePrefix = "profile/"
	tripPrefix    = "trip/"
	ratingPrefix  = "rating/"
)

// Records is a typed record collection over the KV store, one JSON document
// per record under "<prefix><id>".
type Records[T any] struct {
	kv     *KV
	prefix string
}

func newRecords[T any](kv *KV, prefix string) *Records[T] {
	return &Records[T]{kv: kv, prefix: prefix}
}

// Get returns the record with the given id, or ErrKeyNotFound
func (r *Records[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := r.kv.Get(ctx, r.prefix+id)
	if err != nil {
		return nil, err
	}

	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s%s: %w", r.prefix, id, err)
	}
	return &rec, nil
}

// Has reports whether a record with the given id exists
func (r *Records[T]) Has(ctx context.Context, id string) (bool, error) {
	_, err := r.kv.Get(ctx, r.prefix+id)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put stores the record under id, replacing any previous version
func (r *Records[T]) Put(ctx context.Context, id string, rec *T) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s%s: %w", r.prefix, id, err)
	}
	return r.kv.Set(ctx, r.prefix+id, raw)
}

// Delete removes the record with the given id
func (r *Records[T]) Delete(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, r.prefix+id)
}

// List returns all records in the collection, ordered by id
func (r *Records[T]) List(ctx context.Context) ([]*T, error) {
	raw, err := r.kv.List(ctx, r.prefix)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]*T, 0, len(raw))
	for _, k := range keys {
		var rec T
		if err := json.Unmarshal(raw[k], &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", k, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

// Stores bundles the typed record collections over one KV database
type Stores struct {
	Profiles *Records[Profile]
	Trips    *Records[Trip]
	Ratings  *Records[FeatureRating]

	kv *KV
}

// Open creates or opens the local record stores at dbPath
func Open(dbPath string) (*Stores, error) {
	kv, err := OpenKV(dbPath)
	if err != nil {
		return nil, err
	}
	return NewStores(kv), nil
}

// NewStores builds record collections over an already open KV store
func NewStores(kv *KV) *Stores {
	return &Stores{
		Profiles: newRecords[Profile](kv, profilePrefix),
		Trips:    newRecords[Trip](kv, tripPrefix),
		Ratings:  newRecords[FeatureRating](kv, ratingPrefix),
		kv:       kv,
	}
}

// KV exposes the underlying byte store (the sync queue persists there too)
func (s *Stores) KV() *KV {
	return s.kv
}

// Close closes the underlying database
func (s *Stores) Close() error {
	return s.kv.Close()
}
