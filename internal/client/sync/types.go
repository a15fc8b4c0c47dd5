// Package sync implements the offline-first synchronization engine: a durable
// queue of locally-authored mutations drained to the remote API whenever
// connectivity allows. The engine never blocks callers on the network and
// never drops a local change without either remote confirmation or an
// exhausted retry budget.
package sync

import (
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/wheelway/wheelway/internal/client/identity"
)

const (
	// maxRetries is the per-item dispatch ceiling; an item failing retryably
	// this many times is dropped and surfaced as a terminal error.
	maxRetries = 3

	// batchSize bounds how many queue items one drain pass holds in flight
	batchSize = 10

	// dispatchTimeout bounds a single remote dispatch call
	dispatchTimeout = 30 * time.Second

	// syncInterval is the periodic background drain cadence
	syncInterval = 5 * time.Minute
)

var (
	ErrSyncAlreadyRunning = errors.New("sync already running")
	ErrSyncDisabled       = errors.New("sync disabled: no remote configured")
	ErrMissingIdentity    = errors.New("no user identity to attribute mutation")
	ErrUnknownRecordType  = errors.New("unknown record type")
)

// RecordType identifies which remote collection a mutation belongs to
type RecordType string

const (
	RecordProfile RecordType = "profile"
	RecordTrip    RecordType = "trip"
	RecordRating  RecordType = "rated_feature"
)

func (rt RecordType) Valid() bool {
	switch rt {
	case RecordProfile, RecordTrip, RecordRating:
		return true
	}
	return false
}

// Operation is the kind of mutation queued for the remote
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func (op Operation) Valid() bool {
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Payload is a local-domain record carried by a SyncItem. The concrete types
// are the store package's records; the adapter translates them to wire shape
// at dispatch time.
type Payload interface {
	RecordID() string
}

// SyncItem is one pending local mutation awaiting remote confirmation
type SyncItem struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	Operation   Operation  `json:"operation"`
	Data        Payload    `json:"-"`
	Timestamp   int64      `json:"timestamp"` // enqueue time, unix millis
	RetryCount  int        `json:"retryCount"`
	LastAttempt *int64     `json:"lastAttempt,omitempty"` // unix millis
	Error       string     `json:"error,omitempty"`
	OwnerID     string     `json:"ownerId,omitempty"`
}

// deviceSuffix tags locally generated item ids with this machine, resolved
// once per process.
var deviceSuffix = gosync.OnceValue(identity.DeviceID)

// newItemID builds a queue-local identifier:
// <type>_<op>_<millis>_<device>_<random>. It never leaves the device; the
// remote is keyed by the record id. The device segment keeps queue dumps from
// multi-device accounts attributable.
func newItemID(rt RecordType, op Operation, ts int64) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%d_%s_%s", rt, op, ts, deviceSuffix(), random)
}

// ItemError describes one failed dispatch within a sync run
type ItemError struct {
	ItemID   string     `json:"itemId"`
	Type     RecordType `json:"type"`
	RecordID string     `json:"recordId"`
	Message  string     `json:"message"`
	Terminal bool       `json:"terminal"`
}

// SyncResult summarizes one sync run. A run never fails past its own
// boundary; per-item failures land here.
type SyncResult struct {
	Success     bool        `json:"success"`
	ItemsSynced int         `json:"itemsSynced"`
	ItemsFailed int         `json:"itemsFailed"`
	Errors      []ItemError `json:"errors,omitempty"`
}

// SyncStatus is a read-only snapshot of engine health for UI indicators
type SyncStatus struct {
	QueueLength  int       `json:"queueLength"`
	LastSyncTime time.Time `json:"lastSyncTime"`
	IsOnline     bool      `json:"isOnline"`
	IsSyncing    bool      `json:"isSyncing"`
}
