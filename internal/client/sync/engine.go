package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/wheelway/wheelway/internal/client/identity"
	"github.com/wheelway/wheelway/internal/netmon"
	"github.com/wheelway/wheelway/internal/waysdk"
)

// Engine is the sync coordinator. It owns the durable queue, decides when to
// drain it (explicit call, enqueue-while-online, connectivity regained,
// periodic timer) and enforces that only one drain runs at a time.
type Engine struct {
	queue    *QueueStore
	dispatch Dispatcher // nil means offline-only mode: queue but never drain
	monitor  *netmon.Monitor
	identity identity.Provider
	interval time.Duration
	now      func() time.Time

	muSync   gosync.Mutex // single-flight guard for drains
	muQueue  gosync.Mutex // serializes queue read-modify-write
	syncing  atomic.Bool
	mu       gosync.RWMutex // guards lastSync
	lastSync time.Time

	kick        chan struct{}
	cancel      context.CancelFunc
	unsubscribe func()
	wg          gosync.WaitGroup
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMonitor attaches a connectivity monitor. Without one the engine
// assumes it is always online.
func WithMonitor(m *netmon.Monitor) EngineOption {
	return func(e *Engine) {
		e.monitor = m
	}
}

// WithInterval overrides the periodic drain cadence
func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a sync coordinator. A nil dispatcher puts the engine in
// offline-only mode: mutations queue durably but are never drained.
func NewEngine(queue *QueueStore, dispatch Dispatcher, idp identity.Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		queue:    queue,
		dispatch: dispatch,
		identity: idp,
		interval: syncInterval,
		now:      time.Now,
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start wires the connectivity subscription and the periodic drain loop.
// Idempotent: a second Start is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	if e.monitor != nil {
		e.unsubscribe = e.monitor.Subscribe(func(online bool) {
			if online {
				slog.Info("connectivity regained, scheduling sync")
				e.Kick()
			}
		})
	}

	e.wg.Add(1)
	go e.runLoop(ctx)

	// drain anything queued from a previous session
	e.Kick()
}

// Stop halts the drain loop. A drain already in flight finishes its current
// item and exits at the next suspension point.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	cancel()
	e.wg.Wait()
}

// Kick schedules a drain without blocking. Coalesces with any pending kick.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()

	// timer instead of ticker so a long drain never queues ticks
	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.kick:
		case <-timer.C:
		}

		if _, err := e.syncOnce(ctx); err != nil && !errors.Is(err, ErrSyncAlreadyRunning) && !errors.Is(err, context.Canceled) {
			slog.Error("background sync failed", "error", err)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(e.interval)
	}
}

// Enqueue durably appends a mutation to the sync queue and schedules a drain
// when online. Enqueuing a mutation for a record that already has a pending
// item of the same type replaces the older item. A queue persistence failure
// propagates to the caller; everything downstream is background.
func (e *Engine) Enqueue(ctx context.Context, rt RecordType, op Operation, data Payload, ownerID string) error {
	if !rt.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRecordType, rt)
	}
	if !op.Valid() {
		return fmt.Errorf("invalid operation %q", op)
	}
	if data == nil || data.RecordID() == "" {
		return errors.New("enqueue: payload with a record id is required")
	}

	if ownerID == "" {
		resolved, err := e.identity.CurrentUserID(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s %s", ErrMissingIdentity, rt, data.RecordID())
		}
		ownerID = resolved
	}

	ts := e.now().UnixMilli()
	item := &SyncItem{
		ID:        newItemID(rt, op, ts),
		Type:      rt,
		Operation: op,
		Data:      data,
		Timestamp: ts,
		OwnerID:   ownerID,
	}

	var queueLen int
	err := e.mutateQueue(ctx, func(items []*SyncItem) []*SyncItem {
		// replace-not-append: at most one pending mutation per (type, record id)
		kept := items[:0]
		for _, existing := range items {
			if existing.Type == rt && existing.Data != nil && existing.Data.RecordID() == data.RecordID() {
				slog.Debug("replacing queued mutation", "old", existing.ID, "new", item.ID)
				continue
			}
			kept = append(kept, existing)
		}
		kept = append(kept, item)
		queueLen = len(kept)
		return kept
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", item.ID, err)
	}

	slog.Debug("queued mutation", "item", item.ID, "queueLength", queueLen)

	if e.online() {
		e.Kick()
	}
	return nil
}

// SyncNow triggers an immediate drain, first re-probing connectivity so a
// pull-to-refresh right after leaving airplane mode works. Returns
// ErrSyncAlreadyRunning when a drain is already in flight.
func (e *Engine) SyncNow(ctx context.Context) (*SyncResult, error) {
	if e.monitor != nil {
		e.monitor.CheckNow(ctx)
	}
	return e.syncOnce(ctx)
}

func (e *Engine) syncOnce(ctx context.Context) (*SyncResult, error) {
	if e.dispatch == nil {
		slog.Debug("sync disabled, nothing to drain")
		return &SyncResult{Success: true}, nil
	}

	if !e.online() {
		// never burn retry budget while provably offline
		slog.Debug("skipping sync, offline")
		return &SyncResult{Success: false}, nil
	}

	if !e.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer e.muSync.Unlock()

	e.syncing.Store(true)
	defer e.syncing.Store(false)

	defer func() {
		e.mu.Lock()
		e.lastSync = e.now()
		e.mu.Unlock()
	}()

	snapshot, err := e.queue.Load(ctx)
	if err != nil {
		return &SyncResult{Success: false}, fmt.Errorf("load queue: %w", err)
	}
	if len(snapshot) == 0 {
		return &SyncResult{Success: true}, nil
	}

	tStart := e.now()
	result := &SyncResult{}

	for start := 0; start < len(snapshot); start += batchSize {
		end := min(start+batchSize, len(snapshot))

		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				// interrupted run: unprocessed items are still in the queue
				return result, ctx.Err()
			}

			item := snapshot[i]
			dispatchCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
			dispatchErr := e.dispatch.Dispatch(dispatchCtx, item)
			cancel()

			if dispatchErr == nil {
				result.ItemsSynced++
				// remove confirmed items immediately so a crash mid-run
				// cannot re-send them
				e.removeItem(item.ID)
				continue
			}

			if ctx.Err() != nil {
				// shutdown mid-dispatch, not a real failure: the item stays
				// queued for the next run
				return result, ctx.Err()
			}

			result.ItemsFailed++
			now := e.now().UnixMilli()
			item.LastAttempt = &now
			item.Error = dispatchErr.Error()

			terminal := isTerminal(dispatchErr)
			if !terminal {
				item.RetryCount++
			}

			if terminal || item.RetryCount >= maxRetries {
				if !terminal {
					item.Error = fmt.Sprintf("retry limit reached: %s", dispatchErr)
				}
				slog.Warn("dropping unsyncable mutation",
					"item", item.ID, "retries", item.RetryCount, "error", dispatchErr)
				result.Errors = append(result.Errors, itemError(item, item.Error, true))
				e.removeItem(item.ID)
				continue
			}

			slog.Debug("dispatch failed, will retry",
				"item", item.ID, "retries", item.RetryCount, "error", dispatchErr)
			result.Errors = append(result.Errors, itemError(item, item.Error, false))
			e.writeBack(item)
		}
	}

	result.Success = result.ItemsFailed == 0

	remaining := 0
	if items, err := e.queue.Load(ctx); err == nil {
		remaining = len(items)
	}

	slog.Info("sync run complete",
		"synced", result.ItemsSynced,
		"failed", result.ItemsFailed,
		"remaining", remaining,
		"took", e.now().Sub(tStart),
	)
	return result, nil
}

// mutateQueue serializes a read-modify-write of the durable queue. Enqueue
// and the drain's per-item persists both go through here, so neither can
// clobber an update the other made while a dispatch was in flight.
func (e *Engine) mutateQueue(ctx context.Context, fn func([]*SyncItem) []*SyncItem) error {
	e.muQueue.Lock()
	defer e.muQueue.Unlock()

	items, err := e.queue.Load(ctx)
	if err != nil {
		return err
	}
	return e.queue.Save(ctx, fn(items))
}

// removeItem drops one processed item from the durable queue by id. Items
// enqueued or replaced while the dispatch was in flight are untouched.
// A persistence failure cannot lose the in-memory run, so it is logged
// rather than aborting the drain.
func (e *Engine) removeItem(id string) {
	err := e.mutateQueue(context.Background(), func(items []*SyncItem) []*SyncItem {
		kept := items[:0]
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		return kept
	})
	if err != nil {
		slog.Error("failed to persist sync queue", "item", id, "error", err)
	}
}

// writeBack persists retry bookkeeping for a failed item. A no-op when a
// concurrent Enqueue already replaced the item with a newer mutation.
func (e *Engine) writeBack(updated *SyncItem) {
	err := e.mutateQueue(context.Background(), func(items []*SyncItem) []*SyncItem {
		for i, item := range items {
			if item.ID == updated.ID {
				items[i] = updated
			}
		}
		return items
	})
	if err != nil {
		slog.Error("failed to persist sync queue", "item", updated.ID, "error", err)
	}
}

// Status returns a read-only snapshot of engine health
func (e *Engine) Status(ctx context.Context) SyncStatus {
	queueLength := 0
	if items, err := e.queue.Load(ctx); err == nil {
		queueLength = len(items)
	}

	e.mu.RLock()
	lastSync := e.lastSync
	e.mu.RUnlock()

	return SyncStatus{
		QueueLength:  queueLength,
		LastSyncTime: lastSync,
		IsOnline:     e.online(),
		IsSyncing:    e.syncing.Load(),
	}
}

// Pending returns the queued mutations, oldest first
func (e *Engine) Pending(ctx context.Context) ([]*SyncItem, error) {
	return e.queue.Load(ctx)
}

// ClearQueue drops every pending mutation. Administrative escape hatch for
// account deletion and tests.
func (e *Engine) ClearQueue(ctx context.Context) error {
	return e.queue.Clear(ctx)
}

// Disabled reports whether the engine runs in offline-only mode
func (e *Engine) Disabled() bool {
	return e.dispatch == nil
}

func (e *Engine) online() bool {
	if e.monitor == nil {
		return true
	}
	return e.monitor.Online()
}

// isTerminal classifies a dispatch failure. Missing identity and unknown
// record types never heal on their own; everything else defers to the SDK's
// retryable classification.
func isTerminal(err error) bool {
	if errors.Is(err, ErrMissingIdentity) || errors.Is(err, ErrUnknownRecordType) {
		return true
	}
	return !waysdk.IsRetryable(err)
}

func itemError(item *SyncItem, msg string, terminal bool) ItemError {
	recordID := ""
	if item.Data != nil {
		recordID = item.Data.RecordID()
	}
	return ItemError{
		ItemID:   item.ID,
		Type:     item.Type,
		RecordID: recordID,
		Message:  msg,
		Terminal: terminal,
	}
}
