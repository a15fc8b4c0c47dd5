// Package client wires the Wheelway pieces together: config, workspace,
// local stores, identity, the API SDK, connectivity monitoring and the sync
// engine. The CLI talks to this package only.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wheelway/wheelway/internal/client/config"
	"github.com/wheelway/wheelway/internal/client/identity"
	"github.com/wheelway/wheelway/internal/client/store"
	"github.com/wheelway/wheelway/internal/client/sync"
	"github.com/wheelway/wheelway/internal/client/workspace"
	"github.com/wheelway/wheelway/internal/netmon"
	"github.com/wheelway/wheelway/internal/waysdk"
)

// bootstrappedKey marks that the one-time remote merge has completed
const bootstrappedKey = "sync/bootstrapped"

type Client struct {
	config   *config.Config
	ws       *workspace.Workspace
	stores   *store.Stores
	identity identity.Provider
	sdk      *waysdk.WaySDK  // nil in offline-only mode
	monitor  *netmon.Monitor // nil in offline-only mode
	engine   *sync.Engine
	merger   *sync.Merger // nil in offline-only mode
}

// New builds a client from a validated config, takes the data-dir lock and
// opens local storage. Callers must Close.
func New(cfg *config.Config) (*Client, error) {
	ws, err := workspace.NewWorkspace(cfg.DataDir, cfg.Email)
	if err != nil {
		return nil, err
	}
	if err := ws.Setup(); err != nil {
		return nil, err
	}

	stores, err := store.Open(ws.DBPath)
	if err != nil {
		ws.Unlock()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// the token subject is authoritative when signed in; the configured
	// email keeps attribution working before first sign-in
	idp := firstOf{identity.NewTokenFile(ws.TokenPath), identity.Static(cfg.Email)}

	c := &Client{
		config:   cfg,
		ws:       ws,
		stores:   stores,
		identity: idp,
	}

	queueStore := sync.NewQueueStore(stores.KV())

	if cfg.ServerURL == "" {
		slog.Warn("no server configured, running offline-only")
		c.engine = sync.NewEngine(queueStore, nil, idp)
		return c, nil
	}

	sdk, err := waysdk.New(cfg.ServerURL)
	if err != nil {
		c.Close()
		return nil, err
	}
	if token, err := os.ReadFile(ws.TokenPath); err == nil {
		sdk.SetAuthToken(strings.TrimSpace(string(token)))
	}
	c.sdk = sdk

	c.monitor = netmon.New(netmon.ProberFunc(func(ctx context.Context) bool {
		return sdk.Health(ctx) == nil
	}))

	adapter := sync.NewAdapter(sdk.Profiles, sdk.Trips, sdk.Ratings, idp, stores)
	c.engine = sync.NewEngine(queueStore, adapter, idp, sync.WithMonitor(c.monitor))
	c.merger = sync.NewMerger(sdk.Profiles, sdk.Trips, sdk.Ratings, stores)

	return c, nil
}

// Start runs the connectivity monitor and sync engine until ctx is cancelled
func (c *Client) Start(ctx context.Context) error {
	slog.Info("wheelway client start",
		"datadir", c.config.DataDir,
		"email", c.config.Email,
		"server", c.config.ServerURL,
		"device", identity.DeviceID(),
	)

	eg, egCtx := errgroup.WithContext(ctx)

	if c.monitor != nil {
		c.monitor.Start(egCtx)
	}
	c.engine.Start(egCtx)

	if c.merger != nil {
		eg.Go(func() error {
			c.bootstrapMerge(egCtx)
			return nil
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down client")

		c.engine.Stop()
		if c.monitor != nil {
			c.monitor.Stop()
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("wheelway client stop")
	return nil
}

// Close releases local storage and the data-dir lock
func (c *Client) Close() error {
	var errs []error
	if c.stores != nil {
		errs = append(errs, c.stores.Close())
	}
	errs = append(errs, c.ws.Unlock())
	return errors.Join(errs...)
}

// bootstrapMerge pulls the user's remote records onto a fresh install. Runs
// once per data dir; a failed attempt retries on the next start.
func (c *Client) bootstrapMerge(ctx context.Context) {
	kv := c.stores.KV()
	if _, err := kv.Get(ctx, bootstrappedKey); err == nil {
		return
	}

	owner, err := c.identity.CurrentUserID(ctx)
	if err != nil {
		slog.Debug("bootstrap merge deferred, no identity yet")
		return
	}

	if err := c.merger.MergeFromRemote(ctx, owner); err != nil {
		slog.Warn("bootstrap merge failed, will retry next start", "error", err)
		return
	}

	if err := kv.Set(ctx, bootstrappedKey, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		slog.Error("failed to record bootstrap merge", "error", err)
	}
}

// MergeFromRemote runs the bootstrap merge on demand
func (c *Client) MergeFromRemote(ctx context.Context) error {
	if c.merger == nil {
		return sync.ErrSyncDisabled
	}
	owner, err := c.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	return c.merger.MergeFromRemote(ctx, owner)
}

// SyncNow triggers an immediate queue drain
func (c *Client) SyncNow(ctx context.Context) (*sync.SyncResult, error) {
	if c.engine.Disabled() {
		return nil, sync.ErrSyncDisabled
	}
	return c.engine.SyncNow(ctx)
}

// SyncStatus reports queue depth, connectivity and last sync time
func (c *Client) SyncStatus(ctx context.Context) sync.SyncStatus {
	return c.engine.Status(ctx)
}

// CheckConnectivity probes the server once and returns the result. False
// when no server is configured.
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	if c.monitor == nil {
		return false
	}
	return c.monitor.CheckNow(ctx)
}

// Pending returns the queued mutations, oldest first
func (c *Client) Pending(ctx context.Context) ([]*sync.SyncItem, error) {
	return c.engine.Pending(ctx)
}

// ClearQueue drops all pending mutations
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.engine.ClearQueue(ctx)
}

// Stores exposes the local record collections
func (c *Client) Stores() *store.Stores {
	return c.stores
}

// SaveProfile stores the profile locally and queues it for upload
func (c *Client) SaveProfile(ctx context.Context, p *store.Profile) error {
	op, err := upsertOp(ctx, c.stores.Profiles, p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}
	if err := c.stores.Profiles.Put(ctx, p.ID, p); err != nil {
		return err
	}
	return c.engine.Enqueue(ctx, sync.RecordProfile, op, p, "")
}

// SaveTrip stores the trip locally and queues it for upload
func (c *Client) SaveTrip(ctx context.Context, t *store.Trip) error {
	op, err := upsertOp(ctx, c.stores.Trips, t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	if err := c.stores.Trips.Put(ctx, t.ID, t); err != nil {
		return err
	}
	return c.engine.Enqueue(ctx, sync.RecordTrip, op, t, "")
}

// DeleteTrip removes the trip locally and queues the remote delete
func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	if err := c.stores.Trips.Delete(ctx, id); err != nil {
		return err
	}
	return c.engine.Enqueue(ctx, sync.RecordTrip, sync.OpDelete, &store.Trip{ID: id}, "")
}

// SaveRating stores the rating locally and queues it for upload
func (c *Client) SaveRating(ctx context.Context, r *store.FeatureRating) error {
	op, err := upsertOp(ctx, c.stores.Ratings, r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return err
	}
	if err := c.stores.Ratings.Put(ctx, r.ID, r); err != nil {
		return err
	}
	return c.engine.Enqueue(ctx, sync.RecordRating, op, r, "")
}

// DeleteRating removes the rating locally and queues the remote delete
func (c *Client) DeleteRating(ctx context.Context, id string) error {
	if err := c.stores.Ratings.Delete(ctx, id); err != nil {
		return err
	}
	return c.engine.Enqueue(ctx, sync.RecordRating, sync.OpDelete, &store.FeatureRating{ID: id}, "")
}

// upsertOp picks insert or update based on local existence and maintains the
// record's timestamps.
func upsertOp[T any](ctx context.Context, records *store.Records[T], id string, createdAt, updatedAt *time.Time) (sync.Operation, error) {
	if id == "" {
		return "", fmt.Errorf("record id is required")
	}

	exists, err := records.Has(ctx, id)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	*updatedAt = now
	if !exists {
		if createdAt.IsZero() {
			*createdAt = now
		}
		return sync.OpInsert, nil
	}
	return sync.OpUpdate, nil
}

// firstOf resolves identity from the first provider that answers
type firstOf []identity.Provider

func (f firstOf) CurrentUserID(ctx context.Context) (string, error) {
	var lastErr error
	for _, p := range f {
		id, err := p.CurrentUserID(ctx)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = identity.ErrNoIdentity
	}
	return "", lastErr
}
