// Package netmon tracks whether the remote server is reachable. It is a thin
// polling wrapper over a Prober and is strictly best-effort: a reported
// "online" only means the last probe succeeded, not that the next request will.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// Prober answers a single reachability question. The waysdk health endpoint is
// the production implementation; tests swap in fakes.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool {
	return f(ctx)
}

// Handler is invoked on every online/offline transition with the new state
type Handler func(online bool)

// Monitor polls a Prober and notifies subscribers on state transitions
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration

	mu       sync.RWMutex
	online   bool
	handlers map[int]Handler
	nextID   int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Option configures a Monitor
type Option func(*Monitor)

// WithInterval sets the probe poll interval
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithProbeTimeout bounds each individual probe
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		m.timeout = d
	}
}

// New creates a Monitor. The monitor starts offline until the first probe.
func New(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   prober,
		interval: defaultProbeInterval,
		timeout:  defaultProbeTimeout,
		handlers: make(map[int]Handler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start probes once immediately, then begins the poll loop. Calling Start on a
// running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.CheckNow(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		// timer instead of ticker so a slow probe never queues ticks
		timer := time.NewTimer(m.interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				m.CheckNow(ctx)
				timer.Reset(m.interval)
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Online returns the current reachability state
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// CheckNow runs a single probe and applies the result, firing transition
// handlers if the state changed.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	online := m.prober.Probe(probeCtx)
	m.setOnline(online)
	return online
}

// Subscribe registers a transition handler and returns its unsubscribe func
func (m *Monitor) Subscribe(h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.handlers[id] = h

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	slog.Info("connectivity changed", "online", online)
	for _, h := range handlers {
		h(online)
	}
}
