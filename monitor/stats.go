// Package monitor refreshes the detection server's statistics in the background.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

const DefaultInterval = 30 * time.Second

// StatsFetcher is the part of the server client the monitor needs.
type StatsFetcher interface {
	Stats(ctx context.Context) (*types.ServerStats, error)
}

// Prober measures reachability of the server host. Optional.
type Prober interface {
	Probe(ctx context.Context) (rtt time.Duration, loss float64, err error)
}

// Monitor polls /stats at a fixed interval for the lifetime of its context.
// Failures are logged and otherwise ignored; the last good snapshot is kept.
type Monitor struct {
	fetcher  StatsFetcher
	prober   Prober
	interval time.Duration

	mu          sync.RWMutex
	latest      types.StatsSnapshot
	has         bool
	subscribers []func(types.StatsSnapshot)
}

// New creates a monitor. interval <= 0 means DefaultInterval.
func New(fetcher StatsFetcher, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{fetcher: fetcher, interval: interval}
}

// SetProber enables the reachability probe.
func (m *Monitor) SetProber(p Prober) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prober = p
}

// Subscribe registers fn to receive every fresh snapshot.
func (m *Monitor) Subscribe(fn func(types.StatsSnapshot)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Latest returns the last good snapshot and whether one exists.
func (m *Monitor) Latest() (types.StatsSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.has
}

// Run refreshes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	tool.DefaultLogger.Debugf("[Stats] refreshing every %s", m.interval)
	m.Refresh(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			tool.DefaultLogger.Debug("[Stats] stopped")
			return
		case <-ticker.C:
			m.Refresh(ctx)
		}
	}
}

// Refresh performs one stats query. The returned error wraps types.ErrStats and is
// only meant for one-shot callers; Run discards it after logging.
func (m *Monitor) Refresh(ctx context.Context) error {
	stats, err := m.fetcher.Stats(ctx)
	if err != nil {
		e := types.NewError(types.ErrStats, "", "Failed to load system stats", err)
		tool.DefaultLogger.Debugf("[Stats] %v", e)
		m.mu.Lock()
		if m.has {
			m.latest.Reachable = false
		}
		m.mu.Unlock()
		return e
	}

	snap := types.StatsSnapshot{
		Stats:     *stats,
		FetchedAt: time.Now(),
		Reachable: true,
	}

	m.mu.RLock()
	prober := m.prober
	m.mu.RUnlock()
	if prober != nil {
		rtt, loss, err := prober.Probe(ctx)
		if err != nil {
			tool.DefaultLogger.Debugf("[Stats] probe failed: %v", err)
		} else {
			snap.PingRTT = rtt
			snap.PingLoss = loss
		}
	}

	m.mu.Lock()
	m.latest = snap
	m.has = true
	subs := append(([]func(types.StatsSnapshot))(nil), m.subscribers...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}
