// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectors

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/store"
)

var (
	modeLatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_connector_mode_latches_total",
		Help: "Transitions from remote-preferred to local-only.",
	})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dyocense_connector_cache_lookups_total",
		Help: "Connector cache lookups, by result.",
	}, []string{"result"})

	cacheEntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dyocense_connector_cache_entries",
		Help: "Tenants with a cached connector snapshot.",
	})
)

// Mode is the manager's fetch strategy.
type Mode string

const (
	// ModeRemotePreferred serves from the remote API through a short
	// cache. Initial state.
	ModeRemotePreferred Mode = "remote-preferred"

	// ModeLocalOnly serves exclusively from local storage. Entered on
	// the first remote failure and never left within an instance.
	ModeLocalOnly Mode = "local-only"
)

// ManagerConfig tunes the Manager.
type ManagerConfig struct {
	// TTL is the cache snapshot lifetime, checked lazily on read.
	TTL time.Duration

	// Clock supplies the current time; tests override it to age the
	// cache without sleeping.
	Clock func() time.Time
}

// DefaultManagerConfig returns the production settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TTL:   60 * time.Second,
		Clock: time.Now,
	}
}

type cacheEntry struct {
	connectors []TenantConnector
	fetchedAt  time.Time
}

// Manager fronts the remote connector API with a per-tenant snapshot
// cache and a permanent local fallback.
//
// Failure policy: a failing remote call latches the manager to
// local-only and re-runs the same logical operation against local
// storage, so callers never see transport errors. The one exception
// is GetByID, which falls back for the single lookup without
// latching. Not-found is a nil result, not an error.
//
// Thread Safety: safe for concurrent use. Concurrent cache misses for
// one tenant collapse into a single remote fetch.
type Manager struct {
	client Client
	local  *store.GlobalCollection[TenantConnector]
	bus    *events.Bus
	logger *slog.Logger

	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	mode  Mode
	cache map[string]cacheEntry

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time view of cache behavior.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
	Mode    Mode
}

// NewManager wires a manager over a remote client and local substrate.
// A nil bus gets a private one, a nil logger falls back to
// slog.Default, and zero cfg fields take their defaults.
func NewManager(client Client, kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger, cfg ManagerConfig) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "connectors"))
	if bus == nil {
		bus = events.NewBus(events.WithLogger(logger))
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultManagerConfig().TTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Manager{
		client: client,
		local:  store.NewGlobalCollection[TenantConnector](kv, store.KeyTenantConnectors, logger),
		bus:    bus,
		logger: logger,
		ttl:    cfg.TTL,
		now:    cfg.Clock,
		mode:   ModeRemotePreferred,
		cache:  make(map[string]cacheEntry),
	}
}

// NewLocalManager wires a manager with no remote side at all: it
// starts in local-only mode and stays there. For deployments without
// a connector service URL.
func NewLocalManager(kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger) *Manager {
	m := NewManager(nil, kv, bus, logger, DefaultManagerConfig())
	m.mode = ModeLocalOnly
	return m
}

// Mode returns the current fetch strategy.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Stats reports cache hit/miss counts, entry count, and mode.
func (m *Manager) Stats() CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return CacheStats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: len(m.cache),
		Mode:    m.mode,
	}
}

// GetAll returns the tenant's connectors: cache within TTL, then
// remote, then local storage once latched or on failure.
func (m *Manager) GetAll(ctx context.Context, tenantID string) []TenantConnector {
	if m.Mode() == ModeLocalOnly {
		return m.readLocal(ctx, tenantID)
	}

	if list, ok := m.cachedFresh(tenantID); ok {
		m.hits.Add(1)
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return list
	}
	m.misses.Add(1)
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	result, err, _ := m.group.Do("getall:"+tenantID, func() (any, error) {
		return m.client.ListConnectors(ctx)
	})
	if err != nil {
		m.latch(tenantID, "list connectors failed", err)
		return m.readLocal(ctx, tenantID)
	}

	remotes := result.([]RemoteConnector)
	list := make([]TenantConnector, 0, len(remotes))
	for _, rc := range remotes {
		tc := rc.ToTenantConnector()
		if tc.TenantID == "" {
			tc.TenantID = tenantID
		}
		if tc.TenantID != tenantID {
			continue
		}
		list = append(list, tc)
	}

	m.storeCache(tenantID, list)
	return list
}

// GetByID resolves one connector. Locally-generated ids and latched
// managers read local storage directly; a failing remote lookup falls
// back to local for this call only, without latching.
func (m *Manager) GetByID(ctx context.Context, id string) *TenantConnector {
	if m.Mode() == ModeLocalOnly || strings.HasPrefix(id, LocalIDPrefix) {
		return m.findLocal(ctx, id)
	}

	rc, err := m.client.GetConnector(ctx, id)
	if err != nil {
		m.logger.Warn("remote connector lookup failed, trying local",
			slog.String("connector_id", id),
			slog.String("error", err.Error()))
		return m.findLocal(ctx, id)
	}

	tc := rc.ToTenantConnector()
	return &tc
}

// Add creates a connector. Remote-preferred managers create remotely
// and invalidate the tenant's cache entry; on failure, and always once
// latched, the connector is written locally under a generated id with
// fresh timestamps.
func (m *Manager) Add(ctx context.Context, c TenantConnector) TenantConnector {
	if m.Mode() == ModeLocalOnly {
		return m.addLocal(ctx, c)
	}

	created, err := m.client.CreateConnector(ctx, CreateRequest{
		ConnectorType: c.ConnectorID,
		DisplayName:   c.Name,
		Config:        c.Config,
		SyncFrequency: c.SyncFrequency,
	})
	if err != nil {
		m.latch(c.TenantID, "create connector failed", err)
		return m.addLocal(ctx, c)
	}

	m.invalidate(c.TenantID)

	tc := created.ToTenantConnector()
	if tc.TenantID == "" {
		tc.TenantID = c.TenantID
	}
	m.bus.Publish(events.TypeConnectorAdded, tc.TenantID, events.ConnectorData{
		ConnectorID: tc.ID,
		Name:        tc.Name,
	})
	return tc
}

// Delete removes a connector. Local ids and latched managers delete
// from local storage; a successful remote delete clears the whole
// cache, and a failed one latches and deletes locally.
func (m *Manager) Delete(ctx context.Context, tenantID, id string) {
	if m.Mode() == ModeLocalOnly || strings.HasPrefix(id, LocalIDPrefix) {
		m.deleteLocal(ctx, tenantID, id)
		return
	}

	if err := m.client.DeleteConnector(ctx, id); err != nil {
		m.latch(tenantID, "delete connector failed", err)
		m.deleteLocal(ctx, tenantID, id)
		return
	}

	m.clearCache()
	m.bus.Publish(events.TypeConnectorDeleted, tenantID, events.ConnectorData{ConnectorID: id})
}

func (m *Manager) addLocal(ctx context.Context, c TenantConnector) TenantConnector {
	now := m.now().UTC()
	c.ID = NewLocalID()
	if c.Status == "" {
		c.Status = StatusActive
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	m.local.Write(ctx, c)
	m.bus.Publish(events.TypeConnectorAdded, c.TenantID, events.ConnectorData{
		ConnectorID: c.ID,
		Name:        c.Name,
		Local:       true,
	})
	return c
}

func (m *Manager) deleteLocal(ctx context.Context, tenantID, id string) {
	m.local.Remove(ctx, id)
	m.bus.Publish(events.TypeConnectorDeleted, tenantID, events.ConnectorData{
		ConnectorID: id,
		Local:       true,
	})
}

func (m *Manager) readLocal(ctx context.Context, tenantID string) []TenantConnector {
	all := m.local.Read(ctx)
	list := make([]TenantConnector, 0, len(all))
	for _, c := range all {
		if c.TenantID == tenantID {
			list = append(list, c)
		}
	}
	return list
}

func (m *Manager) findLocal(ctx context.Context, id string) *TenantConnector {
	for _, c := range m.local.Read(ctx) {
		if c.ID == id {
			found := c
			return &found
		}
	}
	return nil
}

// latch performs the one-way transition to local-only.
func (m *Manager) latch(tenantID, cause string, err error) {
	m.mu.Lock()
	if m.mode == ModeLocalOnly {
		m.mu.Unlock()
		return
	}
	m.mode = ModeLocalOnly
	m.cache = make(map[string]cacheEntry)
	m.mu.Unlock()

	modeLatchesTotal.Inc()
	cacheEntriesGauge.Set(0)
	m.logger.Warn("remote unavailable, switching to local-only",
		slog.String("cause", cause),
		slog.String("error", err.Error()))
	m.bus.Publish(events.TypeConnectorModeChanged, tenantID, events.ModeChangeData{
		From:  string(ModeRemotePreferred),
		To:    string(ModeLocalOnly),
		Cause: cause,
	})
}

func (m *Manager) cachedFresh(tenantID string) ([]TenantConnector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.cache[tenantID]
	if !ok || m.now().Sub(entry.fetchedAt) >= m.ttl {
		return nil, false
	}
	out := make([]TenantConnector, len(entry.connectors))
	copy(out, entry.connectors)
	return out, true
}

func (m *Manager) storeCache(tenantID string, list []TenantConnector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeLocalOnly {
		return
	}
	m.cache[tenantID] = cacheEntry{connectors: list, fetchedAt: m.now()}
	cacheEntriesGauge.Set(float64(len(m.cache)))
}

func (m *Manager) invalidate(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, tenantID)
	cacheEntriesGauge.Set(float64(len(m.cache)))
}

func (m *Manager) clearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]cacheEntry)
	cacheEntriesGauge.Set(0)
}
