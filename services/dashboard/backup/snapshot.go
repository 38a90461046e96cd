// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backup exports and restores dashboard data as JSON snapshot
// objects in a bucket.
//
// Unlike the store layer, backup operations are administrative and
// return errors: an operator running a backup needs to know it failed.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/store"
)

var (
	backupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dyocense_backups_total",
		Help: "Backup operations by kind and outcome.",
	}, []string{"operation", "outcome"})
)

// timestampLayout names snapshot objects sortably.
const timestampLayout = "20060102T150405Z"

// ObjectStore is the bucket abstraction the snapshotter writes to.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Entry is one stored key captured in a snapshot. Values are kept as
// raw JSON so a snapshot never re-interprets what the store held.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snapshot is the object body written to the bucket.
type Snapshot struct {
	TenantID  string    `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   []Entry   `json:"entries"`
}

// Snapshotter exports tenant data to an object store and restores it.
//
// Thread Safety: safe for concurrent use.
type Snapshotter struct {
	kv      store.KeyValueStore
	objects ObjectStore
	bus     *events.Bus
	logger  *slog.Logger
	prefix  string
	now     func() time.Time
}

// NewSnapshotter wires a snapshotter. prefix scopes all object names;
// empty defaults to "backups". A nil bus gets a private one.
func NewSnapshotter(kv store.KeyValueStore, objects ObjectStore, bus *events.Bus, logger *slog.Logger, prefix string) *Snapshotter {
	if bus == nil {
		bus = events.NewBus()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "backups"
	}
	return &Snapshotter{
		kv:      kv,
		objects: objects,
		bus:     bus,
		logger:  logger.With(slog.String("component", "backup")),
		prefix:  prefix,
		now:     time.Now,
	}
}

// Create exports one tenant's data as a snapshot object and returns the
// object name.
//
// The capture covers the tenant-scoped schemes plus the goal histories
// and the shared connector fallback key: local deployments hold one
// tenant per store, so those shared keys belong in the tenant's backup.
func (s *Snapshotter) Create(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("backup create: tenantID must not be empty")
	}

	schemes := []string{store.SchemePlans, store.SchemeActivePlan, store.SchemeStreaks}
	groups := make([][]string, len(schemes)+1)

	g, gCtx := errgroup.WithContext(ctx)
	for i, scheme := range schemes {
		i, scheme := i, scheme
		g.Go(func() error {
			keys, err := s.tenantKeys(gCtx, scheme, tenantID)
			if err != nil {
				return err
			}
			groups[i] = keys
			return nil
		})
	}
	g.Go(func() error {
		keys, err := s.kv.Keys(gCtx, "goalVersions:")
		if err != nil {
			return fmt.Errorf("scan goal histories: %w", err)
		}
		groups[len(schemes)] = keys
		return nil
	})
	if err := g.Wait(); err != nil {
		backupsTotal.WithLabelValues("create", "error").Inc()
		return "", err
	}

	keySet := map[string]struct{}{store.KeyTenantConnectors: {}}
	for _, group := range groups {
		for _, k := range group {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap := Snapshot{
		TenantID:  tenantID,
		CreatedAt: s.now().UTC(),
		Entries:   make([]Entry, 0, len(keys)),
	}
	for _, key := range keys {
		value, found, err := s.kv.Get(ctx, key)
		if err != nil {
			backupsTotal.WithLabelValues("create", "error").Inc()
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		if !found {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{Key: key, Value: json.RawMessage(value)})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		backupsTotal.WithLabelValues("create", "error").Inc()
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	object := s.objectName(tenantID, snap.CreatedAt)
	if err := s.objects.Put(ctx, object, data); err != nil {
		backupsTotal.WithLabelValues("create", "error").Inc()
		return "", fmt.Errorf("write snapshot object: %w", err)
	}

	backupsTotal.WithLabelValues("create", "ok").Inc()
	s.logger.Info("backup created",
		slog.String("tenant_id", tenantID),
		slog.String("object", object),
		slog.Int("keys", len(snap.Entries)))
	s.bus.Publish(events.TypeBackupCompleted, tenantID, events.BackupCompletedData{
		Object: object,
		Keys:   len(snap.Entries),
	})
	return object, nil
}

// CreateAll backs up several tenants concurrently, one snapshot object
// each. Returns the object names keyed by tenant; the first failure
// cancels the rest.
func (s *Snapshotter) CreateAll(ctx context.Context, tenantIDs []string) (map[string]string, error) {
	objects := make(map[string]string, len(tenantIDs))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		g.Go(func() error {
			object, err := s.Create(gCtx, tenantID)
			if err != nil {
				return fmt.Errorf("tenant %s: %w", tenantID, err)
			}
			mu.Lock()
			objects[tenantID] = object
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return objects, err
	}
	return objects, nil
}

// Restore loads a snapshot object and writes every entry back into the
// local store. Returns the number of keys restored.
func (s *Snapshotter) Restore(ctx context.Context, object string) (int, error) {
	data, err := s.objects.Get(ctx, object)
	if err != nil {
		backupsTotal.WithLabelValues("restore", "error").Inc()
		return 0, fmt.Errorf("read snapshot object: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		backupsTotal.WithLabelValues("restore", "error").Inc()
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	restored := 0
	for _, entry := range snap.Entries {
		if err := s.kv.Set(ctx, entry.Key, entry.Value); err != nil {
			backupsTotal.WithLabelValues("restore", "error").Inc()
			return restored, fmt.Errorf("restore %s: %w", entry.Key, err)
		}
		restored++
	}

	backupsTotal.WithLabelValues("restore", "ok").Inc()
	s.logger.Info("backup restored",
		slog.String("tenant_id", snap.TenantID),
		slog.String("object", object),
		slog.Int("keys", restored))
	return restored, nil
}

// List returns the tenant's snapshot object names, newest first.
func (s *Snapshotter) List(ctx context.Context, tenantID string) ([]string, error) {
	names, err := s.objects.List(ctx, s.prefix+"/"+tenantID+"/")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	// Timestamped names sort chronologically; reverse for newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// tenantKeys scans one scheme for the tenant's keys, excluding other
// tenants whose identifiers share this one as a prefix.
func (s *Snapshotter) tenantKeys(ctx context.Context, scheme, tenantID string) ([]string, error) {
	base := store.ScopedKey(scheme, tenantID, "")
	keys, err := s.kv.Keys(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", base, err)
	}
	kept := keys[:0]
	for _, k := range keys {
		if k == base || strings.HasPrefix(k, base+"-") {
			kept = append(kept, k)
		}
	}
	return kept, nil
}

func (s *Snapshotter) objectName(tenantID string, at time.Time) string {
	return strings.Join([]string{s.prefix, tenantID, at.Format(timestampLayout) + ".json"}, "/")
}

// MemoryObjectStore is an in-memory ObjectStore for tests and dry
// runs.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStore returns an empty in-memory bucket.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (m *MemoryObjectStore) Put(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[name] = cp
	return nil
}

func (m *MemoryObjectStore) Get(ctx context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemoryObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0)
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
