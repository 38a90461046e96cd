// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dyocense_store_errors_total",
		Help: "Storage and serialization failures swallowed by the scoped store.",
	}, []string{"operation"})

	legacyMigrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_store_legacy_migrations_total",
		Help: "Collections migrated from legacy tenant-only keys to project-scoped keys.",
	})
)

// Record is anything a Collection can upsert and delete by identifier.
type Record interface {
	RecordID() string
}

// Collection persists one JSON array per tenant[-project] scope under a
// key scheme, with the compatibility behaviors the dashboard's stored
// data requires:
//
//   - a project-scoped read that finds nothing falls back to the legacy
//     tenant-only key, migrating any records it finds into the
//     project-scoped key as a side effect;
//   - if neither key holds data, all of the tenant's project-scoped
//     keys are scanned and their records aggregated, tolerating
//     unknown or missing project identifiers.
//
// Every storage or serialization failure is logged, counted, and
// swallowed: reads degrade to empty, writes to no-ops. This layer is a
// best-effort cache, not a system of record.
type Collection[T Record] struct {
	store  KeyValueStore
	scheme string
	logger *slog.Logger
}

// NewCollection binds a key scheme (for example SchemePlans) to a
// record type over the given substrate.
func NewCollection[T Record](kv KeyValueStore, scheme string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		store:  kv,
		scheme: scheme,
		logger: logger.With(slog.String("scheme", scheme)),
	}
}

// Read returns the collection for the scope, or an empty slice when
// nothing readable exists. Never returns an error.
func (c *Collection[T]) Read(ctx context.Context, tenantID, projectID string) []T {
	primary := ScopedKey(c.scheme, tenantID, projectID)
	if records, ok := c.load(ctx, primary); ok {
		return records
	}

	if projectID != "" {
		legacy := ScopedKey(c.scheme, tenantID, "")
		if records, ok := c.load(ctx, legacy); ok {
			c.migrate(ctx, primary, records)
			return records
		}
	}

	return c.aggregate(ctx, tenantID, primary)
}

// Write upserts item into the scoped collection: an existing record
// with the same identifier is replaced in place, otherwise the item is
// appended. Failures degrade to a no-op.
func (c *Collection[T]) Write(ctx context.Context, tenantID string, item T, projectID string) {
	records := c.Read(ctx, tenantID, projectID)

	replaced := false
	for i, existing := range records {
		if existing.RecordID() == item.RecordID() {
			records[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, item)
	}

	c.ReplaceAll(ctx, tenantID, records, projectID)
}

// ReplaceAll stores items as the complete collection for the scope.
// An empty slice is stored as "[]", not removed.
func (c *Collection[T]) ReplaceAll(ctx context.Context, tenantID string, items []T, projectID string) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		storeErrorsTotal.WithLabelValues("marshal").Inc()
		c.logger.Error("marshal collection failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return
	}

	key := ScopedKey(c.scheme, tenantID, projectID)
	if err := c.store.Set(ctx, key, data); err != nil {
		storeErrorsTotal.WithLabelValues("write").Inc()
		c.logger.Error("write collection failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// Remove deletes the record with the given identifier and rewrites the
// remaining collection. A collection emptied this way remains stored as
// an empty array.
func (c *Collection[T]) Remove(ctx context.Context, tenantID, id, projectID string) {
	records := c.Read(ctx, tenantID, projectID)

	kept := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}

	c.ReplaceAll(ctx, tenantID, kept, projectID)
}

// load reads and decodes one key. ok is false when the key is absent,
// unreadable, or corrupt; corrupt data is treated as no data so the
// caller's fallback chain continues.
func (c *Collection[T]) load(ctx context.Context, key string) ([]T, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		storeErrorsTotal.WithLabelValues("read").Inc()
		c.logger.Error("read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		storeErrorsTotal.WithLabelValues("unmarshal").Inc()
		c.logger.Warn("corrupt collection ignored",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	if records == nil {
		records = []T{}
	}
	return records, true
}

// migrate copies legacy records into the project-scoped key. The legacy
// key is left in place for older clients still reading it.
func (c *Collection[T]) migrate(ctx context.Context, primary string, records []T) {
	data, err := json.Marshal(records)
	if err != nil {
		storeErrorsTotal.WithLabelValues("marshal").Inc()
		return
	}
	if err := c.store.Set(ctx, primary, data); err != nil {
		storeErrorsTotal.WithLabelValues("migrate").Inc()
		c.logger.Warn("legacy migration failed",
			slog.String("key", primary),
			slog.String("error", err.Error()))
		return
	}
	legacyMigrationsTotal.Inc()
	c.logger.Info("migrated legacy collection", slog.String("key", primary))
}

// aggregate scans every project-scoped key of the tenant and merges the
// records found, keeping the first occurrence of each identifier. The
// key the caller already tried is skipped.
func (c *Collection[T]) aggregate(ctx context.Context, tenantID, skip string) []T {
	keys, err := c.store.Keys(ctx, TenantPrefix(c.scheme, tenantID))
	if err != nil {
		storeErrorsTotal.WithLabelValues("scan").Inc()
		c.logger.Error("prefix scan failed",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return []T{}
	}

	merged := []T{}
	seen := make(map[string]struct{})
	for _, key := range keys {
		if key == skip {
			continue
		}
		records, ok := c.load(ctx, key)
		if !ok {
			continue
		}
		for _, r := range records {
			if _, dup := seen[r.RecordID()]; dup {
				continue
			}
			seen[r.RecordID()] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// GlobalCollection persists one JSON array under a single fixed key,
// shared across tenants. The connector fallback path uses this: records
// carry their own tenant identifier and are filtered by the caller.
// Same degradation rules as Collection.
type GlobalCollection[T Record] struct {
	store  KeyValueStore
	key    string
	logger *slog.Logger
}

// NewGlobalCollection binds a fixed key (for example
// KeyTenantConnectors) to a record type.
func NewGlobalCollection[T Record](kv KeyValueStore, key string, logger *slog.Logger) *GlobalCollection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlobalCollection[T]{
		store:  kv,
		key:    key,
		logger: logger.With(slog.String("key", key)),
	}
}

// Read returns all records under the key, or an empty slice.
func (g *GlobalCollection[T]) Read(ctx context.Context) []T {
	data, found, err := g.store.Get(ctx, g.key)
	if err != nil {
		storeErrorsTotal.WithLabelValues("read").Inc()
		g.logger.Error("read failed", slog.String("error", err.Error()))
		return []T{}
	}
	if !found {
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		storeErrorsTotal.WithLabelValues("unmarshal").Inc()
		g.logger.Warn("corrupt collection ignored", slog.String("error", err.Error()))
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Write upserts item by identifier.
func (g *GlobalCollection[T]) Write(ctx context.Context, item T) {
	records := g.Read(ctx)

	replaced := false
	for i, existing := range records {
		if existing.RecordID() == item.RecordID() {
			records[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, item)
	}

	g.replaceAll(ctx, records)
}

// Remove deletes the record with the given identifier.
func (g *GlobalCollection[T]) Remove(ctx context.Context, id string) {
	records := g.Read(ctx)

	kept := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}

	g.replaceAll(ctx, kept)
}

func (g *GlobalCollection[T]) replaceAll(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		storeErrorsTotal.WithLabelValues("marshal").Inc()
		g.logger.Error("marshal collection failed", slog.String("error", err.Error()))
		return
	}
	if err := g.store.Set(ctx, g.key, data); err != nil {
		storeErrorsTotal.WithLabelValues("write").Inc()
		g.logger.Error("write collection failed", slog.String("error", err.Error()))
	}
}
