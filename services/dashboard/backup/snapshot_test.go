// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/store"
)

func seededStore(t *testing.T) store.KeyValueStore {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryStore()

	require.NoError(t, kv.Set(ctx, "dyocense-plans-tenantA-proj1", []byte(`[{"id":"p1"}]`)))
	require.NoError(t, kv.Set(ctx, "dyocense-active-plan-tenantA-proj1", []byte(`"p1"`)))
	require.NoError(t, kv.Set(ctx, "dyocense_streak_data-tenantA", []byte(`{"current":3}`)))
	require.NoError(t, kv.Set(ctx, "goalVersions:g1", []byte(`{"goalId":"g1","versions":[]}`)))
	require.NoError(t, kv.Set(ctx, store.KeyTenantConnectors, []byte(`[{"id":"c1","tenantId":"tenantA"}]`)))

	// Another tenant whose id shares tenantA as a prefix must stay out.
	require.NoError(t, kv.Set(ctx, "dyocense-plans-tenantA2-proj1", []byte(`[{"id":"other"}]`)))
	return kv
}

// TestCreate_CapturesTenantKeys verifies the snapshot contents and the
// object name layout.
func TestCreate_CapturesTenantKeys(t *testing.T) {
	ctx := context.Background()
	kv := seededStore(t)
	bucket := NewMemoryObjectStore()
	s := NewSnapshotter(kv, bucket, nil, nil, "backups")
	s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	object, err := s.Create(ctx, "tenantA")
	require.NoError(t, err)
	assert.Equal(t, "backups/tenantA/20250310T120000Z.json", object)

	raw, err := bucket.Get(ctx, object)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "tenantA", snap.TenantID)

	keys := make([]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		keys = append(keys, e.Key)
	}
	assert.Contains(t, keys, "dyocense-plans-tenantA-proj1")
	assert.Contains(t, keys, "dyocense-active-plan-tenantA-proj1")
	assert.Contains(t, keys, "dyocense_streak_data-tenantA")
	assert.Contains(t, keys, "goalVersions:g1")
	assert.Contains(t, keys, store.KeyTenantConnectors)
	assert.NotContains(t, keys, "dyocense-plans-tenantA2-proj1")
}

// TestCreate_PublishesEvent verifies the completion event payload.
func TestCreate_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	s := NewSnapshotter(seededStore(t), NewMemoryObjectStore(), bus, nil, "")

	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) }, events.TypeBackupCompleted)

	object, err := s.Create(ctx, "tenantA")
	require.NoError(t, err)

	require.Len(t, got, 1)
	data, ok := got[0].Data.(events.BackupCompletedData)
	require.True(t, ok)
	assert.Equal(t, object, data.Object)
	assert.Equal(t, 5, data.Keys)
}

// TestRestore_RoundTrip verifies a wiped store comes back from a
// snapshot.
func TestRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := seededStore(t)
	bucket := NewMemoryObjectStore()
	s := NewSnapshotter(kv, bucket, nil, nil, "")

	object, err := s.Create(ctx, "tenantA")
	require.NoError(t, err)

	fresh := store.NewMemoryStore()
	restoreTarget := NewSnapshotter(fresh, bucket, nil, nil, "")
	restored, err := restoreTarget.Restore(ctx, object)
	require.NoError(t, err)
	assert.Equal(t, 5, restored)

	value, found, err := fresh.Get(ctx, "dyocense_streak_data-tenantA")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"current":3}`, string(value))
}

// TestRestore_MissingObject verifies the error path.
func TestRestore_MissingObject(t *testing.T) {
	s := NewSnapshotter(store.NewMemoryStore(), NewMemoryObjectStore(), nil, nil, "")
	_, err := s.Restore(context.Background(), "backups/tenantA/nope.json")
	assert.Error(t, err)
}

// TestCreateAll_BacksUpEveryTenant verifies the concurrent multi-tenant
// path.
func TestCreateAll_BacksUpEveryTenant(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, "dyocense_streak_data-tenantA", []byte(`{"current":1}`)))
	require.NoError(t, kv.Set(ctx, "dyocense_streak_data-tenantB", []byte(`{"current":2}`)))

	s := NewSnapshotter(kv, NewMemoryObjectStore(), nil, nil, "")

	objects, err := s.CreateAll(ctx, []string{"tenantA", "tenantB"})
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Contains(t, objects["tenantA"], "backups/tenantA/")
	assert.Contains(t, objects["tenantB"], "backups/tenantB/")
}

// TestList_NewestFirst verifies snapshot listing order.
func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotter(seededStore(t), NewMemoryObjectStore(), nil, nil, "")

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		at = at.Add(time.Hour)
		return at
	}

	_, err := s.Create(ctx, "tenantA")
	require.NoError(t, err)
	_, err = s.Create(ctx, "tenantA")
	require.NoError(t, err)

	names, err := s.List(ctx, "tenantA")
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Greater(t, names[0], names[1])

	empty, err := s.List(ctx, "tenantB")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// TestCreate_EmptyTenant verifies validation.
func TestCreate_EmptyTenant(t *testing.T) {
	s := NewSnapshotter(store.NewMemoryStore(), NewMemoryObjectStore(), nil, nil, "")
	_, err := s.Create(context.Background(), "")
	assert.Error(t, err)
}
