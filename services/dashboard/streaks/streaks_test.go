// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package streaks

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

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestRecordActivity_FirstCheckIn verifies the initial streak state.
func TestRecordActivity_FirstCheckIn(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	d := tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	assert.Equal(t, 1, d.Current)
	assert.Equal(t, 1, d.Longest)
	assert.Equal(t, []string{"2025-03-10"}, d.RecentDays)
	assert.Equal(t, day("2025-03-10"), d.LastCheckIn)
}

// TestRecordActivity_ConsecutiveDays verifies extension and the gap
// reset.
func TestRecordActivity_ConsecutiveDays(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	tr.RecordActivity(ctx, "tenantA", day("2025-03-11"))
	d := tr.RecordActivity(ctx, "tenantA", day("2025-03-12"))
	assert.Equal(t, 3, d.Current)
	assert.Equal(t, 3, d.Longest)

	// Two-day gap restarts the streak but keeps the longest.
	d = tr.RecordActivity(ctx, "tenantA", day("2025-03-15"))
	assert.Equal(t, 1, d.Current)
	assert.Equal(t, 3, d.Longest)
}

// TestRecordActivity_SameDayIdempotent verifies repeats do not extend.
func TestRecordActivity_SameDayIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	d := tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	assert.Equal(t, 1, d.Current)
	assert.Equal(t, []string{"2025-03-10"}, d.RecentDays)
}

// TestRecordActivity_OutOfOrderIgnored verifies an earlier day leaves
// the streak untouched.
func TestRecordActivity_OutOfOrderIgnored(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	tr.RecordActivity(ctx, "tenantA", day("2025-03-11"))
	d := tr.RecordActivity(ctx, "tenantA", day("2025-03-09"))
	assert.Equal(t, 2, d.Current)
	assert.Equal(t, day("2025-03-11"), d.LastCheckIn)
}

// TestRecordActivity_TimeOfDayIrrelevant verifies check-ins compare as
// calendar dates, not instants.
func TestRecordActivity_TimeOfDayIrrelevant(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	late := day("2025-03-10").Add(23 * time.Hour)
	early := day("2025-03-11").Add(1 * time.Minute)
	tr.RecordActivity(ctx, "tenantA", late)
	d := tr.RecordActivity(ctx, "tenantA", early)
	assert.Equal(t, 2, d.Current)
}

// TestRecordActivity_RingBounded verifies the activity ring keeps only
// the most recent entries.
func TestRecordActivity_RingBounded(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	start := day("2025-01-01")
	for i := 0; i < recentDaysLimit+5; i++ {
		tr.RecordActivity(ctx, "tenantA", start.AddDate(0, 0, i))
	}

	d := tr.Get(ctx, "tenantA")
	assert.Len(t, d.RecentDays, recentDaysLimit)
	assert.Equal(t, "2025-01-06", d.RecentDays[0])
	assert.Equal(t, recentDaysLimit+5, d.Current)
}

// TestRecordActivity_PublishesEvent verifies the bus sees check-ins.
func TestRecordActivity_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	tr := NewTracker(store.NewMemoryStore(), bus, nil)

	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) }, events.TypeStreakRecorded)

	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	require.Len(t, got, 1)
	data, ok := got[0].Data.(events.StreakRecordedData)
	require.True(t, ok)
	assert.Equal(t, 1, data.Current)

	// Idempotent repeat publishes nothing.
	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	assert.Len(t, got, 1)
}

// TestTracker_LegacyKeyMigration verifies single-tenant data under the
// bare key is claimed by the first tenant that reads it.
func TestTracker_LegacyKeyMigration(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	legacy := StreakData{Current: 4, Longest: 9, LastCheckIn: day("2025-03-10"),
		RecentDays: []string{"2025-03-10"}}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.SchemeStreaks, raw))

	tr := NewTracker(kv, nil, nil)
	d := tr.Get(ctx, "tenantA")
	assert.Equal(t, 4, d.Current)
	assert.Equal(t, 9, d.Longest)
	assert.Equal(t, "tenantA", d.TenantID)

	// The scoped key now holds the migrated document.
	scoped, found, err := kv.Get(ctx, store.ScopedKey(store.SchemeStreaks, "tenantA", ""))
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(scoped), `"tenantId":"tenantA"`)
}

// TestTracker_TenantsIsolated verifies per-tenant documents.
func TestTracker_TenantsIsolated(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(store.NewMemoryStore(), nil, nil)

	tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	tr.RecordActivity(ctx, "tenantA", day("2025-03-11"))
	tr.RecordActivity(ctx, "tenantB", day("2025-03-11"))

	assert.Equal(t, 2, tr.Get(ctx, "tenantA").Current)
	assert.Equal(t, 1, tr.Get(ctx, "tenantB").Current)
}

// TestTracker_SubstrateFailure verifies the zero-streak degradation.
func TestTracker_SubstrateFailure(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(&failingStore{}, nil, nil)

	d := tr.Get(ctx, "tenantA")
	assert.Zero(t, d.Current)

	// Recording still returns a coherent result even though the write
	// is dropped.
	d = tr.RecordActivity(ctx, "tenantA", day("2025-03-10"))
	assert.Equal(t, 1, d.Current)
}

type failingStore struct{}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, assert.AnError
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return assert.AnError
}

func (f *failingStore) Delete(ctx context.Context, key string) error { return assert.AnError }

func (f *failingStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, assert.AnError
}

func (f *failingStore) Close() error { return nil }
