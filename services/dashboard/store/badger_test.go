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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenBadger_InMemory verifies the in-memory substrate round-trips.
func TestOpenBadger_InMemory(t *testing.T) {
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "dyocense-plans-tenantA", []byte(`[]`)))

	value, found, err := s.Get(ctx, "dyocense-plans-tenantA")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`[]`), value)
}

// TestOpenBadger_Persistent verifies data survives close and reopen.
func TestOpenBadger_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig(dir)
	cfg.GCInterval = 0

	s, err := OpenBadger(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s2, err := OpenBadger(cfg)
	require.NoError(t, err)
	defer s2.Close()

	value, found, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), value)
}

// TestOpenBadger_RequiresDir verifies persistent mode needs a directory.
func TestOpenBadger_RequiresDir(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dir is required")
}

// TestBadgerStore_Keys verifies prefix scans return lexical order.
func TestBadgerStore_Keys(t *testing.T) {
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "dyocense-plans-tenantA-p2", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "dyocense-plans-tenantA-p1", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "dyocense-plans-tenantB-p1", []byte(`[]`)))

	keys, err := s.Keys(ctx, "dyocense-plans-tenantA-")
	require.NoError(t, err)
	assert.Equal(t, []string{"dyocense-plans-tenantA-p1", "dyocense-plans-tenantA-p2"}, keys)
}

// TestBadgerStore_Delete verifies deletes and absent-key deletes.
func TestBadgerStore_Delete(t *testing.T) {
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting again is not an error.
	require.NoError(t, s.Delete(ctx, "k"))
}

// TestBadgerStore_ContextCancelled verifies cancellation short-circuits.
func TestBadgerStore_ContextCancelled(t *testing.T) {
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = s.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(ctx, "k", nil))
}

// TestDefaultBadgerConfig verifies production defaults.
func TestDefaultBadgerConfig(t *testing.T) {
	cfg := DefaultBadgerConfig("/data/dyocense")
	assert.Equal(t, "/data/dyocense", cfg.Dir)
	assert.True(t, cfg.SyncWrites)
	assert.Equal(t, 5*time.Minute, cfg.GCInterval)
	assert.InDelta(t, 0.5, cfg.GCDiscardRatio, 0.001)

	mem := InMemoryBadgerConfig()
	assert.True(t, mem.InMemory)
	assert.Equal(t, time.Duration(0), mem.GCInterval)
}
