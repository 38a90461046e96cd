// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package goals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyocense/localcore/services/dashboard/store"
)

// failingStore errors on every operation to exercise degradation.
type failingStore struct{ err error }

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.err
}
func (f *failingStore) Set(ctx context.Context, key string, value []byte) error { return f.err }
func (f *failingStore) Delete(ctx context.Context, key string) error            { return f.err }
func (f *failingStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, f.err
}
func (f *failingStore) Close() error { return nil }

// TestRepository_HistoryEmpty verifies an unknown goal reads as an
// empty, append-ready history.
func TestRepository_HistoryEmpty(t *testing.T) {
	repo := NewRepository(store.NewMemoryStore(), nil)

	h := repo.History(context.Background(), "g1")
	assert.Equal(t, "g1", h.GoalID)
	assert.NotNil(t, h.Versions)
	assert.Empty(t, h.Versions)
	assert.NotNil(t, h.Branches)
}

// TestRepository_CreateVersionChain verifies versions persist and
// number monotonically from 1.
func TestRepository_CreateVersionChain(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	repo := NewRepository(kv, nil)

	for i := 1; i <= 3; i++ {
		v := repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("Grow revenue")}, "edit", "user1")
		assert.Equal(t, i, v.Version)
		assert.Equal(t, "g1", v.GoalID)
	}

	// The document lives under the goalVersions: key family.
	_, found, err := kv.Get(ctx, store.GoalVersionsKey("g1"))
	require.NoError(t, err)
	assert.True(t, found)

	// A fresh repository over the same substrate sees the full chain.
	h := NewRepository(kv, nil).History(ctx, "g1")
	require.Len(t, h.Versions, 3)
	assert.Equal(t, 1, h.Versions[0].Version)
	assert.Equal(t, 3, h.Versions[2].Version)
	require.NotNil(t, h.Versions[2].ParentVersion)
	assert.Equal(t, 2, *h.Versions[2].ParentVersion)
}

// TestRepository_GoalsIsolated verifies histories of different goals
// never mix.
func TestRepository_GoalsIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)

	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("one")}, "edit", "user1")
	repo.CreateVersion(ctx, "g2", VersionUpdate{Title: strptr("two")}, "edit", "user1")

	assert.Len(t, repo.History(ctx, "g1").Versions, 1)
	assert.Len(t, repo.History(ctx, "g2").Versions, 1)
	assert.Equal(t, "one", repo.History(ctx, "g1").Versions[0].Title)
}

// TestRepository_RollbackTo verifies rollback appends a restoring
// version and persists it.
func TestRepository_RollbackTo(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)

	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("one")}, "initial", "user1")
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("two")}, "retitle", "user1")
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("three")}, "retitle", "user1")

	v := repo.RollbackTo(ctx, "g1", 1, "user2")
	require.NotNil(t, v)
	assert.Equal(t, 4, v.Version)
	assert.Equal(t, "one", v.Title)
	assert.Equal(t, "Rolled back to version 1", v.ChangeDescription)

	h := repo.History(ctx, "g1")
	require.Len(t, h.Versions, 4)
	assert.Equal(t, "one", h.Versions[3].Title)
}

// TestRepository_RollbackMissing verifies a bad target is a nil result
// and leaves the history alone.
func TestRepository_RollbackMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("one")}, "initial", "user1")

	assert.Nil(t, repo.RollbackTo(ctx, "g1", 9, "user1"))
	assert.Len(t, repo.History(ctx, "g1").Versions, 1)
}

// TestRepository_CreateBranch verifies branches persist with their
// registry entry.
func TestRepository_CreateBranch(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)

	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("Grow revenue")}, "initial", "user1")
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("Grow revenue faster")}, "retitle", "user1")

	v := repo.CreateBranch(ctx, "g1", 1, "experiment", "user2")
	require.NotNil(t, v)
	assert.Equal(t, "Grow revenue (experiment)", v.Title)
	assert.Equal(t, "g1", v.GoalID)

	h := repo.History(ctx, "g1")
	require.Len(t, h.Versions, 3)
	assert.Equal(t, []int{v.Version}, h.Branches["experiment"])
	assert.Equal(t, "g1", h.Versions[2].GoalID)
}

// TestRepository_CreateBranchMissing verifies branching off a missing
// version does nothing.
func TestRepository_CreateBranchMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("one")}, "initial", "user1")

	assert.Nil(t, repo.CreateBranch(ctx, "g1", 5, "experiment", "user1"))
	h := repo.History(ctx, "g1")
	assert.Len(t, h.Versions, 1)
	assert.Empty(t, h.Branches)
}

// TestRepository_SetStatus verifies activation archives the previously
// active version.
func TestRepository_SetStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore(), nil)

	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("one")}, "initial", "user1")
	repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("two")}, "retitle", "user1")

	require.True(t, repo.SetStatus(ctx, "g1", 1, StatusActive))
	h := repo.History(ctx, "g1")
	assert.Equal(t, StatusActive, h.Versions[0].Status)

	require.True(t, repo.SetStatus(ctx, "g1", 2, StatusActive))
	h = repo.History(ctx, "g1")
	assert.Equal(t, StatusArchived, h.Versions[0].Status)
	assert.Equal(t, StatusActive, h.Versions[1].Status)

	assert.False(t, repo.SetStatus(ctx, "g1", 9, StatusActive))
}

// TestRepository_CorruptHistory verifies unreadable documents read as
// empty so versioning can restart.
func TestRepository_CorruptHistory(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, store.GoalVersionsKey("g1"), []byte("{not json")))

	repo := NewRepository(kv, nil)
	assert.Empty(t, repo.History(ctx, "g1").Versions)

	v := repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("fresh start")}, "initial", "user1")
	assert.Equal(t, 1, v.Version)
}

// TestRepository_SubstrateFailure verifies a broken substrate degrades
// to in-memory results instead of surfacing errors.
func TestRepository_SubstrateFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(&failingStore{err: errors.New("disk gone")}, nil)

	h := repo.History(ctx, "g1")
	assert.Empty(t, h.Versions)

	v := repo.CreateVersion(ctx, "g1", VersionUpdate{Title: strptr("best effort")}, "initial", "user1")
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, "best effort", v.Title)
}
