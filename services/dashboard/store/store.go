// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store provides the scoped key-value persistence layer shared
// by plans, connectors, goal histories, and streaks.
//
// The layer is deliberately a best-effort cache, not a system of
// record: reads of absent or corrupt data return empty collections,
// and write failures degrade to no-ops after logging. Callers above
// this package never see a storage error.
//
// Two levels:
//
//   - KeyValueStore: raw byte-level storage. BadgerStore persists to
//     disk (or memory for tests); MemoryStore is a plain map. Everything
//     above depends only on the interface so a different substrate can
//     be swapped in.
//   - Collection / GlobalCollection: JSON collections over the raw
//     store, with tenant[-project] key scoping, legacy-key migration,
//     and the prefix-scan fallback for unknown project scopes.
package store

import "context"

// KeyValueStore is the injected storage substrate.
//
// Implementations must be safe for concurrent use. Get reports absence
// through the boolean, not an error; errors are reserved for substrate
// failures (I/O, closed store).
type KeyValueStore interface {
	// Get returns the value at key. The boolean is false when the key
	// does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys beginning with prefix, in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the substrate. The store is unusable afterwards.
	Close() error
}
