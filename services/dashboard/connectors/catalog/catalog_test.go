// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freshCatalog resets the singleton before and after a test.
func freshCatalog(t *testing.T) {
	t.Helper()
	t.Setenv(EnvCatalogPath, "")
	Reset()
	t.Cleanup(Reset)
}

const overrideYAML = `connectors:
  - id: quickbooks
    name: QuickBooks Online
    category: accounting
    data_types: [invoices]
  - id: custom-webhook
    name: Custom Webhook
    category: custom
    data_types: [events]
`

// TestGet_Embedded verifies the embedded default loads and indexes.
func TestGet_Embedded(t *testing.T) {
	freshCatalog(t)

	c, err := Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "embedded", c.Source())
	assert.Equal(t, 10, c.Count())

	def, ok := c.ByID("quickbooks")
	require.True(t, ok)
	assert.Equal(t, "QuickBooks Online", def.Name)
	assert.Equal(t, "accounting", def.Category)
	assert.Contains(t, def.DataTypes, "invoices")
}

// TestGet_ReturnsCachedInstance verifies repeated calls share one
// snapshot.
func TestGet_ReturnsCachedInstance(t *testing.T) {
	freshCatalog(t)

	first, err := Get(context.Background())
	require.NoError(t, err)
	second, err := Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// TestGet_ExternalOverride verifies an operator file replaces the
// embedded catalog.
func TestGet_ExternalOverride(t *testing.T) {
	freshCatalog(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))
	t.Setenv(EnvCatalogPath, path)
	Reset()

	c, err := Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "external", c.Source())
	assert.Equal(t, 2, c.Count())

	_, ok := c.ByID("custom-webhook")
	assert.True(t, ok)
}

// TestGet_MissingExternalFallsBack verifies a dangling path uses the
// embedded default instead of failing.
func TestGet_MissingExternalFallsBack(t *testing.T) {
	freshCatalog(t)
	t.Setenv(EnvCatalogPath, filepath.Join(t.TempDir(), "nope.yaml"))
	Reset()

	c, err := Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "embedded", c.Source())
}

// TestGet_CorruptExternalErrors verifies a present-but-invalid file is
// a hard error rather than a silent fallback.
func TestGet_CorruptExternalErrors(t *testing.T) {
	freshCatalog(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connectors: [not: {valid"), 0o600))
	t.Setenv(EnvCatalogPath, path)
	Reset()

	_, err := Get(context.Background())
	assert.Error(t, err)
}

// TestParse_RejectsDuplicates verifies id validation.
func TestParse_RejectsDuplicates(t *testing.T) {
	_, err := parse([]byte("connectors:\n  - id: a\n  - id: a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = parse([]byte("connectors:\n  - name: no id\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")
}

// TestCatalog_Categories verifies the distinct sorted category list.
func TestCatalog_Categories(t *testing.T) {
	freshCatalog(t)

	c, err := Get(context.Background())
	require.NoError(t, err)

	cats := c.Categories()
	assert.Equal(t, []string{
		"accounting", "commerce", "crm", "marketing",
		"payments", "payroll", "spreadsheets",
	}, cats)

	accounting := c.ByCategory("accounting")
	require.Len(t, accounting, 2)
	assert.Equal(t, "quickbooks", accounting[0].ID)
	assert.Equal(t, "xero", accounting[1].ID)
}

// TestCatalog_Search verifies case-insensitive matching across fields.
func TestCatalog_Search(t *testing.T) {
	freshCatalog(t)

	c, err := Get(context.Background())
	require.NoError(t, err)

	invoices := c.Search("Invoices")
	ids := make([]string, 0, len(invoices))
	for _, d := range invoices {
		ids = append(ids, d.ID)
	}
	assert.Contains(t, ids, "quickbooks")
	assert.Contains(t, ids, "xero")

	assert.Len(t, c.Search("mailchimp"), 1)
	assert.Empty(t, c.Search("fax machine"))
	assert.Len(t, c.Search(""), c.Count())
}

// TestNewWatcher_NoExternalPath verifies construction is a no-op when
// only the embedded catalog is in play.
func TestNewWatcher_NoExternalPath(t *testing.T) {
	freshCatalog(t)

	w, err := NewWatcher(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, w)
}

// TestWatcher_ReloadKeepsPreviousOnFailure verifies a bad edit does not
// discard the last good snapshot.
func TestWatcher_ReloadKeepsPreviousOnFailure(t *testing.T) {
	freshCatalog(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))
	t.Setenv(EnvCatalogPath, path)
	Reset()

	good, err := Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, good.Count())

	var reloaded *Catalog
	w := &Watcher{
		path:     path,
		callback: func(c *Catalog) { reloaded = c },
		logger:   slog.Default(),
	}

	// Break the file; the reload must restore the good snapshot.
	require.NoError(t, os.WriteFile(path, []byte("connectors: [broken"), 0o600))
	w.reload(context.Background())
	assert.Nil(t, reloaded)

	current, err := Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, good, current)

	// Fix the file; the reload picks it up and fires the callback.
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))
	w.reload(context.Background())
	require.NotNil(t, reloaded)
	assert.Equal(t, 2, reloaded.Count())
}
