// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog loads the connector marketplace catalog.
//
// The catalog describes the connectors a tenant can add: identity,
// category, auth style, and the data types each one syncs. A default
// catalog ships embedded in the binary; operators can override it with
// an external YAML file, and a Watcher can hot-reload that file.
//
// Thread Safety:
//
//	All exported functions and types are safe for concurrent use.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxCatalogFileSize caps external catalog files at 1MB.
	MaxCatalogFileSize = 1024 * 1024

	// MaxCatalogEntries caps the number of connector definitions.
	MaxCatalogEntries = 500

	// EnvCatalogPath names the environment variable that points to an
	// external catalog file.
	EnvCatalogPath = "DYOCENSE_CATALOG_PATH"
)

// =============================================================================
// Embedded Default Catalog
// =============================================================================

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	catalogLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_catalog_load_errors_total",
		Help: "Total connector catalog load errors",
	})

	catalogEntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dyocense_catalog_entries",
		Help: "Connector definitions in the loaded catalog",
	})
)

var catalogTracer = otel.Tracer("dashboard.connectors.catalog")

// =============================================================================
// Types
// =============================================================================

// catalogYAML is the root structure for YAML deserialization.
type catalogYAML struct {
	Connectors []entryYAML `yaml:"connectors"`
}

type entryYAML struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Icon        string   `yaml:"icon"`
	Description string   `yaml:"description"`
	DataTypes   []string `yaml:"data_types"`
	Auth        string   `yaml:"auth"`
	DefaultSync string   `yaml:"default_sync"`
}

// Definition describes one connector available in the marketplace.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	DataTypes   []string `json:"dataTypes"`
	Auth        string   `json:"auth"`
	DefaultSync string   `json:"defaultSync"`
}

// Catalog is an immutable snapshot of the marketplace.
//
// Thread Safety: Safe for concurrent use after initialization.
type Catalog struct {
	entries    []Definition
	byID       map[string]*Definition
	byCategory map[string][]string
	loadedAt   int64
	source     string
}

// =============================================================================
// Singleton
// =============================================================================

var (
	catalogMu      sync.RWMutex
	catalogOnce    sync.Once
	cachedCatalog  *Catalog
	catalogLoadErr error
)

// Get returns the cached catalog, loading it on first call.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Get(ctx context.Context) (*Catalog, error) {
	if ctx == nil {
		return nil, fmt.Errorf("catalog.Get: ctx must not be nil")
	}

	catalogMu.RLock()
	if cachedCatalog != nil || catalogLoadErr != nil {
		c, err := cachedCatalog, catalogLoadErr
		catalogMu.RUnlock()
		return c, err
	}
	catalogMu.RUnlock()

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if cachedCatalog != nil || catalogLoadErr != nil {
		return cachedCatalog, catalogLoadErr
	}

	catalogOnce.Do(func() {
		cachedCatalog, catalogLoadErr = load(ctx)
	})

	return cachedCatalog, catalogLoadErr
}

// Reset clears the cached catalog so the next Get reloads it.
//
// Intended for tests and for the Watcher's hot-reload path; production
// code should not call it directly.
func Reset() {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalogOnce = sync.Once{}
	cachedCatalog = nil
	catalogLoadErr = nil
}

// =============================================================================
// Loading
// =============================================================================

// load reads the external catalog when configured and falls back to the
// embedded default when the external file is missing or unreadable.
func load(ctx context.Context) (*Catalog, error) {
	ctx, span := catalogTracer.Start(ctx, "catalog.Load")
	defer span.End()

	var data []byte
	source := "embedded"

	if path := externalPath(); path != "" {
		external, err := readExternal(path)
		if err == nil {
			data = external
			source = "external"
			slog.Info("loaded connector catalog from external file",
				slog.String("path", path))
		} else {
			slog.Warn("external connector catalog not available, using embedded default",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	if data == nil {
		data = defaultCatalogYAML
	}

	span.SetAttributes(
		attribute.String("source", source),
		attribute.Int("yaml_size", len(data)),
	)

	c, err := parse(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		catalogLoadErrors.Inc()
		return nil, fmt.Errorf("parsing connector catalog: %w", err)
	}
	c.source = source

	catalogEntriesGauge.Set(float64(len(c.entries)))
	slog.Info("connector catalog loaded",
		slog.Int("entries", len(c.entries)),
		slog.String("source", source))

	return c, nil
}

// externalPath returns the configured external catalog path, or "".
func externalPath() string {
	if path := os.Getenv(EnvCatalogPath); path != "" {
		return path
	}

	for _, loc := range []string{
		"./config/connector_catalog.yaml",
		"./connector_catalog.yaml",
	} {
		if _, err := os.Stat(loc); err == nil {
			abs, _ := filepath.Abs(loc)
			return abs
		}
	}

	return ""
}

// readExternal reads an external catalog file with path and size checks.
func readExternal(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if strings.Contains(abs, "..") {
		return nil, fmt.Errorf("readExternal: path traversal not allowed: %s", abs)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > MaxCatalogFileSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), MaxCatalogFileSize)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// parse validates YAML data and builds the lookup indexes.
func parse(data []byte) (*Catalog, error) {
	var root catalogYAML
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if len(root.Connectors) > MaxCatalogEntries {
		return nil, fmt.Errorf("too many catalog entries: %d (max %d)", len(root.Connectors), MaxCatalogEntries)
	}

	c := &Catalog{
		entries:    make([]Definition, 0, len(root.Connectors)),
		byID:       make(map[string]*Definition, len(root.Connectors)),
		byCategory: make(map[string][]string),
		loadedAt:   time.Now().UnixMilli(),
	}

	for i, e := range root.Connectors {
		if e.ID == "" {
			return nil, fmt.Errorf("parse: catalog entry at index %d has empty id", i)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("parse: duplicate catalog id %q", e.ID)
		}
		if e.Name == "" {
			slog.Warn("catalog entry has no display name", slog.String("id", e.ID))
		}

		def := Definition{
			ID:          e.ID,
			Name:        e.Name,
			Category:    e.Category,
			Icon:        e.Icon,
			Description: e.Description,
			DataTypes:   e.DataTypes,
			Auth:        e.Auth,
			DefaultSync: e.DefaultSync,
		}
		c.entries = append(c.entries, def)
		c.byID[e.ID] = &c.entries[len(c.entries)-1]
		if e.Category != "" {
			c.byCategory[e.Category] = append(c.byCategory[e.Category], e.ID)
		}
	}

	return c, nil
}

// =============================================================================
// Catalog Methods
// =============================================================================

// All returns every definition in catalog order.
func (c *Catalog) All() []Definition {
	if c == nil {
		return []Definition{}
	}
	out := make([]Definition, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByID returns the definition for a connector id.
func (c *Catalog) ByID(id string) (*Definition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.byID[id]
	return def, ok
}

// ByCategory returns the definitions in one category, in catalog order.
func (c *Catalog) ByCategory(category string) []Definition {
	if c == nil {
		return []Definition{}
	}
	ids := c.byCategory[category]
	out := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := c.byID[id]; ok {
			out = append(out, *def)
		}
	}
	return out
}

// Categories returns the distinct category names, sorted.
func (c *Catalog) Categories() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, 0, len(c.byCategory))
	for cat := range c.byCategory {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Search returns definitions whose name, category, description, or data
// types contain the query, case-insensitively. An empty query returns
// everything.
func (c *Catalog) Search(query string) []Definition {
	if c == nil {
		return []Definition{}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}

	out := make([]Definition, 0)
	for _, def := range c.entries {
		if matchesQuery(def, q) {
			out = append(out, def)
		}
	}
	return out
}

func matchesQuery(def Definition, q string) bool {
	if strings.Contains(strings.ToLower(def.Name), q) ||
		strings.Contains(strings.ToLower(def.ID), q) ||
		strings.Contains(strings.ToLower(def.Category), q) ||
		strings.Contains(strings.ToLower(def.Description), q) {
		return true
	}
	for _, dt := range def.DataTypes {
		if strings.Contains(strings.ToLower(dt), q) {
			return true
		}
	}
	return false
}

// Count returns the number of definitions.
func (c *Catalog) Count() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// LoadedAt returns when the catalog was loaded (Unix milliseconds).
func (c *Catalog) LoadedAt() int64 {
	if c == nil {
		return 0
	}
	return c.loadedAt
}

// Source reports where the catalog came from: "embedded" or "external".
func (c *Catalog) Source() string {
	if c == nil {
		return ""
	}
	return c.source
}
