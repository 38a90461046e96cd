// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"time"

	"github.com/dyocense/localcore/services/dashboard/telemetry"
)

// DashboardConfig is the full configuration for the dashboard daemon.
// It is read from YAML once at startup and then overlaid with
// environment variables, so container deployments can override any
// field without editing the file.
type DashboardConfig struct {
	// Server: where the HTTP API listens.
	Server ServerConfig `yaml:"server"`

	// Store: where the local key-value substrate keeps its data.
	Store StoreConfig `yaml:"store"`

	// Connectors: the remote connector service and the cache in front
	// of it.
	Connectors ConnectorsConfig `yaml:"connectors"`

	// History: the InfluxDB progress sink. Optional.
	History HistoryConfig `yaml:"history"`

	// Backup: the GCS snapshot target. Optional.
	Backup BackupConfig `yaml:"backup"`

	// Telemetry: OTel trace/metric exporters.
	Telemetry telemetry.Config `yaml:"telemetry"`

	// Logging: level and file output.
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	// ListenAddr is the host:port the API binds, e.g. ":12400".
	ListenAddr string `yaml:"listen_addr"`

	// AuthToken, when non-empty, is required as a bearer token on
	// every /v1 request. Empty disables auth (local single-user mode).
	AuthToken string `yaml:"auth_token,omitempty"`

	// RateLimit is requests per second per client IP. Zero disables
	// limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket size for RateLimit.
	RateBurst int `yaml:"rate_burst"`
}

type StoreConfig struct {
	// DataDir is the Badger directory. Empty means in-memory, which
	// loses everything on restart and is only for tests and demos.
	DataDir string `yaml:"data_dir"`
}

type ConnectorsConfig struct {
	// BaseURL is the remote connector API root. Empty runs the
	// dashboard in local-only mode from the start.
	BaseURL string `yaml:"base_url"`

	// Token authenticates against the remote connector API.
	Token string `yaml:"token,omitempty"`

	// CacheTTLSeconds is how long a tenant's connector snapshot is
	// served without a remote refresh.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// TTL converts CacheTTLSeconds to a duration, falling back to the
// manager default when unset.
func (c ConnectorsConfig) TTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

type HistoryConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token,omitempty"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	// TrendDepth is how many progress snapshots the in-memory trend
	// ring keeps per goal.
	TrendDepth int `yaml:"trend_depth"`
}

type BackupConfig struct {
	// Bucket is the GCS bucket snapshots are written to. Empty
	// disables remote backup; snapshots still work against the
	// in-memory object store for tests.
	Bucket string `yaml:"bucket"`

	// CredentialsFile is a service account JSON key path. Empty uses
	// Application Default Credentials.
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	// Prefix namespaces snapshot objects inside the bucket.
	Prefix string `yaml:"prefix"`
}

type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Dir enables file logging when non-empty.
	Dir string `yaml:"dir,omitempty"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration a fresh install runs with:
// local listener, on-disk store under the user data dir, remote
// integrations disabled.
func DefaultConfig() DashboardConfig {
	return DashboardConfig{
		Server: ServerConfig{
			ListenAddr: ":12400",
			RateLimit:  50,
			RateBurst:  100,
		},
		Store: StoreConfig{
			DataDir: defaultDataDir(),
		},
		Connectors: ConnectorsConfig{
			CacheTTLSeconds: 60,
		},
		History: HistoryConfig{
			TrendDepth: 90,
		},
		Backup: BackupConfig{
			Prefix: "backups",
		},
		Telemetry: telemetry.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
