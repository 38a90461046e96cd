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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath points the loader at an alternate YAML file. Useful
// for containers mounting config read-only.
const EnvConfigPath = "DYOCENSE_CONFIG_PATH"

var (
	// Global is the singleton configuration. Populated by Load.
	Global DashboardConfig

	mu   sync.Mutex
	once sync.Once
)

// Load ensures the config is loaded into the Global variable. The
// first caller does the work; later calls are no-ops that return the
// first call's error.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

// Reset clears the singleton so tests can load different files. Not
// for production use.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	Global = DashboardConfig{}
	once = sync.Once{}
}

func loadInternal() error {
	configPath, err := resolvePath()
	if err != nil {
		return err
	}

	// create it if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf(" First run detected, creating the config at %s\n", configPath)
		if err := createDefault(configPath); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}

	// Start from defaults so fields absent from the file keep sane
	// values instead of zeroing out.
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse the config file %s: %w", configPath, err)
	}
	applyEnv(&cfg)

	mu.Lock()
	Global = cfg
	mu.Unlock()
	return nil
}

// resolvePath picks the config file location: the env override when
// set, otherwise ~/.dyocense/dashboard.yaml.
func resolvePath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".dyocense", "dashboard.yaml"), nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overlays environment variables onto cfg. Env always wins
// over the file so compose deployments can inject endpoints and
// secrets without templating YAML.
func applyEnv(cfg *DashboardConfig) {
	setString(&cfg.Server.ListenAddr, "DYOCENSE_LISTEN_ADDR")
	setString(&cfg.Server.AuthToken, "DYOCENSE_AUTH_TOKEN")
	setString(&cfg.Store.DataDir, "DYOCENSE_DATA_DIR")

	setString(&cfg.Connectors.BaseURL, "CONNECTOR_SERVICE_URL")
	setString(&cfg.Connectors.Token, "CONNECTOR_SERVICE_TOKEN")
	setInt(&cfg.Connectors.CacheTTLSeconds, "DYOCENSE_CONNECTOR_TTL_SECONDS")

	setString(&cfg.History.URL, "INFLUXDB_URL")
	setString(&cfg.History.Token, "INFLUXDB_TOKEN")
	setString(&cfg.History.Org, "INFLUXDB_ORG")
	setString(&cfg.History.Bucket, "INFLUXDB_BUCKET")

	setString(&cfg.Backup.Bucket, "DYOCENSE_BACKUP_BUCKET")
	setString(&cfg.Backup.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	setString(&cfg.Logging.Level, "DYOCENSE_LOG_LEVEL")
	setString(&cfg.Logging.Dir, "DYOCENSE_LOG_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// A malformed override is ignored rather than crashing the
		// daemon; the file or default value stands.
		return
	}
	*dst = n
}

// defaultDataDir is where the Badger store lives unless overridden.
// Falls back to a relative directory when the home dir is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dyocense-data"
	}
	return filepath.Join(home, ".dyocense", "data")
}
