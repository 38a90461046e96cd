// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"

	"github.com/dyocense/localcore/pkg/logging"
	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/config"
	"github.com/dyocense/localcore/services/dashboard/connectors"
	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/middleware"
	"github.com/dyocense/localcore/services/dashboard/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// runServe starts an embedded daemon inside the CLI process.
//
// # Description
//
// Development convenience: the same service assembly as dashd without
// auth, rate limits, telemetry, or backups. Honors the regular config
// file and environment, so `dyocense serve` against an empty machine
// brings up an in-memory daemon the other commands can talk to.
//
// # Limitations
//
//   - Runs until killed; shutdown is abrupt (the store is closed by
//     process exit, Badger recovers via its WAL).
//   - Not for production. Use dashd.
func runServe(cmd *cobra.Command, args []string) {
	if err := config.Load(); err != nil {
		fail("Could not load the dashboard config", err)
	}
	cfg := config.Global

	appLog := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "dyocense-serve",
		JSON:    cfg.Logging.JSON,
	})
	defer appLog.Close()
	logger := appLog.Slog()
	slog.SetDefault(logger)

	var kv store.KeyValueStore
	if cfg.Store.DataDir == "" {
		ux.WarningBox("Volatile store",
			"No data directory is configured.\nGoals, plans, and connectors are lost when this process exits.")
		kv = store.NewMemoryStore()
	} else {
		bcfg := store.DefaultBadgerConfig(cfg.Store.DataDir)
		bcfg.Logger = logger
		opened, err := store.OpenBadger(bcfg)
		if err != nil {
			fail("Could not open the local store", err)
		}
		kv = opened
	}

	bus := events.NewBus(events.WithLogger(logger))
	svc := dashboard.NewService(kv, bus, logger)

	if cfg.Connectors.BaseURL == "" {
		svc.WithConnectors(connectors.NewLocalManager(kv, bus, logger))
	} else {
		client := connectors.NewHTTPClient(connectors.HTTPClientConfig{
			BaseURL: cfg.Connectors.BaseURL,
			Token:   cfg.Connectors.Token,
		})
		mcfg := connectors.DefaultManagerConfig()
		mcfg.TTL = cfg.Connectors.TTL()
		svc.WithConnectors(connectors.NewManager(client, kv, bus, logger, mcfg))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := dashboard.NewHandlers(svc)
	router.GET("/healthz", handlers.HandleHealth)

	// Tenant scoping only; a dev daemon has no auth or rate limits.
	v1 := router.Group("/v1")
	v1.Use(middleware.TenantMiddleware())
	dashboard.RegisterRoutes(v1, handlers)

	addr := cfg.Server.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ux.Info(fmt.Sprintf("Development daemon listening on %s", addr))
	ux.Muted("No auth, no rate limits, no telemetry. Use dashd for production.")
	if err := router.Run(addr); err != nil {
		fail("Server stopped", err)
	}
}
