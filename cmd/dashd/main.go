// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dashd starts the Dyocense dashboard daemon.
//
// The daemon is the local core behind the SMB dashboard:
//   - Goal version history with SMART validation, rollback, and branching
//   - Saved plan persistence with an active-plan pointer
//   - Connector management with a cached remote client and local fallback
//   - Check-in streaks, progress trends, and snapshot backups
//   - A WebSocket event feed for live dashboard updates
//
// Usage:
//
//	go run ./cmd/dashd
//	go run ./cmd/dashd -config /etc/dyocense/dashboard.yaml
//	go run ./cmd/dashd -debug
//
// With a remote connector service:
//
//	CONNECTOR_SERVICE_URL=https://connectors.example.com CONNECTOR_SERVICE_TOKEN=secret go run ./cmd/dashd
//
// With InfluxDB progress history:
//
//	INFLUXDB_URL=http://localhost:8086 INFLUXDB_TOKEN=secret INFLUXDB_ORG=dyocense INFLUXDB_BUCKET=goals go run ./cmd/dashd
//
// Example requests:
//
//	# Health check
//	curl http://localhost:12400/healthz
//
//	# Record a goal version
//	curl -X POST http://localhost:12400/v1/goals/g-123/versions \
//	  -H "Content-Type: application/json" \
//	  -d '{"changeDescription": "initial draft", "goal": {"goalId": "g-123", "title": "Grow revenue"}}'
//
//	# Browse the connector catalog
//	curl http://localhost:12400/v1/catalog | jq
//
//	# Stream events over WebSocket
//	wscat -c "ws://localhost:12400/v1/events?replay=10"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyocense/localcore/pkg/logging"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/backup"
	"github.com/dyocense/localcore/services/dashboard/config"
	"github.com/dyocense/localcore/services/dashboard/connectors"
	"github.com/dyocense/localcore/services/dashboard/connectors/catalog"
	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/history"
	"github.com/dyocense/localcore/services/dashboard/middleware"
	"github.com/dyocense/localcore/services/dashboard/store"
	"github.com/dyocense/localcore/services/dashboard/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	configPath := flag.String("config", "", "Path to the dashboard config file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.EnvConfigPath, *configPath)
	}
	if err := config.Load(); err != nil {
		log.Fatalf("FATAL: Could not load the dashboard config: %v", err)
	}
	cfg := config.Global

	level := logging.ParseLevel(cfg.Logging.Level)
	if *debug {
		level = logging.LevelDebug
	}
	appLog := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "dashd",
		JSON:    cfg.Logging.JSON,
	})
	logger := appLog.Slog()
	slog.SetDefault(logger)

	// Set Gin mode
	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize telemetry: %v", err)
	}

	kv, err := openStore(cfg.Store, logger)
	if err != nil {
		log.Fatalf("FATAL: Could not open the local store: %v", err)
	}

	// Assemble the service with whatever integrations the config enables.
	bus := events.NewBus(events.WithLogger(logger))
	svc := dashboard.NewService(kv, bus, logger)

	manager := setupConnectors(cfg.Connectors, kv, bus, logger)
	svc.WithConnectors(manager)

	svc.WithHistory(history.NewRecorder(history.Config{
		URL:        cfg.History.URL,
		Token:      cfg.History.Token,
		Org:        cfg.History.Org,
		Bucket:     cfg.History.Bucket,
		TrendDepth: cfg.History.TrendDepth,
	}, logger))

	if snap := setupBackups(ctx, cfg.Backup, kv, bus, logger); snap != nil {
		svc.WithBackups(snap)
	}

	startCatalogWatcher(ctx, logger)

	// Setup router
	handlers := dashboard.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	if *debug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware("dashd"))

	// Health and metrics sit outside /v1 so probes skip auth.
	router.GET("/healthz", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.Server.AuthToken))
	v1.Use(middleware.TenantMiddleware())
	v1.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	dashboard.RegisterRoutes(v1, handlers)

	// Print startup banner
	printBanner(cfg, manager.Mode())

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down the dashboard daemon")
		cancel()
		svc.Close()
		if err := kv.Close(); err != nil {
			slog.Error("Failed to close the local store", slog.String("error", err.Error()))
		}
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
		appLog.Close()
		os.Exit(0)
	}()

	// Start server
	slog.Info("Starting the dashboard daemon", slog.String("address", cfg.Server.ListenAddr))
	if err := router.Run(cfg.Server.ListenAddr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStore opens the persistent Badger substrate, or an in-memory
// store when no data directory is configured.
func openStore(cfg config.StoreConfig, logger *slog.Logger) (store.KeyValueStore, error) {
	if cfg.DataDir == "" {
		logger.Warn("No data directory configured, running on an in-memory store")
		logger.Warn("All goals, plans, and connectors are lost on restart")
		return store.NewMemoryStore(), nil
	}

	bcfg := store.DefaultBadgerConfig(cfg.DataDir)
	bcfg.Logger = logger
	kv, err := store.OpenBadger(bcfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened the local store", slog.String("dir", cfg.DataDir))
	return kv, nil
}

// setupConnectors wires the connector manager.
//
// Description:
//
//	With a remote base URL the manager starts remote-preferred behind
//	the snapshot cache; without one it starts latched in local-only
//	mode and never touches the network.
//
// Outputs:
//
//	*connectors.Manager - Never nil. The connector endpoints are always
//	available, even if only against local storage.
func setupConnectors(cfg config.ConnectorsConfig, kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger) *connectors.Manager {
	if cfg.BaseURL == "" {
		logger.Info("No connector service URL configured, connectors run local-only")
		return connectors.NewLocalManager(kv, bus, logger)
	}

	client := connectors.NewHTTPClient(connectors.HTTPClientConfig{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
	})
	mcfg := connectors.DefaultManagerConfig()
	mcfg.TTL = cfg.TTL()

	logger.Info("Connector service configured", slog.String("base_url", cfg.BaseURL))
	return connectors.NewManager(client, kv, bus, logger, mcfg)
}

// setupBackups wires the GCS snapshotter when a bucket is configured.
//
// Returns nil when backups are disabled or the bucket client cannot be
// built; the daemon runs without snapshot endpoints in that case.
func setupBackups(ctx context.Context, cfg config.BackupConfig, kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger) *backup.Snapshotter {
	if cfg.Bucket == "" {
		logger.Info("No backup bucket configured, snapshot endpoints are disabled")
		return nil
	}

	objects, err := backup.NewGCSStore(ctx, backup.GCSConfig{
		Bucket:          cfg.Bucket,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		logger.Warn("Could not build the backup bucket client, snapshot endpoints are disabled",
			slog.String("bucket", cfg.Bucket),
			slog.String("error", err.Error()))
		return nil
	}

	logger.Info("Backups configured", slog.String("bucket", cfg.Bucket))
	return backup.NewSnapshotter(kv, objects, bus, logger, cfg.Prefix)
}

// startCatalogWatcher hot-reloads the connector catalog file when an
// external one is configured. The embedded catalog needs no watcher.
func startCatalogWatcher(ctx context.Context, logger *slog.Logger) {
	watcher, err := catalog.NewWatcher(func(cat *catalog.Catalog) {
		logger.Info("Connector catalog reloaded", slog.Int("connectors", cat.Count()))
	}, logger)
	if err != nil {
		logger.Warn("Catalog hot reload unavailable", slog.String("error", err.Error()))
		return
	}
	if watcher == nil {
		return
	}
	go watcher.Start(ctx)
}

func printBanner(cfg config.DashboardConfig, mode connectors.Mode) {
	storeStatus := "in-memory (volatile)"
	if cfg.Store.DataDir != "" {
		storeStatus = cfg.Store.DataDir
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                     DYOCENSE DASHBOARD DAEMON                     ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Goal versioning, plans, connectors, and streaks for the SMB      ║
║  dashboard, served from a local-first store.                      ║
║                                                                   ║
║  Listen:     %-52s ║
║  Store:      %-52s ║
║  Connectors: %-52s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:12400/healthz                         │  ║
║  │                                                             │  ║
║  │ # Connector catalog                                         │  ║
║  │ curl http://localhost:12400/v1/catalog | jq                 │  ║
║  │                                                             │  ║
║  │ # Daily check-in                                            │  ║
║  │ curl -X POST http://localhost:12400/v1/streaks              │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Goals: versions, rollback, branch, compare, trend            ║
║  ├── Goals: validate, progress, suggestions                       ║
║  ├── Plans: save, list, get, delete, active pointer               ║
║  ├── Connectors: list, add, delete, catalog                       ║
║  ├── Streaks: check-in, current                                   ║
║  ├── Backups: create, list, restore                               ║
║  └── Events: /v1/events (WebSocket feed)                          ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, cfg.Server.ListenAddr, storeStatus, string(mode))
}
