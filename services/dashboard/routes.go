// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all dashboard routes with the router.
//
// Description:
//
//	Registers all /v1/* endpoints with the given Gin router group.
//	The router group should already have any required middleware
//	applied (auth, tenant resolution, rate limiting, tracing).
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Goal Endpoints:
//
//	GET  /v1/goals/:goalId/versions - Full version history
//	POST /v1/goals/:goalId/versions - Append a new version
//	POST /v1/goals/:goalId/rollback - Roll back to an earlier version
//	POST /v1/goals/:goalId/branch - Fork a named branch
//	GET  /v1/goals/:goalId/compare - Diff two versions
//	GET  /v1/goals/:goalId/trend - Recorded progress snapshots
//	POST /v1/goals/validate - SMART validation of a payload
//	POST /v1/goals/progress - Metric completion scoring
//	POST /v1/goals/suggestions - Improvement suggestions
//
// Plan Endpoints:
//
//	PUT    /v1/plans - Create or replace a plan
//	GET    /v1/plans - List plans in a scope
//	PUT    /v1/plans/active - Move the active-plan pointer
//	GET    /v1/plans/active - The scope's active plan
//	GET    /v1/plans/:planId - One plan
//	DELETE /v1/plans/:planId - Remove a plan
//
// Connector Endpoints:
//
//	GET    /v1/connectors - List the tenant's connectors
//	POST   /v1/connectors - Add a connector
//	GET    /v1/connectors/:id - One connector
//	DELETE /v1/connectors/:id - Remove a connector
//	GET    /v1/catalog - Marketplace catalog
//
// Streak Endpoints:
//
//	POST /v1/streaks - Record a check-in
//	GET  /v1/streaks - Current streak state
//
// Backup Endpoints:
//
//	POST /v1/backups - Snapshot the tenant's data
//	GET  /v1/backups - List snapshot objects
//	POST /v1/backups/restore - Restore a snapshot
//
// Event Endpoints:
//
//	GET /v1/events - WebSocket event feed
//
// Example:
//
//	svc := dashboard.NewService(kv, bus, logger)
//	handlers := dashboard.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	dashboard.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	goals := rg.Group("/goals")
	{
		// Per-goal version history
		goals.GET("/:goalId/versions", handlers.HandleGoalHistory)
		goals.POST("/:goalId/versions", handlers.HandleCreateVersion)
		goals.POST("/:goalId/rollback", handlers.HandleRollback)
		goals.POST("/:goalId/branch", handlers.HandleBranch)
		goals.GET("/:goalId/compare", handlers.HandleCompare)
		goals.GET("/:goalId/trend", handlers.HandleTrend)

		// Stateless analysis of a goal payload
		goals.POST("/validate", handlers.HandleValidateGoal)
		goals.POST("/progress", handlers.HandleGoalProgress)
		goals.POST("/suggestions", handlers.HandleSuggestions)
	}

	plans := rg.Group("/plans")
	{
		plans.PUT("", handlers.HandleSavePlan)
		plans.GET("", handlers.HandleListPlans)

		// Static route first so it reads unambiguously next to :planId
		plans.PUT("/active", handlers.HandleSetActivePlan)
		plans.GET("/active", handlers.HandleActivePlan)

		plans.GET("/:planId", handlers.HandleGetPlan)
		plans.DELETE("/:planId", handlers.HandleDeletePlan)
	}

	connectors := rg.Group("/connectors")
	{
		connectors.GET("", handlers.HandleListConnectors)
		connectors.POST("", handlers.HandleAddConnector)
		connectors.GET("/:id", handlers.HandleGetConnector)
		connectors.DELETE("/:id", handlers.HandleDeleteConnector)
	}
	rg.GET("/catalog", handlers.HandleCatalog)

	streaks := rg.Group("/streaks")
	{
		streaks.POST("", handlers.HandleCheckIn)
		streaks.GET("", handlers.HandleStreak)
	}

	backups := rg.Group("/backups")
	{
		backups.POST("", handlers.HandleCreateBackup)
		backups.GET("", handlers.HandleListBackups)
		backups.POST("/restore", handlers.HandleRestoreBackup)
	}

	// WebSocket event feed
	rg.GET("/events", handlers.HandleEventsWS)
}
