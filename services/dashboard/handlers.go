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
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/dyocense/localcore/services/dashboard/middleware"
	"github.com/dyocense/localcore/services/dashboard/plans"
)

// Handlers contains the HTTP handlers for the dashboard daemon.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// =============================================================================
// Goals
// =============================================================================

// HandleGoalHistory handles GET /v1/goals/:goalId/versions.
//
// Description:
//
//	Returns the goal's full version history including the branch
//	registry. Unknown goals get an empty history, not a 404, so a
//	fresh dashboard can render before the first version exists.
//
// Response:
//
//	200 OK: goals.VersionHistory
func (h *Handlers) HandleGoalHistory(c *gin.Context) {
	history := h.svc.GoalHistory(c.Request.Context(), c.Param("goalId"))
	c.JSON(http.StatusOK, history)
}

// HandleCreateVersion handles POST /v1/goals/:goalId/versions.
//
// Description:
//
//	Appends a new version to the goal's history. Fields absent from
//	the request carry over from the latest version.
//
// Request Body:
//
//	CreateVersionRequest
//
// Response:
//
//	201 Created: goals.GoalVersion
//	400 Bad Request: Validation error
func (h *Handlers) HandleCreateVersion(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateVersion")

	var req CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	goalID := c.Param("goalId")
	tenantID := middleware.GetTenant(c)

	v := h.svc.CreateGoalVersion(c.Request.Context(), tenantID, goalID, req)

	logger.Info("Created goal version", "goal_id", goalID, "version", v.Version)

	c.JSON(http.StatusCreated, v)
}

// HandleRollback handles POST /v1/goals/:goalId/rollback.
//
// Description:
//
//	Appends a draft copy of the target version's content as a new
//	version. History is never rewritten.
//
// Request Body:
//
//	RollbackRequest
//
// Response:
//
//	200 OK: goals.GoalVersion
//	400 Bad Request: Validation error
//	404 Not Found: Target version does not exist
func (h *Handlers) HandleRollback(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRollback")

	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	goalID := c.Param("goalId")
	tenantID := middleware.GetTenant(c)

	v, err := h.svc.RollbackGoal(c.Request.Context(), tenantID, goalID, req.TargetVersion, req.UserID)
	if err != nil {
		if errors.Is(err, ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: err.Error(),
				Code:  "VERSION_NOT_FOUND",
			})
			return
		}

		logger.Error("Rollback failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "ROLLBACK_FAILED",
		})
		return
	}

	logger.Info("Rolled back goal", "goal_id", goalID, "target", req.TargetVersion, "new_version", v.Version)

	c.JSON(http.StatusOK, v)
}

// HandleBranch handles POST /v1/goals/:goalId/branch.
//
// Description:
//
//	Forks a named branch from a source version. Re-using a branch
//	name repoints it at the newly created version.
//
// Request Body:
//
//	BranchRequest
//
// Response:
//
//	201 Created: goals.GoalVersion
//	400 Bad Request: Validation error
//	404 Not Found: Source version does not exist
func (h *Handlers) HandleBranch(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBranch")

	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	goalID := c.Param("goalId")
	tenantID := middleware.GetTenant(c)

	v, err := h.svc.BranchGoal(c.Request.Context(), tenantID, goalID, req.SourceVersion, req.BranchName, req.UserID)
	if err != nil {
		if errors.Is(err, ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: err.Error(),
				Code:  "VERSION_NOT_FOUND",
			})
			return
		}

		logger.Error("Branch failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "BRANCH_FAILED",
		})
		return
	}

	logger.Info("Created branch", "goal_id", goalID, "branch", req.BranchName, "version", v.Version)

	c.JSON(http.StatusCreated, v)
}

// HandleCompare handles GET /v1/goals/:goalId/compare.
//
// Description:
//
//	Diffs two versions of one goal field by field. Description
//	changes include a unified diff.
//
// Query Parameters:
//
//	from: Version number of the old side (required)
//	to: Version number of the new side (required)
//
// Response:
//
//	200 OK: CompareResponse
//	400 Bad Request: Missing or non-positive version numbers
//	404 Not Found: Either version does not exist
func (h *Handlers) HandleCompare(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCompare")

	var q CompareQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		logger.Warn("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid query parameters",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	goalID := c.Param("goalId")

	comparisons, err := h.svc.CompareGoalVersions(c.Request.Context(), goalID, q.From, q.To)
	if err != nil {
		if errors.Is(err, ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: err.Error(),
				Code:  "VERSION_NOT_FOUND",
			})
			return
		}

		logger.Error("Compare failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "COMPARE_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, CompareResponse{
		GoalID:      goalID,
		From:        q.From,
		To:          q.To,
		Comparisons: comparisons,
	})
}

// HandleTrend handles GET /v1/goals/:goalId/trend.
//
// Description:
//
//	Returns the goal's recorded overall-progress snapshots, oldest
//	first. Without a configured history sink the list is empty.
//
// Query Parameters:
//
//	n: Maximum number of points, most recent kept (optional, 0 = all)
//
// Response:
//
//	200 OK: TrendResponse
func (h *Handlers) HandleTrend(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("n", "0"))

	goalID := c.Param("goalId")
	tenantID := middleware.GetTenant(c)

	c.JSON(http.StatusOK, TrendResponse{
		GoalID: goalID,
		Points: h.svc.GoalTrend(tenantID, goalID, n),
	})
}

// HandleValidateGoal handles POST /v1/goals/validate.
//
// Description:
//
//	Runs the SMART checks against a goal payload. Check failures are
//	reported in the body, never as an HTTP error.
//
// Request Body:
//
//	goals.GoalVersion
//
// Response:
//
//	200 OK: goals.ValidationResult
//	400 Bad Request: Malformed body
func (h *Handlers) HandleValidateGoal(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleValidateGoal")

	var v goals.GoalVersion
	if err := c.ShouldBindJSON(&v); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	c.JSON(http.StatusOK, h.svc.ValidateGoal(v))
}

// HandleGoalProgress handles POST /v1/goals/progress.
//
// Description:
//
//	Scores the goal's metric completion. When a history sink is
//	configured and the payload names a goal, the snapshot is also
//	recorded for the trend endpoint.
//
// Request Body:
//
//	goals.GoalVersion
//
// Response:
//
//	200 OK: goals.ProgressReport
//	400 Bad Request: Malformed body
func (h *Handlers) HandleGoalProgress(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGoalProgress")

	var v goals.GoalVersion
	if err := c.ShouldBindJSON(&v); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	tenantID := middleware.GetTenant(c)

	c.JSON(http.StatusOK, h.svc.GoalProgress(c.Request.Context(), tenantID, v))
}

// HandleSuggestions handles POST /v1/goals/suggestions.
//
// Description:
//
//	Returns improvement suggestions for a goal payload, derived from
//	the SMART gaps and metric shape.
//
// Request Body:
//
//	goals.GoalVersion
//
// Response:
//
//	200 OK: SuggestionsResponse
//	400 Bad Request: Malformed body
func (h *Handlers) HandleSuggestions(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSuggestions")

	var v goals.GoalVersion
	if err := c.ShouldBindJSON(&v); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	c.JSON(http.StatusOK, SuggestionsResponse{
		Suggestions: h.svc.SuggestGoal(v),
	})
}

// =============================================================================
// Plans
// =============================================================================

// HandleSavePlan handles PUT /v1/plans.
//
// Description:
//
//	Creates or replaces a plan. The plan's own projectId scopes it;
//	an empty id gets one assigned.
//
// Request Body:
//
//	plans.SavedPlan
//
// Response:
//
//	200 OK: plans.SavedPlan (with assigned id and savedAt)
//	400 Bad Request: Malformed body
func (h *Handlers) HandleSavePlan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSavePlan")

	var plan plans.SavedPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	tenantID := middleware.GetTenant(c)

	saved := h.svc.SavePlan(c.Request.Context(), tenantID, plan.ProjectID, plan)

	logger.Info("Saved plan", "plan_id", saved.ID, "project_id", saved.ProjectID)

	c.JSON(http.StatusOK, saved)
}

// HandleListPlans handles GET /v1/plans.
//
// Query Parameters:
//
//	projectId: Project scope (optional)
//
// Response:
//
//	200 OK: []plans.SavedPlan, newest first
func (h *Handlers) HandleListPlans(c *gin.Context) {
	tenantID := middleware.GetTenant(c)
	c.JSON(http.StatusOK, h.svc.ListPlans(c.Request.Context(), tenantID, c.Query("projectId")))
}

// HandleGetPlan handles GET /v1/plans/:planId.
//
// Query Parameters:
//
//	projectId: Project scope (optional)
//
// Response:
//
//	200 OK: plans.SavedPlan
//	404 Not Found: Plan does not exist in the scope
func (h *Handlers) HandleGetPlan(c *gin.Context) {
	tenantID := middleware.GetTenant(c)

	p, err := h.svc.GetPlan(c.Request.Context(), tenantID, c.Param("planId"), c.Query("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "PLAN_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

// HandleDeletePlan handles DELETE /v1/plans/:planId.
//
// Query Parameters:
//
//	projectId: Project scope (optional)
//
// Response:
//
//	204 No Content: Deleted (or was already absent)
func (h *Handlers) HandleDeletePlan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeletePlan")

	tenantID := middleware.GetTenant(c)
	planID := c.Param("planId")

	h.svc.DeletePlan(c.Request.Context(), tenantID, planID, c.Query("projectId"))

	logger.Info("Deleted plan", "plan_id", planID)

	c.Status(http.StatusNoContent)
}

// HandleSetActivePlan handles PUT /v1/plans/active.
//
// Description:
//
//	Moves the scope's active-plan pointer. The plan must already be
//	saved in the scope.
//
// Request Body:
//
//	ActivePlanRequest
//
// Response:
//
//	200 OK: plans.SavedPlan (the newly active plan)
//	400 Bad Request: Validation error
//	404 Not Found: Plan does not exist in the scope
func (h *Handlers) HandleSetActivePlan(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSetActivePlan")

	var req ActivePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	tenantID := middleware.GetTenant(c)

	if err := h.svc.SetActivePlan(c.Request.Context(), tenantID, req.PlanID, req.ProjectID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "PLAN_NOT_FOUND",
		})
		return
	}

	logger.Info("Activated plan", "plan_id", req.PlanID, "project_id", req.ProjectID)

	p, err := h.svc.ActivePlan(c.Request.Context(), tenantID, req.ProjectID)
	if err != nil {
		// The pointer was just set; losing the race to a concurrent
		// delete is the only way to get here.
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_ACTIVE_PLAN",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

// HandleActivePlan handles GET /v1/plans/active.
//
// Query Parameters:
//
//	projectId: Project scope (optional)
//
// Response:
//
//	200 OK: plans.SavedPlan
//	404 Not Found: No active plan in the scope
func (h *Handlers) HandleActivePlan(c *gin.Context) {
	tenantID := middleware.GetTenant(c)

	p, err := h.svc.ActivePlan(c.Request.Context(), tenantID, c.Query("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NO_ACTIVE_PLAN",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

// =============================================================================
// Connectors
// =============================================================================

func (h *Handlers) connectorsUnavailable(c *gin.Context, logger *slog.Logger) bool {
	if h.svc.ConnectorsConfigured() {
		return false
	}
	logger.Warn("Connector request but connector subsystem not configured")
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: "Connector subsystem requires a connector service URL or local store",
		Code:  "CONNECTORS_NOT_CONFIGURED",
	})
	return true
}

// HandleListConnectors handles GET /v1/connectors.
//
// Description:
//
//	Lists the tenant's connectors. Remote fetch failures degrade to
//	cached or local data; the response is always 200 when the
//	subsystem is configured.
//
// Response:
//
//	200 OK: []connectors.TenantConnector
//	503 Service Unavailable: Connector subsystem not configured
func (h *Handlers) HandleListConnectors(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListConnectors")

	if h.connectorsUnavailable(c, logger) {
		return
	}

	tenantID := middleware.GetTenant(c)
	c.JSON(http.StatusOK, h.svc.Connectors(c.Request.Context(), tenantID))
}

// HandleAddConnector handles POST /v1/connectors.
//
// Description:
//
//	Creates a connector for the tenant, remotely when the service is
//	reachable, locally otherwise. Catalog metadata fills any fields
//	the caller omitted.
//
// Request Body:
//
//	AddConnectorRequest
//
// Response:
//
//	201 Created: connectors.TenantConnector
//	400 Bad Request: Validation error
//	503 Service Unavailable: Connector subsystem not configured
func (h *Handlers) HandleAddConnector(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAddConnector")

	if h.connectorsUnavailable(c, logger) {
		return
	}

	var req AddConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	tenantID := middleware.GetTenant(c)

	created := h.svc.AddConnector(c.Request.Context(), tenantID, req)

	logger.Info("Added connector", "id", created.ID, "mode", h.svc.ConnectorMode())

	c.JSON(http.StatusCreated, created)
}

// HandleGetConnector handles GET /v1/connectors/:id.
//
// Response:
//
//	200 OK: connectors.TenantConnector
//	404 Not Found: Connector does not exist
//	503 Service Unavailable: Connector subsystem not configured
func (h *Handlers) HandleGetConnector(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetConnector")

	if h.connectorsUnavailable(c, logger) {
		return
	}

	conn, err := h.svc.Connector(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "CONNECTOR_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, conn)
}

// HandleDeleteConnector handles DELETE /v1/connectors/:id.
//
// Response:
//
//	204 No Content: Deleted (or was already absent)
//	503 Service Unavailable: Connector subsystem not configured
func (h *Handlers) HandleDeleteConnector(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeleteConnector")

	if h.connectorsUnavailable(c, logger) {
		return
	}

	tenantID := middleware.GetTenant(c)
	id := c.Param("id")

	h.svc.RemoveConnector(c.Request.Context(), tenantID, id)

	logger.Info("Deleted connector", "connector_id", id)

	c.Status(http.StatusNoContent)
}

// HandleCatalog handles GET /v1/catalog.
//
// Description:
//
//	Returns the connector marketplace catalog, optionally filtered.
//
// Query Parameters:
//
//	category: Restrict to one category (optional)
//	q: Keyword search over id, name, and description (optional)
//
// Response:
//
//	200 OK: CatalogResponse
//	503 Service Unavailable: Catalog failed to load
func (h *Handlers) HandleCatalog(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCatalog")

	cat, err := h.svc.Catalog(c.Request.Context())
	if err != nil {
		logger.Error("Catalog load failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "CATALOG_UNAVAILABLE",
		})
		return
	}

	defs := cat.All()
	if category := c.Query("category"); category != "" {
		defs = cat.ByCategory(category)
	}
	if q := c.Query("q"); q != "" {
		defs = cat.Search(q)
	}

	c.JSON(http.StatusOK, CatalogResponse{
		Connectors: defs,
		Categories: cat.Categories(),
		Total:      len(defs),
	})
}

// =============================================================================
// Streaks
// =============================================================================

// HandleCheckIn handles POST /v1/streaks.
//
// Description:
//
//	Records activity for the tenant. The body is optional; without
//	one the check-in lands on today.
//
// Request Body:
//
//	CheckInRequest (optional)
//
// Response:
//
//	200 OK: streaks.StreakData
//	400 Bad Request: Malformed body
func (h *Handlers) HandleCheckIn(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCheckIn")

	var req CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	tenantID := middleware.GetTenant(c)

	c.JSON(http.StatusOK, h.svc.CheckIn(c.Request.Context(), tenantID, req.At))
}

// HandleStreak handles GET /v1/streaks.
//
// Response:
//
//	200 OK: streaks.StreakData
func (h *Handlers) HandleStreak(c *gin.Context) {
	tenantID := middleware.GetTenant(c)
	c.JSON(http.StatusOK, h.svc.Streak(c.Request.Context(), tenantID))
}

// =============================================================================
// Backups
// =============================================================================

// HandleCreateBackup handles POST /v1/backups.
//
// Description:
//
//	Snapshots the tenant's local keys to the configured bucket and
//	returns the object name.
//
// Response:
//
//	201 Created: BackupResponse
//	500 Internal Server Error: Upload failed
//	503 Service Unavailable: No backup bucket configured
func (h *Handlers) HandleCreateBackup(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateBackup")

	tenantID := middleware.GetTenant(c)

	object, err := h.svc.CreateBackup(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, ErrBackupsDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "BACKUPS_NOT_CONFIGURED",
			})
			return
		}

		logger.Error("Backup failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "BACKUP_FAILED",
		})
		return
	}

	logger.Info("Created backup", "object", object)

	c.JSON(http.StatusCreated, BackupResponse{Object: object})
}

// HandleListBackups handles GET /v1/backups.
//
// Response:
//
//	200 OK: BackupListResponse, newest first
//	500 Internal Server Error: Listing failed
//	503 Service Unavailable: No backup bucket configured
func (h *Handlers) HandleListBackups(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListBackups")

	tenantID := middleware.GetTenant(c)

	objects, err := h.svc.ListBackups(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, ErrBackupsDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "BACKUPS_NOT_CONFIGURED",
			})
			return
		}

		logger.Error("List backups failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, BackupListResponse{Objects: objects})
}

// HandleRestoreBackup handles POST /v1/backups/restore.
//
// Description:
//
//	Writes a snapshot object's entries back into local storage.
//	Existing keys are overwritten; keys absent from the snapshot are
//	left alone.
//
// Request Body:
//
//	RestoreRequest
//
// Response:
//
//	200 OK: RestoreResponse
//	400 Bad Request: Validation error
//	500 Internal Server Error: Download or write failed
//	503 Service Unavailable: No backup bucket configured
func (h *Handlers) HandleRestoreBackup(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRestoreBackup")

	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	restored, err := h.svc.RestoreBackup(c.Request.Context(), req.Object)
	if err != nil {
		if errors.Is(err, ErrBackupsDisabled) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: err.Error(),
				Code:  "BACKUPS_NOT_CONFIGURED",
			})
			return
		}

		logger.Error("Restore failed", "error", err, "object", req.Object)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RESTORE_FAILED",
		})
		return
	}

	logger.Info("Restored backup", "object", req.Object, "keys", restored)

	c.JSON(http.StatusOK, RestoreResponse{Restored: restored})
}

// =============================================================================
// Health
// =============================================================================

// HandleHealth handles GET /healthz.
//
// Description:
//
//	Returns the health status of the daemon. Always returns 200 if running.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}
