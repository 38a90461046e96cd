// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard provides the HTTP service for the SMB dashboard
// core: goal versioning, plan persistence, connector management with
// local fallback, streaks, and progress history.
//
// JSON field names follow the camelCase shapes dashboard clients
// already persist locally, so a browser-side export can be replayed
// against this API unchanged.
package dashboard

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dyocense/localcore/services/dashboard/connectors/catalog"
	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/dyocense/localcore/services/dashboard/history"
)

// ServiceVersion is the dashboard service version.
const ServiceVersion = "1.0.0"

// syncFrequencies are the accepted connector sync cadences.
var syncFrequencies = map[string]bool{
	"realtime": true,
	"hourly":   true,
	"daily":    true,
	"weekly":   true,
	"manual":   true,
}

func init() {
	// Hook the custom tag into gin's binding validator so DTO tags can
	// use it directly.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("syncfreq", validateSyncFrequency)
	}
}

// validateSyncFrequency accepts the known sync cadence names. Empty
// values pass through omitempty before reaching this check.
func validateSyncFrequency(fl validator.FieldLevel) bool {
	return syncFrequencies[fl.Field().String()]
}

// =============================================================================
// Common Response Types
// =============================================================================

// ErrorResponse is the error response body.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	ConnectorMode string `json:"connectorMode,omitempty"`
}

// =============================================================================
// Goal Request Types
// =============================================================================

// CreateVersionRequest is the POST /v1/goals/{goalId}/versions body.
// Nil update fields are carried forward from the previous version.
type CreateVersionRequest struct {
	Title             *string              `json:"title,omitempty"`
	Description       *string              `json:"description,omitempty"`
	Metrics           []goals.GoalMetric   `json:"metrics,omitempty"`
	Timeline          *string              `json:"timeline,omitempty"`
	Status            *goals.VersionStatus `json:"status,omitempty"`
	ChangeDescription string               `json:"changeDescription" binding:"required"`
	UserID            string               `json:"userId,omitempty"`
}

// updates converts the request into the repository's update shape.
func (r CreateVersionRequest) updates() goals.VersionUpdate {
	return goals.VersionUpdate{
		Title:       r.Title,
		Description: r.Description,
		Metrics:     r.Metrics,
		Timeline:    r.Timeline,
		Status:      r.Status,
	}
}

// RollbackRequest is the POST /v1/goals/{goalId}/rollback body.
type RollbackRequest struct {
	TargetVersion int    `json:"targetVersion" binding:"required,gt=0"`
	UserID        string `json:"userId,omitempty"`
}

// BranchRequest is the POST /v1/goals/{goalId}/branch body.
type BranchRequest struct {
	SourceVersion int    `json:"sourceVersion" binding:"required,gt=0"`
	BranchName    string `json:"branchName" binding:"required"`
	UserID        string `json:"userId,omitempty"`
}

// CompareQuery binds the GET /v1/goals/{goalId}/compare query string.
type CompareQuery struct {
	From int `form:"from" binding:"required,gt=0"`
	To   int `form:"to" binding:"required,gt=0"`
}

// CompareResponse is the version diff response body.
type CompareResponse struct {
	GoalID      string             `json:"goalId"`
	From        int                `json:"from"`
	To          int                `json:"to"`
	Comparisons []goals.Comparison `json:"comparisons"`
}

// SuggestionsResponse wraps improvement suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// TrendResponse is the GET /v1/goals/{goalId}/trend response body.
type TrendResponse struct {
	GoalID string               `json:"goalId"`
	Points []history.TrendPoint `json:"points"`
}

// =============================================================================
// Plan Request Types
// =============================================================================

// ActivePlanRequest is the PUT /v1/plans/active body.
type ActivePlanRequest struct {
	PlanID    string `json:"planId" binding:"required"`
	ProjectID string `json:"projectId,omitempty"`
}

// =============================================================================
// Connector Request Types
// =============================================================================

// AddConnectorRequest is the POST /v1/connectors body, in the local
// camelCase shape. Config holds credentials and is forwarded to the
// remote service; it is never echoed back from remote reads.
type AddConnectorRequest struct {
	ConnectorID   string         `json:"connectorId" binding:"required"`
	Name          string         `json:"name" binding:"required"`
	Category      string         `json:"category,omitempty"`
	Icon          string         `json:"icon,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
	DataTypes     []string       `json:"dataTypes,omitempty"`
	SyncFrequency string         `json:"syncFrequency,omitempty" binding:"omitempty,syncfreq"`
	CreatedBy     string         `json:"createdBy,omitempty"`
}

// CatalogResponse is the GET /v1/catalog response body.
type CatalogResponse struct {
	Connectors []catalog.Definition `json:"connectors"`
	Categories []string             `json:"categories"`
	Total      int                  `json:"total"`
}

// =============================================================================
// Streak Request Types
// =============================================================================

// CheckInRequest is the POST /v1/streaks body. At is optional; zero
// means now.
type CheckInRequest struct {
	At time.Time `json:"at,omitempty"`
}

// =============================================================================
// Backup Request Types
// =============================================================================

// RestoreRequest is the POST /v1/backups/restore body.
type RestoreRequest struct {
	Object string `json:"object" binding:"required"`
}

// BackupResponse is the POST /v1/backups response body.
type BackupResponse struct {
	Object string `json:"object"`
}

// RestoreResponse is the POST /v1/backups/restore response body.
type RestoreResponse struct {
	Restored int `json:"restored"`
}

// BackupListResponse is the GET /v1/backups response body.
type BackupListResponse struct {
	Objects []string `json:"objects"`
}
