// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package events carries dashboard domain events between components.
//
// Producers (goal store, plan store, connector manager) publish without
// knowing who listens; the websocket feed and tests subscribe. Delivery
// is synchronous and in-process.
//
// Thread Safety:
//
//	All types in this package are safe for concurrent use.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeGoalVersionCreated is published for every appended goal version.
	TypeGoalVersionCreated Type = "goal_version_created"

	// TypeGoalRolledBack is published when a rollback version is appended.
	TypeGoalRolledBack Type = "goal_rolled_back"

	// TypeGoalBranchCreated is published when a branch is forked.
	TypeGoalBranchCreated Type = "goal_branch_created"

	// TypePlanSaved is published on plan create or replace.
	TypePlanSaved Type = "plan_saved"

	// TypePlanDeleted is published when a plan is removed.
	TypePlanDeleted Type = "plan_deleted"

	// TypePlanActivated is published when the active-plan pointer moves.
	TypePlanActivated Type = "plan_activated"

	// TypeConnectorAdded is published when a connector is created,
	// remotely or via the local fallback.
	TypeConnectorAdded Type = "connector_added"

	// TypeConnectorDeleted is published when a connector is removed.
	TypeConnectorDeleted Type = "connector_deleted"

	// TypeConnectorModeChanged is published on the one-way transition
	// from remote-preferred to local-only.
	TypeConnectorModeChanged Type = "connector_mode_changed"

	// TypeStreakRecorded is published when activity extends a streak.
	TypeStreakRecorded Type = "streak_recorded"

	// TypeBackupCompleted is published after a snapshot upload finishes.
	TypeBackupCompleted Type = "backup_completed"
)

// Event is one published occurrence. Data holds a type-specific
// payload; the websocket feed serializes the whole event as JSON.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ModeChangeData is the payload of TypeConnectorModeChanged.
type ModeChangeData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Cause string `json:"cause,omitempty"`
}

// GoalVersionData is the payload of the goal event types.
type GoalVersionData struct {
	GoalID  string `json:"goal_id"`
	Version int    `json:"version"`
	Branch  string `json:"branch,omitempty"`
}

// PlanData is the payload of the plan event types.
type PlanData struct {
	PlanID    string `json:"plan_id"`
	ProjectID string `json:"project_id,omitempty"`
}

// ConnectorData is the payload of connector add/delete events. It
// deliberately carries no credential material.
type ConnectorData struct {
	ConnectorID string `json:"connector_id"`
	Name        string `json:"name,omitempty"`
	Local       bool   `json:"local,omitempty"`
}

// StreakRecordedData is the payload of TypeStreakRecorded.
type StreakRecordedData struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// BackupCompletedData is the payload of TypeBackupCompleted.
type BackupCompletedData struct {
	Object string `json:"object"`
	Keys   int    `json:"keys"`
}
