// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

// Key schemes are part of the product's external persistence contract
// and must not change shape: browser builds of the dashboard wrote
// these exact keys, and migrated data has to remain readable.
const (
	// SchemePlans holds saved plans: dyocense-plans-{tenant}[-{project}].
	SchemePlans = "dyocense-plans"

	// SchemeActivePlan holds the active-plan pointer per scope.
	SchemeActivePlan = "dyocense-active-plan"

	// KeyTenantConnectors is a single global key holding every tenant's
	// fallback connectors as one array. Records carry their own
	// tenant_id and are filtered client-side on read.
	KeyTenantConnectors = "dyocense_tenant_connectors"

	// SchemeStreaks holds per-tenant activity streaks.
	SchemeStreaks = "dyocense_streak_data"

	// goalVersionsPrefix scopes version histories per goal.
	goalVersionsPrefix = "goalVersions:"
)

// ScopedKey builds "{scheme}-{tenantID}" or
// "{scheme}-{tenantID}-{projectID}" when projectID is non-empty.
func ScopedKey(scheme, tenantID, projectID string) string {
	if projectID == "" {
		return scheme + "-" + tenantID
	}
	return scheme + "-" + tenantID + "-" + projectID
}

// TenantPrefix is the prefix shared by all project-scoped keys of a
// tenant under a scheme. Used by the degenerate fallback scan.
func TenantPrefix(scheme, tenantID string) string {
	return scheme + "-" + tenantID + "-"
}

// GoalVersionsKey returns the history key for one goal:
// "goalVersions:{goalID}".
func GoalVersionsKey(goalID string) string {
	return goalVersionsPrefix + goalID
}
