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
	"time"

	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard/plans"
	"github.com/spf13/cobra"
)

func runPlanSave(cmd *cobra.Command, args []string) {
	start := time.Now()

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	var p plans.SavedPlan
	if err := readJSONInput(path, &p); err != nil {
		fail("Could not read the plan", err)
	}
	if projectID != "" {
		p.ProjectID = projectID
	}

	client := newAPIClient()
	saved, err := client.SavePlan(p)
	if err != nil {
		fail("Could not save the plan", err)
	}

	if !jsonOut && !quietOut {
		scope := "default scope"
		if saved.ProjectID != "" {
			scope = "project " + saved.ProjectID
		}
		ux.Success(fmt.Sprintf("Saved plan %s to the %s", saved.ID, scope))
	}
	finish("plan save", start, saved, false)
}

func runPlanList(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	list, err := client.ListPlans(projectID)
	if err != nil {
		fail("Could not list plans", err)
	}

	// The active marker is cosmetic; a missing pointer is not an error.
	activeID := ""
	if active, err := client.ActivePlan(projectID); err == nil {
		activeID = active.ID
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Saved plans (%d)", len(list)))
		for _, p := range list {
			marker := " "
			if p.ID == activeID {
				marker = "*"
			}
			fmt.Printf("  %s %-28s %-10s %s  %s\n",
				marker, p.ID, p.Version, p.SavedAt.Format("2006-01-02 15:04"), truncate(p.Summary, 48))
		}
		if activeID != "" {
			ux.Muted("  * = active plan")
		}
	}
	finish("plan list", start, list, false)
}

func runPlanShow(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	p, err := client.GetPlan(args[0], projectID)
	if err != nil {
		fail("Could not load the plan", err)
	}

	if !jsonOut && !quietOut {
		renderPlan(p)
	}
	finish("plan show", start, p, false)
}

func runPlanDelete(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	if err := client.DeletePlan(args[0], projectID); err != nil {
		fail("Could not delete the plan", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Deleted plan %s", args[0]))
	}
	finish("plan delete", start, nil, false)
}

func runPlanActivate(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	p, err := client.ActivatePlan(args[0], projectID)
	if err != nil {
		fail("Could not activate the plan", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Plan %s is now active", p.ID))
		if p.Summary != "" {
			ux.Muted("  " + truncate(p.Summary, 72))
		}
	}
	finish("plan activate", start, p, false)
}

func runPlanActive(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	p, err := client.ActivePlan(projectID)
	if err != nil {
		// An unset pointer is an answer, not a failure.
		if hasAPICode(err, "NO_ACTIVE_PLAN") {
			if !jsonOut && !quietOut {
				ux.Muted("No active plan in this scope. Set one with 'dyocense plan activate'.")
			}
			finish("plan active", start, nil, false)
		}
		fail("Could not load the active plan", err)
	}

	if !jsonOut && !quietOut {
		renderPlan(p)
	}
	finish("plan active", start, p, false)
}

// renderPlan prints one plan in the standard detail layout.
func renderPlan(p plans.SavedPlan) {
	fmt.Printf("  Plan:     %s\n", p.ID)
	if p.ProjectID != "" {
		fmt.Printf("  Project:  %s\n", p.ProjectID)
	}
	if p.Version != "" {
		fmt.Printf("  Version:  %s\n", p.Version)
	}
	fmt.Printf("  Saved:    %s\n", p.SavedAt.Format("2006-01-02 15:04"))
	if p.Summary != "" {
		fmt.Printf("  Summary:  %s\n", p.Summary)
	}
	for _, s := range p.Sections {
		fmt.Printf("  Section:  %-20s %d bytes\n", s.Name, len(s.Content))
	}
}

// truncate shortens s to at most n runes for single-line display.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
