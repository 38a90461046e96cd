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

	"golang.org/x/sync/errgroup"

	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/connectors"
	"github.com/dyocense/localcore/services/dashboard/plans"
	"github.com/dyocense/localcore/services/dashboard/streaks"
	"github.com/spf13/cobra"
)

// statusSummary is the JSON shape of the status command.
type statusSummary struct {
	Server     string                   `json:"server"`
	Health     dashboard.HealthResponse `json:"health"`
	Plans      int                      `json:"plans"`
	Connectors int                      `json:"connectors"`
	Streak     *streaks.StreakData      `json:"streak,omitempty"`
}

// runStatus pings the daemon and assembles a one-screen summary.
//
// The health check is the only hard requirement. The remaining sections
// are fetched concurrently and each may be disabled on the daemon, so
// their failures degrade to a note instead of an error.
func runStatus(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	health, err := client.Health()
	if err != nil {
		fail(fmt.Sprintf("The daemon at %s is unreachable", client.baseURL), err)
	}

	var (
		g         errgroup.Group
		planList  []plans.SavedPlan
		connList  []connectors.TenantConnector
		streak    streaks.StreakData
		planErr   error
		connErr   error
		streakErr error
	)
	g.Go(func() error {
		planList, planErr = client.ListPlans(projectID)
		return nil
	})
	g.Go(func() error {
		connList, connErr = client.Connectors()
		return nil
	})
	g.Go(func() error {
		streak, streakErr = client.Streak()
		return nil
	})
	// The goroutines stash their errors; Wait never fails here.
	_ = g.Wait()

	summary := statusSummary{
		Server:     client.baseURL,
		Health:     health,
		Plans:      len(planList),
		Connectors: len(connList),
	}
	if streakErr == nil {
		summary.Streak = &streak
	}

	if !jsonOut && !quietOut {
		ux.Title("Dyocense daemon at " + client.baseURL)
		fmt.Printf("  Status:      %s (version %s)\n", health.Status, health.Version)
		if health.ConnectorMode != "" {
			fmt.Printf("  Connectors:  %s mode\n", health.ConnectorMode)
		}

		if planErr != nil {
			ux.Muted("  Plans:       unavailable")
		} else {
			fmt.Printf("  Plans:       %d saved\n", len(planList))
		}

		if connErr != nil {
			ux.Muted("  Connectors:  subsystem disabled")
		} else {
			fmt.Printf("  Connectors:  %d configured\n", len(connList))
		}

		if streakErr != nil {
			ux.Muted("  Streak:      unavailable")
		} else {
			fmt.Printf("  Streak:      %d days (longest %d)\n", streak.Current, streak.Longest)
		}
	}
	finish("status", start, summary, false)
}
