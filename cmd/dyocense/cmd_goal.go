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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/spf13/cobra"
)

// =============================================================================
// INPUT HELPERS
// =============================================================================

// readJSONInput decodes one JSON document from path, or from stdin when
// path is empty or "-".
func readJSONInput(path string, out any) error {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(out)
}

// loadVersionArg reads the goal version the offline-style commands
// (validate, progress, suggest) operate on, from the optional file
// argument or stdin.
func loadVersionArg(args []string) goals.GoalVersion {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	var v goals.GoalVersion
	if err := readJSONInput(path, &v); err != nil {
		fail("Could not read the goal version", err)
	}
	return v
}

// =============================================================================
// RENDERING HELPERS
// =============================================================================

// renderVersion prints one goal version in the standard detail layout.
func renderVersion(v goals.GoalVersion) {
	fmt.Printf("  Version:  v%d (%s)\n", v.Version, v.Status)
	fmt.Printf("  Title:    %s\n", v.Title)
	if v.Timeline != "" {
		fmt.Printf("  Timeline: %s\n", v.Timeline)
	}
	fmt.Printf("  Change:   %s\n", v.ChangeDescription)
	if v.ParentVersion != nil {
		fmt.Printf("  Parent:   v%d\n", *v.ParentVersion)
	}
	fmt.Printf("  Created:  %s by %s\n", v.CreatedAt.Format("2006-01-02 15:04"), v.CreatedBy)
	for _, m := range v.Metrics {
		line := fmt.Sprintf("  Metric:   %s", m.Name)
		if m.Target != nil {
			line += fmt.Sprintf("  target %.4g %s", *m.Target, m.Unit)
		}
		if m.Current != nil {
			line += fmt.Sprintf("  (now %.4g)", *m.Current)
		}
		fmt.Println(line)
	}
}

// formatValue renders a Comparison old/new value for one-line display.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "(none)"
	case string:
		return fmt.Sprintf("%q", t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// =============================================================================
// GOAL COMMANDS
// =============================================================================

func runGoalCreate(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	var req dashboard.CreateVersionRequest
	switch {
	case goalFile != "":
		if err := readJSONInput(goalFile, &req); err != nil {
			fail("Could not read the version file", err)
		}
	case ux.IsInteractive() && !jsonOut && !quietOut:
		r, err := collectVersionForm(goalID)
		if err != nil {
			fail("Form aborted", err)
		}
		req = r
	default:
		// Non-interactive with no --file: accept the request on stdin
		// so the command still works in pipelines.
		if err := readJSONInput("-", &req); err != nil {
			fail("Could not read the version from stdin", err)
		}
	}

	client := newAPIClient()
	v, err := client.CreateVersion(goalID, req)
	if err != nil {
		fail("Could not create the version", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Created v%d of goal %s", v.Version, v.GoalID))
		renderVersion(v)
	}
	finish("goal create", start, v, false)
}

func runGoalHistory(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	client := newAPIClient()
	hist, err := client.GoalHistory(goalID)
	if err != nil {
		fail("Could not load the history", err)
	}

	versions := hist.Versions
	if historyBranch != "" {
		members, ok := hist.Branches[historyBranch]
		if !ok {
			fail("Unknown branch", fmt.Errorf("goal %s has no branch %q", goalID, historyBranch))
		}
		keep := make(map[int]bool, len(members))
		for _, n := range members {
			keep[n] = true
		}
		filtered := versions[:0:0]
		for _, v := range versions {
			if keep[v.Version] {
				filtered = append(filtered, v)
			}
		}
		versions = filtered
	}

	if browseHistory && len(versions) > 0 && !jsonOut && !quietOut {
		if err := runHistoryBrowser(hist.GoalID, versions); err != nil {
			fail("History browser failed", err)
		}
		os.Exit(CLIExitSuccess)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("History of goal %s (%d versions)", hist.GoalID, len(versions)))
		// Newest first reads better in a terminal.
		for i := len(versions) - 1; i >= 0; i-- {
			v := versions[i]
			fmt.Printf("  v%-3d %-8s %s  %-12s %s\n",
				v.Version, v.Status, v.CreatedAt.Format("2006-01-02 15:04"), v.CreatedBy, v.ChangeDescription)
		}
		if len(hist.Branches) > 0 && historyBranch == "" {
			names := make([]string, 0, len(hist.Branches))
			for name := range hist.Branches {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Println("\nBranches:")
			for _, name := range names {
				nums := hist.Branches[name]
				parts := make([]string, len(nums))
				for i, n := range nums {
					parts[i] = fmt.Sprintf("v%d", n)
				}
				fmt.Printf("  %-20s %s\n", name, strings.Join(parts, " "))
			}
		}
	}
	finish("goal history", start, hist, false)
}

func runGoalRollback(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	client := newAPIClient()
	v, err := client.Rollback(goalID, rollbackTo)
	if err != nil {
		fail("Rollback failed", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Restored goal %s to the state of v%d (recorded as v%d)",
			v.GoalID, rollbackTo, v.Version))
		renderVersion(v)
	}
	finish("goal rollback", start, v, false)
}

func runGoalBranch(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	client := newAPIClient()
	v, err := client.Branch(goalID, branchFrom, branchName)
	if err != nil {
		fail("Branch failed", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Branched %q from v%d of goal %s (head is v%d)",
			branchName, branchFrom, v.GoalID, v.Version))
	}
	finish("goal branch", start, v, false)
}

func runGoalCompare(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	client := newAPIClient()
	resp, err := client.Compare(goalID, compareFrom, compareTo)
	if err != nil {
		fail("Compare failed", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Goal %s: v%d -> v%d (%d changes)",
			resp.GoalID, resp.From, resp.To, len(resp.Comparisons)))
		if len(resp.Comparisons) == 0 {
			ux.Muted("The versions are identical.")
		}
		for _, c := range resp.Comparisons {
			marker := "~"
			switch c.Change {
			case goals.ChangeAdded:
				marker = "+"
			case goals.ChangeRemoved:
				marker = "-"
			}
			fmt.Printf("  %s %-24s [%s]\n", marker, c.Field, c.Impact)
			if c.Detail != "" {
				for _, line := range strings.Split(strings.TrimRight(c.Detail, "\n"), "\n") {
					fmt.Printf("      %s\n", line)
				}
				continue
			}
			if c.Change == goals.ChangeModified {
				fmt.Printf("      %s -> %s\n", formatValue(c.Old), formatValue(c.New))
			}
		}
	}
	finish("goal compare", start, resp, false)
}

func runGoalValidate(cmd *cobra.Command, args []string) {
	v := loadVersionArg(args)
	start := time.Now()

	client := newAPIClient()
	result, err := client.Validate(v)
	if err != nil {
		fail("Validation request failed", err)
	}

	if !jsonOut && !quietOut {
		if result.Valid {
			ux.Success("The goal passes SMART validation")
		} else {
			ux.Warning(fmt.Sprintf("The goal has %d validation issues", len(result.Issues)))
		}
		for _, issue := range result.Issues {
			fmt.Printf("  ! %s\n", issue)
		}
		for _, s := range result.Suggestions {
			ux.Muted("  tip: " + s)
		}
	}
	finish("goal validate", start, result, !result.Valid)
}

func runGoalProgress(cmd *cobra.Command, args []string) {
	v := loadVersionArg(args)
	start := time.Now()

	client := newAPIClient()
	report, err := client.Progress(v)
	if err != nil {
		fail("Progress request failed", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Overall progress: %.0f%%", report.OverallProgress))
		for _, m := range report.MetricProgress {
			state := "on track"
			if !m.OnTrack {
				state = "behind"
			}
			fmt.Printf("  %-24s %s %5.1f%%  %s\n",
				m.Name, ux.ProgressBar(int(m.Progress), 100, 20), m.Progress, state)
		}
	}
	finish("goal progress", start, report, false)
}

func runGoalSuggest(cmd *cobra.Command, args []string) {
	v := loadVersionArg(args)
	start := time.Now()

	client := newAPIClient()
	suggestions, err := client.Suggest(v)
	if err != nil {
		fail("Suggestion request failed", err)
	}

	if !jsonOut && !quietOut {
		if len(suggestions) == 0 {
			ux.Success("Nothing to improve, the goal is fully specified")
		}
		for _, s := range suggestions {
			fmt.Printf("  * %s\n", s)
		}
	}
	finish("goal suggest", start, dashboard.SuggestionsResponse{Suggestions: suggestions}, false)
}

func runGoalTrend(cmd *cobra.Command, args []string) {
	goalID := args[0]
	start := time.Now()

	client := newAPIClient()
	resp, err := client.Trend(goalID, trendLast)
	if err != nil {
		fail("Could not load the trend", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Progress trend for goal %s (%d snapshots)", resp.GoalID, len(resp.Points)))
		if len(resp.Points) == 0 {
			ux.Muted("No history recorded yet. Snapshots appear after progress reports run.")
		}
		for _, p := range resp.Points {
			state := "on track"
			if !p.OnTrack {
				state = "behind"
			}
			fmt.Printf("  %s  %s %5.1f%%  %s\n",
				p.At.Format("2006-01-02 15:04"), ux.ProgressBar(int(p.Overall), 100, 20), p.Overall, state)
		}
	}
	finish("goal trend", start, resp, false)
}
