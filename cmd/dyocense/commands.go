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
	"github.com/dyocense/localcore/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL        string
	tenantID         string
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	jsonOut          bool
	compactOut       bool
	quietOut         bool

	projectID     string
	goalFile      string
	browseHistory bool
	historyBranch string
	rollbackTo    int
	branchFrom    int
	branchName    string
	compareFrom   int
	compareTo     int
	trendLast     int

	connectorName     string
	connectorCategory string
	connectorSync     string
	connectorConfig   []string
	catalogCategory   string
	catalogSearch     string

	serveAddr string

	rootCmd = &cobra.Command{
		Use:   "dyocense",
		Short: "A cli for the Dyocense dashboard core",
		Long: `Dyocense is a tool for working with the SMB dashboard's local core:
				goal version history, saved plans, data connectors, check-in
				streaks, and backups, all against a running dashboard daemon.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flags or environment.
			// JSON and quiet output imply machine personality so stray
			// styled output never corrupts a parsed stream.
			switch {
			case jsonOut || quietOut:
				ux.SetPersonalityLevel(ux.PersonalityMachine)
			case personalityLevel != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			default:
				ux.InitPersonality()
			}
		},
	}

	// --- Goals ---
	goalCmd = &cobra.Command{
		Use:   "goal",
		Short: "Work with goal version history",
	}
	goalCreateCmd = &cobra.Command{
		Use:   "create [goal_id]",
		Short: "Record a new goal version (interactive form on a terminal)",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalCreate, // Defined in cmd_goal.go
	}
	goalHistoryCmd = &cobra.Command{
		Use:   "history [goal_id]",
		Short: "Show the full version history of a goal",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalHistory, // Defined in cmd_goal.go
	}
	goalRollbackCmd = &cobra.Command{
		Use:   "rollback [goal_id]",
		Short: "Append a version restoring the state of an earlier one",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalRollback, // Defined in cmd_goal.go
	}
	goalBranchCmd = &cobra.Command{
		Use:   "branch [goal_id]",
		Short: "Fork a named branch from an existing version",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalBranch, // Defined in cmd_goal.go
	}
	goalCompareCmd = &cobra.Command{
		Use:   "compare [goal_id]",
		Short: "Diff two versions of a goal",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalCompare, // Defined in cmd_goal.go
	}
	goalValidateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "Run SMART validation on a goal JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runGoalValidate, // Defined in cmd_goal.go
	}
	goalProgressCmd = &cobra.Command{
		Use:   "progress [file]",
		Short: "Score metric progress for a goal JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runGoalProgress, // Defined in cmd_goal.go
	}
	goalSuggestCmd = &cobra.Command{
		Use:   "suggest [file]",
		Short: "Suggest improvements for a goal JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runGoalSuggest, // Defined in cmd_goal.go
	}
	goalTrendCmd = &cobra.Command{
		Use:   "trend [goal_id]",
		Short: "Show recent overall-progress snapshots for a goal",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalTrend, // Defined in cmd_goal.go
	}

	// --- Plans ---
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Manage saved plans and the active-plan pointer",
	}
	planSaveCmd = &cobra.Command{
		Use:   "save [file]",
		Short: "Save a plan from a JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPlanSave, // Defined in cmd_plan.go
	}
	planListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		Run:   runPlanList, // Defined in cmd_plan.go
	}
	planShowCmd = &cobra.Command{
		Use:   "show [plan_id]",
		Short: "Show one saved plan",
		Args:  cobra.ExactArgs(1),
		Run:   runPlanShow, // Defined in cmd_plan.go
	}
	planDeleteCmd = &cobra.Command{
		Use:   "delete [plan_id]",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		Run:   runPlanDelete, // Defined in cmd_plan.go
	}
	planActivateCmd = &cobra.Command{
		Use:   "activate [plan_id]",
		Short: "Point the active-plan marker at a saved plan",
		Args:  cobra.ExactArgs(1),
		Run:   runPlanActivate, // Defined in cmd_plan.go
	}
	planActiveCmd = &cobra.Command{
		Use:   "active",
		Short: "Show the currently active plan",
		Run:   runPlanActive, // Defined in cmd_plan.go
	}

	// --- Connectors ---
	connectorCmd = &cobra.Command{
		Use:   "connector",
		Short: "Manage data connectors",
	}
	connectorListCmd = &cobra.Command{
		Use:   "list",
		Short: "List configured connectors",
		Run:   runConnectorList, // Defined in cmd_connector.go
	}
	connectorAddCmd = &cobra.Command{
		Use:   "add [connector_id]",
		Short: "Add a connector from the marketplace catalog",
		Args:  cobra.ExactArgs(1),
		Run:   runConnectorAdd, // Defined in cmd_connector.go
	}
	connectorDeleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove a configured connector",
		Args:  cobra.ExactArgs(1),
		Run:   runConnectorDelete, // Defined in cmd_connector.go
	}
	connectorCatalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Browse the connector marketplace catalog",
		Run:   runConnectorCatalog, // Defined in cmd_connector.go
	}

	// --- Streaks ---
	streakCmd = &cobra.Command{
		Use:   "streak",
		Short: "Daily check-in streaks",
	}
	streakCheckinCmd = &cobra.Command{
		Use:   "checkin",
		Short: "Record today's check-in",
		Run:   runStreakCheckin, // Defined in cmd_streak.go
	}
	streakShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the current streak",
		Run:   runStreakShow, // Defined in cmd_streak.go
	}

	// --- Backups ---
	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and restore dashboard data",
	}
	backupCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Write a snapshot of the tenant's data to the backup bucket",
		Run:   runBackupCreate, // Defined in cmd_backup.go
	}
	backupListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the tenant's snapshots, newest first",
		Run:   runBackupList, // Defined in cmd_backup.go
	}
	backupRestoreCmd = &cobra.Command{
		Use:   "restore [object]",
		Short: "Restore a snapshot into the local store",
		Args:  cobra.ExactArgs(1),
		Run:   runBackupRestore, // Defined in cmd_backup.go
	}

	// --- Daemon ---
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and a dashboard summary",
		Run:   runStatus, // Defined in cmd_status.go
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run an embedded dashboard daemon (development mode)",
		Run:   runServe, // Defined in cmd_serve.go
	}
)

// init runs when the Go program starts
func init() {
	// Global connection and output flags
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Daemon base URL (default http://localhost:12400, or DYOCENSE_DAEMON_URL)")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "",
		"Tenant id sent as X-Tenant-ID (default: the daemon's default tenant)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON to stdout")
	rootCmd.PersistentFlags().BoolVar(&compactOut, "compact", false, "Compact JSON (no indentation)")
	rootCmd.PersistentFlags().BoolVar(&quietOut, "quiet", false, "Suppress output, exit code only")

	// Goal commands
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalCreateCmd)
	goalCreateCmd.Flags().StringVarP(&goalFile, "file", "f", "",
		"Read the version from a JSON file instead of the interactive form ('-' for stdin)")
	goalCmd.AddCommand(goalHistoryCmd)
	goalHistoryCmd.Flags().BoolVar(&browseHistory, "browse", false,
		"Browse the history in an interactive viewer")
	goalHistoryCmd.Flags().StringVar(&historyBranch, "branch", "", "Only list versions of this branch")
	goalCmd.AddCommand(goalRollbackCmd)
	goalRollbackCmd.Flags().IntVar(&rollbackTo, "to", 0, "Version number to restore (required)")
	goalRollbackCmd.MarkFlagRequired("to")
	goalCmd.AddCommand(goalBranchCmd)
	goalBranchCmd.Flags().IntVar(&branchFrom, "from", 0, "Source version number (required)")
	goalBranchCmd.Flags().StringVar(&branchName, "name", "", "Branch name (required)")
	goalBranchCmd.MarkFlagRequired("from")
	goalBranchCmd.MarkFlagRequired("name")
	goalCmd.AddCommand(goalCompareCmd)
	goalCompareCmd.Flags().IntVar(&compareFrom, "from", 0, "Base version number (required)")
	goalCompareCmd.Flags().IntVar(&compareTo, "to", 0, "Target version number (required)")
	goalCompareCmd.MarkFlagRequired("from")
	goalCompareCmd.MarkFlagRequired("to")
	goalCmd.AddCommand(goalValidateCmd)
	goalCmd.AddCommand(goalProgressCmd)
	goalCmd.AddCommand(goalSuggestCmd)
	goalCmd.AddCommand(goalTrendCmd)
	goalTrendCmd.Flags().IntVar(&trendLast, "last", 0, "Number of snapshots to show (default: all)")

	// Plan commands
	rootCmd.AddCommand(planCmd)
	planCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "Project scope for the plan collection")
	planCmd.AddCommand(planSaveCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planDeleteCmd)
	planCmd.AddCommand(planActivateCmd)
	planCmd.AddCommand(planActiveCmd)

	// Connector commands
	rootCmd.AddCommand(connectorCmd)
	connectorCmd.AddCommand(connectorListCmd)
	connectorCmd.AddCommand(connectorAddCmd)
	connectorAddCmd.Flags().StringVar(&connectorName, "name", "", "Display name (default: catalog name)")
	connectorAddCmd.Flags().StringVar(&connectorCategory, "category", "", "Category override")
	connectorAddCmd.Flags().StringVar(&connectorSync, "sync", "",
		"Sync cadence: realtime, hourly, daily, weekly, or manual")
	connectorAddCmd.Flags().StringArrayVar(&connectorConfig, "config", nil,
		"Connector credential or setting as key=value (repeatable)")
	connectorCmd.AddCommand(connectorDeleteCmd)
	connectorCmd.AddCommand(connectorCatalogCmd)
	connectorCatalogCmd.Flags().StringVar(&catalogCategory, "category", "", "Only list this category")
	connectorCatalogCmd.Flags().StringVar(&catalogSearch, "search", "", "Keyword filter")

	// Streak commands
	rootCmd.AddCommand(streakCmd)
	streakCmd.AddCommand(streakCheckinCmd)
	streakCmd.AddCommand(streakShowCmd)

	// Backup commands
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	// Daemon commands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address override (default: from config)")
}
