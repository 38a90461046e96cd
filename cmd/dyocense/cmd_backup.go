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
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/spf13/cobra"
)

func runBackupCreate(cmd *cobra.Command, args []string) {
	start := time.Now()

	var spin *ux.Spinner
	if !jsonOut && !quietOut {
		spin = ux.NewSpinner("Snapshotting the tenant's data").
			WithType(ux.SpinnerPulse).WithInterval(120 * time.Millisecond)
		spin.Start()
	}

	client := newAPIClient()
	object, err := client.CreateBackup()
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		if hasAPICode(err, "BACKUPS_NOT_CONFIGURED") {
			fail("Backups are not configured on this daemon", err)
		}
		fail("Backup failed", err)
	}

	if spin != nil {
		spin.StopWithSuccess("Snapshot written to " + object)
	}
	finish("backup create", start, dashboard.BackupResponse{Object: object}, false)
}

func runBackupList(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	objects, err := client.ListBackups()
	if err != nil {
		fail("Could not list backups", err)
	}

	if !jsonOut && !quietOut {
		ux.Title(fmt.Sprintf("Snapshots (%d, newest first)", len(objects)))
		for _, object := range objects {
			fmt.Printf("  %s\n", object)
		}
		if len(objects) == 0 {
			ux.Muted("None yet. Create one with 'dyocense backup create'.")
		}
	}
	finish("backup list", start, dashboard.BackupListResponse{Objects: objects}, false)
}

func runBackupRestore(cmd *cobra.Command, args []string) {
	object := args[0]
	start := time.Now()

	var spin *ux.Spinner
	if !jsonOut && !quietOut {
		spin = ux.NewSpinner("Restoring " + object).
			WithType(ux.SpinnerPulse).WithInterval(120 * time.Millisecond)
		spin.Start()
	}

	client := newAPIClient()
	restored, err := client.RestoreBackup(object)
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		fail("Restore failed", err)
	}

	if spin != nil {
		spin.StopWithSuccess(fmt.Sprintf("Restored %d entries into the local store", restored))
	}
	finish("backup restore", start, dashboard.RestoreResponse{Restored: restored}, false)
}
