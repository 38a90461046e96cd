// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dyocense is the terminal client for the dashboard daemon.
//
// It covers the daemon's whole /v1 surface: goal version history, saved
// plans, data connectors, check-in streaks, and backups. Run against a
// local daemon (dashd or `dyocense serve`) or point --server at a remote
// one. Every command supports --json for scripting.
package main

import (
	"os"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments
	// and prints its own message for usage errors.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(CLIExitError)
	}
}
