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
	"strings"
	"time"

	"github.com/dyocense/localcore/pkg/ux"
	"github.com/dyocense/localcore/services/dashboard/streaks"
	"github.com/spf13/cobra"
)

func runStreakCheckin(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	data, err := client.CheckIn()
	if err != nil {
		fail("Check-in failed", err)
	}

	if !jsonOut && !quietOut {
		ux.Success(fmt.Sprintf("Checked in. Current streak: %d days", data.Current))
		fmt.Print(streakLines(data))
	}
	finish("streak checkin", start, data, false)
}

func runStreakShow(cmd *cobra.Command, args []string) {
	start := time.Now()

	client := newAPIClient()
	data, err := client.Streak()
	if err != nil {
		fail("Could not load the streak", err)
	}

	if !jsonOut && !quietOut {
		if data.Current == 0 {
			ux.Muted("No streak yet. Record today with 'dyocense streak checkin'.")
		} else {
			ux.Box(fmt.Sprintf("%d day streak (longest %d)", data.Current, data.Longest),
				strings.TrimRight(streakLines(data), "\n"))
		}
	}
	finish("streak show", start, data, false)
}

// streakLines renders the last week of activity as a dot strip.
func streakLines(data streaks.StreakData) string {
	var b strings.Builder
	if !data.LastCheckIn.IsZero() {
		fmt.Fprintf(&b, "Last check-in: %s\n", data.LastCheckIn.Format("2006-01-02 15:04"))
	}

	active := make(map[string]bool, len(data.RecentDays))
	for _, day := range data.RecentDays {
		active[day] = true
	}

	var dots []string
	for offset := 6; offset >= 0; offset-- {
		day := time.Now().AddDate(0, 0, -offset)
		if active[day.Format("2006-01-02")] {
			dots = append(dots, "●")
		} else {
			dots = append(dots, "○")
		}
	}
	fmt.Fprintf(&b, "Last 7 days:   %s  (today on the right)\n", strings.Join(dots, " "))
	return b.String()
}
