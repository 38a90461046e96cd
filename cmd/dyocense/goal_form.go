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
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dyocense/localcore/services/dashboard"
	"github.com/dyocense/localcore/services/dashboard/goals"
)

// collectVersionForm walks the user through recording a new version of
// goalID in the terminal.
//
// # Description
//
// Only the change description is mandatory. Blank answers are omitted
// from the request so the daemon carries the previous version's values
// forward. Metrics are collected in a loop until the user declines.
//
// # Outputs
//
//   - dashboard.CreateVersionRequest: Ready to POST to the daemon.
//   - error: Non-nil when the user aborts (ctrl+c / esc).
func collectVersionForm(goalID string) (dashboard.CreateVersionRequest, error) {
	var (
		req         dashboard.CreateVersionRequest
		title       string
		description string
		timeline    string
		status      string
		author      string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("What changed on goal %s?", goalID)).
				Description("Recorded as this version's change description.").
				Validate(requireText("a change description")).
				Value(&req.ChangeDescription),
			huh.NewInput().
				Title("Title").
				Description("Leave blank to keep the current title.").
				Value(&title),
			huh.NewText().
				Title("Description").
				Description("Leave blank to keep the current description.").
				Value(&description),
			huh.NewInput().
				Title("Timeline").
				Placeholder("e.g. Q4 2026").
				Description("Leave blank to keep the current timeline.").
				Value(&timeline),
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("keep current", ""),
					huh.NewOption("draft", string(goals.StatusDraft)),
					huh.NewOption("active", string(goals.StatusActive)),
					huh.NewOption("archived", string(goals.StatusArchived)),
				).
				Value(&status),
			huh.NewInput().
				Title("Recorded by").
				Description("Optional author name for the history.").
				Value(&author),
		),
	)
	if err := form.Run(); err != nil {
		return dashboard.CreateVersionRequest{}, err
	}

	if title != "" {
		req.Title = &title
	}
	if description != "" {
		req.Description = &description
	}
	if timeline != "" {
		req.Timeline = &timeline
	}
	if status != "" {
		s := goals.VersionStatus(status)
		req.Status = &s
	}
	req.UserID = strings.TrimSpace(author)

	for {
		addMetric := false
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Add a metric to this version?").
				Description("Metrics replace the previous version's set when any are given.").
				Value(&addMetric),
		))
		if err := confirm.Run(); err != nil {
			return dashboard.CreateVersionRequest{}, err
		}
		if !addMetric {
			break
		}
		m, err := collectMetricForm()
		if err != nil {
			return dashboard.CreateVersionRequest{}, err
		}
		req.Metrics = append(req.Metrics, m)
	}
	return req, nil
}

// collectMetricForm prompts for one goal metric.
func collectMetricForm() (goals.GoalMetric, error) {
	var (
		name     string
		unit     string
		baseline string
		target   string
		current  string
		flags    = []string{"measurable", "achievable", "relevant", "timebound"}
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metric name").
				Placeholder("e.g. monthly_revenue").
				Validate(requireText("a metric name")).
				Value(&name),
			huh.NewInput().
				Title("Unit").
				Placeholder("e.g. USD").
				Value(&unit),
			huh.NewInput().
				Title("Baseline").
				Description("Starting value, leave blank if unknown.").
				Validate(optionalNumber).
				Value(&baseline),
			huh.NewInput().
				Title("Target").
				Validate(optionalNumber).
				Value(&target),
			huh.NewInput().
				Title("Current").
				Validate(optionalNumber).
				Value(&current),
			huh.NewMultiSelect[string]().
				Title("SMART dimensions this metric satisfies").
				Options(
					huh.NewOption("measurable", "measurable").Selected(true),
					huh.NewOption("achievable", "achievable").Selected(true),
					huh.NewOption("relevant", "relevant").Selected(true),
					huh.NewOption("timebound", "timebound").Selected(true),
				).
				Value(&flags),
		),
	)
	if err := form.Run(); err != nil {
		return goals.GoalMetric{}, err
	}

	m := goals.GoalMetric{
		Name:     strings.TrimSpace(name),
		Unit:     strings.TrimSpace(unit),
		Baseline: parseOptionalNumber(baseline),
		Target:   parseOptionalNumber(target),
		Current:  parseOptionalNumber(current),
	}
	for _, f := range flags {
		switch f {
		case "measurable":
			m.Measurable = true
		case "achievable":
			m.Achievable = true
		case "relevant":
			m.Relevant = true
		case "timebound":
			m.Timebound = true
		}
	}
	return m, nil
}

// requireText builds a validator rejecting blank input.
func requireText(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

// optionalNumber accepts blank input or anything ParseFloat accepts.
func optionalNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("enter a number or leave blank")
	}
	return nil
}

func parseOptionalNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Validated by the form already.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
