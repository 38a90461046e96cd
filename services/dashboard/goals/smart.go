// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package goals

// minSpecificDescription is the shortest description that still counts
// as specific.
const minSpecificDescription = 20

// ValidateSMART evaluates a version against the five SMART dimensions.
//
// Six checks run in a fixed order: description length, metric presence,
// measurability (flag plus baseline and target), achievability,
// relevance, and time binding (non-empty timeline plus timebound flags).
// Each failed check contributes exactly one issue and one paired
// suggestion; a version is valid iff no check fails.
//
// The length check applies to descriptions that are present: a goal
// with no description at all is judged on its other dimensions, while
// one with a description under 20 characters reads as not specific.
//
// The achievable and relevant flags are caller-supplied judgments.
// This layer reads them, it never derives them.
func ValidateSMART(v GoalVersion) ValidationResult {
	issues := []string{}
	suggestions := []string{}

	fail := func(issue, suggestion string) {
		issues = append(issues, issue)
		suggestions = append(suggestions, suggestion)
	}

	if v.Description != "" && len(v.Description) < minSpecificDescription {
		fail(
			"Goal description is too short to be specific",
			"Describe what will change, for whom, and by how much (at least 20 characters)",
		)
	}

	if len(v.Metrics) == 0 {
		fail(
			"Goal has no metrics",
			"Add at least one metric with a baseline and a target so progress can be measured",
		)
	}

	if !allMeasurable(v.Metrics) {
		fail(
			"Some metrics are not measurable or are missing baseline/target values",
			"Give every metric a numeric baseline and target, and mark it measurable",
		)
	}

	if anyFlagFalse(v.Metrics, func(m GoalMetric) bool { return m.Achievable }) {
		fail(
			"Some metrics are flagged as not achievable",
			"Lower the targets or extend the timeline until every metric is realistic",
		)
	}

	if anyFlagFalse(v.Metrics, func(m GoalMetric) bool { return m.Relevant }) {
		fail(
			"Some metrics are flagged as not relevant",
			"Remove or replace metrics that do not directly support the goal",
		)
	}

	if v.Timeline == "" || anyFlagFalse(v.Metrics, func(m GoalMetric) bool { return m.Timebound }) {
		fail(
			"Goal has no timeline or includes metrics that are not time-bound",
			"Set a concrete timeline such as \"6 months\" and mark each metric time-bound",
		)
	}

	return ValidationResult{
		Valid:       len(issues) == 0,
		Issues:      issues,
		Suggestions: suggestions,
	}
}

// allMeasurable reports whether every metric carries the measurable
// flag and both numeric anchors. Vacuously true for an empty list; the
// metric-presence check owns that case.
func allMeasurable(metrics []GoalMetric) bool {
	for _, m := range metrics {
		if !m.Measurable || m.Baseline == nil || m.Target == nil {
			return false
		}
	}
	return true
}

func anyFlagFalse(metrics []GoalMetric, flag func(GoalMetric) bool) bool {
	for _, m := range metrics {
		if !flag(m) {
			return true
		}
	}
	return false
}
