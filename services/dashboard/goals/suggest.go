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

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// defaultTimelineMonths is assumed when a timeline carries no
// recognizable duration.
const defaultTimelineMonths = 6.0

// minRelativeImprovement is the target-vs-baseline delta, as a
// fraction of baseline, below which a metric reads as unambitious.
const minRelativeImprovement = 0.05

var durationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(year|quarter|month|week|day)s?`)

// SuggestImprovements runs advisory heuristics over a version and
// returns free-text suggestions, one per triggered heuristic.
//
// The heuristics, in order: too few metrics, no leading indicator
// (no metric named after an activity or a rate), a timeline that is
// too long or too short once parsed to months, and targets that sit
// within five percent of their baselines.
func SuggestImprovements(v GoalVersion) []string {
	suggestions := []string{}

	if len(v.Metrics) < 2 {
		suggestions = append(suggestions,
			"Consider adding complementary metrics so the goal is not judged on a single number")
	}

	if !hasLeadingIndicator(v.Metrics) {
		suggestions = append(suggestions,
			"Add a leading indicator, such as an activity or rate metric, to catch drift before outcomes slip")
	}

	months := extractMonths(v.Timeline)
	switch {
	case months > 12:
		suggestions = append(suggestions,
			"Timeline exceeds a year; break the goal into quarterly milestones")
	case months < 1:
		suggestions = append(suggestions,
			"Timeline under a month may be too aggressive; allow more time or narrow the goal")
	}

	if hasUnambitiousMetric(v.Metrics) {
		suggestions = append(suggestions,
			"Some targets are within 5% of their baselines; the goal may not be ambitious enough")
	}

	return suggestions
}

func hasLeadingIndicator(metrics []GoalMetric) bool {
	for _, m := range metrics {
		name := strings.ToLower(m.Name)
		if strings.Contains(name, "activity") || strings.Contains(name, "rate") {
			return true
		}
	}
	return false
}

func hasUnambitiousMetric(metrics []GoalMetric) bool {
	for _, m := range metrics {
		if m.Baseline == nil || m.Target == nil || *m.Baseline == 0 {
			continue
		}
		improvement := math.Abs(*m.Target-*m.Baseline) / math.Abs(*m.Baseline)
		if improvement < minRelativeImprovement {
			return true
		}
	}
	return false
}

// extractMonths parses a human timeline ("6 months", "1 year",
// "2 quarters") into months. Weeks and days are approximated at four
// weeks and thirty days per month. Anything unrecognizable yields the
// six-month default.
func extractMonths(timeline string) float64 {
	match := durationPattern.FindStringSubmatch(timeline)
	if match == nil {
		return defaultTimelineMonths
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return defaultTimelineMonths
	}

	switch strings.ToLower(match[2]) {
	case "year":
		return amount * 12
	case "quarter":
		return amount * 3
	case "month":
		return amount
	case "week":
		return amount / 4
	case "day":
		return amount / 30
	default:
		return defaultTimelineMonths
	}
}
