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
	"github.com/pmezard/go-difflib/difflib"
)

// Compare diffs two versions field by field.
//
// Output order is fixed: title, description, timeline, then metric
// changes in the old version's metric order, then metrics that exist
// only in the new version. A version compared with itself yields an
// empty result.
//
// Impact grading: title and timeline changes are major, description
// changes minor. Removed and added metrics are major; a modified
// metric is major only when its target moved, minor otherwise.
func Compare(old, new GoalVersion) []Comparison {
	var changes []Comparison

	if old.Title != new.Title {
		changes = append(changes, Comparison{
			Field:  "title",
			Change: ChangeModified,
			Impact: ImpactMajor,
			Old:    old.Title,
			New:    new.Title,
		})
	}

	if old.Description != new.Description {
		changes = append(changes, Comparison{
			Field:  "description",
			Change: ChangeModified,
			Impact: ImpactMinor,
			Old:    old.Description,
			New:    new.Description,
			Detail: descriptionDiff(old.Description, new.Description),
		})
	}

	if old.Timeline != new.Timeline {
		changes = append(changes, Comparison{
			Field:  "timeline",
			Change: ChangeModified,
			Impact: ImpactMajor,
			Old:    old.Timeline,
			New:    new.Timeline,
		})
	}

	newByName := make(map[string]GoalMetric, len(new.Metrics))
	for _, m := range new.Metrics {
		newByName[m.Name] = m
	}
	oldNames := make(map[string]struct{}, len(old.Metrics))

	for _, oldMetric := range old.Metrics {
		oldNames[oldMetric.Name] = struct{}{}

		newMetric, present := newByName[oldMetric.Name]
		if !present {
			changes = append(changes, Comparison{
				Field:  "metric:" + oldMetric.Name,
				Change: ChangeRemoved,
				Impact: ImpactMajor,
				Old:    oldMetric,
			})
			continue
		}
		if metricsEqual(oldMetric, newMetric) {
			continue
		}

		impact := ImpactMinor
		if !floatPtrEqual(oldMetric.Target, newMetric.Target) {
			impact = ImpactMajor
		}
		changes = append(changes, Comparison{
			Field:  "metric:" + oldMetric.Name,
			Change: ChangeModified,
			Impact: impact,
			Old:    oldMetric,
			New:    newMetric,
		})
	}

	for _, newMetric := range new.Metrics {
		if _, present := oldNames[newMetric.Name]; present {
			continue
		}
		changes = append(changes, Comparison{
			Field:  "metric:" + newMetric.Name,
			Change: ChangeAdded,
			Impact: ImpactMajor,
			New:    newMetric,
		})
	}

	return changes
}

func metricsEqual(a, b GoalMetric) bool {
	return a.Name == b.Name &&
		a.Unit == b.Unit &&
		a.Achievable == b.Achievable &&
		a.Measurable == b.Measurable &&
		a.Relevant == b.Relevant &&
		a.Timebound == b.Timebound &&
		floatPtrEqual(a.Baseline, b.Baseline) &&
		floatPtrEqual(a.Target, b.Target) &&
		floatPtrEqual(a.Current, b.Current)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// descriptionDiff renders a small unified diff for review surfaces.
// Diff failures degrade to an empty detail; the Old/New fields still
// carry the full text.
func descriptionDiff(old, new string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(new),
		FromFile: "previous",
		ToFile:   "current",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
