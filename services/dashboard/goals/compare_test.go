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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseVersion() GoalVersion {
	return GoalVersion{
		ID:          "v-1",
		GoalID:      "g1",
		Version:     1,
		Title:       "Grow revenue",
		Description: "Lift monthly recurring revenue by winning upmarket",
		Timeline:    "6 months",
		Metrics:     []GoalMetric{mrrMetric()},
	}
}

// TestCompare_IdenticalVersions verifies a version diffed against
// itself reports no changes.
func TestCompare_IdenticalVersions(t *testing.T) {
	v := baseVersion()
	assert.Empty(t, Compare(v, v))
}

// TestCompare_TitleChange verifies title edits rank as major.
func TestCompare_TitleChange(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	new.Title = "Grow enterprise revenue"

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "title", changes[0].Field)
	assert.Equal(t, ChangeModified, changes[0].Change)
	assert.Equal(t, ImpactMajor, changes[0].Impact)
	assert.Equal(t, "Grow revenue", changes[0].Old)
	assert.Equal(t, "Grow enterprise revenue", changes[0].New)
}

// TestCompare_DescriptionChange verifies description edits rank as
// minor and carry a unified diff in Detail.
func TestCompare_DescriptionChange(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	new.Description = "Lift annual recurring revenue by winning upmarket"

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "description", changes[0].Field)
	assert.Equal(t, ImpactMinor, changes[0].Impact)
	assert.Contains(t, changes[0].Detail, "-Lift monthly recurring revenue by winning upmarket")
	assert.Contains(t, changes[0].Detail, "+Lift annual recurring revenue by winning upmarket")
}

// TestCompare_TimelineChange verifies timeline edits rank as major.
func TestCompare_TimelineChange(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	new.Timeline = "12 months"

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "timeline", changes[0].Field)
	assert.Equal(t, ImpactMajor, changes[0].Impact)
}

// TestCompare_MetricRemoved verifies a metric present only in the old
// version reports as a major removal.
func TestCompare_MetricRemoved(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	churn := GoalMetric{Name: "Churn", Baseline: Float(5), Target: Float(3), Unit: "%"}
	old.Metrics = append(old.Metrics, churn)

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "metric:Churn", changes[0].Field)
	assert.Equal(t, ChangeRemoved, changes[0].Change)
	assert.Equal(t, ImpactMajor, changes[0].Impact)
	assert.Nil(t, changes[0].New)
}

// TestCompare_MetricAdded verifies a metric present only in the new
// version reports as a major addition.
func TestCompare_MetricAdded(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	churn := GoalMetric{Name: "Churn", Baseline: Float(5), Target: Float(3), Unit: "%"}
	new.Metrics = append(new.Metrics, churn)

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "metric:Churn", changes[0].Field)
	assert.Equal(t, ChangeAdded, changes[0].Change)
	assert.Equal(t, ImpactMajor, changes[0].Impact)
	assert.Nil(t, changes[0].Old)
}

// TestCompare_MetricTargetChange verifies moving a target is a major
// modification.
func TestCompare_MetricTargetChange(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	new.Metrics[0].Target = Float(20000)

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "metric:MRR", changes[0].Field)
	assert.Equal(t, ChangeModified, changes[0].Change)
	assert.Equal(t, ImpactMajor, changes[0].Impact)
}

// TestCompare_MetricCurrentChange verifies updating only the current
// value is a minor modification.
func TestCompare_MetricCurrentChange(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	old.Metrics[0].Current = Float(11000)
	new.Metrics[0].Current = Float(12000)

	changes := Compare(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, "metric:MRR", changes[0].Field)
	assert.Equal(t, ChangeModified, changes[0].Change)
	assert.Equal(t, ImpactMinor, changes[0].Impact)
}

// TestCompare_Ordering verifies the fixed field order: title,
// description, timeline, then metrics.
func TestCompare_Ordering(t *testing.T) {
	old, new := baseVersion(), baseVersion()
	new.Title = "Grow enterprise revenue"
	new.Description = "Lift annual recurring revenue by winning upmarket"
	new.Timeline = "12 months"
	new.Metrics = append(new.Metrics, GoalMetric{Name: "Churn", Target: Float(3)})

	changes := Compare(old, new)
	require.Len(t, changes, 4)
	assert.Equal(t, "title", changes[0].Field)
	assert.Equal(t, "description", changes[1].Field)
	assert.Equal(t, "timeline", changes[2].Field)
	assert.Equal(t, "metric:Churn", changes[3].Field)
}
