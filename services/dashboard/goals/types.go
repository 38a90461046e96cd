// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package goals implements the goal version store: immutable version
// records built from edits, diff/compare, rollback and branching over
// linear history, SMART validation, and progress scoring.
//
// Versions are never edited in place. Every mutation produces a new
// version whose number is the previous number plus one, so the version
// list doubles as an audit log. Rollback follows the same rule: it
// appends a new version that copies an old one rather than reverting
// history (see Rollback).
//
// Domain outcomes are data, not errors: validation returns a
// ValidationResult, missing versions return nil. Errors are reserved
// for the storage boundary, and even there the repository degrades to
// empty reads and logged no-ops.
package goals

import "time"

// VersionStatus is the lifecycle state of one goal version.
type VersionStatus string

const (
	StatusDraft    VersionStatus = "draft"
	StatusActive   VersionStatus = "active"
	StatusArchived VersionStatus = "archived"
)

// GoalMetric is one measurable dimension of a goal version. The four
// booleans are SMART dimension flags; achievable and relevant are
// supplied by the caller (typically from a planning review), never
// derived here.
//
// Baseline, Target, and Current are pointers because dashboard clients
// may omit them; validation and progress treat a nil value as "not
// set".
type GoalMetric struct {
	Name       string   `json:"name"`
	Baseline   *float64 `json:"baseline,omitempty"`
	Target     *float64 `json:"target,omitempty"`
	Unit       string   `json:"unit"`
	Current    *float64 `json:"current,omitempty"`
	Achievable bool     `json:"achievable"`
	Measurable bool     `json:"measurable"`
	Relevant   bool     `json:"relevant"`
	Timebound  bool     `json:"timebound"`
}

// GoalVersion is one immutable snapshot of a goal. Field names in JSON
// match the shape dashboard clients already persist.
type GoalVersion struct {
	ID                string        `json:"id"`
	GoalID            string        `json:"goalId"`
	Version           int           `json:"version"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Metrics           []GoalMetric  `json:"metrics"`
	Timeline          string        `json:"timeline"`
	CreatedAt         time.Time     `json:"createdAt"`
	CreatedBy         string        `json:"createdBy"`
	ChangeDescription string        `json:"changeDescription"`
	Status            VersionStatus `json:"status"`
	ParentVersion     *int          `json:"parentVersion,omitempty"`
}

// VersionHistory is the full version record of one goal: versions in
// insertion order (which is version order), plus the branch registry
// mapping branch names to the version numbers created under them.
type VersionHistory struct {
	GoalID   string           `json:"goalId"`
	Versions []GoalVersion    `json:"versions"`
	Branches map[string][]int `json:"branches"`
}

// VersionUpdate carries the fields an edit wants to change. Nil fields
// are copied forward from the previous version, so "absent" and "set
// to empty" stay distinguishable.
type VersionUpdate struct {
	GoalID      string         `json:"goalId,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Metrics     []GoalMetric   `json:"metrics,omitempty"`
	Timeline    *string        `json:"timeline,omitempty"`
	Status      *VersionStatus `json:"status,omitempty"`
}

// ChangeKind classifies one Comparison entry.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// Impact grades how consequential a change is. Target changes and
// metric addition/removal are major; wording tweaks are minor.
type Impact string

const (
	ImpactMajor Impact = "major"
	ImpactMinor Impact = "minor"
)

// Comparison is one entry of a version diff. Field is "title",
// "description", "timeline", or "metric:{name}". Detail carries a
// unified diff for description changes.
type Comparison struct {
	Field  string     `json:"field"`
	Change ChangeKind `json:"change"`
	Impact Impact     `json:"impact"`
	Old    any        `json:"old,omitempty"`
	New    any        `json:"new,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// ValidationResult is the structured outcome of ValidateSMART. Issues
// and Suggestions are index-paired: Suggestions[i] addresses Issues[i].
type ValidationResult struct {
	Valid       bool     `json:"isValid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// MetricProgress is the scored progress of one metric.
type MetricProgress struct {
	Name     string   `json:"name"`
	Progress float64  `json:"progress"`
	OnTrack  bool     `json:"onTrack"`
	Current  *float64 `json:"current,omitempty"`
	Target   *float64 `json:"target,omitempty"`
}

// ProgressReport aggregates per-metric progress. OverallProgress is
// the unweighted mean, zero when the version has no metrics.
type ProgressReport struct {
	OverallProgress float64          `json:"overallProgress"`
	MetricProgress  []MetricProgress `json:"metricProgress"`
}

// Float is a convenience for building metric values in literals.
func Float(v float64) *float64 { return &v }

// cloneMetrics deep-copies a metric list, including the pointer-valued
// fields, so versions never alias each other's data.
func cloneMetrics(metrics []GoalMetric) []GoalMetric {
	if metrics == nil {
		return nil
	}
	out := make([]GoalMetric, len(metrics))
	for i, m := range metrics {
		out[i] = m
		out[i].Baseline = clonePtr(m.Baseline)
		out[i].Target = clonePtr(m.Target)
		out[i].Current = clonePtr(m.Current)
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
