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
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewVersion builds the next immutable version from an edit.
//
// When existing is nil the result is version 1 with no parent. Otherwise
// the version number is existing.Version+1 and ParentVersion records the
// existing version's number. Fields absent from updates are copied
// forward from existing; metric lists are deep-copied so versions never
// share data. CreatedAt and CreatedBy are stamped fresh, and the status
// defaults to draft for a first version.
func NewVersion(existing *GoalVersion, updates VersionUpdate, changeDescription, userID string) GoalVersion {
	v := GoalVersion{
		ID:                uuid.NewString(),
		Version:           1,
		Status:            StatusDraft,
		CreatedAt:         time.Now().UTC(),
		CreatedBy:         userID,
		ChangeDescription: changeDescription,
		GoalID:            updates.GoalID,
	}

	if existing != nil {
		parent := existing.Version
		v.Version = existing.Version + 1
		v.ParentVersion = &parent
		v.GoalID = existing.GoalID
		v.Title = existing.Title
		v.Description = existing.Description
		v.Metrics = cloneMetrics(existing.Metrics)
		v.Timeline = existing.Timeline
		v.Status = existing.Status
	}

	if updates.Title != nil {
		v.Title = *updates.Title
	}
	if updates.Description != nil {
		v.Description = *updates.Description
	}
	if updates.Metrics != nil {
		v.Metrics = cloneMetrics(updates.Metrics)
	}
	if updates.Timeline != nil {
		v.Timeline = *updates.Timeline
	}
	if updates.Status != nil {
		v.Status = *updates.Status
	}

	return v
}

// Latest returns the newest version of the history, nil when empty.
// Insertion order is version order, so this is the last element.
func (h VersionHistory) Latest() *GoalVersion {
	if len(h.Versions) == 0 {
		return nil
	}
	return &h.Versions[len(h.Versions)-1]
}

// Find returns the version with the given number, nil when absent.
func (h VersionHistory) Find(version int) *GoalVersion {
	for i := range h.Versions {
		if h.Versions[i].Version == version {
			return &h.Versions[i]
		}
	}
	return nil
}

// clone copies the history so callers can append without mutating the
// input. Branch lists and metric data are copied too.
func (h VersionHistory) clone() VersionHistory {
	out := VersionHistory{
		GoalID:   h.GoalID,
		Versions: make([]GoalVersion, len(h.Versions)),
		Branches: make(map[string][]int, len(h.Branches)),
	}
	for i, v := range h.Versions {
		out.Versions[i] = v
		out.Versions[i].Metrics = cloneMetrics(v.Metrics)
	}
	for name, versions := range h.Branches {
		out.Branches[name] = append([]int(nil), versions...)
	}
	return out
}

// Rollback creates a version that restores the content of targetVersion.
//
// This is a forward-moving operation, not a destructive revert: the new
// version copies the target's title, description, metrics, and timeline,
// is parented to the CURRENT latest version (not the target), carries
// status draft, and is numbered latest+1. Nothing already in the history
// is touched, which keeps the full audit trail intact.
//
// Returns nil when targetVersion does not exist in the history.
func Rollback(h VersionHistory, targetVersion int, userID string) *GoalVersion {
	target := h.Find(targetVersion)
	if target == nil {
		return nil
	}

	latest := h.Latest()
	status := StatusDraft
	updates := VersionUpdate{
		Title:       &target.Title,
		Description: &target.Description,
		Metrics:     cloneMetrics(target.Metrics),
		Timeline:    &target.Timeline,
		Status:      &status,
	}

	v := NewVersion(latest, updates, fmt.Sprintf("Rolled back to version %d", targetVersion), userID)
	return &v
}

// Branch forks a new draft version off sourceVersion.
//
// The branch version is parented to the source (not the latest), its
// title gains a " (branchName)" suffix, and the returned history is a
// copy with the version appended and the branch registered under
// Branches[branchName]. The input history is never mutated.
//
// Branch numbering continues from the source version, so a branch off
// an old version can share a number with a later mainline version; the
// Branches registry records which numbers belong to the branch.
//
// Returns the input history unchanged and nil when sourceVersion does
// not exist.
func Branch(h VersionHistory, sourceVersion int, branchName, userID string) (VersionHistory, *GoalVersion) {
	source := h.Find(sourceVersion)
	if source == nil {
		return h, nil
	}

	title := source.Title + " (" + branchName + ")"
	status := StatusDraft
	updates := VersionUpdate{
		Title:  &title,
		Status: &status,
	}

	v := NewVersion(source, updates, "Created branch "+branchName, userID)

	out := h.clone()
	out.Versions = append(out.Versions, v)
	out.Branches[branchName] = []int{v.Version}
	return out, &v
}
