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
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dyocense/localcore/services/dashboard/store"
)

var (
	versionAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dyocense_goal_version_appends_total",
		Help: "Goal versions appended to a history, by kind.",
	}, []string{"kind"})

	historyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_goal_history_errors_total",
		Help: "Goal history reads or writes that degraded to empty or were dropped.",
	})
)

// Repository persists version histories, one document per goal, under
// the goalVersions: key family.
//
// It follows the best-effort cache contract: reads degrade to an empty
// history on substrate failure or corrupt payloads, writes log and
// drop on failure, and no method returns an error. Missing versions
// surface as nil results.
type Repository struct {
	store  store.KeyValueStore
	logger *slog.Logger
}

// NewRepository wires a repository over kv. A nil logger falls back to
// slog.Default.
func NewRepository(kv store.KeyValueStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  kv,
		logger: logger.With(slog.String("component", "goals")),
	}
}

// History loads the version history for a goal. Absent, unreadable,
// and corrupt documents all come back as an empty history so callers
// can treat the result as ready to append to.
func (r *Repository) History(ctx context.Context, goalID string) VersionHistory {
	empty := VersionHistory{
		GoalID:   goalID,
		Versions: []GoalVersion{},
		Branches: map[string][]int{},
	}

	raw, found, err := r.store.Get(ctx, store.GoalVersionsKey(goalID))
	if err != nil {
		historyErrorsTotal.Inc()
		r.logger.Error("history read failed",
			slog.String("goal_id", goalID),
			slog.String("error", err.Error()))
		return empty
	}
	if !found {
		return empty
	}

	var h VersionHistory
	if err := json.Unmarshal(raw, &h); err != nil {
		historyErrorsTotal.Inc()
		r.logger.Warn("corrupt history ignored",
			slog.String("goal_id", goalID),
			slog.String("error", err.Error()))
		return empty
	}

	if h.GoalID == "" {
		h.GoalID = goalID
	}
	if h.Versions == nil {
		h.Versions = []GoalVersion{}
	}
	if h.Branches == nil {
		h.Branches = map[string][]int{}
	}
	return h
}

// CreateVersion appends a new version built from updates on top of the
// goal's latest version and persists the grown history. The first
// version of a goal has number 1 and no parent.
func (r *Repository) CreateVersion(ctx context.Context, goalID string, updates VersionUpdate, changeDescription, userID string) GoalVersion {
	h := r.History(ctx, goalID)
	v := NewVersion(h.Latest(), updates, changeDescription, userID)
	v.GoalID = goalID

	h.Versions = append(h.Versions, v)
	r.save(ctx, h, "create")
	return v
}

// RollbackTo appends a draft copy of targetVersion's content, parented
// to the current latest version. Returns nil when the target does not
// exist; the history is left untouched in that case.
func (r *Repository) RollbackTo(ctx context.Context, goalID string, targetVersion int, userID string) *GoalVersion {
	h := r.History(ctx, goalID)
	v := Rollback(h, targetVersion, userID)
	if v == nil {
		return nil
	}
	v.GoalID = goalID

	h.Versions = append(h.Versions, *v)
	r.save(ctx, h, "rollback")
	return v
}

// CreateBranch forks a named branch off sourceVersion and persists the
// updated history. Returns nil when the source does not exist.
func (r *Repository) CreateBranch(ctx context.Context, goalID string, sourceVersion int, branchName, userID string) *GoalVersion {
	h := r.History(ctx, goalID)
	branched, v := Branch(h, sourceVersion, branchName, userID)
	if v == nil {
		return nil
	}
	v.GoalID = goalID
	if n := len(branched.Versions); n > 0 {
		branched.Versions[n-1].GoalID = goalID
	}

	r.save(ctx, branched, "branch")
	return v
}

// SetStatus moves one version to the given lifecycle status and, when
// activating, archives whichever version was active before. Reports
// whether the version exists.
func (r *Repository) SetStatus(ctx context.Context, goalID string, version int, status VersionStatus) bool {
	h := r.History(ctx, goalID)

	idx := -1
	for i := range h.Versions {
		if h.Versions[i].Version == version {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if status == StatusActive {
		for i := range h.Versions {
			if i != idx && h.Versions[i].Status == StatusActive {
				h.Versions[i].Status = StatusArchived
			}
		}
	}
	h.Versions[idx].Status = status

	r.save(ctx, h, "status")
	return true
}

func (r *Repository) save(ctx context.Context, h VersionHistory, kind string) {
	raw, err := json.Marshal(h)
	if err != nil {
		historyErrorsTotal.Inc()
		r.logger.Error("marshal history failed",
			slog.String("goal_id", h.GoalID),
			slog.String("error", err.Error()))
		return
	}
	if err := r.store.Set(ctx, store.GoalVersionsKey(h.GoalID), raw); err != nil {
		historyErrorsTotal.Inc()
		r.logger.Error("history write failed",
			slog.String("goal_id", h.GoalID),
			slog.String("error", err.Error()))
		return
	}
	versionAppendsTotal.WithLabelValues(kind).Inc()
}
