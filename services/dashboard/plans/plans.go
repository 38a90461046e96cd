// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plans persists saved plans per tenant and project scope.
//
// Plans live in the dyocense-plans key family with the same
// best-effort semantics as every other collection: one stored record
// per (tenant, project, plan id), upserted in place, with storage
// failures absorbed. A separate per-scope pointer tracks which plan is
// active.
package plans

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/mod/semver"

	"github.com/dyocense/localcore/services/dashboard/store"
)

var planWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dyocense_plan_writes_total",
	Help: "Plan store mutations, by operation.",
}, []string{"operation"})

// PlanSection is one named, free-form piece of a plan. Content is kept
// opaque; this layer stores it, it never interprets it.
type PlanSection struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content,omitempty"`
}

// SavedPlan is a stored plan snapshot.
type SavedPlan struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectId,omitempty"`
	Version   string        `json:"version,omitempty"`
	Summary   string        `json:"summary,omitempty"`
	Sections  []PlanSection `json:"sections,omitempty"`
	SavedAt   time.Time     `json:"savedAt"`
}

// RecordID implements store.Record.
func (p SavedPlan) RecordID() string { return p.ID }

// Store persists plans and the per-scope active-plan pointer.
type Store struct {
	plans  *store.Collection[SavedPlan]
	kv     store.KeyValueStore
	logger *slog.Logger
}

// NewStore wires a plan store over kv. A nil logger falls back to
// slog.Default.
func NewStore(kv store.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "plans"))
	return &Store{
		plans:  store.NewCollection[SavedPlan](kv, store.SchemePlans, logger),
		kv:     kv,
		logger: logger,
	}
}

// SavePlan upserts a plan into its scope and stamps SavedAt. Saving an
// id that already exists replaces the stored record, so repeated saves
// of the same plan never grow the collection.
func (s *Store) SavePlan(ctx context.Context, tenantID, projectID string, plan SavedPlan) SavedPlan {
	plan.ProjectID = projectID
	plan.SavedAt = time.Now().UTC()
	s.plans.Write(ctx, tenantID, plan, projectID)
	planWritesTotal.WithLabelValues("save").Inc()
	return plan
}

// ListPlans returns the scope's plans newest first. Plans saved in the
// same instant fall back to descending semver order of their version
// labels, so "1.10.0" sorts ahead of "1.2.0".
func (s *Store) ListPlans(ctx context.Context, tenantID, projectID string) []SavedPlan {
	list := s.plans.Read(ctx, tenantID, projectID)
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].SavedAt.Equal(list[j].SavedAt) {
			return list[i].SavedAt.After(list[j].SavedAt)
		}
		return semver.Compare(canonicalVersion(list[i].Version), canonicalVersion(list[j].Version)) > 0
	})
	return list
}

// GetPlan returns the plan with the given id, nil when absent.
func (s *Store) GetPlan(ctx context.Context, tenantID, planID, projectID string) *SavedPlan {
	for _, p := range s.plans.Read(ctx, tenantID, projectID) {
		if p.ID == planID {
			plan := p
			return &plan
		}
	}
	return nil
}

// DeletePlan removes a plan and rewrites the remaining collection, so
// deleting the last plan leaves an empty stored array rather than a
// missing key. A pointer naming the deleted plan is cleared.
func (s *Store) DeletePlan(ctx context.Context, tenantID, planID, projectID string) {
	s.plans.Remove(ctx, tenantID, planID, projectID)
	planWritesTotal.WithLabelValues("delete").Inc()

	if active := s.activePlanID(ctx, tenantID, projectID); active == planID {
		s.ClearActivePlan(ctx, tenantID, projectID)
	}
}

// SetActivePlan points the scope's active-plan marker at planID.
// Reports false without writing when the plan does not exist.
func (s *Store) SetActivePlan(ctx context.Context, tenantID, planID, projectID string) bool {
	if s.GetPlan(ctx, tenantID, planID, projectID) == nil {
		return false
	}

	raw, err := json.Marshal(planID)
	if err != nil {
		s.logger.Error("marshal active plan failed", slog.String("error", err.Error()))
		return false
	}
	key := store.ScopedKey(store.SchemeActivePlan, tenantID, projectID)
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.Error("write active plan failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	planWritesTotal.WithLabelValues("activate").Inc()
	return true
}

// ActivePlan resolves the scope's active-plan pointer. A missing or
// dangling pointer yields nil.
func (s *Store) ActivePlan(ctx context.Context, tenantID, projectID string) *SavedPlan {
	id := s.activePlanID(ctx, tenantID, projectID)
	if id == "" {
		return nil
	}
	return s.GetPlan(ctx, tenantID, id, projectID)
}

// ClearActivePlan drops the scope's active-plan pointer.
func (s *Store) ClearActivePlan(ctx context.Context, tenantID, projectID string) {
	key := store.ScopedKey(store.SchemeActivePlan, tenantID, projectID)
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("clear active plan failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	planWritesTotal.WithLabelValues("clear").Inc()
}

func (s *Store) activePlanID(ctx context.Context, tenantID, projectID string) string {
	key := store.ScopedKey(store.SchemeActivePlan, tenantID, projectID)
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Error("read active plan failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return ""
	}
	if !found {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		s.logger.Warn("corrupt active plan pointer ignored",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return ""
	}
	return id
}

// canonicalVersion coerces a stored version label into the v-prefixed
// form semver comparison expects. Unparseable labels compare lowest.
func canonicalVersion(label string) string {
	if label == "" {
		return ""
	}
	if !strings.HasPrefix(label, "v") {
		label = "v" + label
	}
	return label
}
