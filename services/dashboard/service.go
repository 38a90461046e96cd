// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/dyocense/localcore/services/dashboard/backup"
	"github.com/dyocense/localcore/services/dashboard/connectors"
	"github.com/dyocense/localcore/services/dashboard/connectors/catalog"
	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/goals"
	"github.com/dyocense/localcore/services/dashboard/history"
	"github.com/dyocense/localcore/services/dashboard/plans"
	"github.com/dyocense/localcore/services/dashboard/store"
	"github.com/dyocense/localcore/services/dashboard/streaks"
)

// Service composes the dashboard subsystems behind one API surface.
// It owns the translation from domain results (nil for missing) to
// the sentinel errors the HTTP layer maps to status codes, and it is
// the single place that publishes goal and plan events.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Multiple goroutines can call
//	any combination of methods simultaneously.
type Service struct {
	kv     store.KeyValueStore
	bus    *events.Bus
	logger *slog.Logger

	goals   *goals.Repository
	plans   *plans.Store
	streaks *streaks.Tracker

	// Optional subsystems, attached via With*. Handlers answer 503
	// for endpoints whose subsystem is absent.
	conns   *connectors.Manager
	history *history.Recorder
	backups *backup.Snapshotter

	now func() time.Time
}

// NewService builds a service over kv. The goal, plan, and streak
// stores are created internally; connector, history, and backup
// subsystems are attached with the With* methods because they carry
// external dependencies.
func NewService(kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger) *Service {
	if bus == nil {
		bus = events.NewBus()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		kv:      kv,
		bus:     bus,
		logger:  logger.With(slog.String("component", "dashboard")),
		goals:   goals.NewRepository(kv, logger),
		plans:   plans.NewStore(kv, logger),
		streaks: streaks.NewTracker(kv, bus, logger),
		now:     time.Now,
	}
}

// WithConnectors attaches the connector manager.
func (s *Service) WithConnectors(m *connectors.Manager) *Service {
	s.conns = m
	return s
}

// WithHistory attaches the progress history recorder.
func (s *Service) WithHistory(r *history.Recorder) *Service {
	s.history = r
	return s
}

// WithBackups attaches the snapshot subsystem.
func (s *Service) WithBackups(b *backup.Snapshotter) *Service {
	s.backups = b
	return s
}

// Bus exposes the event bus for the websocket feed and tests.
func (s *Service) Bus() *events.Bus { return s.bus }

// Close releases subsystem resources. Safe to call once at shutdown.
func (s *Service) Close() {
	if s.history != nil {
		s.history.Close()
	}
}

// =============================================================================
// Goals
// =============================================================================

// GoalHistory returns the goal's full version history. Unknown goals
// get an empty, usable history.
func (s *Service) GoalHistory(ctx context.Context, goalID string) goals.VersionHistory {
	return s.goals.History(ctx, goalID)
}

// CreateGoalVersion appends a new version and announces it on the bus.
func (s *Service) CreateGoalVersion(ctx context.Context, tenantID, goalID string, req CreateVersionRequest) goals.GoalVersion {
	v := s.goals.CreateVersion(ctx, goalID, req.updates(), req.ChangeDescription, req.UserID)
	s.bus.Publish(events.TypeGoalVersionCreated, tenantID, events.GoalVersionData{
		GoalID:  goalID,
		Version: v.Version,
	})
	return v
}

// RollbackGoal appends a draft copy of targetVersion's content on top
// of the history. Returns ErrVersionNotFound when the target does not
// exist.
func (s *Service) RollbackGoal(ctx context.Context, tenantID, goalID string, targetVersion int, userID string) (*goals.GoalVersion, error) {
	v := s.goals.RollbackTo(ctx, goalID, targetVersion, userID)
	if v == nil {
		return nil, ErrVersionNotFound
	}
	s.bus.Publish(events.TypeGoalRolledBack, tenantID, events.GoalVersionData{
		GoalID:  goalID,
		Version: v.Version,
	})
	return v, nil
}

// BranchGoal forks a named branch off sourceVersion. Returns
// ErrVersionNotFound when the source does not exist.
func (s *Service) BranchGoal(ctx context.Context, tenantID, goalID string, sourceVersion int, branchName, userID string) (*goals.GoalVersion, error) {
	v := s.goals.CreateBranch(ctx, goalID, sourceVersion, branchName, userID)
	if v == nil {
		return nil, ErrVersionNotFound
	}
	s.bus.Publish(events.TypeGoalBranchCreated, tenantID, events.GoalVersionData{
		GoalID:  goalID,
		Version: v.Version,
		Branch:  branchName,
	})
	return v, nil
}

// CompareGoalVersions diffs two versions of one goal. Returns
// ErrVersionNotFound when either side is missing.
func (s *Service) CompareGoalVersions(ctx context.Context, goalID string, from, to int) ([]goals.Comparison, error) {
	h := s.goals.History(ctx, goalID)
	a := h.Find(from)
	b := h.Find(to)
	if a == nil || b == nil {
		return nil, ErrVersionNotFound
	}
	return goals.Compare(*a, *b), nil
}

// ValidateGoal runs the SMART checks. Failures are data, not errors.
func (s *Service) ValidateGoal(v goals.GoalVersion) goals.ValidationResult {
	return goals.ValidateSMART(v)
}

// GoalProgress scores the goal and, when the history sink is attached
// and the payload names a goal, records the snapshot.
func (s *Service) GoalProgress(ctx context.Context, tenantID string, v goals.GoalVersion) goals.ProgressReport {
	report := goals.Progress(v)
	if s.history != nil && v.GoalID != "" {
		s.history.Record(ctx, tenantID, v.GoalID, report)
	}
	return report
}

// SuggestGoal returns improvement suggestions for the goal payload.
func (s *Service) SuggestGoal(v goals.GoalVersion) []string {
	return goals.SuggestImprovements(v)
}

// GoalTrend returns the last n recorded progress snapshots, oldest
// first. Without an attached recorder the trend is empty.
func (s *Service) GoalTrend(tenantID, goalID string, n int) []history.TrendPoint {
	if s.history == nil {
		return []history.TrendPoint{}
	}
	return s.history.Trend(tenantID, goalID, n)
}

// =============================================================================
// Plans
// =============================================================================

// SavePlan upserts a plan and announces the save.
func (s *Service) SavePlan(ctx context.Context, tenantID, projectID string, plan plans.SavedPlan) plans.SavedPlan {
	saved := s.plans.SavePlan(ctx, tenantID, projectID, plan)
	s.bus.Publish(events.TypePlanSaved, tenantID, events.PlanData{
		PlanID:    saved.ID,
		ProjectID: projectID,
	})
	return saved
}

// ListPlans returns the scope's plans, newest first.
func (s *Service) ListPlans(ctx context.Context, tenantID, projectID string) []plans.SavedPlan {
	return s.plans.ListPlans(ctx, tenantID, projectID)
}

// GetPlan returns one plan or ErrPlanNotFound.
func (s *Service) GetPlan(ctx context.Context, tenantID, planID, projectID string) (*plans.SavedPlan, error) {
	p := s.plans.GetPlan(ctx, tenantID, planID, projectID)
	if p == nil {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// DeletePlan removes a plan. Deleting an absent plan is a no-op; the
// event still fires because the store does not report whether a key
// existed.
func (s *Service) DeletePlan(ctx context.Context, tenantID, planID, projectID string) {
	s.plans.DeletePlan(ctx, tenantID, planID, projectID)
	s.bus.Publish(events.TypePlanDeleted, tenantID, events.PlanData{
		PlanID:    planID,
		ProjectID: projectID,
	})
}

// SetActivePlan moves the active pointer. Returns ErrPlanNotFound when
// the plan does not exist in the scope.
func (s *Service) SetActivePlan(ctx context.Context, tenantID, planID, projectID string) error {
	if !s.plans.SetActivePlan(ctx, tenantID, planID, projectID) {
		return ErrPlanNotFound
	}
	s.bus.Publish(events.TypePlanActivated, tenantID, events.PlanData{
		PlanID:    planID,
		ProjectID: projectID,
	})
	return nil
}

// ActivePlan returns the scope's active plan or ErrNoActivePlan.
func (s *Service) ActivePlan(ctx context.Context, tenantID, projectID string) (*plans.SavedPlan, error) {
	p := s.plans.ActivePlan(ctx, tenantID, projectID)
	if p == nil {
		return nil, ErrNoActivePlan
	}
	return p, nil
}

// =============================================================================
// Connectors
// =============================================================================

// ConnectorsConfigured reports whether the connector manager is
// attached.
func (s *Service) ConnectorsConfigured() bool { return s.conns != nil }

// Connectors lists the tenant's connectors through the cache/fallback
// manager. Transport trouble degrades to local data, never to an
// error.
func (s *Service) Connectors(ctx context.Context, tenantID string) []connectors.TenantConnector {
	return s.conns.GetAll(ctx, tenantID)
}

// Connector returns one connector or ErrConnectorNotFound.
func (s *Service) Connector(ctx context.Context, id string) (*connectors.TenantConnector, error) {
	c := s.conns.GetByID(ctx, id)
	if c == nil {
		return nil, ErrConnectorNotFound
	}
	return c, nil
}

// AddConnector creates a connector for the tenant, remotely when
// possible, locally otherwise.
func (s *Service) AddConnector(ctx context.Context, tenantID string, req AddConnectorRequest) connectors.TenantConnector {
	return s.conns.Add(ctx, connectors.TenantConnector{
		TenantID:      tenantID,
		ConnectorID:   req.ConnectorID,
		Name:          req.Name,
		Category:      req.Category,
		Icon:          req.Icon,
		Config:        req.Config,
		DataTypes:     req.DataTypes,
		SyncFrequency: req.SyncFrequency,
		CreatedBy:     req.CreatedBy,
	})
}

// RemoveConnector deletes a connector. Removing an absent id is a
// no-op.
func (s *Service) RemoveConnector(ctx context.Context, tenantID, id string) {
	s.conns.Delete(ctx, tenantID, id)
}

// ConnectorMode reports the manager's current fetch strategy, empty
// when connectors are not configured.
func (s *Service) ConnectorMode() string {
	if s.conns == nil {
		return ""
	}
	return string(s.conns.Mode())
}

// Catalog returns the connector marketplace catalog.
func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := catalog.Get(ctx)
	if err != nil {
		s.logger.Error("catalog load failed", slog.String("error", err.Error()))
		return nil, ErrCatalogUnavailable
	}
	return cat, nil
}

// =============================================================================
// Streaks
// =============================================================================

// CheckIn records activity for the tenant. A zero time means now.
func (s *Service) CheckIn(ctx context.Context, tenantID string, at time.Time) streaks.StreakData {
	if at.IsZero() {
		at = s.now()
	}
	return s.streaks.RecordActivity(ctx, tenantID, at)
}

// Streak returns the tenant's current streak state.
func (s *Service) Streak(ctx context.Context, tenantID string) streaks.StreakData {
	return s.streaks.Get(ctx, tenantID)
}

// =============================================================================
// Backups
// =============================================================================

// BackupsConfigured reports whether a snapshot target is attached.
func (s *Service) BackupsConfigured() bool { return s.backups != nil }

// CreateBackup snapshots the tenant's keys to the object store and
// returns the object name.
func (s *Service) CreateBackup(ctx context.Context, tenantID string) (string, error) {
	if s.backups == nil {
		return "", ErrBackupsDisabled
	}
	return s.backups.Create(ctx, tenantID)
}

// RestoreBackup writes a snapshot's entries back into local storage
// and returns how many keys were restored.
func (s *Service) RestoreBackup(ctx context.Context, object string) (int, error) {
	if s.backups == nil {
		return 0, ErrBackupsDisabled
	}
	return s.backups.Restore(ctx, object)
}

// ListBackups returns the tenant's snapshot objects, newest first.
func (s *Service) ListBackups(ctx context.Context, tenantID string) ([]string, error) {
	if s.backups == nil {
		return nil, ErrBackupsDisabled
	}
	return s.backups.List(ctx, tenantID)
}

// =============================================================================
// Health
// =============================================================================

// Health reports liveness. Always healthy while the process runs; the
// connector mode is included so operators can spot a latched instance.
func (s *Service) Health() HealthResponse {
	return HealthResponse{
		Status:        "healthy",
		Version:       ServiceVersion,
		ConnectorMode: s.ConnectorMode(),
	}
}
