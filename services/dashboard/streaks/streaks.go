// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package streaks tracks consecutive-day dashboard activity per tenant.
//
// A check-in on the day after the last one extends the current streak;
// a gap resets it to one. Data lives under the streak key scheme with
// the store's best-effort contract: failed reads come back as a zero
// streak and failed writes are logged and dropped.
package streaks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dyocense/localcore/services/dashboard/events"
	"github.com/dyocense/localcore/services/dashboard/store"
)

var (
	streakRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_streak_records_total",
		Help: "Activity check-ins recorded.",
	})

	streakErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_streak_errors_total",
		Help: "Streak reads or writes that degraded or were dropped.",
	})
)

// recentDaysLimit bounds the activity ring carried in each document.
const recentDaysLimit = 30

// dayFormat is the calendar-date form stored in the activity ring.
const dayFormat = "2006-01-02"

// StreakData is one tenant's activity streak.
type StreakData struct {
	TenantID    string    `json:"tenantId"`
	Current     int       `json:"current"`
	Longest     int       `json:"longest"`
	LastCheckIn time.Time `json:"lastCheckIn"`
	RecentDays  []string  `json:"recentDays"`
}

// Tracker records activity check-ins and maintains streak counters.
//
// Thread Safety: safe for concurrent use when the underlying store is;
// concurrent check-ins for the same tenant on the same day collapse to
// one because same-day records are idempotent.
type Tracker struct {
	store  store.KeyValueStore
	bus    *events.Bus
	logger *slog.Logger
}

// NewTracker wires a tracker over kv. A nil bus gets a private one and
// a nil logger falls back to slog.Default.
func NewTracker(kv store.KeyValueStore, bus *events.Bus, logger *slog.Logger) *Tracker {
	if bus == nil {
		bus = events.NewBus()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  kv,
		bus:    bus,
		logger: logger.With(slog.String("component", "streaks")),
	}
}

// Get returns the tenant's streak, or a zero streak when none exists.
func (t *Tracker) Get(ctx context.Context, tenantID string) StreakData {
	d, _ := t.load(ctx, tenantID)
	return d
}

// RecordActivity registers a check-in on the given day and returns the
// updated streak. Same-day repeats are no-ops, the day after the last
// check-in extends the streak, anything later restarts it at one, and
// days before the last check-in are ignored as out-of-order.
func (t *Tracker) RecordActivity(ctx context.Context, tenantID string, day time.Time) StreakData {
	d, found := t.load(ctx, tenantID)
	today := truncateDay(day)

	if found {
		last := truncateDay(d.LastCheckIn)
		switch gap := daysBetween(last, today); {
		case gap == 0:
			return d
		case gap < 0:
			t.logger.Debug("out-of-order check-in ignored",
				slog.String("tenant_id", tenantID),
				slog.String("day", today.Format(dayFormat)))
			return d
		case gap == 1:
			d.Current++
		default:
			d.Current = 1
		}
	} else {
		d.TenantID = tenantID
		d.Current = 1
	}

	if d.Current > d.Longest {
		d.Longest = d.Current
	}
	d.LastCheckIn = today
	d.RecentDays = append(d.RecentDays, today.Format(dayFormat))
	if len(d.RecentDays) > recentDaysLimit {
		d.RecentDays = d.RecentDays[len(d.RecentDays)-recentDaysLimit:]
	}

	t.save(ctx, d)
	streakRecordsTotal.Inc()
	t.bus.Publish(events.TypeStreakRecorded, tenantID, events.StreakRecordedData{
		Current: d.Current,
		Longest: d.Longest,
	})
	return d
}

// load reads the tenant's streak document. A scoped miss falls back to
// the bare legacy key written by single-tenant builds and claims it for
// this tenant. found is false when nothing readable exists anywhere.
func (t *Tracker) load(ctx context.Context, tenantID string) (StreakData, bool) {
	empty := StreakData{TenantID: tenantID, RecentDays: []string{}}

	if d, ok := t.loadKey(ctx, store.ScopedKey(store.SchemeStreaks, tenantID, "")); ok {
		return d, true
	}

	legacy, ok := t.loadKey(ctx, store.SchemeStreaks)
	if !ok {
		return empty, false
	}

	legacy.TenantID = tenantID
	t.save(ctx, legacy)
	t.logger.Info("migrated legacy streak data", slog.String("tenant_id", tenantID))
	return legacy, true
}

func (t *Tracker) loadKey(ctx context.Context, key string) (StreakData, bool) {
	raw, found, err := t.store.Get(ctx, key)
	if err != nil {
		streakErrorsTotal.Inc()
		t.logger.Error("streak read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return StreakData{}, false
	}
	if !found {
		return StreakData{}, false
	}

	var d StreakData
	if err := json.Unmarshal(raw, &d); err != nil {
		streakErrorsTotal.Inc()
		t.logger.Warn("corrupt streak data ignored",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return StreakData{}, false
	}
	if d.RecentDays == nil {
		d.RecentDays = []string{}
	}
	return d, true
}

func (t *Tracker) save(ctx context.Context, d StreakData) {
	data, err := json.Marshal(d)
	if err != nil {
		streakErrorsTotal.Inc()
		t.logger.Error("marshal streak failed",
			slog.String("tenant_id", d.TenantID),
			slog.String("error", err.Error()))
		return
	}
	key := store.ScopedKey(store.SchemeStreaks, d.TenantID, "")
	if err := t.store.Set(ctx, key, data); err != nil {
		streakErrorsTotal.Inc()
		t.logger.Error("write streak failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// truncateDay normalizes to midnight UTC so streak math is a pure
// calendar-date comparison.
func truncateDay(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b; both must be midnight UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
