// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history sinks goal progress calculations for trend views.
//
// Every progress calculation that flows through the service layer
// lands here twice: per-metric points go to InfluxDB for long-range
// analysis, and an in-memory ring keeps the most recent overall
// snapshots per goal so the trend endpoint works with no Influx
// configured. Influx failures are logged and counted, never returned;
// losing a trend point must not fail the calculation that produced it.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dyocense/localcore/services/dashboard/goals"
)

var (
	historyPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_history_points_total",
		Help: "Progress points recorded.",
	})

	historyWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dyocense_history_write_errors_total",
		Help: "Influx writes that failed and were dropped.",
	})
)

// progressMeasurement is the Influx measurement per-metric points land
// in.
const progressMeasurement = "goal_progress"

// defaultTrendDepth is how many overall snapshots the ring keeps per
// goal.
const defaultTrendDepth = 90

// Config connects the recorder to InfluxDB. Leaving URL or Token empty
// disables the Influx sink; the in-memory trend ring works regardless.
type Config struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	TrendDepth int
}

// DefaultConfig returns a disabled-Influx configuration with the
// standard trend depth.
func DefaultConfig() Config {
	return Config{TrendDepth: defaultTrendDepth}
}

// TrendPoint is one overall-progress snapshot of a goal.
type TrendPoint struct {
	At      time.Time `json:"at"`
	Overall float64   `json:"overall"`
	OnTrack bool      `json:"onTrack"`
}

// Recorder fans progress reports out to Influx and the trend rings.
//
// Thread Safety: safe for concurrent use.
type Recorder struct {
	write  api.WriteAPIBlocking
	client influxdb2.Client
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	trends map[string]*trendRing
	depth  int
}

// NewRecorder builds a recorder from cfg. With no Influx URL or token
// the recorder runs ring-only.
func NewRecorder(cfg Config, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		logger: logger.With(slog.String("component", "history")),
		now:    time.Now,
		trends: make(map[string]*trendRing),
		depth:  cfg.TrendDepth,
	}
	if r.depth <= 0 {
		r.depth = defaultTrendDepth
	}

	if cfg.URL != "" && cfg.Token != "" {
		r.client = influxdb2.NewClient(cfg.URL, cfg.Token)
		r.write = r.client.WriteAPIBlocking(cfg.Org, cfg.Bucket)
		r.logger.Info("influx progress sink enabled",
			slog.String("url", cfg.URL),
			slog.String("bucket", cfg.Bucket))
	}

	return r
}

// Record sinks one progress report for a goal.
func (r *Recorder) Record(ctx context.Context, tenantID, goalID string, report goals.ProgressReport) {
	at := r.now().UTC()

	// A snapshot counts as on track when every metric is.
	onTrack := len(report.MetricProgress) > 0
	for _, m := range report.MetricProgress {
		if !m.OnTrack {
			onTrack = false
			break
		}
	}
	r.pushTrend(tenantID, goalID, TrendPoint{
		At:      at,
		Overall: report.OverallProgress,
		OnTrack: onTrack,
	})
	historyPointsTotal.Inc()

	if r.write == nil {
		return
	}

	points := make([]*write.Point, 0, len(report.MetricProgress))
	for _, m := range report.MetricProgress {
		fields := map[string]interface{}{
			"progress": m.Progress,
			"on_track": m.OnTrack,
		}
		if m.Current != nil {
			fields["current"] = *m.Current
		}
		if m.Target != nil {
			fields["target"] = *m.Target
		}
		points = append(points, influxdb2.NewPoint(
			progressMeasurement,
			map[string]string{
				"tenant_id": tenantID,
				"goal_id":   goalID,
				"metric":    m.Name,
			},
			fields,
			at,
		))
	}
	if len(points) == 0 {
		return
	}

	if err := r.write.WritePoint(ctx, points...); err != nil {
		historyWriteErrorsTotal.Inc()
		r.logger.Error("influx write failed",
			slog.String("goal_id", goalID),
			slog.String("error", err.Error()))
	}
}

// Trend returns up to n of the goal's most recent overall snapshots,
// oldest first. n <= 0 returns the whole ring.
func (r *Recorder) Trend(tenantID, goalID string, n int) []TrendPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, ok := r.trends[trendKey(tenantID, goalID)]
	if !ok {
		return []TrendPoint{}
	}
	all := ring.snapshot()
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Close releases the Influx client, if any.
func (r *Recorder) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *Recorder) pushTrend(tenantID, goalID string, p TrendPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := trendKey(tenantID, goalID)
	ring, ok := r.trends[key]
	if !ok {
		ring = newTrendRing(r.depth)
		r.trends[key] = ring
	}
	ring.push(p)
}

func trendKey(tenantID, goalID string) string {
	return tenantID + "/" + goalID
}
