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

// onTrackThreshold is the minimum per-metric progress, in percent,
// that still counts as on track.
const onTrackThreshold = 60.0

// Progress scores a version's metrics against their baselines and
// targets.
//
// A metric with baseline, target, and current all present scores
// clamp(0, 100, (current-baseline)/(target-baseline)*100) and is on
// track at 60 or above. A metric missing any of the three values
// scores zero and is never on track. When baseline equals target the
// ratio is undefined; the metric scores 100 once current has reached
// the target and zero before that. The overall figure is the
// unweighted mean, zero for a version with no metrics.
func Progress(v GoalVersion) ProgressReport {
	report := ProgressReport{
		MetricProgress: make([]MetricProgress, 0, len(v.Metrics)),
	}

	var sum float64
	for _, m := range v.Metrics {
		p := metricProgress(m)
		sum += p.Progress
		report.MetricProgress = append(report.MetricProgress, p)
	}
	if len(v.Metrics) > 0 {
		report.OverallProgress = sum / float64(len(v.Metrics))
	}
	return report
}

func metricProgress(m GoalMetric) MetricProgress {
	p := MetricProgress{
		Name:    m.Name,
		Current: clonePtr(m.Current),
		Target:  clonePtr(m.Target),
	}
	if m.Baseline == nil || m.Target == nil || m.Current == nil {
		return p
	}

	baseline, target, current := *m.Baseline, *m.Target, *m.Current
	switch {
	case baseline == target:
		if current >= target {
			p.Progress = 100
		}
	default:
		p.Progress = clamp(0, 100, (current-baseline)/(target-baseline)*100)
	}
	p.OnTrack = p.Progress >= onTrackThreshold
	return p
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
