// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

// trendRing keeps the last capacity trend points of one goal. When
// full, a push overwrites the oldest point.
//
// Not safe for concurrent use; the Recorder serializes access.
type trendRing struct {
	points []TrendPoint
	next   int
	full   bool
}

func newTrendRing(capacity int) *trendRing {
	if capacity <= 0 {
		capacity = defaultTrendDepth
	}
	return &trendRing{points: make([]TrendPoint, capacity)}
}

func (r *trendRing) push(p TrendPoint) {
	r.points[r.next] = p
	r.next = (r.next + 1) % len(r.points)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot copies the ring oldest-first.
func (r *trendRing) snapshot() []TrendPoint {
	if !r.full {
		out := make([]TrendPoint, r.next)
		copy(out, r.points[:r.next])
		return out
	}
	out := make([]TrendPoint, 0, len(r.points))
	out = append(out, r.points[r.next:]...)
	out = append(out, r.points[:r.next]...)
	return out
}
