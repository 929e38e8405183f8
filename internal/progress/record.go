// Package progress holds the pending-update model for playback progress
// telemetry: one coalesced record per content item, waiting for delivery.
package progress

import "math"

// Sample is a single playback progress measurement.
// Percentage is derived from position/total and always within [0,100].
type Sample struct {
	PositionSeconds float64 `json:"position_seconds"`
	TotalSeconds    float64 `json:"total_seconds"`
	Percentage      float64 `json:"percentage"`
}

// NewSample builds a Sample from raw player values, clamping negatives
// and deriving the percentage.
func NewSample(positionSeconds, totalSeconds float64) Sample {
	if positionSeconds < 0 || math.IsNaN(positionSeconds) {
		positionSeconds = 0
	}
	if totalSeconds < 0 || math.IsNaN(totalSeconds) {
		totalSeconds = 0
	}
	pct := 0.0
	if totalSeconds > 0 {
		pct = positionSeconds / totalSeconds * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Sample{PositionSeconds: positionSeconds, TotalSeconds: totalSeconds, Percentage: pct}
}

// ParentRefs identifies the collections that own a content item.
// The telemetry pipeline passes these through without interpreting them.
type ParentRefs struct {
	CourseID string `json:"course_id,omitempty"`
	ModuleID string `json:"module_id,omitempty"`
}

// Display carries the human-readable labels the activity endpoint expects.
// A record without a complete Display cannot be delivered yet.
type Display struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Complete reports whether all fields required by the remote schema are set.
func (d Display) Complete() bool {
	return d.Title != "" && d.URL != ""
}

// Record is the pending update for one content item.
type Record struct {
	Key              string     `json:"key"`
	Parents          ParentRefs `json:"parents"`
	Display          Display    `json:"display"`
	Sample           Sample     `json:"sample"`
	EnqueuedAtMillis int64      `json:"enqueued_at_ms"`
	Attempts         int        `json:"attempts"`
}

// Ready reports whether the record can be delivered. Records still waiting
// for display context stay in the store but are skipped by flush cycles.
func (r Record) Ready() bool {
	return r.Display.Complete()
}
