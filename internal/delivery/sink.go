// Package delivery sends coalesced progress updates to the platform's
// activity endpoint. The sink is opaque to the rest of the agent: one call
// per record, any non-success is a per-record failure.
package delivery

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/example/learning-platform/internal/progress"
)

// Sink delivers a single progress record. credential is the bearer token
// for the current flush cycle; sinks with transport-level auth ignore it.
type Sink interface {
	Deliver(ctx context.Context, credential string, rec progress.Record) error
}

type progressPayload struct {
	CurrentTime int     `json:"current_time"`
	Duration    int     `json:"duration"`
	Percentage  float64 `json:"percentage"`
}

// Event is the wire envelope for one progress update.
type Event struct {
	EventID    string          `json:"event_id"`
	ContentKey string          `json:"content_key"`
	CourseID   string          `json:"course_id,omitempty"`
	ModuleID   string          `json:"module_id,omitempty"`
	Title      string          `json:"title"`
	URL        string          `json:"url"`
	Progress   progressPayload `json:"progress"`
	ClientTsMs int64           `json:"client_ts_ms"`
}

// NewEvent maps a record onto the remote schema: whole seconds for times,
// two decimals for the percentage.
func NewEvent(rec progress.Record) Event {
	return Event{
		EventID:    uuid.NewString(),
		ContentKey: rec.Key,
		CourseID:   rec.Parents.CourseID,
		ModuleID:   rec.Parents.ModuleID,
		Title:      rec.Display.Title,
		URL:        rec.Display.URL,
		Progress: progressPayload{
			CurrentTime: int(math.Round(rec.Sample.PositionSeconds)),
			Duration:    int(math.Round(rec.Sample.TotalSeconds)),
			Percentage:  math.Round(rec.Sample.Percentage*100) / 100,
		},
		ClientTsMs: rec.EnqueuedAtMillis,
	}
}
