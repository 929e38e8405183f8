// Package snapshot persists the pending progress queue across restarts.
//
// Primary backend: Redis (env REDIS_DSN).
// Fallback: Postgres single-row upsert (env DATABASE_URL).
// Then: a JSON file under the agent state directory.
// If none is configured, an in-memory slot is used (development only).
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/learning-platform/internal/progress"
)

// Version tags the persisted envelope. Restore treats any other version the
// same as malformed data: no prior state.
const Version = 1

// Slot is a single named region of durable storage holding the whole
// pending queue. Save overwrites wholesale; an empty queue clears the slot
// instead of storing an empty container.
type Slot interface {
	// Save writes the full record set, replacing whatever was there.
	Save(ctx context.Context, records []progress.Record) error
	// Load reads the record set. Absent, malformed, or version-mismatched
	// data loads as (nil, nil): restore fails open.
	Load(ctx context.Context) ([]progress.Record, error)
	// Clear removes the slot entirely.
	Clear(ctx context.Context) error
}

type envelope struct {
	Version   int               `json:"version"`
	SavedAtMS int64             `json:"saved_at_ms"`
	Records   []progress.Record `json:"records"`
}

func encode(records []progress.Record) ([]byte, error) {
	return json.Marshal(envelope{
		Version:   Version,
		SavedAtMS: time.Now().UnixMilli(),
		Records:   records,
	})
}

// decode unpacks a persisted envelope. Anything unreadable yields nil:
// stale or corrupt snapshots must never block startup.
func decode(b []byte) []progress.Record {
	if len(b) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil
	}
	if env.Version != Version {
		return nil
	}
	return env.Records
}

// NewSlot creates the best available snapshot slot:
// Redis > Postgres > file > in-memory (dev fallback).
// When isProd is true the in-memory fallback is not allowed and an error is
// returned instead.
func NewSlot(redisDSN, databaseURL, statePath, owner string, isProd bool) (Slot, error) {
	if redisDSN != "" {
		return newRedisSlot(redisDSN, owner), nil
	}
	if databaseURL != "" {
		return newPostgresSlot(databaseURL, owner), nil
	}
	if statePath != "" {
		return NewFileSlot(statePath), nil
	}
	if isProd {
		return nil, errors.New("production requires REDIS_DSN, DATABASE_URL, or a state path for snapshots; in-memory slot is not allowed")
	}
	return NewMemorySlot(), nil
}
