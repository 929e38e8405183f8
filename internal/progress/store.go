package progress

import (
	"sync"
	"time"
)

// DefaultThreshold is the minimum percentage-point change that makes a new
// sample worth storing. Players report progress several times a second;
// anything below this is churn.
const DefaultThreshold = 1.0

// Store keeps at most one pending Record per content key. New samples for a
// key overwrite the old ones unless the change is immaterial.
type Store struct {
	mu        sync.Mutex
	threshold float64
	records   map[string]*Record

	now func() time.Time
}

func NewStore(threshold float64) *Store {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Store{
		threshold: threshold,
		records:   make(map[string]*Record),
		now:       time.Now,
	}
}

// Enqueue records the latest sample for key. It returns true when the store
// changed and a durability write is needed.
//
// An existing record is only overwritten when the percentage moved by at
// least the materiality threshold; a suppressed call leaves the record,
// including its timestamp, untouched. Attempts always survive overwrites.
// A record still missing display context picks it up from any call that
// supplies one, even a suppressed one, so incomplete records can become
// deliverable without a material progress change.
func (s *Store) Enqueue(key string, sample Sample, parents ParentRefs, display Display) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		s.records[key] = &Record{
			Key:              key,
			Parents:          parents,
			Display:          display,
			Sample:           sample,
			EnqueuedAtMillis: s.now().UnixMilli(),
			Attempts:         0,
		}
		return true
	}

	delta := rec.Sample.Percentage - sample.Percentage
	if delta < 0 {
		delta = -delta
	}
	if delta < s.threshold {
		if !rec.Display.Complete() && display.Complete() {
			rec.Display = display
			rec.Parents = parents
			return true
		}
		return false
	}

	rec.Sample = sample
	rec.EnqueuedAtMillis = s.now().UnixMilli()
	if display.Complete() {
		rec.Display = display
		rec.Parents = parents
	}
	return true
}

// Snapshot returns a copy of every pending record. Order is not meaningful.
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	return out
}

// Remove deletes the named records, typically after successful delivery.
func (s *Store) Remove(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.records, k)
	}
}

// Fail increments the attempt counter for key; the maxAttempts-th failure
// evicts the record (terminal drop). It returns the new attempt count and
// whether the record was dropped. Unknown keys report (0, false).
func (s *Store) Fail(key string, maxAttempts int) (attempts int, evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return 0, false
	}
	rec.Attempts++
	if rec.Attempts >= maxAttempts {
		delete(s.records, key)
		return rec.Attempts, true
	}
	return rec.Attempts, false
}

// Replace swaps the store contents for the given records. Used once at
// startup to restore a persisted snapshot.
func (s *Store) Replace(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record, len(records))
	for i := range records {
		rec := records[i]
		if rec.Key == "" {
			continue
		}
		s.records[rec.Key] = &rec
	}
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// PendingContext counts records that cannot be delivered yet because their
// display context is incomplete.
func (s *Store) PendingContext() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.records {
		if !rec.Ready() {
			n++
		}
	}
	return n
}

// OldestEnqueuedAt returns the enqueue timestamp of the longest-pending
// record, or false when the store is empty.
func (s *Store) OldestEnqueuedAt() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return 0, false
	}
	oldest := int64(0)
	first := true
	for _, rec := range s.records {
		if first || rec.EnqueuedAtMillis < oldest {
			oldest = rec.EnqueuedAtMillis
			first = false
		}
	}
	return oldest, true
}
