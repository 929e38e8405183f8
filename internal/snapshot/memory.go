package snapshot

import (
	"context"
	"sync"

	"github.com/example/learning-platform/internal/progress"
)

// MemorySlot is a development-only in-memory slot.
// WARNING: not durable, state is lost on restart. It exists for tests and
// local development without storage configured.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Save(_ context.Context, records []progress.Record) error {
	if len(records) == 0 {
		return s.Clear(context.Background())
	}
	b, err := encode(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = b
	s.mu.Unlock()
	return nil
}

func (s *MemorySlot) Load(_ context.Context) ([]progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.data), nil
}

func (s *MemorySlot) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

// Empty reports whether the slot currently holds a snapshot. Test helper.
func (s *MemorySlot) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) == 0
}
