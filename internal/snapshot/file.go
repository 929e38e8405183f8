package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/example/learning-platform/internal/progress"
)

// FileSlot stores the snapshot as a single JSON file. Writes go through a
// temp file and rename so a crash mid-write never leaves a torn snapshot.
type FileSlot struct {
	path string
}

func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

func (s *FileSlot) Save(_ context.Context, records []progress.Record) error {
	if len(records) == 0 {
		return s.Clear(context.Background())
	}
	b, err := encode(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileSlot) Load(_ context.Context) ([]progress.Record, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return decode(b), nil
}

func (s *FileSlot) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
