// Package memory is an in-process mirror used in tests and when running
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kaffee/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.ConsumptionRow
}

func New() *Store {
	return &Store{}
}

// AppendEntry stores the row and returns a synthetic row reference.
func (s *Store) AppendEntry(_ context.Context, row core.ConsumptionRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, row)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// RemoveEntry drops the stored row with the given entry id. Unknown ids are
// ignored, matching the forgiving behavior of the real mirror.
func (s *Store) RemoveEntry(_ context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, row := range s.items {
		if row.EntryID != entryID {
			kept = append(kept, row)
		}
	}
	s.items = kept
	return nil
}

// Entries returns a copy of the mirrored rows.
func (s *Store) Entries() []core.ConsumptionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ConsumptionRow(nil), s.items...)
}
