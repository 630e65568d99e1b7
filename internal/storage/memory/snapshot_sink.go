package memory

import (
	"context"
	"sync"

	"dog-scout/internal/storage"
)

// SnapshotSink is an in-memory implementation of storage.SnapshotSink.
type SnapshotSink struct {
	mu   sync.RWMutex
	rows []storage.SnapshotRow
}

// NewSnapshotSink creates a new in-memory snapshot sink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{}
}

// Compile-time interface check.
var _ storage.SnapshotSink = (*SnapshotSink)(nil)

// Record appends rows.
func (s *SnapshotSink) Record(_ context.Context, rows []storage.SnapshotRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, rows...)
	return nil
}

// Rows returns a copy of everything recorded so far.
func (s *SnapshotSink) Rows() []storage.SnapshotRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.SnapshotRow, len(s.rows))
	copy(out, s.rows)
	return out
}
