package memory

import (
	"context"
	"sync"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// PairRawStore is an in-memory implementation of storage.PairRawStore.
type PairRawStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.PairRaw
}

// NewPairRawStore creates a new in-memory pair_raw store.
func NewPairRawStore() *PairRawStore {
	return &PairRawStore{
		data: make(map[int64]*domain.PairRaw),
	}
}

// Compile-time interface check.
var _ storage.PairRawStore = (*PairRawStore)(nil)

// Insert stores a snapshot verbatim and returns the assigned ID.
func (s *PairRawStore) Insert(_ context.Context, r *domain.PairRaw) (int64, error) {
	if r == nil || r.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rowCopy := *r
	rowCopy.ID = s.nextID
	rowCopy.Snapshot = r.Snapshot.Clone()
	s.data[rowCopy.ID] = &rowCopy
	return rowCopy.ID, nil
}

// GetByID retrieves a snapshot row. Returns ErrNotFound if not exists.
func (s *PairRawStore) GetByID(_ context.Context, id int64) (*domain.PairRaw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	rowCopy := *r
	rowCopy.Snapshot = r.Snapshot.Clone()
	return &rowCopy, nil
}
