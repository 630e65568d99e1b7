package memory

import (
	"context"
	"sync"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.Signal
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[int64]*domain.Signal),
	}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert stores a scored evaluation and returns the assigned ID.
func (s *SignalStore) Insert(_ context.Context, sig *domain.Signal) (int64, error) {
	if sig == nil || sig.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	signalCopy := *sig
	signalCopy.ID = s.nextID
	s.data[signalCopy.ID] = &signalCopy
	return signalCopy.ID, nil
}

// GetByID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, id int64) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	signalCopy := *sig
	return &signalCopy, nil
}
