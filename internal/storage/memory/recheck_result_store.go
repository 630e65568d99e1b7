package memory

import (
	"context"
	"sort"
	"sync"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// RecheckResultStore is an in-memory implementation of storage.RecheckResultStore.
type RecheckResultStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.RecheckResult
}

// NewRecheckResultStore creates a new in-memory recheck result store.
func NewRecheckResultStore() *RecheckResultStore {
	return &RecheckResultStore{}
}

// Compile-time interface check.
var _ storage.RecheckResultStore = (*RecheckResultStore)(nil)

// Insert stores a processed recheck and returns the assigned ID.
func (s *RecheckResultStore) Insert(_ context.Context, r *domain.RecheckResult) (int64, error) {
	if r == nil || r.SourceAlertID == 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.JobID != 0 {
		for _, existing := range s.data {
			if existing.JobID == r.JobID {
				return 0, storage.ErrDuplicateKey
			}
		}
	}

	s.nextID++
	resultCopy := *r
	resultCopy.ID = s.nextID
	s.data = append(s.data, &resultCopy)
	return resultCopy.ID, nil
}

// GetPreviousScore returns the latest result score below horizon, or nil.
func (s *RecheckResultStore) GetPreviousScore(_ context.Context, alertID int64, horizon int) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.RecheckResult
	for _, r := range s.data {
		if r.SourceAlertID != alertID || r.HorizonMinutes >= horizon {
			continue
		}
		if best == nil || r.HorizonMinutes > best.HorizonMinutes ||
			(r.HorizonMinutes == best.HorizonMinutes && r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	score := best.CurrentScore
	return &score, nil
}

// ListByAlert returns all results of one alert ordered by horizon ASC.
func (s *RecheckResultStore) ListByAlert(_ context.Context, alertID int64) ([]*domain.RecheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RecheckResult
	for _, r := range s.data {
		if r.SourceAlertID == alertID {
			resultCopy := *r
			result = append(result, &resultCopy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].HorizonMinutes < result[j].HorizonMinutes
	})
	return result, nil
}
