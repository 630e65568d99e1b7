package memory

import (
	"context"
	"sort"
	"sync"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.Alert
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[int64]*domain.Alert),
	}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Insert stores an alert and returns the assigned ID.
func (s *AlertStore) Insert(_ context.Context, a *domain.Alert) (int64, error) {
	if a == nil || (a.TokenAddress == "" && a.PairAddress == "") {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	alertCopy := *a
	alertCopy.ID = s.nextID
	s.data[alertCopy.ID] = &alertCopy
	return alertCopy.ID, nil
}

// GetByID retrieves an alert. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(_ context.Context, id int64) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	alertCopy := *a
	return &alertCopy, nil
}

// HasRecent reports whether tokenAddress OR pairAddress was alerted at or after sinceMs.
func (s *AlertStore) HasRecent(_ context.Context, tokenAddress, pairAddress string, sinceMs int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data {
		if a.CreatedAt < sinceMs {
			continue
		}
		if (tokenAddress != "" && a.TokenAddress == tokenAddress) || (pairAddress != "" && a.PairAddress == pairAddress) {
			return true, nil
		}
	}
	return false, nil
}

// ListRecent returns the newest alerts first.
func (s *AlertStore) ListRecent(_ context.Context, limit int) ([]*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Alert, 0, len(s.data))
	for _, a := range s.data {
		alertCopy := *a
		result = append(result, &alertCopy)
	}

	// Sort by created_at DESC, id DESC
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
