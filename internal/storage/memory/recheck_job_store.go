package memory

import (
	"context"
	"sort"
	"sync"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

type jobKey struct {
	alertID int64
	horizon int
}

// RecheckJobStore is an in-memory implementation of storage.RecheckJobStore.
// Status swaps happen under the store mutex, which makes them atomic across
// goroutines sharing the store.
type RecheckJobStore struct {
	mu     sync.Mutex
	nextID int64
	data   map[int64]*domain.RecheckJob
	keys   map[jobKey]int64
}

// NewRecheckJobStore creates a new in-memory recheck job store.
func NewRecheckJobStore() *RecheckJobStore {
	return &RecheckJobStore{
		data: make(map[int64]*domain.RecheckJob),
		keys: make(map[jobKey]int64),
	}
}

// Compile-time interface check.
var _ storage.RecheckJobStore = (*RecheckJobStore)(nil)

// Enqueue inserts jobs whose (source_alert_id, horizon) is not yet present.
func (s *RecheckJobStore) Enqueue(_ context.Context, jobs []*domain.RecheckJob) (int, error) {
	for _, j := range jobs {
		if j == nil || j.SourceAlertID == 0 || j.HorizonMinutes <= 0 {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, j := range jobs {
		k := jobKey{j.SourceAlertID, j.HorizonMinutes}
		if _, exists := s.keys[k]; exists {
			continue
		}
		s.nextID++
		jobCopy := *j
		jobCopy.ID = s.nextID
		jobCopy.Status = domain.JobPending
		jobCopy.Attempts = 0
		s.data[jobCopy.ID] = &jobCopy
		s.keys[k] = jobCopy.ID
		inserted++
	}
	return inserted, nil
}

// ListDue returns pending jobs with due_at <= nowMs, ordered by due_at ASC.
func (s *RecheckJobStore) ListDue(_ context.Context, nowMs int64, limit int) ([]*domain.RecheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.RecheckJob
	for _, j := range s.data {
		if j.Status == domain.JobPending && j.DueAt <= nowMs {
			jobCopy := *j
			result = append(result, &jobCopy)
		}
	}
	sortJobsByDue(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CompareAndSwapStatus moves a job from one status to another only if it is still in from.
func (s *RecheckJobStore) CompareAndSwapStatus(_ context.Context, id int64, from, to domain.JobStatus, nowMs int64) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, storage.ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.data[id]
	if !exists || j.Status != from {
		return false, nil
	}
	j.Status = to
	if to == domain.JobRunning {
		j.Attempts++
	}
	j.UpdatedAt = nowMs
	return true, nil
}

// MarkDone completes a running job.
func (s *RecheckJobStore) MarkDone(_ context.Context, id int64, nowMs int64) error {
	return s.finish(id, domain.JobDone, "", nowMs)
}

// MarkFailed fails a running job with a message.
func (s *RecheckJobStore) MarkFailed(_ context.Context, id int64, errMsg string, nowMs int64) error {
	return s.finish(id, domain.JobFailed, errMsg, nowMs)
}

func (s *RecheckJobStore) finish(id int64, to domain.JobStatus, errMsg string, nowMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if j.Status != domain.JobRunning {
		return storage.ErrInvalidTransition
	}
	j.Status = to
	j.LastError = errMsg
	j.UpdatedAt = nowMs
	return nil
}

// GetByID retrieves a job. Returns ErrNotFound if not exists.
func (s *RecheckJobStore) GetByID(_ context.Context, id int64) (*domain.RecheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	jobCopy := *j
	return &jobCopy, nil
}

// ListByStatus returns jobs in status ordered by due_at ASC.
func (s *RecheckJobStore) ListByStatus(_ context.Context, status domain.JobStatus, limit int) ([]*domain.RecheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.RecheckJob
	for _, j := range s.data {
		if j.Status == status {
			jobCopy := *j
			result = append(result, &jobCopy)
		}
	}
	sortJobsByDue(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByAlert returns the jobs of one source alert ordered by horizon.
func (s *RecheckJobStore) ListByAlert(_ context.Context, alertID int64) ([]*domain.RecheckJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.RecheckJob
	for _, j := range s.data {
		if j.SourceAlertID == alertID {
			jobCopy := *j
			result = append(result, &jobCopy)
		}
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].HorizonMinutes < result[k].HorizonMinutes
	})
	return result, nil
}

func sortJobsByDue(jobs []*domain.RecheckJob) {
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].DueAt != jobs[k].DueAt {
			return jobs[i].DueAt < jobs[k].DueAt
		}
		return jobs[i].ID < jobs[k].ID
	})
}
