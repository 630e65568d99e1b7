package storage

import (
	"context"

	"dog-scout/internal/domain"
)

// PairRawStore provides access to pair_raw storage.
type PairRawStore interface {
	// Insert stores a snapshot verbatim and returns the assigned ID.
	Insert(ctx context.Context, r *domain.PairRaw) (int64, error)

	// GetByID retrieves a snapshot row. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.PairRaw, error)
}

// SignalStore provides access to signals storage.
type SignalStore interface {
	// Insert stores a scored evaluation and returns the assigned ID.
	Insert(ctx context.Context, s *domain.Signal) (int64, error)

	// GetByID retrieves a signal. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Signal, error)
}

// AlertStore provides access to alerts storage.
type AlertStore interface {
	// Insert stores an alert and returns the assigned ID.
	Insert(ctx context.Context, a *domain.Alert) (int64, error)

	// GetByID retrieves an alert. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Alert, error)

	// HasRecent reports whether an alert for tokenAddress OR pairAddress
	// was created at or after sinceMs.
	HasRecent(ctx context.Context, tokenAddress, pairAddress string, sinceMs int64) (bool, error)

	// ListRecent returns the newest alerts first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error)
}

// RecheckJobStore provides access to recheck_jobs storage.
// Rows are unique on (source_alert_id, horizon_minutes).
type RecheckJobStore interface {
	// Enqueue inserts jobs whose (source_alert_id, horizon) is not yet present
	// and silently skips the rest. Returns the number of rows inserted.
	Enqueue(ctx context.Context, jobs []*domain.RecheckJob) (int, error)

	// ListDue returns pending jobs with due_at <= nowMs, ordered by due_at ASC.
	ListDue(ctx context.Context, nowMs int64, limit int) ([]*domain.RecheckJob, error)

	// CompareAndSwapStatus moves a job from one status to another only if it is
	// still in from. Moving to running increments attempts. Returns false when
	// the job was not in from (another runner got there first).
	CompareAndSwapStatus(ctx context.Context, id int64, from, to domain.JobStatus, nowMs int64) (bool, error)

	// MarkDone completes a running job. Returns ErrInvalidTransition otherwise.
	MarkDone(ctx context.Context, id int64, nowMs int64) error

	// MarkFailed fails a running job with a message. Returns ErrInvalidTransition otherwise.
	MarkFailed(ctx context.Context, id int64, errMsg string, nowMs int64) error

	// GetByID retrieves a job. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.RecheckJob, error)

	// ListByStatus returns jobs in status ordered by due_at ASC.
	ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.RecheckJob, error)

	// ListByAlert returns the jobs of one source alert ordered by horizon.
	ListByAlert(ctx context.Context, alertID int64) ([]*domain.RecheckJob, error)
}

// RecheckResultStore provides access to recheck_results storage.
type RecheckResultStore interface {
	// Insert stores a processed recheck and returns the assigned ID.
	// Returns ErrDuplicateKey if the job already has a result.
	Insert(ctx context.Context, r *domain.RecheckResult) (int64, error)

	// GetPreviousScore returns the current score of the latest result for
	// alertID at a horizon strictly below horizon, or nil if there is none.
	GetPreviousScore(ctx context.Context, alertID int64, horizon int) (*float64, error)

	// ListByAlert returns all results of one alert ordered by horizon ASC.
	ListByAlert(ctx context.Context, alertID int64) ([]*domain.RecheckResult, error)
}

// Stores groups the record sets used by the pipeline.
type Stores struct {
	PairRaw PairRawStore
	Signals SignalStore
	Alerts  AlertStore
	Jobs    RecheckJobStore
	Results RecheckResultStore
}
