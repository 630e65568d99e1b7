package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// RecheckJobStore implements storage.RecheckJobStore using PostgreSQL.
// Status swaps are single conditional UPDATEs, so concurrent processes
// sharing the database never both move a job out of the same status.
type RecheckJobStore struct {
	pool *Pool
}

// NewRecheckJobStore creates a new RecheckJobStore.
func NewRecheckJobStore(pool *Pool) *RecheckJobStore {
	return &RecheckJobStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RecheckJobStore = (*RecheckJobStore)(nil)

const jobColumns = `
	id, source_alert_id, source_signal_id, chain_id, pair_address, token_address, token_symbol,
	horizon_minutes, due_at, status, attempts, last_error, created_at, updated_at
`

// Enqueue inserts jobs whose (source_alert_id, horizon) is not yet present.
func (s *RecheckJobStore) Enqueue(ctx context.Context, jobs []*domain.RecheckJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	for _, j := range jobs {
		if j == nil || j.SourceAlertID == 0 || j.HorizonMinutes <= 0 {
			return 0, storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO recheck_jobs (
			source_alert_id, source_signal_id, chain_id, pair_address, token_address, token_symbol,
			horizon_minutes, due_at, status, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', 0, $9, $10)
		ON CONFLICT (source_alert_id, horizon_minutes) DO NOTHING
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, j := range jobs {
		tag, err := tx.Exec(ctx, query,
			j.SourceAlertID,
			j.SourceSignalID,
			j.ChainID,
			j.PairAddress,
			j.TokenAddress,
			j.TokenSymbol,
			j.HorizonMinutes,
			j.DueAt,
			j.CreatedAt,
			j.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return 0, fmt.Errorf("enqueue recheck job: alert %d: %w", j.SourceAlertID, storage.ErrNotFound)
			}
			return 0, fmt.Errorf("enqueue recheck job: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// ListDue returns pending jobs with due_at <= nowMs, ordered by due_at ASC.
func (s *RecheckJobStore) ListDue(ctx context.Context, nowMs int64, limit int) ([]*domain.RecheckJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM recheck_jobs
		WHERE status = 'pending' AND due_at <= $1
		ORDER BY due_at ASC, id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, nowMs, max(limit, 1))
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CompareAndSwapStatus moves a job from one status to another only if it is still in from.
func (s *RecheckJobStore) CompareAndSwapStatus(ctx context.Context, id int64, from, to domain.JobStatus, nowMs int64) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, storage.ErrInvalidTransition
	}

	query := `
		UPDATE recheck_jobs
		SET status = $3,
		    attempts = attempts + CASE WHEN $3 = 'running' THEN 1 ELSE 0 END,
		    updated_at = $4
		WHERE id = $1 AND status = $2
	`

	tag, err := s.pool.Exec(ctx, query, id, string(from), string(to), nowMs)
	if err != nil {
		return false, fmt.Errorf("swap job status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkDone completes a running job.
func (s *RecheckJobStore) MarkDone(ctx context.Context, id int64, nowMs int64) error {
	return s.finish(ctx, id, domain.JobDone, "", nowMs)
}

// MarkFailed fails a running job with a message.
func (s *RecheckJobStore) MarkFailed(ctx context.Context, id int64, errMsg string, nowMs int64) error {
	return s.finish(ctx, id, domain.JobFailed, errMsg, nowMs)
}

func (s *RecheckJobStore) finish(ctx context.Context, id int64, to domain.JobStatus, errMsg string, nowMs int64) error {
	query := `
		UPDATE recheck_jobs
		SET status = $2, last_error = $3, updated_at = $4
		WHERE id = $1 AND status = 'running'
	`

	tag, err := s.pool.Exec(ctx, query, id, string(to), errMsg, nowMs)
	if err != nil {
		return fmt.Errorf("finish job %d: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing job from one in the wrong state.
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return storage.ErrInvalidTransition
}

// GetByID retrieves a job. Returns ErrNotFound if not exists.
func (s *RecheckJobStore) GetByID(ctx context.Context, id int64) (*domain.RecheckJob, error) {
	query := `SELECT ` + jobColumns + ` FROM recheck_jobs WHERE id = $1`

	j, err := scanJob(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get job by id: %w", err)
	}
	return j, nil
}

// ListByStatus returns jobs in status ordered by due_at ASC.
func (s *RecheckJobStore) ListByStatus(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.RecheckJob, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT ` + jobColumns + `
		FROM recheck_jobs
		WHERE status = $1
		ORDER BY due_at ASC, id ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ListByAlert returns the jobs of one source alert ordered by horizon.
func (s *RecheckJobStore) ListByAlert(ctx context.Context, alertID int64) ([]*domain.RecheckJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM recheck_jobs
		WHERE source_alert_id = $1
		ORDER BY horizon_minutes ASC
	`

	rows, err := s.pool.Query(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by alert: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// scanJob scans a single row into a RecheckJob.
func scanJob(row pgx.Row) (*domain.RecheckJob, error) {
	var (
		j      domain.RecheckJob
		status string
	)
	err := row.Scan(
		&j.ID,
		&j.SourceAlertID,
		&j.SourceSignalID,
		&j.ChainID,
		&j.PairAddress,
		&j.TokenAddress,
		&j.TokenSymbol,
		&j.HorizonMinutes,
		&j.DueAt,
		&status,
		&j.Attempts,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = domain.JobStatus(status)
	return &j, nil
}

// scanJobs scans multiple rows into a slice of RecheckJob.
func scanJobs(rows pgx.Rows) ([]*domain.RecheckJob, error) {
	var result []*domain.RecheckJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, j)
	}
	return result, rows.Err()
}
