package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// RecheckResultStore implements storage.RecheckResultStore using PostgreSQL.
type RecheckResultStore struct {
	pool *Pool
}

// NewRecheckResultStore creates a new RecheckResultStore.
func NewRecheckResultStore(pool *Pool) *RecheckResultStore {
	return &RecheckResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RecheckResultStore = (*RecheckResultStore)(nil)

// Insert stores a processed recheck and returns the assigned ID.
// A job has at most one result; a second insert returns ErrDuplicateKey.
func (s *RecheckResultStore) Insert(ctx context.Context, r *domain.RecheckResult) (int64, error) {
	if r == nil || r.JobID == 0 || r.SourceAlertID == 0 {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO recheck_results (
			job_id, source_alert_id, signal_id, horizon_minutes, status, passed_filters,
			initial_score, score_5m, score_15m, current_score, rule_score, llm_score,
			delta_from_initial, delta_from_previous, message, summary_line, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		r.JobID,
		r.SourceAlertID,
		nullableID(r.SignalID),
		r.HorizonMinutes,
		string(r.Status),
		r.PassedFilters,
		r.Timeline.Initial,
		r.Timeline.Score5m,
		r.Timeline.Score15m,
		r.CurrentScore,
		r.RuleScore,
		r.LLMScore,
		r.DeltaFromInitial,
		r.DeltaFromPrevious,
		r.Message,
		r.SummaryLine,
		r.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, fmt.Errorf("insert recheck result for job %d: %w", r.JobID, storage.ErrDuplicateKey)
		}
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("insert recheck result: %w", storage.ErrNotFound)
		}
		return 0, fmt.Errorf("insert recheck result: %w", err)
	}
	return id, nil
}

// GetPreviousScore returns the score of the latest result below horizon, or nil.
func (s *RecheckResultStore) GetPreviousScore(ctx context.Context, alertID int64, horizon int) (*float64, error) {
	query := `
		SELECT current_score FROM recheck_results
		WHERE source_alert_id = $1 AND horizon_minutes < $2
		ORDER BY horizon_minutes DESC, id DESC
		LIMIT 1
	`

	var score float64
	err := s.pool.QueryRow(ctx, query, alertID, horizon).Scan(&score)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get previous score: %w", err)
	}
	return &score, nil
}

// ListByAlert returns all results of one alert ordered by horizon ASC.
func (s *RecheckResultStore) ListByAlert(ctx context.Context, alertID int64) ([]*domain.RecheckResult, error) {
	query := `
		SELECT id, job_id, source_alert_id, signal_id, horizon_minutes, status, passed_filters,
		       initial_score, score_5m, score_15m, current_score, rule_score, llm_score,
		       delta_from_initial, delta_from_previous, message, summary_line, created_at
		FROM recheck_results
		WHERE source_alert_id = $1
		ORDER BY horizon_minutes ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("list recheck results: %w", err)
	}
	defer rows.Close()

	var result []*domain.RecheckResult
	for rows.Next() {
		r, err := scanRecheckResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recheck result: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanRecheckResult(row pgx.Row) (*domain.RecheckResult, error) {
	var (
		r        domain.RecheckResult
		signalID *int64
		status   string
	)
	err := row.Scan(
		&r.ID,
		&r.JobID,
		&r.SourceAlertID,
		&signalID,
		&r.HorizonMinutes,
		&status,
		&r.PassedFilters,
		&r.Timeline.Initial,
		&r.Timeline.Score5m,
		&r.Timeline.Score15m,
		&r.CurrentScore,
		&r.RuleScore,
		&r.LLMScore,
		&r.DeltaFromInitial,
		&r.DeltaFromPrevious,
		&r.Message,
		&r.SummaryLine,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.RecheckStatus(status)
	if signalID != nil {
		r.SignalID = *signalID
	}
	return &r, nil
}
