package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

const alertColumns = `
	id, kind, source_alert_id, signal_id, chain_id, pair_address, token_address, token_symbol,
	final_score, rule_score, message, status, sent, dry_run, created_at
`

// Insert stores an alert and returns the assigned ID.
func (s *AlertStore) Insert(ctx context.Context, a *domain.Alert) (int64, error) {
	if a == nil || (a.TokenAddress == "" && a.PairAddress == "") {
		return 0, storage.ErrInvalidInput
	}

	kind := a.Kind
	if kind == "" {
		kind = domain.AlertKindInitial
	}

	query := `
		INSERT INTO alerts (
			kind, source_alert_id, signal_id, chain_id, pair_address, token_address, token_symbol,
			final_score, rule_score, message, status, sent, dry_run, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		string(kind),
		a.SourceAlertID,
		nullableID(a.SignalID),
		a.ChainID,
		a.PairAddress,
		a.TokenAddress,
		a.TokenSymbol,
		a.FinalScore,
		a.RuleScore,
		a.Message,
		a.Status,
		a.Sent,
		a.DryRun,
		a.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("insert alert: %w", storage.ErrNotFound)
		}
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

// GetByID retrieves an alert. Returns ErrNotFound if not exists.
func (s *AlertStore) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	a, err := scanAlert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by id: %w", err)
	}
	return a, nil
}

// HasRecent reports whether tokenAddress OR pairAddress was alerted at or after sinceMs.
func (s *AlertStore) HasRecent(ctx context.Context, tokenAddress, pairAddress string, sinceMs int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE ((token_address = $1 AND $1 <> '') OR (pair_address = $2 AND $2 <> ''))
			  AND created_at >= $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, tokenAddress, pairAddress, sinceMs).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent alert: %w", err)
	}
	return exists, nil
}

// ListRecent returns the newest alerts first.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// scanAlert scans a single row into an Alert.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a        domain.Alert
		kind     string
		signalID *int64
	)
	err := row.Scan(
		&a.ID,
		&kind,
		&a.SourceAlertID,
		&signalID,
		&a.ChainID,
		&a.PairAddress,
		&a.TokenAddress,
		&a.TokenSymbol,
		&a.FinalScore,
		&a.RuleScore,
		&a.Message,
		&a.Status,
		&a.Sent,
		&a.DryRun,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.AlertKind(kind)
	if signalID != nil {
		a.SignalID = *signalID
	}
	return &a, nil
}
