package postgres

import (
	"context"
	"fmt"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// PairRawStore implements storage.PairRawStore using PostgreSQL.
type PairRawStore struct {
	pool *Pool
}

// NewPairRawStore creates a new PairRawStore.
func NewPairRawStore(pool *Pool) *PairRawStore {
	return &PairRawStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairRawStore = (*PairRawStore)(nil)

// Insert stores a snapshot verbatim and returns the assigned ID.
func (s *PairRawStore) Insert(ctx context.Context, r *domain.PairRaw) (int64, error) {
	if r == nil || r.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	payload, err := encodeSnapshot(r.Snapshot)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO pair_raw (chain_id, pair_address, token_address, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err = s.pool.QueryRow(ctx, query,
		r.ChainID,
		r.PairAddress,
		r.TokenAddress,
		payload,
		r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pair raw: %w", err)
	}
	return id, nil
}

// GetByID retrieves a snapshot row. Returns ErrNotFound if not exists.
func (s *PairRawStore) GetByID(ctx context.Context, id int64) (*domain.PairRaw, error) {
	query := `
		SELECT id, chain_id, pair_address, token_address, payload, created_at
		FROM pair_raw
		WHERE id = $1
	`

	var (
		r       domain.PairRaw
		payload []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID,
		&r.ChainID,
		&r.PairAddress,
		&r.TokenAddress,
		&payload,
		&r.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair raw by id: %w", err)
	}

	r.Snapshot, err = decodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	return &r, nil
}
