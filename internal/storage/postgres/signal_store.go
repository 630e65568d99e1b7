package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"dog-scout/internal/domain"
	"dog-scout/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert stores a scored evaluation and returns the assigned ID.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.Signal) (int64, error) {
	if sig == nil || sig.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	reasons, err := encodeStrings(sig.Filter.Reasons)
	if err != nil {
		return 0, fmt.Errorf("encode filter reasons: %w", err)
	}
	skipped, err := encodeStrings(sig.Filter.SkippedChecks)
	if err != nil {
		return 0, fmt.Errorf("encode skipped checks: %w", err)
	}
	risk, err := encodeRisk(sig.Risk)
	if err != nil {
		return 0, fmt.Errorf("encode risk: %w", err)
	}
	llmReasons, err := encodeStrings(sig.Score.LLMReasons)
	if err != nil {
		return 0, fmt.Errorf("encode llm reasons: %w", err)
	}

	query := `
		INSERT INTO signals (
			pair_raw_id, chain_id, pair_address, token_address, token_symbol,
			passed_filters, filter_reasons, skipped_checks, risk,
			liquidity_score, activity_score, momentum_score, final_score, rule_score,
			llm_score, llm_confidence, llm_provider, llm_model, llm_risk_comment,
			llm_action_hint, llm_reasons, llm_failed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`

	var id int64
	err = s.pool.QueryRow(ctx, query,
		sig.PairRawID,
		sig.ChainID,
		sig.PairAddress,
		sig.TokenAddress,
		sig.TokenSymbol,
		sig.Filter.Passed,
		reasons,
		skipped,
		risk,
		sig.Score.LiquidityScore,
		sig.Score.ActivityScore,
		sig.Score.MomentumScore,
		sig.Score.FinalScore,
		sig.Score.RuleScore,
		sig.Score.LLMScore,
		sig.Score.LLMConfidence,
		sig.Score.LLMProvider,
		sig.Score.LLMModel,
		sig.Score.LLMRiskComment,
		sig.Score.LLMActionHint,
		llmReasons,
		sig.Score.LLMFailed,
		sig.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("insert signal: pair_raw %d: %w", sig.PairRawID, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("insert signal: %w", err)
	}
	return id, nil
}

// GetByID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, id int64) (*domain.Signal, error) {
	query := `
		SELECT id, pair_raw_id, chain_id, pair_address, token_address, token_symbol,
			passed_filters, filter_reasons, skipped_checks, risk,
			liquidity_score, activity_score, momentum_score, final_score, rule_score,
			llm_score, llm_confidence, llm_provider, llm_model, llm_risk_comment,
			llm_action_hint, llm_reasons, llm_failed, created_at
		FROM signals
		WHERE id = $1
	`

	var (
		sig                         domain.Signal
		reasons, skipped, risk, llm []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&sig.ID,
		&sig.PairRawID,
		&sig.ChainID,
		&sig.PairAddress,
		&sig.TokenAddress,
		&sig.TokenSymbol,
		&sig.Filter.Passed,
		&reasons,
		&skipped,
		&risk,
		&sig.Score.LiquidityScore,
		&sig.Score.ActivityScore,
		&sig.Score.MomentumScore,
		&sig.Score.FinalScore,
		&sig.Score.RuleScore,
		&sig.Score.LLMScore,
		&sig.Score.LLMConfidence,
		&sig.Score.LLMProvider,
		&sig.Score.LLMModel,
		&sig.Score.LLMRiskComment,
		&sig.Score.LLMActionHint,
		&llm,
		&sig.Score.LLMFailed,
		&sig.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}

	if err := json.Unmarshal(reasons, &sig.Filter.Reasons); err != nil {
		return nil, fmt.Errorf("decode filter reasons: %w", err)
	}
	if err := json.Unmarshal(skipped, &sig.Filter.SkippedChecks); err != nil {
		return nil, fmt.Errorf("decode skipped checks: %w", err)
	}
	if err := json.Unmarshal(llm, &sig.Score.LLMReasons); err != nil {
		return nil, fmt.Errorf("decode llm reasons: %w", err)
	}
	if sig.Risk, err = decodeRisk(risk); err != nil {
		return nil, fmt.Errorf("decode risk: %w", err)
	}
	return &sig, nil
}
