package clickhouse

import (
	"context"
	"fmt"

	"dog-scout/internal/storage"
)

// SnapshotSink implements storage.SnapshotSink using ClickHouse.
type SnapshotSink struct {
	conn *Conn
}

// NewSnapshotSink creates a new SnapshotSink.
func NewSnapshotSink(conn *Conn) *SnapshotSink {
	return &SnapshotSink{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotSink = (*SnapshotSink)(nil)

// Record appends one snapshot_scores row per evaluated snapshot in a single batch.
func (s *SnapshotSink) Record(ctx context.Context, rows []storage.SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO snapshot_scores (
			run_id, kind, evaluated_at, chain_id, pair_address, token_address, token_symbol,
			dex_id, liquidity_usd, volume_h24, txns_h1, price_change_h1, price_change_h24,
			passed_filters, liquidity_score, activity_score, momentum_score, rule_score,
			final_score, llm_score, llm_failed
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		p := r.Candidate.Pair
		sc := r.Candidate.Score
		err = batch.Append(
			r.RunID, r.Kind, uint64(r.EvaluatedAt),
			p.ChainID, p.PairAddress, p.BaseTokenAddress, p.BaseTokenSymbol, p.DexID,
			p.LiquidityUSD, p.VolumeH24, uint32(p.TxnsH1()), p.PriceChangeH1, p.PriceChangeH24,
			boolToUInt8(r.Candidate.Filter.Passed),
			sc.LiquidityScore, sc.ActivityScore, sc.MomentumScore, sc.RuleScore, sc.FinalScore,
			sc.LLMScore, boolToUInt8(sc.LLMFailed),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ScorePoint is one row read back from snapshot_scores.
type ScorePoint struct {
	RunID       string
	Kind        string
	EvaluatedAt int64
	FinalScore  float64
	Passed      bool
}

// ScoreHistory returns the recorded scores of a token, ordered by evaluated_at ASC.
func (s *SnapshotSink) ScoreHistory(ctx context.Context, chainID, tokenAddress string) ([]ScorePoint, error) {
	query := `
		SELECT run_id, kind, evaluated_at, final_score, passed_filters
		FROM snapshot_scores
		WHERE chain_id = ? AND token_address = ?
		ORDER BY evaluated_at ASC
	`

	rows, err := s.conn.Query(ctx, query, chainID, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	var result []ScorePoint
	for rows.Next() {
		var (
			p      ScorePoint
			at     uint64
			passed uint8
		)
		if err := rows.Scan(&p.RunID, &p.Kind, &at, &p.FinalScore, &passed); err != nil {
			return nil, fmt.Errorf("scan score point: %w", err)
		}
		p.EvaluatedAt = int64(at)
		p.Passed = passed == 1
		result = append(result, p)
	}
	return result, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
