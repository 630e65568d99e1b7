// Package market defines the market data seams of the scanner.
package market

import (
	"context"
	"math"
	"sort"

	"dog-scout/internal/chain"
	"dog-scout/internal/domain"
)

// Source fetches pair snapshots. Implementations return an empty slice on
// failure and never surface errors to the caller.
type Source interface {
	FetchNewPairs(ctx context.Context, chainID string, maxTokens int) []domain.PairSnapshot
	FetchTokenPairs(ctx context.Context, chainID, tokenAddress string) []domain.PairSnapshot
}

// Refresher re-reads the market for a recheck job.
// ok is false when there is no data for the job's token.
type Refresher interface {
	RefreshPair(ctx context.Context, job *domain.RecheckJob) (pair domain.PairSnapshot, ok bool)
}

// NewestPair returns the pair with the latest creation time.
// Pairs without a creation time sort last; ties keep input order.
func NewestPair(pairs []domain.PairSnapshot) (domain.PairSnapshot, bool) {
	if len(pairs) == 0 {
		return domain.PairSnapshot{}, false
	}
	sorted := make([]domain.PairSnapshot, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return createdAt(sorted[i]) > createdAt(sorted[j])
	})
	return sorted[0], true
}

func createdAt(p domain.PairSnapshot) int64 {
	if p.PairCreatedAt == nil {
		return math.MinInt64
	}
	return *p.PairCreatedAt
}

// PickRecheckPair prefers pairs with the job's pair address and falls back
// to all pairs of the token; the newest wins. Addresses are compared in
// chainID's canonical form, so Solana matches stay case-sensitive.
func PickRecheckPair(pairs []domain.PairSnapshot, chainID, pairAddress string) (domain.PairSnapshot, bool) {
	var same []domain.PairSnapshot
	for _, p := range pairs {
		if chain.SameAddress(chainID, p.PairAddress, pairAddress) {
			same = append(same, p)
		}
	}
	if len(same) > 0 {
		return NewestPair(same)
	}
	return NewestPair(pairs)
}

// SourceRefresher refreshes jobs through a Source.
type SourceRefresher struct {
	Source Source
}

// Compile-time interface check.
var _ Refresher = SourceRefresher{}

// RefreshPair implements Refresher.
func (r SourceRefresher) RefreshPair(ctx context.Context, job *domain.RecheckJob) (domain.PairSnapshot, bool) {
	return PickRecheckPair(r.Source.FetchTokenPairs(ctx, job.ChainID, job.TokenAddress), job.ChainID, job.PairAddress)
}
