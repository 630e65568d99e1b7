// Package selector ranks passing candidates and applies the alert cooldown.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dog-scout/internal/domain"
)

// DedupStore answers whether a token or pair was alerted within the cooldown.
// A match on either address counts.
type DedupStore interface {
	HasRecentAlert(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration) (bool, error)
}

// Select returns up to topN candidates by FinalScore descending, stable on ties.
// Candidates in cooldown are skipped without consuming a slot. A failed dedup
// lookup skips that candidate; lookup errors are returned joined alongside
// the selection.
func Select(ctx context.Context, candidates []domain.Candidate, topN int, cooldown time.Duration, dedup DedupStore) ([]domain.Candidate, error) {
	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score.FinalScore > sorted[j].Score.FinalScore
	})

	var (
		selected []domain.Candidate
		errs     []error
	)
	for _, c := range sorted {
		if len(selected) >= topN {
			break
		}
		recent, err := dedup.HasRecentAlert(ctx, c.Pair.BaseTokenAddress, c.Pair.PairAddress, cooldown)
		if err != nil {
			errs = append(errs, fmt.Errorf("dedup lookup %s: %w", c.Pair.PairAddress, err))
			continue
		}
		if recent {
			continue
		}
		selected = append(selected, c)
	}
	return selected, errors.Join(errs...)
}
