package storage

import (
	"context"
	"fmt"

	"dog-scout/internal/domain"
)

// AlertScore returns the final score an alert was sent with.
func AlertScore(ctx context.Context, alerts AlertStore, alertID int64) (float64, error) {
	a, err := alerts.GetByID(ctx, alertID)
	if err != nil {
		return 0, err
	}
	return a.FinalScore, nil
}

// TimelineForAlert rebuilds the score timeline of an alert from its recheck results.
// Returns ErrNotFound if the alert does not exist.
func TimelineForAlert(ctx context.Context, alerts AlertStore, results RecheckResultStore, alertID int64) (domain.ScoreTimeline, error) {
	initial, err := AlertScore(ctx, alerts, alertID)
	if err != nil {
		return domain.ScoreTimeline{}, err
	}

	rows, err := results.ListByAlert(ctx, alertID)
	if err != nil {
		return domain.ScoreTimeline{}, fmt.Errorf("list recheck results: %w", err)
	}

	tl := domain.ScoreTimeline{Initial: initial}
	for _, r := range rows {
		tl = tl.WithScore(r.HorizonMinutes, r.CurrentScore)
	}
	return tl, nil
}
