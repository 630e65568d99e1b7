package storage

import (
	"context"
	"fmt"
	"time"

	"dog-scout/internal/domain"
)

// JobQueue is the part of RecheckJobStore the claim protocol needs.
type JobQueue interface {
	ListDue(ctx context.Context, nowMs int64, limit int) ([]*domain.RecheckJob, error)
	CompareAndSwapStatus(ctx context.Context, id int64, from, to domain.JobStatus, nowMs int64) (bool, error)
}

// ClaimDue claims up to limit due jobs for this runner.
//
// Each due job is moved pending -> running with a compare-and-swap; a job
// whose swap does not apply was claimed by a concurrent runner and is left
// out of the batch. The returned jobs reflect the claimed state.
func ClaimDue(ctx context.Context, q JobQueue, now time.Time, limit int) ([]*domain.RecheckJob, error) {
	nowMs := now.UnixMilli()
	due, err := q.ListDue(ctx, nowMs, max(limit, 1))
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	claimed := make([]*domain.RecheckJob, 0, len(due))
	for _, job := range due {
		ok, err := q.CompareAndSwapStatus(ctx, job.ID, domain.JobPending, domain.JobRunning, nowMs)
		if err != nil {
			return claimed, fmt.Errorf("claim job %d: %w", job.ID, err)
		}
		if !ok {
			continue
		}
		j := *job
		j.Status = domain.JobRunning
		j.Attempts++
		j.UpdatedAt = nowMs
		claimed = append(claimed, &j)
	}
	return claimed, nil
}

// NewJobs builds one pending job per horizon for a freshly created alert.
func NewJobs(alertID int64, c domain.Candidate, horizons []int, now time.Time) []*domain.RecheckJob {
	jobs := make([]*domain.RecheckJob, 0, len(horizons))
	for _, h := range horizons {
		var signalID *int64
		if c.SignalID != 0 {
			id := c.SignalID
			signalID = &id
		}
		jobs = append(jobs, &domain.RecheckJob{
			SourceAlertID:  alertID,
			SourceSignalID: signalID,
			ChainID:        c.Pair.ChainID,
			PairAddress:    c.Pair.PairAddress,
			TokenAddress:   c.Pair.BaseTokenAddress,
			TokenSymbol:    c.Pair.BaseTokenSymbol,
			HorizonMinutes: h,
			DueAt:          now.Add(time.Duration(h) * time.Minute).UnixMilli(),
			Status:         domain.JobPending,
			CreatedAt:      now.UnixMilli(),
			UpdatedAt:      now.UnixMilli(),
		})
	}
	return jobs
}
