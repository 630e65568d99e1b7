package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"dog-scout/internal/domain"
	"dog-scout/internal/notify"
	"dog-scout/internal/observability"
	"dog-scout/internal/recheck"
	"dog-scout/internal/storage"
)

// processDueRechecks claims due jobs and runs each one. A job either ends
// done or failed; failed jobs are not retried.
func (p *Pipeline) processDueRechecks(ctx context.Context, log logrus.FieldLogger, runID string) ([]string, int) {
	errCount := 0
	jobs, err := storage.ClaimDue(ctx, p.stores.Jobs, p.clock(), p.cfg.RecheckBatchSize)
	if err != nil {
		// jobs already claimed before the failure are still processed
		log.WithError(err).Error("claim due recheck jobs")
		errCount++
	}

	var messages []string
	for _, job := range jobs {
		jlog := log.WithFields(logrus.Fields{
			"job_id":  job.ID,
			"horizon": job.HorizonMinutes,
			"token":   job.TokenAddress,
		})

		msg, runErr := p.runRecheck(ctx, runID, job)
		nowMs := p.clock().UnixMilli()
		if runErr != nil {
			jlog.WithError(runErr).Error("recheck job failed")
			observability.RecordRecheckJob(string(domain.JobFailed))
			if err := p.stores.Jobs.MarkFailed(ctx, job.ID, recheck.TruncateError(runErr.Error()), nowMs); err != nil {
				jlog.WithError(err).Error("mark recheck job failed")
				errCount++
			}
			continue
		}

		if err := p.stores.Jobs.MarkDone(ctx, job.ID, nowMs); err != nil {
			jlog.WithError(err).Error("mark recheck job done")
			errCount++
		}
		observability.RecordRecheckJob(string(domain.JobDone))
		messages = append(messages, msg)
	}
	return messages, errCount
}

// runRecheck re-evaluates the job's pair and reports the score drift since the alert.
func (p *Pipeline) runRecheck(ctx context.Context, runID string, job *domain.RecheckJob) (string, error) {
	pair, ok := p.refresher.RefreshPair(ctx, job)
	if !ok {
		return "", fmt.Errorf("no market data for recheck job %d", job.ID)
	}

	c, err := p.evaluate(ctx, pair)
	if err != nil {
		return "", err
	}
	p.recordSnapshots(ctx, p.log, []storage.SnapshotRow{
		p.snapshotRow(runID, storage.SnapshotKindRecheck, c),
	})

	initial, err := storage.AlertScore(ctx, p.stores.Alerts, job.SourceAlertID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("missing source alert %d: %w", job.SourceAlertID, err)
	}
	if err != nil {
		return "", fmt.Errorf("get source alert %d: %w", job.SourceAlertID, err)
	}

	previous, err := p.stores.Results.GetPreviousScore(ctx, job.SourceAlertID, job.HorizonMinutes)
	if err != nil {
		return "", fmt.Errorf("get previous score: %w", err)
	}

	current := c.Score.FinalScore
	status := recheck.Classify(c.Filter.Passed, initial, previous, current)

	timeline, err := storage.TimelineForAlert(ctx, p.stores.Alerts, p.stores.Results, job.SourceAlertID)
	if err != nil {
		return "", fmt.Errorf("build timeline: %w", err)
	}
	timeline = timeline.WithScore(job.HorizonMinutes, current)
	deltas := recheck.ComputeDeltas(initial, previous, current)

	msg := notify.FormatRecheck(c, status, timeline, deltas)
	sent := p.send(ctx, msg)

	now := p.clock()
	a := domain.NewAlert(domain.AlertKindRecheck, c, msg, sent.Status, sent.Sent, p.cfg.DryRun).
		WithSource(job.SourceAlertID)
	a.CreatedAt = now.UnixMilli()
	if _, err := p.stores.Alerts.Insert(ctx, a); err != nil {
		return "", fmt.Errorf("insert recheck alert: %w", err)
	}
	observability.RecordAlert(string(domain.AlertKindRecheck), sent.Status)
	p.markAlerted(ctx, c)

	result := &domain.RecheckResult{
		JobID:             job.ID,
		SourceAlertID:     job.SourceAlertID,
		SignalID:          c.SignalID,
		HorizonMinutes:    job.HorizonMinutes,
		Status:            status,
		PassedFilters:     c.Filter.Passed,
		Timeline:          timeline,
		CurrentScore:      current,
		RuleScore:         c.Score.RuleScore,
		LLMScore:          c.Score.LLMScore,
		DeltaFromInitial:  deltas.FromInitial,
		DeltaFromPrevious: deltas.FromPrevious,
		Message:           msg,
		SummaryLine:       timeline.SummaryLine(),
		CreatedAt:         now.UnixMilli(),
	}
	if _, err := p.stores.Results.Insert(ctx, result); err != nil {
		return "", fmt.Errorf("insert recheck result: %w", err)
	}
	observability.RecordRecheckStatus(string(status))
	return msg, nil
}
