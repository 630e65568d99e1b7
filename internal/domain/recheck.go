package domain

import (
	"fmt"
	"strings"
)

// Horizons are the fixed recheck delays in minutes after an alert.
var Horizons = []int{5, 15}

// JobStatus is the lifecycle state of a recheck job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// CanTransition reports whether a job may move from one status to another.
// pending -> running -> done | failed; done and failed are terminal.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobPending:
		return to == JobRunning
	case JobRunning:
		return to == JobDone || to == JobFailed
	default:
		return false
	}
}

// RecheckJob is a scheduled follow-up evaluation of an alerted pair.
// Corresponds to recheck_jobs table; unique on (source_alert_id, horizon_minutes).
type RecheckJob struct {
	ID             int64
	SourceAlertID  int64
	SourceSignalID *int64 // nullable
	ChainID        string
	PairAddress    string
	TokenAddress   string
	TokenSymbol    string
	HorizonMinutes int
	DueAt          int64 // Unix timestamp in milliseconds
	Status         JobStatus
	Attempts       int
	LastError      string
	CreatedAt      int64
	UpdatedAt      int64
}

// RecheckStatus is the trend classification of a recheck.
type RecheckStatus string

const (
	RecheckImproving   RecheckStatus = "IMPROVING"
	RecheckWeakening   RecheckStatus = "WEAKENING"
	RecheckInvalidated RecheckStatus = "INVALIDATED"
)

// ScoreTimeline is the initial alert score plus the scores seen at each horizon.
type ScoreTimeline struct {
	Initial  float64
	Score5m  *float64
	Score15m *float64
}

// WithScore returns a copy with the slot for horizon set.
// Unknown horizons leave the timeline unchanged.
func (t ScoreTimeline) WithScore(horizon int, score float64) ScoreTimeline {
	out := t
	v := score
	switch horizon {
	case 5:
		out.Score5m = &v
	case 15:
		out.Score15m = &v
	}
	return out
}

// At returns the score recorded at horizon, if any.
func (t ScoreTimeline) At(horizon int) *float64 {
	switch horizon {
	case 5:
		return t.Score5m
	case 15:
		return t.Score15m
	}
	return nil
}

// SummaryLine renders "initial -> 5m -> 15m" with "--" for missing slots.
func (t ScoreTimeline) SummaryLine() string {
	parts := []string{fmt.Sprintf("%.2f", t.Initial), formatOptionalScore(t.Score5m), formatOptionalScore(t.Score15m)}
	return strings.Join(parts, " -> ")
}

func formatOptionalScore(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.2f", *v)
}

// RecheckResult is the persisted outcome of one processed recheck job.
// Corresponds to recheck_results table in PostgreSQL.
type RecheckResult struct {
	ID                int64
	JobID             int64
	SourceAlertID     int64
	SignalID          int64
	HorizonMinutes    int
	Status            RecheckStatus
	PassedFilters     bool
	Timeline          ScoreTimeline
	CurrentScore      float64
	RuleScore         float64
	LLMScore          *float64
	DeltaFromInitial  float64
	DeltaFromPrevious float64
	Message           string
	SummaryLine       string
	CreatedAt         int64 // Unix timestamp in milliseconds
}
