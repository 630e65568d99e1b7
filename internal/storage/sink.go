package storage

import (
	"context"

	"dog-scout/internal/domain"
)

// Snapshot row kinds.
const (
	SnapshotKindScan    = "scan"
	SnapshotKindRecheck = "recheck"
)

// SnapshotRow is one evaluated snapshot as recorded for analytics.
type SnapshotRow struct {
	RunID       string
	Kind        string
	EvaluatedAt int64 // Unix timestamp in milliseconds
	Candidate   domain.Candidate
}

// SnapshotSink receives every evaluated snapshot of a cycle.
// Sinks are append-only and not read back by the pipeline.
type SnapshotSink interface {
	Record(ctx context.Context, rows []SnapshotRow) error
}
