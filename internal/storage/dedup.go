package storage

import (
	"context"
	"time"
)

// Dedup answers cooldown lookups from the alert store.
type Dedup struct {
	Alerts AlertStore
	Now    func() time.Time
}

// NewDedup creates a Dedup using the wall clock.
func NewDedup(alerts AlertStore) *Dedup {
	return &Dedup{Alerts: alerts, Now: time.Now}
}

// HasRecentAlert reports whether tokenAddress or pairAddress was alerted within cooldown.
func (d *Dedup) HasRecentAlert(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration) (bool, error) {
	since := d.Now().Add(-cooldown).UnixMilli()
	return d.Alerts.HasRecent(ctx, tokenAddress, pairAddress, since)
}
