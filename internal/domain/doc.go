// Package domain holds the value types shared across the scanner:
// pair snapshots, risk and filter outcomes, score breakdowns, alerts
// and the recheck job queue records.
package domain
