// Package recheck holds the trend classification applied when a scheduled
// follow-up re-scores an alerted pair.
package recheck

import (
	"math"
	"unicode/utf8"

	"dog-scout/internal/domain"
)

// TrendThreshold is the score move, in points, that counts as a trend.
const TrendThreshold = 2.0

// MaxErrorLen caps the error message stored on a failed job.
const MaxErrorLen = 500

// Classify labels the current score against the earlier ones.
// A candidate that no longer passes the hard filter is INVALIDATED regardless of score.
func Classify(passedFilters bool, initial float64, previous *float64, current float64) domain.RecheckStatus {
	if !passedFilters {
		return domain.RecheckInvalidated
	}
	reference := initial
	if previous != nil {
		reference = *previous
	}
	delta := current - reference
	switch {
	case delta >= TrendThreshold:
		return domain.RecheckImproving
	case delta <= -TrendThreshold:
		return domain.RecheckWeakening
	case current >= initial:
		return domain.RecheckImproving
	default:
		return domain.RecheckWeakening
	}
}

// Deltas are the score moves reported in a recheck summary.
type Deltas struct {
	FromInitial  float64
	FromPrevious float64
}

// ComputeDeltas measures current against the initial score and against the
// previous horizon, falling back to the initial score when there is none.
func ComputeDeltas(initial float64, previous *float64, current float64) Deltas {
	base := initial
	if previous != nil {
		base = *previous
	}
	return Deltas{
		FromInitial:  round2(current - initial),
		FromPrevious: round2(current - base),
	}
}

// TruncateError shortens msg to MaxErrorLen bytes without splitting a rune.
func TruncateError(msg string) string {
	if len(msg) <= MaxErrorLen {
		return msg
	}
	cut := MaxErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
