package notify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dog-scout/internal/domain"
	"dog-scout/internal/recheck"
)

// Action hint thresholds on the final score.
const (
	HighPriorityScore   = 85.0
	MediumPriorityScore = 65.0
)

// FormatAlert renders the initial alert for the rank-th selected candidate.
func FormatAlert(rank int, c domain.Candidate) string {
	pair := c.Pair
	score := c.Score
	timeline := domain.ScoreTimeline{Initial: score.FinalScore}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Dog Scout Top%d | score %.2f/100\n", rank, score.FinalScore)
	fmt.Fprintf(&b, "token: %s (%s)\n", pair.BaseTokenSymbol, pair.BaseTokenAddress)
	fmt.Fprintf(&b, "pair: %s | DEX: %s\n", pair.PairAddress, pair.DexID)
	fmt.Fprintf(&b, "liquidity: $%s | 1h txns: %d\n", usd(pair.LiquidityUSD), pair.TxnsH1())
	fmt.Fprintf(&b, "1h move: %s | 24h volume: $%s\n", percent(pair.PriceChangeH1), usd(pair.VolumeH24))
	b.WriteString(TimelineLine(timeline) + "\n")
	b.WriteString("risk flags: " + riskFlags(c.Risk) + "\n")
	b.WriteString("action: " + ActionHint(score.FinalScore) + "\n")
	b.WriteString("link: " + PairLink(pair))
	return b.String()
}

// FormatRecheck renders the follow-up summary for a rechecked alert.
func FormatRecheck(c domain.Candidate, status domain.RecheckStatus, timeline domain.ScoreTimeline, d recheck.Deltas) string {
	pair := c.Pair

	var b strings.Builder
	fmt.Fprintf(&b, "🔁 Recheck | %s | %s\n", pair.BaseTokenSymbol, status)
	fmt.Fprintf(&b, "score: %.2f/100 (vs initial %+.2f, vs previous %+.2f)\n",
		c.Score.FinalScore, d.FromInitial, d.FromPrevious)
	b.WriteString(TimelineLine(timeline) + "\n")
	b.WriteString("risk flags: " + riskFlags(c.Risk) + "\n")
	b.WriteString("link: " + PairLink(pair))
	return b.String()
}

// TimelineLine renders "initial -> 5m -> 15m: a -> b -> c".
func TimelineLine(t domain.ScoreTimeline) string {
	return "initial -> 5m -> 15m: " + t.SummaryLine()
}

// ActionHint maps a final score to the operator suggestion.
func ActionHint(final float64) string {
	switch {
	case final >= HighPriorityScore:
		return "high priority: add to watchlist, wait for pullback or volume confirmation"
	case final >= MediumPriorityScore:
		return "medium priority: keep watching, do not chase"
	default:
		return "low priority: record only, no entry"
	}
}

// PairLink is the public chart URL of a pair.
func PairLink(p domain.PairSnapshot) string {
	return fmt.Sprintf("https://dexscreener.com/%s/%s", p.ChainID, p.PairAddress)
}

func riskFlags(r domain.RiskAssessment) string {
	if len(r.Flags) == 0 {
		return "none"
	}
	return strings.Join(r.Flags, ", ")
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// usd formats a dollar amount rounded to whole units with comma separators.
func usd(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
