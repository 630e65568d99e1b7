// Package scoring computes the deterministic rule score of a pair snapshot
// and folds an optional narrative opinion into it.
package scoring

import (
	"math"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// Momentum constants.
const (
	neutralMomentum   = 12.0
	blowoffPenalty    = 3.0
	blowoffMinH1      = 20.0
	blowoffShareOfDay = 0.8
)

// Score returns the rule-only breakdown of pair. RuleScore equals FinalScore.
func Score(pair domain.PairSnapshot, rules config.Rules) domain.ScoreBreakdown {
	liquidityTarget := math.Max(rules.MinLiquidityUSD*4, 1)
	liquidity := clamp(pair.LiquidityUSD/liquidityTarget*domain.MaxLiquidityScore, 0, domain.MaxLiquidityScore)

	txnTarget := float64(max(rules.TxnTargetH1, 1))
	activity := clamp(float64(pair.TxnsH1())/txnTarget*domain.MaxActivityScore, 0, domain.MaxActivityScore)

	momentum := Momentum(pair.PriceChangeH1, pair.PriceChangeH24, rules.MomentumBlowoff)

	final := round2(clamp(liquidity+activity+momentum, 0, domain.MaxFinalScore))
	return domain.ScoreBreakdown{
		LiquidityScore: round2(liquidity),
		ActivityScore:  round2(activity),
		MomentumScore:  round2(momentum),
		FinalScore:     final,
		RuleScore:      final,
	}
}

// Momentum buckets the 1h price change into 0..25.
// A move that is almost all of the day's positive move is penalised as a blow-off.
func Momentum(changeH1, changeH24 *float64, blowoffThreshold float64) float64 {
	if changeH1 == nil || math.IsNaN(*changeH1) {
		return neutralMomentum
	}
	change := *changeH1
	abs := math.Abs(change)

	var score float64
	switch {
	case change < -60:
		score = 1.5
	case abs <= 12:
		score = 25
	case abs <= 25:
		score = 22
	case abs <= 45:
		score = 17
	case abs <= blowoffThreshold:
		score = 12
	default:
		score = 4
	}

	if changeH24 != nil {
		day := *changeH24
		if change > blowoffMinH1 && day > 0 && change >= blowoffShareOfDay*day {
			score -= blowoffPenalty
		}
	}
	return clamp(score, 0, domain.MaxMomentumScore)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
