package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func rules() config.Rules {
	return config.Default().Rules
}

func TestScore_StrongPair(t *testing.T) {
	pair := domain.PairSnapshot{
		LiquidityUSD:   120000,
		TxnsH1Buys:     64,
		TxnsH1Sells:    39,
		PriceChangeH1:  ptr(18.0),
		PriceChangeH24: ptr(47.0),
	}

	got := Score(pair, rules())

	assert.Equal(t, 40.0, got.LiquidityScore)
	assert.Equal(t, 35.0, got.ActivityScore)
	assert.Equal(t, 22.0, got.MomentumScore)
	assert.Equal(t, 97.0, got.FinalScore)
	assert.Equal(t, got.FinalScore, got.RuleScore)
}

func TestScore_BlowoffPair(t *testing.T) {
	pair := domain.PairSnapshot{
		LiquidityUSD:   34000,
		TxnsH1Buys:     31,
		TxnsH1Sells:    27,
		PriceChangeH1:  ptr(82.0),
		PriceChangeH24: ptr(89.0),
	}

	got := Score(pair, rules())

	assert.Equal(t, 17.0, got.LiquidityScore)
	assert.Equal(t, 20.3, got.ActivityScore)
	assert.Equal(t, 1.0, got.MomentumScore)
	assert.Equal(t, 38.3, got.FinalScore)
}

func TestScore_NegativeCountersIgnored(t *testing.T) {
	pair := domain.PairSnapshot{LiquidityUSD: -5, TxnsH1Buys: -10, TxnsH1Sells: 50}

	got := Score(pair, rules())

	assert.Equal(t, 0.0, got.LiquidityScore)
	assert.Equal(t, 17.5, got.ActivityScore)
	assert.Equal(t, 12.0, got.MomentumScore)
}

func TestScore_ZeroTargetsDoNotDivideByZero(t *testing.T) {
	r := rules()
	r.MinLiquidityUSD = 0
	r.TxnTargetH1 = 0

	got := Score(domain.PairSnapshot{LiquidityUSD: 0.5, TxnsH1Buys: 1}, r)

	assert.Equal(t, 20.0, got.LiquidityScore)
	assert.Equal(t, 35.0, got.ActivityScore)
}

func TestMomentum_Buckets(t *testing.T) {
	tests := []struct {
		name    string
		h1, h24 *float64
		want    float64
	}{
		{"missing", nil, nil, 12},
		{"crash", ptr(-61.0), nil, 1.5},
		{"flat", ptr(12.0), nil, 25},
		{"flat negative", ptr(-12.0), nil, 25},
		{"moderate", ptr(-25.0), nil, 22},
		{"strong", ptr(45.0), nil, 17},
		{"hot", ptr(80.0), nil, 12},
		{"too hot", ptr(80.1), nil, 4},
		{"deep drop", ptr(-60.0), nil, 12},
		{"blowoff penalty", ptr(24.0), ptr(25.0), 19},
		{"no penalty small move", ptr(20.0), ptr(20.0), 22},
		{"no penalty spread over day", ptr(30.0), ptr(60.0), 17},
		{"no penalty falling day", ptr(30.0), ptr(-5.0), 17},
		{"penalty on runaway move", ptr(100.0), ptr(100.0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Momentum(tt.h1, tt.h24, 80))
		})
	}
}

func TestScore_AlwaysBounded(t *testing.T) {
	values := []float64{-1e12, -100, -1, 0, 0.5, 1, 99, 1e6, 1e15}
	for _, liq := range values {
		for _, change := range values {
			for _, txns := range []int{-1000, 0, 3, 100000} {
				pair := domain.PairSnapshot{
					LiquidityUSD:   liq,
					TxnsH1Buys:     txns,
					TxnsH1Sells:    txns,
					PriceChangeH1:  ptr(change),
					PriceChangeH24: ptr(change / 2),
				}
				got := Score(pair, rules())
				require.GreaterOrEqual(t, got.FinalScore, 0.0)
				require.LessOrEqual(t, got.FinalScore, 100.0)
				require.LessOrEqual(t, got.LiquidityScore, 40.0)
				require.LessOrEqual(t, got.ActivityScore, 35.0)
				require.LessOrEqual(t, got.MomentumScore, 25.0)
			}
		}
	}
}

func TestMerge_NoNarrativeKeepsRuleScore(t *testing.T) {
	rule := domain.ScoreBreakdown{FinalScore: 80, RuleScore: 80}

	got := Merge(rule, MergeInput{Provider: "deepseek", Model: "deepseek-chat"}, config.Weights{Rule: 0.7, LLM: 0.3})

	assert.Equal(t, 80.0, got.FinalScore)
	assert.Equal(t, 80.0, got.RuleScore)
	assert.Nil(t, got.LLMScore)
	assert.Nil(t, got.LLMConfidence)
	assert.Empty(t, got.LLMReasons)
	assert.Empty(t, got.LLMRiskComment)
	assert.False(t, got.LLMFailed)
	assert.Equal(t, "deepseek", got.LLMProvider)
}

func TestMerge_FailedAnalyzerFlagged(t *testing.T) {
	rule := domain.ScoreBreakdown{FinalScore: 64.5, RuleScore: 64.5}

	got := Merge(rule, MergeInput{AnalyzerFailed: true}, config.Weights{Rule: 0.7, LLM: 0.3})

	assert.Equal(t, 64.5, got.FinalScore)
	assert.True(t, got.LLMFailed)
}

func TestMerge_WeightedBlend(t *testing.T) {
	rule := domain.ScoreBreakdown{FinalScore: 80, RuleScore: 80}
	n := &domain.Narrative{
		Score:       50,
		Confidence:  0.66,
		RiskComment: "thin liquidity",
		ActionHint:  "watch",
		Reasons:     []string{"r1", "r2", "r3", "r4", "r5", "r6"},
	}

	got := Merge(rule, MergeInput{Narrative: n, Provider: "mock", Model: "mock-v1"}, config.Weights{Rule: 0.7, LLM: 0.3})

	assert.InDelta(t, 71.0, got.FinalScore, 1e-9)
	assert.Equal(t, 80.0, got.RuleScore)
	require.NotNil(t, got.LLMScore)
	assert.Equal(t, 50.0, *got.LLMScore)
	assert.Equal(t, 0.66, *got.LLMConfidence)
	assert.Equal(t, "mock", got.LLMProvider)
	assert.Equal(t, "mock-v1", got.LLMModel)
	assert.Equal(t, "thin liquidity", got.LLMRiskComment)
	assert.Len(t, got.LLMReasons, 5)
	assert.False(t, got.LLMFailed)
	assert.Equal(t, 80.0, rule.FinalScore, "input breakdown must not change")
}

func TestMerge_WeightsNormalized(t *testing.T) {
	rule := domain.ScoreBreakdown{FinalScore: 80, RuleScore: 80}
	n := &domain.Narrative{Score: 40}

	got := Merge(rule, MergeInput{Narrative: n}, config.Weights{Rule: 3, LLM: 1})
	assert.Equal(t, 70.0, got.FinalScore)

	got = Merge(rule, MergeInput{Narrative: n}, config.Weights{Rule: -1, LLM: -1})
	assert.Equal(t, 80.0, got.FinalScore)

	got = Merge(rule, MergeInput{Narrative: n}, config.Weights{Rule: -1, LLM: 2})
	assert.Equal(t, 40.0, got.FinalScore)
}

func TestMerge_AlwaysBounded(t *testing.T) {
	extremes := []float64{-1e9, -1, 0, 50, 100, 101, 1e9, math.NaN()}
	for _, r := range extremes {
		for _, n := range extremes {
			got := Merge(domain.ScoreBreakdown{RuleScore: r, FinalScore: r}, MergeInput{Narrative: &domain.Narrative{Score: n, Confidence: n}}, config.Weights{Rule: 0.7, LLM: 0.3})
			require.GreaterOrEqual(t, got.FinalScore, 0.0)
			require.LessOrEqual(t, got.FinalScore, 100.0)
			require.GreaterOrEqual(t, *got.LLMConfidence, 0.0)
			require.LessOrEqual(t, *got.LLMConfidence, 1.0)
		}
	}
}

func TestNormalizedWeights(t *testing.T) {
	assert.Equal(t, config.Weights{Rule: 1, LLM: 0}, NormalizedWeights(config.Weights{}))
	w := NormalizedWeights(config.Weights{Rule: 0.7, LLM: 0.3})
	assert.InDelta(t, 1.0, w.Rule+w.LLM, 1e-12)
}
