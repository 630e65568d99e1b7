package analyzer

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Provider names.
const (
	ProviderMock     = "mock"
	ProviderDeepSeek = "deepseek"
)

const mockModel = "mock-v1"

// Mock is a deterministic analyzer for dry runs and tests.
// Its opinion is a small seed-derived adjustment of the rule score.
type Mock struct{}

// NewMock creates a Mock analyzer.
func NewMock() *Mock {
	return &Mock{}
}

// Compile-time interface check.
var _ Analyzer = (*Mock)(nil)

// Provider implements Analyzer.
func (*Mock) Provider() string { return ProviderMock }

// Model implements Analyzer.
func (*Mock) Model() string { return mockModel }

// Analyze implements Analyzer.
func (*Mock) Analyze(_ context.Context, in Input) (Output, error) {
	h1 := 0
	if in.PriceChangeH1 != nil {
		h1 = int(*in.PriceChangeH1)
	}
	seed := int(in.RuleScore*100) + in.TxnsH1/8 + h1 + len(in.TokenAddress) + len(in.RiskFlags)*7

	adjustment := float64(floorMod(seed, 13) - 6)
	score := clamp(in.RuleScore+adjustment, 0, 100)
	confidence := clamp(0.52+float64(floorMod(seed, 38))/100, 0, 1)

	comment := "few risk flags"
	if len(in.RiskFlags) > 0 {
		comment = "several risk flags, watch liquidity changes"
	}

	var hint string
	switch {
	case score >= 80:
		hint = "keep tracking, wait for volume confirmation"
	case score >= 60:
		hint = "watch cautiously, do not chase"
	default:
		hint = "avoid for now, wait for structure to improve"
	}

	h1Text := "n/a"
	if in.PriceChangeH1 != nil {
		h1Text = strconv.FormatFloat(*in.PriceChangeH1, 'f', -1, 64)
	}

	return Output{
		NarrativeScore: round2(score),
		RiskComment:    comment,
		ActionHint:     hint,
		Confidence:     round2(confidence),
		Reasons: []string{
			fmt.Sprintf("mock_seed=%d", seed),
			fmt.Sprintf("txns_h1=%d", in.TxnsH1),
			"h1_change=" + h1Text,
		},
	}, nil
}

// floorMod is a modulo whose result takes the sign of m.
func floorMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
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
