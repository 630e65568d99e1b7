// Package analyzer provides the optional narrative opinion blended into the rule score.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// ErrAnalyzer marks every analyzer failure. Callers treat it as
// "no narrative opinion this cycle".
var ErrAnalyzer = errors.New("analyzer error")

// Analyzer returns a narrative opinion on one candidate.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (Output, error)
	Provider() string
	Model() string
}

// Input describes the candidate under analysis.
type Input struct {
	ChainID        string
	TokenAddress   string
	TokenSymbol    string
	PairAddress    string
	DexID          string
	RuleScore      float64
	LiquidityUSD   float64
	TxnsH1         int
	PriceChangeH1  *float64
	PriceChangeH24 *float64
	VolumeH24      float64
	RiskFlags      []string
	MarketSnapshot string
}

// NewInput builds the analyzer input for a scored pair.
func NewInput(pair domain.PairSnapshot, risk domain.RiskAssessment, ruleScore float64) Input {
	return Input{
		ChainID:        pair.ChainID,
		TokenAddress:   pair.BaseTokenAddress,
		TokenSymbol:    pair.BaseTokenSymbol,
		PairAddress:    pair.PairAddress,
		DexID:          pair.DexID,
		RuleScore:      ruleScore,
		LiquidityUSD:   pair.LiquidityUSD,
		TxnsH1:         pair.TxnsH1(),
		PriceChangeH1:  pair.PriceChangeH1,
		PriceChangeH24: pair.PriceChangeH24,
		VolumeH24:      pair.VolumeH24,
		RiskFlags:      append([]string(nil), risk.Flags...),
		MarketSnapshot: BuildMarketSnapshot(pair),
	}
}

// Output is a normalised narrative opinion.
type Output struct {
	NarrativeScore float64 // 0..100
	RiskComment    string
	ActionHint     string
	Confidence     float64 // 0..1
	Reasons        []string
}

// Narrative converts the output into the score breakdown's narrative fields.
func (o Output) Narrative() domain.Narrative {
	return domain.Narrative{
		Score:       o.NarrativeScore,
		Confidence:  o.Confidence,
		RiskComment: o.RiskComment,
		ActionHint:  o.ActionHint,
		Reasons:     append([]string(nil), o.Reasons...),
	}
}

// BuildMarketSnapshot renders the one-line market summary sent to the analyzer.
func BuildMarketSnapshot(pair domain.PairSnapshot) string {
	return fmt.Sprintf("DEX=%s; liquidity=$%s; volume24h=$%s; txns_h1=%d; change_h1=%s; change_h24=%s",
		pair.DexID,
		thousands(pair.LiquidityUSD),
		thousands(pair.VolumeH24),
		pair.TxnsH1(),
		percentOrNA(pair.PriceChangeH1),
		percentOrNA(pair.PriceChangeH24),
	)
}

func percentOrNA(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// thousands formats v rounded to an integer with comma separators.
func thousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// NewFromConfig builds the configured analyzer. It returns (nil, nil) when the
// analyzer is disabled and an error wrapping ErrAnalyzer when it is enabled
// but cannot be constructed.
func NewFromConfig(cfg config.LLM) (Analyzer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderMock:
		return NewMock(), nil
	case ProviderDeepSeek, "openai":
		ds, err := NewDeepSeek(cfg)
		if err != nil {
			return nil, err
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrAnalyzer, cfg.Provider)
	}
}
