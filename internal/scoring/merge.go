package scoring

import (
	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// MergeInput carries the analyzer result for one pair.
// Narrative is nil when the analyzer is disabled, absent or failed.
type MergeInput struct {
	Narrative      *domain.Narrative
	Provider       string
	Model          string
	AnalyzerFailed bool
}

// NormalizedWeights scales the weights to sum to 1.
// Negative weights count as zero; if nothing is left the rule score wins outright.
func NormalizedWeights(w config.Weights) config.Weights {
	rule := max(w.Rule, 0)
	llm := max(w.LLM, 0)
	total := rule + llm
	if total <= 0 {
		return config.Weights{Rule: 1, LLM: 0}
	}
	return config.Weights{Rule: rule / total, LLM: llm / total}
}

// Merge blends the rule score with the narrative score. It always returns a
// breakdown with FinalScore in [0, 100].
func Merge(rule domain.ScoreBreakdown, in MergeInput, w config.Weights) domain.ScoreBreakdown {
	ruleScore := round2(clamp(rule.RuleScore, 0, domain.MaxFinalScore))
	base := rule
	base.RuleScore = ruleScore

	if in.Narrative == nil {
		return base.WithoutNarrative(in.Provider, in.Model, in.AnalyzerFailed)
	}

	weights := NormalizedWeights(w)
	n := *in.Narrative
	n.Score = round2(clamp(n.Score, 0, domain.MaxFinalScore))
	n.Confidence = round2(clamp(n.Confidence, 0, 1))
	n.Provider = in.Provider
	n.Model = in.Model
	if len(n.Reasons) > maxReasons {
		n.Reasons = n.Reasons[:maxReasons]
	}

	merged := round2(clamp(ruleScore*weights.Rule+n.Score*weights.LLM, 0, domain.MaxFinalScore))
	return base.WithNarrative(merged, n)
}

const maxReasons = 5
