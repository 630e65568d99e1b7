package domain

// Component caps of the rule score.
const (
	MaxLiquidityScore = 40.0
	MaxActivityScore  = 35.0
	MaxMomentumScore  = 25.0
	MaxFinalScore     = 100.0
)

// ScoreBreakdown is the scored evaluation of one snapshot.
// Values are immutable once computed; the With* builders return copies.
type ScoreBreakdown struct {
	LiquidityScore float64 // 0..40
	ActivityScore  float64 // 0..35
	MomentumScore  float64 // 0..25
	FinalScore     float64 // 0..100
	RuleScore      float64 // rule-only score, equals FinalScore before merge

	LLMScore       *float64 // narrative score 0..100 (nullable)
	LLMConfidence  *float64 // 0..1 (nullable)
	LLMProvider    string
	LLMModel       string
	LLMRiskComment string
	LLMActionHint  string
	LLMReasons     []string
	LLMFailed      bool // analyzer was enabled but produced no opinion
}

// Narrative is the analyzer opinion folded into a breakdown.
type Narrative struct {
	Score       float64
	Confidence  float64
	Provider    string
	Model       string
	RiskComment string
	ActionHint  string
	Reasons     []string
}

// WithFinal returns a copy with a new final score.
func (s ScoreBreakdown) WithFinal(final float64) ScoreBreakdown {
	out := s.clone()
	out.FinalScore = final
	return out
}

// WithNarrative returns a copy carrying the analyzer opinion and final score.
func (s ScoreBreakdown) WithNarrative(final float64, n Narrative) ScoreBreakdown {
	out := s.clone()
	score, conf := n.Score, n.Confidence
	out.FinalScore = final
	out.LLMScore = &score
	out.LLMConfidence = &conf
	out.LLMProvider = n.Provider
	out.LLMModel = n.Model
	out.LLMRiskComment = n.RiskComment
	out.LLMActionHint = n.ActionHint
	out.LLMReasons = append([]string(nil), n.Reasons...)
	out.LLMFailed = false
	return out
}

// WithoutNarrative returns a rule-only copy with narrative fields cleared.
func (s ScoreBreakdown) WithoutNarrative(provider, model string, failed bool) ScoreBreakdown {
	out := s.clone()
	out.FinalScore = s.RuleScore
	out.LLMScore = nil
	out.LLMConfidence = nil
	out.LLMProvider = provider
	out.LLMModel = model
	out.LLMRiskComment = ""
	out.LLMActionHint = ""
	out.LLMReasons = nil
	out.LLMFailed = failed
	return out
}

func (s ScoreBreakdown) clone() ScoreBreakdown {
	out := s
	if s.LLMScore != nil {
		v := *s.LLMScore
		out.LLMScore = &v
	}
	if s.LLMConfidence != nil {
		v := *s.LLMConfidence
		out.LLMConfidence = &v
	}
	out.LLMReasons = append([]string(nil), s.LLMReasons...)
	return out
}
