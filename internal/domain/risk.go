package domain

// Risk flags that block a candidate in the hard filter.
const (
	RiskFlagHoneypot   = "honeypot"
	RiskFlagDenylisted = "denylisted_token"
)

// RiskAssessment is the risk provider's view of one token for one cycle.
type RiskAssessment struct {
	IsHoneypot         bool              // provider marked the token as honeypot
	Flags              []string          // free-form risk flags
	Holders            *int              // holder count (nullable)
	Top10Concentration *float64          // share of supply held by top 10 wallets, 0..1 (nullable)
	Metadata           map[string]string // provider metadata
}

// HasFlag reports whether flag is present.
func (r RiskAssessment) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// FilterOutcome is the result of the hard filter gate.
// Skipped checks never cause failure by themselves.
type FilterOutcome struct {
	Passed        bool
	Reasons       []string
	SkippedChecks []string
}

// NewFilterOutcome builds an outcome; Passed is derived from reasons.
func NewFilterOutcome(reasons, skipped []string) FilterOutcome {
	return FilterOutcome{
		Passed:        len(reasons) == 0,
		Reasons:       append([]string(nil), reasons...),
		SkippedChecks: append([]string(nil), skipped...),
	}
}
