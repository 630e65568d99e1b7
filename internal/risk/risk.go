// Package risk provides token risk assessment for the hard filter.
package risk

import (
	"context"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// Assessor produces a risk assessment for one token.
type Assessor interface {
	Assess(ctx context.Context, tokenAddress, chainID string) (domain.RiskAssessment, error)
}

// DenylistAssessor flags tokens on the configured denylist as honeypots.
// It has no holder or concentration data, so those filter checks are skipped.
type DenylistAssessor struct {
	rules config.Rules
}

// NewDenylistAssessor creates a DenylistAssessor.
func NewDenylistAssessor(rules config.Rules) *DenylistAssessor {
	return &DenylistAssessor{rules: rules}
}

// Compile-time interface check.
var _ Assessor = (*DenylistAssessor)(nil)

// Assess implements Assessor.
func (a *DenylistAssessor) Assess(_ context.Context, tokenAddress, chainID string) (domain.RiskAssessment, error) {
	out := domain.RiskAssessment{
		Flags:    []string{},
		Metadata: map[string]string{"provider": "denylist", "chain_id": chainID},
	}
	if a.rules.IsDenylisted(tokenAddress) {
		out.Flags = append(out.Flags, domain.RiskFlagDenylisted)
		out.IsHoneypot = true
	}
	return out, nil
}

// Unavailable is the assessment used when the provider fails: no flags and
// no holder data, so only liquidity can fail the filter.
func Unavailable(chainID string, err error) domain.RiskAssessment {
	return domain.RiskAssessment{
		Flags:    []string{},
		Metadata: map[string]string{"provider": "unavailable", "chain_id": chainID, "error": err.Error()},
	}
}
