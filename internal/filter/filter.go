// Package filter implements the hard pass/fail gate applied before scoring.
package filter

import (
	"fmt"

	"dog-scout/internal/config"
	"dog-scout/internal/domain"
)

// Skipped check identifiers.
const (
	SkipHoldersUnavailable = "holders_unavailable"
	SkipTop10Unavailable   = "top10_concentration_unavailable"
)

// ReasonRiskProviderBlock is recorded for honeypot or denylisted tokens.
const ReasonRiskProviderBlock = "risk_provider_block"

// Apply evaluates pair and risk against the configured thresholds.
// Unknown holder count or concentration is recorded as skipped, never as a failure.
func Apply(pair domain.PairSnapshot, risk domain.RiskAssessment, rules config.Rules) domain.FilterOutcome {
	var reasons, skipped []string

	if pair.LiquidityUSD < rules.MinLiquidityUSD {
		reasons = append(reasons, fmt.Sprintf("liquidity_below_threshold:%.2f<%.2f", pair.LiquidityUSD, rules.MinLiquidityUSD))
	}

	switch {
	case risk.Holders == nil:
		skipped = append(skipped, SkipHoldersUnavailable)
	case *risk.Holders < rules.MinHolders:
		reasons = append(reasons, fmt.Sprintf("holders_below_threshold:%d<%d", *risk.Holders, rules.MinHolders))
	}

	switch {
	case risk.Top10Concentration == nil:
		skipped = append(skipped, SkipTop10Unavailable)
	case *risk.Top10Concentration > rules.MaxTop10Concentration:
		reasons = append(reasons, fmt.Sprintf("top10_concentration_above_threshold:%.4f>%.4f", *risk.Top10Concentration, rules.MaxTop10Concentration))
	}

	if risk.IsHoneypot || risk.HasFlag(domain.RiskFlagHoneypot) || risk.HasFlag(domain.RiskFlagDenylisted) {
		reasons = append(reasons, ReasonRiskProviderBlock)
	}

	return domain.NewFilterOutcome(reasons, skipped)
}
