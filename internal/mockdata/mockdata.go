// Package mockdata serves a fixed set of pairs for offline runs.
package mockdata

import (
	"context"
	"math"
	"strings"
	"time"

	"dog-scout/internal/domain"
	"dog-scout/internal/market"
)

// Source is a deterministic market.Source and market.Refresher.
//
// Rechecks drift the base pairs by horizon: tokens ending in "a" or "d"
// improve, tokens ending in "c" or "f" collapse from the 15 minute horizon
// on, and all others weaken.
type Source struct {
	minLiquidityUSD float64
	now             func() time.Time
}

// NewSource creates a Source. minLiquidityUSD caps the collapsed liquidity
// below the filter threshold.
func NewSource(minLiquidityUSD float64, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{minLiquidityUSD: minLiquidityUSD, now: now}
}

// Compile-time interface checks.
var (
	_ market.Source    = (*Source)(nil)
	_ market.Refresher = (*Source)(nil)
)

type seed struct {
	pair, token, symbol, dex, quote string
	price, liquidity, volume        float64
	buys, sells                     int
	h1, h24                         float64
}

var seeds = []seed{
	{"0xpairA", "0xtokenA", "DOGA", "uniswap", "WETH", 0.00042, 120000, 350000, 64, 39, 18, 47},
	{"0xpairB", "0xtokenB", "DOGB", "aerodrome", "USDC", 0.0018, 81000, 162000, 45, 41, 9, 21},
	{"0xpairC", "0xtokenC", "DOGC", "uniswap", "WETH", 0.00009, 34000, 98000, 31, 27, 82, 89},
	{"0xpairD", "0xtokenD", "DOGD", "sushiswap", "WETH", 0.00014, 26000, 62000, 14, 12, -8, 4},
	{"0xpairE", "0xtokenE", "DOGE2", "aerodrome", "USDC", 0.00073, 53000, 91000, 26, 23, 28, 44},
	{"0xpairF", "0xtokenF", "DOGF", "uniswap", "WETH", 0.00003, 15000, 40000, 19, 17, 11, 19},
}

// Pairs returns the base pairs on chainID, all created now.
func (s *Source) Pairs(chainID string) []domain.PairSnapshot {
	created := s.now().UnixMilli()
	out := make([]domain.PairSnapshot, 0, len(seeds))
	for _, sd := range seeds {
		h1, h24, at := sd.h1, sd.h24, created
		out = append(out, domain.PairSnapshot{
			ChainID:          chainID,
			PairAddress:      sd.pair,
			DexID:            sd.dex,
			BaseTokenAddress: sd.token,
			BaseTokenSymbol:  sd.symbol,
			QuoteTokenSymbol: sd.quote,
			PriceUSD:         sd.price,
			LiquidityUSD:     sd.liquidity,
			VolumeH24:        sd.volume,
			TxnsH1Buys:       sd.buys,
			TxnsH1Sells:      sd.sells,
			PriceChangeH1:    &h1,
			PriceChangeH24:   &h24,
			PairCreatedAt:    &at,
			Raw:              map[string]any{"source": "mock"},
		})
	}
	return out
}

// FetchNewPairs implements market.Source. maxTokens caps the result.
func (s *Source) FetchNewPairs(_ context.Context, chainID string, maxTokens int) []domain.PairSnapshot {
	pairs := s.Pairs(chainID)
	if maxTokens > 0 && len(pairs) > maxTokens {
		pairs = pairs[:maxTokens]
	}
	return pairs
}

// FetchTokenPairs implements market.Source.
func (s *Source) FetchTokenPairs(_ context.Context, chainID, tokenAddress string) []domain.PairSnapshot {
	if p, ok := s.base(chainID, tokenAddress); ok {
		return []domain.PairSnapshot{p}
	}
	return nil
}

func (s *Source) base(chainID, tokenAddress string) (domain.PairSnapshot, bool) {
	for _, p := range s.Pairs(chainID) {
		if strings.EqualFold(p.BaseTokenAddress, tokenAddress) {
			return p, true
		}
	}
	return domain.PairSnapshot{}, false
}

// RefreshPair implements market.Refresher with horizon-dependent drift.
func (s *Source) RefreshPair(_ context.Context, job *domain.RecheckJob) (domain.PairSnapshot, bool) {
	base, ok := s.base(job.ChainID, job.TokenAddress)
	if !ok {
		return domain.PairSnapshot{}, false
	}

	token := strings.ToLower(job.TokenAddress)
	suffix := token[len(token)-1]
	steps := float64(job.HorizonMinutes / 5)
	h1 := 0.0
	if base.PriceChangeH1 != nil {
		h1 = *base.PriceChangeH1
	}

	p := base.Clone()
	switch {
	case suffix == 'a' || suffix == 'd':
		mult := 1 + 0.06*steps
		p.LiquidityUSD = round2(base.LiquidityUSD * (1 + 0.08*steps))
		p.TxnsH1Buys = int(float64(base.TxnsH1Buys) * mult)
		p.TxnsH1Sells = int(float64(base.TxnsH1Sells) * mult)
		h1 += 2 * steps
	case (suffix == 'c' || suffix == 'f') && job.HorizonMinutes >= 15:
		p.LiquidityUSD = math.Min(base.LiquidityUSD*0.35, s.minLiquidityUSD*0.4)
		p.TxnsH1Buys = int(float64(base.TxnsH1Buys) * 0.55)
		p.TxnsH1Sells = int(float64(base.TxnsH1Sells) * 0.55)
		h1 = -72
	default:
		p.LiquidityUSD = round2(base.LiquidityUSD * (1 - 0.07*steps))
		p.TxnsH1Buys = int(float64(base.TxnsH1Buys) * (1 - 0.11*steps))
		p.TxnsH1Sells = int(float64(base.TxnsH1Sells) * (1 - 0.11*steps))
		h1 -= 3 * steps
	}
	p.PriceChangeH1 = &h1
	p.Raw["mock_recheck_minutes"] = job.HorizonMinutes
	return p, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
