package domain

// PairSnapshot is a point-in-time market reading of one DEX pair.
// Persisted verbatim as a pair_raw row; never mutated after fetch.
type PairSnapshot struct {
	ChainID           string         // chain slug, e.g. "base", "solana"
	PairAddress       string         // pool / pair contract address
	DexID             string         // exchange id, e.g. "uniswap"
	BaseTokenAddress  string         // scanned token
	BaseTokenSymbol   string         // scanned token symbol
	QuoteTokenAddress string         // quote side (WETH, USDC, ...)
	QuoteTokenSymbol  string         // quote side symbol
	PriceUSD          float64        // base token price in USD
	LiquidityUSD      float64        // pool liquidity in USD
	VolumeH24         float64        // 24h volume in USD
	TxnsH1Buys        int            // buy count over the last hour
	TxnsH1Sells       int            // sell count over the last hour
	PriceChangeH1     *float64       // percent, nullable
	PriceChangeH24    *float64       // percent, nullable
	PairCreatedAt     *int64         // Unix timestamp in milliseconds (nullable)
	Raw               map[string]any // opaque provider payload
}

// TxnsH1 returns the hour's transaction count, ignoring negative counters.
func (p PairSnapshot) TxnsH1() int {
	return max(p.TxnsH1Buys, 0) + max(p.TxnsH1Sells, 0)
}

// Clone returns a deep copy so callers can derive a new snapshot
// without touching the original.
func (p PairSnapshot) Clone() PairSnapshot {
	out := p
	if p.PriceChangeH1 != nil {
		v := *p.PriceChangeH1
		out.PriceChangeH1 = &v
	}
	if p.PriceChangeH24 != nil {
		v := *p.PriceChangeH24
		out.PriceChangeH24 = &v
	}
	if p.PairCreatedAt != nil {
		v := *p.PairCreatedAt
		out.PairCreatedAt = &v
	}
	if p.Raw != nil {
		out.Raw = make(map[string]any, len(p.Raw))
		for k, v := range p.Raw {
			out.Raw[k] = v
		}
	}
	return out
}

// PairRaw is the persisted, immutable form of a PairSnapshot.
// Corresponds to pair_raw table in PostgreSQL.
type PairRaw struct {
	ID           int64 // BIGSERIAL
	ChainID      string
	PairAddress  string
	TokenAddress string
	Snapshot     PairSnapshot // stored as JSONB payload
	CreatedAt    int64        // Unix timestamp in milliseconds
}
