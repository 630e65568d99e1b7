package postgres

import (
	"encoding/json"

	"dog-scout/internal/domain"
)

// snapshotRecord is the JSONB payload of a pair_raw row.
type snapshotRecord struct {
	ChainID           string         `json:"chain_id"`
	PairAddress       string         `json:"pair_address"`
	DexID             string         `json:"dex_id"`
	BaseTokenAddress  string         `json:"base_token_address"`
	BaseTokenSymbol   string         `json:"base_token_symbol"`
	QuoteTokenAddress string         `json:"quote_token_address,omitempty"`
	QuoteTokenSymbol  string         `json:"quote_token_symbol"`
	PriceUSD          float64        `json:"price_usd"`
	LiquidityUSD      float64        `json:"liquidity_usd"`
	VolumeH24         float64        `json:"volume_h24"`
	TxnsH1Buys        int            `json:"txns_h1_buys"`
	TxnsH1Sells       int            `json:"txns_h1_sells"`
	PriceChangeH1     *float64       `json:"price_change_h1"`
	PriceChangeH24    *float64       `json:"price_change_h24"`
	PairCreatedAt     *int64         `json:"pair_created_at"`
	Raw               map[string]any `json:"raw,omitempty"`
}

func encodeSnapshot(p domain.PairSnapshot) ([]byte, error) {
	return json.Marshal(snapshotRecord(p))
}

func decodeSnapshot(data []byte) (domain.PairSnapshot, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.PairSnapshot{}, err
	}
	return domain.PairSnapshot(rec), nil
}

// riskRecord is the JSONB form of a RiskAssessment.
type riskRecord struct {
	IsHoneypot         bool              `json:"is_honeypot"`
	Flags              []string          `json:"risk_flags"`
	Holders            *int              `json:"holders"`
	Top10Concentration *float64          `json:"top10_concentration"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

func encodeRisk(r domain.RiskAssessment) ([]byte, error) {
	return json.Marshal(riskRecord(r))
}

func decodeRisk(data []byte) (domain.RiskAssessment, error) {
	var rec riskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.RiskAssessment{}, err
	}
	return domain.RiskAssessment(rec), nil
}

// encodeStrings always produces a JSON array, never null.
func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}
