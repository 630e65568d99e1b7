package dexscreener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"dog-scout/internal/chain"
	"dog-scout/internal/domain"
)

const unknown = "UNKNOWN"

// flexFloat decodes JSON numbers, numeric strings and null.
type flexFloat struct {
	v     float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		f.v, f.valid = v, true
		return nil
	}
	if err := json.Unmarshal(b, &f.v); err != nil {
		return err
	}
	f.valid = true
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil || !f.valid {
		return nil
	}
	v := f.v
	return &v
}

type tokenDTO struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type pairDTO struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   tokenDTO  `json:"baseToken"`
	QuoteToken  tokenDTO  `json:"quoteToken"`
	PriceUSD    flexFloat `json:"priceUsd"`
	Liquidity   struct {
		USD flexFloat `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 flexFloat `json:"h24"`
	} `json:"volume"`
	Txns struct {
		H1 struct {
			Buys  flexFloat `json:"buys"`
			Sells flexFloat `json:"sells"`
		} `json:"h1"`
	} `json:"txns"`
	PriceChange struct {
		H1  *flexFloat `json:"h1"`
		H24 *flexFloat `json:"h24"`
	} `json:"priceChange"`
	PairCreatedAt *flexFloat `json:"pairCreatedAt"`
}

var errNoPairAddress = errors.New("pair address missing")

// parsePair converts one Dexscreener pair object. The raw object is kept verbatim.
func parsePair(raw json.RawMessage) (domain.PairSnapshot, error) {
	var dto pairDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.PairSnapshot{}, fmt.Errorf("decode pair: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.PairSnapshot{}, fmt.Errorf("decode pair payload: %w", err)
	}

	chainID := strings.ToLower(strings.TrimSpace(dto.ChainID))
	pairAddress := normalize(chainID, dto.PairAddress)
	if pairAddress == "" {
		return domain.PairSnapshot{}, errNoPairAddress
	}

	p := domain.PairSnapshot{
		ChainID:           chainID,
		PairAddress:       pairAddress,
		DexID:             orDefault(dto.DexID, "unknown"),
		BaseTokenAddress:  normalize(chainID, dto.BaseToken.Address),
		BaseTokenSymbol:   orDefault(dto.BaseToken.Symbol, unknown),
		QuoteTokenAddress: normalize(chainID, dto.QuoteToken.Address),
		QuoteTokenSymbol:  orDefault(dto.QuoteToken.Symbol, unknown),
		PriceUSD:          dto.PriceUSD.v,
		LiquidityUSD:      dto.Liquidity.USD.v,
		VolumeH24:         dto.Volume.H24.v,
		TxnsH1Buys:        int(dto.Txns.H1.Buys.v),
		TxnsH1Sells:       int(dto.Txns.H1.Sells.v),
		PriceChangeH1:     dto.PriceChange.H1.ptr(),
		PriceChangeH24:    dto.PriceChange.H24.ptr(),
		Raw:               payload,
	}
	if created := dto.PairCreatedAt.ptr(); created != nil {
		ms := int64(*created)
		p.PairCreatedAt = &ms
	}
	return p, nil
}

// normalize canonicalises an address, keeping the trimmed input when it does not parse.
func normalize(chainID, addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if n, err := chain.NormalizeAddress(chainID, addr); err == nil {
		return n
	}
	return addr
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
