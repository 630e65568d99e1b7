package domain

// Candidate joins one cycle's evaluation of a pair.
// Exists only in memory during a cycle.
type Candidate struct {
	Pair      PairSnapshot
	Risk      RiskAssessment
	Filter    FilterOutcome
	Score     ScoreBreakdown
	PairRawID int64 // persisted pair_raw row
	SignalID  int64 // persisted signals row
}

// Signal is the persisted scored-and-filtered evaluation of one snapshot.
// Corresponds to signals table in PostgreSQL.
type Signal struct {
	ID           int64
	PairRawID    int64
	ChainID      string
	PairAddress  string
	TokenAddress string
	TokenSymbol  string
	Risk         RiskAssessment
	Filter       FilterOutcome
	Score        ScoreBreakdown
	CreatedAt    int64 // Unix timestamp in milliseconds
}

// NewSignal builds the signal row for a scored snapshot.
func NewSignal(pairRawID int64, pair PairSnapshot, risk RiskAssessment, filter FilterOutcome, score ScoreBreakdown) *Signal {
	return &Signal{
		PairRawID:    pairRawID,
		ChainID:      pair.ChainID,
		PairAddress:  pair.PairAddress,
		TokenAddress: pair.BaseTokenAddress,
		TokenSymbol:  pair.BaseTokenSymbol,
		Risk:         risk,
		Filter:       filter,
		Score:        score,
	}
}
