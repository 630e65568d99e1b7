package domain

// AlertKind distinguishes first alerts from recheck follow-ups.
type AlertKind string

const (
	AlertKindInitial AlertKind = "initial"
	AlertKindRecheck AlertKind = "recheck"
)

// Delivery statuses reported by notifiers.
const (
	DeliverySent        = "sent"
	DeliveryDryRun      = "dry_run"
	DeliveryDisabled    = "disabled"
	DeliveryConfigError = "config_error"
	DeliveryFailed      = "send_failed"
)

// Alert is a persisted record of a notified candidate.
// Corresponds to alerts table in PostgreSQL.
type Alert struct {
	ID            int64
	Kind          AlertKind
	SourceAlertID *int64 // set for recheck alerts (nullable)
	SignalID      int64
	ChainID       string
	PairAddress   string
	TokenAddress  string
	TokenSymbol   string
	FinalScore    float64
	RuleScore     float64
	Message       string
	Status        string // delivery status
	Sent          bool
	DryRun        bool
	CreatedAt     int64 // Unix timestamp in milliseconds
}

// NewAlert builds the alert row for a notified candidate.
func NewAlert(kind AlertKind, c Candidate, message, status string, sent, dryRun bool) *Alert {
	return &Alert{
		Kind:         kind,
		SignalID:     c.SignalID,
		ChainID:      c.Pair.ChainID,
		PairAddress:  c.Pair.PairAddress,
		TokenAddress: c.Pair.BaseTokenAddress,
		TokenSymbol:  c.Pair.BaseTokenSymbol,
		FinalScore:   c.Score.FinalScore,
		RuleScore:    c.Score.RuleScore,
		Message:      message,
		Status:       status,
		Sent:         sent,
		DryRun:       dryRun,
	}
}

// WithSource returns a copy linked to the alert it follows up.
func (a Alert) WithSource(sourceAlertID int64) *Alert {
	out := a
	id := sourceAlertID
	out.SourceAlertID = &id
	return &out
}
