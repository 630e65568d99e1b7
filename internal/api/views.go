package api

import (
	"time"

	"dog-scout/internal/domain"
)

type alertView struct {
	ID            int64     `json:"id"`
	Kind          string    `json:"kind"`
	SourceAlertID *int64    `json:"source_alert_id,omitempty"`
	SignalID      int64     `json:"signal_id"`
	ChainID       string    `json:"chain_id"`
	PairAddress   string    `json:"pair_address"`
	TokenAddress  string    `json:"token_address"`
	TokenSymbol   string    `json:"token_symbol"`
	FinalScore    float64   `json:"final_score"`
	RuleScore     float64   `json:"rule_score"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	Sent          bool      `json:"sent"`
	DryRun        bool      `json:"dry_run"`
	CreatedAt     time.Time `json:"created_at"`
}

func newAlertView(a *domain.Alert) alertView {
	return alertView{
		ID:            a.ID,
		Kind:          string(a.Kind),
		SourceAlertID: a.SourceAlertID,
		SignalID:      a.SignalID,
		ChainID:       a.ChainID,
		PairAddress:   a.PairAddress,
		TokenAddress:  a.TokenAddress,
		TokenSymbol:   a.TokenSymbol,
		FinalScore:    a.FinalScore,
		RuleScore:     a.RuleScore,
		Message:       a.Message,
		Status:        a.Status,
		Sent:          a.Sent,
		DryRun:        a.DryRun,
		CreatedAt:     msTime(a.CreatedAt),
	}
}

type jobView struct {
	ID             int64     `json:"id"`
	SourceAlertID  int64     `json:"source_alert_id"`
	PairAddress    string    `json:"pair_address"`
	TokenAddress   string    `json:"token_address"`
	TokenSymbol    string    `json:"token_symbol"`
	HorizonMinutes int       `json:"horizon_minutes"`
	DueAt          time.Time `json:"due_at"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newJobView(j *domain.RecheckJob) jobView {
	return jobView{
		ID:             j.ID,
		SourceAlertID:  j.SourceAlertID,
		PairAddress:    j.PairAddress,
		TokenAddress:   j.TokenAddress,
		TokenSymbol:    j.TokenSymbol,
		HorizonMinutes: j.HorizonMinutes,
		DueAt:          msTime(j.DueAt),
		Status:         string(j.Status),
		Attempts:       j.Attempts,
		LastError:      j.LastError,
		UpdatedAt:      msTime(j.UpdatedAt),
	}
}

type resultView struct {
	ID                int64     `json:"id"`
	JobID             int64     `json:"job_id"`
	HorizonMinutes    int       `json:"horizon_minutes"`
	Status            string    `json:"status"`
	PassedFilters     bool      `json:"passed_filters"`
	CurrentScore      float64   `json:"current_score"`
	RuleScore         float64   `json:"rule_score"`
	LLMScore          *float64  `json:"llm_score,omitempty"`
	DeltaFromInitial  float64   `json:"delta_from_initial"`
	DeltaFromPrevious float64   `json:"delta_from_previous"`
	SummaryLine       string    `json:"summary_line"`
	CreatedAt         time.Time `json:"created_at"`
}

func newResultView(r *domain.RecheckResult) resultView {
	return resultView{
		ID:                r.ID,
		JobID:             r.JobID,
		HorizonMinutes:    r.HorizonMinutes,
		Status:            string(r.Status),
		PassedFilters:     r.PassedFilters,
		CurrentScore:      r.CurrentScore,
		RuleScore:         r.RuleScore,
		LLMScore:          r.LLMScore,
		DeltaFromInitial:  r.DeltaFromInitial,
		DeltaFromPrevious: r.DeltaFromPrevious,
		SummaryLine:       r.SummaryLine,
		CreatedAt:         msTime(r.CreatedAt),
	}
}

type timelineView struct {
	AlertID  int64        `json:"alert_id"`
	Initial  float64      `json:"initial"`
	Score5m  *float64     `json:"score_5m"`
	Score15m *float64     `json:"score_15m"`
	Summary  string       `json:"summary"`
	Results  []resultView `json:"results"`
	Jobs     []jobView    `json:"jobs"`
}

func msTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
