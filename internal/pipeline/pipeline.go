// Package pipeline runs the scan cycle: rechecks, fetch, evaluate, select, alert.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dog-scout/internal/analyzer"
	"dog-scout/internal/config"
	"dog-scout/internal/domain"
	"dog-scout/internal/filter"
	"dog-scout/internal/market"
	"dog-scout/internal/notify"
	"dog-scout/internal/observability"
	"dog-scout/internal/risk"
	"dog-scout/internal/scoring"
	"dog-scout/internal/selector"
	"dog-scout/internal/storage"
)

// AlertMarker is implemented by dedup stores that keep their own record of
// fresh alerts, such as the Redis cooldown cache.
type AlertMarker interface {
	MarkAlerted(ctx context.Context, tokenAddress, pairAddress string, cooldown time.Duration)
}

// Options configures a Pipeline.
type Options struct {
	Config config.Config
	Stores storage.Stores

	// Source is required. Refresher defaults to Source when it implements
	// market.Refresher, otherwise to market.SourceRefresher.
	Source    market.Source
	Refresher market.Refresher

	Risk risk.Assessor // defaults to a denylist assessor

	// Analyzer is nil when the narrative opinion is off. AnalyzerFailed
	// marks an analyzer that was enabled but could not be built.
	Analyzer       analyzer.Analyzer
	AnalyzerFailed bool

	Notifier notify.Notifier     // required
	Dedup    selector.DedupStore // defaults to the alert store
	Sink     storage.SnapshotSink

	Log   logrus.FieldLogger
	Clock func() time.Time

	// OnCycle, when set, receives every finished cycle's result.
	OnCycle func(ScanResult)
}

// ScanResult summarises one cycle.
type ScanResult struct {
	RunID         string
	FetchedPairs  int
	PassedFilters int
	Selected      int
	Rechecked     int
	Messages      []string // recheck summaries first, then initial alerts
	Errors        int      // items skipped because of a store failure
}

// Pipeline is safe to reuse across cycles but runs one cycle at a time.
type Pipeline struct {
	cfg            config.Config
	stores         storage.Stores
	source         market.Source
	refresher      market.Refresher
	risk           risk.Assessor
	analyzer       analyzer.Analyzer
	analyzerFailed bool
	notifier       notify.Notifier
	dedup          selector.DedupStore
	sink           storage.SnapshotSink
	log            logrus.FieldLogger
	clock          func() time.Time
	onCycle        func(ScanResult)
}

// New builds a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: market source is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("pipeline: notifier is required")
	}
	if opts.Stores.PairRaw == nil || opts.Stores.Signals == nil || opts.Stores.Alerts == nil ||
		opts.Stores.Jobs == nil || opts.Stores.Results == nil {
		return nil, fmt.Errorf("pipeline: all stores are required")
	}

	p := &Pipeline{
		cfg:            opts.Config,
		stores:         opts.Stores,
		source:         opts.Source,
		refresher:      opts.Refresher,
		risk:           opts.Risk,
		analyzer:       opts.Analyzer,
		analyzerFailed: opts.AnalyzerFailed,
		notifier:       opts.Notifier,
		dedup:          opts.Dedup,
		sink:           opts.Sink,
		log:            opts.Log,
		clock:          opts.Clock,
		onCycle:        opts.OnCycle,
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if p.refresher == nil {
		if r, ok := opts.Source.(market.Refresher); ok {
			p.refresher = r
		} else {
			p.refresher = market.SourceRefresher{Source: opts.Source}
		}
	}
	if p.risk == nil {
		p.risk = risk.NewDenylistAssessor(opts.Config.Rules)
	}
	if p.dedup == nil {
		p.dedup = &storage.Dedup{Alerts: opts.Stores.Alerts, Now: p.clock}
	}
	return p, nil
}

// RunOnce executes one full cycle. Failures of single pairs or jobs are
// logged and counted; they never abort the cycle.
func (p *Pipeline) RunOnce(ctx context.Context) ScanResult {
	start := p.clock()
	res := ScanResult{RunID: uuid.NewString()}
	log := p.log.WithField("run_id", res.RunID)

	recheckMessages, recheckErrs := p.processDueRechecks(ctx, log, res.RunID)
	res.Rechecked = len(recheckMessages)
	res.Errors += recheckErrs
	res.Messages = append(res.Messages, recheckMessages...)

	pairs := p.source.FetchNewPairs(ctx, p.cfg.Chain, p.cfg.MaxNewTokens)
	res.FetchedPairs = len(pairs)
	observability.RecordPairsFetched(len(pairs))
	if len(pairs) == 0 {
		log.Info("no pairs fetched this cycle")
		p.finishCycle(log, start, res)
		return res
	}

	var (
		candidates []domain.Candidate
		rows       []storage.SnapshotRow
	)
	for _, pair := range pairs {
		c, err := p.evaluate(ctx, pair)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"token": pair.BaseTokenAddress,
				"pair":  pair.PairAddress,
			}).Error("evaluate pair")
			res.Errors++
			continue
		}
		rows = append(rows, p.snapshotRow(res.RunID, storage.SnapshotKindScan, c))
		if c.Filter.Passed {
			candidates = append(candidates, c)
		}
	}
	res.PassedFilters = len(candidates)
	p.recordSnapshots(ctx, log, rows)

	selected, err := selector.Select(ctx, candidates, p.cfg.TopN, p.cfg.DedupCooldown, p.dedup)
	if err != nil {
		log.WithError(err).Warn("dedup lookup failed, affected candidates skipped")
	}
	res.Selected = len(selected)
	observability.RecordSelected(len(selected))

	for i, c := range selected {
		msg, err := p.alert(ctx, i+1, c)
		if err != nil {
			log.WithError(err).WithField("pair", c.Pair.PairAddress).Error("alert candidate")
			res.Errors++
			continue
		}
		res.Messages = append(res.Messages, msg)
	}

	p.finishCycle(log, start, res)
	return res
}

func (p *Pipeline) finishCycle(log logrus.FieldLogger, start time.Time, res ScanResult) {
	observability.RecordCycle(p.clock().Sub(start), res.Errors == 0)
	log.WithFields(logrus.Fields{
		"fetched":   res.FetchedPairs,
		"passed":    res.PassedFilters,
		"selected":  res.Selected,
		"rechecked": res.Rechecked,
		"errors":    res.Errors,
	}).Info("scan complete")
	if p.onCycle != nil {
		p.onCycle(res)
	}
}

// evaluate persists the snapshot, assesses risk, filters, scores and
// persists the resulting signal.
func (p *Pipeline) evaluate(ctx context.Context, pair domain.PairSnapshot) (domain.Candidate, error) {
	nowMs := p.clock().UnixMilli()

	rawID, err := p.stores.PairRaw.Insert(ctx, &domain.PairRaw{
		ChainID:      pair.ChainID,
		PairAddress:  pair.PairAddress,
		TokenAddress: pair.BaseTokenAddress,
		Snapshot:     pair,
		CreatedAt:    nowMs,
	})
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("insert pair raw: %w", err)
	}

	assessment := p.assessRisk(ctx, pair)
	outcome := filter.Apply(pair, assessment, p.cfg.Rules)
	score := p.score(ctx, pair, assessment)

	signal := domain.NewSignal(rawID, pair, assessment, outcome, score)
	signal.CreatedAt = nowMs
	signalID, err := p.stores.Signals.Insert(ctx, signal)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("insert signal: %w", err)
	}
	observability.RecordSignal(outcome.Passed, outcome.Reasons)

	return domain.Candidate{
		Pair:      pair,
		Risk:      assessment,
		Filter:    outcome,
		Score:     score,
		PairRawID: rawID,
		SignalID:  signalID,
	}, nil
}

func (p *Pipeline) assessRisk(ctx context.Context, pair domain.PairSnapshot) domain.RiskAssessment {
	rctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()
	assessment, err := p.risk.Assess(rctx, pair.BaseTokenAddress, pair.ChainID)
	if err != nil {
		p.log.WithError(err).WithField("token", pair.BaseTokenAddress).Warn("risk assessment unavailable")
		return risk.Unavailable(pair.ChainID, err)
	}
	return assessment
}

// send delivers msg with the same bound as every other external call.
func (p *Pipeline) send(ctx context.Context, msg string) notify.Result {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()
	return p.notifier.Send(sctx, msg)
}

// score computes the rule score and folds in the analyzer opinion when there is one.
func (p *Pipeline) score(ctx context.Context, pair domain.PairSnapshot, assessment domain.RiskAssessment) domain.ScoreBreakdown {
	rule := scoring.Score(pair, p.cfg.Rules)
	weights := p.cfg.LLM.Weights()

	if p.analyzer == nil {
		in := scoring.MergeInput{AnalyzerFailed: p.analyzerFailed}
		if p.analyzerFailed {
			in.Provider, in.Model = p.cfg.LLM.Provider, p.cfg.LLM.Model
		}
		return scoring.Merge(rule, in, weights)
	}

	in := scoring.MergeInput{Provider: p.analyzer.Provider(), Model: p.analyzer.Model()}
	out, err := p.analyzer.Analyze(ctx, analyzer.NewInput(pair, assessment, rule.RuleScore))
	if err != nil {
		p.log.WithError(err).WithField("token", pair.BaseTokenAddress).Warn("analyzer failed, using rule score")
		observability.RecordAnalyzerFailure(in.Provider)
		in.AnalyzerFailed = true
		return scoring.Merge(rule, in, weights)
	}
	n := out.Narrative()
	in.Narrative = &n
	return scoring.Merge(rule, in, weights)
}

// alert notifies one selected candidate, records the alert and schedules its rechecks.
func (p *Pipeline) alert(ctx context.Context, rank int, c domain.Candidate) (string, error) {
	now := p.clock()
	msg := notify.FormatAlert(rank, c)
	sent := p.send(ctx, msg)

	a := domain.NewAlert(domain.AlertKindInitial, c, msg, sent.Status, sent.Sent, p.cfg.DryRun)
	a.CreatedAt = now.UnixMilli()
	alertID, err := p.stores.Alerts.Insert(ctx, a)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	observability.RecordAlert(string(domain.AlertKindInitial), sent.Status)
	p.markAlerted(ctx, c)

	if _, err := p.stores.Jobs.Enqueue(ctx, storage.NewJobs(alertID, c, domain.Horizons, now)); err != nil {
		return "", fmt.Errorf("enqueue rechecks for alert %d: %w", alertID, err)
	}
	return msg, nil
}

func (p *Pipeline) markAlerted(ctx context.Context, c domain.Candidate) {
	if m, ok := p.dedup.(AlertMarker); ok {
		m.MarkAlerted(ctx, c.Pair.BaseTokenAddress, c.Pair.PairAddress, p.cfg.DedupCooldown)
	}
}

func (p *Pipeline) snapshotRow(runID, kind string, c domain.Candidate) storage.SnapshotRow {
	return storage.SnapshotRow{
		RunID:       runID,
		Kind:        kind,
		EvaluatedAt: p.clock().UnixMilli(),
		Candidate:   c,
	}
}

func (p *Pipeline) recordSnapshots(ctx context.Context, log logrus.FieldLogger, rows []storage.SnapshotRow) {
	if p.sink == nil || len(rows) == 0 {
		return
	}
	if err := p.sink.Record(ctx, rows); err != nil {
		log.WithError(err).WithField("rows", len(rows)).Warn("snapshot sink write failed")
	}
}

// Loop runs cycles every interval until ctx is cancelled. Cancellation is
// observed between cycles; a running cycle completes on a detached context.
func (p *Pipeline) Loop(ctx context.Context, interval time.Duration) {
	interval = max(interval, config.MinLoopInterval)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("scanner loop stopped")
			return
		case <-timer.C:
		}

		res := p.RunOnce(context.WithoutCancel(ctx))
		p.log.WithFields(logrus.Fields{
			"run_id": res.RunID,
			"next":   interval.String(),
		}).Debug("cycle finished")
		timer.Reset(interval)
	}
}
