package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"dog-scout/internal/analyzer"
	"dog-scout/internal/cache"
	"dog-scout/internal/config"
	"dog-scout/internal/dexscreener"
	"dog-scout/internal/market"
	"dog-scout/internal/mockdata"
	"dog-scout/internal/notify"
	"dog-scout/internal/pipeline"
	"dog-scout/internal/selector"
	"dog-scout/internal/storage"
	chstore "dog-scout/internal/storage/clickhouse"
	"dog-scout/internal/storage/memory"
	"dog-scout/internal/storage/migrations"
	pgstore "dog-scout/internal/storage/postgres"
)

// app holds the long-lived collaborators of one process.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	stores storage.Stores
	sink   storage.SnapshotSink
	dedup  selector.DedupStore

	closers []func()
}

// newApp connects the configured backends. Postgres migrations are applied
// on startup; ClickHouse and Redis are optional.
func newApp(ctx context.Context, cfg config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if err := a.createStores(ctx); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("prepare clickhouse sink: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		a.sink = chstore.NewSnapshotSink(conn)
	}

	a.dedup = storage.NewDedup(a.stores.Alerts)
	if cfg.Redis.Addr != "" {
		cc, err := cache.NewCooldownCache(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, cooldowns served from the alert store")
		} else {
			a.closers = append(a.closers, func() { cc.Close() })
			a.dedup = cache.NewDedup(cc, a.dedup, log)
		}
	}
	return a, nil
}

func (a *app) createStores(ctx context.Context) error {
	if a.cfg.Storage.Backend != "postgres" {
		a.stores = memory.NewStores()
		a.log.Info("using in-memory stores")
		return nil
	}

	pool, err := pgstore.NewPool(ctx, a.cfg.Storage.PostgresDSN, pgstore.WithConnectTimeout(a.cfg.RequestTimeout))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return fmt.Errorf("apply postgres migrations: %w", err)
	}
	if len(applied) > 0 {
		a.log.WithField("files", applied).Info("postgres migrations applied")
	}
	a.stores = pgstore.NewStores(pool)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newPipeline wires the scanner. hub and onCycle are optional.
func (a *app) newPipeline(hub *notify.Hub, onCycle func(pipeline.ScanResult)) (*pipeline.Pipeline, error) {
	var source market.Source
	if a.cfg.UseMockData {
		source = mockdata.NewSource(a.cfg.Rules.MinLiquidityUSD, time.Now)
	} else {
		source = dexscreener.NewFromConfig(a.cfg, a.log)
	}

	an, err := analyzer.NewFromConfig(a.cfg.LLM)
	failed := false
	if err != nil {
		a.log.WithError(err).Warn("narrative analyzer unavailable, scoring with rules only")
		an, failed = nil, true
	}

	var notifier notify.Notifier = notify.NewTelegramNotifier(a.cfg.Telegram, a.cfg.DryRun, a.cfg.RequestTimeout, a.log)
	if hub != nil {
		notifier = notify.NewFanout(notifier, hub)
	}

	return pipeline.New(pipeline.Options{
		Config:         a.cfg,
		Stores:         a.stores,
		Source:         source,
		Analyzer:       an,
		AnalyzerFailed: failed,
		Notifier:       notifier,
		Dedup:          a.dedup,
		Sink:           a.sink,
		Log:            a.log,
		OnCycle:        onCycle,
	})
}

// shutdownContext is cancelled on the first SIGINT/SIGTERM. A second signal
// exits immediately. The returned stop func releases the signal handler.
func shutdownContext(log logrus.FieldLogger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Info("shutdown requested, finishing current cycle")
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Warn("second signal, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
