package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dog-scout/internal/config"
)

const (
	modeOnce = "once"
	modeLoop = "loop"
)

// scanFlags are the cycle overrides shared by run and serve.
type scanFlags struct {
	interval    time.Duration
	dryRun      bool
	useMockData bool
}

func (f *scanFlags) register(fs *pflag.FlagSet) {
	fs.DurationVar(&f.interval, "interval", 0, "Loop interval (minimum 5s; default from config)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Force dry-run: log messages instead of sending them")
	fs.BoolVar(&f.useMockData, "use-mock-data", false, "Use the built-in mock market data")
}

func (f *scanFlags) overrides(fs *pflag.FlagSet) config.Overrides {
	o := config.Overrides{DryRun: f.dryRun, UseMockData: f.useMockData}
	if fs.Changed("interval") {
		d := f.interval
		o.Interval = &d
	}
	return o
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		sf   scanFlags
		mode string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scan cycle or loop at a fixed interval",
		Example: `  scout run --mode once --use-mock-data --dry-run
  scout run --mode loop --interval 2m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != modeOnce && mode != modeLoop {
				return fmt.Errorf("invalid --mode %q (want %s or %s)", mode, modeOnce, modeLoop)
			}

			cfg, log, err := loadConfig(g, sf.overrides(cmd.Flags()), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := shutdownContext(log)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			p, err := a.newPipeline(nil, nil)
			if err != nil {
				return err
			}

			log.WithFields(logrus.Fields{
				"mode":      mode,
				"chain":     cfg.Chain,
				"dry_run":   cfg.DryRun,
				"mock_data": cfg.UseMockData,
			}).Info("scout starting")

			if mode == modeOnce {
				res := p.RunOnce(ctx)
				out := cmd.OutOrStdout()
				for _, msg := range res.Messages {
					fmt.Fprintf(out, "%s\n\n", msg)
				}
				return nil
			}

			p.Loop(ctx, cfg.LoopInterval)
			log.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", modeOnce, "Run mode: once or loop")
	sf.register(cmd.Flags())
	return cmd
}
