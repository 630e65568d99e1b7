// Package main provides the scout command: it scans newly listed DEX pairs,
// alerts on the strongest candidates and rechecks them 5 and 15 minutes later.
//
// Subcommands:
//   - run: one cycle or a fixed-interval loop
//   - serve: loop plus the inspection API and live feed
//   - migrate: apply the Postgres and ClickHouse schemas
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dog-scout/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "scout",
		Short: "Dog Scout DEX pair scanner",
		Long: `Dog Scout polls newly listed DEX pairs, scores them with rule-based metrics
and an optional narrative analyzer, alerts on the top candidates and rechecks
every alert after 5 and 15 minutes.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "Optional YAML configuration file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Optional .env file (ignored when missing)")

	root.AddCommand(newRunCmd(&g), newServeCmd(&g), newMigrateCmd(&g))
	return root
}

// loadConfig builds the configuration and the logger for a command.
func loadConfig(g *globalFlags, o config.Overrides, logOut io.Writer) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{File: g.configFile, EnvFile: g.envFile})
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg = cfg.WithOverrides(o)

	log, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg config.Log, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log, nil
}
