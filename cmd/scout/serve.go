package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"dog-scout/internal/api"
	"dog-scout/internal/notify"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		sf   scanFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Loop the scanner and serve the inspection API",
		Long: `Runs the scanner loop and an HTTP server with /health, /metrics, /status,
the /api/v1 alert and recheck endpoints and the /ws/feed live alert stream.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(g, sf.overrides(cmd.Flags()), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx, stop := shutdownContext(log)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			hub := notify.NewHub(log)
			go hub.Run(ctx)

			status := api.NewStatus(time.Now)
			p, err := a.newPipeline(hub, status.Record)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewServer(api.Options{Stores: a.stores, Hub: hub, Status: status, Log: log}).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				log.WithField("addr", srv.Addr).Info("http server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("http server failed")
				}
			}()

			p.Loop(ctx, cfg.LoopInterval)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("http server shutdown")
			}
			log.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	sf.register(cmd.Flags())
	return cmd
}
