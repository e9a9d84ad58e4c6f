package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/logging"
	"github.com/RyanBlaney/sonido-meter/observe"
	"github.com/RyanBlaney/sonido-meter/server"
)

var version = "dev"

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mp, shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.WithoutCancel(ctx)); err != nil {
					logging.Error(err, "Meter provider shutdown failed")
				}
			}()

			metrics, err := observe.NewMetrics(mp)
			if err != nil {
				return err
			}

			svc, err := buildService(cfg, assessment.WithRecorder(metrics))
			if err != nil {
				return err
			}

			srv := server.New(cfg.Server, svc,
				server.WithMetrics(metrics),
				server.WithMetricsHandler(promhttp.Handler()),
			)

			logging.Info("Starting sonido-meter", logging.Fields{
				"addr":        cfg.Server.Addr,
				"workers":     cfg.Service.Workers,
				"transcriber": cfg.Transcriber.Provider,
				"version":     version,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}
