package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-materials-client/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (c *cli) newServeMetricsCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics and session status over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.app.Config.GetMetricsAddr()
			}
			displayAppname(c.out, c.app.Config.GetAppName())

			if _, err := c.restore(cmd.Context()); err != nil {
				return err
			}

			handler := server.New(c.app.Config.GetEnv(), c.app.Manager, c.app.MetricsHandler())
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

			errs := make(chan error, 1)
			go func() {
				errs <- listenAndServe(srv)
			}()

			select {
			case err := <-errs:
				return err
			case <-cmd.Context().Done():
			}
			return shutdown(srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $METRICS_ADDR or :9090)")
	return cmd
}

func listenAndServe(srv *http.Server) error {
	log.Info().Msgf("Metrics listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Metrics server stopped")
	return nil
}
