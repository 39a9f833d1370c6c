package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long: `serve loads the configured config store, wires every protocol
dispatcher, and listens until it receives SIGINT/SIGTERM, then drains
in-flight requests within the configured shutdown grace period.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfgPath)
	if err != nil {
		return err
	}

	a.log.Info().Str("address", a.cfg.Server.Address).Str("env", a.cfg.Server.Env).Msg("doormand.starting")

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("doormand.shutdown_signal_received")
	case err := <-errCh:
		if err != nil {
			a.log.Error().Err(err).Msg("doormand.server_error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownGrace.Duration)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("doormand.shutdown_error")
	}

	if err := a.metrics.SaveSnapshot(a.cfg.ConfigStore.DumpPath + ".metrics.json"); err != nil {
		a.log.Warn().Err(err).Msg("doormand.metrics_snapshot_failed")
	}

	if err := a.lifecycle.Close(); err != nil {
		return fmt.Errorf("lifecycle shutdown: %w", err)
	}

	a.log.Info().Msg("doormand.stopped")
	return nil
}
