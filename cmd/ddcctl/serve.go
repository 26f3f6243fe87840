package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/ddcctl/internal/bus"
	"codeberg.org/mutker/ddcctl/internal/config"
	"codeberg.org/mutker/ddcctl/internal/errors"
	"codeberg.org/mutker/ddcctl/internal/logger"
	"codeberg.org/mutker/ddcctl/internal/metrics"
	"codeberg.org/mutker/ddcctl/internal/monitor"
	"codeberg.org/mutker/ddcctl/internal/pid"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const recordQueueSize = 64

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the brightness service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	errFactory := errors.New()

	pidPath := pid.DefaultPath()
	if err := pid.Write(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(pidPath); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	lib, registry := discover()
	ctrl := monitor.NewController(registry,
		monitor.NewWriter(lib, cfg.WaitOpen),
		monitor.WithRevertOnFailure(cfg.RevertOnFailure),
	)

	mcfg := metrics.DefaultConfig()
	mcfg.Enabled = cfg.Metrics
	mcfg.DBPath = cfg.MetricsDB
	collector, err := metrics.NewService(mcfg, logger.Default())
	if err != nil {
		return errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close metrics")
		}
	}()

	records := make(chan *metrics.WriteRecord, recordQueueSize)
	ctrl.Subscribe(func(c monitor.Completion) {
		select {
		case records <- metrics.NewWriteRecord(c, time.Now()):
		default:
			logger.Warn().Str("request_id", c.ID).Msg("Metrics queue full, dropping record")
		}
	})

	if cfg.DBus {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return errFactory.Wrap(errors.ErrInitApp, err)
		}
		defer conn.Close()

		svc, err := bus.Export(conn, ctrl)
		if err != nil {
			return err
		}
		defer svc.Close()
	}

	if err := cfg.Watch(ctx, func(c *config.Config) {
		if err := logger.SetLevel(c.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to apply log level")
		}
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to watch config file")
	}

	logger.Info().Int("monitors", registry.Len()).Msg("Brightness service started")

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var g errgroup.Group
	g.Go(func() error {
		defer close(records)
		defer cancelRun()
		return ctrl.Run(runCtx)
	})
	g.Go(func() error {
		for rec := range records {
			if err := collector.Record(context.Background(), rec); err != nil {
				logger.Warn().Err(err).Msg("Failed to record write")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return errFactory.Wrap(errors.ErrMainLoop, err)
	}

	logger.Info().Msg("Exiting...")

	return nil
}
