package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/risewatch"
	"github.com/jpalmerr/risewatch/config"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the target and notify ahead of events",
	Long: `Bring the network up, then poll the configured target and notify
before each announced event.

The command runs until interrupted (Ctrl+C) or it receives SIGTERM. It exits
with status 1 if the network cannot be brought up.

Example:
  risewatch run -c risewatch.yaml
  risewatch run --config /etc/risewatch/risewatch.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, file := newLogger(cfg.Log, os.Stderr)
	if file != nil {
		defer file.Close()
	}
	slog.SetDefault(logger)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, risewatch.WithLogger(logger))

	w, err := risewatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	logger.Info("config loaded",
		"target", cfg.Target.Name,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"notify_lead", cfg.NotifyLead.Duration().String(),
		"static_network", cfg.Network.Static(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return finish(logger, err)
	case <-ctx.Done():
		select {
		case err := <-errChan:
			return finish(logger, err)
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

func finish(logger *slog.Logger, err error) error {
	if errors.Is(err, risewatch.ErrBringUp) {
		logger.Error("network unavailable", "error", err)
		return err
	}
	if err != nil {
		return fmt.Errorf("watcher error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
