package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clawcontroller "github.com/leandromarcosmoreira/ClawController"
)

func runServeCommand(ctx context.Context, flags *ServeFlags, out io.Writer) error {
	if flags.Daemonize {
		return daemonize(flags.PidFile, flags.LogFile)
	}

	cfg, err := clawcontroller.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	log, logCloser, err := cfg.Log.Logger().NewSlogger(os.Stderr)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(log)

	ctrl, err := clawcontroller.New(cfg, log)
	if err != nil {
		return fmt.Errorf("error creating watchdog: %w", err)
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Warn("close watchdog resources", slog.Any("error", err))
		}
	}()

	if flags.Once {
		printJSON(out, ctrl.Poll(ctx))
		return nil
	}

	if err := ensureNotRunning(flags.PidFile); err != nil {
		return err
	}
	if flags.PidFile != "" {
		if err := writePidFile(flags.PidFile, os.Getpid()); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = removePidFile(flags.PidFile) }()
	}

	if cfg.Metrics.Enabled {
		if err := clawcontroller.RegisterMetricsDefault(); err != nil {
			log.Warn("failed to register metrics", slog.Any("error", err))
		}
		msrv := clawcontroller.NewMetricsServer(cfg.Metrics.Listen)
		go func() {
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", slog.Any("error", err))
			}
		}()
		defer func() { _ = msrv.Close() }()
		log.Info("serving metrics", slog.String("listen", cfg.Metrics.Listen))
	}

	srv, err := ctrl.NewHTTPServer()
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	log.Info("serving watchdog API",
		slog.String("listen", cfg.Server.Listen),
		slog.String("base_path", cfg.Server.BasePath),
		slog.String("gateway", cfg.Gateway.URL))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := ctrl.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	return runErr
}
