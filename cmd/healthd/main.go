package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"healthd/internal/alert"
	"healthd/internal/config"
	"healthd/internal/event"
	"healthd/internal/logger"
	"healthd/internal/metrics"
	"healthd/internal/system"
	"healthd/internal/transport/http"
	"healthd/internal/transport/tcp"
	"healthd/internal/workers"
)

func main() {
	cfg := config.Load()

	if err := cfg.ParseFlags("healthd", os.Args[1:], os.Stderr); err != nil {
		os.Exit(2)
	}
	if cfg.Help {
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	appLog := logger.New(cfg)
	appLog.Info("healthd: starting...",
		"listen", cfg.ListenHostPort(),
		"source", cfg.CounterSource,
		"sample_interval", cfg.SampleInterval,
		"push_interval", cfg.PushInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := system.NewSource(cfg, appLog)
	if err != nil {
		appLog.Error("failed to init counter source", "error", err)
		os.Exit(1)
	}

	// Initialize components
	bus := event.New(appLog)
	store := metrics.NewSnapshotStore()
	sampler := metrics.NewSampler(source, store, bus, appLog)
	scheduler := workers.NewScheduler(appLog)

	var tcpServer *tcp.Server
	var activeSessions func() int
	if addr := cfg.ListenHostPort(); addr != "" {
		tcpServer = tcp.NewServer(addr, store, appLog, tcp.Options{
			PushInterval: cfg.PushInterval,
			IdleTimeout:  cfg.IdleTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
		activeSessions = tcpServer.Active
	} else {
		appLog.Info("no listen address configured, session server disabled")
	}

	exporter := metrics.NewExporter(bus, activeSessions)

	if cfg.RemoteNotifyAddress != "" {
		notifier := alert.NewNotifier(cfg.RemoteNotifyAddress, cfg.Port, cfg.AlertThresholdPercent, appLog)
		notifier.Subscribe(bus)
		defer notifier.Wait()
		appLog.Info("alert notifier enabled", "target", notifier.Target(), "threshold", cfg.AlertThresholdPercent)
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Sampler
	g.Go(func() error {
		return scheduler.RunByDuration(gCtx, cfg.SampleInterval, sampler)
	})

	// Session server
	if tcpServer != nil {
		g.Go(func() error {
			return tcpServer.Start(gCtx)
		})
	}

	// Status server
	if cfg.HTTPAddress != "" {
		statusServer := http.NewServer(cfg.HTTPAddress, store, exporter.Handler(), cfg.PushInterval, appLog)
		g.Go(func() error {
			return statusServer.Start(gCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("healthd failed unexpectedly", "error", err)
		os.Exit(1)
	}

	appLog.Info("healthd stopped gracefully.")
}
