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

	"roadpulse-server/internal/config"
	"roadpulse-server/internal/ingest"
	"roadpulse-server/internal/logging"
	"roadpulse-server/internal/mqtt"
)

const (
	appName = "roadpulse-poller"
	version = "dev"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("MQTT_CLIENT_ID") == "" {
		cfg.MQTTClientID = appName
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"api_url", cfg.APIBaseURL,
		"stations", cfg.StationIDs,
		"interval", cfg.PollInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config) error {
	publisher := mqtt.NewPublisher(cfg)

	poller, err := ingest.New(cfg, publisher)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = publisher.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer publisher.Disconnect()

	return poller.Run(ctx)
}
