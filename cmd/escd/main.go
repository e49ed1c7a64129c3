// Command escd runs the Engine Supervision Container daemon: the alert
// manager, the radio link guard, the link monitor, and the maintenance
// HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/api"
	"github.com/engine-control/esc/internal/audit"
	"github.com/engine-control/esc/internal/auth"
	"github.com/engine-control/esc/internal/config"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/platform/modbusio"
	"github.com/engine-control/esc/internal/platform/sim"
	"github.com/engine-control/esc/internal/radiolink"
	"github.com/engine-control/esc/internal/supervisor"
	"github.com/engine-control/esc/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "escd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := observability.InitLogger("escd", cfg.Logging.Level, cfg.Logging.Console)
	log.Info().Str("version", version).Msg("starting engine supervision container")

	observability.RegisterMetrics()

	hub := telemetry.NewHub(cfg.Telemetry.BufferSize, cfg.Telemetry.HeartbeatInterval())
	defer hub.Stop()

	auditLogger, err := audit.NewLogger(audit.Options{
		Dir:        cfg.Audit.Dir,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
	}, auth.Subject)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	defer auditLogger.Close()

	panel, notifier, transceiver, closePlatform, err := buildPlatform(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize platform driver: %w", err)
	}
	defer closePlatform()
	log.Info().Str("driver", cfg.Platform.Driver).Msg("platform driver ready")

	alerts := alert.NewManager(panel, supervisor.Fanout(notifier, supervisor.NewHubNotifier(hub)))
	alerts.Init()

	radio := radiolink.NewGuard(transceiver)

	sup := supervisor.New(alerts, radio, hub, auditLogger, cfg.Platform.LinkPollInterval(), log)
	defer sup.Stop()

	ctx := context.Background()
	if ready := sup.InitRadio(ctx); !ready {
		log.Warn().Msg("radio initialization failed; link supervision continues")
	}
	sup.StartLinkMonitor()

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}
	if verifier.Disabled() {
		log.Warn().Msg("authentication disabled; bench mode only")
	}

	server := api.NewServer(sup, hub, auth.NewMiddleware(verifier), log,
		cfg.Server.ReadTimeout(), cfg.Server.IdleTimeout())

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("maintenance API listening")
		if err := server.Start(cfg.Server.Addr); err != nil {
			serverErr <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		return err
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Stop(stopCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info().Msg("stopped")
	return nil
}

// buildPlatform selects the hardware hook driver from configuration.
func buildPlatform(cfg *config.Config, log zerolog.Logger) (alert.IndicatorPanel, alert.Notifier, radiolink.Transceiver, func(), error) {
	switch cfg.Platform.Driver {
	case "sim":
		return sim.NewPanel(), sim.NewNotifier(), sim.NewTransceiver(), func() {}, nil
	case "modbus":
		client, err := modbusio.Dial(modbusio.Config{
			Endpoint: cfg.Platform.Modbus.Endpoint,
			UnitID:   cfg.Platform.Modbus.UnitID,
			Timeout:  cfg.Platform.Modbus.Timeout(),
		}, log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return client, client, client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown platform driver %q", cfg.Platform.Driver)
	}
}

// buildVerifier selects the token verifier from configuration.
func buildVerifier(cfg *config.Config) (*auth.Verifier, error) {
	switch auth.Mode(cfg.Auth.Mode) {
	case auth.ModeNone:
		return auth.NewDisabledVerifier(), nil
	case auth.ModeHS256:
		return auth.NewHS256Verifier(cfg.Auth.HS256Secret), nil
	case auth.ModeRS256:
		return auth.NewRS256Verifier(cfg.Auth.PublicKeyFile)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
