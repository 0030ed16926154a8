// Package main implements the mission controller entry point. It wires the
// operator link, the motor controller link, the planning service client and
// the camera into one supervised mission engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/TenLetterx/RPi-MDP10/capture"
	"github.com/TenLetterx/RPi-MDP10/config"
	"github.com/TenLetterx/RPi-MDP10/engine"
	"github.com/TenLetterx/RPi-MDP10/health"
	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/motor"
	"github.com/TenLetterx/RPi-MDP10/operator"
	"github.com/TenLetterx/RPi-MDP10/planner"
	"github.com/TenLetterx/RPi-MDP10/telemetry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "missionctl"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.NewLoader().LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("configuration is valid")
		return nil
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	registry, metricsServer := setupMetrics(cfg, logger)
	if metricsServer != nil {
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = metricsServer.Stop(5 * time.Second) }()
	}

	mirror, natsConn, err := setupTelemetry(cfg, logger)
	if err != nil {
		// Telemetry is optional; a missing broker never stops the robot.
		logger.Warn("telemetry mirror unavailable", "error", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	missionEngine := buildEngine(cfg, registry, mirror, logger)
	if err := missionEngine.Initialize(); err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, missionEngine,
			logger.With("component", "health"))
		if err := healthServer.Start(signalCtx); err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
		defer func() { _ = healthServer.Stop(5 * time.Second) }()
	}

	logger.Info("waiting for operator to connect",
		"listen_addr", cfg.Operator.ListenAddr,
		"motor_addr", cfg.Motor.Addr)
	if err := missionEngine.Start(signalCtx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("received shutdown signal")

	if err := missionEngine.Stop(cliCfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("mission controller shutdown complete")
	return nil
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("starting mission controller",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// setupMetrics creates the prometheus registry and, when enabled, the
// scrape endpoint.
func setupMetrics(cfg *config.Config, logger *slog.Logger) (*metric.Registry, *metric.Server) {
	if !cfg.Metrics.Enabled {
		logger.Info("metrics disabled")
		return nil, nil
	}
	registry := metric.NewRegistry()
	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	logger.Info("metrics enabled", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	return registry, server
}

// setupTelemetry connects the optional NATS event mirror.
func setupTelemetry(cfg *config.Config, logger *slog.Logger) (*telemetry.Mirror, *nats.Conn, error) {
	nc, err := telemetry.Connect(cfg.Telemetry.NATSURL, logger)
	if err != nil {
		return telemetry.NewMirror(cfg.Mission, nil, logger), nil, err
	}
	return telemetry.NewMirror(cfg.Mission, nc, logger), nc, nil
}

// buildEngine assembles the mission engine from the configuration.
func buildEngine(cfg *config.Config, registry *metric.Registry, mirror *telemetry.Mirror, logger *slog.Logger) *engine.Engine {
	operatorLink := operator.NewWSLink(cfg.Operator.ListenAddr, cfg.Operator.Path,
		logger.With("component", "operator-link"))
	motorLink := motor.NewTCPLink(cfg.Motor.Addr, logger.With("component", "motor-link"))
	planClient := planner.NewClient(planner.ClientDeps{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		MetricsRegistry: registry,
		Logger:          logger.With("component", "planner"),
	})
	camera := &capture.CommandCamera{
		Command: cfg.Camera.Command,
		Args:    cfg.Camera.Args,
		Logger:  logger.With("component", "camera"),
	}
	recognizer := capture.NewRecognizer(capture.RecognizerDeps{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Source:  camera,
		Logger:  logger.With("component", "capture"),
	})

	return engine.New(engine.Deps{
		Mission:         cfg.Mission,
		Operator:        operatorLink,
		Motor:           motorLink,
		Planner:         planClient,
		Capturer:        recognizer,
		Mirror:          mirror,
		MetricsRegistry: registry,
		Logger:          logger.With("component", "engine"),
	})
}
