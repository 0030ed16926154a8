// Package config loads and validates the mission controller configuration
// from a JSON file with environment-variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Config is the complete mission controller configuration.
type Config struct {
	Mission   string          `json:"mission"`
	Operator  OperatorConfig  `json:"operator"`
	Motor     MotorConfig     `json:"motor"`
	API       APIConfig       `json:"api"`
	Camera    CameraConfig    `json:"camera"`
	Metrics   MetricsConfig   `json:"metrics"`
	Health    HealthConfig    `json:"health"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Log       LogConfig       `json:"log"`
}

// OperatorConfig describes the operator-facing link endpoint.
type OperatorConfig struct {
	ListenAddr string `json:"listen_addr"`
	Path       string `json:"path"`
}

// MotorConfig describes the motor controller link.
type MotorConfig struct {
	Addr string `json:"addr"`
}

// APIConfig describes the path-planning/recognition service.
type APIConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// CameraConfig describes the still-capture command.
type CameraConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// MetricsConfig describes the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

// HealthConfig describes the liveness endpoint.
type HealthConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// TelemetryConfig describes the optional NATS event mirror. An empty URL
// disables it.
type TelemetryConfig struct {
	NATSURL string `json:"nats_url"`
}

// LogConfig describes log output.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Mission: "task1",
		Operator: OperatorConfig{
			ListenAddr: ":8765",
			Path:       "/operator",
		},
		Motor: MotorConfig{
			Addr: "127.0.0.1:5000",
		},
		API: APIConfig{
			BaseURL: "http://localhost:5005",
			Timeout: 30 * time.Second,
		},
		Camera: CameraConfig{
			Command: "rpicam-still",
			Args:    []string{"-n", "-t", "500", "-o", "-"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9100,
			Path:    "/metrics",
		},
		Health: HealthConfig{
			Enabled: true,
			Port:    8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the controller cannot start
// with.
func (c *Config) Validate() error {
	if c.Mission == "" {
		return errors.New("mission is required")
	}
	if c.Operator.ListenAddr == "" {
		return errors.New("operator.listen_addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Operator.ListenAddr); err != nil {
		return fmt.Errorf("operator.listen_addr %q: %w", c.Operator.ListenAddr, err)
	}
	if c.Motor.Addr == "" {
		return errors.New("motor.addr is required")
	}
	if _, _, err := net.SplitHostPort(c.Motor.Addr); err != nil {
		return fmt.Errorf("motor.addr %q: %w", c.Motor.Addr, err)
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d out of range", c.Metrics.Port)
	}
	if c.Health.Enabled && (c.Health.Port <= 0 || c.Health.Port > 65535) {
		return fmt.Errorf("health.port %d out of range", c.Health.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}

// Loader loads configuration files over the defaults.
type Loader struct {
	envPrefix  string
	validation bool
}

// NewLoader creates a loader with validation enabled.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "MISSION",
		validation: true,
	}
}

// EnableValidation enables or disables validation on load.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads one JSON file over the defaults, applies environment
// overrides, and validates. An empty path loads defaults only.
func (l *Loader) LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the endpoints
// without editing the file.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(l.envPrefix + "_OPERATOR_ADDR"); v != "" {
		cfg.Operator.ListenAddr = v
	}
	if v := os.Getenv(l.envPrefix + "_MOTOR_ADDR"); v != "" {
		cfg.Motor.Addr = v
	}
	if v := os.Getenv(l.envPrefix + "_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(l.envPrefix + "_NATS_URL"); v != "" {
		cfg.Telemetry.NATSURL = v
	}
	if v := os.Getenv(l.envPrefix + "_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(l.envPrefix + "_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
