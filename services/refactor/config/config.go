// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads jsxref configuration.
//
// Values come from three layers, later layers winning:
//
//  1. The embedded default.yaml
//  2. An optional user YAML file
//  3. Environment variables (JSXREF_PORT, JSXREF_LOG_LEVEL,
//     OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER)
//
// The merged result is validated before it is returned.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/jsxref/pkg/logging"
	"github.com/AleutianAI/jsxref/services/refactor/telemetry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidConfig is returned when the merged configuration fails
// validation or a layer cannot be decoded.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables read by Load.
const (
	EnvPort           = "JSXREF_PORT"
	EnvLogLevel       = "JSXREF_LOG_LEVEL"
	EnvTraceExporter  = "OTEL_TRACES_EXPORTER"
	EnvMetricExporter = "OTEL_METRICS_EXPORTER"
)

// Config is the complete jsxref configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Parser    ParserConfig    `yaml:"parser"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Apply     ApplyConfig     `yaml:"apply"`
}

// ServerConfig configures `jsxref serve`.
type ServerConfig struct {
	Port  int  `yaml:"port" validate:"min=1,max=65535"`
	Debug bool `yaml:"debug"`

	// RateLimit is the sustained requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `yaml:"json"`
	LogDir string `yaml:"log_dir"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

// ParserConfig bounds parser input.
type ParserConfig struct {
	MaxFileSize int64 `yaml:"max_file_size" validate:"gt=0"`
}

// WorkspaceConfig describes the directory the Program serves.
type WorkspaceConfig struct {
	Root       string `yaml:"root" validate:"required"`
	Watch      bool   `yaml:"watch"`
	DebounceMS int    `yaml:"debounce_ms" validate:"gte=0,lte=10000"`
}

// ApplyConfig configures writing edits to disk.
type ApplyConfig struct {
	CreateBackups bool   `yaml:"create_backups"`
	BackupSuffix  string `yaml:"backup_suffix" validate:"required_if=CreateBackups true"`
	DryRun        bool   `yaml:"dry_run"`
}

var validate = validator.New()

// Default returns the embedded defaults.
//
// Panics if default.yaml does not decode, which is a build defect.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default.yaml: %v", err))
	}
	return &cfg
}

// Load builds the configuration from the defaults, the file at path (if
// path is non-empty) and the environment.
//
// Outputs:
//
//	*Config - The validated configuration
//	error - Wraps ErrInvalidConfig for decode or validation failures;
//	        a missing file is reported as the os error
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := getenv(EnvTraceExporter); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := getenv(EnvMetricExporter); v != "" {
		cfg.Telemetry.MetricExporter = v
	}
	return nil
}

// Debounce returns the watcher debounce window.
func (w WorkspaceConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// TelemetryOptions converts the telemetry section for telemetry.Init.
func (c *Config) TelemetryOptions(version string) telemetry.Config {
	t := telemetry.DefaultConfig()
	t.ServiceName = c.Telemetry.ServiceName
	t.ServiceVersion = version
	t.TraceExporter = c.Telemetry.TraceExporter
	t.MetricExporter = c.Telemetry.MetricExporter
	t.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	return t
}

// ApplyOptions converts the apply section for textedit.NewApplier.
func (c *Config) ApplyOptions() textedit.ApplyOptions {
	return textedit.ApplyOptions{
		DryRun:        c.Apply.DryRun,
		CreateBackups: c.Apply.CreateBackups,
		BackupSuffix:  c.Apply.BackupSuffix,
	}
}

// LoggingOptions converts the logging section for logging.New. The level
// was validated by Load, so a parse failure falls back to info.
func (c *Config) LoggingOptions(service string) logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.Config{
		Level:   level,
		JSON:    c.Logging.JSON,
		LogDir:  c.Logging.LogDir,
		Service: service,
	}
}
