// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxref/pkg/logging"
	"github.com/AleutianAI/jsxref/services/refactor"
	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/config"
	"github.com/AleutianAI/jsxref/services/refactor/format"
	"github.com/AleutianAI/jsxref/services/refactor/program"
	"github.com/AleutianAI/jsxref/services/refactor/telemetry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
	root       string
	json       bool
}

// app is the state shared by every subcommand, built once in the root
// command's PersistentPreRunE.
type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions

	cfg    *config.Config
	logger *logging.Logger
	svc    *refactor.Service

	shutdownTelemetry func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "jsxref",
		Short:         "Add React useRef hooks to JSX elements",
		Long:          "jsxref adds a `const ref = React.useRef<T>(null)` declaration to the\nenclosing component and a `ref={ref}` attribute to the JSX element at a\ncursor position.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&a.opts.logJSON, "log-json", false, "Write logs as JSON")
	pf.StringVar(&a.opts.root, "root", "", "Workspace root (overrides workspace.root)")
	pf.BoolVar(&a.opts.json, "json", false, "Print results as JSON")

	root.AddCommand(
		newActionsCmd(a),
		newEditsCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
		newListCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger, telemetry and service.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.opts.logLevel)
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Logging.JSON = a.opts.logJSON
	}
	if a.opts.root != "" {
		cfg.Workspace.Root = a.opts.root
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logOpts := cfg.LoggingOptions(cfg.Telemetry.ServiceName)
	logOpts.Stderr = a.stderr
	a.logger = logging.New(logOpts)
	slog.SetDefault(a.logger.Slog())

	// Nothing scrapes a one-shot process.
	tcfg := cfg.TelemetryOptions(refactor.ServiceVersion)
	if cmd.Name() != "serve" && tcfg.MetricExporter == telemetry.ExporterPrometheus {
		tcfg.MetricExporter = telemetry.ExporterNone
	}
	shutdown, err := telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return err
	}
	a.shutdownTelemetry = shutdown

	svc, err := newService(cfg, a.logger.Slog())
	if err != nil {
		return err
	}
	a.svc = svc
	return nil
}

// newService wires the Program, registry and applier described by cfg.
func newService(cfg *config.Config, logger *slog.Logger) (*refactor.Service, error) {
	parser := ast.NewParser(ast.WithMaxFileSize(cfg.Parser.MaxFileSize))

	watchOpts := program.DefaultWatcherOptions()
	watchOpts.DebounceWindow = cfg.Workspace.Debounce()

	prog, err := program.New(cfg.Workspace.Root,
		program.WithParser(parser),
		program.WithWatcherOptions(watchOpts),
		program.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}

	reg, err := refactor.NewDefaultRegistry(logger)
	if err != nil {
		return nil, err
	}

	applier, err := textedit.NewApplier(prog.Root(), cfg.ApplyOptions())
	if err != nil {
		return nil, fmt.Errorf("creating applier: %w", err)
	}

	return refactor.NewService(prog, reg,
		refactor.WithApplier(applier),
		refactor.WithServiceLogger(logger),
	), nil
}

func (a *app) close() {
	var errs []error
	if a.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.shutdownTelemetry(ctx))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(a.stderr, "jsxref: shutdown: %v\n", err)
	}
}

func (a *app) mode() format.Mode {
	if a.opts.json {
		return format.ModeJSON
	}
	return format.ModeText
}

func (a *app) printer() *format.Printer {
	return format.NewPrinter(a.stdout, a.mode())
}

// workspacePath converts a command-line path, relative to the working
// directory, into a path relative to the workspace root. Paths outside
// the root are returned absolute so the Program rejects them.
func (a *app) workspacePath(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(a.svc.Program().Root(), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
