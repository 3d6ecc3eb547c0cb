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
	"fmt"
	"log/slog"
	"os"

	"github.com/AleutianAI/AleutianCircuit/cmd/circuit/config"
	"github.com/AleutianAI/AleutianCircuit/pkg/logging"
	"github.com/AleutianAI/AleutianCircuit/pkg/ux"
	"github.com/AleutianAI/AleutianCircuit/services/circuit"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath   string
	inputFlag    string
	logLevelFlag string
	outputMode   string
	targetFlag   string
	overrideFlag string

	cfg    config.CircuitConfig
	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:           "circuit",
		Short:         "Evaluate 16-bit wire and gate circuits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	runCmd = &cobra.Command{
		Use:   "run [instruction file]",
		Short: "Evaluate the target wire, feed it to the override wire, and evaluate again",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}

	evalCmd = &cobra.Command{
		Use:   "eval <wire> [instruction file]",
		Short: "Print the signal on one wire",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runEval,
	}

	dumpCmd = &cobra.Command{
		Use:   "dump [instruction file]",
		Short: "Print the signal on every wire, sorted by name",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDump,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the circuit HTTP API, reloading the instruction file on change",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect stored signal snapshots",
	}

	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotList,
	}

	snapshotDeleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotDelete,
	}

	snapshotShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "Print the signals recorded in a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotShow,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.aleutian/circuit.yaml)")
	pf.StringVarP(&inputFlag, "input", "i", "", "instruction file (overrides the config)")
	pf.StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&outputMode, "output", "o", "", "output mode: rich, machine (default: detect terminal)")

	runCmd.Flags().StringVar(&targetFlag, "target", "", "wire evaluated in both phases (default from config)")
	runCmd.Flags().StringVar(&overrideFlag, "override", "", "wire fed the first result (default from config)")

	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(runCmd, evalCmd, dumpCmd, serveCmd, snapshotCmd)
}

// setup loads the config and installs the process logger.
func setup() error {
	loaded, err := config.Load(configPath, os.Stderr)
	if err != nil {
		return err
	}
	if inputFlag != "" {
		loaded.Input = inputFlag
	}
	if logLevelFlag != "" {
		loaded.Logging.Level = logLevelFlag
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "circuit",
		JSON:    cfg.Logging.JSON,
	})
	slog.SetDefault(logger.Slog().With("session_id", uuid.NewString()))
	return nil
}

// inputPath picks the instruction file from args[i] or the config.
func inputPath(args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	if cfg.Input == "" {
		return "", fmt.Errorf("no instruction file: pass one or set input in the config")
	}
	return cfg.Input, nil
}

// telemetryConfig maps the config file onto telemetry settings. One-shot
// commands never start the Prometheus exporter since nothing would scrape it.
func telemetryConfig(oneShot bool) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = circuit.ServiceVersion
	if cfg.Telemetry.TraceExporter != "" {
		tc.TraceExporter = cfg.Telemetry.TraceExporter
	}
	if cfg.Telemetry.MetricExporter != "" {
		tc.MetricExporter = cfg.Telemetry.MetricExporter
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	tc.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	if oneShot && tc.MetricExporter == telemetry.ExporterPrometheus {
		tc.MetricExporter = telemetry.ExporterNone
	}
	return tc
}

// loadService initializes telemetry and builds a service from the file.
// The returned cleanup flushes telemetry.
func loadService(ctx context.Context, path string) (*circuit.Service, func(), error) {
	shutdown, err := telemetry.Init(ctx, telemetryConfig(true))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	svc, err := circuit.NewService(circuit.ServiceConfig{Logger: slog.Default()})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := svc.LoadFile(ctx, path); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func newPrinter() *ux.Printer {
	return ux.NewPrinter(os.Stdout, ux.ParseMode(outputMode))
}
