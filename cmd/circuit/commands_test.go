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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCircuit/cmd/circuit/config"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInputPath(t *testing.T) {
	cfg = config.DefaultConfig()

	got, err := inputPath([]string{"x.txt"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "x.txt", got)

	got, err = inputPath([]string{"d"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "input.txt", got)

	cfg.Input = ""
	_, err = inputPath(nil, 0)
	assert.Error(t, err)
}

func TestTelemetryConfig_OneShotDisablesPrometheus(t *testing.T) {
	cfg = config.DefaultConfig()

	assert.Equal(t, "none", telemetryConfig(true).MetricExporter)
	assert.Equal(t, "prometheus", telemetryConfig(false).MetricExporter)

	cfg.Telemetry.MetricExporter = "stdout"
	assert.Equal(t, "stdout", telemetryConfig(true).MetricExporter)
}

func TestLoadService_SolvesPuzzle(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Telemetry.TraceExporter = "none"
	path := writeInput(t, "3 -> b\nb LSHIFT 1 -> a\n")

	ctx := context.Background()
	svc, cleanup, err := loadService(ctx, path)
	require.NoError(t, err)
	defer cleanup()

	sol, err := svc.Solve(ctx, cfg.Target, cfg.Override)
	require.NoError(t, err)
	assert.Equal(t, uint16(6), sol.First)
	assert.Equal(t, uint16(12), sol.Second)
}

func TestLoadService_BadInput(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Telemetry.TraceExporter = "none"
	path := writeInput(t, "1 -> a\nthis is not an instruction\n")

	_, _, err := loadService(context.Background(), path)
	assert.Error(t, err)
}

func TestRootCommand_Dump(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	path := writeInput(t, "123 -> x\nNOT x -> h\n")

	rootCmd.SetArgs([]string{"dump", path, "--output", "machine"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "machine", outputMode)
}
