// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "deep", "nested", "circuit.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg CircuitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	if cfg.Target != "a" || cfg.Override != "b" {
		t.Errorf("Target/Override = %q/%q, want a/b", cfg.Target, cfg.Override)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 250ms", cfg.Watch.Debounce)
	}
}

// TestLoad_FirstRun verifies the default file is written under $HOME.
func TestLoad_FirstRun(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var notice bytes.Buffer
	cfg, err := Load("", &notice)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := filepath.Join(home, ".aleutian", "circuit.yaml")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("default config not created at %s: %v", want, err)
	}
	if !strings.Contains(notice.String(), want) {
		t.Errorf("notice %q does not mention %s", notice.String(), want)
	}
	if cfg.Storage.Path != filepath.Join(home, ".aleutian", "circuit", "snapshots") {
		t.Errorf("Storage.Path = %q, want expanded home path", cfg.Storage.Path)
	}

	notice.Reset()
	if _, err := Load("", &notice); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if notice.Len() != 0 {
		t.Errorf("second Load() printed %q, want nothing", notice.String())
	}
}

// TestLoad_ExplicitPath verifies an explicit file overrides defaults.
func TestLoad_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	content := "input: wires.txt\ntarget: z\noverride: y\nserver:\n  port: 9000\nwatch:\n  debounce: 1s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Input != "wires.txt" || cfg.Target != "z" || cfg.Override != "y" {
		t.Errorf("unexpected wiring fields: %+v", cfg)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 50 {
		t.Errorf("Server.RateLimit = %v, want default 50", cfg.Server.RateLimit)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Watch.Debounce = %v, want 1s", cfg.Watch.Debounce)
	}
}

// TestLoad_MissingExplicitPath verifies a missing explicit file is an error.
func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestParse_Invalid verifies validation failures.
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty target", "target: ''\n"},
		{"override equals target", "target: a\noverride: a\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad trace exporter", "telemetry:\n  trace_exporter: zipkin\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative rate", "server:\n  rate_limit: -1\n"},
		{"no storage path", "storage:\n  path: ''\n"},
		{"malformed yaml", "target: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.yaml)
			}
		})
	}
}

// TestParse_InMemoryStorage verifies the storage path may be empty in memory.
func TestParse_InMemoryStorage(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  path: ''\n  in_memory: true\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if !cfg.Storage.InMemory {
		t.Error("Storage.InMemory = false, want true")
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := ExpandHome("~/x/y"); got != "/home/tester/x/y" {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome = %q", got)
	}
}
