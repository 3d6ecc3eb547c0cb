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

import "time"

type CircuitConfig struct {
	// Input is the instruction file evaluated by run, eval and dump.
	Input string `yaml:"input"`

	// Target is the wire reported by run, e.g. "a".
	Target string `yaml:"target" validate:"required"`

	// Override is the wire fed the first result in the second phase, e.g. "b".
	Override string `yaml:"override" validate:"required,nefield=Target"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"` // e.g. ~/.aleutian/logs
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	// TraceExporter is one of none, stdout, otlp, jaeger.
	TraceExporter string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp jaeger"`

	// MetricExporter is one of none, stdout, prometheus.
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`

	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"` // e.g. localhost:4317
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type StorageConfig struct {
	// Path is the badger directory for snapshots. Ignored when InMemory.
	Path     string `yaml:"path" validate:"required_without=InMemory"`
	InMemory bool   `yaml:"in_memory"`
}

type ServerConfig struct {
	Port      int     `yaml:"port" validate:"min=1,max=65535"`
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
	Burst     int     `yaml:"burst" validate:"gte=0"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() CircuitConfig {
	return CircuitConfig{
		Input:    "input.txt",
		Target:   "a",
		Override: "b",
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
		},
		Storage: StorageConfig{
			Path: "~/.aleutian/circuit/snapshots",
		},
		Server: ServerConfig{
			Port:      12230,
			RateLimit: 50,
			Burst:     100,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
	}
}
