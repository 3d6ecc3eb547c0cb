// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the circuit service's OTel instruments.
//
// All names use the "circuit_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// EvaluationsTotal counts wire evaluations by status.
	EvaluationsTotal metric.Int64Counter

	// EvaluationDuration records evaluation latency in seconds.
	EvaluationDuration metric.Float64Histogram

	// LoadsTotal counts instruction loads by status.
	LoadsTotal metric.Int64Counter

	// InstructionsApplied counts instructions applied to the board.
	InstructionsApplied metric.Int64Counter

	// RecalculationsTotal counts whole-board cache invalidations.
	RecalculationsTotal metric.Int64Counter

	// SnapshotsTotal counts snapshots written by status.
	SnapshotsTotal metric.Int64Counter
}

// NewMetrics registers the circuit instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.EvaluationsTotal, err = meter.Int64Counter(
		"circuit_evaluations_total",
		metric.WithDescription("Total wire evaluations"),
		metric.WithUnit("{evaluation}"),
	); err != nil {
		return nil, fmt.Errorf("create evaluations_total: %w", err)
	}

	if m.EvaluationDuration, err = meter.Float64Histogram(
		"circuit_evaluation_duration_seconds",
		metric.WithDescription("Wire evaluation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	); err != nil {
		return nil, fmt.Errorf("create evaluation_duration: %w", err)
	}

	if m.LoadsTotal, err = meter.Int64Counter(
		"circuit_loads_total",
		metric.WithDescription("Total instruction loads"),
		metric.WithUnit("{load}"),
	); err != nil {
		return nil, fmt.Errorf("create loads_total: %w", err)
	}

	if m.InstructionsApplied, err = meter.Int64Counter(
		"circuit_instructions_applied_total",
		metric.WithDescription("Total instructions applied"),
		metric.WithUnit("{instruction}"),
	); err != nil {
		return nil, fmt.Errorf("create instructions_applied_total: %w", err)
	}

	if m.RecalculationsTotal, err = meter.Int64Counter(
		"circuit_recalculations_total",
		metric.WithDescription("Total whole-board recalculations"),
		metric.WithUnit("{recalculation}"),
	); err != nil {
		return nil, fmt.Errorf("create recalculations_total: %w", err)
	}

	if m.SnapshotsTotal, err = meter.Int64Counter(
		"circuit_snapshots_total",
		metric.WithDescription("Total snapshots written"),
		metric.WithUnit("{snapshot}"),
	); err != nil {
		return nil, fmt.Errorf("create snapshots_total: %w", err)
	}

	return m, nil
}
