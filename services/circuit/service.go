// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package circuit provides the circuit evaluation service and its HTTP API.
//
// The service owns a single board and exposes:
//   - Loading and extending the wiring from instruction text or a file
//   - Evaluating wires, individually or all at once
//   - Overriding a wire and recalculating
//   - The two-phase solve (evaluate, feed back, evaluate again)
//   - Persisting signal snapshots
package circuit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/board"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/instruction"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

// ServiceVersion is the circuit service version.
const ServiceVersion = "0.1.0"

var tracer = otel.Tracer("aleutian.circuit")

// ServiceConfig configures the circuit service.
type ServiceConfig struct {
	// Logger receives service logs. Default: slog.Default()
	Logger *slog.Logger

	// Meter creates the OpenTelemetry instruments.
	// Default: otel.Meter("aleutian.circuit")
	Meter metric.Meter

	// Registerer receives the service's Prometheus counters.
	// Default: a private registry, so several services can coexist in tests.
	Registerer prometheus.Registerer

	// Store persists snapshots. Optional; Snapshot returns
	// ErrSnapshotsDisabled without it.
	Store *snapshot.Store
}

// DefaultServiceConfig returns a config with every optional field unset.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{}
}

// counters are the Prometheus counters kept alongside the OTel instruments.
type counters struct {
	provides      *prometheus.CounterVec
	cacheHits     prometheus.Counter
	parseFailures prometheus.Counter
}

func newCounters(reg prometheus.Registerer) *counters {
	f := promauto.With(reg)
	return &counters{
		provides: f.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_service_provide_total",
			Help: "Wire values served, by outcome",
		}, []string{"status"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "circuit_service_cache_hits_total",
			Help: "Cached wire values reused during evaluation",
		}),
		parseFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "circuit_service_parse_failures_total",
			Help: "Instruction loads rejected for malformed input",
		}),
	}
}

// Service is the circuit evaluation service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. A single RWMutex guards the board.
//	Evaluation takes the write lock because it fills caches; concurrent
//	evaluations of the same wire within one generation are collapsed into
//	one. Every change to the board starts a new generation.
type Service struct {
	mu       sync.RWMutex
	board    *board.Board
	gen      uint64
	source   string
	loadedAt time.Time

	store    *snapshot.Store
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	counters *counters
	evals    singleflight.Group
}

// Health summarizes the service state.
type Health struct {
	Wires    int
	Source   string
	LoadedAt time.Time
	Stats    board.Stats
}

// Solution is the result of the two-phase solve.
type Solution struct {
	Target   string
	Override string
	First    uint16
	Second   uint16
}

// NewService creates a circuit service with an empty board.
//
// Inputs:
//
//	config - Service configuration. Zero values select defaults.
//
// Outputs:
//
//	*Service - The service.
//	error - Non-nil if the metric instruments could not be created.
func NewService(config ServiceConfig) (*Service, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	meter := config.Meter
	if meter == nil {
		meter = otel.Meter("aleutian.circuit")
	}
	reg := config.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m, err := telemetry.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	return &Service{
		board:    board.New(logger),
		store:    config.Store,
		logger:   logger,
		metrics:  m,
		counters: newCounters(reg),
	}, nil
}

// Load replaces the board with one built from r.
//
// Description:
//
//	The new board is built outside the lock and swapped in only if every
//	line parsed, so a bad input leaves the current wiring in place.
//
// Outputs:
//
//	int - The number of instructions applied.
//	error - Wraps instruction.ErrInvalidInstruction for malformed input.
func (s *Service) Load(ctx context.Context, r io.Reader) (int, error) {
	return s.load(ctx, r, "")
}

// LoadFile replaces the board with one built from the file at path and
// remembers path for Reload. The path is remembered even when the file
// fails to parse, so a later Reload picks up the fix.
func (s *Service) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open instructions: %w", err)
	}
	defer f.Close()
	return s.load(ctx, f, path)
}

// Reload rebuilds the board from the file last passed to LoadFile.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()

	if source == "" {
		return ErrNoSource
	}
	_, err := s.LoadFile(ctx, source)
	return err
}

func (s *Service) load(ctx context.Context, r io.Reader, source string) (int, error) {
	ctx, span := tracer.Start(ctx, "circuit.Service.Load")
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, s.logger)

	b := board.New(s.logger)
	n, err := b.Load(r)
	if err != nil {
		s.countLoad(ctx, "error")
		if isParseError(err) {
			s.counters.parseFailures.Inc()
		}
		telemetry.RecordError(span, err)
		logger.Warn("load rejected", slog.String("source", source), slog.String("error", err.Error()))
		if source != "" {
			s.mu.Lock()
			s.source = source
			s.mu.Unlock()
		}
		return 0, err
	}

	s.mu.Lock()
	s.board = b
	s.gen++
	if source != "" {
		s.source = source
	}
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.countLoad(ctx, "ok")
	s.metrics.InstructionsApplied.Add(ctx, int64(n))
	span.SetAttributes(
		attribute.Int("circuit.instructions", n),
		attribute.Int("circuit.wires", b.Len()),
	)
	logger.Info("circuit loaded",
		slog.String("source", source),
		slog.Int("instructions", n),
		slog.Int("wires", b.Len()),
	)
	return n, nil
}

// Apply adds instructions to the current board.
//
// Description:
//
//	Every line is parsed before any is applied. Each redefined wire and
//	everything downstream of it is invalidated; other caches are kept.
//
// Outputs:
//
//	int - The number of instructions applied.
//	error - Wraps instruction.ErrInvalidInstruction for malformed input.
func (s *Service) Apply(ctx context.Context, lines []string) (int, error) {
	ctx, span := tracer.Start(ctx, "circuit.Service.Apply")
	defer span.End()

	ins, err := instruction.ReadAll(joinLines(lines))
	if err != nil {
		s.countLoad(ctx, "error")
		if isParseError(err) {
			s.counters.parseFailures.Inc()
		}
		telemetry.RecordError(span, err)
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.board.ApplyAll(ins); err != nil {
		s.countLoad(ctx, "error")
		telemetry.RecordError(span, err)
		return 0, err
	}
	s.gen++
	for _, in := range ins {
		// Every target exists once ApplyAll has succeeded.
		_, _ = s.board.Invalidate(in.Target)
	}

	s.countLoad(ctx, "ok")
	s.metrics.InstructionsApplied.Add(ctx, int64(len(ins)))
	span.SetAttributes(attribute.Int("circuit.instructions", len(ins)))
	return len(ins), nil
}

// Evaluate returns the signal on the named wire.
//
// Description:
//
//	Concurrent calls for the same wire share one evaluation. Errors are
//	the board's: *board.NodeError or *board.CycleError.
func (s *Service) Evaluate(ctx context.Context, wire string) (uint16, error) {
	if wire == "" {
		return 0, ErrEmptyWireName
	}

	ctx, span := tracer.Start(ctx, "circuit.Service.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("circuit.wire", wire))

	start := time.Now()
	v, err, shared := s.evals.Do(s.evalKey(wire), func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.provide(wire)
	})
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		telemetry.RecordError(span, err)
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	s.metrics.EvaluationsTotal.Add(ctx, 1, attrs)
	s.metrics.EvaluationDuration.Record(ctx, elapsed.Seconds(), attrs)
	s.counters.provides.WithLabelValues(status).Inc()
	span.SetAttributes(attribute.Bool("circuit.shared", shared))

	if err != nil {
		return 0, err
	}

	value, ok := v.(uint16)
	if !ok {
		return 0, fmt.Errorf("unexpected type from evaluation group: got %T", v)
	}
	return value, nil
}

// evalKey scopes an evaluation to the current board generation. A caller
// never joins an evaluation started before a change it has seen complete.
func (s *Service) evalKey(wire string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return wire + "@" + strconv.FormatUint(s.gen, 10)
}

// provide evaluates wire and records cache reuse. Caller holds s.mu.
func (s *Service) provide(wire string) (uint16, error) {
	before := s.board.Stats().CacheHits
	v, err := s.board.Provide(wire)
	if hits := s.board.Stats().CacheHits - before; hits > 0 {
		s.counters.cacheHits.Add(float64(hits))
	}
	return v, err
}

// Describe returns a read-only view of the named wire.
func (s *Service) Describe(ctx context.Context, wire string) (board.NodeInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.board.Lookup(wire)
	if !ok {
		return board.NodeInfo{}, board.NewNodeError(wire, board.ErrUnknownNode)
	}
	return info, nil
}

// Signals evaluates every wire, sorted by name.
func (s *Service) Signals(ctx context.Context) []board.Signal {
	_, span := tracer.Start(ctx, "circuit.Service.Signals")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.board.Stats().CacheHits
	out := s.board.Signals()
	if hits := s.board.Stats().CacheHits - before; hits > 0 {
		s.counters.cacheHits.Add(float64(hits))
	}
	span.SetAttributes(attribute.Int("circuit.wires", len(out)))
	return out
}

// Override redefines wire as the literal value and recalculates the board.
func (s *Service) Override(ctx context.Context, wire string, value uint16) (board.Stats, error) {
	if wire == "" {
		return board.Stats{}, ErrEmptyWireName
	}

	ctx, span := tracer.Start(ctx, "circuit.Service.Override")
	defer span.End()
	span.SetAttributes(
		attribute.String("circuit.wire", wire),
		attribute.Int("circuit.value", int(value)),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.board.Override(wire, value); err != nil {
		telemetry.RecordError(span, err)
		return board.Stats{}, err
	}
	s.gen++
	s.board.Recalculate()
	s.metrics.RecalculationsTotal.Add(ctx, 1)

	telemetry.LoggerWithTrace(ctx, s.logger).Info("wire overridden",
		slog.String("wire", wire),
		slog.Int("value", int(value)),
	)
	return s.board.Stats(), nil
}

// Recalculate clears every cached value.
func (s *Service) Recalculate(ctx context.Context) board.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.board.Recalculate()
	s.metrics.RecalculationsTotal.Add(ctx, 1)
	return s.board.Stats()
}

// Stats returns the board's evaluation counters.
func (s *Service) Stats(ctx context.Context) board.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Stats()
}

// Health reports the loaded source and board size.
func (s *Service) Health(ctx context.Context) Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Health{
		Wires:    s.board.Len(),
		Source:   s.source,
		LoadedAt: s.loadedAt,
		Stats:    s.board.Stats(),
	}
}

// Solve runs the two-phase evaluation.
//
// Description:
//
//	Evaluates target, overrides overrideWire with that value, recalculates,
//	and evaluates target again. The override stays in place afterwards.
//
// Inputs:
//
//	target - The wire evaluated in both phases.
//	overrideWire - The wire fed the first result.
//
// Outputs:
//
//	Solution - Both results.
//	error - The first evaluation or override failure.
func (s *Service) Solve(ctx context.Context, target, overrideWire string) (Solution, error) {
	if target == "" || overrideWire == "" {
		return Solution{}, ErrEmptyWireName
	}

	ctx, span := tracer.Start(ctx, "circuit.Service.Solve")
	defer span.End()
	span.SetAttributes(
		attribute.String("circuit.target", target),
		attribute.String("circuit.override", overrideWire),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	sol := Solution{Target: target, Override: overrideWire}

	first, err := s.provide(target)
	if err != nil {
		telemetry.RecordError(span, err, attribute.Int("circuit.phase", 1))
		return Solution{}, fmt.Errorf("phase 1: %w", err)
	}
	sol.First = first

	if err := s.board.Override(overrideWire, first); err != nil {
		telemetry.RecordError(span, err)
		return Solution{}, fmt.Errorf("override %s: %w", overrideWire, err)
	}
	s.gen++
	s.board.Recalculate()
	s.metrics.RecalculationsTotal.Add(ctx, 1)

	second, err := s.provide(target)
	if err != nil {
		telemetry.RecordError(span, err, attribute.Int("circuit.phase", 2))
		return Solution{}, fmt.Errorf("phase 2: %w", err)
	}
	sol.Second = second

	telemetry.LoggerWithTrace(ctx, s.logger).Info("circuit solved",
		slog.String("target", target),
		slog.Int("first", int(first)),
		slog.Int("second", int(second)),
	)
	return sol, nil
}

// Snapshot evaluates every wire and persists the result.
func (s *Service) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}

	ctx, span := tracer.Start(ctx, "circuit.Service.Snapshot")
	defer span.End()

	s.mu.Lock()
	signals := s.board.Signals()
	epoch := s.board.Stats().Epoch
	source := s.source
	s.mu.Unlock()

	rows := make([]snapshot.Signal, 0, len(signals))
	for _, sig := range signals {
		row := snapshot.Signal{Wire: sig.Name, Value: sig.Value}
		if sig.Err != nil {
			row.Error = sig.Err.Error()
		}
		rows = append(rows, row)
	}

	snap, err := s.store.Save(ctx, source, epoch, rows)
	if err != nil {
		s.metrics.SnapshotsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.SnapshotsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	span.SetAttributes(attribute.String("circuit.snapshot_id", snap.ID))
	return snap, nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context) ([]snapshot.Summary, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.store.List(ctx)
}

// GetSnapshot loads a stored snapshot by ID.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.store.Get(ctx, id)
}

// DeleteSnapshot removes a stored snapshot.
func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrSnapshotsDisabled
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) countLoad(ctx context.Context, status string) {
	s.metrics.LoadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
