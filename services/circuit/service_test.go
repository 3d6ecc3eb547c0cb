// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package circuit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/board"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/instruction"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
	storage "github.com/AleutianAI/AleutianCircuit/services/circuit/storage/badger"
)

const exampleCircuit = `123 -> x
456 -> y
x AND y -> d
x OR y -> e
x LSHIFT 2 -> f
y RSHIFT 2 -> g
NOT x -> h
NOT y -> i
`

var exampleSignals = map[string]uint16{
	"d": 72,
	"e": 507,
	"f": 492,
	"g": 114,
	"h": 65412,
	"i": 65079,
	"x": 123,
	"y": 456,
}

func newTestService(t *testing.T, store *snapshot.Store) *Service {
	t.Helper()
	cfg := DefaultServiceConfig()
	cfg.Store = store
	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc
}

func newLoadedService(t *testing.T) *Service {
	t.Helper()
	svc := newTestService(t, nil)
	n, err := svc.Load(context.Background(), strings.NewReader(exampleCircuit))
	require.NoError(t, err)
	require.Equal(t, 8, n)
	return svc
}

func newTestSnapshotStore(t *testing.T) *snapshot.Store {
	t.Helper()
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := snapshot.NewStore(db, nil)
	require.NoError(t, err)
	return store
}

func TestService_EvaluateExampleCircuit(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	for wire, want := range exampleSignals {
		got, err := svc.Evaluate(ctx, wire)
		require.NoError(t, err, wire)
		assert.Equal(t, want, got, wire)
	}

	assert.Equal(t, float64(8), testutil.ToFloat64(svc.counters.provides.WithLabelValues("ok")))
}

func TestService_EvaluateCountsCacheHits(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(svc.counters.cacheHits))

	_, err = svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.counters.cacheHits))
}

func TestService_EvaluateErrors(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Apply(ctx, []string{"p AND q -> r", "1 -> p"})
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, "nope")
	assert.ErrorIs(t, err, board.ErrUnknownNode)

	_, err = svc.Evaluate(ctx, "r")
	assert.ErrorIs(t, err, board.ErrUnconfiguredNode)

	_, err = svc.Evaluate(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyWireName)

	assert.Equal(t, float64(2), testutil.ToFloat64(svc.counters.provides.WithLabelValues("error")))
}

func TestService_EvaluateConcurrent(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Evaluate(ctx, "i")
			if err == nil && v != 65079 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestService_EvaluateAfterOverrideDoesNotJoinStaleEvaluation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Load(ctx, strings.NewReader("1 -> b\nb -> a\n"))
	require.NoError(t, err)

	// An evaluation of a that finished reading the board before the
	// override and has not yet returned.
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.evals.Do(svc.evalKey("a"), func() (interface{}, error) {
			close(started)
			<-release
			return uint16(1), nil
		})
	}()
	<-started
	t.Cleanup(func() {
		close(release)
		<-done
	})

	_, err = svc.Override(ctx, "b", 7)
	require.NoError(t, err)

	v, err := svc.Evaluate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)
}

func TestService_ChangesStartNewGeneration(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	keys := map[string]bool{svc.evalKey("d"): true}
	next := func(name string) {
		key := svc.evalKey("d")
		assert.False(t, keys[key], name)
		keys[key] = true
	}

	_, err := svc.Apply(ctx, []string{"1 -> x"})
	require.NoError(t, err)
	next("apply")

	_, err = svc.Override(ctx, "y", 2)
	require.NoError(t, err)
	next("override")

	svc.Recalculate(ctx)
	next("recalculate")

	_, err = svc.Load(ctx, strings.NewReader("5 -> a\n"))
	require.NoError(t, err)
	next("load")

	_, err = svc.Solve(ctx, "a", "b")
	require.NoError(t, err)
	next("solve")
}

func TestService_LoadRejectsBadInputAndKeepsBoard(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Load(ctx, strings.NewReader("1 -> z\nx XOR y -> w\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, instruction.ErrInvalidInstruction)
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.counters.parseFailures))

	v, err := svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, uint16(72), v)

	_, err = svc.Describe(ctx, "z")
	assert.ErrorIs(t, err, board.ErrUnknownNode)
}

func TestService_ApplyInvalidatesRedefinedWire(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	v, err := svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	require.Equal(t, uint16(72), v)

	n, err := svc.Apply(ctx, []string{"255 -> x"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err = svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, uint16(255&456), v)
}

func TestService_ApplyIsAllOrNothing(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, []string{"1 -> x", "bogus line"})
	require.Error(t, err)

	v, err := svc.Evaluate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, uint16(123), v)
}

func TestService_OverrideRecalculates(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, "d")
	require.NoError(t, err)

	stats, err := svc.Override(ctx, "y", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Epoch)

	v, err := svc.Evaluate(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), v)

	v, err = svc.Evaluate(ctx, "i")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	_, err = svc.Override(ctx, "", 1)
	assert.ErrorIs(t, err, ErrEmptyWireName)
}

func TestService_Solve(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Load(ctx, strings.NewReader("3 -> b\nb LSHIFT 1 -> a\n"))
	require.NoError(t, err)

	sol, err := svc.Solve(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, Solution{Target: "a", Override: "b", First: 6, Second: 12}, sol)

	info, err := svc.Describe(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "6", info.Expression)
}

func TestService_SolveMissingTarget(t *testing.T) {
	svc := newLoadedService(t)

	_, err := svc.Solve(context.Background(), "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrUnknownNode)
	assert.Contains(t, err.Error(), "phase 1")
}

func TestService_RecalculateAndStats(t *testing.T) {
	svc := newLoadedService(t)
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, "e")
	require.NoError(t, err)

	stats := svc.Recalculate(ctx)
	assert.Equal(t, uint64(1), stats.Epoch)
	assert.Equal(t, 8, stats.Wires)

	info, err := svc.Describe(ctx, "e")
	require.NoError(t, err)
	assert.False(t, info.Cached)
}

func TestService_Signals(t *testing.T) {
	svc := newLoadedService(t)

	signals := svc.Signals(context.Background())
	require.Len(t, signals, len(exampleSignals))
	for _, sig := range signals {
		require.NoError(t, sig.Err)
		assert.Equal(t, exampleSignals[sig.Name], sig.Value, sig.Name)
	}
}

func TestService_LoadFileAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.txt")
	require.NoError(t, os.WriteFile(path, []byte("5 -> a\n"), 0o644))

	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Reload(ctx), ErrNoSource)

	_, err := svc.LoadFile(ctx, path)
	require.NoError(t, err)
	v, err := svc.Evaluate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), v)

	require.NoError(t, os.WriteFile(path, []byte("7 -> a\n"), 0o644))
	require.NoError(t, svc.Reload(ctx))

	v, err = svc.Evaluate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v)

	health := svc.Health(ctx)
	assert.Equal(t, path, health.Source)
	assert.False(t, health.LoadedAt.IsZero())

	_, err = svc.LoadFile(ctx, filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestService_ReloadAfterFixingBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.txt")
	require.NoError(t, os.WriteFile(path, []byte("x XOR y -> z\n"), 0o644))

	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.LoadFile(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, instruction.ErrInvalidInstruction)
	assert.Equal(t, path, svc.Health(ctx).Source)

	require.NoError(t, os.WriteFile(path, []byte("5 -> a\n"), 0o644))
	require.NoError(t, svc.Reload(ctx))

	v, err := svc.Evaluate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), v)
}

func TestService_SnapshotRoundTrip(t *testing.T) {
	svc := newTestService(t, newTestSnapshotStore(t))
	ctx := context.Background()

	_, err := svc.Load(ctx, strings.NewReader("1 -> a\nq -> b\n"))
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Signals, 3)

	got, err := svc.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)

	v, ok := got.Value("a")
	assert.True(t, ok)
	assert.Equal(t, uint16(1), v)

	_, ok = got.Value("b")
	assert.False(t, ok)

	list, err := svc.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Failed)
}

func TestService_SnapshotsDisabled(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
	_, err = svc.Snapshots(ctx)
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
	_, err = svc.GetSnapshot(ctx, "x")
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
}
