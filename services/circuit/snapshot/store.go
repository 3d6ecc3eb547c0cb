// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	storage "github.com/AleutianAI/AleutianCircuit/services/circuit/storage/badger"
)

var tracer = otel.Tracer("aleutian.circuit.snapshot")

const keyPrefix = "snapshot/"

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Store saves and loads snapshots in BadgerDB.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Store struct {
	db     *storage.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store over an open database.
//
// Inputs:
//
//	db - The open database. Must not be nil. The store does not close it.
//	logger - Logger for store operations. If nil, uses slog.Default().
//
// Outputs:
//
//	*Store - The store.
//	error - ErrInvalidInput if db is nil.
func NewStore(db *storage.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db must not be nil", ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Save records a new snapshot.
//
// Description:
//
//	Assigns an ID and creation time, seals the snapshot with a checksum and
//	writes it. The caller's signals slice is copied.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	source - Where the instructions came from, e.g. a file path. May be empty.
//	epoch - The board epoch the signals were computed in.
//	signals - The wire signals.
//
// Outputs:
//
//	*Snapshot - The stored snapshot.
//	error - Non-nil if encoding or the write fails.
func (s *Store) Save(ctx context.Context, source string, epoch uint64, signals []Signal) (*Snapshot, error) {
	ctx, span := tracer.Start(ctx, "snapshot.Save",
		trace.WithAttributes(
			attribute.String("snapshot.source", source),
			attribute.Int("snapshot.wires", len(signals)),
		),
	)
	defer span.End()

	snap := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC().UnixMilli(),
		Source:    source,
		Epoch:     epoch,
		Signals:   append([]Signal(nil), signals...),
	}
	if snap.Signals == nil {
		snap.Signals = []Signal{}
	}
	if err := snap.seal(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(key(snap.ID), data)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	span.SetAttributes(attribute.String("snapshot.id", snap.ID))
	s.logger.Info("snapshot saved",
		slog.String("snapshot_id", snap.ID),
		slog.Int("wires", len(snap.Signals)),
		slog.Uint64("epoch", epoch),
	)
	return snap, nil
}

// Get loads and verifies a snapshot.
//
// Outputs:
//
//	*Snapshot - The snapshot.
//	error - ErrNotFound, ErrCorrupt or ErrVersionMismatch, or a read error.
func (s *Store) Get(ctx context.Context, id string) (*Snapshot, error) {
	ctx, span := tracer.Start(ctx, "snapshot.Get",
		trace.WithAttributes(attribute.String("snapshot.id", id)),
	)
	defer span.End()

	if id == "" {
		return nil, fmt.Errorf("%w: id must not be empty", ErrInvalidInput)
	}

	var snap Snapshot
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	if err := snap.Verify(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("snapshot failed verification",
			slog.String("snapshot_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return &snap, nil
}

// List returns summaries of every stored snapshot, newest first.
// Entries that cannot be decoded are skipped and logged.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	ctx, span := tracer.Start(ctx, "snapshot.List")
	defer span.End()

	var out []Summary
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var snap Snapshot
				if err := json.Unmarshal(val, &snap); err != nil {
					return err
				}
				out = append(out, snap.Summary())
				return nil
			})
			if err != nil {
				s.logger.Warn("skipping unreadable snapshot",
					slog.String("key", string(item.Key())),
					slog.String("error", err.Error()),
				)
			}
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	span.SetAttributes(attribute.Int("snapshot.count", len(out)))
	return out, nil
}

// Delete removes a snapshot. Deleting a missing snapshot returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidInput)
	}
	return s.db.Update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return err
		}
		return txn.Delete(key(id))
	})
}
