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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianCircuit/pkg/ux"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
	"github.com/spf13/cobra"
)

func runSnapshotList(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer closeDB()

	summaries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	p := newPrinter()
	if len(summaries) == 0 {
		p.Warning("no snapshots stored")
		return nil
	}
	for _, s := range summaries {
		created := time.UnixMilli(s.CreatedAt).UTC().Format(time.RFC3339)
		p.Box(s.ID, fmt.Sprintf("%s  epoch %d  %d wires  %d failed  %s",
			created, s.Epoch, s.Wires, s.Failed, s.Source))
	}
	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer closeDB()

	p := newPrinter()
	snap, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		p.Error(err.Error())
		return err
	}

	p.Title(fmt.Sprintf("snapshot %s (%s)", snap.ID, snap.Created().Format(time.RFC3339)))
	rows := make([]ux.SignalRow, 0, len(snap.Signals))
	for _, s := range snap.Signals {
		row := ux.SignalRow{Wire: s.Wire, Value: s.Value}
		if s.Error != "" {
			row.Err = errors.New(s.Error)
		}
		rows = append(rows, row)
	}
	p.Signals(rows)
	return nil
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer closeDB()

	p := newPrinter()
	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		p.Error(err.Error())
		return err
	}
	p.Success("deleted snapshot " + args[0])
	return nil
}

func openSnapshotStore() (*snapshot.Store, func(), error) {
	if cfg.Storage.InMemory {
		return nil, nil, errors.New("snapshot storage is in-memory; nothing persists between runs")
	}
	db, err := openStorage()
	if err != nil {
		return nil, nil, err
	}
	store, err := snapshot.NewStore(db, slog.Default())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}
