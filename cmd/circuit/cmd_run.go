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
	"github.com/AleutianAI/AleutianCircuit/pkg/ux"
	"github.com/spf13/cobra"
)

// runSolve prints both phases of the puzzle.
func runSolve(cmd *cobra.Command, args []string) error {
	path, err := inputPath(args, 0)
	if err != nil {
		return err
	}
	target, override := cfg.Target, cfg.Override
	if targetFlag != "" {
		target = targetFlag
	}
	if overrideFlag != "" {
		override = overrideFlag
	}

	p := newPrinter()
	svc, cleanup, err := loadService(cmd.Context(), path)
	if err != nil {
		p.Error(err.Error())
		return err
	}
	defer cleanup()

	sol, err := svc.Solve(cmd.Context(), target, override)
	if err != nil {
		p.Error(err.Error())
		return err
	}

	p.Title("Some Assembly Required")
	p.Part(1, sol.Target, sol.First)
	p.Part(2, sol.Target, sol.Second)
	return nil
}

// runEval prints one wire.
func runEval(cmd *cobra.Command, args []string) error {
	path, err := inputPath(args, 1)
	if err != nil {
		return err
	}

	p := newPrinter()
	svc, cleanup, err := loadService(cmd.Context(), path)
	if err != nil {
		p.Error(err.Error())
		return err
	}
	defer cleanup()

	v, err := svc.Evaluate(cmd.Context(), args[0])
	p.Signals([]ux.SignalRow{{Wire: args[0], Value: v, Err: err}})
	return err
}

// runDump prints every wire. Wires that fail are listed with their error
// and do not fail the command.
func runDump(cmd *cobra.Command, args []string) error {
	path, err := inputPath(args, 0)
	if err != nil {
		return err
	}

	p := newPrinter()
	svc, cleanup, err := loadService(cmd.Context(), path)
	if err != nil {
		p.Error(err.Error())
		return err
	}
	defer cleanup()

	signals := svc.Signals(cmd.Context())
	rows := make([]ux.SignalRow, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, ux.SignalRow{Wire: s.Name, Value: s.Value, Err: s.Err})
	}
	p.Signals(rows)
	return nil
}
