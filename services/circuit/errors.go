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
	"errors"
	"net/http"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/board"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/instruction"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
)

// Sentinel errors for the circuit service.
var (
	// ErrNoSource indicates Reload was called on a service that was never
	// loaded from a file.
	ErrNoSource = errors.New("no instruction file configured")

	// ErrSnapshotsDisabled indicates the service was created without a
	// snapshot store.
	ErrSnapshotsDisabled = errors.New("snapshots are disabled")

	// ErrEmptyWireName indicates a wire name argument was empty.
	ErrEmptyWireName = errors.New("wire name must not be empty")
)

// statusFor maps a service error to an HTTP status and a machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, instruction.ErrInvalidInstruction):
		return http.StatusBadRequest, "INVALID_INSTRUCTION"
	case errors.Is(err, ErrEmptyWireName):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, board.ErrUnknownNode):
		return http.StatusNotFound, "UNKNOWN_WIRE"
	case errors.Is(err, board.ErrUnconfiguredNode):
		return http.StatusUnprocessableEntity, "UNCONFIGURED_WIRE"
	case errors.Is(err, board.ErrCyclicDependency):
		return http.StatusUnprocessableEntity, "CYCLIC_DEPENDENCY"
	case errors.Is(err, board.ErrMissingOperand):
		return http.StatusUnprocessableEntity, "MISSING_OPERAND"
	case errors.Is(err, snapshot.ErrNotFound):
		return http.StatusNotFound, "SNAPSHOT_NOT_FOUND"
	case errors.Is(err, snapshot.ErrCorrupt), errors.Is(err, snapshot.ErrVersionMismatch):
		return http.StatusInternalServerError, "SNAPSHOT_CORRUPT"
	case errors.Is(err, ErrSnapshotsDisabled):
		return http.StatusServiceUnavailable, "SNAPSHOTS_DISABLED"
	case errors.Is(err, ErrNoSource):
		return http.StatusConflict, "NO_SOURCE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// isParseError reports whether err is, or aggregates, an instruction parse failure.
func isParseError(err error) bool {
	return errors.Is(err, instruction.ErrInvalidInstruction)
}
