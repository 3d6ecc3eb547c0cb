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
	"github.com/AleutianAI/AleutianCircuit/services/circuit/board"
	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
)

// InstructionsRequest is the request body for POST /v1/circuit/instructions.
type InstructionsRequest struct {
	// Instructions are wiring lines, e.g. "x AND y -> d".
	Instructions []string `json:"instructions" binding:"required,min=1"`

	// Replace discards the current board instead of extending it.
	Replace bool `json:"replace"`
}

// InstructionsResponse is the response for POST /v1/circuit/instructions.
type InstructionsResponse struct {
	Applied int  `json:"applied"`
	Wires   int  `json:"wires"`
	Replace bool `json:"replace"`
}

// WireResponse is the response for GET /v1/circuit/wires/:name.
type WireResponse struct {
	Wire       string   `json:"wire"`
	Value      uint16   `json:"value"`
	Op         string   `json:"op"`
	Expression string   `json:"expression,omitempty"`
	Inputs     []string `json:"inputs,omitempty"`
}

// SignalResponse is one wire in a signals listing.
type SignalResponse struct {
	Wire  string `json:"wire"`
	Value uint16 `json:"value"`

	// Error is set when the wire could not be evaluated.
	Error string `json:"error,omitempty"`
}

// SignalsResponse is the response for GET /v1/circuit/wires.
type SignalsResponse struct {
	Signals []SignalResponse `json:"signals"`
	Failed  int              `json:"failed"`
	Stats   board.Stats      `json:"stats"`
}

// OverrideRequest is the request body for POST /v1/circuit/override.
type OverrideRequest struct {
	Wire string `json:"wire" binding:"required"`

	// Value is a pointer so that 0 passes the required check.
	Value *uint16 `json:"value" binding:"required"`
}

// OverrideResponse is the response for POST /v1/circuit/override.
type OverrideResponse struct {
	Wire  string      `json:"wire"`
	Value uint16      `json:"value"`
	Stats board.Stats `json:"stats"`
}

// SolveRequest is the request body for POST /v1/circuit/solve.
type SolveRequest struct {
	// Target defaults to "a".
	Target string `json:"target"`

	// Override defaults to "b".
	Override string `json:"override"`
}

// SolveResponse is the response for POST /v1/circuit/solve.
type SolveResponse struct {
	Target   string `json:"target"`
	Override string `json:"override"`
	First    uint16 `json:"first"`
	Second   uint16 `json:"second"`
}

// StatsResponse is the response for POST /v1/circuit/recalculate.
type StatsResponse struct {
	Stats board.Stats `json:"stats"`
}

// SnapshotListResponse is the response for GET /v1/circuit/snapshots.
type SnapshotListResponse struct {
	Snapshots []snapshot.Summary `json:"snapshots"`
}

// HealthResponse is the response for GET /v1/circuit/health.
type HealthResponse struct {
	Status   string      `json:"status"`
	Version  string      `json:"version"`
	Wires    int         `json:"wires"`
	Source   string      `json:"source,omitempty"`
	LoadedAt int64       `json:"loaded_at,omitempty"` // Unix milliseconds UTC
	Stats    board.Stats `json:"stats"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is an optional error code.
	Code string `json:"code,omitempty"`

	// Details contains additional error details.
	Details string `json:"details,omitempty"`
}
