// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the board package.
var (
	// ErrUnknownNode is returned when a wire name was never mentioned.
	ErrUnknownNode = errors.New("unknown wire")

	// ErrUnconfiguredNode is returned when evaluation reaches a wire that was
	// referenced but never defined.
	ErrUnconfiguredNode = errors.New("wire has no defining instruction")

	// ErrCyclicDependency is returned when a wire depends on itself.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrMissingOperand is returned when an operation lacks a required input.
	ErrMissingOperand = errors.New("missing operand")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// NodeError wraps an error with the wire that caused it.
type NodeError struct {
	NodeName string
	Err      error
}

// Error returns the error message.
func (e *NodeError) Error() string {
	return fmt.Sprintf("wire %q: %v", e.NodeName, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// NewNodeError creates a NodeError.
func NewNodeError(nodeName string, err error) *NodeError {
	return &NodeError{
		NodeName: nodeName,
		Err:      err,
	}
}

// CycleError provides details about a detected cycle.
//
// Path starts and ends with the same wire.
type CycleError struct {
	Path []string
}

// Error returns the cycle description.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCyclicDependency.
func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// NewCycleError creates a CycleError.
func NewCycleError(path []string) *CycleError {
	return &CycleError{Path: path}
}
