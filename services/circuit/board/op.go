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
	"fmt"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/instruction"
)

// SignalBits is the width of every wire.
const SignalBits = 16

// Op is the operation a node performs.
type Op int

const (
	// OpUnconfigured marks a wire referenced before its definition.
	OpUnconfigured Op = iota
	// OpPassthrough forwards operand A.
	OpPassthrough
	// OpAnd is the bitwise AND of A and B.
	OpAnd
	// OpOr is the bitwise OR of A and B.
	OpOr
	// OpNot is the 16-bit complement of A.
	OpNot
	// OpLeftShift shifts A left by B places.
	OpLeftShift
	// OpRightShift shifts A right by B places.
	OpRightShift
)

// String returns a human-readable operation name.
func (o Op) String() string {
	switch o {
	case OpUnconfigured:
		return "Not Configured"
	case OpPassthrough:
		return "Pass-through"
	case OpAnd:
		return "Bitwise AND"
	case OpOr:
		return "Bitwise OR"
	case OpNot:
		return "Bitwise NOT"
	case OpLeftShift:
		return "Left Shift"
	case OpRightShift:
		return "Right Shift"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Unary reports whether the operation reads only operand A.
func (o Op) Unary() bool {
	return o == OpPassthrough || o == OpNot
}

// Apply computes the operation and masks the result to SignalBits.
//
// b is ignored for unary operations. Shifts by SignalBits or more yield 0.
func (o Op) Apply(a, b uint16) (uint16, error) {
	x, y := uint64(a), uint64(b)
	var r uint64
	switch o {
	case OpPassthrough:
		r = x
	case OpNot:
		r = ^x
	case OpAnd:
		r = x & y
	case OpOr:
		r = x | y
	case OpLeftShift:
		r = x << y
	case OpRightShift:
		r = x >> y
	case OpUnconfigured:
		return 0, ErrUnconfiguredNode
	default:
		return 0, fmt.Errorf("%w: unsupported operation %d", ErrInvalidInput, int(o))
	}
	return uint16(MaskToBits(SignalBits, r)), nil
}

// MaskToBits returns the lowest numBits bits of v.
func MaskToBits(numBits uint, v uint64) uint64 {
	if numBits >= 64 {
		return v
	}
	return v & (1<<numBits - 1)
}

// opForGate maps a parsed gate keyword to an operation.
func opForGate(g instruction.Gate) (Op, error) {
	switch g {
	case instruction.GatePassthrough:
		return OpPassthrough, nil
	case instruction.GateNot:
		return OpNot, nil
	case instruction.GateAnd:
		return OpAnd, nil
	case instruction.GateOr:
		return OpOr, nil
	case instruction.GateLShift:
		return OpLeftShift, nil
	case instruction.GateRShift:
		return OpRightShift, nil
	default:
		return OpUnconfigured, fmt.Errorf("%w: unknown gate %d", ErrInvalidInput, int(g))
	}
}
