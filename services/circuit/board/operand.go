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

import "strconv"

type operandKind uint8

const (
	operandNone operandKind = iota
	operandLiteral
	operandRef
)

// Operand is one input of a node: absent, a literal signal, or a reference
// to another node.
type Operand struct {
	kind    operandKind
	literal uint16
	ref     *Node
}

// Literal returns a literal operand.
func Literal(v uint16) Operand {
	return Operand{kind: operandLiteral, literal: v}
}

// Ref returns an operand reading node n.
func Ref(n *Node) Operand {
	return Operand{kind: operandRef, ref: n}
}

// IsZero reports whether the operand is absent.
func (o Operand) IsZero() bool {
	return o.kind == operandNone
}

// IsLiteral reports whether the operand is a literal.
func (o Operand) IsLiteral() bool {
	return o.kind == operandLiteral
}

// Node returns the referenced node, or nil for literals and absent operands.
func (o Operand) Node() *Node {
	if o.kind != operandRef {
		return nil
	}
	return o.ref
}

// String renders the literal value or the referenced wire name.
func (o Operand) String() string {
	switch o.kind {
	case operandLiteral:
		return strconv.FormatUint(uint64(o.literal), 10)
	case operandRef:
		return o.ref.name
	default:
		return ""
	}
}
