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
	"strings"
)

// Node is a single wire on a board.
//
// Nodes are owned by their Board and are only mutated through it.
type Node struct {
	name string
	op   Op
	a    Operand
	b    Operand

	value  uint16
	cached bool
}

func newNode(name string) *Node {
	return &Node{name: name, op: OpUnconfigured}
}

// Name returns the wire name.
func (n *Node) Name() string { return n.name }

// Op returns the configured operation.
func (n *Node) Op() Op { return n.op }

// Configured reports whether a defining instruction has been applied.
func (n *Node) Configured() bool { return n.op != OpUnconfigured }

// configure replaces the node's operation and operands. The cached value is
// left alone.
func (n *Node) configure(op Op, a, b Operand) {
	n.op = op
	n.a = a
	n.b = b
}

func (n *Node) clear() bool {
	was := n.cached
	n.cached = false
	n.value = 0
	return was
}

// inputs returns the nodes this node reads.
func (n *Node) inputs() []*Node {
	var out []*Node
	if r := n.a.Node(); r != nil {
		out = append(out, r)
	}
	if !n.op.Unary() {
		if r := n.b.Node(); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// expression renders the node's source in instruction syntax, or "" when
// unconfigured.
func (n *Node) expression() string {
	switch {
	case n.op == OpUnconfigured:
		return ""
	case n.op == OpPassthrough:
		return n.a.String()
	case n.op == OpNot:
		return "NOT " + n.a.String()
	}
	var kw string
	switch n.op {
	case OpAnd:
		kw = "AND"
	case OpOr:
		kw = "OR"
	case OpLeftShift:
		kw = "LSHIFT"
	case OpRightShift:
		kw = "RSHIFT"
	}
	return n.a.String() + " " + kw + " " + n.b.String()
}

// String returns a debug description such as "<Node d Bitwise AND x, y>".
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<Node %s %s", n.name, n.op)
	switch {
	case n.op == OpUnconfigured:
	case n.op.Unary():
		fmt.Fprintf(&sb, " %s", n.a)
	default:
		fmt.Fprintf(&sb, " %s, %s", n.a, n.b)
	}
	sb.WriteByte('>')
	return sb.String()
}

// NodeInfo is a read-only view of a node.
type NodeInfo struct {
	// Name is the wire name.
	Name string `json:"name"`

	// Op is the operation name, e.g. "Bitwise AND".
	Op string `json:"op"`

	// Configured is false for wires that are referenced but never defined.
	Configured bool `json:"configured"`

	// Expression is the defining left-hand side, e.g. "x AND y".
	Expression string `json:"expression,omitempty"`

	// Inputs lists the wires read by this node.
	Inputs []string `json:"inputs,omitempty"`

	// Cached reports whether Value holds a computed signal.
	Cached bool `json:"cached"`

	// Value is the cached signal, meaningful only when Cached is true.
	Value uint16 `json:"value"`
}

func (n *Node) info() NodeInfo {
	info := NodeInfo{
		Name:       n.name,
		Op:         n.op.String(),
		Configured: n.Configured(),
		Expression: n.expression(),
		Cached:     n.cached,
		Value:      n.value,
	}
	for _, in := range n.inputs() {
		info.Inputs = append(info.Inputs, in.name)
	}
	return info
}
