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

// Signal is the evaluation result of one wire.
type Signal struct {
	Name  string
	Value uint16
	Err   error
}

// Provide returns the signal on the named wire.
//
// Description:
//
//	Evaluates the wire depth-first. Each input that is a reference is
//	evaluated recursively; every node reached is cached, so a second call
//	performs no operation applications until the cache is cleared.
//
// Inputs:
//
//	name - The wire name.
//
// Outputs:
//
//	uint16 - The 16-bit signal.
//	error - *NodeError wrapping ErrUnknownNode, ErrUnconfiguredNode or
//	        ErrMissingOperand, or *CycleError. A failure deep in the graph
//	        names the node where it occurred. Values cached before the
//	        failure stay cached.
func (b *Board) Provide(name string) (uint16, error) {
	n, ok := b.nodes[name]
	if !ok {
		return 0, NewNodeError(name, ErrUnknownNode)
	}
	e := evaluation{board: b, onPath: make(map[*Node]int)}
	return e.provide(n)
}

// Signals evaluates every wire and returns the results sorted by name.
// A wire that fails to evaluate carries its error; other wires are still
// evaluated.
func (b *Board) Signals() []Signal {
	names := b.Names()
	out := make([]Signal, 0, len(names))
	for _, name := range names {
		v, err := b.Provide(name)
		out = append(out, Signal{Name: name, Value: v, Err: err})
	}
	return out
}

// evaluation tracks the current depth-first path for cycle detection.
type evaluation struct {
	board  *Board
	path   []string
	onPath map[*Node]int
}

func (e *evaluation) provide(n *Node) (uint16, error) {
	if n.cached {
		e.board.stats.CacheHits++
		return n.value, nil
	}
	if i, ok := e.onPath[n]; ok {
		cycle := append(append([]string(nil), e.path[i:]...), n.name)
		return 0, NewCycleError(cycle)
	}
	if n.op == OpUnconfigured {
		return 0, NewNodeError(n.name, ErrUnconfiguredNode)
	}

	e.onPath[n] = len(e.path)
	e.path = append(e.path, n.name)
	defer func() {
		delete(e.onPath, n)
		e.path = e.path[:len(e.path)-1]
	}()

	a, err := e.resolve(n, n.a)
	if err != nil {
		return 0, err
	}
	var bv uint16
	if !n.op.Unary() {
		if bv, err = e.resolve(n, n.b); err != nil {
			return 0, err
		}
	}

	v, err := n.op.Apply(a, bv)
	if err != nil {
		return 0, NewNodeError(n.name, err)
	}
	e.board.stats.Applications++

	n.value = v
	n.cached = true
	return v, nil
}

func (e *evaluation) resolve(owner *Node, o Operand) (uint16, error) {
	switch o.kind {
	case operandLiteral:
		return o.literal, nil
	case operandRef:
		return e.provide(o.ref)
	default:
		return 0, NewNodeError(owner.name, ErrMissingOperand)
	}
}
