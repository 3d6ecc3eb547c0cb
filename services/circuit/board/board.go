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
	"io"
	"log/slog"
	"sort"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/instruction"
)

// Stats counts evaluation work on a board.
type Stats struct {
	// Wires is the number of nodes, configured or not.
	Wires int `json:"wires"`

	// Applications is the number of operations computed since creation.
	Applications uint64 `json:"applications"`

	// CacheHits is the number of times a cached value was reused.
	CacheHits uint64 `json:"cache_hits"`

	// Epoch increments on every Recalculate.
	Epoch uint64 `json:"epoch"`
}

// Board is a registry of wires keyed by name.
//
// Description:
//
//	Instructions are applied in any order. A wire mentioned as an input
//	before its definition is created as an unconfigured placeholder, and is
//	configured in place when its definition arrives, so earlier references
//	see the definition. Applying an instruction to an existing wire replaces
//	its configuration unconditionally; cached values are not cleared until
//	Recalculate or Invalidate.
//
// Thread Safety:
//
//	Not safe for concurrent use.
type Board struct {
	nodes map[string]*Node

	// readers maps a wire to the wires whose operands reference it.
	readers map[string]map[string]struct{}

	logger *slog.Logger
	stats  Stats
}

// New creates an empty board.
//
// Inputs:
//
//	logger - Logger for board operations. If nil, uses slog.Default().
//
// Outputs:
//
//	*Board - The empty board.
func New(logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		nodes:   make(map[string]*Node),
		readers: make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// AddInstruction parses one instruction line and applies it.
//
// Outputs:
//
//	error - A *instruction.ParseError if the line is malformed. The board is
//	        unchanged on error.
func (b *Board) AddInstruction(line string) error {
	in, err := instruction.Parse(line)
	if err != nil {
		return err
	}
	return b.Apply(in)
}

// Apply configures the target wire of a parsed instruction.
//
// Description:
//
//	Validates the instruction, creates placeholders for any wire it reads
//	that does not exist yet, then (re)configures the target. Literals are
//	masked to 16 bits here.
//
// Inputs:
//
//	in - The instruction. Binary gates must carry both operands.
//
// Outputs:
//
//	error - ErrInvalidInput or ErrMissingOperand (as *NodeError) if the
//	        instruction cannot be applied. The board is unchanged on error.
func (b *Board) Apply(in instruction.Instruction) error {
	op, err := check(in)
	if err != nil {
		return err
	}
	b.configure(in, op)
	return nil
}

// ApplyAll applies instructions in order. Every instruction is checked
// first, so on error the board is unchanged.
//
// Outputs:
//
//	error - The first invalid instruction's error, as Apply reports it.
func (b *Board) ApplyAll(ins []instruction.Instruction) error {
	ops := make([]Op, len(ins))
	for i, in := range ins {
		op, err := check(in)
		if err != nil {
			return err
		}
		ops[i] = op
	}
	for i, in := range ins {
		b.configure(in, ops[i])
	}
	return nil
}

// check validates an instruction without touching the board.
func check(in instruction.Instruction) (Op, error) {
	if in.Target == "" {
		return OpUnconfigured, fmt.Errorf("%w: empty target wire", ErrInvalidInput)
	}
	op, err := opForGate(in.Gate)
	if err != nil {
		return OpUnconfigured, NewNodeError(in.Target, err)
	}
	if in.A.IsZero() || (!op.Unary() && in.B.IsZero()) {
		return OpUnconfigured, NewNodeError(in.Target, ErrMissingOperand)
	}
	return op, nil
}

func (b *Board) configure(in instruction.Instruction, op Op) {
	a := b.operand(in.A)
	var bo Operand
	if !op.Unary() {
		bo = b.operand(in.B)
	}

	target := b.node(in.Target)
	b.unlinkInputs(target)
	target.configure(op, a, bo)
	b.linkInputs(target)

	b.logger.Debug("wire configured",
		slog.String("wire", target.name),
		slog.String("op", op.String()),
		slog.String("expression", target.expression()),
	)
}

// Load applies every instruction in r.
//
// Description:
//
//	Lines are trimmed and blank lines skipped. The whole stream is parsed
//	and checked before anything is applied: if any line is malformed, no
//	instruction is applied and the returned error lists every bad line.
//
// Outputs:
//
//	int - The number of instructions applied.
//	error - Non-nil if reading or parsing failed.
func (b *Board) Load(r io.Reader) (int, error) {
	ins, err := instruction.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if err := b.ApplyAll(ins); err != nil {
		return 0, err
	}
	b.logger.Info("instructions loaded",
		slog.Int("instructions", len(ins)),
		slog.Int("wires", len(b.nodes)),
	)
	return len(ins), nil
}

// Override redefines a wire as the literal value, equivalent to applying
// "<value> -> name". Caches are not cleared; call Recalculate afterwards.
func (b *Board) Override(name string, value uint16) error {
	return b.Apply(instruction.Instruction{
		Gate:   instruction.GatePassthrough,
		A:      instruction.LiteralTerm(uint64(value)),
		Target: name,
	})
}

// Lookup returns a read-only view of the named wire.
func (b *Board) Lookup(name string) (NodeInfo, bool) {
	n, ok := b.nodes[name]
	if !ok {
		return NodeInfo{}, false
	}
	return n.info(), true
}

// Names returns every wire name in sorted order.
func (b *Board) Names() []string {
	names := make([]string, 0, len(b.nodes))
	for name := range b.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of wires, configured or not.
func (b *Board) Len() int {
	return len(b.nodes)
}

// Stats returns evaluation counters.
func (b *Board) Stats() Stats {
	s := b.stats
	s.Wires = len(b.nodes)
	return s
}

// Dependents returns every wire that reads name directly or transitively,
// sorted by name. The wire itself is not included unless it sits on a cycle.
func (b *Board) Dependents(name string) ([]string, error) {
	if _, ok := b.nodes[name]; !ok {
		return nil, NewNodeError(name, ErrUnknownNode)
	}

	seen := make(map[string]struct{})
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for reader := range b.readers[cur] {
			if _, ok := seen[reader]; ok {
				continue
			}
			seen[reader] = struct{}{}
			queue = append(queue, reader)
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate clears the cached value of name and of every wire that
// depends on it. Other caches are kept.
//
// Outputs:
//
//	int - The number of cached values cleared.
//	error - *NodeError wrapping ErrUnknownNode if name does not exist.
func (b *Board) Invalidate(name string) (int, error) {
	deps, err := b.Dependents(name)
	if err != nil {
		return 0, err
	}

	cleared := 0
	if b.nodes[name].clear() {
		cleared++
	}
	for _, d := range deps {
		if b.nodes[d].clear() {
			cleared++
		}
	}

	b.logger.Debug("wire invalidated",
		slog.String("wire", name),
		slog.Int("dependents", len(deps)),
		slog.Int("cleared", cleared),
	)
	return cleared, nil
}

// Recalculate clears every cached value and starts a new epoch.
// Configuration is kept.
func (b *Board) Recalculate() {
	for _, n := range b.nodes {
		n.clear()
	}
	b.stats.Epoch++
	b.logger.Debug("board recalculated", slog.Uint64("epoch", b.stats.Epoch))
}

// node returns the named wire, creating a placeholder if needed.
func (b *Board) node(name string) *Node {
	n, ok := b.nodes[name]
	if !ok {
		n = newNode(name)
		b.nodes[name] = n
	}
	return n
}

func (b *Board) operand(t instruction.Term) Operand {
	if t.IsLiteral() {
		return Literal(uint16(MaskToBits(SignalBits, t.Literal)))
	}
	return Ref(b.node(t.Wire))
}

func (b *Board) linkInputs(n *Node) {
	for _, in := range n.inputs() {
		set, ok := b.readers[in.name]
		if !ok {
			set = make(map[string]struct{})
			b.readers[in.name] = set
		}
		set[n.name] = struct{}{}
	}
}

func (b *Board) unlinkInputs(n *Node) {
	for _, in := range n.inputs() {
		if set, ok := b.readers[in.name]; ok {
			delete(set, n.name)
			if len(set) == 0 {
				delete(b.readers, in.name)
			}
		}
	}
}
