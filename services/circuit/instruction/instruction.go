// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package instruction parses circuit wiring instructions.
//
// An instruction connects a signal source to a target wire:
//
//	123 -> x
//	x AND y -> d
//	p LSHIFT 2 -> q
//	NOT e -> f
//
// Tokens are whitespace-delimited. A value token is a literal if and only if
// its first character is a decimal digit; anything else names a wire.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package instruction

import (
	"strconv"
	"strings"
)

// Arrow separates the signal source from the target wire.
const Arrow = "->"

// Gate identifies the operator keyword of an instruction.
type Gate int

const (
	// GatePassthrough is a bare value: "x -> y".
	GatePassthrough Gate = iota
	// GateNot is "NOT x -> y".
	GateNot
	// GateAnd is "x AND y -> z".
	GateAnd
	// GateOr is "x OR y -> z".
	GateOr
	// GateLShift is "x LSHIFT n -> z".
	GateLShift
	// GateRShift is "x RSHIFT n -> z".
	GateRShift
)

// binaryKeywords maps infix keywords to their gates.
var binaryKeywords = map[string]Gate{
	"AND":    GateAnd,
	"OR":     GateOr,
	"LSHIFT": GateLShift,
	"RSHIFT": GateRShift,
}

// Keyword returns the operator keyword, or "" for a passthrough.
func (g Gate) Keyword() string {
	switch g {
	case GateNot:
		return "NOT"
	case GateAnd:
		return "AND"
	case GateOr:
		return "OR"
	case GateLShift:
		return "LSHIFT"
	case GateRShift:
		return "RSHIFT"
	default:
		return ""
	}
}

// Unary reports whether the gate reads a single input.
func (g Gate) Unary() bool {
	return g == GatePassthrough || g == GateNot
}

// IsKeyword reports whether s is a reserved operator keyword.
func IsKeyword(s string) bool {
	if s == "NOT" {
		return true
	}
	_, ok := binaryKeywords[s]
	return ok
}

// Term is one input of an instruction: a literal or a wire reference.
//
// Literal holds the value as written; masking to the signal width is the
// evaluator's job.
type Term struct {
	Wire    string
	Literal uint64
	literal bool
}

// LiteralTerm returns a literal input.
func LiteralTerm(v uint64) Term {
	return Term{Literal: v, literal: true}
}

// WireTerm returns a reference to the named wire.
func WireTerm(name string) Term {
	return Term{Wire: name}
}

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool {
	return t.literal
}

// IsZero reports whether the term is absent.
func (t Term) IsZero() bool {
	return !t.literal && t.Wire == ""
}

// String renders the term as it appears in an instruction.
func (t Term) String() string {
	if t.literal {
		return strconv.FormatUint(t.Literal, 10)
	}
	return t.Wire
}

// Instruction is one parsed wiring line.
//
// B is the zero Term for unary gates.
type Instruction struct {
	Gate   Gate
	A      Term
	B      Term
	Target string
}

// String renders the instruction in canonical form. Parsing the result
// yields an equal Instruction.
func (in Instruction) String() string {
	var sb strings.Builder
	switch {
	case in.Gate == GatePassthrough:
		sb.WriteString(in.A.String())
	case in.Gate == GateNot:
		sb.WriteString("NOT ")
		sb.WriteString(in.A.String())
	default:
		sb.WriteString(in.A.String())
		sb.WriteByte(' ')
		sb.WriteString(in.Gate.Keyword())
		sb.WriteByte(' ')
		sb.WriteString(in.B.String())
	}
	sb.WriteString(" " + Arrow + " ")
	sb.WriteString(in.Target)
	return sb.String()
}

// Wires returns the wire names the instruction reads, in operand order.
func (in Instruction) Wires() []string {
	var wires []string
	if !in.A.IsLiteral() && in.A.Wire != "" {
		wires = append(wires, in.A.Wire)
	}
	if !in.Gate.Unary() && !in.B.IsLiteral() && in.B.Wire != "" {
		wires = append(wires, in.B.Wire)
	}
	return wires
}

// Parse parses a single instruction line.
//
// Description:
//
//	Splits the line on whitespace, requires "->" as the second-to-last token,
//	and classifies the left-hand side by token count: one token is a
//	passthrough, two must be "NOT v", three must be "v OP v".
//
// Inputs:
//
//	line - The instruction text. Surrounding whitespace is ignored.
//
// Outputs:
//
//	Instruction - The parsed instruction.
//	error - A *ParseError if the line does not match the grammar.
func Parse(line string) (Instruction, error) {
	text := strings.TrimSpace(line)
	tokens := strings.Fields(text)

	arrows := 0
	for _, tok := range tokens {
		if tok == Arrow {
			arrows++
		}
	}
	if arrows != 1 || len(tokens) < 3 || tokens[len(tokens)-2] != Arrow {
		return Instruction{}, newParseError(text, ErrMissingArrow, "")
	}

	target := tokens[len(tokens)-1]
	if why := checkWireName(target); why != "" {
		return Instruction{}, newParseError(text, ErrInvalidWireName, why)
	}

	lhs := tokens[:len(tokens)-2]
	in := Instruction{Target: target}

	switch len(lhs) {
	case 1:
		in.Gate = GatePassthrough
		a, err := parseTerm(text, lhs[0])
		if err != nil {
			return Instruction{}, err
		}
		in.A = a

	case 2:
		if lhs[0] != "NOT" {
			return Instruction{}, newParseError(text, ErrUnknownOperator, strconv.Quote(lhs[0]))
		}
		in.Gate = GateNot
		a, err := parseTerm(text, lhs[1])
		if err != nil {
			return Instruction{}, err
		}
		in.A = a

	case 3:
		gate, ok := binaryKeywords[lhs[1]]
		if !ok {
			return Instruction{}, newParseError(text, ErrUnknownOperator, strconv.Quote(lhs[1]))
		}
		in.Gate = gate
		a, err := parseTerm(text, lhs[0])
		if err != nil {
			return Instruction{}, err
		}
		b, err := parseTerm(text, lhs[2])
		if err != nil {
			return Instruction{}, err
		}
		in.A, in.B = a, b

	default:
		return Instruction{}, newParseError(text, ErrTokenCount, strconv.Itoa(len(lhs))+" tokens before the arrow")
	}

	return in, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(line string) Instruction {
	in, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return in
}

// parseTerm classifies a value token.
func parseTerm(text, tok string) (Term, error) {
	if isDigit(tok[0]) {
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return Term{}, newParseError(text, ErrMalformedLiteral, strconv.Quote(tok))
		}
		return LiteralTerm(v), nil
	}
	if IsKeyword(tok) {
		return Term{}, newParseError(text, ErrInvalidWireName, strconv.Quote(tok)+" is a keyword")
	}
	return WireTerm(tok), nil
}

// checkWireName returns why tok cannot name a wire, or "" if it can.
func checkWireName(tok string) string {
	if isDigit(tok[0]) {
		return strconv.Quote(tok) + " starts with a digit"
	}
	if IsKeyword(tok) {
		return strconv.Quote(tok) + " is a keyword"
	}
	return ""
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
