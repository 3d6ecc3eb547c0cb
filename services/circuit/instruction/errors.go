// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package instruction

import (
	"errors"
	"fmt"
)

// Sentinel errors for the instruction package.
var (
	// ErrInvalidInstruction is matched by every ParseError.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrTokenCount is returned when the left-hand side has no, or more than
	// three, tokens.
	ErrTokenCount = errors.New("wrong number of tokens")

	// ErrMissingArrow is returned when the "->" token is absent, repeated,
	// or not directly before the target wire.
	ErrMissingArrow = errors.New(`expected a single "->" before the target wire`)

	// ErrUnknownOperator is returned for an unrecognized gate keyword.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrMalformedLiteral is returned when a token starting with a digit is
	// not an unsigned decimal integer.
	ErrMalformedLiteral = errors.New("malformed literal")

	// ErrInvalidWireName is returned when a wire name is required but the
	// token is a literal or a reserved keyword.
	ErrInvalidWireName = errors.New("invalid wire name")
)

// ParseError describes an instruction line that does not match the grammar.
//
// Line is the 1-based line number when the instruction came from a stream,
// or 0 for a single instruction parsed on its own.
type ParseError struct {
	Line int
	Text string
	Err  error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s %q: %v", e.Line, ErrInvalidInstruction, e.Text, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", ErrInvalidInstruction, e.Text, e.Err)
}

// Unwrap returns the specific grammar violation.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidInstruction, so callers can match
// any parse failure without knowing the specific cause.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInstruction
}

func newParseError(text string, err error, detail string) *ParseError {
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return &ParseError{Text: text, Err: err}
}
