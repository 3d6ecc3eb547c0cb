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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MaxLineBytes bounds a single instruction line read from a stream.
const MaxLineBytes = 64 * 1024

// ReadAll parses every instruction in r, one per line.
//
// Description:
//
//	Each line is trimmed and blank lines are skipped. Parsing continues past
//	bad lines so that every grammar violation is reported at once; each
//	*ParseError carries its 1-based line number.
//
// Inputs:
//
//	r - The instruction stream. Must not be nil.
//
// Outputs:
//
//	[]Instruction - The instructions that parsed, in input order.
//	error - A *multierror.Error of *ParseError values if any line was bad,
//	        or the underlying read error.
func ReadAll(r io.Reader) ([]Instruction, error) {
	if r == nil {
		return nil, errors.New("instruction: nil reader")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineBytes)

	var (
		out    []Instruction
		result *multierror.Error
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		in, err := Parse(line)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
			}
			result = multierror.Append(result, err)
			continue
		}
		out = append(out, in)
	}

	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("read instructions: %w", err)
	}

	return out, result.ErrorOrNil()
}
