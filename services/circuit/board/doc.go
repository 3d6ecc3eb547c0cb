// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package board holds a circuit of named wires and evaluates their signals.
//
// A Board maps wire names to nodes. Each node has an operation and up to two
// operands, where an operand is either a literal or a reference to another
// node. Wires may be referenced before they are defined; such wires exist as
// unconfigured placeholders until their defining instruction arrives.
//
// Evaluation is depth-first and memoized. Every value is a 16-bit unsigned
// signal: literals and results are masked to 16 bits, and NOT complements
// within that window. Once a node has a cached value it is never recomputed
// until Recalculate or Invalidate clears it.
//
// # Thread Safety
//
// A Board is not safe for concurrent use. Provide fills caches, so even
// evaluation is a write. Callers that share a Board must serialize access;
// the circuit service does this with a single registry-level lock.
package board
