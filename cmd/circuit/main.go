// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command circuit evaluates 16-bit wire and gate circuits.
//
// Usage:
//
//	circuit run input.txt            # two-phase solve: evaluate a, feed it to b, evaluate a again
//	circuit eval d input.txt         # one wire
//	circuit dump input.txt           # every wire, sorted
//	circuit serve                    # HTTP API with file watching and snapshots
//	circuit snapshot list            # stored snapshots
//
// Example requests against serve:
//
//	curl http://localhost:12230/v1/circuit/health
//	curl http://localhost:12230/v1/circuit/wires/a
//	curl -X POST http://localhost:12230/v1/circuit/override \
//	  -H "Content-Type: application/json" \
//	  -d '{"wire": "b", "value": 3176}'
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
