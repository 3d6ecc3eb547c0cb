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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opCase struct {
	a, b uint16
	want uint16
}

func runOpCases(t *testing.T, op Op, cases []opCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%d", tc.a, tc.b), func(t *testing.T) {
			got, err := op.Apply(tc.a, tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOp_RightShift(t *testing.T) {
	runOpCases(t, OpRightShift, []opCase{
		{456, 2, 114}, {4, 1, 2}, {4, 2, 1}, {4, 3, 0}, {65535, 16, 0},
	})
}

func TestOp_LeftShift(t *testing.T) {
	runOpCases(t, OpLeftShift, []opCase{
		{123, 2, 492}, {1, 1, 2}, {2, 1, 4}, {1, 17, 0}, {1, 15, 32768}, {1, 64, 0}, {1, 65535, 0},
	})
}

func TestOp_Or(t *testing.T) {
	runOpCases(t, OpOr, []opCase{
		{1, 1, 1}, {1, 0, 1}, {2, 2, 2}, {1, 2, 3}, {1, 3, 3}, {7, 2, 7}, {4, 2, 6},
	})
}

func TestOp_And(t *testing.T) {
	runOpCases(t, OpAnd, []opCase{
		{1, 1, 1}, {1, 0, 0}, {2, 2, 2}, {1, 2, 0}, {1, 3, 1}, {7, 2, 2},
	})
}

func TestOp_Not(t *testing.T) {
	runOpCases(t, OpNot, []opCase{
		{0, 0, 65535}, {65535, 0, 0}, {123, 0, 65412}, {456, 0, 65079},
	})
}

func TestOp_Passthrough(t *testing.T) {
	runOpCases(t, OpPassthrough, []opCase{
		{123, 0, 123}, {456, 0, 456}, {789, 0, 789},
	})
}

func TestOp_UnaryIgnoresB(t *testing.T) {
	got, err := OpNot.Apply(0, 12345)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), got)
}

func TestOp_Unconfigured(t *testing.T) {
	_, err := OpUnconfigured.Apply(1, 2)
	assert.ErrorIs(t, err, ErrUnconfiguredNode)

	_, err = Op(99).Apply(1, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "Not Configured", OpUnconfigured.String())
	assert.Equal(t, "Pass-through", OpPassthrough.String())
	assert.Equal(t, "Bitwise AND", OpAnd.String())
	assert.Equal(t, "Bitwise OR", OpOr.String())
	assert.Equal(t, "Bitwise NOT", OpNot.String())
	assert.Equal(t, "Left Shift", OpLeftShift.String())
	assert.Equal(t, "Right Shift", OpRightShift.String())
	assert.Equal(t, "Op(99)", Op(99).String())
}

func TestMaskToBits(t *testing.T) {
	tests := []struct {
		in, want uint64
	}{
		{0, 0}, {65535, 65535}, {65536, 0}, {456, 456}, {131071, 65535},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskToBits(16, tt.in), "input %d", tt.in)
	}
	assert.Equal(t, uint64(0xff), MaskToBits(8, 0x1ff))
	assert.Equal(t, uint64(1<<63), MaskToBits(64, 1<<63))
}
