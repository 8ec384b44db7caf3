// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

const emptyBlockType = 0x40 // single-byte signed LEB128 for wasm.BlockTypeEmpty

func TestNewResolvesBreakOutOfNestedBlock(t *testing.T) {
	// instr 0: block
	// instr 1:   block
	// instr 2:     br 1      -> falls out of both blocks
	// instr 3:   end
	// instr 4: end
	code := []byte{
		operators.Block, emptyBlockType,
		operators.Block, emptyBlockType,
		operators.Br, 1,
		operators.End,
		operators.End,
	}

	c, err := New(code, 0)
	require.NoError(t, err)

	dest := c.BreakTo(2, 1)
	assert.Equal(t, BlockEnd, dest.Kind)
	assert.Equal(t, len(c.Instrs), dest.Target) // past the outermost real end
}

func TestNewResolvesLoopReentry(t *testing.T) {
	// instr 0: loop
	// instr 1:   br 0        -> back to loop's first instruction
	// instr 2: end
	code := []byte{
		operators.Loop, emptyBlockType,
		operators.Br, 0,
		operators.End,
	}

	c, err := New(code, 0)
	require.NoError(t, err)

	dest := c.BreakTo(1, 0)
	assert.Equal(t, LoopStart, dest.Kind)
	assert.Equal(t, 1, dest.Target) // instruction just after Loop itself
	assert.Equal(t, 0, dest.Arity)
}

func TestNewTracksBlockResultArity(t *testing.T) {
	i32BlockType := byte(0x7f) // single-byte signed LEB128 for wasm.ValueTypeI32
	code := []byte{
		operators.Block, i32BlockType,
		operators.I32Const, 7,
		operators.End,
	}

	c, err := New(code, 0)
	require.NoError(t, err)

	dest := c.BreakTo(1, 0) // i32.const sits at index 1, breaking depth 0 falls to the block's own end
	assert.Equal(t, BlockEnd, dest.Kind)
	assert.Equal(t, 1, dest.Arity)
}

func TestNewHandlesBlockAtInstructionZero(t *testing.T) {
	// A block opening at instruction index 0 would collide, in raw index
	// terms, with the implicit outer function frame if that frame were
	// seeded at open index 0 too; New seeds it at -1 instead so the two
	// stay distinct and BreakTo resolves each depth correctly.
	//
	// instr 0: block
	// instr 1:   br 0|1
	// instr 2: end
	code := []byte{
		operators.Block, emptyBlockType,
		operators.Br, 0,
		operators.End,
	}

	c, err := New(code, 1)
	require.NoError(t, err)

	inner := c.BreakTo(1, 0) // falls out of the block only
	assert.Equal(t, BlockEnd, inner.Kind)
	assert.Equal(t, 0, inner.Arity)
	assert.Equal(t, 3, inner.Target) // just past the block's own end

	outer := c.BreakTo(1, 1) // falls out of the function itself
	assert.Equal(t, BlockEnd, outer.Kind)
	assert.GreaterOrEqual(t, outer.Target, len(c.Instrs)) // execution ends, whatever the exact index
	assert.Equal(t, 1, outer.Arity)
}

func TestSkipToElseFindsMatchingElse(t *testing.T) {
	// instr 0: if
	// instr 1:   i32.const 1
	// instr 2: else
	// instr 3:   i32.const 2
	// instr 4: end
	code := []byte{
		operators.If, emptyBlockType,
		operators.I32Const, 1,
		operators.Else,
		operators.I32Const, 2,
		operators.End,
	}

	c, err := New(code, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, c.SkipToElse(0)) // index just past Else
}

func TestSkipToElseWithoutElseSkipsToEnd(t *testing.T) {
	code := []byte{
		operators.If, emptyBlockType,
		operators.I32Const, 1,
		operators.End,
	}

	c, err := New(code, 0)
	require.NoError(t, err)

	assert.Equal(t, len(c.Instrs), c.SkipToElse(0))
}

func TestNewRejectsUnbalancedNesting(t *testing.T) {
	code := []byte{operators.End, operators.End}

	_, err := New(code, 0)
	require.Error(t, err)
	_, ok := err.(MalformedBodyError)
	assert.True(t, ok)
}
