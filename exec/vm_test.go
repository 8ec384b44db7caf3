// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmtiny/wasmtiny/wasm"
	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

// uleb/sleb hand-roll the LEB128 encodings the decoder expects, so test
// fixtures can use constants too large to fit the single-byte shortcut.
func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func sleb(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func i32Const(v int32) []byte { return append([]byte{operators.I32Const}, sleb(int64(v))...) }
func f32Const(v float32) []byte {
	bits := make([]byte, 4)
	binary.LittleEndian.PutUint32(bits, math.Float32bits(v))
	return append([]byte{operators.F32Const}, bits...)
}
func localOp(op byte, idx uint32) []byte { return append([]byte{op}, uleb(idx)...) }
func globalOp(op byte, idx uint32) []byte { return append([]byte{op}, uleb(idx)...) }
func memOp(op byte, offset uint32) []byte {
	return append([]byte{op, 0x00}, uleb(offset)...) // align hint unused, always 0
}

var sigAdd = &wasm.FunctionSig{ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}}
var sigThunkI32 = &wasm.FunctionSig{ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}}
var sigVoid = &wasm.FunctionSig{}

func moduleOf(sigs []*wasm.FunctionSig, bodies [][]byte) *wasm.Module {
	m := &wasm.Module{}
	for i, sig := range sigs {
		m.FunctionIndexSpace = append(m.FunctionIndexSpace, wasm.Function{Sig: sig})
		m.Code = appendBody(m.Code, bodies[i])
	}
	return m
}

func appendBody(s *wasm.SectionCode, code []byte) *wasm.SectionCode {
	if s == nil {
		s = &wasm.SectionCode{}
	}
	s.Bodies = append(s.Bodies, wasm.FunctionBody{Code: code})
	return s
}

func TestAddFunction(t *testing.T) {
	code := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32Add)
	module := moduleOf([]*wasm.FunctionSig{sigAdd}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call([]Value{I32(2), I32(3)})
	require.NoError(t, err)
	assert.Equal(t, int32(5), results[0].I32())
}

func TestDivisionByZeroTraps(t *testing.T) {
	code := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32DivS)
	module := moduleOf([]*wasm.FunctionSig{sigAdd}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	_, err = inst.Functions[0].Call([]Value{I32(10), I32(0)})
	require.Error(t, err)
	tr, ok := err.(*Trap)
	require.True(t, ok)
	assert.Equal(t, TrapDivisionByZero, tr.Kind)
}

func TestSignedDivOverflowTraps(t *testing.T) {
	code := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32DivS)
	module := moduleOf([]*wasm.FunctionSig{sigAdd}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	_, err = inst.Functions[0].Call([]Value{I32(math.MinInt32), I32(-1)})
	require.Error(t, err)
	tr, ok := err.(*Trap)
	require.True(t, ok)
	assert.Equal(t, TrapOverflow, tr.Kind)
}

func TestSignedRemOverflowReturnsZero(t *testing.T) {
	code := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32RemS)
	module := moduleOf([]*wasm.FunctionSig{sigAdd}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call([]Value{I32(math.MinInt32), I32(-1)})
	require.NoError(t, err)
	assert.Equal(t, int32(0), results[0].I32())
}

func TestBranchOutOfBlockPreservesArity(t *testing.T) {
	var code []byte
	code = append(code, operators.Nop) // keep the block off instruction index 0
	code = append(code, operators.Block, 0x7f) // block (result i32)
	code = append(code, i32Const(42)...)
	code = append(code, operators.Br, 0x00)
	code = append(code, i32Const(99)...) // dead code, never reached
	code = append(code, operators.End)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(42), results[0].I32())
}

func TestMemoryStoreLoadRoundTrip(t *testing.T) {
	var code []byte
	code = append(code, i32Const(8)...)
	code = append(code, i32Const(123)...)
	code = append(code, memOp(operators.I32Store, 0)...)
	code = append(code, i32Const(8)...)
	code = append(code, memOp(operators.I32Load, 0)...)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	module.Memory = &wasm.SectionMemories{Entries: []wasm.Memory{{Limits: wasm.ResizableLimits{Initial: 1}}}}

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(123), results[0].I32())
}

func TestCallDirect(t *testing.T) {
	add := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32Add)

	var caller []byte
	caller = append(caller, i32Const(3)...)
	caller = append(caller, i32Const(4)...)
	caller = append(caller, operators.Call)
	caller = append(caller, uleb(0)...)

	module := moduleOf([]*wasm.FunctionSig{sigAdd, sigThunkI32}, [][]byte{add, caller})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[1].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(7), results[0].I32())
}

func TestStartFunctionMutatesGlobal(t *testing.T) {
	start := append(append(globalOp(operators.GetGlobal, 0), i32Const(5)...), operators.I32Add)
	start = append(start, globalOp(operators.SetGlobal, 0)...)

	module := moduleOf([]*wasm.FunctionSig{sigVoid}, [][]byte{start})
	module.GlobalIndexSpace = []wasm.GlobalEntry{
		{Type: &wasm.GlobalVar{Type: wasm.ValueTypeI32, Mutable: true}, Init: []byte{0x41, 10}},
	}
	module.Start = &wasm.SectionStartFunction{Index: 0}
	module.Export = &wasm.SectionExports{
		Entries: map[string]wasm.ExportEntry{"g": {FieldStr: "g", Kind: wasm.ExternalGlobal, Index: 0}},
		Order:   []string{"g"},
	}

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	export, ok := inst.Export("g")
	require.True(t, ok)
	assert.Equal(t, int32(15), export.Global.Content().I32())
}

func TestTrapLeavesInstanceUsable(t *testing.T) {
	code := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32DivS)
	module := moduleOf([]*wasm.FunctionSig{sigAdd}, [][]byte{code})

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	_, err = inst.Functions[0].Call([]Value{I32(1), I32(0)})
	require.Error(t, err)

	results, err := inst.Functions[0].Call([]Value{I32(10), I32(2)})
	require.NoError(t, err)
	assert.Equal(t, int32(5), results[0].I32())
}

func TestImportedHostFunction(t *testing.T) {
	module := &wasm.Module{
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "double", Kind: wasm.ExternalFunction},
		}},
	}
	module.FunctionIndexSpace = []wasm.Function{{Sig: sigAdd}}
	code := append(append(localOp(operators.GetLocal, 0), operators.Call), uleb(0)...)
	module.Code = appendBody(nil, code)

	double := NewHostFunction(&wasm.FunctionSig{ParamTypes: []wasm.ValueType{wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
		"double", func(args []Value) ([]Value, error) {
			return []Value{I32(args[0].I32() * 2)}, nil
		})

	inst, err := NewInstance(module, []Import{{Kind: wasm.ExternalFunction, Func: double}})
	require.NoError(t, err)

	results, err := inst.Functions[1].Call([]Value{I32(21), I32(0)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), results[0].I32())
}

func rawSection(id wasm.SectionID, payload []byte) []byte {
	out := append([]byte{byte(id)}, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

// buildAddModuleBinary assembles a minimal binary module, from scratch, for
// an exported function add(a, b) = a + b, exercising the wasm.DecodeModule
// and NewInstance boundary together rather than hand-building a wasm.Module.
func buildAddModuleBinary(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Magic))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Version))

	typePayload := append([]byte{1}, byte(wasm.TypeFunc&0x7f))
	typePayload = append(typePayload, 0x02, 0x7f, 0x7f) // 2 params, i32 i32
	typePayload = append(typePayload, 0x01, 0x7f)        // 1 return, i32
	buf.Write(rawSection(wasm.SectionIDType, typePayload))

	buf.Write(rawSection(wasm.SectionIDFunction, append([]byte{1}, uleb(0)...)))

	name := "add"
	exportPayload := append([]byte{1}, uleb(uint32(len(name)))...)
	exportPayload = append(exportPayload, []byte(name)...)
	exportPayload = append(exportPayload, byte(wasm.ExternalFunction))
	exportPayload = append(exportPayload, uleb(0)...)
	buf.Write(rawSection(wasm.SectionIDExport, exportPayload))

	var body []byte
	body = append(body, 0x00) // no declared locals
	body = append(body, localOp(operators.GetLocal, 0)...)
	body = append(body, localOp(operators.GetLocal, 1)...)
	body = append(body, operators.I32Add)
	body = append(body, 0x0b) // end

	codePayload := append([]byte{1}, uleb(uint32(len(body)))...)
	codePayload = append(codePayload, body...)
	buf.Write(rawSection(wasm.SectionIDCode, codePayload))

	return buf.Bytes()
}

var sigUnaryI32 = &wasm.FunctionSig{ParamTypes: []wasm.ValueType{wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}}

func TestIfTakesThenBranch(t *testing.T) {
	code := append(i32Const(1), operators.If, 0x7f)
	code = append(code, i32Const(10)...)
	code = append(code, operators.Else)
	code = append(code, i32Const(20)...)
	code = append(code, operators.End)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), results[0].I32())
}

func TestIfTakesElseBranch(t *testing.T) {
	code := append(i32Const(0), operators.If, 0x7f)
	code = append(code, i32Const(10)...)
	code = append(code, operators.Else)
	code = append(code, i32Const(20)...)
	code = append(code, operators.End)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(20), results[0].I32())
}

func TestNestedIfTakesInnerElseInsideOuterThen(t *testing.T) {
	var code []byte
	code = append(code, i32Const(1)...) // outer condition: true
	code = append(code, operators.If, 0x7f)
	code = append(code, i32Const(0)...) // inner condition: false
	code = append(code, operators.If, 0x7f)
	code = append(code, i32Const(100)...)
	code = append(code, operators.Else)
	code = append(code, i32Const(200)...)
	code = append(code, operators.End)
	code = append(code, operators.Else)
	code = append(code, i32Const(300)...) // dead: outer took its then-branch
	code = append(code, operators.End)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(200), results[0].I32())
}

// TestBranchOutOfIfAdjustsForConsumedCondition regression-tests recording the
// if-region's blockBases entry after the condition is popped, not before. A
// dummy value sits on the stack beneath the if so a one-slot-too-high base
// changes which value the trailing add combines with (47 vs. 84).
func TestBranchOutOfIfAdjustsForConsumedCondition(t *testing.T) {
	var code []byte
	code = append(code, i32Const(5)...) // dummy, stays below the if
	code = append(code, i32Const(1)...) // if condition: true
	code = append(code, operators.If, 0x7f)
	code = append(code, i32Const(42)...)
	code = append(code, operators.Br, 0x00) // branch directly out of the if
	code = append(code, i32Const(99)...)    // dead code
	code = append(code, operators.Else)
	code = append(code, i32Const(7)...)
	code = append(code, operators.End)
	code = append(code, operators.I32Add)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(47), results[0].I32())
}

// TestIfWithElseLeavesBlockBasesAlignedForLaterBranch regression-tests that
// taking an if's then-branch (falling through its Else marker into
// SkipToEnd) pops the if's blockBases entry exactly once, so a later branch
// elsewhere in the function still reads the correct base. Without that pop,
// a nested block opened right after the if/else inherits one extra (stale)
// blockBases entry, and a subsequent depth-1 branch out of it picks the
// if's leaked base instead of the enclosing block's — it's only visible
// once the retained stack heights differ, which the filler constants below
// are there to arrange (179 if aligned, 180 if the if's base leaked).
func TestIfWithElseLeavesBlockBasesAlignedForLaterBranch(t *testing.T) {
	var code []byte
	code = append(code, i32Const(100)...)
	code = append(code, i32Const(101)...)
	code = append(code, i32Const(102)...) // partner value if blockBases stays aligned
	code = append(code, operators.Block, 0x7f)
	code = append(code, i32Const(103)...) // partner value if the if's base leaks
	code = append(code, i32Const(1)...)   // if condition: true (then-branch taken)
	code = append(code, operators.If, 0x40)
	code = append(code, i32Const(111)...)
	code = append(code, operators.Drop)
	code = append(code, operators.Else)
	code = append(code, i32Const(222)...)
	code = append(code, operators.Drop)
	code = append(code, operators.End)
	code = append(code, operators.Block, 0x7f)
	code = append(code, i32Const(77)...)
	code = append(code, operators.Br, 0x01) // out of both blocks at once
	code = append(code, operators.End)
	code = append(code, operators.End)
	code = append(code, operators.I32Add)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(179), results[0].I32())
}

func TestBrIfShortCircuitsReturn(t *testing.T) {
	code := append(i32Const(42), localOp(operators.GetLocal, 0)...)
	code = append(code, operators.BrIf, 0x00)
	code = append(code, operators.Drop)
	code = append(code, i32Const(7)...)

	module := moduleOf([]*wasm.FunctionSig{sigUnaryI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call([]Value{I32(1)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), results[0].I32())

	results, err = inst.Functions[0].Call([]Value{I32(0)})
	require.NoError(t, err)
	assert.Equal(t, int32(7), results[0].I32())
}

func TestBrTableDispatchesByIndex(t *testing.T) {
	brTable := append([]byte{operators.BrTable}, uleb(2)...)
	brTable = append(brTable, uleb(0)...)
	brTable = append(brTable, uleb(1)...)
	brTable = append(brTable, uleb(2)...)

	var code []byte
	code = append(code, operators.Block, 0x40) // A: default
	code = append(code, operators.Block, 0x40) // B: case 1
	code = append(code, operators.Block, 0x40) // C: case 0
	code = append(code, localOp(operators.GetLocal, 0)...)
	code = append(code, brTable...)
	code = append(code, operators.End) // C end
	code = append(code, i32Const(10)...)
	code = append(code, operators.Return) // case 0 result
	code = append(code, operators.End)    // B end
	code = append(code, i32Const(20)...)
	code = append(code, operators.Return) // case 1 result
	code = append(code, operators.End)    // A end
	code = append(code, i32Const(30)...)

	module := moduleOf([]*wasm.FunctionSig{sigUnaryI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	for idx, want := range map[int32]int32{0: 10, 1: 20, 2: 30, 5: 30} {
		results, err := inst.Functions[0].Call([]Value{I32(idx)})
		require.NoError(t, err)
		assert.Equal(t, want, results[0].I32(), "idx=%d", idx)
	}
}

// TestEuclideanGCDUsesLoopAndBranches exercises a realistic function built
// from get_local/set_local, a loop, a structured if used for the early
// return, and br 0 to re-enter the loop.
func TestEuclideanGCDUsesLoopAndBranches(t *testing.T) {
	var code []byte
	code = append(code, operators.Loop, 0x40)
	code = append(code, localOp(operators.GetLocal, 1)...) // b
	code = append(code, operators.I32Eqz)
	code = append(code, operators.If, 0x40)
	code = append(code, localOp(operators.GetLocal, 0)...) // a
	code = append(code, operators.Return)
	code = append(code, operators.End)
	code = append(code, localOp(operators.GetLocal, 1)...) // t = b
	code = append(code, localOp(operators.SetLocal, 2)...)
	code = append(code, localOp(operators.GetLocal, 0)...)
	code = append(code, localOp(operators.GetLocal, 1)...)
	code = append(code, operators.I32RemS) // b = a rem_s b
	code = append(code, localOp(operators.SetLocal, 1)...)
	code = append(code, localOp(operators.GetLocal, 2)...) // a = t
	code = append(code, localOp(operators.SetLocal, 0)...)
	code = append(code, operators.Br, 0x00)
	code = append(code, operators.End)

	module := &wasm.Module{
		FunctionIndexSpace: []wasm.Function{{Sig: sigAdd}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{
			{Code: code, Locals: []wasm.LocalEntry{{Count: 1, Type: wasm.ValueTypeI32}}},
		}},
	}

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call([]Value{I32(6), I32(27)})
	require.NoError(t, err)
	assert.Equal(t, int32(3), results[0].I32())
}

// TestTruncSatDispatchesThroughOpcode exercises the 0xFC-prefixed
// saturating-truncation family end to end (decode + dispatch), not just
// the numeric kernels in isolation: i32.trunc_sat_f32_s of NaN saturates to
// 0 rather than trapping.
func TestTruncSatDispatchesThroughOpcode(t *testing.T) {
	code := append(f32Const(float32(math.NaN())), operators.TruncSat, 0x00)

	module := moduleOf([]*wasm.FunctionSig{sigThunkI32}, [][]byte{code})
	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[0].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), results[0].I32())
}

func TestCallIndirectDispatchesMatchingSignature(t *testing.T) {
	add := append(append(localOp(operators.GetLocal, 0), localOp(operators.GetLocal, 1)...), operators.I32Add)

	var caller []byte
	caller = append(caller, i32Const(3)...)
	caller = append(caller, i32Const(4)...)
	caller = append(caller, i32Const(0)...) // table index
	caller = append(caller, operators.CallIndirect)
	caller = append(caller, uleb(0)...) // type index
	caller = append(caller, uleb(0)...) // reserved table index

	module := &wasm.Module{
		Types:              &wasm.SectionTypes{Entries: []wasm.FunctionSig{*sigAdd}},
		FunctionIndexSpace: []wasm.Function{{Sig: sigAdd}, {Sig: sigThunkI32}},
		Code:               appendBody(appendBody(nil, add), caller),
		Table: &wasm.SectionTables{Entries: []wasm.Table{
			{ElementType: wasm.ElemTypeAnyFunc, Limits: wasm.ResizableLimits{Initial: 1}},
		}},
		Elements: &wasm.SectionElements{Entries: []wasm.ElementSegment{
			{Index: 0, Offset: []byte{0x41, 0}, Elems: []uint32{0}},
		}},
	}

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	results, err := inst.Functions[1].Call(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(7), results[0].I32())
}

func TestCallIndirectTrapsOnSignatureMismatch(t *testing.T) {
	thunk := i32Const(99)

	var caller []byte
	caller = append(caller, i32Const(3)...)
	caller = append(caller, i32Const(4)...)
	caller = append(caller, i32Const(0)...) // table index
	caller = append(caller, operators.CallIndirect)
	caller = append(caller, uleb(0)...) // type index: declared as sigAdd, but the table holds a niladic function
	caller = append(caller, uleb(0)...) // reserved table index

	module := &wasm.Module{
		Types:              &wasm.SectionTypes{Entries: []wasm.FunctionSig{*sigAdd}},
		FunctionIndexSpace: []wasm.Function{{Sig: sigThunkI32}, {Sig: sigThunkI32}},
		Code:               appendBody(appendBody(nil, thunk), caller),
		Table: &wasm.SectionTables{Entries: []wasm.Table{
			{ElementType: wasm.ElemTypeAnyFunc, Limits: wasm.ResizableLimits{Initial: 1}},
		}},
		Elements: &wasm.SectionElements{Entries: []wasm.ElementSegment{
			{Index: 0, Offset: []byte{0x41, 0}, Elems: []uint32{0}},
		}},
	}

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	_, err = inst.Functions[1].Call(nil)
	require.Error(t, err)
	tr, ok := err.(*Trap)
	require.True(t, ok)
	assert.Equal(t, TrapSignatureMismatch, tr.Kind)
}

func TestDecodeThenInstantiateThenCall(t *testing.T) {
	module, err := wasm.DecodeModule(bytes.NewReader(buildAddModuleBinary(t)))
	require.NoError(t, err)

	inst, err := NewInstance(module, nil)
	require.NoError(t, err)

	export, ok := inst.Export("add")
	require.True(t, ok)

	results, err := export.Func.Call([]Value{I32(19), I32(23)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), results[0].I32())
}
