// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/slices"

	"github.com/wasmtiny/wasmtiny/internal/bytecode"
	"github.com/wasmtiny/wasmtiny/wasm"
	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

// vm holds one function activation's mutable execution state: the operand
// stack, the locals array, and the bookkeeping needed to resolve structured
// branches against the live stack. A fresh vm is built per call (Go's own
// call stack carries recursion, rather than one contiguous array spanning
// the whole call chain).
type vm struct {
	inst *Instance

	stack  []Value
	locals []Value

	// blockBases[d] is the stack height at the entry of the structured
	// region currently open at static depth d (0 is the function's own
	// implicit region). Pushed on Block/Loop/If, popped on the matching
	// End/the taken branch.
	blockBases []int
}

func (v *vm) push(val Value) { v.stack = append(v.stack, val) }
func (v *vm) pop() Value {
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val
}

// run interprets fn's body against params, returning its results or the
// trap that stopped it.
func (v *vm) run(fn *Function, params []Value) ([]Value, *Trap) {
	v.locals = make([]Value, 0, len(params)+len(fn.locals))
	v.locals = append(v.locals, params...)
	for _, t := range fn.locals {
		v.locals = append(v.locals, Zero(t))
	}
	v.blockBases = []int{0}

	instrs := fn.cache.Instrs
	pc := 0

	for pc < len(instrs) {
		instr := instrs[pc]

		switch instr.Op {
		case operators.Unreachable:
			return nil, trap(TrapUnreachable, instr.BytePos)

		case operators.Nop:
			pc++

		case operators.Block:
			v.blockBases = append(v.blockBases, len(v.stack))
			pc++

		case operators.Loop:
			v.blockBases = append(v.blockBases, len(v.stack))
			pc++

		case operators.If:
			cond := v.pop()
			v.blockBases = append(v.blockBases, len(v.stack))
			if cond.I32() == 0 {
				target := fn.cache.SkipToElse(pc)
				// A false condition with no else skips straight past the
				// matching End (SkipToElse falls back to SkipToEnd), so
				// End's own blockBases pop never runs; do it here instead.
				// Landing just past a real Else, by contrast, means the
				// region isn't closing yet — its End still executes normally.
				if target == 0 || instrs[target-1].Op != operators.Else {
					v.blockBases = v.blockBases[:len(v.blockBases)-1]
				}
				pc = target
			} else {
				pc++
			}

		case operators.Else:
			// Falling off the taken if-branch into its else marker exits
			// the region exactly like reaching its end; SkipToEnd jumps
			// past the matching End, so its blockBases pop must happen
			// here instead.
			v.blockBases = v.blockBases[:len(v.blockBases)-1]
			pc = fn.cache.SkipToEnd(pc)

		case operators.End:
			v.blockBases = v.blockBases[:len(v.blockBases)-1]
			pc++

		case operators.Br:
			var tr *Trap
			pc, tr = v.branch(fn, pc, int(instr.Index))
			if tr != nil {
				return nil, tr
			}

		case operators.BrIf:
			cond := v.pop()
			if cond.I32() != 0 {
				var tr *Trap
				pc, tr = v.branch(fn, pc, int(instr.Index))
				if tr != nil {
					return nil, tr
				}
			} else {
				pc++
			}

		case operators.BrTable:
			idx := v.pop().U32()
			depths := instr.Depths
			var depth uint32
			if int(idx) < len(depths)-1 {
				depth = depths[idx]
			} else {
				depth = depths[len(depths)-1]
			}
			var tr *Trap
			pc, tr = v.branch(fn, pc, int(depth))
			if tr != nil {
				return nil, tr
			}

		case operators.Return:
			return v.results(fn, instr.BytePos)

		case operators.Call:
			callee := v.inst.Functions[instr.Index]
			args := v.popN(len(callee.Sig.ParamTypes))
			results, err := callee.Call(args)
			if err != nil {
				if tr, ok := err.(*Trap); ok {
					return nil, tr
				}
				return nil, userTrap(instr.BytePos, err.Error())
			}
			for _, r := range results {
				v.push(r)
			}
			pc++

		case operators.CallIndirect:
			tableIdx := v.pop().U32()
			if len(v.inst.Tables) == 0 {
				return nil, trap(TrapUndefinedElement, instr.BytePos)
			}
			callee, tr := v.inst.Tables[0].Get(tableIdx)
			if tr != nil {
				tr.BytePosition = instr.BytePos
				return nil, tr
			}
			want := &v.inst.Module.Types.Entries[instr.Index]
			if !sigEqual(callee.Sig, want) {
				return nil, trap(TrapSignatureMismatch, instr.BytePos)
			}
			args := v.popN(len(callee.Sig.ParamTypes))
			results, err := callee.Call(args)
			if err != nil {
				if tr, ok := err.(*Trap); ok {
					return nil, tr
				}
				return nil, userTrap(instr.BytePos, err.Error())
			}
			for _, r := range results {
				v.push(r)
			}
			pc++

		case operators.Drop:
			v.pop()
			pc++

		case operators.Select:
			cond := v.pop()
			b := v.pop()
			a := v.pop()
			if cond.I32() != 0 {
				v.push(a)
			} else {
				v.push(b)
			}
			pc++

		case operators.GetLocal:
			v.push(v.locals[instr.Index])
			pc++

		case operators.SetLocal:
			v.locals[instr.Index] = v.pop()
			pc++

		case operators.TeeLocal:
			v.locals[instr.Index] = v.stack[len(v.stack)-1]
			pc++

		case operators.GetGlobal:
			v.push(v.inst.Globals[instr.Index].Content())
			pc++

		case operators.SetGlobal:
			g := v.inst.Globals[instr.Index]
			if err := g.SetContent(v.pop()); err != nil {
				return nil, userTrap(instr.BytePos, err.Error())
			}
			pc++

		case operators.I32Const:
			v.push(I32(int32(instr.I64)))
			pc++
		case operators.I64Const:
			v.push(I64(instr.I64))
			pc++
		case operators.F32Const:
			v.push(F32Bits(instr.F32Bits))
			pc++
		case operators.F64Const:
			v.push(F64Bits(instr.F64Bits))
			pc++

		case operators.I32Load:
			tr := v.loadInto(instr, 4, func(b []byte) Value { return I32(int32(le32(b))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load:
			tr := v.loadInto(instr, 8, func(b []byte) Value { return I64(int64(le64(b))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.F32Load:
			tr := v.loadInto(instr, 4, func(b []byte) Value { return F32Bits(le32(b)) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.F64Load:
			tr := v.loadInto(instr, 8, func(b []byte) Value { return F64Bits(le64(b)) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Load8s:
			tr := v.loadInto(instr, 1, func(b []byte) Value { return I32(int32(int8(b[0]))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Load8u:
			tr := v.loadInto(instr, 1, func(b []byte) Value { return I32(int32(b[0])) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Load16s:
			tr := v.loadInto(instr, 2, func(b []byte) Value { return I32(int32(int16(le16(b)))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Load16u:
			tr := v.loadInto(instr, 2, func(b []byte) Value { return I32(int32(le16(b))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load8s:
			tr := v.loadInto(instr, 1, func(b []byte) Value { return I64(int64(int8(b[0]))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load8u:
			tr := v.loadInto(instr, 1, func(b []byte) Value { return I64(int64(b[0])) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load16s:
			tr := v.loadInto(instr, 2, func(b []byte) Value { return I64(int64(int16(le16(b)))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load16u:
			tr := v.loadInto(instr, 2, func(b []byte) Value { return I64(int64(le16(b))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load32s:
			tr := v.loadInto(instr, 4, func(b []byte) Value { return I64(int64(int32(le32(b)))) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Load32u:
			tr := v.loadInto(instr, 4, func(b []byte) Value { return I64(int64(le32(b))) })
			if tr != nil {
				return nil, tr
			}
			pc++

		case operators.I32Store:
			tr := v.storeFrom(instr, 4, func(b []byte, val Value) { putLE32(b, uint32(val.I32())) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Store:
			tr := v.storeFrom(instr, 8, func(b []byte, val Value) { putLE64(b, uint64(val.I64())) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.F32Store:
			tr := v.storeFrom(instr, 4, func(b []byte, val Value) { putLE32(b, val.F32Bits()) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.F64Store:
			tr := v.storeFrom(instr, 8, func(b []byte, val Value) { putLE64(b, val.F64Bits()) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Store8:
			tr := v.storeFrom(instr, 1, func(b []byte, val Value) { b[0] = byte(val.U32()) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I32Store16:
			tr := v.storeFrom(instr, 2, func(b []byte, val Value) { putLE16(b, uint16(val.U32())) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Store8:
			tr := v.storeFrom(instr, 1, func(b []byte, val Value) { b[0] = byte(val.U64()) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Store16:
			tr := v.storeFrom(instr, 2, func(b []byte, val Value) { putLE16(b, uint16(val.U64())) })
			if tr != nil {
				return nil, tr
			}
			pc++
		case operators.I64Store32:
			tr := v.storeFrom(instr, 4, func(b []byte, val Value) { putLE32(b, uint32(val.U64())) })
			if tr != nil {
				return nil, tr
			}
			pc++

		case operators.CurrentMemory:
			v.push(U32(v.inst.Memories[0].CurrentPages()))
			pc++

		case operators.GrowMemory:
			delta := v.pop().U32()
			prev, ok := v.inst.Memories[0].Grow(delta)
			if !ok {
				v.push(I32(-1))
			} else {
				v.push(U32(prev))
			}
			pc++

		// Comparisons.
		case operators.I32Eqz:
			a := v.pop()
			v.push(boolValue(a.I32() == 0))
			pc++
		case operators.I32Eq:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() == b.I32()))
			pc++
		case operators.I32Ne:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() != b.I32()))
			pc++
		case operators.I32LtS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() < b.I32()))
			pc++
		case operators.I32LtU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U32() < b.U32()))
			pc++
		case operators.I32GtS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() > b.I32()))
			pc++
		case operators.I32GtU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U32() > b.U32()))
			pc++
		case operators.I32LeS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() <= b.I32()))
			pc++
		case operators.I32LeU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U32() <= b.U32()))
			pc++
		case operators.I32GeS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I32() >= b.I32()))
			pc++
		case operators.I32GeU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U32() >= b.U32()))
			pc++

		case operators.I64Eqz:
			a := v.pop()
			v.push(boolValue(a.I64() == 0))
			pc++
		case operators.I64Eq:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() == b.I64()))
			pc++
		case operators.I64Ne:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() != b.I64()))
			pc++
		case operators.I64LtS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() < b.I64()))
			pc++
		case operators.I64LtU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U64() < b.U64()))
			pc++
		case operators.I64GtS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() > b.I64()))
			pc++
		case operators.I64GtU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U64() > b.U64()))
			pc++
		case operators.I64LeS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() <= b.I64()))
			pc++
		case operators.I64LeU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U64() <= b.U64()))
			pc++
		case operators.I64GeS:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.I64() >= b.I64()))
			pc++
		case operators.I64GeU:
			b, a := v.pop(), v.pop()
			v.push(boolValue(a.U64() >= b.U64()))
			pc++

		case operators.F32Eq:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Eq(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Ne:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Ne(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Lt:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Lt(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Gt:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Gt(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Le:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Le(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Ge:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f32Ge(a.F32Bits(), b.F32Bits())))
			pc++

		case operators.F64Eq:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Eq(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Ne:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Ne(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Lt:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Lt(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Gt:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Gt(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Le:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Le(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Ge:
			b, a := v.pop(), v.pop()
			v.push(boolValue(f64Ge(a.F64Bits(), b.F64Bits())))
			pc++

		// Integer arithmetic.
		case operators.I32Clz:
			a := v.pop()
			v.push(I32(int32(bits.LeadingZeros32(a.U32()))))
			pc++
		case operators.I32Ctz:
			a := v.pop()
			v.push(I32(int32(bits.TrailingZeros32(a.U32()))))
			pc++
		case operators.I32Popcnt:
			a := v.pop()
			v.push(I32(int32(bits.OnesCount32(a.U32()))))
			pc++
		case operators.I32Add:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() + b.U32()))
			pc++
		case operators.I32Sub:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() - b.U32()))
			pc++
		case operators.I32Mul:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() * b.U32()))
			pc++
		case operators.I32DivS:
			b, a := v.pop(), v.pop()
			res, tr := i32DivS(a.I32(), b.I32(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I32(res))
			pc++
		case operators.I32DivU:
			b, a := v.pop(), v.pop()
			if b.U32() == 0 {
				return nil, trap(TrapDivisionByZero, instr.BytePos)
			}
			v.push(U32(a.U32() / b.U32()))
			pc++
		case operators.I32RemS:
			b, a := v.pop(), v.pop()
			res, tr := i32RemS(a.I32(), b.I32(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I32(res))
			pc++
		case operators.I32RemU:
			b, a := v.pop(), v.pop()
			if b.U32() == 0 {
				return nil, trap(TrapDivisionByZero, instr.BytePos)
			}
			v.push(U32(a.U32() % b.U32()))
			pc++
		case operators.I32And:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() & b.U32()))
			pc++
		case operators.I32Or:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() | b.U32()))
			pc++
		case operators.I32Xor:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() ^ b.U32()))
			pc++
		case operators.I32Shl:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() << (b.U32() & 31)))
			pc++
		case operators.I32ShrS:
			b, a := v.pop(), v.pop()
			v.push(I32(a.I32() >> (b.U32() & 31)))
			pc++
		case operators.I32ShrU:
			b, a := v.pop(), v.pop()
			v.push(U32(a.U32() >> (b.U32() & 31)))
			pc++
		case operators.I32Rotl:
			b, a := v.pop(), v.pop()
			v.push(U32(bits.RotateLeft32(a.U32(), int(b.U32()&31))))
			pc++
		case operators.I32Rotr:
			b, a := v.pop(), v.pop()
			v.push(U32(bits.RotateLeft32(a.U32(), -int(b.U32()&31))))
			pc++

		case operators.I64Clz:
			a := v.pop()
			v.push(I64(int64(bits.LeadingZeros64(a.U64()))))
			pc++
		case operators.I64Ctz:
			a := v.pop()
			v.push(I64(int64(bits.TrailingZeros64(a.U64()))))
			pc++
		case operators.I64Popcnt:
			a := v.pop()
			v.push(I64(int64(bits.OnesCount64(a.U64()))))
			pc++
		case operators.I64Add:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() + b.U64()))
			pc++
		case operators.I64Sub:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() - b.U64()))
			pc++
		case operators.I64Mul:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() * b.U64()))
			pc++
		case operators.I64DivS:
			b, a := v.pop(), v.pop()
			res, tr := i64DivS(a.I64(), b.I64(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I64(res))
			pc++
		case operators.I64DivU:
			b, a := v.pop(), v.pop()
			if b.U64() == 0 {
				return nil, trap(TrapDivisionByZero, instr.BytePos)
			}
			v.push(U64(a.U64() / b.U64()))
			pc++
		case operators.I64RemS:
			b, a := v.pop(), v.pop()
			res, tr := i64RemS(a.I64(), b.I64(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I64(res))
			pc++
		case operators.I64RemU:
			b, a := v.pop(), v.pop()
			if b.U64() == 0 {
				return nil, trap(TrapDivisionByZero, instr.BytePos)
			}
			v.push(U64(a.U64() % b.U64()))
			pc++
		case operators.I64And:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() & b.U64()))
			pc++
		case operators.I64Or:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() | b.U64()))
			pc++
		case operators.I64Xor:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() ^ b.U64()))
			pc++
		case operators.I64Shl:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() << (b.U64() & 63)))
			pc++
		case operators.I64ShrS:
			b, a := v.pop(), v.pop()
			v.push(I64(a.I64() >> (b.U64() & 63)))
			pc++
		case operators.I64ShrU:
			b, a := v.pop(), v.pop()
			v.push(U64(a.U64() >> (b.U64() & 63)))
			pc++
		case operators.I64Rotl:
			b, a := v.pop(), v.pop()
			v.push(U64(bits.RotateLeft64(a.U64(), int(b.U64()&63))))
			pc++
		case operators.I64Rotr:
			b, a := v.pop(), v.pop()
			v.push(U64(bits.RotateLeft64(a.U64(), -int(b.U64()&63))))
			pc++

		// Float arithmetic, dispatched into the numeric kernel.
		case operators.F32Abs:
			a := v.pop()
			v.push(F32Bits(f32Abs(a.F32Bits())))
			pc++
		case operators.F32Neg:
			a := v.pop()
			v.push(F32Bits(f32Neg(a.F32Bits())))
			pc++
		case operators.F32Ceil:
			a := v.pop()
			v.push(F32Bits(f32Ceil(a.F32Bits())))
			pc++
		case operators.F32Floor:
			a := v.pop()
			v.push(F32Bits(f32Floor(a.F32Bits())))
			pc++
		case operators.F32Trunc:
			a := v.pop()
			v.push(F32Bits(f32Trunc(a.F32Bits())))
			pc++
		case operators.F32Nearest:
			a := v.pop()
			v.push(F32Bits(f32Nearest(a.F32Bits())))
			pc++
		case operators.F32Sqrt:
			a := v.pop()
			v.push(F32Bits(f32Sqrt(a.F32Bits())))
			pc++
		case operators.F32Add:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Add(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Sub:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Sub(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Mul:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Mul(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Div:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Div(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Min:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Min(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Max:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Max(a.F32Bits(), b.F32Bits())))
			pc++
		case operators.F32Copysign:
			b, a := v.pop(), v.pop()
			v.push(F32Bits(f32Copysign(a.F32Bits(), b.F32Bits())))
			pc++

		case operators.F64Abs:
			a := v.pop()
			v.push(F64Bits(f64Abs(a.F64Bits())))
			pc++
		case operators.F64Neg:
			a := v.pop()
			v.push(F64Bits(f64Neg(a.F64Bits())))
			pc++
		case operators.F64Ceil:
			a := v.pop()
			v.push(F64Bits(f64Ceil(a.F64Bits())))
			pc++
		case operators.F64Floor:
			a := v.pop()
			v.push(F64Bits(f64Floor(a.F64Bits())))
			pc++
		case operators.F64Trunc:
			a := v.pop()
			v.push(F64Bits(f64Trunc(a.F64Bits())))
			pc++
		case operators.F64Nearest:
			a := v.pop()
			v.push(F64Bits(f64Nearest(a.F64Bits())))
			pc++
		case operators.F64Sqrt:
			a := v.pop()
			v.push(F64Bits(f64Sqrt(a.F64Bits())))
			pc++
		case operators.F64Add:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Add(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Sub:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Sub(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Mul:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Mul(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Div:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Div(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Min:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Min(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Max:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Max(a.F64Bits(), b.F64Bits())))
			pc++
		case operators.F64Copysign:
			b, a := v.pop(), v.pop()
			v.push(F64Bits(f64Copysign(a.F64Bits(), b.F64Bits())))
			pc++

		// Conversions.
		case operators.I32WrapI64:
			a := v.pop()
			v.push(I32(int32(a.U64())))
			pc++
		case operators.I32TruncSF32:
			a := v.pop()
			res, tr := f32TruncI32(a.F32Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I32(res))
			pc++
		case operators.I32TruncUF32:
			a := v.pop()
			res, tr := f32TruncU32(a.F32Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(U32(res))
			pc++
		case operators.I32TruncSF64:
			a := v.pop()
			res, tr := f64TruncI32(a.F64Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I32(res))
			pc++
		case operators.I32TruncUF64:
			a := v.pop()
			res, tr := f64TruncU32(a.F64Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(U32(res))
			pc++
		case operators.I64ExtendSI32:
			a := v.pop()
			v.push(I64(int64(a.I32())))
			pc++
		case operators.I64ExtendUI32:
			a := v.pop()
			v.push(U64(uint64(a.U32())))
			pc++
		case operators.I64TruncSF32:
			a := v.pop()
			res, tr := f32TruncI64(a.F32Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I64(res))
			pc++
		case operators.I64TruncUF32:
			a := v.pop()
			res, tr := f32TruncU64(a.F32Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(U64(res))
			pc++
		case operators.I64TruncSF64:
			a := v.pop()
			res, tr := f64TruncI64(a.F64Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(I64(res))
			pc++
		case operators.I64TruncUF64:
			a := v.pop()
			res, tr := f64TruncU64(a.F64Bits(), instr.BytePos)
			if tr != nil {
				return nil, tr
			}
			v.push(U64(res))
			pc++
		case operators.F32ConvertSI32:
			a := v.pop()
			v.push(F32Bits(f32FromI32(a.I32())))
			pc++
		case operators.F32ConvertUI32:
			a := v.pop()
			v.push(F32Bits(f32FromU32(a.U32())))
			pc++
		case operators.F32ConvertSI64:
			a := v.pop()
			v.push(F32Bits(f32FromI64(a.I64())))
			pc++
		case operators.F32ConvertUI64:
			a := v.pop()
			v.push(F32Bits(f32FromU64(a.U64())))
			pc++
		case operators.F32DemoteF64:
			a := v.pop()
			v.push(F32Bits(f32FromF64(a.F64Bits())))
			pc++
		case operators.F64ConvertSI32:
			a := v.pop()
			v.push(F64Bits(f64FromI32(a.I32())))
			pc++
		case operators.F64ConvertUI32:
			a := v.pop()
			v.push(F64Bits(f64FromU32(a.U32())))
			pc++
		case operators.F64ConvertSI64:
			a := v.pop()
			v.push(F64Bits(f64FromI64(a.I64())))
			pc++
		case operators.F64ConvertUI64:
			a := v.pop()
			v.push(F64Bits(f64FromU64(a.U64())))
			pc++
		case operators.F64PromoteF32:
			a := v.pop()
			v.push(F64Bits(f64FromF32(a.F32Bits())))
			pc++

		case operators.I32ReinterpretF32:
			a := v.pop()
			v.push(I32(int32(a.F32Bits())))
			pc++
		case operators.I64ReinterpretF64:
			a := v.pop()
			v.push(I64(int64(a.F64Bits())))
			pc++
		case operators.F32ReinterpretI32:
			a := v.pop()
			v.push(F32Bits(a.U32()))
			pc++
		case operators.F64ReinterpretI64:
			a := v.pop()
			v.push(F64Bits(a.U64()))
			pc++

		case operators.TruncSat:
			a := v.pop()
			switch instr.Index {
			case 0:
				v.push(I32(f32TruncI32Sat(a.F32Bits())))
			case 1:
				v.push(U32(f32TruncU32Sat(a.F32Bits())))
			case 2:
				v.push(I32(f64TruncI32Sat(a.F64Bits())))
			case 3:
				v.push(U32(f64TruncU32Sat(a.F64Bits())))
			case 4:
				v.push(I64(f32TruncI64Sat(a.F32Bits())))
			case 5:
				v.push(U64(f32TruncU64Sat(a.F32Bits())))
			case 6:
				v.push(I64(f64TruncI64Sat(a.F64Bits())))
			case 7:
				v.push(U64(f64TruncU64Sat(a.F64Bits())))
			}
			pc++

		default:
			return nil, userTrap(instr.BytePos, fmt.Sprintf("not implemented: opcode %#x", instr.Op))
		}
	}

	return v.results(fn, -1)
}

// branch takes the static branch at depth from instruction index from,
// truncating the operand stack to the destination region's base (preserving
// its arity-many top values) and returning the pc to resume at.
func (v *vm) branch(fn *Function, from int, depth int) (int, *Trap) {
	dest := fn.cache.BreakTo(from, depth)

	var base int
	switch dest.Kind {
	case bytecode.BlockEnd:
		base = v.blockBases[len(v.blockBases)-1-depth]
		v.blockBases = v.blockBases[:len(v.blockBases)-1-depth]
	case bytecode.LoopStart:
		base = v.blockBases[len(v.blockBases)-1-depth]
		v.blockBases = v.blockBases[:len(v.blockBases)-depth]
	}

	if dest.Arity > 0 {
		kept := slices.Clone(v.stack[len(v.stack)-dest.Arity:])
		v.stack = append(v.stack[:base], kept...)
	} else {
		v.stack = v.stack[:base]
	}

	return dest.Target, nil
}

// results pops the function's declared result values off the stack in
// return order, used by both Return and falling off the end of the body.
func (v *vm) results(fn *Function, pos int) ([]Value, *Trap) {
	n := len(fn.Sig.ReturnTypes)
	if len(v.stack) < n {
		return nil, trap(TrapSignatureMismatch, pos)
	}
	return slices.Clone(v.stack[len(v.stack)-n:]), nil
}

func (v *vm) popN(n int) []Value {
	args := slices.Clone(v.stack[len(v.stack)-n:])
	v.stack = v.stack[:len(v.stack)-n]
	return args
}

func (v *vm) effectiveAddress(instr bytecode.Instr) (uint32, bool) {
	base := v.pop().U32()
	addr := uint64(base) + uint64(instr.MemOffset)
	if addr > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(addr), true
}

func (v *vm) loadInto(instr bytecode.Instr, size uint32, decode func([]byte) Value) *Trap {
	addr, ok := v.effectiveAddress(instr)
	if !ok {
		return trap(TrapOutOfBounds, instr.BytePos)
	}
	mem := v.inst.Memories[0].Bytes()
	if uint64(addr)+uint64(size) > uint64(len(mem)) {
		return trap(TrapOutOfBounds, instr.BytePos)
	}
	v.push(decode(mem[addr : addr+size]))
	return nil
}

func (v *vm) storeFrom(instr bytecode.Instr, size uint32, encode func([]byte, Value)) *Trap {
	val := v.pop()
	addr, ok := v.effectiveAddress(instr)
	if !ok {
		return trap(TrapOutOfBounds, instr.BytePos)
	}
	mem := v.inst.Memories[0].Bytes()
	if uint64(addr)+uint64(size) > uint64(len(mem)) {
		return trap(TrapOutOfBounds, instr.BytePos)
	}
	encode(mem[addr:addr+size], val)
	return nil
}

func boolValue(b bool) Value {
	if b {
		return I32(1)
	}
	return I32(0)
}

func sigEqual(a, b *wasm.FunctionSig) bool {
	if len(a.ParamTypes) != len(b.ParamTypes) || len(a.ReturnTypes) != len(b.ReturnTypes) {
		return false
	}
	for i := range a.ParamTypes {
		if a.ParamTypes[i] != b.ParamTypes[i] {
			return false
		}
	}
	for i := range a.ReturnTypes {
		if a.ReturnTypes[i] != b.ReturnTypes[i] {
			return false
		}
	}
	return true
}

func i32DivS(a, b int32, pos int) (int32, *Trap) {
	if b == 0 {
		return 0, trap(TrapDivisionByZero, pos)
	}
	if a == -2147483648 && b == -1 {
		return 0, trap(TrapOverflow, pos)
	}
	return a / b, nil
}

func i32RemS(a, b int32, pos int) (int32, *Trap) {
	if b == 0 {
		return 0, trap(TrapDivisionByZero, pos)
	}
	if a == -2147483648 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func i64DivS(a, b int64, pos int) (int64, *Trap) {
	if b == 0 {
		return 0, trap(TrapDivisionByZero, pos)
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, trap(TrapOverflow, pos)
	}
	return a / b, nil
}

func i64RemS(a, b int64, pos int) (int64, *Trap) {
	if b == 0 {
		return 0, trap(TrapDivisionByZero, pos)
	}
	if a == -9223372036854775808 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func le64(b []byte) uint64 {
	return uint64(le32(b[:4])) | uint64(le32(b[4:8]))<<32
}

func putLE16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putLE64(b []byte, v uint64) {
	putLE32(b[:4], uint32(v))
	putLE32(b[4:8], uint32(v>>32))
}
