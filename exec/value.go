// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"fmt"
	"math"

	"github.com/wasmtiny/wasmtiny/wasm"
)

// Kind tags the variant a Value holds.
type Kind uint8

const (
	KindI32 Kind = iota
	KindI64
	KindF32
	KindF64
	KindFuncRef
)

func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindFuncRef:
		return "funcref"
	default:
		return "<unknown kind>"
	}
}

// Value is a tagged variant over the four numeric wasm types plus an
// optional function reference. Floating point values are stored as raw
// bits so that NaN payloads survive arithmetic bit-exactly.
type Value struct {
	kind Kind
	bits uint64
	fn   *Function
}

func I32(v int32) Value  { return Value{kind: KindI32, bits: uint64(uint32(v))} }
func U32(v uint32) Value { return Value{kind: KindI32, bits: uint64(v)} }
func I64(v int64) Value  { return Value{kind: KindI64, bits: uint64(v)} }
func U64(v uint64) Value { return Value{kind: KindI64, bits: v} }
func F32(v float32) Value {
	return Value{kind: KindF32, bits: uint64(math.Float32bits(v))}
}
func F64(v float64) Value {
	return Value{kind: KindF64, bits: math.Float64bits(v)}
}
func F32Bits(bits uint32) Value { return Value{kind: KindF32, bits: uint64(bits)} }
func F64Bits(bits uint64) Value { return Value{kind: KindF64, bits: bits} }
func FuncRef(f *Function) Value { return Value{kind: KindFuncRef, fn: f} }

// Zero returns the default-initialized Value for t: the numeric zero, or an
// absent function reference.
func Zero(t wasm.ValueType) Value {
	switch t {
	case wasm.ValueTypeI32:
		return I32(0)
	case wasm.ValueTypeI64:
		return I64(0)
	case wasm.ValueTypeF32:
		return F32(0)
	case wasm.ValueTypeF64:
		return F64(0)
	default:
		return FuncRef(nil)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) I32() int32   { return int32(uint32(v.bits)) }
func (v Value) U32() uint32  { return uint32(v.bits) }
func (v Value) I64() int64   { return int64(v.bits) }
func (v Value) U64() uint64  { return v.bits }
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }
func (v Value) F32Bits() uint32 { return uint32(v.bits) }
func (v Value) F64Bits() uint64 { return v.bits }
func (v Value) Func() *Function { return v.fn }

func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case KindI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case KindF32:
		return fmt.Sprintf("f32:%v", v.F32())
	case KindF64:
		return fmt.Sprintf("f64:%v", v.F64())
	case KindFuncRef:
		return fmt.Sprintf("funcref:%p", v.fn)
	default:
		return "<invalid value>"
	}
}

func valueType(k Kind) wasm.ValueType {
	switch k {
	case KindI32:
		return wasm.ValueTypeI32
	case KindI64:
		return wasm.ValueTypeI64
	case KindF32:
		return wasm.ValueTypeF32
	case KindF64:
		return wasm.ValueTypeF64
	default:
		return 0
	}
}
