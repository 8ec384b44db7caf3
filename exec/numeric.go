// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import "math"

// Canonical-NaN bit layout, binary32.
const (
	nanMask32          uint32 = 0x7F80_0000
	nanDataMask32      uint32 = 0x7F_FFFF
	nanDataCanonical32 uint32 = 0x40_0000
	neg0_32            uint32 = 0x8000_0000
)

// Canonical-NaN bit layout, binary64.
const (
	nanMask64          uint64 = 0x7FF0_0000_0000_0000
	nanDataMask64      uint64 = 0xF_FFFF_FFFF_FFFF
	nanDataCanonical64 uint64 = 0x8_0000_0000_0000
	neg0_64            uint64 = 0x8000_0000_0000_0000
)

func isNaN32(a uint32) bool { return a&nanMask32 == nanMask32 && a&nanDataMask32 != 0 }
func isNaN64(a uint64) bool { return a&nanMask64 == nanMask64 && a&nanDataMask64 != 0 }

// nans32/nans64 implement the canonicalization rule of §4.3: if either
// operand is NaN, the result is a quiet NaN whose payload is the operand's
// own payload (single NaN) or the xor of both payloads (both NaN).
func nans32(a, b uint32) (uint32, bool) {
	switch {
	case isNaN32(a) && isNaN32(b):
		return nanMask32 | nanDataCanonical32 | (a ^ b), true
	case isNaN32(a):
		return a | nanDataCanonical32, true
	case isNaN32(b):
		return b | nanDataCanonical32, true
	default:
		return 0, false
	}
}

func nans64(a, b uint64) (uint64, bool) {
	switch {
	case isNaN64(a) && isNaN64(b):
		return nanMask64 | nanDataCanonical64 | (a ^ b), true
	case isNaN64(a):
		return a | nanDataCanonical64, true
	case isNaN64(b):
		return b | nanDataCanonical64, true
	default:
		return 0, false
	}
}

func f32Abs(a uint32) uint32 { return a &^ neg0_32 }
func f32Neg(a uint32) uint32  { return a ^ neg0_32 }
func f32Ceil(a uint32) uint32 {
	return math.Float32bits(float32(math.Ceil(float64(math.Float32frombits(a)))))
}
func f32Floor(a uint32) uint32 {
	return math.Float32bits(float32(math.Floor(float64(math.Float32frombits(a)))))
}
func f32Trunc(a uint32) uint32 {
	return math.Float32bits(float32(math.Trunc(float64(math.Float32frombits(a)))))
}

// f32Nearest rounds half-to-even when the fractional magnitude is exactly
// 0.5, otherwise delegates to round-half-away-from-zero.
func f32Nearest(a uint32) uint32 {
	f := float64(math.Float32frombits(a))
	frac := f - math.Trunc(f)
	var r float64
	if math.Abs(frac) != 0.5 {
		r = math.Round(f)
	} else {
		r = math.Round(f/2.0) * 2.0
	}
	return math.Float32bits(float32(r))
}

func f32Sqrt(a uint32) uint32 {
	return math.Float32bits(float32(math.Sqrt(float64(math.Float32frombits(a)))))
}

func f32Add(a, b uint32) uint32 {
	return math.Float32bits(math.Float32frombits(a) + math.Float32frombits(b))
}
func f32Sub(a, b uint32) uint32 {
	return math.Float32bits(math.Float32frombits(a) - math.Float32frombits(b))
}
func f32Mul(a, b uint32) uint32 {
	return math.Float32bits(math.Float32frombits(a) * math.Float32frombits(b))
}
func f32Div(a, b uint32) uint32 {
	return math.Float32bits(math.Float32frombits(a) / math.Float32frombits(b))
}

func f32Min(a, b uint32) uint32 {
	if n, ok := nans32(a, b); ok {
		return n
	}
	if a|b == neg0_32 {
		return neg0_32
	}
	af, bf := math.Float32frombits(a), math.Float32frombits(b)
	if af < bf {
		return a
	}
	return b
}

func f32Max(a, b uint32) uint32 {
	if n, ok := nans32(a, b); ok {
		return n
	}
	if a|b == neg0_32 {
		if a == b {
			return neg0_32
		}
		return 0
	}
	af, bf := math.Float32frombits(a), math.Float32frombits(b)
	if af > bf {
		return a
	}
	return b
}

func f32Copysign(a, b uint32) uint32 {
	return math.Float32bits(float32(math.Copysign(float64(math.Float32frombits(a)), float64(math.Float32frombits(b)))))
}

func f32Eq(a, b uint32) bool { return math.Float32frombits(a) == math.Float32frombits(b) }
func f32Ne(a, b uint32) bool { return math.Float32frombits(a) != math.Float32frombits(b) }
func f32Lt(a, b uint32) bool { return math.Float32frombits(a) < math.Float32frombits(b) }
func f32Gt(a, b uint32) bool { return math.Float32frombits(a) > math.Float32frombits(b) }
func f32Le(a, b uint32) bool { return math.Float32frombits(a) <= math.Float32frombits(b) }
func f32Ge(a, b uint32) bool { return math.Float32frombits(a) >= math.Float32frombits(b) }

const (
	f32TruncI32Min float32 = -2147483648.0
	f32TruncI32Max float32 = 2147483520.0
	f32TruncU32Min float32 = 0.0
	f32TruncU32Max float32 = 4294967040.0
	f32TruncI64Min float32 = -9223372036854775808.0
	f32TruncI64Max float32 = 9223371487098961920.0
	f32TruncU64Min float32 = 0.0
	f32TruncU64Max float32 = 18446742974197923840.0
)

func f32TruncI32(a uint32, pos int) (int32, *Trap) {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	if math.IsNaN(float64(t)) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f32TruncI32Min || t > f32TruncI32Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return int32(t), nil
}

func f32TruncU32(a uint32, pos int) (uint32, *Trap) {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	if math.IsNaN(float64(t)) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f32TruncU32Min || t > f32TruncU32Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return uint32(t), nil
}

func f32TruncI64(a uint32, pos int) (int64, *Trap) {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	if math.IsNaN(float64(t)) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f32TruncI64Min || t > f32TruncI64Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return int64(t), nil
}

func f32TruncU64(a uint32, pos int) (uint64, *Trap) {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	if math.IsNaN(float64(t)) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f32TruncU64Min || t > f32TruncU64Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return uint64(t), nil
}

func f32TruncI32Sat(a uint32) int32 {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	switch {
	case math.IsNaN(float64(t)):
		return 0
	case t < f32TruncI32Min:
		return math.MinInt32
	case t > f32TruncI32Max:
		return math.MaxInt32
	default:
		return int32(t)
	}
}

func f32TruncU32Sat(a uint32) uint32 {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	switch {
	case math.IsNaN(float64(t)):
		return 0
	case t < f32TruncU32Min:
		return 0
	case t > f32TruncU32Max:
		return math.MaxUint32
	default:
		return uint32(t)
	}
}

func f32TruncI64Sat(a uint32) int64 {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	switch {
	case math.IsNaN(float64(t)):
		return 0
	case t < f32TruncI64Min:
		return math.MinInt64
	case t > f32TruncI64Max:
		return math.MaxInt64
	default:
		return int64(t)
	}
}

func f32TruncU64Sat(a uint32) uint64 {
	t := float32(math.Trunc(float64(math.Float32frombits(a))))
	switch {
	case math.IsNaN(float64(t)):
		return 0
	case t < f32TruncU64Min:
		return 0
	case t > f32TruncU64Max:
		return math.MaxUint64
	default:
		return uint64(t)
	}
}

func f32FromI32(a int32) uint32  { return math.Float32bits(float32(a)) }
func f32FromU32(a uint32) uint32 { return math.Float32bits(float32(a)) }
func f32FromI64(a int64) uint32  { return math.Float32bits(float32(a)) }
func f32FromU64(a uint64) uint32 { return math.Float32bits(float32(a)) }
func f32FromF64(a uint64) uint32 { return math.Float32bits(float32(math.Float64frombits(a))) }

func f64Abs(a uint64) uint64  { return a &^ neg0_64 }
func f64Neg(a uint64) uint64  { return a ^ neg0_64 }
func f64Ceil(a uint64) uint64 { return math.Float64bits(math.Ceil(math.Float64frombits(a))) }
func f64Floor(a uint64) uint64 { return math.Float64bits(math.Floor(math.Float64frombits(a))) }
func f64Trunc(a uint64) uint64 { return math.Float64bits(math.Trunc(math.Float64frombits(a))) }

func f64Nearest(a uint64) uint64 {
	f := math.Float64frombits(a)
	frac := f - math.Trunc(f)
	var r float64
	if math.Abs(frac) != 0.5 {
		r = math.Round(f)
	} else {
		r = math.Round(f/2.0) * 2.0
	}
	return math.Float64bits(r)
}

func f64Sqrt(a uint64) uint64 { return math.Float64bits(math.Sqrt(math.Float64frombits(a))) }

func f64Add(a, b uint64) uint64 {
	return math.Float64bits(math.Float64frombits(a) + math.Float64frombits(b))
}
func f64Sub(a, b uint64) uint64 {
	return math.Float64bits(math.Float64frombits(a) - math.Float64frombits(b))
}
func f64Mul(a, b uint64) uint64 {
	return math.Float64bits(math.Float64frombits(a) * math.Float64frombits(b))
}
func f64Div(a, b uint64) uint64 {
	return math.Float64bits(math.Float64frombits(a) / math.Float64frombits(b))
}

func f64Min(a, b uint64) uint64 {
	if n, ok := nans64(a, b); ok {
		return n
	}
	if a|b == neg0_64 {
		return neg0_64
	}
	af, bf := math.Float64frombits(a), math.Float64frombits(b)
	if af < bf {
		return a
	}
	return b
}

func f64Max(a, b uint64) uint64 {
	if n, ok := nans64(a, b); ok {
		return n
	}
	if a|b == neg0_64 {
		if a == b {
			return neg0_64
		}
		return 0
	}
	af, bf := math.Float64frombits(a), math.Float64frombits(b)
	if af > bf {
		return a
	}
	return b
}

func f64Copysign(a, b uint64) uint64 {
	return math.Float64bits(math.Copysign(math.Float64frombits(a), math.Float64frombits(b)))
}

func f64Eq(a, b uint64) bool { return math.Float64frombits(a) == math.Float64frombits(b) }
func f64Ne(a, b uint64) bool { return math.Float64frombits(a) != math.Float64frombits(b) }
func f64Lt(a, b uint64) bool { return math.Float64frombits(a) < math.Float64frombits(b) }
func f64Gt(a, b uint64) bool { return math.Float64frombits(a) > math.Float64frombits(b) }
func f64Le(a, b uint64) bool { return math.Float64frombits(a) <= math.Float64frombits(b) }
func f64Ge(a, b uint64) bool { return math.Float64frombits(a) >= math.Float64frombits(b) }

const (
	f64TruncI32Min float64 = -2147483648.0
	f64TruncI32Max float64 = 2147483647.0
	f64TruncU32Min float64 = 0.0
	f64TruncU32Max float64 = 4294967295.0
	f64TruncI64Min float64 = -9223372036854775808.0
	f64TruncI64Max float64 = 9223372036854774784.0
	f64TruncU64Min float64 = 0.0
	f64TruncU64Max float64 = 18446744073709550000.0
)

func f64TruncI32(a uint64, pos int) (int32, *Trap) {
	t := math.Trunc(math.Float64frombits(a))
	if math.IsNaN(t) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f64TruncI32Min || t > f64TruncI32Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return int32(t), nil
}

func f64TruncU32(a uint64, pos int) (uint32, *Trap) {
	t := math.Trunc(math.Float64frombits(a))
	if math.IsNaN(t) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f64TruncU32Min || t > f64TruncU32Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return uint32(t), nil
}

func f64TruncI64(a uint64, pos int) (int64, *Trap) {
	t := math.Trunc(math.Float64frombits(a))
	if math.IsNaN(t) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f64TruncI64Min || t > f64TruncI64Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return int64(t), nil
}

func f64TruncU64(a uint64, pos int) (uint64, *Trap) {
	t := math.Trunc(math.Float64frombits(a))
	if math.IsNaN(t) {
		return 0, trap(TrapInvalidIntegerConversion, pos)
	}
	if t < f64TruncU64Min || t > f64TruncU64Max {
		return 0, trap(TrapIntegerOverflow, pos)
	}
	return uint64(t), nil
}

func f64TruncI32Sat(a uint64) int32 {
	t := math.Trunc(math.Float64frombits(a))
	switch {
	case math.IsNaN(t):
		return 0
	case t < f64TruncI32Min:
		return math.MinInt32
	case t > f64TruncI32Max:
		return math.MaxInt32
	default:
		return int32(t)
	}
}

func f64TruncU32Sat(a uint64) uint32 {
	t := math.Trunc(math.Float64frombits(a))
	switch {
	case math.IsNaN(t):
		return 0
	case t < f64TruncU32Min:
		return 0
	case t > f64TruncU32Max:
		return math.MaxUint32
	default:
		return uint32(t)
	}
}

func f64TruncI64Sat(a uint64) int64 {
	t := math.Trunc(math.Float64frombits(a))
	switch {
	case math.IsNaN(t):
		return 0
	case t < f64TruncI64Min:
		return math.MinInt64
	case t > f64TruncI64Max:
		return math.MaxInt64
	default:
		return int64(t)
	}
}

func f64TruncU64Sat(a uint64) uint64 {
	t := math.Trunc(math.Float64frombits(a))
	switch {
	case math.IsNaN(t):
		return 0
	case t < f64TruncU64Min:
		return 0
	case t > f64TruncU64Max:
		return math.MaxUint64
	default:
		return uint64(t)
	}
}

func f64FromI32(a int32) uint64  { return math.Float64bits(float64(a)) }
func f64FromU32(a uint32) uint64 { return math.Float64bits(float64(a)) }
func f64FromI64(a int64) uint64  { return math.Float64bits(float64(a)) }
func f64FromU64(a uint64) uint64 { return math.Float64bits(float64(a)) }
func f64FromF32(a uint32) uint64 { return math.Float64bits(float64(math.Float32frombits(a))) }
