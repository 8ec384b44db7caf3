// Package bytecode turns the raw opcode bytes of one function body into a
// decoded instruction vector plus a precomputed table of branch
// destinations (the "bytecode cache"), so the interpreter never re-parses
// immediates or re-walks nesting while executing.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wasmtiny/wasmtiny/wasm"
	"github.com/wasmtiny/wasmtiny/wasm/leb128"
	"github.com/wasmtiny/wasmtiny/wasm/operators"
)

// Instr is one decoded instruction: its opcode, its static immediates (only
// the fields relevant to Op are populated), and the byte offset of its
// opcode byte within the owning function body (reported verbatim in traps).
type Instr struct {
	Op      byte
	BytePos int

	// get_local/set_local/tee_local/get_global/set_global/call index;
	// call_indirect's type index; br/br_if's static depth.
	Index uint32

	// i32.const / i64.const (sign-extended into the wider field; readers
	// narrow as the opcode dictates).
	I64 int64

	// f32.const / f64.const, kept as raw bits per the Value model.
	F32Bits uint32
	F64Bits uint64

	// block/loop/if
	BlockType wasm.BlockType

	// memory load/store: byte offset immediate. The alignment hint is
	// decoded but not retained — see design notes on unaligned access.
	MemOffset uint32

	// br_table: depths[0:len-1] are the table entries, depths[len-1] is
	// the default target.
	Depths []uint32
}

type MalformedBodyError struct {
	Reason string
}

func (e MalformedBodyError) Error() string {
	return fmt.Sprintf("bytecode: malformed function body: %s", e.Reason)
}

// decodeInstrs walks code (a function body's opcode bytes, already stripped
// of the locals prelude and the trailing top-level end) into a flat
// instruction vector. Validity of operand encoding is assumed, mirroring
// the rest of this engine's "the validator already accepted this" stance;
// truncated/corrupt bytes still surface as an error rather than a panic.
func decodeInstrs(code []byte) ([]Instr, error) {
	r := bytes.NewReader(code)
	var instrs []Instr

	for r.Len() > 0 {
		pos := len(code) - r.Len()
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		instr := Instr{Op: opByte, BytePos: pos}

		switch opByte {
		case operators.Block, operators.Loop, operators.If:
			bt, err := readBlockType(r)
			if err != nil {
				return nil, err
			}
			instr.BlockType = bt

		case operators.Br, operators.BrIf:
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			instr.Index = idx

		case operators.BrTable:
			count, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			depths := make([]uint32, count+1)
			for i := range depths {
				d, err := leb128.ReadVarUint32(r)
				if err != nil {
					return nil, err
				}
				depths[i] = d
			}
			instr.Depths = depths

		case operators.Call:
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			instr.Index = idx

		case operators.CallIndirect:
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			if _, err := leb128.ReadVarUint32(r); err != nil { // reserved table index, always 0 in the MVP
				return nil, err
			}
			instr.Index = idx

		case operators.GetLocal, operators.SetLocal, operators.TeeLocal,
			operators.GetGlobal, operators.SetGlobal:
			idx, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			instr.Index = idx

		case operators.I32Const:
			v, err := leb128.ReadVarint32(r)
			if err != nil {
				return nil, err
			}
			instr.I64 = int64(v)

		case operators.I64Const:
			v, err := leb128.ReadVarint64(r)
			if err != nil {
				return nil, err
			}
			instr.I64 = v

		case operators.F32Const:
			var bits uint32
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			instr.F32Bits = bits

		case operators.F64Const:
			var bits uint64
			if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
				return nil, err
			}
			instr.F64Bits = bits

		case operators.TruncSat:
			sub, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
			if int(sub) >= len(operators.TruncSatNames) {
				return nil, MalformedBodyError{Reason: fmt.Sprintf("unknown trunc_sat sub-opcode %d", sub)}
			}
			instr.Index = sub

		default:
			if isMemoryOp(opByte) {
				if _, err := leb128.ReadVarUint32(r); err != nil { // alignment hint, unused
					return nil, err
				}
				off, err := leb128.ReadVarUint32(r)
				if err != nil {
					return nil, err
				}
				instr.MemOffset = off
			} else if isMemorySizeOp(opByte) {
				if _, err := leb128.ReadVarUint32(r); err != nil { // reserved, always 0 in the MVP
					return nil, err
				}
			}
			// every other opcode (control markers, parametric ops,
			// comparisons, arithmetic, conversions) has no immediate.
		}

		instrs = append(instrs, instr)
	}

	return instrs, nil
}

func isMemoryOp(op byte) bool {
	return op >= operators.I32Load && op <= operators.I64Store32
}

func isMemorySizeOp(op byte) bool {
	return op == operators.CurrentMemory || op == operators.GrowMemory
}

func readBlockType(r io.Reader) (wasm.BlockType, error) {
	v, err := leb128.ReadVarint32(r)
	return wasm.BlockType(v), err
}
