// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wasmtiny/wasmtiny/wasm/leb128"
)

// Raw initializer-expression opcodes, mirroring the decoder's own private
// set (wasm/init_expr.go) — evaluating one requires the instance's globals,
// which only exist at this layer, not at decode time.
const (
	ieI32Const  byte = 0x41
	ieI64Const  byte = 0x42
	ieF32Const  byte = 0x43
	ieF64Const  byte = 0x44
	ieGetGlobal byte = 0x23
	ieEnd       byte = 0x0b
)

type InvalidInitExprOpError byte

func (e InvalidInitExprOpError) Error() string {
	return fmt.Sprintf("exec: invalid opcode in initializer expression: %#x", byte(e))
}

// evalInitExpr evaluates a captured init-expression against the globals
// constructed so far (§4.4 step 3: "sees the currently populated imports +
// prefix of instance globals").
func evalInitExpr(expr []byte, globals []Global) (Value, error) {
	r := bytes.NewReader(expr)
	op, err := r.ReadByte()
	if err != nil {
		return Value{}, err
	}

	switch op {
	case ieI32Const:
		v, err := leb128.ReadVarint32(r)
		if err != nil {
			return Value{}, err
		}
		return I32(v), nil
	case ieI64Const:
		v, err := leb128.ReadVarint64(r)
		if err != nil {
			return Value{}, err
		}
		return I64(v), nil
	case ieF32Const:
		var bits uint32
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return Value{}, err
		}
		return F32Bits(bits), nil
	case ieF64Const:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return Value{}, err
		}
		return F64Bits(bits), nil
	case ieGetGlobal:
		idx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return Value{}, err
		}
		if int(idx) >= len(globals) {
			return Value{}, InvalidGlobalIndexError(idx)
		}
		return globals[idx].Content(), nil
	default:
		return Value{}, InvalidInitExprOpError(op)
	}
}

type InvalidGlobalIndexError uint32

func (e InvalidGlobalIndexError) Error() string {
	return fmt.Sprintf("exec: invalid index to global index space: %#x", uint32(e))
}
