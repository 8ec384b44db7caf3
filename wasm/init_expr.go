// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/wasmtiny/wasmtiny/wasm/leb128"
)

// Raw opcode bytes recognized inside an initializer expression. Evaluating
// an init expression against a concrete instance (where get_global may refer
// to an imported global) is the job of the exec package, not this decoder.
const (
	i32Const  byte = 0x41
	i64Const  byte = 0x42
	f32Const  byte = 0x43
	f64Const  byte = 0x44
	getGlobal byte = 0x23
	end       byte = 0x0b
)

var ErrEmptyInitExpr = errors.New("wasm: Initializer expression produces no value")

type InvalidInitExprOpError byte

func (e InvalidInitExprOpError) Error() string {
	return fmt.Sprintf("wasm: Invalid opcode in initializer expression: %#x", byte(e))
}

func readInitExpr(r io.Reader) ([]byte, error) {
	b := make([]byte, 1)
	buf := new(bytes.Buffer)
	r = io.TeeReader(r, buf)

	// For reading an initializer expression, we parse bytes
	// as if reading WASM code and keep every byte exactly as
	// read (LEB128 immediates included) via the TeeReader.
	// One reason why we do not execute it on the fly is that
	// get_global uses indices to the global index space, which
	// might have not been populated when a function reading a module
	// section is calling this.
outer:
	for {
		_, err := io.ReadFull(r, b)
		if err != nil {
			return nil, err
		}

		switch b[0] {
		case i32Const:
			_, err := leb128.ReadVarint32(r)
			if err != nil {
				return nil, err
			}
		case i64Const:
			_, err := leb128.ReadVarint64(r)
			if err != nil {
				return nil, err
			}
		case f32Const:
			var i uint32
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return nil, err
			}
		case f64Const:
			var i uint64
			if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
				return nil, err
			}
		case getGlobal:
			_, err := leb128.ReadVarUint32(r)
			if err != nil {
				return nil, err
			}
		case end:
			break outer
		default:
			return nil, InvalidInitExprOpError(b[0])
		}
	}

	if buf.Len() == 0 {
		return nil, ErrEmptyInitExpr
	}

	return buf.Bytes(), nil
}
