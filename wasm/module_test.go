// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmtiny/wasmtiny/wasm"
)

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

func section(id wasm.SectionID, payload []byte) []byte {
	out := append([]byte{byte(id)}, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

// buildConstI32Module assembles a minimal binary module exporting a single
// nullary function that returns the constant 7: one type, one function, one
// code and one export section, in that order.
func buildConstI32Module(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Magic))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Version))

	// type section: one signature, () -> i32
	typePayload := append([]byte{1}, byte(wasm.TypeFunc&0x7f))
	typePayload = append(typePayload, 0x00)       // param count
	typePayload = append(typePayload, 0x01, 0x7f) // return count 1, i32
	buf.Write(section(wasm.SectionIDType, typePayload))

	// function section: one function, using type 0
	buf.Write(section(wasm.SectionIDFunction, append([]byte{1}, uleb(0)...)))

	// export section: export it as "answer"
	name := "answer"
	exportPayload := append([]byte{1}, uleb(uint32(len(name)))...)
	exportPayload = append(exportPayload, []byte(name)...)
	exportPayload = append(exportPayload, byte(wasm.ExternalFunction))
	exportPayload = append(exportPayload, uleb(0)...)
	buf.Write(section(wasm.SectionIDExport, exportPayload))

	// code section: one body, i32.const 7, end
	body := append([]byte{0x00}, append([]byte{0x41}, append(sleb(7), 0x0b)...)...)
	codePayload := append([]byte{1}, uleb(uint32(len(body)))...)
	codePayload = append(codePayload, body...)
	buf.Write(section(wasm.SectionIDCode, codePayload))

	return buf.Bytes()
}

func TestDecodeModuleRejectsBadMagic(t *testing.T) {
	_, err := wasm.DecodeModule(bytes.NewReader([]byte{0, 0, 0, 0, 1, 0, 0, 0}))
	assert.Equal(t, wasm.ErrInvalidMagic, err)
}

func TestDecodeModuleBuildsFunctionIndexSpace(t *testing.T) {
	raw := buildConstI32Module(t)

	m, err := wasm.DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, m.FunctionIndexSpace, 1)
	fn := m.FunctionIndexSpace[0]
	assert.Empty(t, fn.Sig.ParamTypes)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, fn.Sig.ReturnTypes)

	require.NotNil(t, m.Export)
	entry, ok := m.Export.Entries["answer"]
	require.True(t, ok)
	assert.Equal(t, wasm.ExternalFunction, entry.Kind)
	assert.Equal(t, []string{"answer"}, m.Export.Order)
}

func TestDecodeModuleTruncatedFails(t *testing.T) {
	raw := buildConstI32Module(t)
	_, err := wasm.DecodeModule(bytes.NewReader(raw[:len(raw)-3]))
	assert.Error(t, err)
}
