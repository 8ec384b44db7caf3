// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
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

func section(id wasm.SectionID, payload []byte) []byte {
	out := append([]byte{byte(id)}, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

func writeAnswerModule(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Magic))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, wasm.Version))

	typePayload := append([]byte{1}, byte(wasm.TypeFunc&0x7f))
	typePayload = append(typePayload, 0x00, 0x01, 0x7f)
	buf.Write(section(wasm.SectionIDType, typePayload))

	buf.Write(section(wasm.SectionIDFunction, append([]byte{1}, uleb(0)...)))

	name := "answer"
	exportPayload := append([]byte{1}, uleb(uint32(len(name)))...)
	exportPayload = append(exportPayload, []byte(name)...)
	exportPayload = append(exportPayload, byte(wasm.ExternalFunction))
	exportPayload = append(exportPayload, uleb(0)...)
	buf.Write(section(wasm.SectionIDExport, exportPayload))

	body := []byte{0x00, 0x41, 42, 0x0b}
	codePayload := append([]byte{1}, uleb(uint32(len(body)))...)
	codePayload = append(codePayload, body...)
	buf.Write(section(wasm.SectionIDCode, codePayload))

	path := filepath.Join(dir, "answer.wasm")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func decodeAnswerModule(t *testing.T, dir string) *wasm.Module {
	t.Helper()
	path := writeAnswerModule(t, dir)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	m, err := wasm.DecodeModule(f)
	require.NoError(t, err)
	return m
}

func TestPrintHeadersListsDeclaredSections(t *testing.T) {
	m := decodeAnswerModule(t, t.TempDir())

	out := captureStdout(t, func() { printHeaders("answer.wasm", m) })

	assert.Contains(t, out, "type")
	assert.Contains(t, out, "export")
	assert.Contains(t, out, "code")
}

func TestPrintDetailsShowsExportName(t *testing.T) {
	m := decodeAnswerModule(t, t.TempDir())

	out := captureStdout(t, func() { printDetails("answer.wasm", m) })

	assert.Contains(t, out, `"answer"`)
}

func TestPrintDisShowsResolvedConstant(t *testing.T) {
	m := decodeAnswerModule(t, t.TempDir())

	out := captureStdout(t, func() {
		require.NoError(t, printDis("answer.wasm", m))
	})

	assert.Contains(t, out, "i32.const")
	assert.Contains(t, out, "value=42")
}

func TestHexDumpFormatsRows(t *testing.T) {
	out := hexDump([]byte{0x00, 0x61, 0x73, 0x6d}, 0)
	assert.Contains(t, out, "00 61 73 6d")
	assert.Contains(t, out, "|.asm|")
}

// captureStdout redirects os.Stdout for the duration of fn, since the
// print* helpers write directly to it rather than taking a writer.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}
