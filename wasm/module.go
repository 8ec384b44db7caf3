// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"errors"
	"io"

	"github.com/wasmtiny/wasmtiny/wasm/internal/readpos"
)

var ErrInvalidMagic = errors.New("wasm: Invalid magic number")

const (
	Magic   uint32 = 0x6d736100
	Version uint32 = 0x1
)

// Function represents a module-defined entry in the function index space.
// Imported functions do not appear here: they are resolved against the
// caller-supplied externs at instantiation time, not at decode time.
type Function struct {
	Sig  *FunctionSig
	Body *FunctionBody
	Name string
}

// Module represents a decoded, structural view of a binary module. It holds
// no live state: memories, tables, globals and function slots are all built
// by instantiation from this (immutable, shared) description.
type Module struct {
	Version uint32

	Types    *SectionTypes
	Import   *SectionImports
	Function *SectionFunctions
	Table    *SectionTables
	Memory   *SectionMemories
	Global   *SectionGlobals
	Export   *SectionExports
	Start    *SectionStartFunction
	Elements *SectionElements
	Code     *SectionCode
	Data     *SectionData

	// FunctionIndexSpace holds the module-defined functions, in code-section
	// order. A caller resolving a function index into the *whole* index
	// space (imports first, then these) must offset by the number of
	// ExternalFunction entries in Import.
	FunctionIndexSpace []Function
	// GlobalIndexSpace holds the module-defined globals, in declaration
	// order, with uninterpreted init-expression bytes (see wasm/init_expr.go).
	GlobalIndexSpace []GlobalEntry

	Other []Section // Other holds the custom sections if any
}

// DecodeModule decodes a binary module from r into its structural
// description. It performs no instantiation: memories, tables and globals
// named by the module are not allocated, and no initializer expression is
// evaluated. That is the job of exec.NewInstance.
func DecodeModule(r io.Reader) (*Module, error) {
	reader := &readpos.ReadPos{
		R:      r,
		CurPos: 0,
	}
	m := &Module{}
	magic, err := readU32(reader)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	if m.Version, err = readU32(reader); err != nil {
		return nil, err
	}

	for {
		done, err := m.readSection(reader)
		if err != nil {
			return nil, err
		} else if done {
			break
		}
	}

	for _, fn := range []func() error{
		m.populateGlobals,
		m.populateFunctions,
	} {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	logger.Printf("There are %d module-defined entries in the function index space.", len(m.FunctionIndexSpace))
	return m, nil
}

// ImportCount returns the number of import entries of the given kind,
// i.e. how many low indices of that kind's index space are occupied by
// imports rather than module-defined entries.
func (m *Module) ImportCount(kind External) int {
	if m.Import == nil {
		return 0
	}
	n := 0
	for _, entry := range m.Import.Entries {
		if entry.Kind == kind {
			n++
		}
	}
	return n
}
