// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import "github.com/wasmtiny/wasmtiny/wasm"

// Memory is the capability contract for a linear memory, satisfied by both
// module-internal and host-supplied implementations.
type Memory interface {
	CurrentPages() uint32
	// Grow attempts to add delta pages, returning the page count before
	// growth. ok is false if the request would exceed the memory's maximum
	// or the engine ceiling.
	Grow(delta uint32) (previous uint32, ok bool)
	// Bytes exposes the backing store directly; the interpreter bounds
	// checks before indexing into it. Growth invalidates any slice taken
	// from a prior call.
	Bytes() []byte
}

// Global is the capability contract for a global variable cell.
type Global interface {
	Type() wasm.ValueType
	Mutable() bool
	Content() Value
	SetContent(v Value) error
}

// Table is the capability contract for a table of function references.
type Table interface {
	Size() uint32
	Grow(delta uint32) (previous uint32, ok bool)
	// Get returns the function at i, or a Trap if the slot is out of range
	// (UndefinedElement) or has never been set (Uninitialized).
	Get(i uint32) (*Function, *Trap)
	Set(i uint32, fn *Function) error
}

const wasmPageSize = 65536 // 64 KiB, per the binary format's page unit.

type instanceMemory struct {
	bytes   []byte
	maximum uint32 // pages; only consulted when hasMax is set
	hasMax  bool
}

func newInstanceMemory(m wasm.Memory) *instanceMemory {
	im := &instanceMemory{bytes: make([]byte, uint64(m.Limits.Initial)*wasmPageSize)}
	if m.Limits.Flags&0x1 != 0 {
		im.hasMax = true
		im.maximum = m.Limits.Maximum
	}
	return im
}

func (m *instanceMemory) CurrentPages() uint32 { return uint32(len(m.bytes) / wasmPageSize) }

func (m *instanceMemory) Grow(delta uint32) (uint32, bool) {
	prev := m.CurrentPages()
	newPages := uint64(prev) + uint64(delta)
	if newPages > 1<<16 {
		return prev, false
	}
	if m.hasMax && newPages > uint64(m.maximum) {
		return prev, false
	}
	m.bytes = append(m.bytes, make([]byte, uint64(delta)*wasmPageSize)...)
	return prev, true
}

func (m *instanceMemory) Bytes() []byte { return m.bytes }

type instanceGlobal struct {
	typ     wasm.ValueType
	mutable bool
	value   Value
}

func (g *instanceGlobal) Type() wasm.ValueType { return g.typ }
func (g *instanceGlobal) Mutable() bool        { return g.mutable }
func (g *instanceGlobal) Content() Value       { return g.value }
func (g *instanceGlobal) SetContent(v Value) error {
	if !g.mutable {
		return errImmutableGlobal
	}
	g.value = v
	return nil
}

type instanceTable struct {
	elemType wasm.ElemType
	maximum  uint32
	hasMax   bool
	entries  []*Function
}

func newInstanceTable(t wasm.Table) *instanceTable {
	it := &instanceTable{
		elemType: t.ElementType,
		entries:  make([]*Function, t.Limits.Initial),
	}
	if t.Limits.Flags&0x1 != 0 {
		it.hasMax = true
		it.maximum = t.Limits.Maximum
	}
	return it
}

func (t *instanceTable) Size() uint32 { return uint32(len(t.entries)) }

func (t *instanceTable) Grow(delta uint32) (uint32, bool) {
	prev := t.Size()
	newSize := uint64(prev) + uint64(delta)
	if t.hasMax && newSize > uint64(t.maximum) {
		return prev, false
	}
	t.entries = append(t.entries, make([]*Function, delta)...)
	return prev, true
}

func (t *instanceTable) Get(i uint32) (*Function, *Trap) {
	if i >= uint32(len(t.entries)) {
		return nil, trap(TrapUndefinedElement, 0)
	}
	fn := t.entries[i]
	if fn == nil {
		return nil, trap(TrapUninitialized, 0)
	}
	return fn, nil
}

func (t *instanceTable) Set(i uint32, fn *Function) error {
	if i >= uint32(len(t.entries)) {
		return errTableIndexOutOfRange
	}
	t.entries[i] = fn
	return nil
}
