// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"github.com/pkg/errors"
	"github.com/wasmtiny/wasmtiny/wasm"
)

// Import is one caller-supplied extern, positionally matched against the
// module's import entries in declaration order.
type Import struct {
	Kind   wasm.External
	Func   *Function
	Memory Memory
	Global Global
	Table  Table
}

// Export is a published extern, positionally matched against the module's
// export entries in declaration order.
type Export struct {
	Name   string
	Kind   wasm.External
	Func   *Function
	Memory Memory
	Global Global
	Table  Table
}

// Instance is a concrete activation of a module: bound imports plus the
// memories, tables, globals and functions the module itself declares.
type Instance struct {
	Module *wasm.Module

	Memories  []Memory
	Globals   []Global
	Functions []*Function // imports first, then module-defined
	Tables    []Table

	exports []Export
}

// Exports returns the instance's published externs, index-aligned with the
// module's export list.
func (inst *Instance) Exports() []Export { return inst.exports }

// Export looks up a published extern by name.
func (inst *Instance) Export(name string) (Export, bool) {
	for _, e := range inst.exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// NewInstance validates imports against the module's declarations and
// builds a fully wired instance: memories and tables, then function slots,
// then globals (evaluated under the partial view of imports and
// already-built globals), then data and element segments, finally invoking
// the start function if one is declared (§4.4).
func NewInstance(module *wasm.Module, imports []Import) (*Instance, error) {
	importEntries := moduleImportEntries(module)
	if len(imports) != len(importEntries) {
		return nil, ErrImportCountMismatch
	}
	for i, entry := range importEntries {
		if imports[i].Kind != entry.Kind {
			return nil, IncompatibleImportError{Index: i, Want: entry.Kind}
		}
	}

	inst := &Instance{Module: module}

	for i, entry := range importEntries {
		switch entry.Kind {
		case wasm.ExternalMemory:
			inst.Memories = append(inst.Memories, imports[i].Memory)
		case wasm.ExternalTable:
			inst.Tables = append(inst.Tables, imports[i].Table)
		case wasm.ExternalGlobal:
			inst.Globals = append(inst.Globals, imports[i].Global)
		case wasm.ExternalFunction:
			inst.Functions = append(inst.Functions, imports[i].Func)
		}
	}

	// 1. Allocate module-defined memories and tables.
	if module.Memory != nil {
		for _, m := range module.Memory.Entries {
			inst.Memories = append(inst.Memories, newInstanceMemory(m))
		}
	}
	if module.Table != nil {
		for _, t := range module.Table.Entries {
			inst.Tables = append(inst.Tables, newInstanceTable(t))
		}
	}

	// 2. Create the weak back-reference holder, then module-defined
	// function slots pointing at it.
	ref := &instanceRef{}
	for i, fn := range module.FunctionIndexSpace {
		inst.Functions = append(inst.Functions, &Function{
			Sig:       fn.Sig,
			Name:      fn.Name,
			ref:       ref,
			bodyIndex: i,
		})
	}

	// 3. Evaluate globals under a partial view of imports + the globals
	// built so far.
	for i, g := range module.GlobalIndexSpace {
		val, err := evalInitExpr(g.Init, inst.Globals)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating initializer for global %d", i)
		}
		inst.Globals = append(inst.Globals, &instanceGlobal{
			typ:     g.Type.Type,
			mutable: g.Type.Mutable,
			value:   val,
		})
	}

	// 4. Install data segments.
	if module.Data != nil {
		for i, seg := range module.Data.Entries {
			offVal, err := evalInitExpr(seg.Offset, inst.Globals)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating offset for data segment %d", i)
			}
			if int(seg.Index) >= len(inst.Memories) {
				return nil, errors.Wrapf(ErrInitOutOfRange, "data segment %d: memory %d", i, seg.Index)
			}
			mem := inst.Memories[seg.Index]
			off := int(offVal.U32())
			dst := mem.Bytes()
			if off < 0 || off+len(seg.Data) > len(dst) {
				return nil, errors.Wrapf(ErrInitOutOfRange, "data segment %d", i)
			}
			copy(dst[off:], seg.Data)
		}
	}

	// 5. Install element segments.
	if module.Elements != nil {
		for i, seg := range module.Elements.Entries {
			offVal, err := evalInitExpr(seg.Offset, inst.Globals)
			if err != nil {
				return nil, errors.Wrapf(err, "evaluating offset for element segment %d", i)
			}
			if int(seg.Index) >= len(inst.Tables) {
				return nil, errors.Wrapf(ErrInitOutOfRange, "element segment %d: table %d", i, seg.Index)
			}
			tbl := inst.Tables[seg.Index]
			off := offVal.U32()
			for j, funcIdx := range seg.Elems {
				if int(funcIdx) >= len(inst.Functions) {
					return nil, errors.Wrapf(ErrInitOutOfRange, "element segment %d: function %d", i, funcIdx)
				}
				if err := tbl.Set(off+uint32(j), inst.Functions[funcIdx]); err != nil {
					return nil, errors.Wrapf(ErrInitOutOfRange, "element segment %d", i)
				}
			}
		}
	}

	// 6. Wrap in shared ownership, then fulfill the weak holder.
	ref.inst = inst

	// 7. Run the start function, if declared.
	if module.Start != nil {
		if int(module.Start.Index) >= len(inst.Functions) {
			return nil, ErrInitOutOfRange
		}
		if _, err := inst.Functions[module.Start.Index].Call(nil); err != nil {
			if tr, ok := err.(*Trap); ok {
				return nil, StartTrappedError{Trap: tr}
			}
			return nil, err
		}
	}

	inst.buildExports()

	logger.Printf("instantiated module with %d functions, %d memories, %d tables, %d globals",
		len(inst.Functions), len(inst.Memories), len(inst.Tables), len(inst.Globals))

	return inst, nil
}

func (inst *Instance) buildExports() {
	if inst.Module.Export == nil {
		return
	}
	for _, name := range inst.Module.Export.Order {
		entry := inst.Module.Export.Entries[name]
		export := Export{Name: name, Kind: entry.Kind}
		switch entry.Kind {
		case wasm.ExternalFunction:
			export.Func = inst.Functions[entry.Index]
		case wasm.ExternalMemory:
			export.Memory = inst.Memories[entry.Index]
		case wasm.ExternalGlobal:
			export.Global = inst.Globals[entry.Index]
		case wasm.ExternalTable:
			export.Table = inst.Tables[entry.Index]
		}
		inst.exports = append(inst.exports, export)
	}
}

func moduleImportEntries(module *wasm.Module) []wasm.ImportEntry {
	if module.Import == nil {
		return nil
	}
	return module.Import.Entries
}
