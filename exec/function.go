// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"github.com/wasmtiny/wasmtiny/internal/bytecode"
	"github.com/wasmtiny/wasmtiny/wasm"
)

// HostFunc is a host-supplied implementation of an imported function.
type HostFunc func(args []Value) ([]Value, error)

// instanceRef is the "weak holder" cell: every module-defined Function
// created during instantiation points at one of these, and NewInstance
// fulfills it once, after the instance exists. Go's collector makes actual
// weak references unnecessary to avoid leaks, but the indirection is kept
// to mirror the owns-strong/points-weak shape NewInstance builds.
type instanceRef struct {
	inst *Instance
}

// Function is a module-defined or host-supplied callable, the capability
// referred to by the Func kind of External, by table entries, and by the
// function index space.
type Function struct {
	Sig  *wasm.FunctionSig
	Name string

	host HostFunc

	ref       *instanceRef
	bodyIndex int // index into Module.FunctionIndexSpace / Code.Bodies

	cache  *bytecode.Cache
	locals []wasm.ValueType // locals template: declared locals only, params excluded
}

// NewHostFunction wraps a Go function as an importable Func capability.
func NewHostFunction(sig *wasm.FunctionSig, name string, fn HostFunc) *Function {
	return &Function{Sig: sig, Name: name, host: fn}
}

// IsHost reports whether this slot is bound to a host-supplied
// implementation rather than a module-defined body.
func (f *Function) IsHost() bool { return f.host != nil }

// Call invokes the function with params, returning its results or a trap
// wrapped as an error. Module-defined functions bind their bytecode cache
// and locals template lazily, on their first call (§4.6); later calls reuse
// the cached slot.
func (f *Function) Call(params []Value) ([]Value, error) {
	if f.host != nil {
		return f.host(params)
	}
	if len(params) != len(f.Sig.ParamTypes) {
		return nil, ErrInvalidArgumentCount
	}
	if f.cache == nil {
		if err := f.bind(); err != nil {
			return nil, err
		}
	}
	inst := f.ref.inst
	vm := &vm{inst: inst}
	results, tr := vm.run(f, params)
	if tr != nil {
		return nil, tr
	}
	return results, nil
}

func (f *Function) bind() error {
	inst := f.ref.inst
	body := inst.Module.Code.Bodies[f.bodyIndex]

	locals := make([]wasm.ValueType, 0, len(body.Locals))
	for _, entry := range body.Locals {
		for i := uint32(0); i < entry.Count; i++ {
			locals = append(locals, entry.Type)
		}
	}

	cache, err := bytecode.New(body.Code, len(f.Sig.ReturnTypes))
	if err != nil {
		return err
	}

	f.cache = cache
	f.locals = locals
	return nil
}
