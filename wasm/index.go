// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
)

type InvalidValueTypeInitExprError struct {
	Wanted string
	Got    string
}

func (e InvalidValueTypeInitExprError) Error() string {
	return fmt.Sprintf("wasm: Wanted initializer expression to return %v value, got %v", e.Wanted, e.Got)
}

// Functions for populating and looking up entries in a module's index
// spaces. More info: http://webassembly.org/docs/modules/#function-index-space
//
// Both index spaces below only cover module-defined entries; imports
// occupy the low indices of the same conceptual space but are resolved
// against caller-supplied externs by exec.NewInstance, not here.

func (m *Module) populateFunctions() error {
	if m.Types == nil || m.Function == nil {
		return nil
	}

	for codeIndex, typeIndex := range m.Function.Types {
		if int(typeIndex) >= len(m.Types.Entries) {
			return InvalidFunctionIndexError(typeIndex)
		}

		fn := Function{
			Sig:  &m.Types.Entries[typeIndex],
			Body: &m.Code.Bodies[codeIndex],
		}

		m.FunctionIndexSpace = append(m.FunctionIndexSpace, fn)
	}

	return nil
}

// GetFunction returns the i-th module-defined function (0-based, not
// counting imports). Returns nil when the index is invalid.
func (m *Module) GetFunction(i int) *Function {
	if i >= len(m.FunctionIndexSpace) || i < 0 {
		return nil
	}

	return &m.FunctionIndexSpace[i]
}

// GetFunctionSig returns the signature of the i-th module-defined function.
func (m *Module) GetFunctionSig(i int) (*FunctionSig, error) {
	fn := m.GetFunction(i)
	if fn == nil {
		return nil, InvalidFunctionIndexError(i)
	}
	return fn.Sig, nil
}

func (m *Module) populateGlobals() error {
	if m.Global == nil {
		return nil
	}

	m.GlobalIndexSpace = append(m.GlobalIndexSpace, m.Global.Globals...)
	logger.Printf("There are %d module-defined entries in the global index space.", len(m.GlobalIndexSpace))
	return nil
}

// GetGlobal returns the i-th module-defined global entry (0-based, not
// counting imports). Returns nil when the index is invalid.
func (m *Module) GetGlobal(i int) *GlobalEntry {
	if i >= len(m.GlobalIndexSpace) || i < 0 {
		return nil
	}

	return &m.GlobalIndexSpace[i]
}
