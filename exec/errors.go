// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wasmtiny/wasmtiny/wasm"
)

var (
	// ErrInvalidArgumentCount is returned by (*Function).Call when the
	// supplied argument count does not match the function's signature.
	ErrInvalidArgumentCount = errors.New("exec: invalid number of arguments to function")

	// ErrImportCountMismatch is returned by NewInstance when the caller
	// supplied a different number of externs than the module declares
	// imports.
	ErrImportCountMismatch = errors.New("exec: import count mismatch")

	// ErrInitOutOfRange is returned by NewInstance when a data or element
	// segment's initializer offset plus length exceeds its target's bounds.
	ErrInitOutOfRange = errors.New("exec: data or element segment initializer out of range")

	errImmutableGlobal      = errors.New("exec: cannot set an immutable global")
	errTableIndexOutOfRange = errors.New("exec: table index out of range")
)

// IncompatibleImportError is returned by NewInstance when a supplied extern
// does not match the kind declared by the corresponding import entry.
type IncompatibleImportError struct {
	Index int
	Want  wasm.External
}

func (e IncompatibleImportError) Error() string {
	return fmt.Sprintf("exec: import %d: expected %v", e.Index, e.Want)
}

// StartTrappedError is returned by NewInstance when the module's start
// function traps during instantiation.
type StartTrappedError struct {
	Trap *Trap
}

func (e StartTrappedError) Error() string {
	return fmt.Sprintf("exec: start function trapped: %v", e.Trap)
}
