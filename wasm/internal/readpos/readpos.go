// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package readpos wraps an io.Reader, tracking the current byte offset so
// that section framing can report absolute positions within the module.
package readpos

import "io"

// ReadPos wraps an io.Reader and keeps track of the current read offset.
type ReadPos struct {
	R      io.Reader
	CurPos int64
}

func (r *ReadPos) Read(p []byte) (int, error) {
	n, err := r.R.Read(p)
	r.CurPos += int64(n)
	return n, err
}
