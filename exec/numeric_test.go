// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNansCanonicalizesPayload(t *testing.T) {
	qnan := math.Float32bits(float32(math.NaN()))
	snan := uint32(0x7fA00001) // signaling, non-canonical payload

	result, ok := nans32(qnan, snan)
	assert.True(t, ok)
	assert.True(t, isNaN32(result))
	assert.NotZero(t, result&nanDataCanonical32)
}

func TestNansPassesThroughNonNaN(t *testing.T) {
	_, ok := nans32(math.Float32bits(1.0), math.Float32bits(2.0))
	assert.False(t, ok)
}

func TestF32MinMaxSignedZero(t *testing.T) {
	posZero := math.Float32bits(0)
	negZero := neg0_32

	assert.Equal(t, negZero, f32Min(posZero, negZero))
	assert.Equal(t, posZero, f32Max(posZero, negZero))
}

func TestF32TruncI32Boundaries(t *testing.T) {
	v, tr := f32TruncI32(math.Float32bits(2147483520.0), 0)
	assert.Nil(t, tr)
	assert.Equal(t, int32(2147483520), v)

	_, tr = f32TruncI32(math.Float32bits(2147483648.0), 7)
	assert.NotNil(t, tr)
	assert.Equal(t, TrapIntegerOverflow, tr.Kind)
	assert.Equal(t, 7, tr.BytePosition)

	_, tr = f32TruncI32(math.Float32bits(float32(math.NaN())), 3)
	assert.NotNil(t, tr)
	assert.Equal(t, TrapInvalidIntegerConversion, tr.Kind)
}

func TestF32TruncI32SatClampsInsteadOfTrapping(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), f32TruncI32Sat(math.Float32bits(1e20)))
	assert.Equal(t, int32(math.MinInt32), f32TruncI32Sat(math.Float32bits(-1e20)))
	assert.Equal(t, int32(0), f32TruncI32Sat(math.Float32bits(float32(math.NaN()))))
}

func TestF64TruncU64Boundaries(t *testing.T) {
	_, tr := f64TruncU64(math.Float64bits(-1.0), 1)
	assert.NotNil(t, tr)
	assert.Equal(t, TrapIntegerOverflow, tr.Kind)

	v, tr := f64TruncU64(math.Float64bits(100.0), 1)
	assert.Nil(t, tr)
	assert.Equal(t, uint64(100), v)
}
