// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	require.False(t, Shape{}.Ok())

	shape := Make(Float32, 4, 3, 2)
	require.True(t, shape.Ok())
	require.Equal(t, 3, shape.Rank())
	require.Len(t, shape.Dimensions, 3)
	require.Equal(t, 4*3*2, shape.Size())
	require.Equal(t, 4*4*3*2, int(shape.Memory()))
	require.Equal(t, "(Float32)[4 3 2]", shape.String())
	require.Equal(t, "[4, 3, 2]", shape.DimsString())
}

func TestMakeInvalid(t *testing.T) {
	for _, dims := range [][]int{nil, {}, {2, 0}, {-1, 3}} {
		err := exceptions.TryCatch[error](func() { _ = Make(Float32, dims...) })
		require.Errorf(t, err, "dims=%v", dims)
		require.True(t, errors.Is(err, ErrInvalidShape), "dims=%v: %v", dims, err)
	}
	err := exceptions.TryCatch[error](func() { _ = Make(InvalidDType, 1) })
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestMakeClonesDimensions(t *testing.T) {
	dims := []int{2, 3}
	shape := Make(Float32, dims...)
	dims[0] = 7
	require.Equal(t, []int{2, 3}, shape.Dimensions)
}

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b Shape
		want bool
	}{
		{Make(Float32, 1, 1, 8), Make(Float32, 1, 1, 8), true},
		{Make(Float32, 1, 1, 8), Make(Float32, 1, 8, 1), false},
		{Make(Float32, 1, 1, 8), Make(Float32, 1, 1, 8, 1), false},
		{Make(Float32, 8, 8), Make(Float64, 8, 8), false},
		{Make(Int64, 3), Make(Int64, 3), true},
	}
	for _, c := range cases {
		require.Equalf(t, c.want, c.a.Equal(c.b), "%s == %s", c.a, c.b)
		require.Equalf(t, c.want, c.b.Equal(c.a), "%s == %s", c.b, c.a)
	}
}

func TestDim(t *testing.T) {
	shape := Make(Float32, 4, 3, 2)
	require.Equal(t, 4, shape.Dim(0))
	require.Equal(t, 3, shape.Dim(1))
	require.Equal(t, 2, shape.Dim(2))
	require.Equal(t, 4, shape.Dim(-3))
	require.Equal(t, 3, shape.Dim(-2))
	require.Equal(t, 2, shape.Dim(-1))
	require.Panics(t, func() { _ = shape.Dim(3) })
	require.Panics(t, func() { _ = shape.Dim(-4) })
}

func TestDerivations(t *testing.T) {
	shape := Make(Float32, 1, 5, 4, 2)
	require.Equal(t, []int{1, 4, 5, 2}, shape.SwapAxes(1, 2).Dimensions)
	require.Equal(t, []int{1, 5, 2, 4}, shape.SwapAxes(-1, -2).Dimensions)
	require.Equal(t, []int{1, 5, 4, 2}, shape.Dimensions, "original shape must not change")
	reshaped := shape.WithDimensions(40)
	require.Equal(t, Float32, reshaped.DType)
	require.Equal(t, []int{40}, reshaped.Dimensions)
	require.True(t, reshaped.Ok())
	// WithDimensions doesn't validate: the consumer checks with Ok.
	require.False(t, shape.WithDimensions(8, 0).Ok())
	require.False(t, shape.WithDimensions().Ok())
	require.Panics(t, func() { _ = shape.SwapAxes(0, 4) })
}

func TestChecks(t *testing.T) {
	shape := Make(Float32, 2, 3)
	require.NoError(t, shape.CheckDims(2, 3))
	require.NoError(t, shape.CheckDims(UncheckedAxis, 3))
	require.Error(t, shape.CheckDims(2))
	require.Error(t, shape.CheckDims(2, 4))
	require.NoError(t, CheckDims(shape, UncheckedAxis, UncheckedAxis))
	require.NoError(t, CheckRank(shape, 2))
	require.Error(t, CheckRank(shape, 3))
}
