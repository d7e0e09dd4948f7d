// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layers assembles neural-network layer blocks out of graph ops.
//
// Layers only use the graph.Variable API: the Builder of their inputs is where their
// parameters and ops are created.
package layers

import (
	. "github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/pkg/errors"
)

// Linear multiplies x by a fresh [inDim, outDim] parameter named name.
//
// The output has x's shape, with its last dimension replaced by outDim. x's last dimension
// must be inDim.
//
// Parameters are not shared by name: two calls with the same name create two parameters.
func Linear(inDim, outDim int, name string, x Variable) Variable {
	x.AssertValid()
	want := make([]int, x.Rank())
	for ii := range want {
		want[ii] = shapes.UncheckedAxis
	}
	want[len(want)-1] = inDim
	if err := shapes.CheckDims(x, want...); err != nil {
		panic(errors.Wrapf(ErrShapeInconsistency, "Linear(%q): input last dimension must be %d: %v", name, inDim, err))
	}
	weights := Parameter(x.Builder(), shapes.Make(x.DType(), inDim, outDim), name)
	return MatMul(x, weights)
}
