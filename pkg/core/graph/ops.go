// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/gomlx/layergraph/pkg/core/shapes"
)

// This file holds the catalog of ops. Each one computes the shape of its output with the
// rules in shapeinference.go and appends one edge to the Builder of its inputs.

// emitInferred checks that all inputs share a Builder, infers the output shape and emits op.
func emitInferred(op OpType, params Params, inputs ...Variable) Variable {
	inputs[0].AssertValid()
	b := inputs[0].builder
	b.assertOwns(op.String(), inputs...)
	inputShapes := make([]shapes.Shape, len(inputs))
	for ii, input := range inputs {
		inputShapes[ii] = input.shape
	}
	output, err := outputShape(op, inputShapes, shapes.Shape{}, params)
	if err != nil {
		panic(err)
	}
	return b.Emit(op, inputs, output, params)
}

// Parameter creates a learnable parameter node of the given shape, identified by name.
//
// Parameters are not de-duplicated: calling it twice with the same name creates two distinct
// nodes (of possibly the same shape).
func Parameter(b *Builder, shape shapes.Shape, name string) Variable {
	return b.Emit(OpTypeParameter, nil, shape, Params{Name: name})
}

// Constant creates a node of the given shape, with value broadcast to all its elements.
func Constant(b *Builder, shape shapes.Shape, value float64) Variable {
	return b.Emit(OpTypeConstant, nil, shape, Params{Value: value})
}

// Reshape x to the given dimensions, keeping its dtype.
// The total number of elements must be preserved.
func Reshape(x Variable, dimensions ...int) Variable {
	x.AssertValid()
	return x.builder.Emit(OpTypeReshape, []Variable{x}, x.shape.WithDimensions(dimensions...), Params{})
}

// Transpose swaps axisA and axisB of x. Negative axes count from the end.
func Transpose(x Variable, axisA, axisB int) Variable {
	return emitInferred(OpTypeTranspose, Params{Axes: []int{axisA, axisB}}, x)
}

// MatMul is a batched matrix multiplication of a and b.
//
// The last two axes of each operand are the matrices, and a's last dimension must match b's
// second-to-last. Leading (batch) axes are broadcast. The result shape is
// `batch + [a.Dim(-2), b.Dim(-1)]`.
func MatMul(a, b Variable) Variable {
	return emitInferred(OpTypeMatMul, Params{}, a, b)
}

// Div returns a / b, elementwise. Both must have the same shape.
func Div(a, b Variable) Variable {
	return emitInferred(OpTypeDiv, Params{}, a, b)
}

// Add returns a + b, elementwise. Both must have the same shape.
func Add(a, b Variable) Variable {
	return emitInferred(OpTypeAdd, Params{}, a, b)
}

// Softmax of x over its last axis.
func Softmax(x Variable) Variable {
	return emitInferred(OpTypeSoftmax, Params{Axes: []int{-1}}, x)
}
