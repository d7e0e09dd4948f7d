// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/pkg/errors"
)

// This file holds the shape rules of every OpType. They are used both by the ops (to compute
// the shape of their output) and by Builder.Emit and Graph.Validate (to check declared outputs).

// outputShape returns the shape of the output of op given its inputs.
//
// For ops whose output shape is chosen by the caller (Parameter, Constant and Reshape), requested
// is validated against the inputs and returned.
//
// Errors wrap ErrShapeInconsistency.
func outputShape(op OpType, inputs []shapes.Shape, requested shapes.Shape, params Params) (shapes.Shape, error) {
	if want := op.NumInputs(); want < 0 {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "no shape rule for op %s", op)
	} else if len(inputs) != want {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "op %s takes %d inputs, got %d", op, want, len(inputs))
	}
	for ii, input := range inputs {
		if !input.Ok() {
			return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "op %s: input #%d has invalid shape %s", op, ii, input)
		}
	}

	switch op {
	case OpTypeParameter, OpTypeConstant:
		if !requested.Ok() {
			return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "op %s: invalid output shape %s", op, requested)
		}
		return requested.Clone(), nil

	case OpTypeReshape:
		return reshapeShape(inputs[0], requested)

	case OpTypeTranspose:
		return transposeShape(inputs[0], params.Axes)

	case OpTypeMatMul:
		return matMulShape(inputs[0], inputs[1])

	case OpTypeDiv, OpTypeAdd:
		if !inputs[0].Equal(inputs[1]) {
			return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
				"op %s requires operands of the same shape, got %s and %s", op, inputs[0], inputs[1])
		}
		return inputs[0].Clone(), nil

	case OpTypeSoftmax:
		if len(params.Axes) > 1 {
			return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "op %s takes at most one axis, got %v", op, params.Axes)
		}
		if len(params.Axes) == 1 {
			if _, err := checkAxis(op, inputs[0], params.Axes[0]); err != nil {
				return shapes.Shape{}, err
			}
		}
		return inputs[0].Clone(), nil

	case OpTypeCopy:
		return inputs[0].Clone(), nil
	}
	return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "no shape rule for op %s", op)
}

func checkAxis(op OpType, shape shapes.Shape, axis int) (int, error) {
	adjusted := axis
	if adjusted < 0 {
		adjusted += shape.Rank()
	}
	if adjusted < 0 || adjusted >= shape.Rank() {
		return 0, errors.Wrapf(ErrShapeInconsistency, "op %s: axis %d out-of-bounds for shape %s", op, axis, shape)
	}
	return adjusted, nil
}

// reshapeShape requires the same dtype and the same number of elements.
func reshapeShape(x, requested shapes.Shape) (shapes.Shape, error) {
	if !requested.Ok() {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "Reshape: invalid target shape %s", requested)
	}
	if requested.DType != x.DType {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"Reshape cannot change the dtype: %s -> %s", x, requested)
	}
	if requested.Size() != x.Size() {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"Reshape must preserve the number of elements: %s has %d elements, target %s has %d",
			x, x.Size(), requested, requested.Size())
	}
	return requested.Clone(), nil
}

// transposeShape swaps exactly two axes.
func transposeShape(x shapes.Shape, axes []int) (shapes.Shape, error) {
	if len(axes) != 2 {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency, "Transpose takes exactly 2 axes, got %v", axes)
	}
	a, err := checkAxis(OpTypeTranspose, x, axes[0])
	if err != nil {
		return shapes.Shape{}, err
	}
	b, err := checkAxis(OpTypeTranspose, x, axes[1])
	if err != nil {
		return shapes.Shape{}, err
	}
	return x.SwapAxes(a, b), nil
}

// matMulShape implements batched matrix multiplication: the last two axes of each operand are the
// matrices, and the leading (batch) axes are broadcast against each other.
func matMulShape(a, b shapes.Shape) (shapes.Shape, error) {
	if a.Rank() < 2 || b.Rank() < 2 {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"MatMul requires operands of rank >= 2, got %s and %s", a, b)
	}
	if a.DType != b.DType {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"MatMul requires operands of the same dtype, got %s and %s", a, b)
	}
	if a.Dim(-1) != b.Dim(-2) {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"MatMul contracting dimensions don't match: %s x %s (%d != %d)", a, b, a.Dim(-1), b.Dim(-2))
	}
	batch, ok := broadcastDims(a.Dimensions[:a.Rank()-2], b.Dimensions[:b.Rank()-2])
	if !ok {
		return shapes.Shape{}, errors.Wrapf(ErrShapeInconsistency,
			"MatMul batch dimensions can't be broadcast: %s x %s", a, b)
	}
	dims := append(batch, a.Dim(-2), b.Dim(-1))
	return shapes.Make(a.DType, dims...), nil
}

// broadcastDims aligns a and b from the end: equal dimensions are kept, a missing or 1-sized
// dimension takes the size of the other side.
func broadcastDims(a, b []int) ([]int, bool) {
	n := max(len(a), len(b))
	out := make([]int, n)
	for ii := range n {
		da, db := 1, 1
		if jj := len(a) - n + ii; jj >= 0 {
			da = a[jj]
		}
		if jj := len(b) - n + ii; jj >= 0 {
			db = b[jj]
		}
		switch {
		case da == db:
			out[ii] = da
		case da == 1:
			out[ii] = db
		case db == 1:
			out[ii] = da
		default:
			return nil, false
		}
	}
	return out, true
}
