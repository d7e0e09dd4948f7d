// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the type of every value in a layergraph computation graph.
//
// A Shape is an ordered list of dimensions plus the DType of the unit element. DType is the
// enumeration defined in github.com/gomlx/gopjrt/dtypes (dtypes.Float32 is the usual one).
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of a dimension. Negative axes count from the end, so -1 is the last axis.
//   - Dimension: the size of a tensor in one of its axes.
//   - DType: the data type of the unit element in a tensor.
//
// Example: a `[2, 3]` matrix of float32 has shape `(Float32)[2 3]`, created with
// `shapes.Make(dtypes.Float32, 2, 3)`.
//
// Shapes in a graph are never scalars: every shape has at least one axis and every
// dimension is >= 1. Make panics otherwise.
package shapes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrInvalidShape is wrapped by the panics of Make and of the shape derivations below.
var ErrInvalidShape = errors.New("invalid shape")

// Shape of a node in the computation graph: dtype and dimensions.
//
// Use Make to create a new shape. Shape values are treated as immutable: the methods
// that derive a new shape always return a copy.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape structure filled with the values given.
//
// It panics (with an error wrapping ErrInvalidShape) if no dimensions are given, or if
// any dimension is < 1.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	if err := s.validate(); err != nil {
		panic(err)
	}
	return s
}

func (s Shape) validate() error {
	if s.DType == dtypes.InvalidDType {
		return errors.Wrapf(ErrInvalidShape, "shapes.Make(%s): invalid dtype", s)
	}
	if len(s.Dimensions) == 0 {
		return errors.Wrapf(ErrInvalidShape, "shapes.Make(%s): shapes must have at least one axis", s)
	}
	for axis, dim := range s.Dimensions {
		if dim < 1 {
			return errors.Wrapf(ErrInvalidShape, "shapes.Make(%s): axis %d has dimension %d, it must be >= 1", s, axis, dim)
		}
	}
	return nil
}

// Ok returns whether this is a valid Shape. A "zero" shape, Shape{}, is invalid.
func (s Shape) Ok() bool { return s.validate() == nil }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// Dim returns the dimension of the given axis. axis can take negative numbers, in which
// case it counts from the end -- axis=-1 refers to the last axis.
// It panics for an out-of-bound axis, like slice indexing.
func (s Shape) Dim(axis int) int {
	return s.Dimensions[s.adjustAxis("Shape.Dim", axis)]
}

func (s Shape) adjustAxis(caller string, axis int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += s.Rank()
	}
	if adjusted < 0 || adjusted >= s.Rank() {
		exceptions.Panicf("%s(%d) out-of-bounds for rank %d (shape=%s)", caller, axis, s.Rank(), s)
	}
	return adjusted
}

// Shape returns itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape, e.g.: `(Float32)[1 1 8]`.
func (s Shape) String() string {
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// DimsString returns only the dimensions, formatted as `[1, 1, 8]`.
// Used as the node label of diagrams, where the dtype is omitted for readability.
func (s Shape) DimsString() string {
	parts := make([]string, len(s.Dimensions))
	for ii, dim := range s.Dimensions {
		parts[ii] = strconv.Itoa(dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Size returns the number of elements of DType needed for this shape: the product of all dimensions.
func (s Shape) Size() int {
	return product(s.Dimensions)
}

func product[T constraints.Integer](values []T) T {
	var result T = 1
	for _, v := range values {
		result *= v
	}
	return result
}

// Memory returns the number of bytes needed to store a tensor of this shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// WithDimensions returns a new shape with the same DType and the given dimensions.
//
// The result is not validated, so a requested shape can be checked (see Ok) by whoever consumes it.
func (s Shape) WithDimensions(dimensions ...int) Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(dimensions)}
}

// SwapAxes returns a copy of the shape with the dimensions of axisA and axisB swapped.
// Negative axes are counted from the end.
func (s Shape) SwapAxes(axisA, axisB int) Shape {
	a := s.adjustAxis("Shape.SwapAxes", axisA)
	b := s.adjustAxis("Shape.SwapAxes", axisB)
	s2 := s.Clone()
	s2.Dimensions[a], s2.Dimensions[b] = s2.Dimensions[b], s2.Dimensions[a]
	return s2
}
