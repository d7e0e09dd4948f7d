// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"github.com/pkg/errors"
)

// UncheckedAxis can be used in CheckDims for an axis whose dimension doesn't matter.
const UncheckedAxis = int(-1)

// HasShape is an interface for objects that have an associated Shape.
// graph.Variable and Shape itself implement it.
type HasShape interface {
	Shape() Shape
}

// CheckDims checks that the shape has the given dimensions and rank. A value of UncheckedAxis (-1) in
// dimensions means it can take any value and is not checked.
func (s Shape) CheckDims(dimensions ...int) error {
	if s.Rank() != len(dimensions) {
		return errors.Errorf("shape %s has incompatible rank %d (wanted %d)", s, s.Rank(), len(dimensions))
	}
	for ii, wantDim := range dimensions {
		if wantDim != UncheckedAxis && s.Dimensions[ii] != wantDim {
			return errors.Errorf("shape %s axis %d has dimension %d, wanted %d (shape wanted=%v)",
				s, ii, s.Dimensions[ii], wantDim, dimensions)
		}
	}
	return nil
}

// CheckRank checks that the shape has the given rank.
func (s Shape) CheckRank(rank int) error {
	if s.Rank() != rank {
		return errors.Errorf("shape %s has incompatible rank %d -- wanted %d", s, s.Rank(), rank)
	}
	return nil
}

// CheckDims of any object with a shape. See Shape.CheckDims.
func CheckDims(shaped HasShape, dimensions ...int) error {
	return shaped.Shape().CheckDims(dimensions...)
}

// CheckRank of any object with a shape. See Shape.CheckRank.
func CheckRank(shaped HasShape, rank int) error {
	return shaped.Shape().CheckRank(rank)
}
