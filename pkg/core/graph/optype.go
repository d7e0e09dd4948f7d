// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"strings"
)

// OpType identifies the operation recorded by an Edge of the graph.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota

	// OpTypeParameter is a zero-input op producing a learnable parameter, identified by Params.Name.
	OpTypeParameter

	// OpTypeConstant is a zero-input op producing a tensor filled with Params.Value.
	OpTypeConstant

	OpTypeReshape
	OpTypeTranspose
	OpTypeMatMul
	OpTypeDiv
	OpTypeAdd
	OpTypeSoftmax

	// OpTypeCopy duplicates its single input into one output per consumer.
	// It is only created by ExplicitCopies.
	OpTypeCopy
)

// NumInputs returns the number of inputs the op takes.
func (op OpType) NumInputs() int {
	switch op {
	case OpTypeParameter, OpTypeConstant:
		return 0
	case OpTypeMatMul, OpTypeDiv, OpTypeAdd:
		return 2
	case OpTypeInvalid:
		return -1
	default:
		return 1
	}
}

// Params holds the static parameters of an Edge. Which fields are used depends on the OpType.
type Params struct {
	// Name of a Parameter, or the layer that created the op.
	Name string

	// Axes of a Transpose (exactly 2) or Softmax (at most 1, defaults to the last axis).
	Axes []int

	// Value of a Constant.
	Value float64
}

func (p Params) clone() Params {
	if p.Axes != nil {
		p.Axes = append([]int(nil), p.Axes...)
	}
	return p
}

// String implements fmt.Stringer. Empty fields are omitted, and Value is only
// printed when non-zero: see Edge.String for the per-op formatting.
func (p Params) String() string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", p.Name))
	}
	if len(p.Axes) > 0 {
		parts = append(parts, fmt.Sprintf("axes=%v", p.Axes))
	}
	if p.Value != 0 {
		parts = append(parts, fmt.Sprintf("value=%g", p.Value))
	}
	return strings.Join(parts, ", ")
}
