// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergraph/pkg/core/shapes"
)

// Variable is a typed handle to a node of a Builder.
//
// It is a small value: copy it freely. Variables are immutable: ops return new Variables
// and never change the nodes of their inputs. The zero value is invalid.
type Variable struct {
	builder *Builder
	id      NodeID
	shape   shapes.Shape
}

// Builder this Variable belongs to.
func (v Variable) Builder() *Builder { return v.builder }

// ID of the node within its Builder, or InvalidNodeID for the zero Variable.
func (v Variable) ID() NodeID {
	if v.builder == nil {
		return InvalidNodeID
	}
	return v.id
}

// Shape of the node.
func (v Variable) Shape() shapes.Shape { return v.shape.Clone() }

// DType of the node's shape.
func (v Variable) DType() dtypes.DType { return v.shape.DType }

// Rank of the node's shape.
func (v Variable) Rank() int { return v.shape.Rank() }

// Valid returns whether v refers to a node of some Builder.
func (v Variable) Valid() bool { return v.builder != nil }

// AssertValid panics if v is the zero Variable.
func (v Variable) AssertValid() {
	if !v.Valid() {
		exceptions.Panicf("invalid (zero) graph.Variable")
	}
}

// String implements fmt.Stringer.
func (v Variable) String() string {
	if !v.Valid() {
		return "Variable(invalid)"
	}
	return fmt.Sprintf("Variable(%s %s)", v.id, v.shape)
}

// Add returns v + other, elementwise. See Add.
func (v Variable) Add(other Variable) Variable { return Add(v, other) }

// Div returns v / other, elementwise. See Div.
func (v Variable) Div(other Variable) Variable { return Div(v, other) }
