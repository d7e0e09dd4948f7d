// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/stretchr/testify/require"
)

func TestValidateMalformed(t *testing.T) {
	s := shapes.Make(dtypes.Float32, 2, 2)
	other := shapes.Make(dtypes.Float32, 3)
	testCases := []struct {
		name    string
		g       *Graph
		wantErr error
	}{
		{"dangling node", &Graph{
			nodes:  []shapes.Shape{s, s},
			inputs: []NodeID{0},
		}, ErrMalformedGraph},
		{"missing output port", &Graph{
			nodes:   []shapes.Shape{s},
			inputs:  []NodeID{0},
			outputs: []NodeID{3},
		}, ErrMalformedGraph},
		{"input produced", &Graph{
			nodes:  []shapes.Shape{s},
			edges:  []Edge{{Op: OpTypeParameter, Outputs: []NodeID{0}}},
			inputs: []NodeID{0},
		}, ErrMalformedGraph},
		{"produced twice", &Graph{
			nodes: []shapes.Shape{s, s},
			edges: []Edge{
				{Op: OpTypeParameter, Outputs: []NodeID{0}},
				{Op: OpTypeParameter, Outputs: []NodeID{1}},
				{Op: OpTypeSoftmax, Inputs: []NodeID{0}, Outputs: []NodeID{1}},
			},
		}, ErrMalformedGraph},
		{"cycle", &Graph{
			nodes: []shapes.Shape{s, s},
			edges: []Edge{
				{Op: OpTypeSoftmax, Inputs: []NodeID{1}, Outputs: []NodeID{0}},
				{Op: OpTypeSoftmax, Inputs: []NodeID{0}, Outputs: []NodeID{1}},
			},
		}, ErrMalformedGraph},
		{"self loop", &Graph{
			nodes: []shapes.Shape{s},
			edges: []Edge{{Op: OpTypeSoftmax, Inputs: []NodeID{0}, Outputs: []NodeID{0}}},
		}, ErrMalformedGraph},
		{"multi-output non-copy", &Graph{
			nodes:  []shapes.Shape{s, s, s},
			edges:  []Edge{{Op: OpTypeSoftmax, Inputs: []NodeID{0}, Outputs: []NodeID{1, 2}}},
			inputs: []NodeID{0},
		}, ErrMalformedGraph},
		{"wrong output shape", &Graph{
			nodes:  []shapes.Shape{s, other},
			edges:  []Edge{{Op: OpTypeSoftmax, Inputs: []NodeID{0}, Outputs: []NodeID{1}}},
			inputs: []NodeID{0},
		}, ErrShapeInconsistency},
		{"copy changes shape", &Graph{
			nodes:  []shapes.Shape{s, s, other},
			edges:  []Edge{{Op: OpTypeCopy, Inputs: []NodeID{0}, Outputs: []NodeID{1, 2}}},
			inputs: []NodeID{0},
		}, ErrShapeInconsistency},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.g.name = tc.name
			err := tc.g.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
	require.Panics(t, func() { ExplicitCopies(testCases[4].g) }, "cycles can't be simplified")
}

func TestBroadcastDims(t *testing.T) {
	got, ok := broadcastDims([]int{2, 1}, []int{5})
	require.True(t, ok)
	require.Equal(t, []int{2, 5}, got)
	got, ok = broadcastDims(nil, nil)
	require.True(t, ok)
	require.Empty(t, got)
	_, ok = broadcastDims([]int{2}, []int{3})
	require.False(t, ok)
}
