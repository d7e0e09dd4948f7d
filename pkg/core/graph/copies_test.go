// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph_test

import (
	"fmt"
	"slices"
	"testing"

	. "github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/stretchr/testify/require"
)

// canonicalForm describes g independently of the order of its edges. Since ExplicitCopies
// preserves node ids, two graphs with the same canonical form are isomorphic.
func canonicalForm(g *Graph) []string {
	var lines []string
	for _, e := range g.Edges() {
		lines = append(lines, e.String())
	}
	slices.Sort(lines)
	for id := range g.NumNodes() {
		lines = append(lines, fmt.Sprintf("%s: %s", NodeID(id), g.NodeShape(NodeID(id))))
	}
	lines = append(lines, fmt.Sprintf("inputs=%v outputs=%v", g.Inputs(), g.Outputs()))
	return lines
}

// requireNoSharing checks that no node of g is used more than once.
func requireNoSharing(t *testing.T, g *Graph) {
	t.Helper()
	for id, uses := range g.NumUses() {
		require.LessOrEqualf(t, uses, 1, "node #%d is used %d times", id, uses)
	}
}

func TestExplicitCopiesResidual(t *testing.T) {
	g := buildResidual(t)
	simplified := ExplicitCopies(g)
	require.NoError(t, simplified.Validate())
	requireNoSharing(t, simplified)

	// x (#0) is read by MatMul and Add: it gets one Copy with 2 outputs (#4, #5).
	require.Equal(t, 6, simplified.NumNodes())
	edges := simplified.Edges()
	require.Len(t, edges, 4)
	require.Equal(t, OpTypeCopy, edges[0].Op)
	require.Equal(t, []NodeID{0}, edges[0].Inputs)
	require.Equal(t, []NodeID{4, 5}, edges[0].Outputs)
	require.Equal(t, OpTypeParameter, edges[1].Op)
	require.Equal(t, OpTypeMatMul, edges[2].Op)
	require.Equal(t, []NodeID{4, 1}, edges[2].Inputs)
	require.Equal(t, OpTypeAdd, edges[3].Op)
	require.Equal(t, []NodeID{2, 5}, edges[3].Inputs)

	// Ports are preserved.
	require.Equal(t, g.Inputs(), simplified.Inputs())
	require.Equal(t, g.Outputs(), simplified.Outputs())
	require.Equal(t, g.InputShapes(), simplified.InputShapes())
	require.Equal(t, g.OutputShapes(), simplified.OutputShapes())

	// The original graph is not modified.
	require.Equal(t, 4, g.NumNodes())
	require.Equal(t, 0, g.CountOps(OpTypeCopy))
}

func TestExplicitCopiesSharedOutputPorts(t *testing.T) {
	g, err := Build("shared_outputs", func(b *Builder) []Variable {
		x := b.DeclareInput(MakeShape(F32, 2, 4))
		y := Softmax(x)
		z := Transpose(y, 0, 1)
		return []Variable{y, z, z, x}
	})
	require.NoError(t, err)
	simplified := ExplicitCopies(g)
	require.NoError(t, simplified.Validate())
	requireNoSharing(t, simplified)

	// x: Softmax + output port -> copy. y: Transpose + output port -> copy. z: two output ports -> copy.
	require.Equal(t, 3, simplified.CountOps(OpTypeCopy))
	require.Equal(t, g.OutputShapes(), simplified.OutputShapes())
	require.Equal(t, g.InputShapes(), simplified.InputShapes())
	require.Equal(t, g.Inputs(), simplified.Inputs())
	outputs := simplified.Outputs()
	require.Len(t, outputs, 4)
	require.NotEqual(t, outputs[1], outputs[2])
	for _, id := range outputs {
		require.Equal(t, OpTypeCopy, simplified.Edges()[simplified.Producer(id)].Op)
	}
}

func TestExplicitCopiesNoSharing(t *testing.T) {
	g, err := Build("chain", func(b *Builder) []Variable {
		x := b.DeclareInput(MakeShape(F32, 2, 4))
		return []Variable{Transpose(Softmax(x), 0, 1)}
	})
	require.NoError(t, err)
	simplified := ExplicitCopies(g)
	require.Equal(t, canonicalForm(g), canonicalForm(simplified))
	require.Equal(t, 0, simplified.CountOps(OpTypeCopy))
}

func TestExplicitCopiesIdempotent(t *testing.T) {
	g, err := Build("diamond", func(b *Builder) []Variable {
		x := b.DeclareInput(MakeShape(F32, 4, 4))
		w := Parameter(b, MakeShape(F32, 4, 4), "w")
		h := MatMul(x, w)
		s := Softmax(h)
		d := Div(h, s)
		return []Variable{Add(d, Add(x, h)), h}
	})
	require.NoError(t, err)
	once := ExplicitCopies(g)
	twice := ExplicitCopies(once)
	require.NoError(t, once.Validate())
	require.NoError(t, twice.Validate())
	require.Equal(t, canonicalForm(once), canonicalForm(twice))
	require.Equal(t, g.InputShapes(), twice.InputShapes())
	require.Equal(t, g.OutputShapes(), twice.OutputShapes())

	// h is read by Softmax, Div, Add and an output port.
	var hCopy Edge
	for _, e := range once.EdgesOf(OpTypeCopy) {
		if e.Inputs[0] == 2 {
			hCopy = e
		}
	}
	require.Len(t, hCopy.Outputs, 4)
}
