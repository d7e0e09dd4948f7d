// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/pkg/errors"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Edge is one op recorded in the graph: it consumes the Inputs nodes (in order) and produces the
// Outputs nodes. Every op produces exactly one output, except Copy which produces one per consumer.
//
// The slices are shared with the Graph: treat them as read-only.
type Edge struct {
	Op      OpType
	Inputs  []NodeID
	Outputs []NodeID
	Params  Params

	trace error
}

func (e Edge) clone() Edge {
	e.Inputs = slices.Clone(e.Inputs)
	e.Outputs = slices.Clone(e.Outputs)
	e.Params = e.Params.clone()
	return e
}

// Output returns the first (usually only) output of the edge.
func (e Edge) Output() NodeID { return e.Outputs[0] }

// Trace returns the stack trace of where the edge was emitted, if the Builder was traced.
// See Builder.SetTraced.
func (e Edge) Trace() error { return e.trace }

// String implements fmt.Stringer.
func (e Edge) String() string {
	return e.format(nil)
}

// format prints the edge, including the shapes of its outputs if nodes is given.
func (e Edge) format(nodes []shapes.Shape) string {
	var sb strings.Builder
	sb.WriteString(e.Op.String())
	sb.WriteString("(")
	args := make([]string, 0, len(e.Inputs)+1)
	for _, input := range e.Inputs {
		args = append(args, input.String())
	}
	if e.Op == OpTypeConstant {
		args = append(args, fmt.Sprintf("value=%g", e.Params.Value))
	} else if params := e.Params.String(); params != "" {
		args = append(args, params)
	}
	sb.WriteString(strings.Join(args, ", "))
	sb.WriteString(") -> ")
	for ii, output := range e.Outputs {
		if ii > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(output.String())
		if int(output) >= 0 && int(output) < len(nodes) {
			sb.WriteString(" ")
			sb.WriteString(nodes[output].String())
		}
	}
	return sb.String()
}

// Graph is a finished, immutable computation graph: nodes are typed by a Shape, edges are ops,
// and ordered lists of input and output nodes define its boundary ports.
//
// Create it with Build or Builder.Graph.
type Graph struct {
	name    string
	nodes   []shapes.Shape
	edges   []Edge
	inputs  []NodeID
	outputs []NodeID
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// NumNodes returns the number of nodes. Node ids go from 0 to NumNodes()-1.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of ops in the graph.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NodeShape returns the shape of the node with the given id.
func (g *Graph) NodeShape(id NodeID) shapes.Shape { return g.nodes[id].Clone() }

// Edges returns the ops of the graph, in a topological order. It must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// Inputs returns the ordered list of input ports.
func (g *Graph) Inputs() []NodeID { return slices.Clone(g.inputs) }

// Outputs returns the ordered list of output ports.
func (g *Graph) Outputs() []NodeID { return slices.Clone(g.outputs) }

// InputShapes returns the shapes of the input ports, in order.
func (g *Graph) InputShapes() []shapes.Shape { return g.shapesOf(g.inputs) }

// OutputShapes returns the shapes of the output ports, in order.
func (g *Graph) OutputShapes() []shapes.Shape { return g.shapesOf(g.outputs) }

func (g *Graph) shapesOf(ids []NodeID) []shapes.Shape {
	result := make([]shapes.Shape, len(ids))
	for ii, id := range ids {
		result[ii] = g.nodes[id].Clone()
	}
	return result
}

// EdgesOf returns the edges of the given op type, in graph order.
func (g *Graph) EdgesOf(op OpType) []Edge {
	var result []Edge
	for _, e := range g.edges {
		if e.Op == op {
			result = append(result, e)
		}
	}
	return result
}

// CountOps returns the number of edges of the given op type.
func (g *Graph) CountOps(op OpType) int {
	return len(g.EdgesOf(op))
}

// OpCounts returns the number of edges per op type.
func (g *Graph) OpCounts() map[OpType]int {
	counts := make(map[OpType]int)
	for _, e := range g.edges {
		counts[e.Op]++
	}
	return counts
}

// Producer returns the index (in Edges) of the edge that produces the node, or -1 for input nodes.
func (g *Graph) Producer(id NodeID) int {
	for ii, e := range g.edges {
		if slices.Contains(e.Outputs, id) {
			return ii
		}
	}
	return -1
}

// NumUses returns, for each node, how many times it is used: once per edge input slot that
// reads it and once per output port that exposes it.
func (g *Graph) NumUses() []int {
	uses := make([]int, len(g.nodes))
	for _, e := range g.edges {
		for _, input := range e.Inputs {
			uses[input]++
		}
	}
	for _, output := range g.outputs {
		uses[output]++
	}
	return uses
}

// String returns a multi-line description of the graph.
func (g *Graph) String() string {
	if g == nil {
		return "Graph(nil)"
	}
	parts := []string{
		fmt.Sprintf("Graph %q: %d nodes, %d edges, %d inputs, %d outputs",
			g.name, len(g.nodes), len(g.edges), len(g.inputs), len(g.outputs)),
	}
	for ii, id := range g.inputs {
		parts = append(parts, fmt.Sprintf("\tinput %d:\t%s %s", ii, id, g.nodes[id]))
	}
	for ii, e := range g.edges {
		parts = append(parts, fmt.Sprintf("\t[%d]\t%s", ii, e.format(g.nodes)))
	}
	for ii, id := range g.outputs {
		parts = append(parts, fmt.Sprintf("\toutput %d:\t%s %s", ii, id, g.nodes[id]))
	}
	return strings.Join(parts, "\n")
}

// Validate checks the structural invariants of the graph:
//
//   - every node referenced by an edge or a port exists;
//   - input ports are not produced by any edge, and every other node is produced by exactly one edge;
//   - the shapes of every edge's outputs derive from its inputs under the op's shape rule;
//   - there are no cycles.
//
// Graphs created by a Builder (and by ExplicitCopies) are always valid.
func (g *Graph) Validate() error {
	numNodes := NodeID(len(g.nodes))
	inRange := func(id NodeID) bool { return id >= 0 && id < numNodes }
	producedBy := make([]int, numNodes)
	for ii := range producedBy {
		producedBy[ii] = -1
	}
	for _, id := range g.inputs {
		if !inRange(id) {
			return errors.Wrapf(ErrMalformedGraph, "graph %q: input port %s doesn't exist", g.name, id)
		}
		producedBy[id] = len(g.edges)
	}
	for _, id := range g.outputs {
		if !inRange(id) {
			return errors.Wrapf(ErrMalformedGraph, "graph %q: output port %s doesn't exist", g.name, id)
		}
	}
	for ei, e := range g.edges {
		if len(e.Outputs) == 0 || (e.Op != OpTypeCopy && len(e.Outputs) != 1) {
			return errors.Wrapf(ErrMalformedGraph, "graph %q: edge [%d] %s has %d outputs", g.name, ei, e, len(e.Outputs))
		}
		for _, id := range slices.Concat(e.Inputs, e.Outputs) {
			if !inRange(id) {
				return errors.Wrapf(ErrMalformedGraph, "graph %q: edge [%d] %s refers to missing node %s", g.name, ei, e, id)
			}
		}
		for _, id := range e.Outputs {
			if producedBy[id] != -1 {
				return errors.Wrapf(ErrMalformedGraph, "graph %q: node %s produced more than once (edge [%d] %s)",
					g.name, id, ei, e)
			}
			producedBy[id] = ei
		}
		inputShapes := g.shapesOf(e.Inputs)
		for _, id := range e.Outputs {
			want, err := outputShape(e.Op, inputShapes, g.nodes[id], e.Params)
			if err != nil {
				return errors.WithMessagef(err, "graph %q: edge [%d] %s", g.name, ei, e)
			}
			if !want.Equal(g.nodes[id]) {
				return errors.Wrapf(ErrShapeInconsistency, "graph %q: edge [%d] %s outputs %s, but its inputs yield %s",
					g.name, ei, e, g.nodes[id], want)
			}
		}
	}
	for id, producer := range producedBy {
		if producer == -1 {
			return errors.Wrapf(ErrMalformedGraph, "graph %q: node %s is neither an input nor produced by any edge",
				g.name, NodeID(id))
		}
	}
	if _, err := g.topologicalOrder(); err != nil {
		return err
	}
	return nil
}

// topologicalOrder returns the indices of the edges sorted such that every edge comes after the
// producers of its inputs. Ties are broken by the id of the edge's first output, so the order is
// deterministic and depends only on the structure of the graph.
func (g *Graph) topologicalOrder() ([]int, error) {
	dg := simple.NewDirectedGraph()
	edgeByKey := make(map[int64]int, len(g.edges))
	producerKey := make(map[NodeID]int64)
	for ei, e := range g.edges {
		key := int64(e.Outputs[0])
		edgeByKey[key] = ei
		dg.AddNode(simple.Node(key))
		for _, output := range e.Outputs {
			producerKey[output] = key
		}
	}
	for ei, e := range g.edges {
		to := int64(e.Outputs[0])
		for _, input := range e.Inputs {
			from, found := producerKey[input]
			if !found {
				continue // Input port.
			}
			if from == to {
				return nil, errors.Wrapf(ErrMalformedGraph, "graph %q: edge [%d] %s consumes its own output", g.name, ei, e)
			}
			dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}
	sorted, err := topo.SortStabilized(dg, func(nodes []gonumgraph.Node) {
		slices.SortFunc(nodes, func(a, b gonumgraph.Node) int {
			return int(a.ID() - b.ID())
		})
	})
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedGraph, "graph %q has cycles: %v", g.name, err)
	}
	order := make([]int, len(sorted))
	for ii, node := range sorted {
		order[ii] = edgeByKey[node.ID()]
	}
	return order, nil
}
