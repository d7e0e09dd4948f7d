// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"k8s.io/klog/v2"
)

// use is one read of a node: either the input slot of an edge, or an output port.
type use struct {
	edge int // Index of the edge, or -1 for an output port.
	slot int // Input position in the edge, or the output port index.
}

// ExplicitCopies returns a copy of g where every node used more than once goes through an
// explicit Copy edge: one Copy per shared node, with one output per use, and each use rewired
// to its own copy. A use is an edge input slot or an output port.
//
// This makes fan-out visible when the graph is drawn. The boundary ports keep their order and
// shapes (an output port that shared its node with other uses now points to a copy), and no
// edge's input values change.
//
// It is idempotent: in the result no node is used more than once, so applying it again returns
// a graph with the same nodes, ports and edges (possibly listed in a different topological order).
//
// It panics if g is malformed (see Graph.Validate).
func ExplicitCopies(g *Graph) *Graph {
	order, err := g.topologicalOrder()
	if err != nil {
		panic(err)
	}

	uses := make([][]use, len(g.nodes))
	for ei, e := range g.edges {
		for slot, input := range e.Inputs {
			uses[input] = append(uses[input], use{edge: ei, slot: slot})
		}
	}
	for slot, output := range g.outputs {
		uses[output] = append(uses[output], use{edge: -1, slot: slot})
	}

	result := &Graph{
		name:    g.name,
		nodes:   slices.Clone(g.nodes),
		edges:   make([]Edge, 0, len(g.edges)),
		inputs:  slices.Clone(g.inputs),
		outputs: slices.Clone(g.outputs),
	}
	rewired := make([]Edge, len(g.edges))
	for ei, e := range g.edges {
		rewired[ei] = e.clone()
	}

	copies := make(map[NodeID]Edge)
	for node, nodeUses := range uses {
		if len(nodeUses) <= 1 {
			continue
		}
		source := NodeID(node)
		copyEdge := Edge{
			Op:      OpTypeCopy,
			Inputs:  []NodeID{source},
			Outputs: make([]NodeID, 0, len(nodeUses)),
		}
		for _, u := range nodeUses {
			id := NodeID(len(result.nodes))
			result.nodes = append(result.nodes, g.nodes[source].Clone())
			copyEdge.Outputs = append(copyEdge.Outputs, id)
			if u.edge < 0 {
				result.outputs[u.slot] = id
			} else {
				rewired[u.edge].Inputs[u.slot] = id
			}
		}
		copies[source] = copyEdge
		klog.V(2).Infof("graph %q: node %s %s has %d uses, inserting %s",
			g.name, source, g.nodes[source], len(nodeUses), copyEdge)
	}

	// Copies go right after the node they duplicate is available: inputs first, then after
	// each producing edge, which keeps the edges topologically sorted.
	numCopies := len(copies)
	appendCopy := func(id NodeID) {
		if copyEdge, found := copies[id]; found {
			result.edges = append(result.edges, copyEdge)
			delete(copies, id)
		}
	}
	for _, input := range g.inputs {
		appendCopy(input)
	}
	for _, ei := range order {
		result.edges = append(result.edges, rewired[ei])
		for _, output := range g.edges[ei].Outputs {
			appendCopy(output)
		}
	}
	klog.V(1).Infof("graph %q: %d explicit copies inserted", g.name, numCopies)
	return result
}
