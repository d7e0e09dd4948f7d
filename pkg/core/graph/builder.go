// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph builds typed computation graphs of tensor operations.
//
// The main elements in the package are:
//
//   - Builder: the mutable context where a graph is assembled. It allocates nodes, records the
//     operations (edges) that produce them and keeps the ordered list of input and output ports.
//     Every layer that contributes to the same diagram is given the same Builder.
//
//   - Variable: a typed handle to a node of a Builder. Ops (Reshape, Transpose, MatMul, Add, ...)
//     take Variables and return new Variables, appending edges to the Builder.
//
//   - Graph: the finished, immutable graph, extracted with Builder.Graph (or returned by Build).
//     ExplicitCopies rewrites it so that values consumed more than once go through explicit Copy
//     edges, which is what one wants to see in a diagram.
//
// No numeric computation happens here: only shapes are computed and checked.
//
// # Error Handling
//
// Like the rest of GoMLX graph building, ops "throw" errors with panic(), with a full stack trace.
// The errors wrap ErrContextMismatch or ErrShapeInconsistency, so they can be tested with errors.Is.
// Build catches them and returns them as a regular error. A failed op never leaves a partial node
// in the graph.
package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrContextMismatch is raised when an op combines Variables from different Builders.
	ErrContextMismatch = errors.New("variables belong to different graph builders")

	// ErrShapeInconsistency is raised when an op's output shape can't be derived from its inputs.
	ErrShapeInconsistency = errors.New("inconsistent shapes")

	// ErrMalformedGraph is returned by Graph.Validate for structural problems (dangling or
	// multiply-produced nodes, cycles).
	ErrMalformedGraph = errors.New("malformed graph")
)

// NodeID is a unique id of a node within a Builder (and the Graph it produces).
// Ids are allocated sequentially from 0.
type NodeID int

// InvalidNodeID is the id of the zero Variable.
const InvalidNodeID = NodeID(-1)

// Builder is the mutable context where a graph is assembled.
//
// Any number of Variables may refer to the same Builder. Mutating calls (DeclareInput,
// DeclareOutput, Emit) are serialized by a mutex, but assembling a layer issues several of
// them, so one Builder should be used by one goroutine at a time.
//
// Construction is append-only: there is no way to remove a node or an edge.
type Builder struct {
	mu     sync.Mutex
	name   string
	traced bool

	nodes   []shapes.Shape
	edges   []Edge
	inputs  []NodeID
	outputs []NodeID
}

// NewBuilder creates an empty Builder. If name is empty, a unique one is generated.
func NewBuilder(name string) *Builder {
	if name == "" {
		name = "graph_" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	return &Builder{name: name}
}

// Name of the graph being built.
func (b *Builder) Name() string {
	if b == nil {
		return "<nil>"
	}
	return b.name
}

// SetTraced defines whether each new edge stores the stack trace of where it was created.
// See Edge.Trace.
func (b *Builder) SetTraced(traced bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.traced = traced
}

// NumNodes returns the number of nodes allocated so far.
func (b *Builder) NumNodes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodes)
}

// NumEdges returns the number of ops recorded so far.
func (b *Builder) NumEdges() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.edges)
}

// newNodeLocked allocates a node. b.mu must be held.
func (b *Builder) newNodeLocked(shape shapes.Shape) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, shape.Clone())
	return id
}

// DeclareInput creates a new input node of the given shape, and appends it to the graph's
// ordered list of input ports.
func (b *Builder) DeclareInput(shape shapes.Shape) Variable {
	if !shape.Ok() {
		panic(errors.Wrapf(ErrShapeInconsistency, "Builder(%q).DeclareInput: invalid shape %s", b.name, shape))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newNodeLocked(shape)
	b.inputs = append(b.inputs, id)
	klog.V(2).Infof("graph %q: input #%d %s", b.name, id, shape)
	return Variable{builder: b, id: id, shape: shape.Clone()}
}

// DeclareOutput appends v to the graph's ordered list of output ports.
// The same node can be declared as output more than once.
func (b *Builder) DeclareOutput(v Variable) {
	b.assertOwns("DeclareOutput", v)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outputs = append(b.outputs, v.id)
	klog.V(2).Infof("graph %q: output #%d %s", b.name, v.id, v.shape)
}

// assertOwns panics with ErrContextMismatch if any of the variables doesn't belong to b.
func (b *Builder) assertOwns(caller string, vars ...Variable) {
	for ii, v := range vars {
		if v.builder != b {
			panic(errors.Wrapf(ErrContextMismatch, "%s: input #%d (%s) belongs to graph %q, not to graph %q",
				caller, ii, v, v.builder.Name(), b.Name()))
		}
	}
}

// Emit records a new op with the given inputs, and returns a Variable for its freshly allocated
// output node.
//
// It panics with ErrContextMismatch if any input belongs to a different Builder, and with
// ErrShapeInconsistency if output can't be derived from the inputs' shapes under the op's shape
// rule. In both cases the graph is left unchanged.
//
// Most users will use the ops (Reshape, MatMul, ...) instead, which compute output themselves.
func (b *Builder) Emit(op OpType, inputs []Variable, output shapes.Shape, params Params) Variable {
	if op == OpTypeCopy {
		exceptions.Panicf("Builder(%q).Emit: %s edges can only be created by ExplicitCopies", b.name, op)
	}
	b.assertOwns(op.String(), inputs...)
	inputShapes := make([]shapes.Shape, len(inputs))
	for ii, input := range inputs {
		inputShapes[ii] = input.shape
	}
	want, err := outputShape(op, inputShapes, output, params)
	if err != nil {
		panic(errors.WithMessagef(err, "graph %q", b.name))
	}
	if !want.Equal(output) {
		panic(errors.Wrapf(ErrShapeInconsistency, "graph %q: op %s declared output %s, but its inputs %v yield %s",
			b.name, op, output, inputShapes, want))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.newNodeLocked(output)
	edge := Edge{
		Op:      op,
		Inputs:  make([]NodeID, len(inputs)),
		Outputs: []NodeID{id},
		Params:  params.clone(),
	}
	for ii, input := range inputs {
		edge.Inputs[ii] = input.id
	}
	if b.traced {
		edge.trace = errors.Errorf("%s created at", op)
	}
	b.edges = append(b.edges, edge)
	if klog.V(2).Enabled() {
		klog.Infof("graph %q: %s", b.name, edge.format(b.nodes))
	}
	return Variable{builder: b, id: id, shape: output.Clone()}
}

// Graph returns a snapshot of the graph built so far. The Builder can continue to be used, and
// further changes won't affect the returned Graph.
func (b *Builder) Graph() *Graph {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &Graph{
		name:    b.name,
		nodes:   make([]shapes.Shape, len(b.nodes)),
		edges:   make([]Edge, len(b.edges)),
		inputs:  append([]NodeID(nil), b.inputs...),
		outputs: append([]NodeID(nil), b.outputs...),
	}
	for ii, shape := range b.nodes {
		g.nodes[ii] = shape.Clone()
	}
	for ii, edge := range b.edges {
		g.edges[ii] = edge.clone()
	}
	return g
}

// String returns a multi-line description of the graph built so far.
func (b *Builder) String() string {
	if b == nil {
		return "Builder(nil)"
	}
	return b.Graph().String()
}

// BuildFn declares inputs with Builder.DeclareInput, assembles the graph and returns its outputs.
type BuildFn func(b *Builder) (outputs []Variable)

// Build creates a Builder, calls fn, declares the returned Variables as the graph's outputs (in
// order), and returns the finished Graph.
//
// Any error thrown (panic) while building is returned, with its stack trace preserved.
// Panics of types other than error are re-thrown.
func Build(name string, fn BuildFn) (*Graph, error) {
	b := NewBuilder(name)
	err := exceptions.TryCatch[error](func() {
		for _, output := range fn(b) {
			b.DeclareOutput(output)
		}
	})
	if err != nil {
		return nil, err
	}
	g := b.Graph()
	klog.V(1).Infof("built graph %q: %d nodes, %d edges", g.Name(), g.NumNodes(), g.NumEdges())
	return g, nil
}

// MustBuild is like Build, but panics on error.
func MustBuild(name string, fn BuildFn) *Graph {
	g, err := Build(name, fn)
	if err != nil {
		panic(err)
	}
	return g
}

// String implements fmt.Stringer.
func (id NodeID) String() string {
	return fmt.Sprintf("#%d", int(id))
}
