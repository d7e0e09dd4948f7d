// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package diagram draws a graph.Graph with Graphviz.
//
// The graph is converted to the DOT language (using gonum's DOT encoder): tensors are ellipses
// labeled by their shape, ops are boxes, and the boundary ports are small labeled nodes.
// Render and Save then run the Graphviz `dot` binary, which must be installed, to produce an
// image (SVG by default).
package diagram

import (
	"fmt"
	"strconv"

	"github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/pkg/errors"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// ErrRendering is wrapped by all errors generating, rendering or writing a diagram.
var ErrRendering = errors.New("rendering failure")

// Format of the rendered diagram, as accepted by `dot -T<format>`.
// FormatDot is special: it's the DOT source itself, and doesn't require Graphviz.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatDot Format = "dot"
)

// Theme holds the colors of a diagram. Empty values leave Graphviz defaults.
type Theme struct {
	BgColor   string
	FontColor string
	Color     string
}

// DarkTheme is a light-on-dark theme.
var DarkTheme = Theme{
	BgColor:   "#1C1C1C",
	FontColor: "#EAEEF4",
	Color:     "#EAEEF4",
}

// Options to generate a diagram. The zero value is valid: it labels tensors by their dimensions,
// uses Graphviz default colors and renders SVG.
type Options struct {
	// NodeLabel returns the label of a tensor node. Defaults to shapes.Shape.DimsString,
	// which omits the dtype.
	NodeLabel func(shape shapes.Shape) string

	// Theme, if not nil, sets the colors of the diagram.
	Theme *Theme

	// Format of the output of Render and Save. Defaults to FormatSVG.
	Format Format

	// DotBinary is the Graphviz program used to render. Defaults to "dot" (searched in PATH).
	DotBinary string
}

// DefaultOptions labels tensors by their dimensions only, uses DarkTheme and renders SVG.
func DefaultOptions() Options {
	theme := DarkTheme
	return Options{
		NodeLabel: shapes.Shape.DimsString,
		Theme:     &theme,
		Format:    FormatSVG,
	}
}

func (o Options) withDefaults() Options {
	if o.NodeLabel == nil {
		o.NodeLabel = shapes.Shape.DimsString
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.DotBinary == "" {
		o.DotBinary = "dot"
	}
	return o
}

// attributes implements encoding.Attributer.
type attributes []encoding.Attribute

func (a attributes) Attributes() []encoding.Attribute { return a }

// node of the DOT graph: a tensor, an op or a port.
type node struct {
	id    int64
	dotID string
	attrs attributes
}

func (n node) ID() int64                        { return n.id }
func (n node) DOTID() string                    { return n.dotID }
func (n node) Attributes() []encoding.Attribute { return n.attrs }

// line connects two nodes. Lines are used (as opposed to edges) because an op may read
// the same tensor more than once.
type line struct {
	from, to gonumgraph.Node
	id       int64
	attrs    attributes
}

func (l line) From() gonumgraph.Node            { return l.from }
func (l line) To() gonumgraph.Node              { return l.to }
func (l line) ID() int64                        { return l.id }
func (l line) Attributes() []encoding.Attribute { return l.attrs }
func (l line) ReversedLine() gonumgraph.Line {
	return line{from: l.to, to: l.from, id: l.id, attrs: l.attrs}
}

// dotGraph adds the graph-wide attributes to the gonum multigraph.
type dotGraph struct {
	*multi.DirectedGraph
	name                  string
	graphAttrs, nodeAttrs attributes
	edgeAttrs             attributes
}

func (g *dotGraph) DOTID() string { return g.name }

func (g *dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return g.graphAttrs, g.nodeAttrs, g.edgeAttrs
}

// opLabel describes an op in its box.
func opLabel(e graph.Edge) string {
	switch e.Op {
	case graph.OpTypeParameter:
		if e.Params.Name != "" {
			return fmt.Sprintf("%s\n%s", e.Op, e.Params.Name)
		}
	case graph.OpTypeConstant:
		return fmt.Sprintf("%s\n%s", e.Op, strconv.FormatFloat(e.Params.Value, 'g', 6, 64))
	case graph.OpTypeTranspose:
		return fmt.Sprintf("%s %v", e.Op, e.Params.Axes)
	}
	return e.Op.String()
}

// newDotGraph converts g to a gonum multigraph ready to be marshaled to DOT.
func newDotGraph(g *graph.Graph, opts Options) *dotGraph {
	dg := &dotGraph{
		DirectedGraph: multi.NewDirectedGraph(),
		name:          g.Name(),
		graphAttrs:    attributes{{Key: "rankdir", Value: "LR"}},
		nodeAttrs:     attributes{{Key: "fontname", Value: "Helvetica"}},
	}
	if theme := opts.Theme; theme != nil {
		if theme.BgColor != "" {
			dg.graphAttrs = append(dg.graphAttrs, encoding.Attribute{Key: "bgcolor", Value: theme.BgColor})
		}
		if theme.FontColor != "" {
			dg.nodeAttrs = append(dg.nodeAttrs, encoding.Attribute{Key: "fontcolor", Value: theme.FontColor})
			dg.edgeAttrs = append(dg.edgeAttrs, encoding.Attribute{Key: "fontcolor", Value: theme.FontColor})
		}
		if theme.Color != "" {
			dg.nodeAttrs = append(dg.nodeAttrs, encoding.Attribute{Key: "color", Value: theme.Color})
			dg.edgeAttrs = append(dg.edgeAttrs, encoding.Attribute{Key: "color", Value: theme.Color})
		}
	}

	// Ids: tensors first, then ops, then ports.
	numNodes := int64(g.NumNodes())
	tensors := make([]node, numNodes)
	for id := range tensors {
		tensors[id] = node{
			id:    int64(id),
			dotID: fmt.Sprintf("t%d", id),
			attrs: attributes{
				{Key: "shape", Value: "ellipse"},
				{Key: "label", Value: opts.NodeLabel(g.NodeShape(graph.NodeID(id)))},
			},
		}
		dg.AddNode(tensors[id])
	}
	nextID := numNodes
	var lineID int64
	connect := func(from, to gonumgraph.Node, attrs attributes) {
		dg.SetLine(line{from: from, to: to, id: lineID, attrs: attrs})
		lineID++
	}
	for ei, e := range g.Edges() {
		op := node{
			id:    nextID,
			dotID: fmt.Sprintf("op%d", ei),
			attrs: attributes{
				{Key: "shape", Value: "box"},
				{Key: "label", Value: opLabel(e)},
			},
		}
		nextID++
		dg.AddNode(op)
		for slot, input := range e.Inputs {
			var attrs attributes
			if len(e.Inputs) > 1 {
				attrs = attributes{{Key: "label", Value: strconv.Itoa(slot)}}
			}
			connect(tensors[input], op, attrs)
		}
		for _, output := range e.Outputs {
			connect(op, tensors[output], nil)
		}
	}
	addPorts := func(kind string, ids []graph.NodeID) {
		for ii, id := range ids {
			port := node{
				id:    nextID,
				dotID: fmt.Sprintf("%s%d", kind, ii),
				attrs: attributes{
					{Key: "shape", Value: "plaintext"},
					{Key: "label", Value: fmt.Sprintf("%s %d", kind, ii)},
				},
			}
			nextID++
			dg.AddNode(port)
			if kind == "input" {
				connect(port, tensors[id], attributes{{Key: "style", Value: "dashed"}})
			} else {
				connect(tensors[id], port, attributes{{Key: "style", Value: "dashed"}})
			}
		}
	}
	addPorts("input", g.Inputs())
	addPorts("output", g.Outputs())
	return dg
}

// Dot returns the DOT language description of g.
func Dot(g *graph.Graph, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	dg := newDotGraph(g, opts)
	data, err := dot.MarshalMulti(dg, g.Name(), "", "  ")
	if err != nil {
		return nil, errors.Wrapf(ErrRendering, "failed to generate DOT for graph %q: %v", g.Name(), err)
	}
	return data, nil
}
