// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// layerdiagram builds the example blocks (attention and residual), prints their DOT description
// and renders them to image files with Graphviz.
//
// Usage:
//
//	layerdiagram [-block=attention|residual|all] [-output_dir=images] [-format=svg] [-summary]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/gomlx/layergraph/pkg/ml/blocks"
	"github.com/gomlx/layergraph/ui/diagram"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagBlock = flag.String("block", "all",
		fmt.Sprintf("Block to build: one of %q, or \"all\".", blocks.Names()))
	flagOutputDir = flag.String("output_dir", "images",
		"Directory where the diagrams are saved, as <block>.<format>. Created if missing. "+
			"If empty, no diagram files are written.")
	flagFormat = flag.String("format", "svg",
		"Output format passed to Graphviz (svg, png, pdf), or \"dot\" to save the DOT source.")
	flagTheme = flag.String("theme", "dark", "Diagram colors: \"dark\" or \"none\" for Graphviz defaults.")

	flagDim   = flag.Int("dim", 0, "Model dimension. If 0, the block default is used.")
	flagBatch = flag.Int("batch", 0, "Batch size. If 0, the block default is used.")
	flagSeq   = flag.Int("seq", 0, "Sequence length. If 0, the block default is used.")
	flagHeads = flag.Int("heads", 0, "Number of attention heads. If 0, the block default is used.")

	flagSimplify = flag.Bool("simplify", true,
		"Make every duplication explicit with Copy ops before drawing.")
	flagPrintDot = flag.Bool("print_dot", true, "Print the DOT description of each block to stdout.")
	flagSummary  = flag.Bool("summary", false, "Display a summary of each block: sizes and op counts.")
	flagTensors  = flag.Bool("tensors", false,
		"List the tensors of each block. Tensors used more than once are highlighted.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %q. See 'layerdiagram -help'.", flag.Args())
		os.Exit(1)
	}
	names, err := selectBlocks(*flagBlock)
	if err != nil {
		klog.Errorf("%v. See 'layerdiagram -help'.", err)
		os.Exit(1)
	}
	ctx := context.Background()
	for _, name := range names {
		if err := run(ctx, name); err != nil {
			klog.Errorf("Failed block %q: %+v", name, err)
			os.Exit(1)
		}
	}
}

// selectBlocks parses the -block flag.
func selectBlocks(block string) ([]string, error) {
	if block == "" || block == "all" {
		return blocks.Names(), nil
	}
	var names []string
	for _, name := range strings.Split(block, ",") {
		name = strings.TrimSpace(name)
		if _, err := blocks.Lookup(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// configFieldFlags maps blocks.Config fields to the names of the flags that set them.
var configFieldFlags = map[string]string{
	"Dim":       "dim",
	"BatchSize": "batch",
	"SeqLen":    "seq",
	"NumHeads":  "heads",
}

// ignoredFlags returns the flags that were set but are not used by the block.
func ignoredFlags(def blocks.Definition) []string {
	var names []string
	for _, field := range def.IgnoredFields {
		f := flag.Lookup(configFieldFlags[field])
		if f != nil && f.Value.String() != f.DefValue {
			names = append(names, f.Name)
		}
	}
	return names
}

// configFromFlags overrides the block defaults with the flags that were set.
func configFromFlags(cfg blocks.Config) blocks.Config {
	if *flagDim > 0 {
		cfg.Dim = *flagDim
	}
	if *flagBatch > 0 {
		cfg.BatchSize = *flagBatch
	}
	if *flagSeq > 0 {
		cfg.SeqLen = *flagSeq
	}
	if *flagHeads > 0 {
		cfg.NumHeads = *flagHeads
	}
	return cfg
}

func diagramOptions() (diagram.Options, error) {
	opts := diagram.DefaultOptions()
	opts.Format = diagram.Format(*flagFormat)
	switch *flagTheme {
	case "dark":
	case "none":
		opts.Theme = nil
	default:
		return opts, errors.Errorf("unknown theme %q", *flagTheme)
	}
	return opts, nil
}

// run builds, describes and saves one block.
func run(ctx context.Context, name string) error {
	def, err := blocks.Lookup(name)
	if err != nil {
		return err
	}
	if ignored := ignoredFlags(def); len(ignored) > 0 {
		klog.Warningf("Block %q doesn't use the flags %q, they are ignored.", name, ignored)
	}
	g, err := def.Build(configFromFlags(def.DefaultConfig()))
	if err != nil {
		return err
	}
	if *flagSimplify {
		g = graph.ExplicitCopies(g)
	}
	opts, err := diagramOptions()
	if err != nil {
		return err
	}

	if *flagPrintDot {
		src, err := diagram.Dot(g, opts)
		if err != nil {
			return err
		}
		fmt.Println(string(src))
	}
	if *flagSummary {
		summary(name, g)
	}
	if *flagTensors {
		tensors(g)
	}
	if *flagOutputDir == "" {
		return nil
	}
	must.M(os.MkdirAll(*flagOutputDir, 0o755))
	path := filepath.Join(*flagOutputDir, name+"."+*flagFormat)
	if err := diagram.Save(ctx, g, path, opts); err != nil {
		return err
	}
	klog.Infof("Saved %q", path)
	return nil
}

func shapesList(list []shapes.Shape) string {
	parts := make([]string, len(list))
	for ii, s := range list {
		parts[ii] = s.String()
	}
	return strings.Join(parts, ", ")
}

func summary(name string, g *graph.Graph) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Block %q", name)))
	table := newPlainTable(false, lipgloss.Right, lipgloss.Left)
	table.Row("graph", g.Name())
	table.Row("inputs", shapesList(g.InputShapes()))
	table.Row("outputs", shapesList(g.OutputShapes()))
	table.Row("# tensors", humanize.Comma(int64(g.NumNodes())))
	table.Row("# ops", humanize.Comma(int64(g.NumEdges())))

	var numParams int
	var memory uintptr
	for _, e := range g.EdgesOf(graph.OpTypeParameter) {
		shape := g.NodeShape(e.Output())
		numParams += shape.Size()
		memory += shape.Memory()
	}
	table.Row("# parameters", humanize.Comma(int64(numParams)))
	table.Row("# bytes", humanize.Bytes(uint64(memory)))
	fmt.Println(table.Render())

	table = newPlainTable(true, lipgloss.Left, lipgloss.Right)
	table.Headers("Op", "Count")
	counts := g.OpCounts()
	for _, op := range graph.OpTypeValues() {
		if count := counts[op]; count > 0 {
			table.Row(op.String(), humanize.Comma(int64(count)))
		}
	}
	fmt.Println(table.Render())
}

func tensors(g *graph.Graph) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Tensors of %q", g.Name())))
	table := newPlainTableWithReds(true, lipgloss.Right, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	table.Table.Headers("Node", "Shape", "Producer", "Uses")
	edges := g.Edges()
	uses := g.NumUses()
	for id := range g.NumNodes() {
		nodeID := graph.NodeID(id)
		producer := "input"
		if ei := g.Producer(nodeID); ei >= 0 {
			producer = edges[ei].Op.String()
			if name := edges[ei].Params.Name; name != "" {
				producer = fmt.Sprintf("%s(%s)", producer, name)
			}
		}
		table.Row(uses[id] > 1, nodeID.String(), g.NodeShape(nodeID).String(), producer, humanize.Comma(int64(uses[id])))
	}
	fmt.Println(table.Table.Render())
}
