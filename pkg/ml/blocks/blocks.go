// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package blocks builds the graphs of complete example blocks (attention, residual), ready to be
// simplified and drawn.
package blocks

import (
	"maps"
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/gomlx/layergraph/pkg/ml/layers"
	"github.com/pkg/errors"
)

// ErrUnknownBlock is returned by Build for names not in Names().
var ErrUnknownBlock = errors.New("unknown block")

// Config holds the hyperparameters of a block.
//
// The input of the block is shaped `[BatchSize, SeqLen, Dim]` for attention and
// `[SeqLen, Dim]` for residual. Residual has no heads and no batch axis, so it ignores
// BatchSize and NumHeads (see Definition.IgnoredFields).
type Config struct {
	BatchSize int
	SeqLen    int
	Dim       int
	NumHeads  int
	DType     dtypes.DType
}

// DefaultAttentionConfig returns the configuration of the attention example: x shaped [1, 1, 8].
func DefaultAttentionConfig() Config {
	return Config{BatchSize: 1, SeqLen: 1, Dim: 8, NumHeads: layers.NumHeads, DType: dtypes.Float32}
}

// DefaultResidualConfig returns the configuration of the residual example: x shaped [8, 8].
func DefaultResidualConfig() Config {
	return Config{BatchSize: 1, SeqLen: 8, Dim: 8, NumHeads: layers.NumHeads, DType: dtypes.Float32}
}

// Attention builds a graph with one input x, shaped [BatchSize, SeqLen, Dim], and one output:
// the multi-head self-attention of x.
func Attention(cfg Config) (*graph.Graph, error) {
	return graph.Build("attention", func(b *graph.Builder) []graph.Variable {
		x := b.DeclareInput(shapes.Make(cfg.DType, cfg.BatchSize, cfg.SeqLen, cfg.Dim))
		y := layers.MultiHeadAttention(x, cfg.Dim, "attention").SetNumHeads(cfg.NumHeads).Done()
		return []graph.Variable{y}
	})
}

// Residual builds a graph with one input x, shaped [SeqLen, Dim], and one output:
// `LinearLayer(x) + x`.
func Residual(cfg Config) (*graph.Graph, error) {
	return graph.Build("residual", func(b *graph.Builder) []graph.Variable {
		x := b.DeclareInput(shapes.Make(cfg.DType, cfg.SeqLen, cfg.Dim))
		return []graph.Variable{layers.Residual(x)}
	})
}

// Definition of a block: how to build it and its default configuration.
type Definition struct {
	Build         func(cfg Config) (*graph.Graph, error)
	DefaultConfig func() Config

	// IgnoredFields lists the Config fields the block doesn't use.
	IgnoredFields []string
}

var registry = map[string]Definition{
	"attention": {
		Build:         Attention,
		DefaultConfig: DefaultAttentionConfig,
	},
	"residual": {
		Build:         Residual,
		DefaultConfig: DefaultResidualConfig,
		IgnoredFields: []string{"BatchSize", "NumHeads"},
	},
}

// Names of the known blocks, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup returns the definition of the named block.
func Lookup(name string) (Definition, error) {
	def, found := registry[name]
	if !found {
		return Definition{}, errors.Wrapf(ErrUnknownBlock, "block %q (known blocks: %v)", name, Names())
	}
	return def, nil
}

// Build the named block with the given configuration.
func Build(name string, cfg Config) (*graph.Graph, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Build(cfg)
}
