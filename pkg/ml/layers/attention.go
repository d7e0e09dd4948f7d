// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"math"

	. "github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/gomlx/layergraph/pkg/core/shapes"
	"github.com/pkg/errors"
)

// NumHeads is the number of heads used by Attention.
const NumHeads = 4

// Attention is a multi-head self-attention layer with NumHeads heads, for x shaped
// `[batch, seq, dim]`. It returns a Variable of the same shape.
//
// The parameters are named `<name>.key`, `<name>.query`, `<name>.value` and `<name>.proj`.
func Attention(dim int, name string, x Variable) Variable {
	return MultiHeadAttention(x, dim, name).Done()
}

// MultiHeadAttentionBuilder is a helper to build a multi-head self-attention computation.
// Create it with MultiHeadAttention, set the desired parameters, and when all is set, call Done.
type MultiHeadAttentionBuilder struct {
	x        Variable
	dim      int
	name     string
	numHeads int
}

// MultiHeadAttention defines a multi-head self-attention layer, as described in the paper
// "Attention Is All You Need", https://arxiv.org/abs/1706.03762.
//
// x must be shaped `[batch, seq, dim]`. Query, key and value are linear projections of x,
// split into numHeads heads of dimension headDim = dim / numHeads. For each head, the
// scaled dot-product `softmax(query x key^T / sqrt(headDim))` weights the value; the heads are
// then merged back and projected, so the result has x's shape.
//
// The number of heads defaults to NumHeads, see MultiHeadAttentionBuilder.SetNumHeads.
func MultiHeadAttention(x Variable, dim int, name string) *MultiHeadAttentionBuilder {
	x.AssertValid()
	if err := shapes.CheckRank(x, 3); err != nil {
		panic(errors.Wrapf(ErrShapeInconsistency, "MultiHeadAttention(%q): x must be shaped [batch, seq, dim]: %v", name, err))
	}
	return &MultiHeadAttentionBuilder{x: x, dim: dim, name: name, numHeads: NumHeads}
}

// SetNumHeads sets the number of heads. dim must be divisible by it.
func (b *MultiHeadAttentionBuilder) SetNumHeads(numHeads int) *MultiHeadAttentionBuilder {
	b.numHeads = numHeads
	return b
}

// HeadDim returns the dimension of each head.
func (b *MultiHeadAttentionBuilder) HeadDim() int {
	return b.dim / b.numHeads
}

// Done builds the attention layer and returns its output, shaped like x.
func (b *MultiHeadAttentionBuilder) Done() Variable {
	output, _ := b.DoneWithCoefficients()
	return output
}

// DoneWithCoefficients builds the attention layer and returns its output along with the
// attention coefficients (the softmax output), shaped `[batch, numHeads, seq, seq]`.
func (b *MultiHeadAttentionBuilder) DoneWithCoefficients() (output, coefficients Variable) {
	x := b.x
	if b.numHeads < 1 || b.dim%b.numHeads != 0 {
		panic(errors.Wrapf(ErrShapeInconsistency, "MultiHeadAttention(%q): dim=%d must be divisible by the number of heads (%d)",
			b.name, b.dim, b.numHeads))
	}
	numHeads, headDim := b.numHeads, b.HeadDim()
	batchSize, seqLen := x.Shape().Dim(0), x.Shape().Dim(1)

	key := Linear(b.dim, b.dim, b.name+".key", x)
	query := Linear(b.dim, b.dim, b.name+".query", x)
	value := Linear(b.dim, b.dim, b.name+".value", x)

	// Split heads: [batch, seq, dim] -> [batch, numHeads, seq, headDim].
	splitHeads := func(v Variable) Variable {
		v = Reshape(v, batchSize, seqLen, numHeads, headDim)
		return Transpose(v, 1, 2)
	}
	query, key, value = splitHeads(query), splitHeads(key), splitHeads(value)

	// Scaled dot-product: [batch, numHeads, seq, seq].
	keyT := Transpose(key, 2, 3)
	scores := MatMul(query, keyT)
	denominator := Constant(x.Builder(), scores.Shape(), math.Sqrt(float64(headDim)))
	coefficients = Softmax(scores.Div(denominator))

	// Merge heads: [batch, numHeads, seq, headDim] -> [batch, seq, dim].
	output = MatMul(coefficients, value)
	output = Transpose(output, 1, 2)
	output = Reshape(output, batchSize, seqLen, b.dim)
	output = Linear(b.dim, b.dim, b.name+".proj", output)
	return
}
