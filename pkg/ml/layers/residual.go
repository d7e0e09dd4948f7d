// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	. "github.com/gomlx/layergraph/pkg/core/graph"
)

// ResidualLinearName is the name of the parameter created by Residual.
const ResidualLinearName = "linear"

// LinearLayer is a simplified square linear layer for diagrams: it multiplies x by one
// [N, N] parameter, where N is x's last dimension.
//
// Note the operand order: the product is `x·W`, not `W·x`, so x is operand 0 of the MatMul and the
// parameter is operand 1. This keeps the output shaped like x for any `[..., N]` input.
func LinearLayer(name string, x Variable) Variable {
	x.AssertValid()
	n := x.Shape().Dim(-1)
	return Linear(n, n, name, x)
}

// Residual returns `LinearLayer(x) + x`, with the output shape of x.
func Residual(x Variable) Variable {
	return Add(LinearLayer(ResidualLinearName, x), x)
}
