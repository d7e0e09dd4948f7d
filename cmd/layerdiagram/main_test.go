// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/layergraph/pkg/ml/blocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setFlag sets a flag for the duration of the test.
func setFlag[T any](t *testing.T, flag *T, value T) {
	previous := *flag
	*flag = value
	t.Cleanup(func() { *flag = previous })
}

func TestSelectBlocks(t *testing.T) {
	names, err := selectBlocks("all")
	require.NoError(t, err)
	assert.Equal(t, blocks.Names(), names)

	names, err = selectBlocks("residual, attention")
	require.NoError(t, err)
	assert.Equal(t, []string{"residual", "attention"}, names)

	_, err = selectBlocks("convolution")
	require.ErrorIs(t, err, blocks.ErrUnknownBlock)
}

func TestConfigFromFlags(t *testing.T) {
	cfg := configFromFlags(blocks.DefaultAttentionConfig())
	assert.Equal(t, blocks.DefaultAttentionConfig(), cfg)

	setFlag(t, flagDim, 16)
	setFlag(t, flagHeads, 2)
	cfg = configFromFlags(blocks.DefaultAttentionConfig())
	assert.Equal(t, 16, cfg.Dim)
	assert.Equal(t, 2, cfg.NumHeads)
	assert.Equal(t, blocks.DefaultAttentionConfig().SeqLen, cfg.SeqLen)
}

func TestIgnoredFlags(t *testing.T) {
	residual, err := blocks.Lookup("residual")
	require.NoError(t, err)
	attention, err := blocks.Lookup("attention")
	require.NoError(t, err)
	assert.Empty(t, ignoredFlags(residual))

	setFlag(t, flagBatch, 4)
	setFlag(t, flagHeads, 2)
	setFlag(t, flagDim, 16)
	assert.Equal(t, []string{"batch", "heads"}, ignoredFlags(residual))
	assert.Empty(t, ignoredFlags(attention))
}

func TestRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	setFlag(t, flagOutputDir, dir)
	setFlag(t, flagFormat, "dot")
	setFlag(t, flagPrintDot, false)
	setFlag(t, flagSummary, true)
	setFlag(t, flagTensors, true)
	for _, simplify := range []bool{false, true} {
		setFlag(t, flagSimplify, simplify)
		for _, name := range blocks.Names() {
			require.NoError(t, run(context.Background(), name))
			data, err := os.ReadFile(filepath.Join(dir, name+".dot"))
			require.NoError(t, err)
			assert.Contains(t, string(data), "digraph")
			if simplify {
				assert.Contains(t, string(data), "Copy")
			} else {
				assert.NotContains(t, string(data), "Copy")
			}
		}
	}
}

func TestRunInvalid(t *testing.T) {
	setFlag(t, flagOutputDir, "")
	setFlag(t, flagPrintDot, false)

	setFlag(t, flagTheme, "pink")
	require.Error(t, run(context.Background(), "residual"))
	setFlag(t, flagTheme, "dark")

	// 8 is not divisible by 3 heads.
	setFlag(t, flagHeads, 3)
	require.Error(t, run(context.Background(), "attention"))
}
