// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package diagram

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gomlx/layergraph/pkg/core/graph"
	"github.com/janpfeifer/gonb/gonbui"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Render converts g to DOT and pipes it through Graphviz, returning the image in opts.Format.
// For FormatDot it returns the DOT source without running Graphviz.
func Render(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	src, err := Dot(g, opts)
	if err != nil {
		return nil, err
	}
	if opts.Format == FormatDot {
		return src, nil
	}
	binary, err := exec.LookPath(opts.DotBinary)
	if err != nil {
		return nil, errors.Wrapf(ErrRendering, "Graphviz program %q not found: %v", opts.DotBinary, err)
	}
	klog.V(1).Infof("rendering graph %q to %s with %s", g.Name(), opts.Format, binary)
	cmd := exec.CommandContext(ctx, binary, "-T"+string(opts.Format))
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(ErrRendering, "%s -T%s failed for graph %q: %v: %s",
			binary, opts.Format, g.Name(), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Save renders g and writes it to path.
//
// The file is first written to a temporary file in the same directory and then renamed, so on
// failure nothing is left at path. All errors wrap ErrRendering.
func Save(ctx context.Context, g *graph.Graph, path string, opts Options) error {
	data, err := Render(ctx, g, opts)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(ErrRendering, "cannot create file for %q: %v", path, err)
	}
	tmpPath := f.Name()
	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(ErrRendering, "failed to write %q: %v", path, err)
	}
	klog.V(1).Infof("saved graph %q to %q (%d bytes)", g.Name(), path, len(data))
	return nil
}

// Display renders g as SVG and displays it in a GoNB notebook cell.
// Outside a notebook it does nothing.
func Display(ctx context.Context, g *graph.Graph, opts Options) error {
	if !gonbui.IsNotebook {
		return nil
	}
	opts.Format = FormatSVG
	data, err := Render(ctx, g, opts)
	if err != nil {
		return err
	}
	gonbui.DisplayHTML(string(data))
	return nil
}
