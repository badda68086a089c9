package cmd

import (
	"errors"

	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/config"
	"github.com/chazu/lumen/pkg/nodegraph"
	"github.com/chazu/lumen/pkg/render"
)

// RenderGraph compiles a node graph and renders it. Without an explicit
// --renderer the graph's color output is evaluated per pixel; with
// --renderer pbr its field output is voxelized and shaded.
func RenderGraph(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return err
	}
	if !ctx.IsSet("renderer") {
		s.Renderer = config.Graph
	}

	if ctx.NArg() != 1 {
		return errors.New("missing graph file argument")
	}
	g, err := nodegraph.CompileFile(ctx.Args().First(), nodegraph.Builtins())
	if err != nil {
		return err
	}
	logger.Infof("compiled %s: %d nodes", ctx.Args().First(), len(g.Nodes))

	r := &render.Renderer{Settings: s, Graph: g}
	if path := ctx.String("volume"); path != "" {
		if r.Volume, err = loadVolume(path); err != nil {
			return err
		}
	}
	return renderAndSave(r, ctx.String("out"))
}
