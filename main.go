package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/chazu/lumen/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "evaluate and render signed distance field scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene script",
			Description: `
Evaluate a scene script and render it with the selected shading policy.

The path-traced renderer accumulates --iterations passes. With --snapshot the
running average is saved after every pass and --resume picks it up again.`,
			ArgsUsage: "scene.lisp",
			Flags:     append(append(append([]cli.Flag{}, cmd.RenderFlags...), cmd.VoxelFlags...), cmd.ProgressiveFlags...),
			Action:    cmd.RenderScene,
		},
		{
			Name:  "graph",
			Usage: "render a node graph",
			Description: `
Compile a node graph and evaluate its color output for every pixel. With
--renderer pbr the graph's field output is voxelized and shaded instead.`,
			ArgsUsage: "shader.graph",
			Flags:     append(append(append([]cli.Flag{}, cmd.RenderFlags...), cmd.VoxelFlags...), cmd.ProgressiveFlags...),
			Action:    cmd.RenderGraph,
		},
		{
			Name:  "voxelize",
			Usage: "sample a scene or graph field into a compressed voxel cache",
			Description: `
Fill a model buffer from a scene script (or, with --graph, a node graph's
field output) and write it to a zstd compressed cache that the render
command accepts through --volume.`,
			ArgsUsage: "scene.lisp",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "graph",
					Usage: "treat the input as a node graph",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of slice workers",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "model.lvox",
					Usage: "voxel cache filename",
				},
			}, cmd.VoxelFlags...),
			Action: cmd.Voxelize,
		},
		{
			Name:      "mesh",
			Usage:     "export a scene script as an STL mesh",
			ArgsUsage: "scene.lisp",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "cells",
					Value: 200,
					Usage: "marching cubes resolution along the longest axis",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "scene.stl",
					Usage: "STL filename",
				},
			}, cmd.VoxelFlags...),
			Action: cmd.Mesh,
		},
	}

	app.Run(os.Args)
}
