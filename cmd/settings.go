package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/config"
	"github.com/chazu/lumen/pkg/vec"
)

// RenderFlags are shared by every command that produces an image.
var RenderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: config.DefaultWidth,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: config.DefaultHeight,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "aa",
		Value: config.DefaultAntialias,
		Usage: "antialiasing grid per axis (2 means 2x2 samples per pixel)",
	},
	cli.StringFlag{
		Name:  "renderer, r",
		Value: string(config.Phong),
		Usage: fmt.Sprintf("shading policy, one of %v", config.Renderers),
	},
	cli.IntFlag{
		Name:  "iterations, i",
		Value: config.DefaultIterations,
		Usage: "progressive passes for the path tracer",
	},
	cli.IntFlag{
		Name:  "workers, w",
		Value: runtime.NumCPU(),
		Usage: "number of tile workers",
	},
	cli.IntFlag{
		Name:  "tile",
		Value: config.DefaultTileSize,
		Usage: "square tile size in pixels",
	},
	cli.StringFlag{
		Name:  "background",
		Usage: "background color as r,g,b or r,g,b,a",
	},
	cli.BoolFlag{
		Name:  "sky",
		Usage: "use a vertical sky gradient as background",
	},
	cli.BoolFlag{
		Name:  "linear",
		Usage: "write linear colors instead of gamma corrected ones",
	},
	cli.StringFlag{
		Name:  "checkpoint",
		Usage: "write the partial image to this file after every tile",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame",
	},
}

// VoxelFlags configure the model buffer.
var VoxelFlags = []cli.Flag{
	cli.Float64Flag{
		Name:  "density",
		Value: config.DefaultVoxelDensity,
		Usage: "voxels per scene unit",
	},
	cli.StringFlag{
		Name:  "bounds",
		Value: "4,4,4",
		Usage: "voxel volume extents as x,y,z",
	},
}

// loadSettings layers defaults, LUMEN_* environment variables and explicit
// command line flags, in that order.
func loadSettings(ctx *cli.Context) (config.Settings, error) {
	s, err := config.FromEnv(config.Default())
	if err != nil {
		return s, err
	}

	if ctx.IsSet("width") {
		s.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		s.Height = ctx.Int("height")
	}
	if ctx.IsSet("aa") {
		s.Antialias = ctx.Int("aa")
	}
	if ctx.IsSet("renderer") {
		s.Renderer = config.Renderer(strings.ToLower(ctx.String("renderer")))
	}
	if ctx.IsSet("iterations") {
		s.Iterations = ctx.Int("iterations")
	}
	if ctx.IsSet("workers") {
		s.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("tile") {
		s.TileW, s.TileH = ctx.Int("tile"), ctx.Int("tile")
	}
	if ctx.IsSet("background") {
		v, err := config.ParseFloats(ctx.String("background"))
		if err != nil || (len(v) != 3 && len(v) != 4) {
			return s, fmt.Errorf("%w: --background must be r,g,b or r,g,b,a", config.ErrInvalid)
		}
		if len(v) == 3 {
			v = append(v, 1)
		}
		s.Background = vec.XYZW(v[0], v[1], v[2], v[3])
	}
	if ctx.Bool("sky") {
		s.BackgroundFunc = true
	}
	if ctx.Bool("linear") {
		s.Gamma = false
	}
	if ctx.IsSet("checkpoint") {
		s.Checkpoint = ctx.String("checkpoint")
	}
	if ctx.IsSet("density") {
		s.VoxelDensity = ctx.Float64("density")
	}
	if ctx.IsSet("bounds") {
		v, err := config.ParseFloats(ctx.String("bounds"))
		if err != nil || len(v) != 3 {
			return s, fmt.Errorf("%w: --bounds must be x,y,z", config.ErrInvalid)
		}
		s.VoxelBounds = vec.XYZ(v[0], v[1], v[2])
	}

	setupLogging(ctx, s.LogLevel)
	return s, s.Validate()
}
