package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/buffer"
	"github.com/chazu/lumen/pkg/engine"
	"github.com/chazu/lumen/pkg/render"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/voxel"
)

// ProgressiveFlags control path-traced snapshots.
var ProgressiveFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "snapshot",
		Usage: "save a float snapshot after every path-traced pass",
	},
	cli.BoolFlag{
		Name:  "resume",
		Usage: "continue from the --snapshot file when it exists",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed for light sampling",
	},
	cli.StringFlag{
		Name:  "volume",
		Usage: "voxel cache to shade with the pbr renderer instead of voxelizing",
	},
}

// RenderScene evaluates a scene script and renders it.
func RenderScene(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	sc, err := evalScene(ctx.Args().First())
	if err != nil {
		return err
	}

	r := &render.Renderer{Settings: s, Scene: sc, Seed: ctx.Int64("seed")}
	if err := setupProgressive(ctx, r); err != nil {
		return err
	}
	if path := ctx.String("volume"); path != "" {
		if r.Volume, err = loadVolume(path); err != nil {
			return err
		}
	}
	return renderAndSave(r, ctx.String("out"))
}

// evalScene reads and evaluates a scene script. Script errors are logged
// one per line and reported as a single error.
func evalScene(path string) (*scene.Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %q: %w", path, err)
	}

	sc, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			logger.Errorf("%s: %s", path, e.Error())
		}
		return nil, fmt.Errorf("%s: %d script error(s)", path, len(evalErrs))
	}
	logger.Infof("loaded %s: %d sdfs, %d analytic, %d lights",
		path, len(sc.SDFs), len(sc.Analytics), len(sc.Lights))
	return sc, nil
}

func setupProgressive(ctx *cli.Context, r *render.Renderer) error {
	r.SnapshotPath = ctx.String("snapshot")
	if !ctx.Bool("resume") || r.SnapshotPath == "" {
		return nil
	}
	b, samples, err := buffer.LoadSnapshot(r.SnapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Noticef("no snapshot at %s, starting from scratch", r.SnapshotPath)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Noticef("resuming from %s after %d passes", r.SnapshotPath, samples)
	r.Resume, r.ResumeSamples = b, samples
	return nil
}

func loadVolume(path string) (*voxel.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %q: %w", path, err)
	}
	defer f.Close()
	return voxel.Load(f)
}

func renderAndSave(r *render.Renderer, out string) error {
	logger.Noticef("rendering %dx%d frame with %s", r.Settings.Width, r.Settings.Height, r.Settings.Renderer)
	start := time.Now()
	res, err := r.Render(context.Background())
	if err != nil {
		return err
	}

	if err := res.Image.SavePNG(out, r.Settings.Gamma); err != nil {
		return err
	}
	displayFrameStats(res, time.Since(start))
	logger.Noticef("wrote frame to %s", out)
	return nil
}
