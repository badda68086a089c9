package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/nodegraph"
	"github.com/chazu/lumen/pkg/voxel"
)

// Voxelize samples a scene script, or a node graph's field output, into a
// model buffer and writes it as a compressed voxel cache.
func Voxelize(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene or graph file argument")
	}
	path := ctx.Args().First()

	var src voxel.Source
	if ctx.Bool("graph") {
		g, err := nodegraph.CompileFile(path, nodegraph.Builtins())
		if err != nil {
			return err
		}
		out, ok := g.OutputNode(nodegraph.FieldOutput)
		if !ok {
			return fmt.Errorf("%s: graph has no field output", path)
		}
		logger.Infof("voxelizing field output %q declared on line %d", out.Name, out.Line)
		src = g
	} else {
		sc, err := evalScene(path)
		if err != nil {
			return err
		}
		src = sc
	}

	vol, err := voxel.New(s.VoxelBounds, s.VoxelDensity)
	if err != nil {
		return err
	}
	vol.Workers = s.Workers

	start := time.Now()
	if err := vol.Model(context.Background(), src); err != nil {
		return err
	}
	elapsed := time.Since(start)
	vol.Freeze()

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("could not write file %q: %w", out, err)
	}
	if err := vol.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	displayVolumeStats(vol, elapsed)
	logger.Noticef("wrote voxel cache to %s", out)
	return nil
}

func displayVolumeStats(vol *voxel.Buffer, elapsed time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Size", "Voxels", "Occupied", "Edge", "Model time"})

	total := len(vol.Data)
	edge := vol.VoxelEdge()
	table.Append([]string{
		fmt.Sprintf("%dx%dx%d", vol.Size[0], vol.Size[1], vol.Size[2]),
		fmt.Sprintf("%d", total),
		fmt.Sprintf("%d", vol.Occupied()),
		fmt.Sprintf("%.4f", edge[0]),
		elapsed.String(),
	})

	table.Render()
	logger.Noticef("volume statistics\n%s", buf.String())
}
