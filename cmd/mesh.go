package cmd

import (
	"errors"

	"github.com/urfave/cli"

	"github.com/chazu/lumen/pkg/kernel/sdfx"
	"github.com/chazu/lumen/pkg/tessellate"
	"github.com/chazu/lumen/pkg/vec"
)

// Mesh evaluates a scene script, tessellates every top-level SDF with the
// sdfx kernel and writes their union as an STL file. Planes are clipped to
// a box of --bounds extents centered on the origin.
func Mesh(ctx *cli.Context) error {
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

	half := s.VoxelBounds.Mul(0.5)
	opts := tessellate.Options{
		Cells:  ctx.Int("cells"),
		Bounds: vec.AABB{Min: half.Neg(), Max: half},
	}
	k := sdfx.New()

	meshes, err := tessellate.Tessellate(sc, k, opts)
	if err != nil {
		return err
	}
	displayMeshStats(meshes)

	solid, err := tessellate.Union(sc, k, opts)
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if err := k.WriteSTL(solid, out, opts.Cells); err != nil {
		return err
	}
	logger.Noticef("wrote mesh to %s", out)
	return nil
}
