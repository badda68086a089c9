// Package tessellate walks a scene's render list and produces triangle
// meshes using a geometry kernel. One mesh is produced per top-level SDF.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/lumen/pkg/kernel"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// ErrUnbounded is returned for a shape that has no bounds of its own when
// Options.Bounds is unset.
var ErrUnbounded = errors.New("tessellate: unbounded sdf needs explicit bounds")

// Options control tessellation.
type Options struct {
	// Cells is the marching cubes resolution along the longest axis.
	Cells int
	// Bounds clips planes and other unbounded shapes. The zero value means
	// unbounded shapes are an error.
	Bounds vec.AABB
}

func (o Options) hasBounds() bool {
	return o.Bounds.Size().MinComp() > 0
}

// Tessellate produces one mesh per top-level SDF of sc. Operands of subtract
// and smooth-min operations are folded into their owner's solid. The scene
// is never mutated.
func Tessellate(sc *scene.Scene, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if sc == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, obj := range sc.SDFs {
		solid, err := Solid(k, obj, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", obj.ID, err)
		}
		mesh, err := k.ToMesh(solid, opts.Cells)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", obj.ID, err)
		}
		mesh.Name = obj.ID
		mesh.Material = sc.MaterialID(obj)
		logger.Debugf("%s: %d triangles", obj.ID, mesh.TriangleCount())
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Union builds the union of every top-level SDF of sc as one solid.
func Union(sc *scene.Scene, k kernel.Kernel, opts Options) (kernel.Solid, error) {
	if sc == nil || len(sc.SDFs) == 0 {
		return nil, errors.New("tessellate: scene has no sdfs")
	}
	var out kernel.Solid
	for _, obj := range sc.SDFs {
		solid, err := Solid(k, obj, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", obj.ID, err)
		}
		if out == nil {
			out = solid
			continue
		}
		out = k.Union(out, solid)
	}
	return out, nil
}

// Solid builds the kernel solid for one SDF: the primitive, then its
// boolean operations in order, recursing into operands.
func Solid(k kernel.Kernel, obj *sdf.SDF, opts Options) (kernel.Solid, error) {
	solid, err := primitive(k, obj, opts)
	if err != nil {
		return nil, err
	}

	for _, op := range obj.Ops {
		if op.Other == nil {
			continue
		}
		other, err := Solid(k, op.Other, opts)
		if err != nil {
			return nil, fmt.Errorf("operand %s: %w", op.Other.ID, err)
		}
		switch op.Kind {
		case sdf.OpSubtract:
			solid = k.Difference(solid, other)
		case sdf.OpSMin:
			solid = k.SmoothUnion(solid, other, op.K)
		default:
			return nil, fmt.Errorf("unsupported operation %s", op.Kind)
		}
	}
	return solid, nil
}

// primitive creates geometry for the bare shape of obj, without its ops.
func primitive(k kernel.Kernel, obj *sdf.SDF, opts Options) (kernel.Solid, error) {
	switch obj.Kind {
	case sdf.Sphere:
		return k.Sphere(obj.Position, obj.Radius)
	case sdf.Box:
		return k.Box(obj.Position, obj.Size, obj.Rounding)
	case sdf.CappedCone:
		return k.Cone(obj.Position, obj.Offset, obj.Normal[0], obj.Normal[1], obj.Rounding)
	case sdf.Plane:
		if !opts.hasBounds() {
			return nil, ErrUnbounded
		}
		bare := sdf.NewPlane(obj.ID, obj.Normal, obj.Offset)
		return k.Field(bare, opts.Bounds), nil
	}
	return nil, fmt.Errorf("unsupported sdf kind %s", obj.Kind)
}
