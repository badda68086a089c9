// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/lumen/pkg/kernel"
	lsdf "github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells is the marching cubes resolution used when a caller
// passes a non-positive cell count.
const DefaultMeshCells = 200

// ErrEmpty is returned when a solid produces no triangles.
var ErrEmpty = errors.New("sdfx: solid produced no triangles")

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

func (s *sdfxSolid) BoundingBox() vec.AABB {
	return fromBox3(s.s.BoundingBox())
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

func toV3(v vec.Vec3) v3.Vec {
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func fromV3(v v3.Vec) vec.Vec3 {
	return vec.XYZ(v.X, v.Y, v.Z)
}

func fromBox3(b sdf.Box3) vec.AABB {
	return vec.AABB{Min: fromV3(b.Min), Max: fromV3(b.Max)}
}

func toBox3(b vec.AABB) sdf.Box3 {
	return sdf.Box3{Min: toV3(b.Min), Max: toV3(b.Max)}
}

func translate(s sdf.SDF3, at vec.Vec3) sdf.SDF3 {
	if at == (vec.Vec3{}) {
		return s
	}
	return sdf.Transform3D(s, sdf.Translate3d(toV3(at)))
}

// Sphere creates a sphere centered at center.
func (k *SdfxKernel) Sphere(center vec.Vec3, radius float64) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(translate(s, center)), nil
}

// Box creates a box with the given half extents. sdf.Box3D takes full
// extents and is centered on the origin.
func (k *SdfxKernel) Box(center, halfSize vec.Vec3, rounding float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(toV3(halfSize.Mul(2)), rounding)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	return wrap(translate(s, center)), nil
}

// Cone creates a capped cone of half height h standing on +Y, with bottom
// radius r1 and top radius r2. sdf.Cone3D stands on +Z, so it is turned
// a quarter around X first.
func (k *SdfxKernel) Cone(center vec.Vec3, h, r1, r2, rounding float64) (kernel.Solid, error) {
	s, err := sdf.Cone3D(2*h, r1, r2, rounding)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cone: %w", err)
	}
	s = sdf.Transform3D(s, sdf.RotateX(-math.Pi/2))
	return wrap(translate(s, center)), nil
}

// fieldSDF3 adapts a scene distance field, intersected with a box so the
// result is a closed solid.
type fieldSDF3 struct {
	f      lsdf.Field
	center vec.Vec3
	half   vec.Vec3
	bb     sdf.Box3
}

func (s *fieldSDF3) Evaluate(p v3.Vec) float64 {
	q := fromV3(p)
	return math.Max(s.f.Distance(q), lsdf.RoundedBox(q.Sub(s.center), s.half, 0))
}

func (s *fieldSDF3) BoundingBox() sdf.Box3 {
	return s.bb
}

// Field wraps f clipped to bounds.
func (k *SdfxKernel) Field(f lsdf.Field, bounds vec.AABB) kernel.Solid {
	return wrap(&fieldSDF3{
		f:      f,
		center: bounds.Center(),
		half:   bounds.Size().Mul(0.5),
		bb:     toBox3(bounds),
	})
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// grownSDF3 widens the bounding box of a blended union, whose surface can
// bulge past both operands by up to k/4.
type grownSDF3 struct {
	sdf.SDF3
	bb sdf.Box3
}

func (s *grownSDF3) BoundingBox() sdf.Box3 {
	return s.bb
}

// SmoothUnion blends two solids with the polynomial smooth minimum. k <= 0
// is a plain union.
func (k *SdfxKernel) SmoothUnion(a, b kernel.Solid, r float64) kernel.Solid {
	s := sdf.Union3D(unwrap(a), unwrap(b))
	if r <= 0 {
		return wrap(s)
	}
	if u, ok := s.(*sdf.UnionSDF3); ok {
		u.SetMin(sdf.PolyMin(r))
	}
	bb := fromBox3(s.BoundingBox()).Grow(r / 4)
	return wrap(&grownSDF3{SDF3: s, bb: toBox3(bb)})
}

func marchingCubes(cells int) render.Render3 {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return render.NewMarchingCubesUniform(cells)
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Vertices
// are not shared; each triangle carries its face normal.
func (k *SdfxKernel) ToMesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	tris := render.ToTriangles(unwrap(s), marchingCubes(cells))
	if len(tris) == 0 {
		return nil, ErrEmpty
	}

	numVerts := len(tris) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range tris {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// WriteSTL meshes s and writes it as a binary STL file.
func (k *SdfxKernel) WriteSTL(s kernel.Solid, path string, cells int) error {
	tris := render.ToTriangles(unwrap(s), marchingCubes(cells))
	if len(tris) == 0 {
		return ErrEmpty
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("could not write file %q: %w", path, err)
	}
	return nil
}
