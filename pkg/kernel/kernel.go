// Package kernel defines the geometry kernel used to turn scene SDFs into
// triangle meshes. Backends (currently sdfx) build solids from the same
// primitives and boolean operations the scene uses, so exported meshes
// match what the renderers draw.
package kernel

import (
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() vec.AABB
}

// Kernel builds solids and meshes them. Primitive arguments follow the
// scene conventions: sizes are half extents and cones stand along +Y.
type Kernel interface {
	// Primitives
	Sphere(center vec.Vec3, radius float64) (Solid, error)
	Box(center, halfSize vec.Vec3, rounding float64) (Solid, error)
	Cone(center vec.Vec3, h, r1, r2, rounding float64) (Solid, error)

	// Field wraps an arbitrary distance field clipped to bounds. It is used
	// for shapes the backend has no primitive for, such as planes.
	Field(f sdf.Field, bounds vec.AABB) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	SmoothUnion(a, b Solid, k float64) Solid

	// Mesh output. cells is the marching cubes resolution along the
	// longest bounding box axis.
	ToMesh(s Solid, cells int) (*Mesh, error)
	WriteSTL(s Solid, path string, cells int) error
}
