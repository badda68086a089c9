// Package scene holds the populated, read-only scene that every renderer
// consumes: the SDF render list, analytic objects, lights, camera and the
// material table addressed by voxel material ids.
package scene

import (
	"math"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// Scene is built once by a Builder and never mutated afterwards, so it can
// be shared by all render workers.
type Scene struct {
	SDFs      []*sdf.SDF // top-level render list
	Analytics []*sdf.Analytic
	Lights    []Light
	Camera    Camera

	// Materials is indexed by material id. Id 0 is always the default.
	Materials []material.Material

	all        []*sdf.SDF
	byID       map[string]*sdf.SDF
	materialID map[*sdf.SDF]int
}

// Lookup returns the SDF with the given id, including operands that are not
// on the render list, or nil.
func (s *Scene) Lookup(id string) *sdf.SDF {
	return s.byID[id]
}

// AllSDFs returns every SDF registered with the builder in insertion order.
func (s *Scene) AllSDFs() []*sdf.SDF {
	return s.all
}

// Empty reports whether nothing is renderable.
func (s *Scene) Empty() bool {
	return len(s.SDFs) == 0 && len(s.Analytics) == 0
}

// Distance is the union of every top-level SDF.
func (s *Scene) Distance(p vec.Vec3) float64 {
	d, _ := s.nearest(p)
	return d
}

// DistanceMaterial returns the union distance and the material id of the
// closest top-level SDF. It satisfies voxel.Source.
func (s *Scene) DistanceMaterial(p vec.Vec3) (float64, int) {
	d, nearest := s.nearest(p)
	if nearest == nil {
		return d, 0
	}
	return d, s.materialID[nearest]
}

// Material returns the material for id, falling back to the default.
func (s *Scene) Material(id int) material.Material {
	if id < 0 || id >= len(s.Materials) {
		return s.Materials[0]
	}
	return s.Materials[id]
}

// MaterialID returns the table index assigned to an SDF.
func (s *Scene) MaterialID(obj *sdf.SDF) int {
	return s.materialID[obj]
}

// Bounds returns the union of all bounded top-level SDFs and analytic
// spheres. ok is false when nothing bounded exists.
func (s *Scene) Bounds() (vec.AABB, bool) {
	var (
		box   vec.AABB
		found bool
	)
	add := func(b vec.AABB) {
		if !found {
			box, found = b, true
			return
		}
		box = box.Union(b)
	}
	for _, obj := range s.SDFs {
		if b, ok := obj.Bounds(); ok {
			add(b)
		}
	}
	for _, a := range s.Analytics {
		if a.Kind == sdf.Sphere {
			r := vec.Splat3(a.Radius)
			add(vec.AABB{Min: a.Position.Sub(r), Max: a.Position.Add(r)})
		}
	}
	return box, found
}

// Hit returns the nearest intersection of r with the analytic objects and
// the marched SDF field.
func (s *Scene) Hit(r vec.Ray, opts sdf.MarchOptions) (sdf.Hit, bool) {
	best := sdf.Hit{T: math.Inf(1)}
	found := false

	for _, a := range s.Analytics {
		if h, ok := a.Hit(r); ok && h.T < best.T {
			best, found = h, true
		}
	}

	if len(s.SDFs) > 0 {
		if opts.MaxDistance <= 0 {
			opts.MaxDistance = sdf.DefaultMarchOptions().MaxDistance
		}
		// No point marching past an analytic hit.
		if found && best.T < opts.MaxDistance {
			opts.MaxDistance = best.T
		}
		if t, ok := sdf.March(s, r, opts); ok && t < best.T {
			p := r.At(t)
			_, nearest := s.nearest(p)
			h := sdf.Hit{T: t, Position: p, Normal: sdf.Normal(s, p)}
			if nearest != nil {
				h.Material = nearest.Material
				h.Shader = nearest.Shader
				h.ID = nearest.ID
			}
			best, found = h, true
		}
	}
	return best, found
}

func (s *Scene) nearest(p vec.Vec3) (float64, *sdf.SDF) {
	d := math.Inf(1)
	var nearest *sdf.SDF
	for _, obj := range s.SDFs {
		if od := obj.Distance(p); od < d {
			d, nearest = od, obj
		}
	}
	return d, nearest
}
