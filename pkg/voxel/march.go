package voxel

import (
	"math"

	"github.com/chazu/lumen/pkg/vec"
)

const (
	marchSteps   = 512
	marchEpsilon = 0.001
	marchFar     = 1000.0
	marchRelax   = 0.5
)

// Hit is a ray intersection with the cached volume.
type Hit struct {
	T        float64
	Position vec.Vec3
	Normal   vec.Vec3
	Voxel    Voxel
}

// Raymarch sphere-traces r through the buffer. The ray is first clipped to
// BBox; the material is whichever voxel the hit point falls into.
func (b *Buffer) Raymarch(r vec.Ray) (Hit, bool) {
	tmin, tmax, ok := r.IntersectAABB(b.BBox())
	if !ok {
		return Hit{}, false
	}
	if tmin < 0 {
		tmin = 0
	}
	limit := math.Min(tmax, marchFar)

	t := tmin + marchEpsilon
	for i := 0; i < marchSteps && t <= limit; i++ {
		p := r.At(t)
		d := b.Sample(p)
		if d < marchEpsilon {
			x, y, z, ok := b.Locate(p)
			if !ok {
				return Hit{}, false
			}
			return Hit{
				T:        t,
				Position: p,
				Normal:   b.Normal(p),
				Voxel:    b.Voxel(x, y, z),
			}, true
		}
		t += d * marchRelax
	}
	return Hit{}, false
}
