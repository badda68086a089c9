package shade

import (
	"math"
	"math/rand"

	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// shadowBias lifts shadow ray origins off the surface.
const shadowBias = 0.01

// PathTraced estimates direct lighting from spherical lights with one shadow
// ray per light. Repeated calls are meant to be averaged.
type PathTraced struct {
	Scene *scene.Scene
	March sdf.MarchOptions
}

// Trace implements Policy.
func (p *PathTraced) Trace(r vec.Ray, rng *rand.Rand) (vec.Vec4, bool) {
	h, ok := p.Scene.Hit(r, p.March)
	if !ok {
		return vec.Vec4{}, false
	}
	if c, ok := custom(h); ok {
		return c, true
	}

	n := h.Normal
	if n.Dot(r.Dir) > 0 {
		n = n.Neg()
	}
	origin := h.Position.Add(n.Mul(shadowBias))

	c := h.Material.Emission
	for _, l := range p.Scene.Lights {
		target := l.Position
		if l.Radius > 0 {
			target = target.Add(sampleSphere(rng).Mul(l.Radius))
		}
		toLight := target.Sub(origin)
		dist := toLight.Len()
		if dist == 0 {
			continue
		}
		dir := toLight.Mul(1 / dist)
		ndl := n.Dot(dir)
		if ndl <= 0 {
			continue
		}
		if p.occluded(vec.Ray{Origin: origin, Dir: dir}, dist) {
			continue
		}
		// Lambert with inverse-square falloff.
		c = c.Add(h.Material.Albedo.MulV(l.Color).Mul(l.Intensity * ndl / (dist * dist)))
	}
	return c.Vec4(h.Material.Alpha), true
}

func (p *PathTraced) occluded(r vec.Ray, dist float64) bool {
	opts := p.March
	opts.MaxDistance = dist
	h, ok := p.Scene.Hit(r, opts)
	return ok && h.T < dist
}

// sampleSphere returns a uniformly distributed unit vector.
func sampleSphere(rng *rand.Rand) vec.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	s := math.Sqrt(1 - z*z)
	return vec.XYZ(s*math.Cos(phi), s*math.Sin(phi), z)
}
