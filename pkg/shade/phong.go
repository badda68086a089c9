package shade

import (
	"math"
	"math/rand"

	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

const phongPower = 64

// Phong shades scene hits with ambient, Lambert diffuse and Blinn specular
// terms per light, attenuated by a sky-occlusion guess of 0.5+0.5*n.y.
type Phong struct {
	Scene    *scene.Scene
	March    sdf.MarchOptions
	Ambient  float64
	Specular float64
}

// Trace implements Policy.
func (p *Phong) Trace(r vec.Ray, _ *rand.Rand) (vec.Vec4, bool) {
	h, ok := p.Scene.Hit(r, p.March)
	if !ok {
		return vec.Vec4{}, false
	}
	return p.Shade(r, h), true
}

// Shade colors a hit.
func (p *Phong) Shade(r vec.Ray, h sdf.Hit) vec.Vec4 {
	if c, ok := custom(h); ok {
		return c
	}
	n := h.Normal
	occ := 0.5 + 0.5*n.Y()
	albedo := h.Material.Albedo
	view := r.Dir.Neg()

	var c vec.Vec3
	for _, l := range p.Scene.Lights {
		dir, _ := l.Direction(h.Position)
		c = c.Add(vec.Splat3(p.Ambient * occ))

		ndl := math.Max(n.Dot(dir), 0)
		c = c.Add(albedo.MulV(l.Color).Mul(ndl * l.Intensity * occ))

		half := dir.Add(view).Normalize()
		spec := math.Pow(math.Max(n.Dot(half), 0), phongPower)
		c = c.Add(l.Color.Mul(p.Specular * spec * l.Intensity))
	}
	if h.Material.IsEmissive() {
		c = c.Add(h.Material.Emission)
	}
	return c.Vec4(h.Material.Alpha)
}
