package sdf

import (
	"math"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/vec"
)

// parallelEps rejects rays that graze a plane.
const parallelEps = 1e-4

// Analytic is a closed-form primitive intersected directly, without marching.
type Analytic struct {
	ID       string
	Kind     Kind // Sphere or Plane
	Position vec.Vec3
	Radius   float64
	Normal   vec.Vec3
	Offset   float64
	Material material.Material
	Shader   Shader
}

// NewAnalyticSphere returns a closed-form sphere.
func NewAnalyticSphere(id string, center vec.Vec3, radius float64) *Analytic {
	return &Analytic{ID: id, Kind: Sphere, Position: center, Radius: radius, Material: material.Default()}
}

// NewAnalyticPlane returns a closed-form plane dot(p, n) + offset = 0.
func NewAnalyticPlane(id string, normal vec.Vec3, offset float64) *Analytic {
	return &Analytic{ID: id, Kind: Plane, Normal: normal.Normalize(), Offset: offset, Material: material.Default()}
}

// Hit intersects r with the primitive and returns the nearest non-negative
// hit. Normals face outward.
func (a *Analytic) Hit(r vec.Ray) (Hit, bool) {
	var (
		t  float64
		ok bool
		n  vec.Vec3
	)
	switch a.Kind {
	case Sphere:
		t, ok = a.hitSphere(r)
		if ok {
			n = r.At(t).Sub(a.Position).Normalize()
		}
	case Plane:
		t, ok = a.hitPlane(r)
		n = a.Normal
	}
	if !ok {
		return Hit{}, false
	}
	return Hit{
		T:        t,
		Position: r.At(t),
		Normal:   n,
		Material: a.Material,
		Shader:   a.Shader,
		ID:       a.ID,
	}, true
}

func (a *Analytic) hitSphere(r vec.Ray) (float64, bool) {
	l := a.Position.Sub(r.Origin)
	tca := l.Dot(r.Dir)
	d2 := l.Dot(l) - tca*tca
	r2 := a.Radius * a.Radius
	if d2 > r2 {
		return 0, false
	}
	thc := math.Sqrt(r2 - d2)
	t0, t1 := tca-thc, tca+thc
	if t0 < 0 {
		t0 = t1
	}
	if t0 < 0 {
		return 0, false
	}
	return t0, true
}

func (a *Analytic) hitPlane(r vec.Ray) (float64, bool) {
	denom := a.Normal.Dot(r.Dir)
	if math.Abs(denom) <= parallelEps {
		return 0, false
	}
	t := -(r.Origin.Dot(a.Normal) + a.Offset) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}
