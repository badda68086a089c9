// Package sdf implements signed distance primitives, their boolean
// composition and the closed-form analytic primitives used by the simple
// scene renderer.
package sdf

import (
	"fmt"
	"math"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/vec"
)

// Kind enumerates the SDF primitive shapes.
type Kind int

const (
	Sphere     Kind = iota // |p - position| - radius
	Plane                  // dot(p, normal) + offset
	Box                    // rounded box, half extents in Size
	CappedCone             // two-radius cone, radii in Normal.x/y
)

func (k Kind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case Plane:
		return "plane"
	case Box:
		return "box"
	case CappedCone:
		return "capped-cone"
	default:
		return "unknown"
	}
}

// OpKind enumerates boolean combinators.
type OpKind int

const (
	OpSubtract OpKind = iota
	OpSMin
)

func (k OpKind) String() string {
	switch k {
	case OpSubtract:
		return "subtract"
	case OpSMin:
		return "smin"
	default:
		return "unknown"
	}
}

// BoolOp folds another SDF into the running distance of its owner.
type BoolOp struct {
	Kind  OpKind
	Other *SDF
	K     float64 // smoothing radius for OpSMin
}

// Field is anything that can report a signed distance.
type Field interface {
	Distance(p vec.Vec3) float64
}

// SDF is a primitive with an ordered list of boolean operations. The zero
// value is a unit sphere at the origin.
type SDF struct {
	ID       string
	Kind     Kind
	Position vec.Vec3
	Size     vec.Vec3
	Radius   float64
	Normal   vec.Vec3 // plane normal; cone radii in X/Y
	Offset   float64  // plane offset; cone height
	Rounding float64
	Material material.Material
	Shader   Shader

	Ops []BoolOp
}

// NewSphere returns a sphere SDF.
func NewSphere(id string, center vec.Vec3, radius float64) *SDF {
	return &SDF{ID: id, Kind: Sphere, Position: center, Radius: radius, Material: material.Default()}
}

// NewPlane returns a plane SDF. The normal is normalized.
func NewPlane(id string, normal vec.Vec3, offset float64) *SDF {
	return &SDF{ID: id, Kind: Plane, Normal: normal.Normalize(), Offset: offset, Material: material.Default()}
}

// NewBox returns a box SDF with the given half extents.
func NewBox(id string, center, halfSize vec.Vec3, rounding float64) *SDF {
	return &SDF{ID: id, Kind: Box, Position: center, Size: halfSize, Rounding: rounding, Material: material.Default()}
}

// NewCappedCone returns a cone with half-height h, bottom radius r1 and top
// radius r2.
func NewCappedCone(id string, center vec.Vec3, h, r1, r2, rounding float64) *SDF {
	return &SDF{
		ID:       id,
		Kind:     CappedCone,
		Position: center,
		Normal:   vec.XYZ(r1, r2, 0),
		Offset:   h,
		Rounding: rounding,
		Material: material.Default(),
	}
}

func (s *SDF) String() string {
	return fmt.Sprintf("sdf(%s %s, %d ops)", s.ID, s.Kind, len(s.Ops))
}

// SetMaterial replaces the material.
func (s *SDF) SetMaterial(m material.Material) *SDF {
	s.Material = m
	return s
}

// SetRounding sets the rounding radius.
func (s *SDF) SetRounding(r float64) *SDF {
	s.Rounding = r
	return s
}

// SetShader installs a per-hit shading capability.
func (s *SDF) SetShader(sh Shader) *SDF {
	s.Shader = sh
	return s
}

// Subtract carves other out of s.
func (s *SDF) Subtract(other *SDF) *SDF {
	s.Ops = append(s.Ops, BoolOp{Kind: OpSubtract, Other: other})
	return s
}

// SMin blends other into s with smoothing radius k.
func (s *SDF) SMin(other *SDF, k float64) *SDF {
	s.Ops = append(s.Ops, BoolOp{Kind: OpSMin, Other: other, K: k})
	return s
}

// Operands returns the SDFs referenced by s's boolean operations.
func (s *SDF) Operands() []*SDF {
	out := make([]*SDF, 0, len(s.Ops))
	for _, op := range s.Ops {
		if op.Other != nil {
			out = append(out, op.Other)
		}
	}
	return out
}

// Distance evaluates the composed signed distance at p.
func (s *SDF) Distance(p vec.Vec3) float64 {
	dist := s.primitive(p)
	for _, op := range s.Ops {
		if op.Other == nil {
			continue
		}
		switch op.Kind {
		case OpSubtract:
			dist = math.Max(dist, -op.Other.Distance(p))
		case OpSMin:
			dist = SmoothMin(dist, op.Other.Distance(p), op.K)
		}
	}
	return dist
}

func (s *SDF) primitive(p vec.Vec3) float64 {
	switch s.Kind {
	case Sphere:
		return p.Sub(s.Position).Len() - s.Radius
	case Plane:
		return p.Dot(s.Normal) + s.Offset
	case Box:
		return RoundedBox(p.Sub(s.Position), s.Size, s.Rounding)
	case CappedCone:
		h := s.Offset - s.Rounding
		r1 := math.Max(s.Normal[0]-s.Rounding, 0)
		r2 := math.Max(s.Normal[1]-s.Rounding, 0)
		return cappedCone(p.Sub(s.Position), h, r1, r2) - s.Rounding
	default:
		return math.Inf(1)
	}
}

// NormalAt estimates the surface normal of s at p.
func (s *SDF) NormalAt(p vec.Vec3) vec.Vec3 {
	return Normal(s, p)
}

// Bounds returns a conservative world-space box around the composed shape.
// ok is false for unbounded shapes (planes and anything blended with one).
func (s *SDF) Bounds() (box vec.AABB, ok bool) {
	switch s.Kind {
	case Sphere:
		r := vec.Splat3(s.Radius)
		box = vec.AABB{Min: s.Position.Sub(r), Max: s.Position.Add(r)}
	case Box:
		box = vec.AABB{Min: s.Position.Sub(s.Size), Max: s.Position.Add(s.Size)}
	case CappedCone:
		r := math.Max(s.Normal[0], s.Normal[1]) + s.Rounding
		ext := vec.XYZ(r, s.Offset+s.Rounding, r)
		box = vec.AABB{Min: s.Position.Sub(ext), Max: s.Position.Add(ext)}
	default:
		return vec.AABB{}, false
	}
	for _, op := range s.Ops {
		if op.Kind != OpSMin || op.Other == nil {
			continue
		}
		ob, ok := op.Other.Bounds()
		if !ok {
			return vec.AABB{}, false
		}
		// smooth-min pulls the surface out by at most k/4
		box = box.Union(ob).Grow(math.Max(op.K, 0) / 4)
	}
	return box, true
}

// SmoothMin is the polynomial smooth minimum of a and b. A non-positive k
// degrades to a hard minimum instead of dividing by zero.
func SmoothMin(a, b, k float64) float64 {
	if k <= 0 {
		return math.Min(a, b)
	}
	h := vec.Clamp(0.5+0.5*(b-a)/k, 0, 1)
	return vec.Mix(b, a, h) - k*h*(1-h)
}

// normalEps is the tetrahedron sampling scale.
const normalEps = 0.5773 * 0.0005

// Normal estimates the gradient of f at p with four tetrahedral samples.
func Normal(f Field, p vec.Vec3) vec.Vec3 {
	k0 := vec.XYZ(1, -1, -1)
	k1 := vec.XYZ(-1, -1, 1)
	k2 := vec.XYZ(-1, 1, -1)
	k3 := vec.XYZ(1, 1, 1)

	n := k0.Mul(f.Distance(p.Add(k0.Mul(normalEps)))).
		Add(k1.Mul(f.Distance(p.Add(k1.Mul(normalEps))))).
		Add(k2.Mul(f.Distance(p.Add(k2.Mul(normalEps))))).
		Add(k3.Mul(f.Distance(p.Add(k3.Mul(normalEps)))))
	return n.Normalize()
}

// RoundedBox is the distance from p to a box of half extents size centered on
// the origin, with edges rounded by rounding.
func RoundedBox(p, size vec.Vec3, rounding float64) float64 {
	q := p.Abs().Sub(size).Add(vec.Splat3(rounding))
	return q.MaxS(0).Len() + math.Min(q.MaxComp(), 0) - rounding
}

func cappedCone(p vec.Vec3, h, r1, r2 float64) float64 {
	q := vec.XY(vec.XY(p[0], p[2]).Len(), p[1])
	k1 := vec.XY(r2, h)
	k2 := vec.XY(r2-r1, 2*h)

	edge := r2
	if q[1] < 0 {
		edge = r1
	}
	ca := vec.XY(q[0]-math.Min(q[0], edge), math.Abs(q[1])-h)

	var t float64
	if d := k2.Dot(k2); d > 0 {
		t = vec.Clamp(k1.Sub(q).Dot(k2)/d, 0, 1)
	}
	cb := q.Sub(k1).Add(k2.Mul(t))

	s := 1.0
	if cb[0] < 0 && ca[1] < 0 {
		s = -1
	}
	return s * math.Sqrt(math.Min(ca.Dot(ca), cb.Dot(cb)))
}
