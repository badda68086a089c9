// Package vec provides the small vector, ray and bounding box types shared
// by every stage of the renderer.
package vec

import (
	"math"

	"golang.org/x/image/math/f64"
)

type Vec2 f64.Vec2
type Vec3 f64.Vec3
type Vec4 f64.Vec4

// Define a 2 component vector.
func XY(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Define a 3 component vector.
func XYZ(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Define a 4 component vector.
func XYZW(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// Splat3 returns a Vec3 with every component set to s.
func Splat3(s float64) Vec3 {
	return Vec3{s, s, s}
}

// Expand a 2 component vector to a Vec3.
func (v Vec2) Vec3(z float64) Vec3 {
	return Vec3{v[0], v[1], z}
}

func (v Vec2) Add(v2 Vec2) Vec2 {
	return Vec2{v[0] + v2[0], v[1] + v2[1]}
}

func (v Vec2) Sub(v2 Vec2) Vec2 {
	return Vec2{v[0] - v2[0], v[1] - v2[1]}
}

func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

// Calculate dot product of 2 vectors.
func (v Vec2) Dot(v2 Vec2) float64 {
	return v[0]*v2[0] + v[1]*v2[1]
}

func (v Vec2) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Expand a 3 component vector to a Vec4.
func (v Vec3) Vec4(w float64) Vec4 {
	return Vec4{v[0], v[1], v[2], w}
}

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Component-wise product.
func (v Vec3) MulV(v2 Vec3) Vec3 {
	return Vec3{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2]}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// Component-wise absolute value.
func (v Vec3) Abs() Vec3 {
	return Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

// Component-wise max against a scalar.
func (v Vec3) MaxS(s float64) Vec3 {
	return Vec3{math.Max(v[0], s), math.Max(v[1], s), math.Max(v[2], s)}
}

// Largest component.
func (v Vec3) MaxComp() float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}

// Smallest component.
func (v Vec3) MinComp() float64 {
	return math.Min(v[0], math.Min(v[1], v[2]))
}

// Calculate dot product of 2 vectors.
func (v Vec3) Dot(v2 Vec3) float64 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{
		v[1]*v2[2] - v[2]*v2[1],
		v[2]*v2[0] - v[0]*v2[2],
		v[0]*v2[1] - v[1]*v2[0],
	}
}

// Get 3 component vector length.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize 3 component vector. A zero-length vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	return v.Mul(1.0 / l)
}

// Linear interpolation between v and v2.
func (v Vec3) Lerp(v2 Vec3, t float64) Vec3 {
	return v.Mul(1 - t).Add(v2.Mul(t))
}

// Reflect v around the normal n.
func (v Vec3) Reflect(n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Component-wise minimum of two vectors.
func MinVec3(v1, v2 Vec3) Vec3 {
	return Vec3{math.Min(v1[0], v2[0]), math.Min(v1[1], v2[1]), math.Min(v1[2], v2[2])}
}

// Component-wise maximum of two vectors.
func MaxVec3(v1, v2 Vec3) Vec3 {
	return Vec3{math.Max(v1[0], v2[0]), math.Max(v1[1], v2[1]), math.Max(v1[2], v2[2])}
}

// Drop the W component.
func (v Vec4) Vec3() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

func (v Vec4) Add(v2 Vec4) Vec4 {
	return Vec4{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2], v[3] + v2[3]}
}

func (v Vec4) Sub(v2 Vec4) Vec4 {
	return Vec4{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2], v[3] - v2[3]}
}

func (v Vec4) Mul(s float64) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

func (v Vec4) MulV(v2 Vec4) Vec4 {
	return Vec4{v[0] * v2[0], v[1] * v2[1], v[2] * v2[2], v[3] * v2[3]}
}

func (v Vec4) Lerp(v2 Vec4, t float64) Vec4 {
	return v.Mul(1 - t).Add(v2.Mul(t))
}

// Clamp every component to [lo, hi].
func (v Vec4) Clamp(lo, hi float64) Vec4 {
	for i := range v {
		v[i] = Clamp(v[i], lo, hi)
	}
	return v
}

// Clamp x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Mix returns a*(1-t) + b*t.
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

const floatCmpEpsilon = 1e-12
