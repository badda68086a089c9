package vec

import "math"

// Ray is a half-line starting at Origin. Dir is expected to be normalized by
// callers that interpret t as a distance.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay builds a ray with a normalized direction.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Size returns the box extents.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Contains reports whether p lies inside the box (inclusive).
func (b AABB) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest box enclosing both boxes.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: MinVec3(b.Min, o.Min), Max: MaxVec3(b.Max, o.Max)}
}

// Grow expands the box by d on every side.
func (b AABB) Grow(d float64) AABB {
	return AABB{Min: b.Min.Sub(Splat3(d)), Max: b.Max.Add(Splat3(d))}
}

// IntersectAABB clips the ray against the box using the slab method. It
// returns the entry and exit parameters; tmin may be negative when the
// origin is inside the box.
func (r Ray) IntersectAABB(b AABB) (tmin, tmax float64, ok bool) {
	tmin = math.Inf(-1)
	tmax = math.Inf(1)
	for i := 0; i < 3; i++ {
		if r.Dir[i] == 0 {
			// Parallel to this slab: miss unless the origin is between the planes.
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1.0 / r.Dir[i]
		t0 := (b.Min[i] - r.Origin[i]) * inv
		t1 := (b.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmax < tmin {
			return 0, 0, false
		}
	}
	if tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}
