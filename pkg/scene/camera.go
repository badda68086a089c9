package scene

import (
	"fmt"
	"math"

	"github.com/chazu/lumen/pkg/vec"
)

// Camera is a pinhole camera. FOV is the vertical field of view in degrees.
type Camera struct {
	Position vec.Vec3
	LookAt   vec.Vec3
	Up       vec.Vec3
	FOV      float64
}

// NewCamera returns a camera at position looking at target.
func NewCamera(position, target vec.Vec3, fov float64) Camera {
	return Camera{Position: position, LookAt: target, Up: vec.XYZ(0, 1, 0), FOV: fov}
}

// DefaultCamera looks at the origin from +Z.
func DefaultCamera() Camera {
	return NewCamera(vec.XYZ(0, 1, 3), vec.Vec3{}, 70)
}

func (c Camera) String() string {
	return fmt.Sprintf("camera(pos=%v look=%v fov=%.1f)", c.Position, c.LookAt, c.FOV)
}

// Validate checks that the camera can produce rays.
func (c Camera) Validate() error {
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("%w: fov %.2f out of range (0, 180)", ErrInvalidCamera, c.FOV)
	}
	fwd := c.LookAt.Sub(c.Position)
	if fwd.Len() == 0 {
		return fmt.Errorf("%w: position equals look-at", ErrInvalidCamera)
	}
	if fwd.Normalize().Cross(c.Up.Normalize()).Len() < 1e-9 {
		return fmt.Errorf("%w: up vector is parallel to view direction", ErrInvalidCamera)
	}
	return nil
}

// Ray returns the primary ray through normalized screen coordinates u, v in
// [0, 1], with v growing downwards.
func (c Camera) Ray(u, v, aspect float64) vec.Ray {
	fwd := c.LookAt.Sub(c.Position).Normalize()
	right := fwd.Cross(c.Up).Normalize()
	up := right.Cross(fwd)

	half := math.Tan(c.FOV * math.Pi / 360)
	sx := (2*u - 1) * half * aspect
	sy := (1 - 2*v) * half

	dir := fwd.Add(right.Mul(sx)).Add(up.Mul(sy))
	return vec.NewRay(c.Position, dir)
}
