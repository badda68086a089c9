package scene

import "github.com/chazu/lumen/pkg/vec"

// Light is a point light; a positive Radius turns it into a spherical area
// light for the path-traced renderer.
type Light struct {
	ID        string
	Position  vec.Vec3
	Color     vec.Vec3
	Intensity float64
	Radius    float64
}

// NewLight returns a white point light.
func NewLight(id string, position vec.Vec3, intensity float64) Light {
	return Light{ID: id, Position: position, Color: vec.XYZ(1, 1, 1), Intensity: intensity}
}

// Direction returns the normalized direction from p towards the light and
// the distance to its center.
func (l Light) Direction(p vec.Vec3) (vec.Vec3, float64) {
	d := l.Position.Sub(p)
	return d.Normalize(), d.Len()
}
