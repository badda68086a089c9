// Package material holds the surface description shared by SDFs, analytic
// objects and the shading policies.
package material

import (
	"math"

	"github.com/chazu/lumen/pkg/vec"
)

// Medium describes participating media inside a surface.
type Medium struct {
	Color      vec.Vec3
	Density    float64
	Anisotropy float64 // clamped to [-0.9, 0.9] by Finalize
}

// Material is a plain value type. It is copied into every hit record.
type Material struct {
	Name        string
	Albedo      vec.Vec3
	Roughness   float64
	Metallic    float64
	Anisotropic float64
	IOR         float64
	Emission    vec.Vec3
	Medium      Medium
	Alpha       float64

	// Derived by Finalize.
	Ax float64
	Ay float64

	finalized bool
}

// Default returns a neutral grey dielectric.
func Default() Material {
	return Material{
		Name:      "default",
		Albedo:    vec.XYZ(0.5, 0.5, 0.5),
		Roughness: 0.5,
		IOR:       1.5,
		Alpha:     1,
	}
}

// Finalize derives the anisotropic roughness axes and clamps the medium
// anisotropy. It must run once after all mutations and before shading;
// calling it again is a no-op.
func (m *Material) Finalize() {
	if m.finalized {
		return
	}
	aspect := math.Sqrt(1 - 0.9*vec.Clamp(m.Anisotropic, 0, 1))
	r2 := m.Roughness * m.Roughness
	m.Ax = math.Max(0.001, r2/aspect)
	m.Ay = math.Max(0.001, r2*aspect)
	m.Medium.Anisotropy = vec.Clamp(m.Medium.Anisotropy, -0.9, 0.9)
	m.finalized = true
}

// Finalized reports whether Finalize has run.
func (m Material) Finalized() bool {
	return m.finalized
}

// Color returns the albedo as an opaque RGBA value.
func (m Material) Color() vec.Vec4 {
	return m.Albedo.Vec4(1)
}

// IsEmissive reports whether the material emits light.
func (m Material) IsEmissive() bool {
	return m.Emission.MaxComp() > 0
}
