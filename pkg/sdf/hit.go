package sdf

import (
	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/vec"
)

// Hit is the record produced by every intersection routine and consumed by
// the shading policies.
type Hit struct {
	T        float64
	Position vec.Vec3
	Normal   vec.Vec3
	Material material.Material
	Shader   Shader
	ID       string
}

// Shader is the per-object shading capability. Implementations that return
// ok=false defer to the active renderer policy.
type Shader interface {
	Shade(h Hit) (color vec.Vec4, ok bool)
}

// DefaultShader always defers to the renderer policy.
type DefaultShader struct{}

func (DefaultShader) Shade(Hit) (vec.Vec4, bool) { return vec.Vec4{}, false }

// CustomShader adapts a callback owned by an external collaborator.
type CustomShader func(h Hit) vec.Vec4

func (f CustomShader) Shade(h Hit) (vec.Vec4, bool) {
	if f == nil {
		return vec.Vec4{}, false
	}
	return f(h), true
}
