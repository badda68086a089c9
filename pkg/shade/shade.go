// Package shade holds the per-pixel renderer policies. Each policy traces a
// primary ray against its own representation of the scene and returns a
// color, or ok=false when the ray escapes to the background.
package shade

import (
	"math/rand"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// Policy shades one primary ray. rng is owned by the calling worker.
type Policy interface {
	Trace(r vec.Ray, rng *rand.Rand) (vec.Vec4, bool)
}

// MaterialSource resolves material ids. *scene.Scene and *nodegraph.Graph
// both implement it.
type MaterialSource interface {
	Material(id int) material.Material
}

// custom returns the color of a per-object shader, if it supplies one.
func custom(h sdf.Hit) (vec.Vec4, bool) {
	if h.Shader == nil {
		return vec.Vec4{}, false
	}
	return h.Shader.Shade(h)
}
