package shade

import (
	"math/rand"

	"github.com/chazu/lumen/pkg/vec"
	"github.com/chazu/lumen/pkg/voxel"
)

// PBR marches the model buffer and returns the albedo of the hit voxel's
// material as an opaque color.
type PBR struct {
	Volume    *voxel.Buffer
	Materials MaterialSource
}

// Trace implements Policy.
func (p *PBR) Trace(r vec.Ray, _ *rand.Rand) (vec.Vec4, bool) {
	h, ok := p.Volume.Raymarch(r)
	if !ok {
		return vec.Vec4{}, false
	}
	return p.Materials.Material(h.Voxel.Material).Color(), true
}
