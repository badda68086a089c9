// Package voxel implements the model buffer: a dense grid caching the
// nearest-surface distance and material id of a distance field so that rays
// can be marched against the cached volume instead of the procedural source.
package voxel

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/lumen/pkg/vec"
)

// Voxel is one grid cell. Density is 1 for cells inside a surface and 0
// otherwise.
type Voxel struct {
	Distance float64
	Density  float64
	Material int
}

// Source is a distance field that also reports the material of the nearest
// surface. *scene.Scene and *nodegraph.Graph both implement it.
type Source interface {
	DistanceMaterial(p vec.Vec3) (float64, int)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(p vec.Vec3) (float64, int)

func (f SourceFunc) DistanceMaterial(p vec.Vec3) (float64, int) { return f(p) }

// Buffer is a voxelized distance field spanning Bounds world units. The
// volume is centered on the origin in X and Z and sits on Y=0.
type Buffer struct {
	Size    [3]int
	Density float64
	Bounds  vec.Vec3
	Data    []Voxel

	// Workers caps the number of concurrent slice tasks in Model. Zero
	// means runtime.NumCPU().
	Workers int

	step   vec.Vec3
	frozen bool
}

// New allocates a buffer of ceil(bounds*density) voxels per axis, every
// voxel at +Inf distance and material 0.
func New(bounds vec.Vec3, density float64) (*Buffer, error) {
	if density <= 0 || bounds[0] <= 0 || bounds[1] <= 0 || bounds[2] <= 0 {
		return nil, fmt.Errorf("%w: bounds %v density %g", ErrInvalidSize, bounds, density)
	}
	var size [3]int
	for i := range size {
		size[i] = int(math.Ceil(bounds[i] * density))
	}
	b := &Buffer{
		Size:    size,
		Density: density,
		Bounds:  bounds,
		Data:    make([]Voxel, size[0]*size[1]*size[2]),
	}
	b.init()
	for i := range b.Data {
		b.Data[i].Distance = math.Inf(1)
	}
	return b, nil
}

func (b *Buffer) init() {
	for i := range b.step {
		b.step[i] = b.Bounds[i] / float64(b.Size[i])
	}
}

// Index returns the flat offset of voxel (x, y, z).
func (b *Buffer) Index(x, y, z int) int {
	return z*b.Size[1]*b.Size[0] + y*b.Size[0] + x
}

// Voxel returns a copy of voxel (x, y, z).
func (b *Buffer) Voxel(x, y, z int) Voxel {
	return b.Data[b.Index(x, y, z)]
}

// Position returns the world-space center of voxel (x, y, z).
func (b *Buffer) Position(x, y, z int) vec.Vec3 {
	lo := b.BBox().Min
	return vec.XYZ(
		lo[0]+(float64(x)+0.5)*b.step[0],
		lo[1]+(float64(y)+0.5)*b.step[1],
		lo[2]+(float64(z)+0.5)*b.step[2],
	)
}

// Locate returns the voxel containing world position p. ok is false when p
// lies outside the buffer.
func (b *Buffer) Locate(p vec.Vec3) (x, y, z int, ok bool) {
	lo := b.BBox().Min
	var idx [3]int
	for i := 0; i < 3; i++ {
		f := math.Floor((p[i] - lo[i]) / b.step[i])
		if f < 0 || f >= float64(b.Size[i]) || math.IsNaN(f) {
			return 0, 0, 0, false
		}
		idx[i] = int(f)
	}
	return idx[0], idx[1], idx[2], true
}

// BBox returns the world-space extents of the buffer.
func (b *Buffer) BBox() vec.AABB {
	return vec.AABB{
		Min: vec.XYZ(-b.Bounds[0]/2, 0, -b.Bounds[2]/2),
		Max: vec.XYZ(b.Bounds[0]/2, b.Bounds[1], b.Bounds[2]/2),
	}
}

// VoxelEdge returns the world-space edge length of a voxel per axis.
func (b *Buffer) VoxelEdge() vec.Vec3 {
	return b.step
}

// Freeze marks the buffer read-only. Later Model calls fail with ErrFrozen.
func (b *Buffer) Freeze() {
	b.frozen = true
}

// Frozen reports whether Freeze has been called.
func (b *Buffer) Frozen() bool {
	return b.frozen
}

// Model samples src at every voxel center and keeps the smaller of the stored
// and sampled distance, together with the material of whichever won. Each Z
// slice is processed by its own task; slices never share voxels.
func (b *Buffer) Model(ctx context.Context, src Source) error {
	if b.frozen {
		return ErrFrozen
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	sliceLen := b.Size[0] * b.Size[1]
	for z := 0; z < b.Size[2]; z++ {
		z := z
		slice := b.Data[z*sliceLen : (z+1)*sliceLen]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b.modelSlice(slice, z, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("voxel: model: %w", err)
	}
	logger.Debugf("modeled %dx%dx%d voxels", b.Size[0], b.Size[1], b.Size[2])
	return nil
}

func (b *Buffer) modelSlice(slice []Voxel, z int, src Source) {
	for y := 0; y < b.Size[1]; y++ {
		for x := 0; x < b.Size[0]; x++ {
			v := &slice[y*b.Size[0]+x]
			d, mat := src.DistanceMaterial(b.Position(x, y, z))
			if d < v.Distance {
				v.Distance = d
				v.Material = mat
				if d <= 0 {
					v.Density = 1
				}
			}
		}
	}
}

// Sample returns the distance stored in the voxel containing p, or +Inf when
// p is outside the buffer.
func (b *Buffer) Sample(p vec.Vec3) float64 {
	x, y, z, ok := b.Locate(p)
	if !ok {
		return math.Inf(1)
	}
	return b.Data[b.Index(x, y, z)].Distance
}

// sampleClamped looks up the voxel nearest to p, clamping to the border.
func (b *Buffer) sampleClamped(p vec.Vec3) float64 {
	lo := b.BBox().Min
	var idx [3]int
	for i := 0; i < 3; i++ {
		f := math.Floor((p[i] - lo[i]) / b.step[i])
		idx[i] = int(vec.Clamp(f, 0, float64(b.Size[i]-1)))
	}
	return b.Data[b.Index(idx[0], idx[1], idx[2])].Distance
}

// Normal estimates the field gradient at p with central differences, using
// one voxel edge as the offset on each axis.
func (b *Buffer) Normal(p vec.Vec3) vec.Vec3 {
	var n vec.Vec3
	for i := 0; i < 3; i++ {
		var off vec.Vec3
		off[i] = b.step[i]
		n[i] = b.sampleClamped(p.Add(off)) - b.sampleClamped(p.Sub(off))
	}
	if math.IsNaN(n[0]) || math.IsNaN(n[1]) || math.IsNaN(n[2]) {
		return vec.Vec3{}
	}
	return n.Normalize()
}

// Occupied returns the number of voxels inside a surface.
func (b *Buffer) Occupied() int {
	n := 0
	for i := range b.Data {
		if b.Data[i].Distance <= 0 {
			n++
		}
	}
	return n
}
