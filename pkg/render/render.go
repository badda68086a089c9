// Package render turns a scene, node graph or model buffer into an image. It
// generates camera rays with an antialiasing grid, dispatches them to the
// configured shading policy and spreads the work over the tile scheduler.
package render

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/chazu/lumen/pkg/buffer"
	"github.com/chazu/lumen/pkg/config"
	"github.com/chazu/lumen/pkg/nodegraph"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/shade"
	"github.com/chazu/lumen/pkg/tile"
	"github.com/chazu/lumen/pkg/vec"
	"github.com/chazu/lumen/pkg/voxel"
)

// Renderer holds the inputs of one render invocation.
type Renderer struct {
	Settings config.Settings
	Scene    *scene.Scene
	Graph    *nodegraph.Graph
	Volume   *voxel.Buffer

	// Seed drives the path tracer's light sampling.
	Seed int64

	// Resume continues a progressive render from an earlier snapshot that
	// already holds ResumeSamples passes.
	Resume        *buffer.Buffer
	ResumeSamples int

	// SnapshotPath, when set, receives a float snapshot after every
	// progressive pass.
	SnapshotPath string
}

// Result is a finished image and the statistics of every pass.
type Result struct {
	Image  *buffer.Buffer
	Passes []tile.Stats
}

// Render produces the image described by r.Settings.
func (r *Renderer) Render(ctx context.Context) (*Result, error) {
	s := r.Settings
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Renderer {
	case config.Graph:
		if r.Graph == nil {
			return nil, ErrNoGraph
		}
		if !r.Graph.HasOutput(nodegraph.ColorOutput) {
			return nil, fmt.Errorf("render: %w", nodegraph.ErrNoOutput)
		}
		return r.single(ctx, r.graphTile)

	case config.Phong:
		if r.Scene == nil {
			return nil, ErrNoScene
		}
		p := &shade.Phong{Scene: r.Scene, March: s.MarchOptions(), Ambient: s.Ambient, Specular: s.Specular}
		return r.single(ctx, r.cameraTile(p, 0))

	case config.PBR:
		p, err := r.pbr(ctx)
		if err != nil {
			return nil, err
		}
		return r.single(ctx, r.cameraTile(p, 0))

	case config.PathTrace:
		if r.Scene == nil {
			return nil, ErrNoScene
		}
		return r.progressive(ctx, &shade.PathTraced{Scene: r.Scene, March: s.MarchOptions()})
	}
	return nil, fmt.Errorf("render: unknown renderer %q", s.Renderer)
}

func (r *Renderer) scheduler() *tile.Scheduler {
	s := r.Settings
	sch := &tile.Scheduler{TileW: s.TileW, TileH: s.TileH, Workers: s.Workers}
	if s.Checkpoint != "" {
		path, gamma := s.Checkpoint, s.Gamma
		sch.Checkpoint = func(b *buffer.Buffer) error {
			return b.SavePNG(path, gamma)
		}
	}
	return sch
}

func (r *Renderer) single(ctx context.Context, fn tile.Func) (*Result, error) {
	dst := buffer.New(r.Settings.Width, r.Settings.Height)
	stats, err := r.scheduler().Run(ctx, dst, fn)
	if err != nil {
		return nil, err
	}
	return &Result{Image: dst, Passes: []tile.Stats{stats}}, nil
}

// progressive averages Settings.Iterations passes of a stochastic policy.
func (r *Renderer) progressive(ctx context.Context, p shade.Policy) (*Result, error) {
	s := r.Settings
	dst := buffer.New(s.Width, s.Height)
	done := 0
	if r.Resume != nil {
		if r.Resume.Width != s.Width || r.Resume.Height != s.Height {
			return nil, fmt.Errorf("render: resume %dx%d into %dx%d: %w",
				r.Resume.Width, r.Resume.Height, s.Width, s.Height, buffer.ErrSizeMismatch)
		}
		dst = r.Resume.Clone()
		done = r.ResumeSamples
	}

	res := &Result{Image: dst}
	for pass := done + 1; pass <= s.Iterations; pass++ {
		sch := r.scheduler()
		sch.Sample = pass
		stats, err := sch.Run(ctx, dst, r.cameraTile(p, pass))
		if err != nil {
			return nil, fmt.Errorf("render: pass %d: %w", pass, err)
		}
		res.Passes = append(res.Passes, stats)
		if r.SnapshotPath != "" {
			if err := dst.SaveSnapshot(r.SnapshotPath, pass); err != nil {
				logger.Warningf("snapshot after pass %d failed: %v", pass, err)
			}
		}
		logger.Infof("pass %d/%d done in %v", pass, s.Iterations, stats.Wall)
	}
	return res, nil
}

func (r *Renderer) pbr(ctx context.Context) (*shade.PBR, error) {
	s := r.Settings
	vol := r.Volume
	if vol == nil {
		var src voxel.Source
		switch {
		case r.Graph != nil && r.Graph.HasOutput(nodegraph.FieldOutput):
			src = r.Graph
		case r.Scene != nil:
			src = r.Scene
		default:
			return nil, ErrNoVolume
		}
		var err error
		vol, err = voxel.New(s.VoxelBounds, s.VoxelDensity)
		if err != nil {
			return nil, err
		}
		vol.Workers = s.Workers
		if err := vol.Model(ctx, src); err != nil {
			return nil, err
		}
		vol.Freeze()
		r.Volume = vol
	}

	var mats shade.MaterialSource
	switch {
	case r.Graph != nil && r.Graph.HasOutput(nodegraph.MaterialOutput):
		mats = r.Graph
	case r.Scene != nil:
		mats = r.Scene
	case r.Graph != nil:
		mats = r.Graph
	default:
		return nil, ErrNoScene
	}
	return &shade.PBR{Volume: vol, Materials: mats}, nil
}

func (r *Renderer) camera() scene.Camera {
	if r.Scene != nil {
		return r.Scene.Camera
	}
	return scene.DefaultCamera()
}

// cameraTile renders a tile by tracing an antialias grid of camera rays per
// pixel through p.
func (r *Renderer) cameraTile(p shade.Policy, pass int) tile.Func {
	s := r.Settings
	cam := r.camera()
	aspect := s.Aspect()
	n := s.Antialias
	w, h := float64(s.Width), float64(s.Height)

	return func(ctx context.Context, t tile.Tile, dst *buffer.Buffer) error {
		rng := rand.New(rand.NewSource(r.Seed + int64(pass)*int64(s.Width*s.Height) + int64(t.Y*s.Width+t.X)))
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				var sum vec.Vec4
				for sy := 0; sy < n; sy++ {
					for sx := 0; sx < n; sx++ {
						u := (float64(t.X+x) + (float64(sx)+0.5)/float64(n)) / w
						v := (float64(t.Y+y) + (float64(sy)+0.5)/float64(n)) / h
						ray := cam.Ray(u, v, aspect)
						c, ok := p.Trace(ray, rng)
						if !ok {
							c = r.background(ray)
						}
						sum = sum.Add(c)
					}
				}
				dst.Set(x, y, sum.Mul(1/float64(n*n)))
			}
		}
		return ctx.Err()
	}
}

// graphTile evaluates the graph's color output over an antialias grid.
func (r *Renderer) graphTile(ctx context.Context, t tile.Tile, dst *buffer.Buffer) error {
	s := r.Settings
	n := s.Antialias
	size := vec.XY(float64(s.Width), float64(s.Height))
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			var sum vec.Vec4
			for sy := 0; sy < n; sy++ {
				for sx := 0; sx < n; sx++ {
					px := float64(t.X+x) + (float64(sx)+0.5)/float64(n)
					py := float64(t.Y+y) + (float64(sy)+0.5)/float64(n)
					sum = sum.Add(r.Graph.Execute(px, py, size))
				}
			}
			dst.Set(x, y, sum.Mul(1/float64(n*n)))
		}
	}
	return ctx.Err()
}

// background is the color of a ray that hits nothing.
func (r *Renderer) background(ray vec.Ray) vec.Vec4 {
	s := r.Settings
	if s.BackgroundFunc {
		t := 0.5 * (ray.Dir.Y() + 1)
		sky := vec.XYZ(1, 1, 1).Lerp(vec.XYZ(0.5, 0.7, 1), t)
		return sky.Vec4(s.Opacity)
	}
	bg := s.Background
	bg[3] *= s.Opacity
	return bg
}
