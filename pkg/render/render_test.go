package render

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/lumen/pkg/buffer"
	"github.com/chazu/lumen/pkg/config"
	"github.com/chazu/lumen/pkg/nodegraph"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

var background = vec.XYZW(0, 0, 1, 1)

func sphereScene(t *testing.T) *scene.Scene {
	t.Helper()
	b := scene.NewBuilder()
	if err := b.AddSDF(sdf.NewSphere("ball", vec.Vec3{}, 1)); err != nil {
		t.Fatal(err)
	}
	b.AddLight(scene.NewLight("key", vec.XYZ(2, 4, 3), 1))
	b.SetCamera(scene.NewCamera(vec.XYZ(0, 1, 3), vec.Vec3{}, 70))
	sc, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func smallSettings(mode config.Renderer) config.Settings {
	s := config.Default()
	s.Width, s.Height = 64, 64
	s.Antialias = 1
	s.Background = background
	s.Renderer = mode
	s.TileW, s.TileH = 16, 16
	s.Iterations = 2
	s.VoxelBounds = vec.XYZ(3, 3, 3)
	s.VoxelDensity = 12
	return s
}

func near(a, b vec.Vec4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

func checkCenterAndCorners(t *testing.T, img *buffer.Buffer) {
	t.Helper()
	if c := img.At(32, 32); near(c, background) {
		t.Errorf("center pixel is background %v", c)
	}
	for _, p := range [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}} {
		if c := img.At(p[0], p[1]); !near(c, background) {
			t.Errorf("corner %v = %v, want background", p, c)
		}
	}
}

func TestRenderPhongSphere(t *testing.T) {
	r := &Renderer{Settings: smallSettings(config.Phong), Scene: sphereScene(t)}
	res, err := r.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	checkCenterAndCorners(t, res.Image)
	if len(res.Passes) != 1 || res.Passes[0].Pixels() != 64*64 {
		t.Errorf("passes = %+v", res.Passes)
	}
}

func TestRenderPBRFromScene(t *testing.T) {
	r := &Renderer{Settings: smallSettings(config.PBR), Scene: sphereScene(t)}
	res, err := r.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	checkCenterAndCorners(t, res.Image)
	if r.Volume == nil || !r.Volume.Frozen() {
		t.Error("pbr render should leave a frozen volume behind")
	}
}

func TestRenderPathTraceResumes(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "frame.snap")
	s := smallSettings(config.PathTrace)
	r := &Renderer{Settings: s, Scene: sphereScene(t), SnapshotPath: snap, Seed: 3}
	res, err := r.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	checkCenterAndCorners(t, res.Image)
	if len(res.Passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(res.Passes))
	}

	prev, done, err := buffer.LoadSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	if done != 2 {
		t.Fatalf("snapshot samples = %d, want 2", done)
	}
	s.Iterations = 3
	r2 := &Renderer{Settings: s, Scene: sphereScene(t), Resume: prev, ResumeSamples: done}
	res2, err := r2.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res2.Passes) != 1 {
		t.Errorf("resumed passes = %d, want 1", len(res2.Passes))
	}
	checkCenterAndCorners(t, res2.Image)
}

func TestRenderGraph(t *testing.T) {
	g, err := nodegraph.Compile(`
[c: Circle]
radius = 0.25
color = vec4(1, 0, 0, 1)
background = vec4(0, 0, 1, 1)
[o: Output]
color = c.color
`, nodegraph.Builtins())
	if err != nil {
		t.Fatal(err)
	}
	r := &Renderer{Settings: smallSettings(config.Graph), Graph: g}
	res, err := r.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c := res.Image.At(32, 32); c != vec.XYZW(1, 0, 0, 1) {
		t.Errorf("center = %v, want red", c)
	}
	checkCorners := res.Image.At(0, 0)
	if checkCorners != background {
		t.Errorf("corner = %v", checkCorners)
	}
}

func TestRenderCheckpointWritesPNG(t *testing.T) {
	s := smallSettings(config.Phong)
	s.Checkpoint = filepath.Join(t.TempDir(), "partial.png")
	r := &Renderer{Settings: s, Scene: sphereScene(t)}
	if _, err := r.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.Checkpoint); err != nil {
		t.Errorf("checkpoint missing: %v", err)
	}
}

func TestRenderMissingInputs(t *testing.T) {
	if _, err := (&Renderer{Settings: smallSettings(config.Phong)}).Render(context.Background()); !errors.Is(err, ErrNoScene) {
		t.Errorf("phong without scene: %v", err)
	}
	if _, err := (&Renderer{Settings: smallSettings(config.Graph)}).Render(context.Background()); !errors.Is(err, ErrNoGraph) {
		t.Errorf("graph without graph: %v", err)
	}
	if _, err := (&Renderer{Settings: smallSettings(config.PBR)}).Render(context.Background()); !errors.Is(err, ErrNoVolume) {
		t.Errorf("pbr without inputs: %v", err)
	}
	bad := smallSettings(config.Phong)
	bad.Width = 0
	if _, err := (&Renderer{Settings: bad, Scene: sphereScene(t)}).Render(context.Background()); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("invalid settings: %v", err)
	}
}

func TestBackgroundOpacity(t *testing.T) {
	s := smallSettings(config.Phong)
	s.Opacity = 0.5
	r := &Renderer{Settings: s}
	if bg := r.background(vec.Ray{Dir: vec.XYZ(0, 1, 0)}); bg[3] != 0.5 {
		t.Errorf("alpha = %f, want 0.5", bg[3])
	}
	s.BackgroundFunc = true
	r.Settings = s
	up := r.background(vec.Ray{Dir: vec.XYZ(0, 1, 0)})
	if up.Vec3() != vec.XYZ(0.5, 0.7, 1) {
		t.Errorf("sky zenith = %v", up)
	}
}
