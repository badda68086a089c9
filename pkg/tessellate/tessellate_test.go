package tessellate_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/chazu/lumen/pkg/kernel"
	"github.com/chazu/lumen/pkg/kernel/sdfx"
	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/tessellate"
	"github.com/chazu/lumen/pkg/vec"
)

const testCells = 24

func buildScene(t *testing.T, objs ...*sdf.SDF) *scene.Scene {
	t.Helper()
	b := scene.NewBuilder()
	for _, o := range objs {
		if err := b.AddSDF(o); err != nil {
			t.Fatalf("AddSDF(%s): %v", o.ID, err)
		}
	}
	sc, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sc
}

func TestNilScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, sdfx.New(), tessellate.Options{})
	if err != nil || meshes != nil {
		t.Fatalf("Tessellate(nil) = %v, %v", meshes, err)
	}
}

func TestSingleSphere(t *testing.T) {
	red := material.Default()
	red.Albedo = vec.XYZ(1, 0, 0)
	ball := sdf.NewSphere("ball", vec.XYZ(0, 1, 0), 0.5).SetMaterial(red)
	sc := buildScene(t, ball)

	meshes, err := tessellate.Tessellate(sc, sdfx.New(), tessellate.Options{Cells: testCells})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.Name != "ball" {
		t.Errorf("mesh name = %q, want ball", m.Name)
	}
	if got := sc.Material(m.Material).Albedo; got != red.Albedo {
		t.Errorf("mesh material albedo = %v, want %v", got, red.Albedo)
	}
	min, max, ok := m.Bounds()
	if !ok {
		t.Fatal("mesh is empty")
	}
	const tol = 0.05
	if math.Abs(float64(min[1])-0.5) > tol || math.Abs(float64(max[1])-1.5) > tol {
		t.Errorf("mesh Y range [%f, %f], want [0.5, 1.5]", min[1], max[1])
	}
}

func TestOperandsFoldIntoOwner(t *testing.T) {
	body := sdf.NewBox("body", vec.Vec3{}, vec.XYZ(1, 1, 1), 0)
	hole := sdf.NewSphere("hole", vec.Vec3{}, 0.8)
	blob := sdf.NewSphere("blob", vec.XYZ(3, 0, 0), 0.5)
	body.Subtract(hole)
	sc := buildScene(t, body, hole, blob)

	meshes, err := tessellate.Tessellate(sc, sdfx.New(), tessellate.Options{Cells: testCells})
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	var names []string
	for _, m := range meshes {
		names = append(names, m.Name)
	}
	if want := []string{"body", "blob"}; !reflect.DeepEqual(names, want) {
		t.Errorf("mesh names = %v, want %v", names, want)
	}
}

func TestPlaneNeedsBounds(t *testing.T) {
	floor := sdf.NewPlane("floor", vec.XYZ(0, 1, 0), 0)
	sc := buildScene(t, floor)

	_, err := tessellate.Tessellate(sc, sdfx.New(), tessellate.Options{Cells: testCells})
	if !errors.Is(err, tessellate.ErrUnbounded) {
		t.Fatalf("err = %v, want ErrUnbounded", err)
	}

	opts := tessellate.Options{
		Cells:  testCells,
		Bounds: vec.AABB{Min: vec.XYZ(-2, -1, -2), Max: vec.XYZ(2, 1, 2)},
	}
	meshes, err := tessellate.Tessellate(sc, sdfx.New(), opts)
	if err != nil {
		t.Fatalf("Tessellate with bounds: %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() {
		t.Fatalf("expected one non-empty plane mesh, got %v", meshes)
	}
}

func TestUnion(t *testing.T) {
	a := sdf.NewSphere("a", vec.XYZ(-2, 0, 0), 0.5)
	b := sdf.NewBox("b", vec.XYZ(2, 0, 0), vec.XYZ(0.5, 0.5, 0.5), 0)
	sc := buildScene(t, a, b)

	solid, err := tessellate.Union(sc, sdfx.New(), tessellate.Options{})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	bb := solid.BoundingBox()
	const tol = 0.01
	if math.Abs(bb.Min[0]+2.5) > tol || math.Abs(bb.Max[0]-2.5) > tol {
		t.Errorf("union X extent = [%f, %f], want [-2.5, 2.5]", bb.Min[0], bb.Max[0])
	}

	if _, err := tessellate.Union(buildScene(t), sdfx.New(), tessellate.Options{}); err == nil {
		t.Error("expected error for a scene without sdfs")
	}
}

// recordingKernel logs the calls made against it.
type recordingKernel struct {
	calls []string
}

type fakeSolid struct{}

func (fakeSolid) BoundingBox() vec.AABB { return vec.AABB{} }

func (k *recordingKernel) add(name string) kernel.Solid {
	k.calls = append(k.calls, name)
	return fakeSolid{}
}

func (k *recordingKernel) Sphere(vec.Vec3, float64) (kernel.Solid, error) {
	return k.add("sphere"), nil
}
func (k *recordingKernel) Box(vec.Vec3, vec.Vec3, float64) (kernel.Solid, error) {
	return k.add("box"), nil
}
func (k *recordingKernel) Cone(vec.Vec3, float64, float64, float64, float64) (kernel.Solid, error) {
	return k.add("cone"), nil
}
func (k *recordingKernel) Field(sdf.Field, vec.AABB) kernel.Solid { return k.add("field") }
func (k *recordingKernel) Union(a, _ kernel.Solid) kernel.Solid   { return k.add("union") }
func (k *recordingKernel) Difference(a, _ kernel.Solid) kernel.Solid {
	return k.add("difference")
}
func (k *recordingKernel) SmoothUnion(a, _ kernel.Solid, _ float64) kernel.Solid {
	return k.add("smooth-union")
}
func (k *recordingKernel) ToMesh(kernel.Solid, int) (*kernel.Mesh, error) {
	k.calls = append(k.calls, "mesh")
	return &kernel.Mesh{}, nil
}
func (k *recordingKernel) WriteSTL(kernel.Solid, string, int) error { return nil }

var _ kernel.Kernel = (*recordingKernel)(nil)

func TestOperationOrder(t *testing.T) {
	base := sdf.NewCappedCone("base", vec.Vec3{}, 1, 0.5, 0.2, 0)
	cut := sdf.NewBox("cut", vec.Vec3{}, vec.XYZ(0.1, 2, 0.1), 0)
	knob := sdf.NewSphere("knob", vec.XYZ(0, 1, 0), 0.3)
	base.Subtract(cut).SMin(knob, 0.2)
	sc := buildScene(t, base)

	k := &recordingKernel{}
	if _, err := tessellate.Tessellate(sc, k, tessellate.Options{}); err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	want := []string{"cone", "box", "difference", "sphere", "smooth-union", "mesh"}
	if !reflect.DeepEqual(k.calls, want) {
		t.Errorf("calls = %v, want %v", k.calls, want)
	}
}
