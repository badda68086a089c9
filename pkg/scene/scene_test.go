package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

func TestBuildExcludesOperands(t *testing.T) {
	b := NewBuilder()
	block := sdf.NewBox("block", vec.Vec3{}, vec.XYZ(1, 1, 1), 0)
	hole := sdf.NewSphere("hole", vec.Vec3{}, 1.2)
	ball := sdf.NewSphere("ball", vec.XYZ(3, 0, 0), 0.5)
	block.Subtract(hole)

	for _, s := range []*sdf.SDF{block, hole, ball} {
		if err := b.AddSDF(s); err != nil {
			t.Fatalf("AddSDF(%s): %v", s.ID, err)
		}
	}

	sc, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sc.SDFs) != 2 {
		t.Fatalf("render list = %d, want 2", len(sc.SDFs))
	}
	for _, s := range sc.SDFs {
		if s.ID == "hole" {
			t.Error("operand 'hole' should not be on the render list")
		}
	}
	if sc.Lookup("hole") == nil {
		t.Error("operand should still be addressable by id")
	}
}

func TestBuildAdoptsUnregisteredOperands(t *testing.T) {
	b := NewBuilder()
	a := sdf.NewSphere("a", vec.Vec3{}, 1)
	a.SMin(sdf.NewSphere("", vec.XYZ(1, 0, 0), 1), 0.2)
	if err := b.AddSDF(a); err != nil {
		t.Fatal(err)
	}
	sc, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.AllSDFs()) != 2 || len(sc.SDFs) != 1 {
		t.Errorf("all = %d, render = %d, want 2 and 1", len(sc.AllSDFs()), len(sc.SDFs))
	}
	if sc.AllSDFs()[1].ID == "" {
		t.Error("adopted operand should receive an id")
	}
}

func TestDuplicateID(t *testing.T) {
	b := NewBuilder()
	if err := b.AddSDF(sdf.NewSphere("x", vec.Vec3{}, 1)); err != nil {
		t.Fatal(err)
	}
	err := b.AddAnalytic(sdf.NewAnalyticSphere("x", vec.Vec3{}, 1))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}

func TestOperandCycle(t *testing.T) {
	b := NewBuilder()
	x := sdf.NewSphere("x", vec.Vec3{}, 1)
	y := sdf.NewSphere("y", vec.Vec3{}, 1)
	x.Subtract(y)
	y.Subtract(x)
	_ = b.AddSDF(x)
	_ = b.AddSDF(y)

	if _, err := b.Build(); !errors.Is(err, ErrOperandCycle) {
		t.Fatalf("err = %v, want ErrOperandCycle", err)
	}
}

func TestBuildFinalizesMaterials(t *testing.T) {
	b := NewBuilder()
	s := sdf.NewSphere("ball", vec.Vec3{}, 1)
	_ = b.AddSDF(s)
	sc, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range sc.Materials {
		if !m.Finalized() {
			t.Errorf("material %d not finalized", i)
		}
	}
	if _, err := b.Build(); !errors.Is(err, ErrBuilt) {
		t.Errorf("second Build err = %v, want ErrBuilt", err)
	}
}

func TestDistanceMaterial(t *testing.T) {
	b := NewBuilder()
	left := sdf.NewSphere("left", vec.XYZ(-2, 0, 0), 1)
	right := sdf.NewSphere("right", vec.XYZ(2, 0, 0), 1)
	_ = b.AddSDF(left)
	_ = b.AddSDF(right)
	sc, _ := b.Build()

	d, id := sc.DistanceMaterial(vec.XYZ(2.5, 0, 0))
	if math.Abs(d+0.5) > 1e-9 {
		t.Errorf("distance = %f, want -0.5", d)
	}
	if id != sc.MaterialID(right) || id == 0 {
		t.Errorf("material id = %d, want %d", id, sc.MaterialID(right))
	}
	if sc.Material(999).Name != "default" {
		t.Error("out-of-range material id should fall back to default")
	}
}

func TestSceneHitPrefersNearest(t *testing.T) {
	b := NewBuilder()
	_ = b.AddSDF(sdf.NewSphere("far", vec.XYZ(0, 0, -5), 1))
	_ = b.AddAnalytic(sdf.NewAnalyticSphere("near", vec.Vec3{}, 1))
	sc, _ := b.Build()

	h, ok := sc.Hit(vec.NewRay(vec.XYZ(0, 0, 5), vec.XYZ(0, 0, -1)), sdf.DefaultMarchOptions())
	if !ok {
		t.Fatal("expected hit")
	}
	if h.ID != "near" || math.Abs(h.T-4) > 1e-6 {
		t.Errorf("hit %q at t=%f, want near at 4", h.ID, h.T)
	}

	h, ok = sc.Hit(vec.NewRay(vec.XYZ(0, 0, 0.5), vec.XYZ(0, 0, -1)), sdf.DefaultMarchOptions())
	if !ok {
		t.Fatal("expected hit from inside analytic sphere")
	}
	if h.ID != "near" {
		t.Errorf("hit %q, want near (exit point before far sphere)", h.ID)
	}
}

func TestCameraRayCenter(t *testing.T) {
	c := NewCamera(vec.XYZ(0, 0, 3), vec.Vec3{}, 60)
	r := c.Ray(0.5, 0.5, 1)
	if math.Abs(r.Dir[2]+1) > 1e-9 {
		t.Errorf("center ray dir = %v, want (0,0,-1)", r.Dir)
	}
	top := c.Ray(0.5, 0, 1)
	if top.Dir[1] <= 0 {
		t.Errorf("v=0 should point up, got %v", top.Dir)
	}
}

func TestCameraValidate(t *testing.T) {
	c := NewCamera(vec.Vec3{}, vec.Vec3{}, 60)
	if err := c.Validate(); !errors.Is(err, ErrInvalidCamera) {
		t.Errorf("err = %v, want ErrInvalidCamera", err)
	}
	c = NewCamera(vec.XYZ(0, 5, 0), vec.Vec3{}, 60)
	if err := c.Validate(); !errors.Is(err, ErrInvalidCamera) {
		t.Errorf("parallel up: err = %v, want ErrInvalidCamera", err)
	}
}

func TestAddMaterialIDs(t *testing.T) {
	b := NewBuilder()
	red := material.Default()
	red.Name = "red"
	red.Albedo = vec.XYZ(1, 0, 0)
	id := b.AddMaterial(red)
	_ = b.AddSDF(sdf.NewSphere("ball", vec.Vec3{}, 1))
	sc, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := sc.Material(id); got.Name != "red" || !got.Finalized() {
		t.Errorf("material %d = %+v, want finalized red", id, got)
	}
	if sc.MaterialID(sc.Lookup("ball")) == id {
		t.Error("sdf material should not collide with registered material id")
	}
}
