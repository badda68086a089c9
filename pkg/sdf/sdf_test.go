package sdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/lumen/pkg/vec"
)

const tol = 1e-9

func randomPoints(n int) []vec.Vec3 {
	rng := rand.New(rand.NewSource(7))
	pts := make([]vec.Vec3, n)
	for i := range pts {
		pts[i] = vec.XYZ(rng.Float64()*8-4, rng.Float64()*8-4, rng.Float64()*8-4)
	}
	return pts
}

func TestSphereDistance(t *testing.T) {
	center := vec.XYZ(1, -2, 0.5)
	s := NewSphere("ball", center, 1.25)

	for _, p := range randomPoints(200) {
		want := p.Sub(center).Len() - 1.25
		if got := s.Distance(p); math.Abs(got-want) > tol {
			t.Fatalf("Distance(%v) = %f, want %f", p, got, want)
		}
	}

	onSurface := center.Add(vec.XYZ(0, 1.25, 0))
	if d := s.Distance(onSurface); math.Abs(d) > tol {
		t.Errorf("surface point distance = %g, want ~0", d)
	}
}

func TestBoxDistanceAtCenter(t *testing.T) {
	half := vec.XYZ(2, 0.75, 1.5)
	b := NewBox("crate", vec.XYZ(3, 1, -2), half, 0)

	got := b.Distance(vec.XYZ(3, 1, -2))
	want := -half.MinComp()
	if math.Abs(got-want) > tol {
		t.Errorf("center distance = %f, want %f", got, want)
	}
}

func TestRoundedBoxOutside(t *testing.T) {
	b := NewBox("crate", vec.Vec3{}, vec.XYZ(1, 1, 1), 0.25)
	// Along an axis the rounding does not change the face distance.
	if got := b.Distance(vec.XYZ(3, 0, 0)); math.Abs(got-2) > tol {
		t.Errorf("face distance = %f, want 2", got)
	}
	// Corners are pulled in by the rounding.
	sharp := NewBox("sharp", vec.Vec3{}, vec.XYZ(1, 1, 1), 0)
	corner := vec.XYZ(2, 2, 2)
	if b.Distance(corner) <= sharp.Distance(corner) {
		t.Errorf("rounded corner %f should be farther than sharp corner %f", b.Distance(corner), sharp.Distance(corner))
	}
}

func TestPlaneDistance(t *testing.T) {
	p := NewPlane("floor", vec.XYZ(0, 2, 0), 1)
	if got := p.Distance(vec.XYZ(5, 3, -7)); math.Abs(got-4) > tol {
		t.Errorf("plane distance = %f, want 4", got)
	}
}

func TestCappedConeDistance(t *testing.T) {
	c := NewCappedCone("cone", vec.Vec3{}, 1, 1, 0.5, 0)

	tests := []struct {
		name string
		p    vec.Vec3
		want float64
	}{
		{"above cap", vec.XYZ(0, 3, 0), 2},
		{"below base", vec.XYZ(0, -2, 0), 1},
		{"inside", vec.XYZ(0, 0, 0), -0.72760688},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Distance(tt.p); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Distance(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}

func TestCappedConeDegenerate(t *testing.T) {
	c := NewCappedCone("flat", vec.Vec3{}, 0, 1, 1, 0)
	d := c.Distance(vec.XYZ(0, 1, 0))
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("degenerate cone produced %f", d)
	}
}

func TestSmoothMinBlend(t *testing.T) {
	a := NewSphere("a", vec.XYZ(-1.5, 0, 0), 1)
	b := NewSphere("b", vec.XYZ(1.5, 0, 0), 1)
	mid := vec.Vec3{}

	hard := math.Min(a.Distance(mid), b.Distance(mid))

	blended := NewSphere("a", vec.XYZ(-1.5, 0, 0), 1).SMin(b, 1)
	if got := blended.Distance(mid); got >= hard {
		t.Fatalf("smooth-min at midpoint = %f, want < %f", got, hard)
	}

	prevGap := math.Inf(1)
	for _, k := range []float64{1, 0.1, 0.01, 0.001} {
		s := NewSphere("a", vec.XYZ(-1.5, 0, 0), 1).SMin(b, k)
		gap := hard - s.Distance(mid)
		if gap < 0 || gap > prevGap {
			t.Fatalf("k=%g: gap %g does not shrink monotonically (prev %g)", k, gap, prevGap)
		}
		prevGap = gap
	}
	if prevGap > 1e-3 {
		t.Errorf("smooth-min does not converge to min: gap %g", prevGap)
	}
}

func TestSmoothMinZeroK(t *testing.T) {
	if got := SmoothMin(0.3, 0.7, 0); got != 0.3 {
		t.Errorf("SmoothMin(k=0) = %f, want hard min 0.3", got)
	}
	if got := SmoothMin(0.3, 0.7, -1); got != 0.3 {
		t.Errorf("SmoothMin(k<0) = %f, want hard min 0.3", got)
	}
}

func TestSubtractComposition(t *testing.T) {
	b := NewSphere("hole", vec.XYZ(0.5, 0, 0), 0.75)
	a := NewBox("block", vec.Vec3{}, vec.XYZ(1, 1, 1), 0.1)
	plainA := NewBox("block", vec.Vec3{}, vec.XYZ(1, 1, 1), 0.1)
	a.Subtract(b)

	for _, p := range randomPoints(200) {
		want := math.Max(plainA.Distance(p), -b.Distance(p))
		if got := a.Distance(p); math.Abs(got-want) > tol {
			t.Fatalf("Distance(%v) = %f, want %f", p, got, want)
		}
	}
}

func TestOpsApplyInOrder(t *testing.T) {
	base := NewSphere("base", vec.Vec3{}, 1)
	cut := NewSphere("cut", vec.XYZ(1, 0, 0), 0.5)
	add := NewSphere("add", vec.XYZ(1, 0, 0), 0.25)
	base.Subtract(cut).SMin(add, 0)

	// The re-added sphere fills the cut where it overlaps.
	p := vec.XYZ(1, 0, 0)
	want := math.Min(math.Max(0, -cut.Distance(p)), add.Distance(p))
	if got := base.Distance(p); math.Abs(got-want) > tol {
		t.Errorf("ordered fold = %f, want %f", got, want)
	}
	if len(base.Operands()) != 2 {
		t.Errorf("operands = %d, want 2", len(base.Operands()))
	}
}

func TestNormal(t *testing.T) {
	s := NewSphere("ball", vec.Vec3{}, 1)
	n := s.NormalAt(vec.XYZ(0, 1, 0))
	if math.Abs(n[1]-1) > 1e-4 || math.Abs(n[0]) > 1e-4 || math.Abs(n[2]) > 1e-4 {
		t.Errorf("normal = %v, want (0,1,0)", n)
	}

	p := NewPlane("floor", vec.XYZ(0, 1, 0), 0)
	n = p.NormalAt(vec.XYZ(3, 0, 2))
	if math.Abs(n[1]-1) > 1e-6 {
		t.Errorf("plane normal = %v, want (0,1,0)", n)
	}
	if p.Normal != vec.XYZ(0, 1, 0) {
		t.Errorf("stored plane normal = %v, want (0,1,0)", p.Normal)
	}
}

type constField float64

func (c constField) Distance(vec.Vec3) float64 { return float64(c) }

func TestNormalFlatFieldIsZero(t *testing.T) {
	n := Normal(constField(2), vec.Vec3{})
	if n != (vec.Vec3{}) {
		t.Errorf("flat field normal = %v, want zero", n)
	}
}

func TestBounds(t *testing.T) {
	s := NewSphere("ball", vec.XYZ(1, 0, 0), 1)
	box, ok := s.Bounds()
	if !ok {
		t.Fatal("sphere should be bounded")
	}
	if box.Min != vec.XYZ(0, -1, -1) || box.Max != vec.XYZ(2, 1, 1) {
		t.Errorf("bounds = %v", box)
	}

	if _, ok := NewPlane("floor", vec.XYZ(0, 1, 0), 0).Bounds(); ok {
		t.Error("plane should be unbounded")
	}

	s.SMin(NewSphere("other", vec.XYZ(-3, 0, 0), 1), 0.4)
	box, _ = s.Bounds()
	if box.Min[0] > -4.1+1e-9 {
		t.Errorf("smin bounds should include operand and blend margin, got %v", box)
	}
}

func TestMarchHitsSphere(t *testing.T) {
	s := NewSphere("ball", vec.Vec3{}, 1)
	r := vec.NewRay(vec.XYZ(0, 0, 5), vec.XYZ(0, 0, -1))
	tHit, ok := March(s, r, DefaultMarchOptions())
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(tHit-4) > 0.01 {
		t.Errorf("t = %f, want ~4", tHit)
	}

	r = vec.NewRay(vec.XYZ(0, 3, 5), vec.XYZ(0, 0, -1))
	if _, ok := March(s, r, DefaultMarchOptions()); ok {
		t.Error("expected miss")
	}
}
