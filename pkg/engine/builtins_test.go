package engine

import (
	"math"
	"strings"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 1)`,
			expect: `(sphere "__kw_radius" 1)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cone :r1 1 :r2 0.5)`,
			expect: `(cone "__kw_r1" 1 "__kw_r2" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw analytic-sphere`",
			expect: "`raw :kw analytic-sphere`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(analytic-sphere :look-at v)`,
			expect: `(analytic_sphere "__kw_look-at" v)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 0 -1 0)`,
			expect: `(vec3 0 -1 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(box)",
			expect: "// simple comment\n(box)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitive tests
// ---------------------------------------------------------------------------

func TestSphereWithMaterial(t *testing.T) {
	eng := NewEngine()

	source := `
(def gold (material :name "gold" :albedo (vec3 1 0.8 0.2) :metallic 1 :roughness 0.3))
(sphere :id "ball" :at (vec3 0 1 0) :radius 0.5 :material gold)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(sc.SDFs) != 1 {
		t.Fatalf("expected 1 sdf, got %d", len(sc.SDFs))
	}

	ball := sc.Lookup("ball")
	if ball == nil {
		t.Fatal("expected sdf named 'ball'")
	}
	if ball.Kind != sdf.Sphere {
		t.Errorf("expected sphere, got %s", ball.Kind)
	}
	if ball.Position != vec.XYZ(0, 1, 0) {
		t.Errorf("expected position (0,1,0), got %v", ball.Position)
	}
	if ball.Radius != 0.5 {
		t.Errorf("expected radius 0.5, got %f", ball.Radius)
	}

	m := sc.Material(sc.MaterialID(ball))
	if m.Name != "gold" {
		t.Errorf("expected material gold, got %q", m.Name)
	}
	if m.Albedo != vec.XYZ(1, 0.8, 0.2) {
		t.Errorf("expected albedo (1,0.8,0.2), got %v", m.Albedo)
	}
	if m.Metallic != 1 {
		t.Errorf("expected metallic 1, got %f", m.Metallic)
	}
	if !m.Finalized() {
		t.Error("expected material to be finalized by the builder")
	}
}

func TestPrimitiveDefaults(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate(`(sphere) (box) (cone) (plane)`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if len(sc.SDFs) != 4 {
		t.Fatalf("expected 4 sdfs, got %d", len(sc.SDFs))
	}

	want := []sdf.Kind{sdf.Sphere, sdf.Box, sdf.CappedCone, sdf.Plane}
	for i, k := range want {
		if sc.SDFs[i].Kind != k {
			t.Errorf("sdf %d: kind = %s, want %s", i, sc.SDFs[i].Kind, k)
		}
		if sc.SDFs[i].ID == "" {
			t.Errorf("sdf %d: expected an assigned id", i)
		}
	}

	// Default plane is y = 0 facing up.
	if d := sc.SDFs[3].Distance(vec.XYZ(0, 2, 0)); math.Abs(d-2) > 1e-9 {
		t.Errorf("plane distance = %f, want 2", d)
	}
}

func TestBoxAndCone(t *testing.T) {
	eng := NewEngine()

	source := `
(box :id "crate" :at (vec3 1 0 0) :size (vec3 0.5 1 0.5) :rounding 0.1)
(cone :id "hat" :at (vec3 0 2 0) :height 0.75 :r1 0.5 :r2 0.25)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	crate := sc.Lookup("crate")
	if crate == nil {
		t.Fatal("expected sdf named 'crate'")
	}
	if crate.Size != vec.XYZ(0.5, 1, 0.5) || crate.Rounding != 0.1 {
		t.Errorf("unexpected box: size=%v rounding=%f", crate.Size, crate.Rounding)
	}

	hat := sc.Lookup("hat")
	if hat == nil {
		t.Fatal("expected sdf named 'hat'")
	}
	if hat.Offset != 0.75 || hat.Normal[0] != 0.5 || hat.Normal[1] != 0.25 {
		t.Errorf("unexpected cone: h=%f r=%v", hat.Offset, hat.Normal)
	}
}

// ---------------------------------------------------------------------------
// Boolean operation tests
// ---------------------------------------------------------------------------

func TestSubtractRemovesOperand(t *testing.T) {
	eng := NewEngine()

	source := `
(def body (box :id "body" :size (vec3 1 1 1)))
(def hole (sphere :id "hole" :radius 1.2))
(subtract body hole)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	if len(sc.SDFs) != 1 || sc.SDFs[0].ID != "body" {
		t.Fatalf("expected only 'body' on the render list, got %v", sc.SDFs)
	}
	if sc.Lookup("hole") == nil {
		t.Error("operand should still be addressable by id")
	}
	body := sc.SDFs[0]
	if len(body.Ops) != 1 || body.Ops[0].Kind != sdf.OpSubtract {
		t.Fatalf("expected one subtract op, got %v", body.Ops)
	}
	// The sphere carves the center out of the box.
	if d := sc.Distance(vec.Vec3{}); d <= 0 {
		t.Errorf("distance at center = %f, want > 0 after subtraction", d)
	}
}

func TestSmoothMinWithRef(t *testing.T) {
	eng := NewEngine()

	source := `
(sphere :id "a" :at (vec3 -0.5 0 0) :radius 0.5)
(sphere :id "b" :at (vec3 0.5 0 0) :radius 0.5)
(smin (ref "a") (ref "b") :k 0.3)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	if len(sc.SDFs) != 1 || sc.SDFs[0].ID != "a" {
		t.Fatalf("expected only 'a' on the render list, got %v", sc.SDFs)
	}
	op := sc.SDFs[0].Ops[0]
	if op.Kind != sdf.OpSMin || op.K != 0.3 || op.Other.ID != "b" {
		t.Errorf("unexpected op %+v", op)
	}
	// The blend fills the seam between the two spheres.
	if d := sc.Distance(vec.Vec3{}); d >= 0 {
		t.Errorf("distance at seam = %f, want < 0", d)
	}
}

// ---------------------------------------------------------------------------
// Analytic objects, lights and camera
// ---------------------------------------------------------------------------

func TestAnalyticLightCamera(t *testing.T) {
	eng := NewEngine()

	source := `
(analytic-sphere :id "moon" :at (vec3 0 3 0) :radius 0.25)
(analytic-plane :normal (vec3 0 1 0) :offset 1)
(light :at (vec3 2 4 2) :intensity 2 :color (vec3 1 0.5 0.5) :radius 0.1)
(light :at (vec3 -2 4 2))
(camera :at (vec3 0 1 5) :look-at (vec3 0 1 0) :fov 45)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	if len(sc.Analytics) != 2 {
		t.Fatalf("expected 2 analytic objects, got %d", len(sc.Analytics))
	}
	moon := sc.Analytics[0]
	if moon.ID != "moon" || moon.Kind != sdf.Sphere || moon.Radius != 0.25 {
		t.Errorf("unexpected analytic sphere %+v", moon)
	}
	if sc.Analytics[1].Kind != sdf.Plane || sc.Analytics[1].Offset != 1 {
		t.Errorf("unexpected analytic plane %+v", sc.Analytics[1])
	}

	if len(sc.Lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(sc.Lights))
	}
	l := sc.Lights[0]
	if l.Intensity != 2 || l.Radius != 0.1 || l.Color != vec.XYZ(1, 0.5, 0.5) {
		t.Errorf("unexpected light %+v", l)
	}
	if sc.Lights[1].ID == l.ID {
		t.Errorf("lights share id %q", l.ID)
	}

	if sc.Camera.FOV != 45 || sc.Camera.Position != vec.XYZ(0, 1, 5) {
		t.Errorf("unexpected camera %v", sc.Camera)
	}
	if sc.Camera.LookAt != vec.XYZ(0, 1, 0) {
		t.Errorf("look-at = %v, want (0,1,0)", sc.Camera.LookAt)
	}
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"vec3 type", `(vec3 1 2 "z")`, "expected number"},
		{"sphere radius type", `(sphere :radius "big")`, "radius"},
		{"material type", `(sphere :material 3)`, "expected material"},
		{"duplicate id", `(sphere :id "a") (box :id "a")`, "duplicate"},
		{"subtract arity", `(subtract (sphere))`, "exactly 2"},
		{"subtract operand type", `(subtract (sphere) 4)`, "expected sdf"},
		{"self operand", `(def s (sphere)) (subtract s s)`, "own operand"},
		{"unknown ref", `(ref "missing")`, "missing"},
		{"invalid camera", `(camera :fov 0)`, "invalid camera"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewEngine()
			sc, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if sc != nil {
				t.Fatal("expected nil scene")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	args := parseArgs("f", []zygo.Sexp{
		&zygo.SexpStr{S: kwPrefix + "radius"}, &zygo.SexpInt{Val: 2},
		&zygo.SexpInt{Val: 7},
		&zygo.SexpStr{S: kwPrefix + "flag"},
	})
	if len(args.positional) != 1 {
		t.Fatalf("expected 1 positional, got %d", len(args.positional))
	}
	var r float64
	if err := args.float("radius", &r); err != nil || r != 2 {
		t.Errorf("radius = %f, %v", r, err)
	}
	if _, ok := args.kw["flag"]; !ok {
		t.Error("trailing keyword should be recorded")
	}
	var s string
	if err := args.str("radius", &s); err == nil {
		t.Error("expected type error reading a number as string")
	}
}
