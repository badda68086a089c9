package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/scene"
	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites a scene script before it reaches zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords never
//     need to be bound as globals.
//  2. Hyphens between identifier characters become underscores
//     (analytic-sphere -> analytic_sphere). zygomys reads a bare hyphen as
//     the subtraction operator.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	b := []byte(source)
	out := make([]byte, 0, len(b)+len(b)/4)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"' || c == '`':
			n := quotedLen(b[i:])
			out = append(out, b[i:i+n]...)
			i += n
		case c == ';':
			for i < len(b) && b[i] == ';' {
				i++
			}
			out = append(out, '/', '/')
			for i < len(b) && b[i] != '\n' {
				out = append(out, b[i])
				i++
			}
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out = append(out, ':', '=')
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out = append(out, '"')
			out = append(out, kwPrefix...)
			out = append(out, b[i+1:j]...)
			out = append(out, '"')
			i = j
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out = append(out, '_')
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return string(out)
}

// quotedLen returns the length of the string literal at the start of b,
// including both quotes. Backslash escapes only apply to double quotes.
func quotedLen(b []byte) int {
	q := b[0]
	i := 1
	for i < len(b) && b[i] != q {
		if q == '"' && b[i] == '\\' && i+1 < len(b) {
			i++
		}
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Sexp wrappers for scene values passed between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec vec.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpMaterial struct {
	mat material.Material
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	a := m.mat.Albedo
	return fmt.Sprintf("(material %q :albedo (vec3 %g %g %g))", m.mat.Name, a[0], a[1], a[2])
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpSDF references an SDF already registered with the builder.
type sexpSDF struct {
	obj *sdf.SDF
}

func (s *sexpSDF) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(sdf %q)", s.obj.ID)
}
func (s *sexpSDF) Type() *zygo.RegisteredType { return nil }

type sexpAnalytic struct {
	obj *sdf.Analytic
}

func (s *sexpAnalytic) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(analytic %q)", s.obj.ID)
}
func (s *sexpAnalytic) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW returns the keyword name of a preprocessed keyword string.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments. A keyword
// at the end of the list maps to SexpNull.
func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	result := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// float stores keyword key into dst when present.
func (a kwArgs) float(key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, key, err)
	}
	*dst = f
	return nil
}

func (a kwArgs) vec3(key string, dst *vec.Vec3) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	out, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, key, err)
	}
	*dst = out
	return nil
}

func (a kwArgs) str(key string, dst *string) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, key, err)
	}
	*dst = s
	return nil
}

func (a kwArgs) material(dst *material.Material) error {
	v, ok := a.kw["material"]
	if !ok {
		return nil
	}
	m, err := toMaterial(v)
	if err != nil {
		return fmt.Errorf("%s: material: %w", a.fn, err)
	}
	*dst = m
	return nil
}

// first returns the first error in errs.
func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (vec.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return vec.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toMaterial(s zygo.Sexp) (material.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.mat, nil
	}
	return material.Material{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

func toSDF(s zygo.Sexp) (*sdf.SDF, error) {
	if ref, ok := s.(*sexpSDF); ok {
		return ref.obj, nil
	}
	return nil, fmt.Errorf("expected sdf, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into a zygomys environment.
// Every primitive is registered with b as soon as it is created; operands of
// subtract and smin drop off the render list when b builds the scene.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *scene.Builder) {

	addSDF := func(pa kwArgs, obj *sdf.SDF) (zygo.Sexp, error) {
		err := first(
			pa.str("id", &obj.ID),
			pa.float("rounding", &obj.Rounding),
			pa.material(&obj.Material),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.AddSDF(obj); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", pa.fn, err)
		}
		return &sexpSDF{obj: obj}, nil
	}

	addAnalytic := func(pa kwArgs, obj *sdf.Analytic) (zygo.Sexp, error) {
		err := first(
			pa.str("id", &obj.ID),
			pa.material(&obj.Material),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := b.AddAnalytic(obj); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", pa.fn, err)
		}
		return &sexpAnalytic{obj: obj}, nil
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v vec.Vec3
		for i, arg := range args {
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (material :name "gold" :albedo (vec3 1 0.8 0.3) :roughness 0.2
	//           :metallic 1 :emission (vec3 0 0 0) :ior 1.5 :alpha 1
	//           :anisotropic 0)
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		m := material.Default()
		m.Name = ""
		err := first(
			pa.str("name", &m.Name),
			pa.vec3("albedo", &m.Albedo),
			pa.float("roughness", &m.Roughness),
			pa.float("metallic", &m.Metallic),
			pa.float("anisotropic", &m.Anisotropic),
			pa.float("ior", &m.IOR),
			pa.vec3("emission", &m.Emission),
			pa.float("alpha", &m.Alpha),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpMaterial{mat: m}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :id "ball" :at (vec3 0 1 0) :radius 1 :material m)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		obj := sdf.NewSphere("", vec.Vec3{}, 1)
		if err := first(pa.vec3("at", &obj.Position), pa.float("radius", &obj.Radius)); err != nil {
			return zygo.SexpNull, err
		}
		return addSDF(pa, obj)
	})

	// -----------------------------------------------------------------------
	// (plane :normal (vec3 0 1 0) :offset 0)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		normal := vec.XYZ(0, 1, 0)
		var offset float64
		if err := first(pa.vec3("normal", &normal), pa.float("offset", &offset)); err != nil {
			return zygo.SexpNull, err
		}
		return addSDF(pa, sdf.NewPlane("", normal, offset))
	})

	// -----------------------------------------------------------------------
	// (box :at (vec3 0 0 0) :size (vec3 1 1 1) :rounding 0.1)
	// :size holds half extents.
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		obj := sdf.NewBox("", vec.Vec3{}, vec.XYZ(0.5, 0.5, 0.5), 0)
		if err := first(pa.vec3("at", &obj.Position), pa.vec3("size", &obj.Size)); err != nil {
			return zygo.SexpNull, err
		}
		return addSDF(pa, obj)
	})

	// -----------------------------------------------------------------------
	// (cone :at (vec3 0 0 0) :height 1 :r1 0.5 :r2 0.1)
	// :height is the half height; r1 is the bottom radius.
	// -----------------------------------------------------------------------
	env.AddFunction("cone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		var (
			at        vec.Vec3
			h, r1, r2 = 0.5, 0.5, 0.0
		)
		err := first(
			pa.vec3("at", &at),
			pa.float("height", &h),
			pa.float("r1", &r1),
			pa.float("r2", &r2),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		return addSDF(pa, sdf.NewCappedCone("", at, h, r1, r2, 0))
	})

	// -----------------------------------------------------------------------
	// (subtract a b) carves b out of a and returns a.
	// -----------------------------------------------------------------------
	env.AddFunction("subtract", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, other, err := operandPair(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		a.Subtract(other)
		return &sexpSDF{obj: a}, nil
	})

	// -----------------------------------------------------------------------
	// (smin a b :k 0.25) blends b into a and returns a.
	// -----------------------------------------------------------------------
	env.AddFunction("smin", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		a, other, err := operandPair(name, pa.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		k := 0.1
		if err := pa.float("k", &k); err != nil {
			return zygo.SexpNull, err
		}
		a.SMin(other, k)
		return &sexpSDF{obj: a}, nil
	})

	// -----------------------------------------------------------------------
	// (ref "ball") looks up an SDF registered earlier.
	// -----------------------------------------------------------------------
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires an id argument")
		}
		id, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: id: %w", err)
		}
		obj := b.Lookup(id)
		if obj == nil {
			return zygo.SexpNull, fmt.Errorf("ref: no sdf named %q", id)
		}
		return &sexpSDF{obj: obj}, nil
	})

	// -----------------------------------------------------------------------
	// (analytic-sphere :at (vec3 0 1 0) :radius 1 :material m)
	// -----------------------------------------------------------------------
	env.AddFunction("analytic_sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("analytic-sphere", args)
		obj := sdf.NewAnalyticSphere("", vec.Vec3{}, 1)
		if err := first(pa.vec3("at", &obj.Position), pa.float("radius", &obj.Radius)); err != nil {
			return zygo.SexpNull, err
		}
		return addAnalytic(pa, obj)
	})

	// -----------------------------------------------------------------------
	// (analytic-plane :normal (vec3 0 1 0) :offset 0 :material m)
	// -----------------------------------------------------------------------
	env.AddFunction("analytic_plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("analytic-plane", args)
		normal := vec.XYZ(0, 1, 0)
		var offset float64
		if err := first(pa.vec3("normal", &normal), pa.float("offset", &offset)); err != nil {
			return zygo.SexpNull, err
		}
		return addAnalytic(pa, sdf.NewAnalyticPlane("", normal, offset))
	})

	// -----------------------------------------------------------------------
	// (light :at (vec3 2 4 2) :intensity 1 :color (vec3 1 1 1) :radius 0.2)
	// -----------------------------------------------------------------------
	env.AddFunction("light", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		l := scene.NewLight("", vec.XYZ(0, 5, 0), 1)
		err := first(
			pa.str("id", &l.ID),
			pa.vec3("at", &l.Position),
			pa.float("intensity", &l.Intensity),
			pa.vec3("color", &l.Color),
			pa.float("radius", &l.Radius),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.AddLight(l)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (camera :at (vec3 0 1 4) :look-at (vec3 0 0 0) :fov 60 :up (vec3 0 1 0))
	// -----------------------------------------------------------------------
	env.AddFunction("camera", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		c := scene.DefaultCamera()
		err := first(
			pa.vec3("at", &c.Position),
			pa.vec3("look-at", &c.LookAt),
			pa.vec3("up", &c.Up),
			pa.float("fov", &c.FOV),
		)
		if err != nil {
			return zygo.SexpNull, err
		}
		b.SetCamera(c)
		return zygo.SexpNull, nil
	})
}

func operandPair(fn string, args []zygo.Sexp) (*sdf.SDF, *sdf.SDF, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s requires exactly 2 sdf arguments, got %d", fn, len(args))
	}
	a, err := toSDF(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: first operand: %w", fn, err)
	}
	other, err := toSDF(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: second operand: %w", fn, err)
	}
	if a == other {
		return nil, nil, fmt.Errorf("%s: an sdf cannot be its own operand", fn)
	}
	return a, other, nil
}
