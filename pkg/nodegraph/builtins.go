package nodegraph

import (
	"math"

	"github.com/chazu/lumen/pkg/sdf"
	"github.com/chazu/lumen/pkg/vec"
)

// far is the distance reported by unconnected field inputs.
const far = 1e9

func rgba(name string) Terminal { return Terminal{name, Vec4(0, 0, 0, 1)} }

func scalar(name string, f float64) Terminal { return Terminal{name, Vec1(f)} }

// Builtins returns a fresh registry holding the built-in node types.
func Builtins() Defs {
	ds := make(Defs)
	for _, d := range builtinDefs() {
		if err := ds.Register(d); err != nil {
			panic(err)
		}
	}
	return ds
}

func builtinDefs() []*Def {
	return []*Def{
		{
			Type: "UV",
			Outputs: []Terminal{
				{"uv", Vec2(0, 0)},
				{"u", Vec1(0)},
				{"v", Vec1(0).Swizzled("y")},
			},
			Eval: func(c *Context, _ []vec.Vec4) vec.Vec4 {
				return vec.XYZW(c.UV[0], c.UV[1], 0, 0)
			},
		},
		{
			Type: "Position",
			Outputs: []Terminal{
				{"position", Vec3(0, 0, 0)},
				{"x", Vec1(0)},
				{"y", Vec1(0).Swizzled("y")},
				{"z", Vec1(0).Swizzled("z")},
			},
			Eval: func(c *Context, _ []vec.Vec4) vec.Vec4 {
				return c.Position.Vec4(0)
			},
		},
		{
			Type:    "MaterialID",
			Outputs: []Terminal{{"id", Vec1(0)}},
			Eval: func(c *Context, _ []vec.Vec4) vec.Vec4 {
				return vec.XYZW(float64(c.MaterialID), 0, 0, 0)
			},
		},
		{
			Type:    "Constant",
			Inputs:  []Terminal{{"value", Vec4(0, 0, 0, 0)}},
			Outputs: []Terminal{{"value", Vec4(0, 0, 0, 0)}, {"x", Vec1(0)}},
			Eval:    passThrough,
		},
		{
			Type:    "Color",
			Inputs:  []Terminal{{"color", Vec4(1, 1, 1, 1)}},
			Outputs: []Terminal{rgba("color"), {"rgb", Vec3(0, 0, 0)}, {"alpha", Vec1(1).Swizzled("w")}},
			Eval:    passThrough,
		},
		{
			Type:    "Mix",
			Inputs:  []Terminal{rgba("a"), rgba("b"), scalar("t", 0.5)},
			Outputs: []Terminal{rgba("result")},
			Eval: func(_ *Context, in []vec.Vec4) vec.Vec4 {
				return in[0].Lerp(in[1], in[2][0])
			},
		},
		{
			Type:    "Add",
			Inputs:  []Terminal{{"a", Vec4(0, 0, 0, 0)}, {"b", Vec4(0, 0, 0, 0)}},
			Outputs: []Terminal{{"result", Vec4(0, 0, 0, 0)}},
			Eval: func(_ *Context, in []vec.Vec4) vec.Vec4 {
				return in[0].Add(in[1])
			},
		},
		{
			Type:    "Multiply",
			Inputs:  []Terminal{{"a", Vec4(1, 1, 1, 1)}, {"b", Vec4(1, 1, 1, 1)}},
			Outputs: []Terminal{{"result", Vec4(0, 0, 0, 0)}},
			Eval: func(_ *Context, in []vec.Vec4) vec.Vec4 {
				return in[0].MulV(in[1])
			},
		},
		{
			Type: "Gradient",
			Inputs: []Terminal{
				{"from", Vec4(0, 0, 0, 1)},
				{"to", Vec4(1, 1, 1, 1)},
				{"direction", Vec2(0, 1)},
			},
			Outputs: []Terminal{rgba("color")},
			Eval: func(c *Context, in []vec.Vec4) vec.Vec4 {
				dir := vec.XY(in[2][0], in[2][1])
				l := dir.Dot(dir)
				if l == 0 {
					return in[0]
				}
				t := vec.Clamp(c.UV.Dot(dir)/l, 0, 1)
				return in[0].Lerp(in[1], t)
			},
		},
		{
			Type: "Circle",
			Inputs: []Terminal{
				{"center", Vec2(0.5, 0.5)},
				scalar("radius", 0.25),
				{"color", Vec4(1, 1, 1, 1)},
				{"background", Vec4(0, 0, 0, 1)},
			},
			Outputs: []Terminal{rgba("color")},
			Eval: func(c *Context, in []vec.Vec4) vec.Vec4 {
				p := c.UV.Sub(vec.XY(in[0][0], in[0][1]))
				if c.Resolution[1] > 0 {
					p[0] *= c.Resolution[0] / c.Resolution[1]
				}
				if p.Len() <= in[1][0] {
					return in[2]
				}
				return in[3]
			},
		},
		{
			Type: "Checker",
			Inputs: []Terminal{
				scalar("scale", 8),
				{"a", Vec4(1, 1, 1, 1)},
				{"b", Vec4(0, 0, 0, 1)},
			},
			Outputs: []Terminal{rgba("color")},
			Eval: func(c *Context, in []vec.Vec4) vec.Vec4 {
				s := in[0][0]
				cell := int(math.Floor(c.UV[0]*s)) + int(math.Floor(c.UV[1]*s))
				if cell%2 == 0 {
					return in[1]
				}
				return in[2]
			},
		},
		{
			Type:    "Sphere",
			Inputs:  []Terminal{{"center", Vec3(0, 1, 0)}, scalar("radius", 1)},
			Outputs: []Terminal{{"distance", Vec1(far)}},
			Eval: func(c *Context, in []vec.Vec4) vec.Vec4 {
				return vec.XYZW(c.Position.Sub(in[0].Vec3()).Len()-in[1][0], 0, 0, 0)
			},
		},
		{
			Type: "Box",
			Inputs: []Terminal{
				{"center", Vec3(0, 0.5, 0)},
				{"size", Vec3(0.5, 0.5, 0.5)},
				scalar("rounding", 0),
			},
			Outputs: []Terminal{{"distance", Vec1(far)}},
			Eval: func(c *Context, in []vec.Vec4) vec.Vec4 {
				d := sdf.RoundedBox(c.Position.Sub(in[0].Vec3()), in[1].Vec3(), in[2][0])
				return vec.XYZW(d, 0, 0, 0)
			},
		},
		{
			Type:   "Union",
			Inputs: fieldPair(),
			Outputs: []Terminal{
				{"distance", Vec1(far)},
				{"material", Vec1(0).Swizzled("y")},
			},
			Eval: func(_ *Context, in []vec.Vec4) vec.Vec4 {
				if in[1][0] < in[0][0] {
					return vec.XYZW(in[1][0], in[3][0], 0, 0)
				}
				return vec.XYZW(in[0][0], in[2][0], 0, 0)
			},
		},
		{
			Type:   "SmoothUnion",
			Inputs: append(fieldPair(), scalar("k", 0.1)),
			Outputs: []Terminal{
				{"distance", Vec1(far)},
				{"material", Vec1(0).Swizzled("y")},
			},
			Eval: func(_ *Context, in []vec.Vec4) vec.Vec4 {
				a, b := in[0][0], in[1][0]
				m := in[2][0]
				if b < a {
					m = in[3][0]
				}
				return vec.XYZW(sdf.SmoothMin(a, b, in[4][0]), m, 0, 0)
			},
		},
		{
			Type:   "Output",
			Inputs: []Terminal{rgba("color")},
			Output: ColorOutput,
		},
		{
			Type:   "FieldOutput",
			Inputs: []Terminal{scalar("distance", far), scalar("material", 0)},
			Output: FieldOutput,
		},
		{
			Type: "MaterialOutput",
			Inputs: []Terminal{
				{"albedo", Vec3(0.5, 0.5, 0.5)},
				scalar("roughness", 0.5),
				scalar("metallic", 0),
				{"emission", Vec3(0, 0, 0)},
			},
			Output: MaterialOutput,
		},
	}
}

func fieldPair() []Terminal {
	return []Terminal{
		scalar("a", far),
		scalar("b", far),
		scalar("material_a", 0),
		scalar("material_b", 0),
	}
}

func passThrough(_ *Context, in []vec.Vec4) vec.Vec4 {
	return in[0]
}
