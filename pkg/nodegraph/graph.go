// Package nodegraph compiles and evaluates small dataflow graphs of shading
// nodes. A graph is written in a line-oriented text format:
//
//	// a red disc on a checkerboard
//	[bg: Checker]
//	scale = 8
//
//	[disc: Circle]
//	radius = 0.3
//	color = vec4(1, 0, 0, 1)
//	background = bg.color
//
//	[out: Output]
//	color = disc.color
//
// Nodes are topologically sorted at compile time and evaluated in that order
// for every sample. A graph may carry one output node of each kind: a color
// output for image graphs, a field output so the graph can be voxelized, and
// a material output consulted by material id.
package nodegraph

import (
	"fmt"
	"math"
	"os"

	"github.com/chazu/lumen/pkg/material"
	"github.com/chazu/lumen/pkg/vec"
)

// Graph is a compiled node graph. It is read-only after Compile and safe for
// concurrent evaluation.
type Graph struct {
	Nodes []ParsedNode
	Order []int

	defs    []*Def
	outputs map[OutputKind]int
	plans   map[OutputKind][]int
}

// Compile parses src, orders its nodes and selects its outputs.
func Compile(src string, defs Defs) (*Graph, error) {
	nodes, err := Parse(src, defs)
	if err != nil {
		return nil, err
	}
	order, err := Sort(nodes)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Nodes:   nodes,
		Order:   order,
		defs:    make([]*Def, len(nodes)),
		outputs: make(map[OutputKind]int),
		plans:   make(map[OutputKind][]int),
	}
	for i, n := range nodes {
		g.defs[i] = defs[n.Type]
		if !n.IsOutput {
			continue
		}
		kind := g.defs[i].Output
		if prev, ok := g.outputs[kind]; ok {
			return nil, fmt.Errorf("%w: %s outputs %q (line %d) and %q (line %d)",
				ErrAmbiguousOutput, kind, nodes[prev].Name, nodes[prev].Line, n.Name, n.Line)
		}
		g.outputs[kind] = i
	}
	if len(g.outputs) == 0 {
		return nil, ErrNoOutput
	}
	for kind, out := range g.outputs {
		g.plans[kind] = g.plan(out)
	}
	logger.Debugf("compiled graph: %d nodes, %d outputs", len(nodes), len(g.outputs))
	return g, nil
}

// CompileFile reads and compiles a graph source file.
func CompileFile(path string, defs Defs) (*Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %q: %w", path, err)
	}
	return Compile(string(src), defs)
}

// plan returns, in sorted order, the nodes that out depends on, ending with
// out itself.
func (g *Graph) plan(out int) []int {
	need := make([]bool, len(g.Nodes))
	var mark func(i int)
	mark = func(i int) {
		if need[i] {
			return
		}
		need[i] = true
		for _, p := range g.Nodes[i].Params {
			if p.Ref != nil {
				mark(p.Ref.Node)
			}
		}
	}
	mark(out)

	var steps []int
	for _, i := range g.Order {
		if need[i] {
			steps = append(steps, i)
		}
	}
	return steps
}

// HasOutput reports whether the graph has an output node of the given kind.
func (g *Graph) HasOutput(kind OutputKind) bool {
	_, ok := g.outputs[kind]
	return ok
}

// OutputNode returns the output node of the given kind.
func (g *Graph) OutputNode(kind OutputKind) (ParsedNode, bool) {
	i, ok := g.outputs[kind]
	if !ok {
		return ParsedNode{}, false
	}
	return g.Nodes[i], true
}

// run evaluates the plan for kind and returns the output node's resolved
// inputs.
func (g *Graph) run(kind OutputKind, c *Context) ([]vec.Vec4, bool) {
	steps, ok := g.plans[kind]
	if !ok {
		return nil, false
	}
	values := make([]vec.Vec4, len(g.Nodes))
	var args []vec.Vec4
	for _, i := range steps {
		args = g.resolve(i, values)
		if def := g.defs[i]; def.Eval != nil {
			values[i] = def.Eval(c, args)
		}
	}
	return args, true
}

// resolve gathers the inputs of node i: a literal, else the referenced
// output retyped to the input's role, else the input's default.
func (g *Graph) resolve(i int, values []vec.Vec4) []vec.Vec4 {
	def := g.defs[i]
	params := g.Nodes[i].Params
	args := make([]vec.Vec4, len(def.Inputs))
	for j, in := range def.Inputs {
		p, ok := params[in.Name]
		switch {
		case !ok:
			args[j] = in.Role.Default
		case p.Ref != nil:
			out, _ := g.defs[p.Ref.Node].OutputTerminal(p.Ref.Output)
			v := out.Role.Extract(values[p.Ref.Node])
			args[j] = in.Role.Retype(v, out.Role.Len())
		default:
			args[j] = in.Role.Retype(p.Value, p.Width)
		}
	}
	return args
}

// Execute evaluates the color output for the sample at pixel coordinates
// (x, y) of an image of the given size. Graphs without a color output yield
// transparent black.
func (g *Graph) Execute(x, y float64, size vec.Vec2) vec.Vec4 {
	c := &Context{Resolution: size}
	if size[0] > 0 && size[1] > 0 {
		c.UV = vec.XY(x/size[0], y/size[1])
	}
	args, ok := g.run(ColorOutput, c)
	if !ok {
		return vec.Vec4{}
	}
	return args[0]
}

// Field evaluates the field output at world position p and returns the
// distance and material id. Graphs without a field output are empty space.
func (g *Graph) Field(p vec.Vec3) (float64, int) {
	args, ok := g.run(FieldOutput, &Context{Position: p})
	if !ok {
		return math.Inf(1), 0
	}
	return args[0][0], int(math.Round(args[1][0]))
}

// DistanceMaterial implements voxel.Source.
func (g *Graph) DistanceMaterial(p vec.Vec3) (float64, int) {
	return g.Field(p)
}

// Distance implements sdf.Field.
func (g *Graph) Distance(p vec.Vec3) float64 {
	d, _ := g.Field(p)
	return d
}

// Material evaluates the material output for material id. Graphs without a
// material output return the default material.
func (g *Graph) Material(id int) material.Material {
	m := material.Default()
	args, ok := g.run(MaterialOutput, &Context{MaterialID: id})
	if ok {
		m.Albedo = args[0].Vec3()
		m.Roughness = args[1][0]
		m.Metallic = args[2][0]
		m.Emission = args[3].Vec3()
	}
	m.Finalize()
	return m
}
