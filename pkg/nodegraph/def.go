package nodegraph

import (
	"fmt"
	"sort"

	"github.com/chazu/lumen/pkg/vec"
)

// OutputKind marks node types whose resolved inputs form a graph result.
type OutputKind int

const (
	NotOutput OutputKind = iota
	ColorOutput
	FieldOutput
	MaterialOutput
)

func (k OutputKind) String() string {
	switch k {
	case NotOutput:
		return "none"
	case ColorOutput:
		return "color"
	case FieldOutput:
		return "field"
	case MaterialOutput:
		return "material"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// Terminal is a named input or output slot on a node type.
type Terminal struct {
	Name string
	Role Role
}

// Context carries the per-sample values every node may read.
type Context struct {
	UV         vec.Vec2
	Resolution vec.Vec2
	Position   vec.Vec3
	MaterialID int
}

// EvalFunc computes a node's canonical output from its resolved inputs,
// given in the order the type declares them.
type EvalFunc func(c *Context, in []vec.Vec4) vec.Vec4

// Def is a node type.
type Def struct {
	Type    string
	Inputs  []Terminal
	Outputs []Terminal
	Output  OutputKind
	Eval    EvalFunc
}

// Input returns the index of the named input, or -1.
func (d *Def) Input(name string) int {
	for i, t := range d.Inputs {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// OutputTerminal returns the named output terminal.
func (d *Def) OutputTerminal(name string) (Terminal, bool) {
	for _, t := range d.Outputs {
		if t.Name == name {
			return t, true
		}
	}
	return Terminal{}, false
}

func (d *Def) validate() error {
	if d.Type == "" {
		return fmt.Errorf("nodegraph: node type without a name")
	}
	if d.Output == NotOutput && d.Eval == nil {
		return fmt.Errorf("nodegraph: node type %s has no evaluation function", d.Type)
	}
	// Inputs and outputs live in separate namespaces: assignments name
	// inputs, references name outputs.
	if err := d.validateTerminals("input", d.Inputs); err != nil {
		return err
	}
	return d.validateTerminals("output", d.Outputs)
}

func (d *Def) validateTerminals(side string, terms []Terminal) error {
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if t.Role.Width < 1 || t.Role.Width > 4 {
			return fmt.Errorf("nodegraph: %s.%s: width %d out of range", d.Type, t.Name, t.Role.Width)
		}
		if !validSwizzle(t.Role.Swizzle) {
			return fmt.Errorf("nodegraph: %s.%s: bad swizzle %q", d.Type, t.Name, t.Role.Swizzle)
		}
		if seen[t.Name] {
			return fmt.Errorf("nodegraph: %s: duplicate %s terminal %q", d.Type, side, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Defs is a registry of node types keyed by type name.
type Defs map[string]*Def

// Register adds d, rejecting malformed or duplicate types.
func (ds Defs) Register(d *Def) error {
	if err := d.validate(); err != nil {
		return err
	}
	if _, ok := ds[d.Type]; ok {
		return fmt.Errorf("nodegraph: node type %s already registered", d.Type)
	}
	ds[d.Type] = d
	return nil
}

// Types returns the registered type names in sorted order.
func (ds Defs) Types() []string {
	names := make([]string, 0, len(ds))
	for name := range ds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
