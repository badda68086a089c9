package nodegraph

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/lumen/pkg/vec"
)

// Param is a node parameter: either a literal or a reference to another
// node's output.
type Param struct {
	Value vec.Vec4
	Width int
	Ref   *Ref
	Line  int
}

// IsRef reports whether p refers to another node.
func (p Param) IsRef() bool {
	return p.Ref != nil
}

// Ref points at an output terminal of another node in the graph.
type Ref struct {
	Node   int
	Output string

	name string
}

// ParsedNode is one `[name: Type]` block of a graph source.
type ParsedNode struct {
	Name     string
	Type     string
	Params   map[string]Param
	Line     int
	IsOutput bool
}

var (
	headerRe = regexp.MustCompile(`^\[\s*([A-Za-z_][A-Za-z0-9_]*)\s*:\s*([A-Za-z_][A-Za-z0-9_]*)\s*\]$`)
	assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	vectorRe = regexp.MustCompile(`^vec([234])\s*\((.*)\)$`)
	refRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)$`)
)

// Parse reads a graph source against the given node types. References may
// name nodes declared later in the file; they are resolved once the whole
// source has been read.
func Parse(src string, defs Defs) ([]ParsedNode, error) {
	var (
		nodes   []ParsedNode
		byName  = make(map[string]int)
		current = -1
		line    = 0
	)

	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		line++
		text := stripComment(sc.Text())
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "[") {
			m := headerRe.FindStringSubmatch(text)
			if m == nil {
				return nil, parseErrorf(line, "malformed node header %q", text)
			}
			name, typ := m[1], m[2]
			def, ok := defs[typ]
			if !ok {
				return nil, parseErrorf(line, "unknown node type %q", typ)
			}
			if prev, dup := byName[name]; dup {
				return nil, parseErrorf(line, "node %q already declared on line %d", name, nodes[prev].Line)
			}
			byName[name] = len(nodes)
			current = len(nodes)
			nodes = append(nodes, ParsedNode{
				Name:     name,
				Type:     typ,
				Params:   make(map[string]Param),
				Line:     line,
				IsOutput: def.Output != NotOutput,
			})
			continue
		}

		m := assignRe.FindStringSubmatch(text)
		if m == nil {
			return nil, parseErrorf(line, "unrecognized line %q", text)
		}
		if current < 0 {
			return nil, parseErrorf(line, "parameter %q outside of a node", m[1])
		}
		node := &nodes[current]
		key := m[1]
		if defs[node.Type].Input(key) < 0 {
			return nil, parseErrorf(line, "node type %s has no input %q", node.Type, key)
		}
		if _, dup := node.Params[key]; dup {
			return nil, parseErrorf(line, "parameter %q set twice on node %q", key, node.Name)
		}
		p, err := parseValue(strings.TrimSpace(m[2]), line)
		if err != nil {
			return nil, err
		}
		node.Params[key] = p
	}
	if err := sc.Err(); err != nil {
		return nil, parseErrorf(line, "%v", err)
	}

	if err := resolveRefs(nodes, byName, defs); err != nil {
		return nil, err
	}
	return nodes, nil
}

func resolveRefs(nodes []ParsedNode, byName map[string]int, defs Defs) error {
	for i := range nodes {
		for _, key := range paramsByLine(nodes[i]) {
			p := nodes[i].Params[key]
			if p.Ref == nil {
				continue
			}
			target, ok := byName[p.Ref.name]
			if !ok {
				return parseErrorf(p.Line, "reference to undeclared node %q", p.Ref.name)
			}
			if _, ok := defs[nodes[target].Type].OutputTerminal(p.Ref.Output); !ok {
				return parseErrorf(p.Line, "node %q (%s) has no output %q",
					p.Ref.name, nodes[target].Type, p.Ref.Output)
			}
			p.Ref.Node = target
			nodes[i].Params[key] = p
		}
	}
	return nil
}

func paramsByLine(n ParsedNode) []string {
	keys := make([]string, 0, len(n.Params))
	for k := range n.Params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return n.Params[keys[a]].Line < n.Params[keys[b]].Line
	})
	return keys
}

func parseValue(s string, line int) (Param, error) {
	if m := vectorRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		parts := strings.Split(m[2], ",")
		if len(parts) != n {
			return Param{}, parseErrorf(line, "vec%d literal needs %d components, got %d", n, n, len(parts))
		}
		var v vec.Vec4
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return Param{}, parseErrorf(line, "bad vector component %q", strings.TrimSpace(part))
			}
			v[i] = f
		}
		return Param{Value: v, Width: n, Line: line}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Param{Value: vec.XYZW(f, 0, 0, 0), Width: 1, Line: line}, nil
	}
	if m := refRe.FindStringSubmatch(s); m != nil {
		return Param{Ref: &Ref{name: m[1], Output: m[2], Node: -1}, Line: line}, nil
	}
	return Param{}, parseErrorf(line, "unrecognized value %q", s)
}

func stripComment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
