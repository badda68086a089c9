package nodegraph

import (
	"fmt"
	"sort"
	"strings"
)

// Sort orders nodes so that every referenced node precedes the nodes that
// reference it (Kahn's algorithm). Ties keep declaration order.
func Sort(nodes []ParsedNode) ([]int, error) {
	indegree := make([]int, len(nodes))
	edges := make([][]int, len(nodes))
	for i, n := range nodes {
		for _, key := range paramKeys(n) {
			p := n.Params[key]
			if p.Ref == nil {
				continue
			}
			edges[p.Ref.Node] = append(edges[p.Ref.Node], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, len(nodes))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, j := range edges[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, cycleError(nodes, indegree)
	}
	return order, nil
}

// cycleError reports one dependency cycle among the nodes Kahn's algorithm
// could not place. Every unplaced node has an unplaced dependency, so
// walking dependencies from any of them must revisit a node.
func cycleError(nodes []ParsedNode, indegree []int) error {
	start := -1
	for i, d := range indegree {
		if d > 0 {
			start = i
			break
		}
	}
	pos := make(map[int]int)
	var path []int
	for i := start; i >= 0; {
		if at, ok := pos[i]; ok {
			path = path[at:]
			break
		}
		pos[i] = len(path)
		path = append(path, i)
		next := -1
		for _, key := range paramKeys(nodes[i]) {
			if ref := nodes[i].Params[key].Ref; ref != nil && indegree[ref.Node] > 0 {
				next = ref.Node
				break
			}
		}
		i = next
	}

	sort.Ints(path)
	names := make([]string, len(path))
	for k, i := range path {
		names[k] = nodes[i].Name
	}
	return &ParseError{
		Line: nodes[path[0]].Line,
		Msg:  fmt.Sprintf("dependency cycle: %s", strings.Join(names, ", ")),
		Err:  ErrCycle,
	}
}

func paramKeys(n ParsedNode) []string {
	keys := make([]string, 0, len(n.Params))
	for k := range n.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
