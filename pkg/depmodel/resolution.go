package depmodel

// Resolution is the resolved transitive dependency graph. Nodes keep the
// order the resolver produced them in; analysis results follow that order.
type Resolution struct {
	Nodes []Resolved `json:"dependencies" yaml:"dependencies"`

	index map[string]int
}

// NewResolution builds a Resolution over nodes. Later duplicates of the same
// organization:name are dropped.
func NewResolution(nodes []Resolved) *Resolution {
	res := &Resolution{
		Nodes: make([]Resolved, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}

	for _, n := range nodes {
		key := n.Module()
		if _, dup := res.index[key]; dup {
			continue
		}

		res.index[key] = len(res.Nodes)
		res.Nodes = append(res.Nodes, n)
	}

	return res
}

// Len returns the number of nodes.
func (r *Resolution) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Nodes)
}

// Find returns the node for organization:name.
func (r *Resolution) Find(key string) (Resolved, bool) {
	if r == nil {
		return Resolved{}, false
	}

	if r.index == nil {
		for _, n := range r.Nodes {
			if n.Module() == key {
				return n, true
			}
		}

		return Resolved{}, false
	}

	idx, ok := r.index[key]
	if !ok {
		return Resolved{}, false
	}

	return r.Nodes[idx], true
}

// Transitive returns every node reachable from key through DependsOn edges,
// in depth-first discovery order. The start node itself is not included.
// Edges pointing at keys outside the graph are ignored.
func (r *Resolution) Transitive(key string) []Resolved {
	visited := map[string]bool{key: true}
	result := make([]Resolved, 0)

	var traverse func(string)
	traverse = func(current string) {
		node, ok := r.Find(current)
		if !ok {
			return
		}

		for _, dep := range node.DependsOn {
			if visited[dep] {
				continue
			}

			visited[dep] = true

			child, found := r.Find(dep)
			if !found {
				continue
			}

			result = append(result, child)
			traverse(dep)
		}
	}

	traverse(key)

	return result
}

// Undeclared returns the nodes that no declared dependency identity-matches,
// preserving graph order.
func (r *Resolution) Undeclared(declared []Declared) []Resolved {
	if r == nil {
		return nil
	}

	out := make([]Resolved, 0, len(r.Nodes))

	for _, n := range r.Nodes {
		if !IsDeclared(declared, n) {
			out = append(out, n)
		}
	}

	return out
}
