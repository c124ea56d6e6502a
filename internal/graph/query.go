package graph

import "sort"

// Dependent is a package in the dependent closure of some root.
type Dependent struct {
	Name string
	// Distance is the shortest number of edges from the root; 1 is a direct
	// dependent.
	Distance int
}

// Dependents returns every package that depends on root, directly or
// transitively, through normal/build edges. Results are in breadth-first
// order: by distance, then discovery order. The root itself is not included.
func (g *Graph) Dependents(root string) ([]Dependent, error) {
	start, ok := g.index[root]
	if !ok {
		return nil, &UnknownError{Name: root}
	}

	dist := map[int]int{start: 0}
	queue := []int{start}
	var out []Dependent

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var next []int
		for _, e := range g.in[cur] {
			edge := g.edges[e]
			if !edge.Publishes() {
				continue
			}
			v := g.index[edge.Dependent]
			if _, seen := dist[v]; seen {
				continue
			}
			dist[v] = dist[cur] + 1
			next = append(next, v)
		}
		for _, v := range next {
			out = append(out, Dependent{Name: g.pkgs[v].Name, Distance: dist[v]})
			queue = append(queue, v)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return g.index[out[a].Name] < g.index[out[b].Name]
	})
	return out, nil
}

// Dependencies returns the names of every package name depends on, directly
// or transitively, through normal/build edges, in discovery order.
func (g *Graph) Dependencies(name string) ([]string, error) {
	start, ok := g.index[name]
	if !ok {
		return nil, &UnknownError{Name: name}
	}
	reach := g.closure([]int{start})
	delete(reach, start)
	return g.names(reach), nil
}

// Sort returns names ordered so that every package comes after the packages
// it depends on through normal/build edges. Ties keep discovery order.
// Unknown names fail with *UnknownError.
func (g *Graph) Sort(names []string) ([]string, error) {
	set := make(map[int]bool, len(names))
	for _, n := range names {
		i, ok := g.index[n]
		if !ok {
			return nil, &UnknownError{Name: n}
		}
		set[i] = true
	}
	order, err := g.topo(set)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(order))
	for k, i := range order {
		out[k] = g.pkgs[i].Name
	}
	return out, nil
}

// PublishOrder returns the packages to publish, dependencies first. With no
// targets every package is considered; otherwise the targets and everything
// they transitively depend on. Unpublishable packages are always left out,
// and with allowOnlyDeps so are the targets themselves.
func (g *Graph) PublishOrder(targets []string, allowOnlyDeps bool) ([]string, error) {
	var set map[int]bool
	explicit := make(map[int]bool, len(targets))
	if len(targets) == 0 {
		set = make(map[int]bool, len(g.pkgs))
		for i := range g.pkgs {
			set[i] = true
		}
	} else {
		roots := make([]int, 0, len(targets))
		for _, t := range targets {
			i, ok := g.index[t]
			if !ok {
				return nil, &UnknownError{Name: t}
			}
			explicit[i] = true
			roots = append(roots, i)
		}
		set = g.closure(roots)
	}

	order, err := g.topo(set)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(order))
	for _, i := range order {
		if !g.pkgs[i].Publishable {
			continue
		}
		if allowOnlyDeps && explicit[i] {
			continue
		}
		out = append(out, g.pkgs[i].Name)
	}
	return out, nil
}

// closure returns roots plus every package they reach over normal/build edges.
func (g *Graph) closure(roots []int) map[int]bool {
	seen := make(map[int]bool)
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[u] {
			continue
		}
		seen[u] = true
		for _, e := range g.out[u] {
			if g.edges[e].Publishes() {
				stack = append(stack, g.index[g.edges[e].Dependency])
			}
		}
	}
	return seen
}

func (g *Graph) names(set map[int]bool) []string {
	idx := make([]int, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.pkgs[i].Name
	}
	return out
}

// topo is a depth-first post-order over the packages in set, dependencies
// first, starting nodes and edges taken in discovery order. Edges leaving set
// are ignored.
func (g *Graph) topo(set map[int]bool) ([]int, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(g.pkgs))
	order := make([]int, 0, len(set))
	var stack []int

	var visit func(u int) error
	visit = func(u int) error {
		state[u] = visiting
		stack = append(stack, u)
		for _, e := range g.out[u] {
			if !g.edges[e].Publishes() {
				continue
			}
			v := g.index[g.edges[e].Dependency]
			if !set[v] {
				continue
			}
			switch state[v] {
			case unvisited:
				if err := visit(v); err != nil {
					return err
				}
			case visiting:
				return &CycleError{Path: g.cyclePath(stack, v)}
			}
		}
		stack = stack[:len(stack)-1]
		state[u] = done
		order = append(order, u)
		return nil
	}

	for i := range g.pkgs {
		if !set[i] || state[i] != unvisited {
			continue
		}
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath extracts the cycle closing at v from the DFS stack.
func (g *Graph) cyclePath(stack []int, v int) []string {
	var path []string
	for k := len(stack) - 1; k >= 0; k-- {
		if stack[k] == v {
			for _, i := range stack[k:] {
				path = append(path, g.pkgs[i].Name)
			}
			break
		}
	}
	return append(path, g.pkgs[v].Name)
}
