package graph

import (
	"sort"

	"github.com/fbkclanna/cargo-mono/internal/manifest"
)

// Edge is a dependency declared by one workspace package on another.
type Edge struct {
	// Dependent declares the requirement on Dependency.
	Dependent  string
	Dependency string
	Dep        manifest.Dependency
}

// Publishes reports whether the edge constrains publish order.
func (e Edge) Publishes() bool { return e.Dep.Kind.Publishes() }

// Graph is the dependency graph of one workspace. It is immutable once built.
type Graph struct {
	pkgs  []*manifest.Package
	index map[string]int
	edges []Edge
	out   [][]int // edge indices by dependent
	in    [][]int // edge indices by dependency
}

// Build assembles the graph from packages in discovery order. Requirements on
// packages outside the workspace are dropped. It fails with a *DuplicateError
// if two manifests share a name, and with a *CycleError if normal/build edges
// form a cycle.
func Build(pkgs []*manifest.Package) (*Graph, error) {
	g := &Graph{
		pkgs:  pkgs,
		index: make(map[string]int, len(pkgs)),
		out:   make([][]int, len(pkgs)),
		in:    make([][]int, len(pkgs)),
	}
	for i, p := range pkgs {
		if j, ok := g.index[p.Name]; ok {
			return nil, &DuplicateError{Name: p.Name, Locations: []string{pkgs[j].Location, p.Location}}
		}
		g.index[p.Name] = i
	}

	for i, p := range pkgs {
		for _, d := range p.Dependencies {
			j, ok := g.index[d.Name]
			if !ok {
				continue
			}
			g.edges = append(g.edges, Edge{Dependent: p.Name, Dependency: d.Name, Dep: d})
			e := len(g.edges) - 1
			g.out[i] = append(g.out[i], e)
			g.in[j] = append(g.in[j], e)
		}
	}
	for i := range pkgs {
		g.sortEdges(g.out[i], func(e Edge) string { return e.Dependency })
		g.sortEdges(g.in[i], func(e Edge) string { return e.Dependent })
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}
	return g, nil
}

// sortEdges orders edge indices by the discovery index of the far endpoint,
// keeping declaration order among edges to the same package.
func (g *Graph) sortEdges(edges []int, far func(Edge) string) {
	sort.SliceStable(edges, func(a, b int) bool {
		return g.index[far(g.edges[edges[a]])] < g.index[far(g.edges[edges[b]])]
	})
}

// Packages returns all packages in discovery order.
func (g *Graph) Packages() []*manifest.Package { return g.pkgs }

// Package returns the named package.
func (g *Graph) Package(name string) (*manifest.Package, error) {
	i, ok := g.index[name]
	if !ok {
		return nil, &UnknownError{Name: name}
	}
	return g.pkgs[i], nil
}

// Contains reports whether name is a workspace package.
func (g *Graph) Contains(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Edges returns every in-workspace edge of every kind.
func (g *Graph) Edges() []Edge { return g.edges }

// DependenciesOf returns the edges declared by name, of every kind, ordered
// by the dependency's discovery order.
func (g *Graph) DependenciesOf(name string) []Edge {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.collect(g.out[i])
}

// DependentsOf returns the edges pointing at name, of every kind, ordered by
// the dependent's discovery order.
func (g *Graph) DependentsOf(name string) []Edge {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.collect(g.in[i])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for k, e := range idx {
		out[k] = g.edges[e]
	}
	return out
}

// findCycle runs a three-color DFS over normal/build edges and returns one
// cycle, or nil.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.pkgs))
	parent := make([]int, len(g.pkgs))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, e := range g.out[u] {
			if !g.edges[e].Publishes() {
				continue
			}
			v := g.index[g.edges[e].Dependency]
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u up to v.
				for cur := u; cur != v && cur != -1; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.pkgs {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if cycle == nil {
		return nil
	}

	// cycle is [u, parent(u), ..., v]; reverse it to v -> ... -> u and close it.
	path := make([]string, 0, len(cycle)+1)
	for i := len(cycle) - 1; i >= 0; i-- {
		path = append(path, g.pkgs[cycle[i]].Name)
	}
	return append(path, path[0])
}
