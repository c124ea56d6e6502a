// Package rewrite turns a bump plan into manifest mutations: new package
// versions and requirement strings retargeted at the new versions of their
// dependencies. It performs no I/O.
package rewrite

import (
	"fmt"

	"github.com/fbkclanna/cargo-mono/internal/bump"
	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/semver"
)

// Plan returns the mutations that apply plan to the manifests of g, in plan
// order. Requirements keep their comparator (caret, tilde, exact or bare) and
// are rewritten to require the full new version. Dev requirements anywhere in
// the workspace that would reject a new version are rewritten as well so the
// workspace keeps resolving; they never cause a version bump.
//
// A stale requirement that is not a single comparator fails with an error
// wrapping semver.ErrUnsupportedRequirement.
func Plan(g *graph.Graph, plan *bump.Plan) ([]manifest.Mutation, error) {
	b := &builder{seen: make(map[string]int)}
	changed := make(map[string]semver.Version)

	for _, e := range plan.Entries {
		p, err := g.Package(e.Name)
		if err != nil {
			return nil, err
		}
		if e.VersionChanged() {
			changed[e.Name] = e.New
			if err := b.add(manifest.Mutation{
				Location: p.VersionSite.Location,
				Package:  p.Name,
				Field:    p.VersionSite.Field,
				Old:      p.Version,
				New:      e.New.String(),
			}); err != nil {
				return nil, err
			}
		}
	}

	versions := plan.Versions()
	for _, e := range plan.Entries {
		for _, dep := range e.Requirements {
			next := versions[dep]
			for _, edge := range g.DependenciesOf(e.Name) {
				if edge.Dependency != dep {
					continue
				}
				if err := b.retarget(edge, next, false); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, edge := range g.Edges() {
		next, ok := changed[edge.Dependency]
		if !ok || edge.Publishes() {
			continue
		}
		if err := b.retarget(edge, next, true); err != nil {
			return nil, err
		}
	}
	return b.muts, nil
}

type builder struct {
	muts []manifest.Mutation
	seen map[string]int // site key -> index in muts
}

// retarget adds a mutation pointing edge's requirement at next. With
// onlyRejected the requirement is kept whenever it still allows next; ranges
// that allow next are always kept.
func (b *builder) retarget(edge graph.Edge, next semver.Version, onlyRejected bool) error {
	d := edge.Dep
	r, err := semver.ParseRequirement(d.Requirement)
	if err != nil {
		return fmt.Errorf("%s: requirement on %s: %w", edge.Dependent, d.Name, err)
	}
	if r.Targets(next) || (r.Allows(next) && (onlyRejected || !r.Simple())) {
		return nil
	}
	s, err := r.Retarget(next)
	if err != nil {
		return fmt.Errorf("%s: requirement on %s (%s): %w", edge.Dependent, d.Name, d.Site.Field, err)
	}
	return b.add(manifest.Mutation{
		Location: d.Site.Location,
		Package:  edge.Dependent,
		Field:    d.Site.Field,
		Old:      d.Requirement,
		New:      s,
	})
}

// add records m unless it is a no-op or the same site was already rewritten
// to the same value. Inherited requirements share one site across packages.
func (b *builder) add(m manifest.Mutation) error {
	if m.Old == m.New {
		return nil
	}
	key := m.Location + "\x00" + m.Field.String()
	if i, ok := b.seen[key]; ok {
		if b.muts[i].New != m.New {
			return fmt.Errorf("conflicting rewrites of %s in %s: %q and %q", m.Field, m.Location, b.muts[i].New, m.New)
		}
		return nil
	}
	b.seen[key] = len(b.muts)
	b.muts = append(b.muts, m)
	return nil
}
