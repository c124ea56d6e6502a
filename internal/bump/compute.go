package bump

import (
	"fmt"

	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/semver"
)

// Compute plans req against g.
//
// The root's new version is its baseline incremented at req.Kind (never lower
// than its current version). Every direct dependent whose requirement on the
// root rejects the new version is added with ReasonRequirementStale; breaking
// requests add every direct dependent whose requirement does not already
// target it. With ForceDependents every transitive dependent is added with a
// patch bump, walking dependencies first so each package sees the final
// versions of the packages it depends on.
//
// Compute fails with *graph.UnknownError if the root is not in g.
func Compute(g *graph.Graph, req Request, opts ...Option) (*Plan, error) {
	cfg := newConfig(opts)
	log := cfg.logger.With("root", req.Package)

	root, err := g.Package(req.Package)
	if err != nil {
		return nil, err
	}
	if !root.HasVersion() {
		return nil, fmt.Errorf("bump %s: %s declares no package.version", root.Name, root.Location)
	}
	kind := req.Kind
	if kind == "" {
		kind = semver.KindPatch
	}
	breaking := req.Breaking || kind == semver.KindMajor

	candidates := []string{root.Name}
	forced := make(map[string]bool)
	if req.ForceDependents {
		closure, err := g.Dependents(root.Name)
		if err != nil {
			return nil, err
		}
		for _, d := range closure {
			candidates = append(candidates, d.Name)
			forced[d.Name] = true
		}
	} else {
		seen := map[string]bool{root.Name: true}
		for _, e := range g.DependentsOf(root.Name) {
			if e.Publishes() && !seen[e.Dependent] {
				seen[e.Dependent] = true
				candidates = append(candidates, e.Dependent)
			}
		}
	}
	order, err := g.Sort(candidates)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Root: root.Name, Kind: kind}
	inPlan := make(map[string]semver.Version)

	for _, name := range order {
		p, err := g.Package(name)
		if err != nil {
			return nil, err
		}
		current, err := semver.ParseVersion(p.Version)
		if err != nil {
			return nil, fmt.Errorf("bump %s: %w", name, err)
		}

		entry := Entry{Name: name, Old: current, New: current}
		switch {
		case name == root.Name:
			entry.Reason = ReasonRootExplicit
			entry.New = cfg.next(name, current, kind)
		case forced[name] && p.Publishable && p.HasVersion():
			entry.Reason = ReasonDependentForced
			entry.New = cfg.next(name, current, semver.KindPatch)
		default:
			entry.Reason = ReasonRequirementStale
		}

		reqs, err := staleRequirements(g, name, inPlan, func(dep string) bool {
			return forced[name] || (breaking && dep == root.Name)
		})
		if err != nil {
			return nil, err
		}
		entry.Requirements = reqs

		if name != root.Name && !entry.HasChanges() {
			continue
		}
		log.Debug("planned", "package", name, "old", entry.Old.String(), "new", entry.New.String(),
			"reason", string(entry.Reason), "requirements", reqs)
		plan.Entries = append(plan.Entries, entry)
		inPlan[name] = entry.New
	}
	return plan, nil
}

// next returns the version a package moves to when bumped at kind.
func (c *config) next(name string, current semver.Version, kind semver.Kind) semver.Version {
	return Next(current, c.baselines[name], kind)
}

// Next returns the version a package at current moves to when bumped at kind,
// given its last published version. A zero baseline means never published.
func Next(current, baseline semver.Version, kind semver.Kind) semver.Version {
	if baseline.IsZero() {
		baseline = current
	}
	return semver.Max(current, baseline.Bump(kind))
}

// staleRequirements returns the dependencies of name, among those already in
// the plan, whose requirement must be rewritten. A requirement is stale when
// it rejects the dependency's new version; when tight(dep) is true a single
// comparator is also rewritten whenever it does not target the new version.
func staleRequirements(g *graph.Graph, name string, inPlan map[string]semver.Version, tight func(dep string) bool) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.DependenciesOf(name) {
		if !e.Publishes() || seen[e.Dependency] {
			continue
		}
		next, ok := inPlan[e.Dependency]
		if !ok {
			continue
		}
		stale, err := requirementStale(e.Dep, next, tight(e.Dependency))
		if err != nil {
			return nil, err
		}
		if stale {
			seen[e.Dependency] = true
			out = append(out, e.Dependency)
		}
	}
	return out, nil
}

func requirementStale(d manifest.Dependency, next semver.Version, tight bool) (bool, error) {
	r, err := semver.ParseRequirement(d.Requirement)
	if err != nil {
		return false, err
	}
	if !r.Allows(next) {
		return true, nil
	}
	// Ranges that still allow the new version are left as authored.
	return tight && r.Simple() && !r.Targets(next), nil
}
