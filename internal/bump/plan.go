package bump

import (
	"github.com/fbkclanna/cargo-mono/internal/semver"
)

// Reason records why a package is part of a plan.
type Reason string

const (
	ReasonRootExplicit     Reason = "root-explicit"
	ReasonDependentForced  Reason = "dependent-forced"
	ReasonRequirementStale Reason = "dependent-requirement-stale"
)

// Request is a bump of one package.
type Request struct {
	Package string
	Kind    semver.Kind
	// Breaking marks the change as breaking even when Kind is not major. Every
	// direct dependent then has its requirement on Package rewritten.
	Breaking bool
	// ForceDependents gives every transitive dependent a patch bump.
	ForceDependents bool
}

// Entry is one package of a plan.
type Entry struct {
	Name string
	Old  semver.Version
	// New equals Old for dependents that only need requirement rewrites.
	New    semver.Version
	Reason Reason
	// Requirements names the dependencies whose requirement strings in this
	// package must be rewritten to their new versions.
	Requirements []string
}

// VersionChanged reports whether the entry changes the package's own version.
func (e Entry) VersionChanged() bool {
	return !semver.Equal(e.Old, e.New) || e.Old.String() != e.New.String()
}

// HasChanges reports whether the entry changes anything on disk.
func (e Entry) HasChanges() bool {
	return e.VersionChanged() || len(e.Requirements) > 0
}

// Plan is the result of Compute. Entries are ordered dependencies first; the
// root entry is always first.
type Plan struct {
	Root    string
	Kind    semver.Kind
	Entries []Entry
}

// Entry returns the plan entry for name.
func (p *Plan) Entry(name string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// HasChanges reports whether applying the plan would modify any manifest.
func (p *Plan) HasChanges() bool {
	for _, e := range p.Entries {
		if e.HasChanges() {
			return true
		}
	}
	return false
}

// Versions returns the new version of every entry.
func (p *Plan) Versions() map[string]semver.Version {
	out := make(map[string]semver.Version, len(p.Entries))
	for _, e := range p.Entries {
		out[e.Name] = e.New
	}
	return out
}
