package manifest

import (
	"path/filepath"
	"strings"
)

// FileName is the manifest file name of every package.
const FileName = "Cargo.toml"

// DepKind is the dependency table a requirement was declared in.
type DepKind string

const (
	DepNormal DepKind = "normal"
	DepDev    DepKind = "dev"
	DepBuild  DepKind = "build"
)

// table returns the Cargo table name for the kind.
func (k DepKind) table() string {
	switch k {
	case DepDev:
		return "dev-dependencies"
	case DepBuild:
		return "build-dependencies"
	default:
		return "dependencies"
	}
}

// Publishes reports whether edges of this kind end up in published metadata.
func (k DepKind) Publishes() bool {
	return k == DepNormal || k == DepBuild
}

// FieldPath addresses a value inside a manifest, one element per TOML key.
type FieldPath []string

// String renders the path as a dotted TOML key, quoting elements that are not
// bare keys.
func (p FieldPath) String() string {
	parts := make([]string, len(p))
	for i, k := range p {
		if isBareKey(k) {
			parts[i] = k
		} else {
			parts[i] = "'" + k + "'"
		}
	}
	return strings.Join(parts, ".")
}

// Equal reports whether p and q address the same value.
func (p FieldPath) Equal(q FieldPath) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Site is where a rewritable value lives on disk.
type Site struct {
	Location string
	Field    FieldPath
}

// Dependency is one requirement declared by a package.
type Dependency struct {
	// Name is the depended-on package name (after any "package =" rename).
	Name string
	// Key is the key the dependency is declared under.
	Key         string
	Requirement string
	Kind        DepKind
	// Target is the cfg expression of a target-specific table, if any.
	Target string
	Path   string
	// Inherited is true for "workspace = true" dependencies; Site then points
	// at the root manifest's [workspace.dependencies] entry.
	Inherited bool
	Site      Site
}

// Package is the in-memory model of one package manifest.
type Package struct {
	Name        string
	Version     string
	Publishable bool
	// Location is the absolute path of the package's Cargo.toml.
	Location string
	// VersionSite is empty when the manifest declares no version.
	VersionSite  Site
	Dependencies []Dependency
}

// HasVersion reports whether the manifest declares package.version.
func (p *Package) HasVersion() bool { return p.VersionSite.Location != "" }

// Dir returns the package directory.
func (p *Package) Dir() string {
	return filepath.Dir(p.Location)
}

// Mutation is one field rewrite for the manifest writer.
type Mutation struct {
	Location string
	// Package is the package the change is made for (informational).
	Package string
	Field   FieldPath
	Old     string
	New     string
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
