package manifest

import (
	"fmt"
	"os"
	"sort"

	"github.com/fbkclanna/cargo-mono/internal/semver"
	"github.com/pelletier/go-toml/v2"
)

// cargoFile is the subset of Cargo.toml the tool reads.
type cargoFile struct {
	Package           *cargoPackage          `toml:"package"`
	Workspace         *cargoWorkspace        `toml:"workspace"`
	Dependencies      map[string]any         `toml:"dependencies"`
	DevDependencies   map[string]any         `toml:"dev-dependencies"`
	BuildDependencies map[string]any         `toml:"build-dependencies"`
	Target            map[string]cargoTarget `toml:"target"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version any    `toml:"version"`
	Publish any    `toml:"publish"`
}

type cargoWorkspace struct {
	Members      []string       `toml:"members"`
	Exclude      []string       `toml:"exclude"`
	Dependencies map[string]any `toml:"dependencies"`
}

type cargoTarget struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

// inheritedDep is a [workspace.dependencies] entry of the root manifest.
type inheritedDep struct {
	name        string
	requirement string
	path        string
	site        Site
}

func decode(path string, data []byte) (*cargoFile, error) {
	var f cargoFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("parsing TOML: %w", err)}
	}
	return &f, nil
}

// Load reads and parses a single package manifest that does not inherit
// anything from a workspace root.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a workspace manifest
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse parses Cargo.toml content. location is recorded as the package's
// manifest location.
func Parse(location string, data []byte) (*Package, error) {
	f, err := decode(location, data)
	if err != nil {
		return nil, err
	}
	return parsePackage(location, f, nil)
}

func parsePackage(location string, f *cargoFile, inherited map[string]inheritedDep) (*Package, error) {
	if f.Package == nil {
		return nil, readErrorf(location, "no [package] table")
	}
	if f.Package.Name == "" {
		return nil, readErrorf(location, "package.name is required")
	}

	p := &Package{
		Name:        f.Package.Name,
		Location:    location,
		Publishable: publishable(f.Package.Publish),
	}

	switch v := f.Package.Version.(type) {
	case nil:
		// Cargo treats a missing version as 0.0.0 and refuses to publish it.
		p.Version = "0.0.0"
		p.Publishable = false
	case string:
		if _, err := semver.ParseVersion(v); err != nil {
			return nil, &ReadError{Path: location, Err: err}
		}
		p.Version = v
		p.VersionSite = Site{Location: location, Field: FieldPath{"package", "version"}}
	case map[string]any:
		// version.workspace = true is valid Cargo, but the shared version
		// cannot be bumped per package, so the member is left unversioned.
		if inherit, _ := v["workspace"].(bool); !inherit || len(v) != 1 {
			return nil, readErrorf(location, "package.version table must be { workspace = true }")
		}
		p.Version = "0.0.0"
		p.Publishable = false
	default:
		return nil, readErrorf(location, "package.version must be a version string")
	}

	tables := []struct {
		kind DepKind
		deps map[string]any
	}{
		{DepNormal, f.Dependencies},
		{DepBuild, f.BuildDependencies},
		{DepDev, f.DevDependencies},
	}
	for _, t := range tables {
		deps, err := parseDeps(location, t.deps, t.kind, "", inherited)
		if err != nil {
			return nil, err
		}
		p.Dependencies = append(p.Dependencies, deps...)
	}

	cfgs := make([]string, 0, len(f.Target))
	for cfg := range f.Target {
		cfgs = append(cfgs, cfg)
	}
	sort.Strings(cfgs)
	for _, cfg := range cfgs {
		tt := f.Target[cfg]
		for _, t := range []struct {
			kind DepKind
			deps map[string]any
		}{
			{DepNormal, tt.Dependencies},
			{DepBuild, tt.BuildDependencies},
			{DepDev, tt.DevDependencies},
		} {
			deps, err := parseDeps(location, t.deps, t.kind, cfg, inherited)
			if err != nil {
				return nil, err
			}
			p.Dependencies = append(p.Dependencies, deps...)
		}
	}

	return p, nil
}

// publishable interprets package.publish: false or an empty registry list
// disables publishing.
func publishable(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func parseDeps(location string, table map[string]any, kind DepKind, target string, inherited map[string]inheritedDep) ([]Dependency, error) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	prefix := FieldPath{kind.table()}
	if target != "" {
		prefix = FieldPath{"target", target, kind.table()}
	}

	deps := make([]Dependency, 0, len(keys))
	for _, key := range keys {
		d := Dependency{Name: key, Key: key, Kind: kind, Target: target}
		field := append(append(FieldPath{}, prefix...), key)

		switch v := table[key].(type) {
		case string:
			d.Requirement = v
			d.Site = Site{Location: location, Field: field}
		case map[string]any:
			if ws, _ := v["workspace"].(bool); ws {
				inh, ok := inherited[key]
				if !ok {
					return nil, readErrorf(location, "%s: inherits from the workspace but [workspace.dependencies] has no %q entry", field, key)
				}
				d.Name = inh.name
				d.Requirement = inh.requirement
				d.Path = inh.path
				d.Inherited = true
				d.Site = inh.site
				break
			}
			if err := fillDetailed(&d, v); err != nil {
				return nil, &ReadError{Path: location, Err: fmt.Errorf("%s: %w", field, err)}
			}
			d.Site = Site{Location: location, Field: append(field, "version")}
		default:
			return nil, readErrorf(location, "%s: unsupported dependency value of type %T", field, v)
		}

		if _, err := semver.ParseRequirement(d.Requirement); err != nil {
			return nil, &ReadError{Path: location, Err: fmt.Errorf("%s: %w", field, err)}
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// fillDetailed reads the detailed (inline table) dependency form.
func fillDetailed(d *Dependency, v map[string]any) error {
	if raw, ok := v["version"]; ok {
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("version must be a string")
		}
		d.Requirement = s
	}
	if raw, ok := v["package"]; ok {
		s, ok := raw.(string)
		if !ok || s == "" {
			return fmt.Errorf("package must be a non-empty string")
		}
		d.Name = s
	}
	if raw, ok := v["path"]; ok {
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("path must be a string")
		}
		d.Path = s
	}
	return nil
}

// parseInherited reads the root manifest's [workspace.dependencies] table.
func parseInherited(location string, table map[string]any) (map[string]inheritedDep, error) {
	deps, err := parseDeps(location, table, DepNormal, "", nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]inheritedDep, len(deps))
	for _, d := range deps {
		site := d.Site
		site.Field = append(FieldPath{"workspace"}, site.Field...)
		out[d.Key] = inheritedDep{
			name:        d.Name,
			requirement: d.Requirement,
			path:        d.Path,
			site:        site,
		}
	}
	return out, nil
}
