package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadWorkspace discovers and parses every package of the workspace rooted at
// root. Packages are returned in discovery order: the root package (if the
// root manifest has one) first, then members in the order of the members
// list, with glob matches sorted lexically. Any unreadable manifest aborts the
// whole load.
func LoadWorkspace(root string) ([]*Package, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	rootPath := filepath.Join(root, FileName)
	data, err := os.ReadFile(rootPath) //nolint:gosec // path is the workspace root manifest
	if err != nil {
		return nil, &ReadError{Path: rootPath, Err: err}
	}
	rootFile, err := decode(rootPath, data)
	if err != nil {
		return nil, err
	}

	var inherited map[string]inheritedDep
	var memberDirs []string
	if rootFile.Workspace != nil {
		inherited, err = parseInherited(rootPath, rootFile.Workspace.Dependencies)
		if err != nil {
			return nil, err
		}
		memberDirs, err = expandMembers(root, rootFile.Workspace.Members, rootFile.Workspace.Exclude)
		if err != nil {
			return nil, &ReadError{Path: rootPath, Err: err}
		}
	}

	var pkgs []*Package
	if rootFile.Package != nil {
		p, err := parsePackage(rootPath, rootFile, inherited)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	} else if rootFile.Workspace == nil {
		return nil, readErrorf(rootPath, "neither [package] nor [workspace] is declared")
	}

	for _, dir := range memberDirs {
		if dir == root {
			continue
		}
		path := filepath.Join(dir, FileName)
		data, err := os.ReadFile(path) //nolint:gosec // path is a workspace member manifest
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		f, err := decode(path, data)
		if err != nil {
			return nil, err
		}
		p, err := parsePackage(path, f, inherited)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}

	markUnresolvable(pkgs)
	return pkgs, nil
}

// expandMembers resolves member globs to package directories, dropping
// excluded directories and duplicates.
func expandMembers(root string, members, exclude []string) ([]string, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[filepath.Join(root, e)] = true
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range members {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("workspace.members: bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !hasGlobMeta(pattern) {
			return nil, fmt.Errorf("workspace.members: %q does not exist", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] || excluded[m] {
				continue
			}
			if _, err := os.Stat(filepath.Join(m, FileName)); err != nil {
				if hasGlobMeta(pattern) {
					continue
				}
				return nil, fmt.Errorf("workspace.members: %s has no %s", m, FileName)
			}
			seen[m] = true
			dirs = append(dirs, m)
		}
	}
	return dirs, nil
}

func hasGlobMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// markUnresolvable clears Publishable for packages whose published metadata
// would carry an in-workspace requirement a registry cannot resolve ("*" or
// path-only).
func markUnresolvable(pkgs []*Package) {
	names := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		names[p.Name] = true
	}
	for _, p := range pkgs {
		for _, d := range p.Dependencies {
			if !d.Kind.Publishes() || !names[d.Name] {
				continue
			}
			if d.Requirement == "" || d.Requirement == "*" {
				p.Publishable = false
				break
			}
		}
	}
}
