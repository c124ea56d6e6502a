package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/journal"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
)

// Context holds the resolved paths, configuration and dependency graph of a
// Cargo workspace.
type Context struct {
	Root        string
	ConfigPath  string
	JournalPath string
	Config      *Config
	Packages    []*manifest.Package
	Graph       *graph.Graph
	Journal     *journal.File // may be nil
}

// Load reads the workspace rooted at root. configPath may be empty, in which
// case .cargo-mono.yaml in root is used if present.
func Load(root, configPath string) (*Context, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	if configPath == "" {
		configPath = filepath.Join(root, ConfigFileName)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	pkgs, err := manifest.LoadWorkspace(root)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(pkgs)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Root:        root,
		ConfigPath:  configPath,
		JournalPath: journal.Path(root),
		Config:      cfg,
		Packages:    pkgs,
		Graph:       g,
	}

	if _, statErr := os.Stat(ctx.JournalPath); statErr == nil {
		jf, err := journal.Load(ctx.JournalPath)
		if err != nil {
			return nil, err
		}
		ctx.Journal = jf
	}

	return ctx, nil
}

// Rel returns path relative to the workspace root, or path itself if it is
// outside the root.
func (c *Context) Rel(path string) string {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// ManifestPaths returns every manifest of the workspace relative to the root,
// root manifest first.
func (c *Context) ManifestPaths() []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, c.Rel(p))
		}
	}
	add(filepath.Join(c.Root, manifest.FileName))
	for _, p := range c.Packages {
		add(p.Location)
	}
	return out
}

// PublishTargets returns the publishable packages not excluded by
// publish.skip, in discovery order.
func (c *Context) PublishTargets() []string {
	var out []string
	for _, p := range c.Packages {
		if p.Publishable && !c.Config.Skipped(p.Name) {
			out = append(out, p.Name)
		}
	}
	return out
}
