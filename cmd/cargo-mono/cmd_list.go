package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/ui"
	"github.com/fbkclanna/cargo-mono/internal/workspace"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace packages, dependencies first",
		RunE:  runList,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().Bool("transitive", false, "Show every package each one depends on, not only direct dependencies")
	return cmd
}

type packageInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Publishable  bool     `json:"publishable"`
	Path         string   `json:"path"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	transitive, _ := cmd.Flags().GetBool("transitive")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	infos, err := collectPackages(ws, transitive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tbl := ui.NewTable(out, "PACKAGE", "VERSION", "PUBLISH", "PATH", "DEPENDS ON")
	for _, p := range infos {
		publish := "yes"
		if !p.Publishable {
			publish = "no"
		}
		tbl.Row(p.Name, p.Version, publish, p.Path, strings.Join(p.Dependencies, ", "))
	}
	return tbl.Flush()
}

// collectPackages returns every package in dependency order with its direct
// in-workspace dependencies. Dev-only dependencies are marked. With
// transitive, the dependencies are the full normal/build closure instead.
func collectPackages(ws *workspace.Context, transitive bool) ([]packageInfo, error) {
	names := make([]string, 0, len(ws.Packages))
	for _, p := range ws.Packages {
		names = append(names, p.Name)
	}
	sorted, err := ws.Graph.Sort(names)
	if err != nil {
		return nil, err
	}

	infos := make([]packageInfo, 0, len(sorted))
	for _, name := range sorted {
		p, err := ws.Graph.Package(name)
		if err != nil {
			return nil, err
		}
		var deps []string
		if transitive {
			if deps, err = ws.Graph.Dependencies(name); err != nil {
				return nil, err
			}
		} else {
			deps = directDependencies(ws, name)
		}
		infos = append(infos, packageInfo{
			Name:         p.Name,
			Version:      p.Version,
			Publishable:  p.Publishable,
			Path:         ws.Rel(p.Dir()),
			Dependencies: deps,
		})
	}
	return infos, nil
}

func directDependencies(ws *workspace.Context, name string) []string {
	var deps []string
	seen := map[string]bool{}
	for _, e := range ws.Graph.DependenciesOf(name) {
		label := e.Dependency
		if !e.Publishes() {
			label += " (dev)"
		}
		if !seen[label] {
			seen[label] = true
			deps = append(deps, label)
		}
	}
	return deps
}
