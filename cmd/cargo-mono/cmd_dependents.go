package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/ui"
)

func newDependentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dependents <package>",
		Short: "Show the packages that transitively depend on a package",
		Args:  cobra.ExactArgs(1),
		RunE:  runDependents,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type dependentInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Distance int    `json:"distance"`
}

func runDependents(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	deps, err := ws.Graph.Dependents(args[0])
	if err != nil {
		return err
	}

	infos := make([]dependentInfo, 0, len(deps))
	for _, d := range deps {
		p, err := ws.Graph.Package(d.Name)
		if err != nil {
			return err
		}
		infos = append(infos, dependentInfo{Name: d.Name, Version: p.Version, Distance: d.Distance})
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tbl := ui.NewTable(out, "PACKAGE", "VERSION", "DISTANCE")
	for _, d := range infos {
		tbl.Row(d.Name, d.Version, d.Distance)
	}
	return tbl.Flush()
}
