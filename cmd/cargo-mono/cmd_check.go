package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/publish"
	"github.com/fbkclanna/cargo-mono/internal/ui"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [package...]",
		Short: "Verify that package versions are bumped past their published versions",
		RunE:  runCheck,
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

type checkResult struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Published string `json:"published,omitempty"`
	Bumped    bool   `json:"bumped"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	if ws.Config.Registry.Offline {
		return fmt.Errorf("check needs the registry, but registry.offline is set")
	}

	names := args
	if len(names) == 0 {
		names = ws.PublishTargets()
	}
	for _, name := range names {
		if _, err := ws.Graph.Package(name); err != nil {
			return err
		}
	}
	published, err := publishedVersions(cmd, ws, false, names)
	if err != nil {
		return fmt.Errorf("looking up published versions: %w", err)
	}

	results := make([]checkResult, 0, len(names))
	var stale []string
	for _, name := range names {
		p, _ := ws.Graph.Package(name)
		bumped, err := publish.NeedsPublish(p, published)
		if err != nil {
			return err
		}
		r := checkResult{Name: name, Version: p.Version, Bumped: bumped}
		if v, ok := published[name]; ok {
			r.Published = v.String()
		}
		if !bumped {
			stale = append(stale, name)
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		tbl := ui.NewTable(out, "PACKAGE", "LOCAL", "PUBLISHED", "STATUS")
		for _, r := range results {
			status := "ok"
			if !r.Bumped {
				status = "not bumped"
			}
			tbl.Row(r.Name, r.Version, r.Published, status)
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("%w: %s", publish.ErrAlreadyPublished, strings.Join(stale, ", "))
	}
	return nil
}
