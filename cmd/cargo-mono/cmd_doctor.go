package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/cargo"
	"github.com/fbkclanna/cargo-mono/internal/git"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment and the workspace",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ok := true

	// Check cargo.
	_, _ = fmt.Fprint(out, "Checking cargo... ")
	binary := os.Getenv("CARGO")
	if path, err := cargo.LookPath(binary); err != nil {
		_, _ = fmt.Fprintln(out, "NOT FOUND")
		_, _ = fmt.Fprintln(out, "  cargo is required to publish. Install it from https://rustup.rs/")
		ok = false
	} else if ver, err := cargo.Version(cmd.Context(), binary); err != nil {
		_, _ = fmt.Fprintf(out, "found at %s, but `cargo --version` failed: %v\n", path, err)
		ok = false
	} else {
		_, _ = fmt.Fprintf(out, "%s (%s)\n", ver, path)
	}

	// Check git. Only bump --commit and the dirty check need it.
	_, _ = fmt.Fprint(out, "Checking git... ")
	if git.IsGitInstalled() {
		_, _ = fmt.Fprintln(out, "OK")
	} else {
		_, _ = fmt.Fprintln(out, "NOT FOUND (bump cannot check for uncommitted changes)")
	}

	// Check the workspace.
	_, _ = fmt.Fprint(out, "Checking workspace... ")
	ws, err := loadWorkspace(cmd)
	if err != nil {
		_, _ = fmt.Fprintln(out, "FAILED")
		_, _ = fmt.Fprintf(out, "  %v\n", err)
		ok = false
	} else {
		targets := ws.PublishTargets()
		_, _ = fmt.Fprintf(out, "%d packages, %d publishable\n", len(ws.Packages), len(targets))
		if _, err := ws.Graph.PublishOrder(nil, false); err != nil {
			_, _ = fmt.Fprintf(out, "  publish order: %v\n", err)
			ok = false
		}
		if top, err := git.Toplevel(ws.Root); err != nil {
			_, _ = fmt.Fprintln(out, "  Warning: workspace is not in a git repository")
		} else {
			_, _ = fmt.Fprintf(out, "  git repository: %s\n", top)
			if dirty, err := git.IsDirty(ws.Root, ws.ManifestPaths()...); err != nil {
				_, _ = fmt.Fprintf(out, "  Warning: cannot read git status: %v\n", err)
			} else if dirty {
				_, _ = fmt.Fprintln(out, "  Warning: manifests have uncommitted changes; bump will refuse to rewrite them")
			}
		}
		if ws.Journal != nil && !ws.Journal.Done() {
			_, _ = fmt.Fprintf(out, "  Note: an interrupted publish run left %d package(s); see `cargo-mono publish --resume`\n",
				len(ws.Journal.Remaining()))
		}
	}

	if ok {
		_, _ = fmt.Fprintln(out, "\nAll checks passed.")
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nSome checks failed. See above for details.")
	return fmt.Errorf("doctor checks failed")
}
