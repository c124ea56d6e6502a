package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fbkclanna/cargo-mono/internal/bump"
	"github.com/fbkclanna/cargo-mono/internal/git"
	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/rewrite"
	"github.com/fbkclanna/cargo-mono/internal/semver"
	"github.com/fbkclanna/cargo-mono/internal/ui"
	"github.com/fbkclanna/cargo-mono/internal/workspace"
)

func newBumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump [package]",
		Short: "Bump a package version and update its dependents",
		Long: `Bump the version of a package and rewrite the requirements of the workspace
packages that depend on it.

Unless --offline is given, the new version is computed from the version
published on the registry, so bumping twice before publishing does not
increment twice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBump,
	}
	cmd.Flags().Bool("breaking", false, "The change is breaking (major bump, or minor below 1.0.0)")
	cmd.Flags().String("kind", "", "Version component to bump: major, minor, patch")
	cmd.Flags().BoolP("force-dependents", "D", false, "Also give every transitive dependent a patch bump")
	cmd.Flags().BoolP("interactive", "i", false, "Select the package and bump kind interactively")
	cmd.Flags().Bool("dry-run", false, "Print the plan without writing manifests")
	cmd.Flags().Bool("offline", false, "Do not look up published versions")
	cmd.Flags().Bool("commit", false, "Commit the rewritten manifests")
	cmd.Flags().Bool("tag", false, "Tag the commit with <package>-v<version> for every bumped package (implies --commit)")
	cmd.Flags().Bool("allow-dirty", false, "Rewrite manifests that have uncommitted changes")
	return cmd
}

func runBump(cmd *cobra.Command, args []string) error {
	kindStr, _ := cmd.Flags().GetString("kind")
	breaking, _ := cmd.Flags().GetBool("breaking")
	force, _ := cmd.Flags().GetBool("force-dependents")
	interactive, _ := cmd.Flags().GetBool("interactive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	offline, _ := cmd.Flags().GetBool("offline")
	commit, _ := cmd.Flags().GetBool("commit")
	tag, _ := cmd.Flags().GetBool("tag")
	allowDirty, _ := cmd.Flags().GetBool("allow-dirty")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	commit = commit || tag || ws.Config.Bump.Commit
	allowDirty = allowDirty || ws.Config.Bump.AllowDirty

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	var published map[string]semver.Version
	if interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("--interactive requires a terminal")
		}
		// Every versioned package may be picked, so look them all up once for
		// the preview and reuse the result for the plan.
		var versioned []string
		for _, p := range ws.Graph.Packages() {
			if p.HasVersion() {
				versioned = append(versioned, p.Name)
			}
		}
		if published, err = publishedVersions(cmd, ws, offline, versioned); err != nil {
			return fmt.Errorf("looking up published versions: %w", err)
		}
		sel, err := selectBump(ws.Graph, name, published, force)
		if err != nil {
			return err
		}
		name, kindStr, breaking, force = sel.Package, string(sel.Kind), sel.Breaking, sel.ForceDependents
	}
	if name == "" {
		return fmt.Errorf("package name is required (or use --interactive)")
	}

	p, err := ws.Graph.Package(name)
	if err != nil {
		return err
	}
	if !p.HasVersion() {
		return fmt.Errorf("%s has no version field", name)
	}
	current, err := semver.ParseVersion(p.Version)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	kind, err := resolveKind(kindStr, breaking, current)
	if err != nil {
		return err
	}

	if published == nil {
		candidates, err := bumpCandidates(ws.Graph, name)
		if err != nil {
			return err
		}
		if published, err = publishedVersions(cmd, ws, offline, candidates); err != nil {
			return fmt.Errorf("looking up published versions: %w", err)
		}
	}

	plan, err := bump.Compute(ws.Graph, bump.Request{
		Package:         name,
		Kind:            kind,
		Breaking:        breaking,
		ForceDependents: force,
	}, bump.WithBaselines(published), bump.WithLogger(newLogger(cmd)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !plan.HasChanges() {
		_, _ = fmt.Fprintf(out, "%s is already at %s; nothing to do.\n", name, p.Version)
		return nil
	}

	muts, err := rewrite.Plan(ws.Graph, plan)
	if err != nil {
		return err
	}
	if err := printPlan(out, ws, plan, muts); err != nil {
		return err
	}
	if dryRun {
		_, _ = fmt.Fprintln(out, "\nDry run: no manifest was written.")
		return nil
	}

	locations, _ := manifest.GroupByLocation(muts)
	paths := make([]string, len(locations))
	for i, loc := range locations {
		paths[i] = ws.Rel(loc)
	}

	inRepo := git.IsGitInstalled() && git.IsRepo(ws.Root)
	if commit && !inRepo {
		return fmt.Errorf("--commit requires %s to be a git repository", ws.Root)
	}
	if inRepo && !allowDirty {
		dirty, err := git.DirtyFiles(ws.Root, paths...)
		if err != nil {
			return fmt.Errorf("checking for uncommitted changes: %w", err)
		}
		if len(dirty) > 0 {
			return fmt.Errorf("manifests have uncommitted changes: %s (commit them or pass --allow-dirty)",
				strings.Join(dirty, ", "))
		}
	}

	if err := manifest.Apply(cmd.Context(), muts); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "\nUpdated %d manifest(s).\n", len(locations))

	if !commit {
		return nil
	}
	if err := git.Add(ws.Root, paths...); err != nil {
		return fmt.Errorf("staging manifests: %w", err)
	}
	if err := git.Commit(ws.Root, commitMessage(plan)); err != nil {
		return fmt.Errorf("committing manifests: %w", err)
	}
	sha, err := git.HeadCommit(ws.Root)
	if err != nil {
		return fmt.Errorf("reading the new commit: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Committed %s.\n", sha)
	if tag {
		for _, e := range plan.Entries {
			if !e.VersionChanged() {
				continue
			}
			t := e.Name + "-v" + e.New.String()
			if err := git.Tag(ws.Root, t); err != nil {
				return fmt.Errorf("tagging %s: %w", t, err)
			}
			_, _ = fmt.Fprintf(out, "Tagged %s\n", t)
		}
	}
	return nil
}

// resolveKind picks the bump kind: an explicit --kind wins, then --breaking,
// then patch.
func resolveKind(kind string, breaking bool, current semver.Version) (semver.Kind, error) {
	if kind != "" {
		return semver.ParseKind(kind)
	}
	if breaking {
		return semver.BreakingKind(current), nil
	}
	return semver.KindPatch, nil
}

// bumpCandidates returns the packages whose published version can matter for
// a bump of name: name itself and its publishable dependents.
func bumpCandidates(g *graph.Graph, name string) ([]string, error) {
	deps, err := g.Dependents(name)
	if err != nil {
		return nil, err
	}
	names := []string{name}
	for _, d := range deps {
		p, err := g.Package(d.Name)
		if err != nil {
			return nil, err
		}
		if p.Publishable {
			names = append(names, d.Name)
		}
	}
	return names, nil
}

func printPlan(out io.Writer, ws *workspace.Context, plan *bump.Plan, muts []manifest.Mutation) error {
	ui.Title(out, fmt.Sprintf("Bump %s (%s)", plan.Root, plan.Kind))
	tbl := ui.NewTable(out, "PACKAGE", "VERSION", "REASON", "REQUIREMENTS")
	for _, e := range plan.Entries {
		v := e.Old.String()
		if e.VersionChanged() {
			v += " -> " + e.New.String()
		}
		tbl.Row(e.Name, v, e.Reason, strings.Join(e.Requirements, ", "))
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	ui.Title(out, "Changes")
	changes := ui.NewTable(out, "MANIFEST", "FIELD", "FROM", "TO")
	for _, m := range muts {
		changes.Row(ws.Rel(m.Location), m.Field.String(), fmt.Sprintf("%q", m.Old), fmt.Sprintf("%q", m.New))
	}
	return changes.Flush()
}

func commitMessage(plan *bump.Plan) string {
	var b strings.Builder
	root, _ := plan.Entry(plan.Root)
	fmt.Fprintf(&b, "Bump %s to %s", plan.Root, root.New)
	var rest []string
	for _, e := range plan.Entries {
		if e.Name == plan.Root || !e.VersionChanged() {
			continue
		}
		rest = append(rest, fmt.Sprintf("- %s %s", e.Name, e.New))
	}
	if len(rest) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(rest, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
