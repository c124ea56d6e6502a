package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/cargo"
	"github.com/fbkclanna/cargo-mono/internal/journal"
	"github.com/fbkclanna/cargo-mono/internal/metrics"
	"github.com/fbkclanna/cargo-mono/internal/publish"
	"github.com/fbkclanna/cargo-mono/internal/ui"
	"github.com/fbkclanna/cargo-mono/internal/workspace"
)

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [package...]",
		Short: "Publish packages and their workspace dependencies in order",
		Long: `Publish the given packages (default: every publishable package) together with
the workspace packages they depend on, dependencies first. Packages whose
version is already published are skipped.

Progress is recorded in .cargo-mono/publish.lock.yaml; after a failure,
--resume publishes only what is left.`,
		RunE: runPublish,
	}
	cmd.Flags().Bool("allow-only-deps", false, "Allow targets that are already published (publish only their dependencies)")
	cmd.Flags().Bool("no-verify", false, "Pass --no-verify to cargo publish")
	cmd.Flags().Bool("dry-run", false, "Print what would be published")
	cmd.Flags().Bool("offline", false, "Do not look up published versions")
	cmd.Flags().Bool("resume", false, "Resume the last failed publish run")
	cmd.Flags().Duration("delay", 0, "Pause between publishes (default from config, 5s)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this file")
	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	allowOnlyDeps, _ := cmd.Flags().GetBool("allow-only-deps")
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	offline, _ := cmd.Flags().GetBool("offline")
	resume, _ := cmd.Flags().GetBool("resume")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}
	delay := ws.Config.Publish.Delay
	if cmd.Flags().Changed("delay") {
		delay, _ = cmd.Flags().GetDuration("delay")
	}
	noVerify = noVerify || ws.Config.Publish.NoVerify

	var (
		targets = args
		order   []string
		jf      *journal.File
	)
	if resume {
		if len(args) > 0 {
			return fmt.Errorf("--resume takes no package arguments")
		}
		if ws.Journal == nil {
			return fmt.Errorf("%w in %s", journal.ErrNoJournal, ws.Root)
		}
		jf = ws.Journal
		targets, allowOnlyDeps = jf.Targets, jf.AllowOnlyDeps
		order = jf.Remaining()
		for _, name := range order {
			if !ws.Graph.Contains(name) {
				return fmt.Errorf("journal lists %s, which is no longer in the workspace", name)
			}
		}
	} else {
		order, err = publishOrder(ws, targets, allowOnlyDeps)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(order) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing to publish.")
		return nil
	}

	logger := newLogger(cmd)
	published, err := publishedVersions(cmd, ws, offline, order)
	if err != nil {
		return fmt.Errorf("looking up published versions: %w", err)
	}
	if !resume && !allowOnlyDeps {
		if err := publish.CheckTargets(ws.Graph, targets, published); err != nil {
			return err
		}
	}

	if dryRun {
		jf = nil
	} else if jf == nil {
		jf, err = newJournal(ws, targets, allowOnlyDeps, order)
		if err != nil {
			return err
		}
	}

	m := metrics.NewPublish()
	remaining := len(order)
	m.SetRemaining(remaining)

	observe := func(e publish.Event) {
		m.Observe(string(e.Status), e.Duration)
		if e.Status == ui.StatusPublished || e.Status == ui.StatusSkipped {
			remaining--
			m.SetRemaining(remaining)
		}
		if jf == nil {
			return
		}
		jf.Mark(e.Package, journalStatus(e.Status), e.Err)
		jf.UpdatedAt = now()
		if err := journal.Save(ws.JournalPath, jf); err != nil {
			logger.Warn("saving journal", "err", err)
		}
	}

	invoker := &cargo.Invoker{
		Binary:   os.Getenv("CARGO"),
		NoVerify: noVerify,
		Registry: ws.Config.Publish.Registry,
		Stdout:   cmd.ErrOrStderr(),
		Stderr:   cmd.ErrOrStderr(),
	}
	runner := publish.NewRunner(invoker,
		publish.WithPublished(published),
		publish.WithDelay(delay),
		publish.WithDryRun(dryRun),
		publish.WithOutput(out),
		publish.WithLogger(logger),
		publish.WithObserver(observe),
	)

	res, runErr := runner.Run(cmd.Context(), ws.Graph, order)
	if metricsFile != "" {
		if runErr == nil {
			m.MarkSuccess(time.Now())
		}
		if err := m.WriteFile(metricsFile); err != nil {
			logger.Warn("writing metrics", "err", err)
		}
	}
	if runErr != nil {
		var pe *publish.Error
		if errors.As(runErr, &pe) && jf != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d package(s) left; run `cargo-mono publish --resume` to continue.\n", len(pe.Remaining))
		}
		return runErr
	}

	if jf != nil {
		if err := journal.Remove(ws.JournalPath); err != nil {
			return err
		}
	}
	printPublishSummary(out, res, dryRun)
	return nil
}

// publishOrder computes the publish order of targets (every package when
// empty), dropping packages excluded by publish.skip.
func publishOrder(ws *workspace.Context, targets []string, allowOnlyDeps bool) ([]string, error) {
	all, err := ws.Graph.PublishOrder(targets, allowOnlyDeps)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(all))
	for _, name := range all {
		if !ws.Config.Skipped(name) {
			order = append(order, name)
		}
	}
	return order, nil
}

func newJournal(ws *workspace.Context, targets []string, allowOnlyDeps bool, order []string) (*journal.File, error) {
	pkgs := make([]*journal.Package, 0, len(order))
	for _, name := range order {
		p, err := ws.Graph.Package(name)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, &journal.Package{Name: name, Version: p.Version})
	}
	jf := journal.New(version, now(), targets, allowOnlyDeps, pkgs)
	if err := journal.Save(ws.JournalPath, jf); err != nil {
		return nil, err
	}
	return jf, nil
}

func journalStatus(s ui.Status) journal.Status {
	switch s {
	case ui.StatusPublished:
		return journal.StatusPublished
	case ui.StatusSkipped:
		return journal.StatusSkipped
	case ui.StatusFailed:
		return journal.StatusFailed
	default:
		return journal.StatusPending
	}
}

func printPublishSummary(out io.Writer, res *publish.Result, dryRun bool) {
	verb := "Published"
	if dryRun {
		verb = "Would publish"
	}
	_, _ = fmt.Fprintf(out, "\n%s %d package(s), skipped %d.\n", verb, len(res.Published), len(res.Skipped))
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
