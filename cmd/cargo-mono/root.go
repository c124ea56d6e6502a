package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fbkclanna/cargo-mono/internal/registry"
	"github.com/fbkclanna/cargo-mono/internal/semver"
	"github.com/fbkclanna/cargo-mono/internal/workspace"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cargo-mono",
		Short:         "Version bumping and ordered publishing for Cargo workspaces",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("root", ".", "Root directory of the Cargo workspace")
	cmd.PersistentFlags().String("config", "", "Config file (default <root>/.cargo-mono.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log diagnostics to stderr")

	cmd.AddCommand(
		newBumpCmd(),
		newPublishCmd(),
		newCheckCmd(),
		newListCmd(),
		newDependentsCmd(),
		newDoctorCmd(),
	)

	return cmd
}

func loadWorkspace(cmd *cobra.Command) (*workspace.Context, error) {
	root, _ := cmd.Flags().GetString("root")
	cfg, _ := cmd.Flags().GetString("config")
	return workspace.Load(root, cfg)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// publishedVersions looks up the published version of names in the configured
// registry. Offline mode returns an empty map: every package is treated as
// never published.
func publishedVersions(cmd *cobra.Command, ws *workspace.Context, offline bool, names []string) (map[string]semver.Version, error) {
	if offline || ws.Config.Registry.Offline || len(names) == 0 {
		return map[string]semver.Version{}, nil
	}
	client := registry.New(ws.Config.Registry.Index,
		registry.WithUserAgent("cargo-mono/"+version),
		registry.WithLogger(newLogger(cmd)),
	)
	return client.LatestAll(cmd.Context(), names)
}
