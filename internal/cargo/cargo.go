// Package cargo runs the cargo commands cargo-mono delegates to. Commands are
// executed directly, never through a shell.
package cargo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fbkclanna/cargo-mono/internal/manifest"
)

// Invoker publishes packages with "cargo publish".
type Invoker struct {
	// Binary is the cargo executable; empty means "cargo" from PATH.
	Binary   string
	NoVerify bool
	// Registry selects a registry other than crates.io.
	Registry string
	Stdout   io.Writer
	Stderr   io.Writer
}

// Publish runs cargo publish for p and waits for it to finish.
func (i *Invoker) Publish(ctx context.Context, p *manifest.Package) error {
	args := []string{"publish", "--manifest-path", p.Location}
	if i.NoVerify {
		args = append(args, "--no-verify")
	}
	if i.Registry != "" {
		args = append(args, "--registry", i.Registry)
	}

	cmd := exec.CommandContext(ctx, i.binary(), args...)
	cmd.Dir = p.Dir()
	cmd.Stdout = orDefault(i.Stdout, os.Stdout)
	cmd.Stderr = orDefault(i.Stderr, os.Stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cargo publish %s: %w", p.Name, err)
	}
	return nil
}

func (i *Invoker) binary() string {
	if i.Binary != "" {
		return i.Binary
	}
	return "cargo"
}

// LookPath resolves binary (default "cargo") on the system PATH.
func LookPath(binary string) (string, error) {
	if binary == "" {
		binary = "cargo"
	}
	return exec.LookPath(binary)
}

// Version returns the output of "cargo --version".
func Version(ctx context.Context, binary string) (string, error) {
	if binary == "" {
		binary = "cargo"
	}
	cmd := exec.CommandContext(ctx, binary, "--version")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("cargo --version: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
