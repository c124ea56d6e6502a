package cargo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/fbkclanna/cargo-mono/internal/manifest"
)

// fakeCargo writes a script that records its arguments and exits with code.
func fakeCargo(t *testing.T, code int) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	bin = filepath.Join(dir, "cargo")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\necho cargo 1.80.0\nexit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil { //nolint:gosec // test script must be executable
		t.Fatal(err)
	}
	return bin, argsFile
}

func TestPublish(t *testing.T) {
	bin, argsFile := fakeCargo(t, 0)
	pkgDir := t.TempDir()
	p := &manifest.Package{Name: "core", Location: filepath.Join(pkgDir, "Cargo.toml")}

	var out bytes.Buffer
	inv := &Invoker{Binary: bin, NoVerify: true, Stdout: &out, Stderr: &out}
	if err := inv.Publish(context.Background(), p); err != nil {
		t.Fatalf("publish: %v", err)
	}

	data, err := os.ReadFile(argsFile) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(data))
	want := "publish --manifest-path " + p.Location + " --no-verify"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
	if !strings.Contains(out.String(), "cargo 1.80.0") {
		t.Errorf("output not forwarded: %q", out.String())
	}
}

func TestPublish_failure(t *testing.T) {
	bin, _ := fakeCargo(t, 1)
	p := &manifest.Package{Name: "core", Location: filepath.Join(t.TempDir(), "Cargo.toml")}

	var out bytes.Buffer
	inv := &Invoker{Binary: bin, Stdout: &out, Stderr: &out}
	err := inv.Publish(context.Background(), p)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "core") {
		t.Errorf("error should name the package: %v", err)
	}
}

func TestVersion(t *testing.T) {
	bin, _ := fakeCargo(t, 0)
	v, err := Version(context.Background(), bin)
	if err != nil {
		t.Fatal(err)
	}
	if v != "cargo 1.80.0" {
		t.Errorf("Version = %q", v)
	}
}

func TestLookPath(t *testing.T) {
	bin, _ := fakeCargo(t, 0)
	got, err := LookPath(bin)
	if err != nil {
		t.Fatalf("LookPath(%q): %v", bin, err)
	}
	if got != bin {
		t.Errorf("LookPath = %q, want %q", got, bin)
	}
	if _, err := LookPath(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LookPath should fail for a missing binary")
	}
}
