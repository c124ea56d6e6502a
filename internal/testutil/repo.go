package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// WriteFiles writes files (slash-separated relative path to content) into a
// new temp directory and returns its path.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // test dir
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil { //nolint:gosec // test file
			t.Fatal(err)
		}
	}
	return dir
}

// ReadFile returns the content of a file under dir.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel))) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// ChainWorkspace returns the files of a four-package workspace where
// d depends on c, c on b and b on a, all at 1.0.0 with caret requirements.
func ChainWorkspace() map[string]string {
	return map[string]string{
		"Cargo.toml": "[workspace]\nmembers = [\"crates/*\"]\n",
		"crates/a/Cargo.toml": `[package]
name = "a"
version = "1.0.0"
`,
		"crates/b/Cargo.toml": `[package]
name = "b"
version = "1.0.0"

[dependencies]
a = { path = "../a", version = "1.0.0" }
`,
		"crates/c/Cargo.toml": `[package]
name = "c"
version = "1.0.0"

[dependencies]
b = { path = "../b", version = "1.0.0" }
`,
		"crates/d/Cargo.toml": `[package]
name = "d"
version = "1.0.0"

[dependencies]
c = { path = "../c", version = "1.0.0" }
`,
	}
}

// InitRepo turns dir into a git repository with everything committed.
func InitRepo(t *testing.T, dir string) {
	t.Helper()
	run(t, dir, "git", "init", "-b", "main")
	run(t, dir, "git", "config", "user.email", "test@example.com")
	run(t, dir, "git", "config", "user.name", "Test")
	run(t, dir, "git", "add", ".")
	run(t, dir, "git", "commit", "-m", "initial commit")
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("command %s %v failed: %v", name, args, err)
	}
}
