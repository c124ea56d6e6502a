package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fbkclanna/cargo-mono/internal/journal"
	"github.com/fbkclanna/cargo-mono/internal/publish"
	"github.com/fbkclanna/cargo-mono/internal/testutil"
)

func TestRunPublish_all(t *testing.T) {
	calls := fakeCargo(t)
	index := indexServer(t, map[string][]string{"a": {"1.0.0"}})
	dir := setupWorkspace(t, index)
	metricsFile := filepath.Join(t.TempDir(), "publish.prom")

	out, err := execute(t, "--root", dir, "publish", "--delay", "0", "--metrics-file", metricsFile)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if got, want := publishedPackages(t, calls), []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("published %v, want %v", got, want)
	}
	for _, want := range []string{"[1/4] skipped a 1.0.0", "[4/4] published d 1.0.0", "Published 3 package(s), skipped 1."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(journal.Path(dir)); !os.IsNotExist(err) {
		t.Errorf("journal should be removed after a successful run (stat err = %v)", err)
	}
	prom := testutil.ReadFile(t, filepath.Dir(metricsFile), filepath.Base(metricsFile))
	if !strings.Contains(prom, `cargo_mono_publish_packages_total{status="published"} 3`) {
		t.Errorf("metrics:\n%s", prom)
	}
}

func TestRunPublish_failureAndResume(t *testing.T) {
	calls := fakeCargo(t)
	dir := setupWorkspace(t, "")
	t.Setenv("FAKE_CARGO_FAIL", "crates/c/")

	_, err := execute(t, "--root", dir, "publish", "--delay", "0")
	if !errors.Is(err, publish.ErrPublishFailure) {
		t.Fatalf("err = %v, want publish failure", err)
	}
	var pe *publish.Error
	if !errors.As(err, &pe) || pe.Package != "c" {
		t.Fatalf("err = %v, want failure of c", err)
	}
	if got, want := publishedPackages(t, calls), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("attempted %v, want %v", got, want)
	}

	jf, err := journal.Load(journal.Path(dir))
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if got, want := jf.Remaining(), []string{"c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("journal remaining = %v, want %v", got, want)
	}

	t.Setenv("FAKE_CARGO_FAIL", "")
	if _, err := execute(t, "--root", dir, "publish", "--resume", "--delay", "0"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if got, want := publishedPackages(t, calls), []string{"a", "b", "c", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("calls after resume = %v, want %v", got, want)
	}
	if _, err := os.Stat(journal.Path(dir)); !os.IsNotExist(err) {
		t.Error("journal should be removed after the resumed run")
	}
}

func TestRunPublish_resumeWithoutJournal(t *testing.T) {
	fakeCargo(t)
	dir := setupWorkspace(t, "")
	_, err := execute(t, "--root", dir, "publish", "--resume")
	if !errors.Is(err, journal.ErrNoJournal) {
		t.Fatalf("err = %v, want ErrNoJournal", err)
	}
}

func TestRunPublish_targetAlreadyPublished(t *testing.T) {
	calls := fakeCargo(t)
	index := indexServer(t, map[string][]string{"c": {"1.0.0"}})
	dir := setupWorkspace(t, index)

	_, err := execute(t, "--root", dir, "publish", "c", "--delay", "0")
	if !errors.Is(err, publish.ErrAlreadyPublished) {
		t.Fatalf("err = %v, want ErrAlreadyPublished", err)
	}
	if got := publishedPackages(t, calls); len(got) != 0 {
		t.Errorf("nothing may be published, got %v", got)
	}

	if _, err := execute(t, "--root", dir, "publish", "c", "--allow-only-deps", "--delay", "0"); err != nil {
		t.Fatalf("publish --allow-only-deps failed: %v", err)
	}
	if got, want := publishedPackages(t, calls), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("published %v, want %v", got, want)
	}
}

func TestRunPublish_dryRun(t *testing.T) {
	calls := fakeCargo(t)
	dir := setupWorkspace(t, "")

	out, err := execute(t, "--root", dir, "publish", "b", "--dry-run")
	if err != nil {
		t.Fatalf("publish --dry-run failed: %v", err)
	}
	if got := publishedPackages(t, calls); len(got) != 0 {
		t.Errorf("dry run invoked cargo for %v", got)
	}
	for _, want := range []string{"would publish a 1.0.0", "would publish b 1.0.0", "Would publish 2 package(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(journal.Path(dir)); !os.IsNotExist(err) {
		t.Error("dry run must not write a journal")
	}
}

func TestRunPublish_skipConfig(t *testing.T) {
	calls := fakeCargo(t)
	files := testutil.ChainWorkspace()
	files[".cargo-mono.yaml"] = "version: 1\nregistry:\n  offline: true\npublish:\n  skip: [d]\n"
	dir := testutil.WriteFiles(t, files)

	if _, err := execute(t, "--root", dir, "publish", "--delay", "0"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got, want := publishedPackages(t, calls), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("published %v, want %v", got, want)
	}
}
