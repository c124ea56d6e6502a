package rewrite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fbkclanna/cargo-mono/internal/bump"
	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/semver"
	"github.com/fbkclanna/cargo-mono/internal/testutil"
)

func load(t *testing.T, root string) *graph.Graph {
	t.Helper()
	pkgs, err := manifest.LoadWorkspace(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	g, err := graph.Build(pkgs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return g
}

func render(root string, muts []manifest.Mutation) []string {
	out := make([]string, len(muts))
	for i, m := range muts {
		rel, _ := filepath.Rel(root, m.Location)
		out[i] = filepath.ToSlash(rel) + " " + m.Field.String() + " " + m.Old + " -> " + m.New
	}
	return out
}

func plan(t *testing.T, g *graph.Graph, req bump.Request, opts ...bump.Option) []manifest.Mutation {
	t.Helper()
	p, err := bump.Compute(g, req, opts...)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	muts, err := Plan(g, p)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	return muts
}

func TestPlan_chain(t *testing.T) {
	root := testutil.WriteFiles(t, testutil.ChainWorkspace())
	g := load(t, root)

	tests := []struct {
		name string
		req  bump.Request
		want []string
	}{
		{
			name: "major",
			req:  bump.Request{Package: "a", Kind: semver.KindMajor},
			want: []string{
				"crates/a/Cargo.toml package.version 1.0.0 -> 2.0.0",
				"crates/b/Cargo.toml dependencies.a.version 1.0.0 -> 2.0.0",
			},
		},
		{
			name: "major forced",
			req:  bump.Request{Package: "a", Kind: semver.KindMajor, ForceDependents: true},
			want: []string{
				"crates/a/Cargo.toml package.version 1.0.0 -> 2.0.0",
				"crates/b/Cargo.toml package.version 1.0.0 -> 1.0.1",
				"crates/c/Cargo.toml package.version 1.0.0 -> 1.0.1",
				"crates/d/Cargo.toml package.version 1.0.0 -> 1.0.1",
				"crates/b/Cargo.toml dependencies.a.version 1.0.0 -> 2.0.0",
				"crates/c/Cargo.toml dependencies.b.version 1.0.0 -> 1.0.1",
				"crates/d/Cargo.toml dependencies.c.version 1.0.0 -> 1.0.1",
			},
		},
		{
			name: "minor",
			req:  bump.Request{Package: "a", Kind: semver.KindMinor},
			want: []string{"crates/a/Cargo.toml package.version 1.0.0 -> 1.1.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(root, plan(t, g, tt.req))
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("mutations:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestPlan_comparatorStyle(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"Cargo.toml":     "[workspace]\nmembers = [\"*\"]\n",
		"lib/Cargo.toml": "[package]\nname = \"lib\"\nversion = \"0.4.2\"\n",
		"caret/Cargo.toml": "[package]\nname = \"caret\"\nversion = \"1.0.0\"\n" +
			"[dependencies]\nlib = { path = \"../lib\", version = \"^0.4\" }\n",
		"tilde/Cargo.toml": "[package]\nname = \"tilde\"\nversion = \"1.0.0\"\n" +
			"[dependencies]\nlib = { path = \"../lib\", version = \"~0.4.2\" }\n",
		"exact/Cargo.toml": "[package]\nname = \"exact\"\nversion = \"1.0.0\"\n" +
			"[build-dependencies]\nlib = { path = \"../lib\", version = \"=0.4.2\" }\n",
	})
	g := load(t, root)

	got := render(root, plan(t, g, bump.Request{Package: "lib", Kind: semver.KindMinor}))
	want := []string{
		"lib/Cargo.toml package.version 0.4.2 -> 0.5.0",
		"caret/Cargo.toml dependencies.lib.version ^0.4 -> ^0.5.0",
		"exact/Cargo.toml build-dependencies.lib.version =0.4.2 -> =0.5.0",
		"tilde/Cargo.toml dependencies.lib.version ~0.4.2 -> ~0.5.0",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("mutations:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestPlan_inheritedRequirement(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"Cargo.toml": `[workspace]
members = ["core", "x", "y"]

[workspace.dependencies]
core = { path = "core", version = "0.2.0" }
`,
		"core/Cargo.toml": "[package]\nname = \"core\"\nversion = \"0.2.0\"\n",
		"x/Cargo.toml":    "[package]\nname = \"x\"\nversion = \"0.1.0\"\n[dependencies]\ncore = { workspace = true }\n",
		"y/Cargo.toml":    "[package]\nname = \"y\"\nversion = \"0.1.0\"\n[dependencies]\ncore.workspace = true\n",
	})
	g := load(t, root)

	got := render(root, plan(t, g, bump.Request{Package: "core", Kind: semver.KindMinor}))
	want := []string{
		"core/Cargo.toml package.version 0.2.0 -> 0.3.0",
		"Cargo.toml workspace.dependencies.core.version 0.2.0 -> 0.3.0",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("mutations:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestPlan_devRequirements(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"Cargo.toml":     "[workspace]\nmembers = [\"lib\", \"app\", \"bench\"]\n",
		"lib/Cargo.toml": "[package]\nname = \"lib\"\nversion = \"1.4.0\"\n",
		"app/Cargo.toml": "[package]\nname = \"app\"\nversion = \"1.0.0\"\n" +
			"[dependencies]\nlib = { path = \"../lib\", version = \"1.4\" }\n" +
			"[dev-dependencies]\nlib = { path = \"../lib\", version = \"1.4\", features = [\"test\"] }\n",
		"bench/Cargo.toml": "[package]\nname = \"bench\"\nversion = \"0.1.0\"\n" +
			"[dev-dependencies]\nlib = { path = \"../lib\", version = \"=1.4.0\" }\n",
	})
	g := load(t, root)

	got := render(root, plan(t, g, bump.Request{Package: "lib", Kind: semver.KindMajor}))
	want := []string{
		"lib/Cargo.toml package.version 1.4.0 -> 2.0.0",
		"app/Cargo.toml dependencies.lib.version 1.4 -> 2.0.0",
		"app/Cargo.toml dev-dependencies.lib.version 1.4 -> 2.0.0",
		"bench/Cargo.toml dev-dependencies.lib.version =1.4.0 -> =2.0.0",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("mutations:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestPlan_unsupportedRequirement(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"Cargo.toml":     "[workspace]\nmembers = [\"lib\", \"app\"]\n",
		"lib/Cargo.toml": "[package]\nname = \"lib\"\nversion = \"1.4.0\"\n",
		"app/Cargo.toml": "[package]\nname = \"app\"\nversion = \"1.0.0\"\n" +
			"[dependencies]\nlib = { path = \"../lib\", version = \">=1.2, <2\" }\n",
	})
	g := load(t, root)

	p, err := bump.Compute(g, bump.Request{Package: "lib", Kind: semver.KindMajor})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	_, err = Plan(g, p)
	if !errors.Is(err, semver.ErrUnsupportedRequirement) {
		t.Errorf("error = %v, want ErrUnsupportedRequirement", err)
	}
}

func TestPlan_idempotentOnDisk(t *testing.T) {
	root := testutil.WriteFiles(t, testutil.ChainWorkspace())
	req := bump.Request{Package: "a", Kind: semver.KindMajor, ForceDependents: true}
	published := map[string]semver.Version{}
	for _, n := range []string{"a", "b", "c", "d"} {
		published[n] = semver.MustParseVersion("1.0.0")
	}

	muts := plan(t, load(t, root), req, bump.WithBaselines(published))
	if len(muts) == 0 {
		t.Fatal("first run produced no mutations")
	}
	if err := manifest.Apply(context.Background(), muts); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := testutil.ReadFile(t, root, "crates/d/Cargo.toml"); !strings.Contains(got, `c = { path = "../c", version = "1.0.1" }`) {
		t.Errorf("d manifest not rewritten:\n%s", got)
	}

	g := load(t, root)
	p, err := bump.Compute(g, req, bump.WithBaselines(published))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if p.HasChanges() {
		t.Errorf("second run has changes: %+v", p.Entries)
	}
	again, err := Plan(g, p)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run mutations: %v", render(root, again))
	}
}
