package manifest

import (
	"errors"
	"testing"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`
[package]
name = "alpha"
version = "0.3.1"

[dependencies]
beta = { path = "../beta", version = "0.2.0" }
serde = "1"
renamed = { package = "gamma", version = "~1.4" }

[dev-dependencies]
delta.version = "=2.0.0"
delta.path = "../delta"

[target.'cfg(unix)'.build-dependencies]
beta = { path = "../beta", version = "^0.2" }
`)
	p, err := Parse("/ws/alpha/Cargo.toml", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "alpha" {
		t.Errorf("name = %q, want %q", p.Name, "alpha")
	}
	if p.Version != "0.3.1" {
		t.Errorf("version = %q, want %q", p.Version, "0.3.1")
	}
	if !p.Publishable {
		t.Error("package should be publishable")
	}
	if !p.VersionSite.Field.Equal(FieldPath{"package", "version"}) {
		t.Errorf("version site = %s", p.VersionSite.Field)
	}
	if len(p.Dependencies) != 5 {
		t.Fatalf("dependencies = %d, want 5", len(p.Dependencies))
	}

	byKey := func(key string, kind DepKind, target string) Dependency {
		t.Helper()
		for _, d := range p.Dependencies {
			if d.Key == key && d.Kind == kind && d.Target == target {
				return d
			}
		}
		t.Fatalf("dependency %s (%s, %q) not found", key, kind, target)
		return Dependency{}
	}

	beta := byKey("beta", DepNormal, "")
	if beta.Requirement != "0.2.0" || beta.Path != "../beta" {
		t.Errorf("beta = %+v", beta)
	}
	if !beta.Site.Field.Equal(FieldPath{"dependencies", "beta", "version"}) {
		t.Errorf("beta site = %s", beta.Site.Field)
	}

	serde := byKey("serde", DepNormal, "")
	if !serde.Site.Field.Equal(FieldPath{"dependencies", "serde"}) {
		t.Errorf("serde site = %s", serde.Site.Field)
	}

	renamed := byKey("renamed", DepNormal, "")
	if renamed.Name != "gamma" {
		t.Errorf("renamed.Name = %q, want %q", renamed.Name, "gamma")
	}

	delta := byKey("delta", DepDev, "")
	if delta.Requirement != "=2.0.0" {
		t.Errorf("delta requirement = %q", delta.Requirement)
	}

	tb := byKey("beta", DepBuild, "cfg(unix)")
	want := FieldPath{"target", "cfg(unix)", "build-dependencies", "beta", "version"}
	if !tb.Site.Field.Equal(want) {
		t.Errorf("target site = %s, want %s", tb.Site.Field, want)
	}
	if got := tb.Site.Field.String(); got != "target.'cfg(unix)'.build-dependencies.beta.version" {
		t.Errorf("field string = %q", got)
	}
}

func TestParse_publish(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"default", "[package]\nname = \"a\"\nversion = \"1.0.0\"\n", true},
		{"false", "[package]\nname = \"a\"\nversion = \"1.0.0\"\npublish = false\n", false},
		{"empty list", "[package]\nname = \"a\"\nversion = \"1.0.0\"\npublish = []\n", false},
		{"registry list", "[package]\nname = \"a\"\nversion = \"1.0.0\"\npublish = [\"crates-io\"]\n", true},
		{"no version", "[package]\nname = \"a\"\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse("Cargo.toml", []byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Publishable != tt.want {
				t.Errorf("Publishable = %v, want %v", p.Publishable, tt.want)
			}
		})
	}
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[package\nname = 1"},
		{"no package", "[dependencies]\nfoo = \"1\"\n"},
		{"no name", "[package]\nversion = \"1.0.0\"\n"},
		{"bad version", "[package]\nname = \"a\"\nversion = \"one\"\n"},
		{"version table", "[package]\nname = \"a\"\nversion.workspace = false\n"},
		{"version table extra key", "[package]\nname = \"a\"\nversion = { workspace = true, path = \"x\" }\n"},
		{"version number", "[package]\nname = \"a\"\nversion = 1\n"},
		{"bad requirement", "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[dependencies]\nb = \"not a req\"\n"},
		{"inherit without workspace", "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[dependencies]\nb = { workspace = true }\n"},
		{"bad dep value", "[package]\nname = \"a\"\nversion = \"1.0.0\"\n[dependencies]\nb = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("/ws/a/Cargo.toml", []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUnreadableManifest) {
				t.Errorf("error %v should match ErrUnreadableManifest", err)
			}
			var re *ReadError
			if !errors.As(err, &re) {
				t.Fatalf("error %T should be *ReadError", err)
			}
			if re.Path != "/ws/a/Cargo.toml" {
				t.Errorf("path = %q", re.Path)
			}
		})
	}
}
