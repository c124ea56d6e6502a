package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/journal"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/registry"
	"github.com/fbkclanna/cargo-mono/internal/testutil"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Config
		wantErr bool
	}{
		{
			name:  "defaults",
			input: "version: 1\n",
			want:  DefaultConfig(),
		},
		{
			name: "full",
			input: `version: 1
registry:
  index: https://index.example.com
  offline: true
publish:
  delay: 30s
  no_verify: true
  registry: internal
  skip: [xtask]
bump:
  commit: true
  allow_dirty: true
`,
			want: &Config{
				Version:  1,
				Registry: RegistryConfig{Index: "https://index.example.com", Offline: true},
				Publish:  PublishConfig{Delay: 30 * time.Second, NoVerify: true, Registry: "internal", Skip: []string{"xtask"}},
				Bump:     BumpConfig{Commit: true, AllowDirty: true},
			},
		},
		{name: "missing version", input: "bump:\n  commit: true\n", wantErr: true},
		{name: "wrong version", input: "version: 2\n", wantErr: true},
		{name: "negative delay", input: "version: 1\npublish:\n  delay: -1s\n", wantErr: true},
		{name: "bad delay", input: "version: 1\npublish:\n  delay: soon\n", wantErr: true},
		{name: "duplicate skip", input: "version: 1\npublish:\n  skip: [a, a]\n", wantErr: true},
		{name: "empty index", input: "version: 1\nregistry:\n  index: \"\"\n", wantErr: true},
		{name: "invalid yaml", input: ":::invalid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadConfig_missingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Registry.Index != registry.DefaultIndex || cfg.Publish.Delay != 5*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	files := testutil.ChainWorkspace()
	files[ConfigFileName] = "version: 1\npublish:\n  skip: [c]\n"
	dir := testutil.WriteFiles(t, files)

	ctx, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ctx.ConfigPath != filepath.Join(ctx.Root, ConfigFileName) {
		t.Errorf("ConfigPath = %q, unexpected", ctx.ConfigPath)
	}
	if ctx.JournalPath != journal.Path(ctx.Root) {
		t.Errorf("JournalPath = %q, unexpected", ctx.JournalPath)
	}
	if ctx.Journal != nil {
		t.Error("Journal should be nil when no journal exists")
	}
	if len(ctx.Packages) != 4 || !ctx.Graph.Contains("d") {
		t.Errorf("packages = %d", len(ctx.Packages))
	}
	if got, want := ctx.PublishTargets(), []string{"a", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PublishTargets() = %v, want %v", got, want)
	}
	want := []string{
		"Cargo.toml",
		filepath.Join("crates", "a", "Cargo.toml"),
		filepath.Join("crates", "b", "Cargo.toml"),
		filepath.Join("crates", "c", "Cargo.toml"),
		filepath.Join("crates", "d", "Cargo.toml"),
	}
	if got := ctx.ManifestPaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("ManifestPaths() = %v, want %v", got, want)
	}
}

func TestLoad_withJournal(t *testing.T) {
	dir := testutil.WriteFiles(t, testutil.ChainWorkspace())
	jf := journal.New("0.1.0", "2026-01-01T00:00:00Z", []string{"d"}, false, []*journal.Package{
		{Name: "a", Version: "1.0.0"},
		{Name: "b", Version: "1.0.0"},
	})
	jf.Mark("a", journal.StatusPublished, nil)
	jf.Mark("b", journal.StatusFailed, errors.New("boom"))
	if err := journal.Save(journal.Path(dir), jf); err != nil {
		t.Fatal(err)
	}

	ctx, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ctx.Journal == nil {
		t.Fatal("Journal should not be nil when a journal exists")
	}
	if got := ctx.Journal.Remaining(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Remaining() = %v", got)
	}
}

func TestLoad_explicitConfig(t *testing.T) {
	dir := testutil.WriteFiles(t, testutil.ChainWorkspace())
	cfgPath := filepath.Join(t.TempDir(), "other.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: 1\nregistry:\n  offline: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	ctx, err := Load(dir, cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !ctx.Config.Registry.Offline {
		t.Error("explicit config was not used")
	}
}

func TestLoad_errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		_, err := Load(t.TempDir(), "")
		if !errors.Is(err, manifest.ErrUnreadableManifest) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("invalid config", func(t *testing.T) {
		files := testutil.ChainWorkspace()
		files[ConfigFileName] = ":::invalid"
		if _, err := Load(testutil.WriteFiles(t, files), ""); err == nil {
			t.Fatal("Load() should fail with invalid config")
		}
	})
	t.Run("cycle", func(t *testing.T) {
		files := testutil.ChainWorkspace()
		files["crates/a/Cargo.toml"] = "[package]\nname = \"a\"\nversion = \"1.0.0\"\n\n[dependencies]\nd = { path = \"../d\", version = \"1.0.0\" }\n"
		_, err := Load(testutil.WriteFiles(t, files), "")
		if !errors.Is(err, graph.ErrCyclicDependency) {
			t.Fatalf("err = %v", err)
		}
	})
}
