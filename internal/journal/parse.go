package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the tool's state directory under the workspace root.
	Dir      = ".cargo-mono"
	FileName = "publish.lock.yaml"

	currentVersion = 1
)

// ErrNoJournal is returned by Load when no journal exists.
var ErrNoJournal = errors.New("no publish journal")

// Path returns the journal path of the workspace at root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// New creates a journal with every package pending.
func New(toolVersion, now string, targets []string, allowOnlyDeps bool, packages []*Package) *File {
	for _, p := range packages {
		p.Status = StatusPending
	}
	return &File{
		Version:       currentVersion,
		StartedAt:     now,
		UpdatedAt:     now,
		ToolVersion:   toolVersion,
		Targets:       targets,
		AllowOnlyDeps: allowOnlyDeps,
		Packages:      packages,
	}
}

// Load reads a journal file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the workspace journal path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoJournal, path)
		}
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return Parse(data)
}

// Parse parses publish.lock.yaml content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing journal YAML: %w", err)
	}
	if f.Version != currentVersion {
		return nil, fmt.Errorf("unsupported journal version %d (expected %d)", f.Version, currentVersion)
	}
	return &f, nil
}

// Save writes the journal to disk, creating its directory if needed.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling journal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // state dir needs to be readable
		return fmt.Errorf("creating journal directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // journal needs to be readable
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}

// Remove deletes the journal. A missing journal is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing journal: %w", err)
	}
	return nil
}
