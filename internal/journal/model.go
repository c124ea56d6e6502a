package journal

// Status is the state of one package in a publish run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// File represents publish.lock.yaml.
type File struct {
	Version       int        `yaml:"version"`
	StartedAt     string     `yaml:"started_at"`
	UpdatedAt     string     `yaml:"updated_at"`
	ToolVersion   string     `yaml:"tool_version"`
	Targets       []string   `yaml:"targets,omitempty"`
	AllowOnlyDeps bool       `yaml:"allow_only_deps,omitempty"`
	Packages      []*Package `yaml:"packages"`
}

// Package records one entry of the publish order.
type Package struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Status  Status `yaml:"status"`
	Error   string `yaml:"error,omitempty"`
}

// Remaining returns, in publish order, the packages that were neither
// published nor skipped.
func (f *File) Remaining() []string {
	var out []string
	for _, p := range f.Packages {
		if p.Status != StatusPublished && p.Status != StatusSkipped {
			out = append(out, p.Name)
		}
	}
	return out
}

// Done reports whether every package was published or skipped.
func (f *File) Done() bool {
	return len(f.Remaining()) == 0
}

// Mark sets the status of name. An error message is kept for failures only.
func (f *File) Mark(name string, status Status, err error) {
	for _, p := range f.Packages {
		if p.Name != name {
			continue
		}
		p.Status = status
		p.Error = ""
		if err != nil && status == StatusFailed {
			p.Error = err.Error()
		}
		return
	}
}
