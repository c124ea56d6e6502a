package bump

import (
	"io"
	"log/slog"

	"github.com/fbkclanna/cargo-mono/internal/semver"
)

// Option configures Compute.
type Option func(*config)

type config struct {
	baselines map[string]semver.Version
	logger    *slog.Logger
}

// WithBaselines sets the last released version of each package. A package's
// new version is computed from its baseline rather than its manifest version,
// so re-running a bump that has already been applied changes nothing.
// Packages without a baseline use their manifest version.
func WithBaselines(b map[string]semver.Version) Option {
	return func(c *config) {
		c.baselines = b
	}
}

// WithLogger sets the logger for planning decisions. The default discards
// everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
