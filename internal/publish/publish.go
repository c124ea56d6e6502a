package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fbkclanna/cargo-mono/internal/graph"
	"github.com/fbkclanna/cargo-mono/internal/manifest"
	"github.com/fbkclanna/cargo-mono/internal/semver"
	"github.com/fbkclanna/cargo-mono/internal/ui"
)

// DefaultDelay is the pause between two publishes, giving the registry time
// to make the previous package resolvable.
const DefaultDelay = 5 * time.Second

// Invoker performs the actual publish of one package.
type Invoker interface {
	Publish(ctx context.Context, p *manifest.Package) error
}

// Event describes the outcome of one package of a run.
type Event struct {
	Package  string
	Version  string
	Status   ui.Status
	Duration time.Duration
	Err      error
}

// Result lists what a successful run did, in publish order.
type Result struct {
	Published []string
	Skipped   []string
}

// Runner publishes packages in order.
type Runner struct {
	invoker   Invoker
	published map[string]semver.Version
	delay     time.Duration
	dryRun    bool
	out       io.Writer
	logger    *slog.Logger
	observers []func(Event)
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublished sets the published version of each package. Packages whose
// local version is not newer are skipped.
func WithPublished(v map[string]semver.Version) Option {
	return func(r *Runner) { r.published = v }
}

// WithDelay sets the pause between consecutive publishes.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) { r.delay = d }
}

// WithDryRun reports what would be published without invoking anything.
func WithDryRun(dry bool) Option {
	return func(r *Runner) { r.dryRun = dry }
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithObserver registers fn to be called after every package.
func WithObserver(fn func(Event)) Option {
	return func(r *Runner) { r.observers = append(r.observers, fn) }
}

// NewRunner creates a runner publishing through inv.
func NewRunner(inv Invoker, opts ...Option) *Runner {
	r := &Runner{
		invoker: inv,
		delay:   DefaultDelay,
		out:     io.Discard,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run publishes order, which must already be dependency-ordered (see
// graph.PublishOrder). It stops at the first failure and returns an *Error;
// nothing after the failed package is attempted.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, order []string) (*Result, error) {
	res := &Result{}
	progress := ui.NewProgress(r.out, len(order))
	publishedAny := false

	for i, name := range order {
		fail := func(err error) (*Result, error) {
			r.notify(Event{Package: name, Status: ui.StatusFailed, Err: err})
			progress.Step(ui.StatusFailed, name)
			return nil, &Error{
				Package:   name,
				Published: append([]string(nil), order[:i]...),
				Remaining: append([]string(nil), order[i:]...),
				Err:       err,
			}
		}

		p, err := g.Package(name)
		if err != nil {
			return fail(err)
		}
		label := p.Name + " " + p.Version

		needed, err := NeedsPublish(p, r.published)
		if err != nil {
			return fail(err)
		}
		if !needed {
			r.logger.Debug("skipping", "package", name, "version", p.Version, "published", r.published[name].String())
			res.Skipped = append(res.Skipped, name)
			r.notify(Event{Package: name, Version: p.Version, Status: ui.StatusSkipped})
			progress.Step(ui.StatusSkipped, label)
			continue
		}
		if r.dryRun {
			res.Published = append(res.Published, name)
			r.notify(Event{Package: name, Version: p.Version, Status: ui.StatusPlanned})
			progress.Step(ui.StatusPlanned, label)
			continue
		}

		if publishedAny && r.delay > 0 {
			progress.Log("waiting %s for the registry", r.delay)
			if err := r.sleep(ctx, r.delay); err != nil {
				return fail(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		start := time.Now()
		r.logger.Debug("publishing", "package", name, "version", p.Version)
		if err := r.invoker.Publish(ctx, p); err != nil {
			return fail(err)
		}
		publishedAny = true
		res.Published = append(res.Published, name)
		r.notify(Event{Package: name, Version: p.Version, Status: ui.StatusPublished, Duration: time.Since(start)})
		progress.Step(ui.StatusPublished, label)
	}
	return res, nil
}

func (r *Runner) notify(e Event) {
	for _, fn := range r.observers {
		fn(e)
	}
}

// NeedsPublish reports whether p's local version is newer than its published
// version. Packages never published always need publishing.
func NeedsPublish(p *manifest.Package, published map[string]semver.Version) (bool, error) {
	prev, ok := published[p.Name]
	if !ok || prev.IsZero() {
		return true, nil
	}
	local, err := semver.ParseVersion(p.Version)
	if err != nil {
		return false, fmt.Errorf("%s: %w", p.Name, err)
	}
	return semver.Less(prev, local), nil
}

// CheckTargets fails with ErrAlreadyPublished if any target's local version
// is not newer than its published version.
func CheckTargets(g *graph.Graph, targets []string, published map[string]semver.Version) error {
	for _, t := range targets {
		p, err := g.Package(t)
		if err != nil {
			return err
		}
		needed, err := NeedsPublish(p, published)
		if err != nil {
			return err
		}
		if !needed {
			return fmt.Errorf("%w: %s %s (published: %s); bump it or pass --allow-only-deps",
				ErrAlreadyPublished, p.Name, p.Version, published[t])
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
