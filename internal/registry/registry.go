// Package registry reads published package versions from a Cargo sparse
// registry index such as https://index.crates.io.
package registry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fbkclanna/cargo-mono/internal/semver"
)

// DefaultIndex is the crates.io sparse index.
const DefaultIndex = "https://index.crates.io"

// lookupJobs bounds concurrent index requests in LatestAll.
const lookupJobs = 8

// Client looks up published versions. Results are cached for the lifetime of
// the client, including "not published" answers.
type Client struct {
	index     string
	client    *http.Client
	userAgent string
	logger    *slog.Logger
	cache     sync.Map // name -> lookup
}

type lookup struct {
	version semver.Version
	found   bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Client) { r.client = c }
}

// WithUserAgent sets the User-Agent header sent to the index.
func WithUserAgent(ua string) Option {
	return func(r *Client) { r.userAgent = ua }
}

// WithLogger sets the logger for index requests.
func WithLogger(l *slog.Logger) Option {
	return func(r *Client) { r.logger = l }
}

// New creates a client for the sparse index at index. An empty index selects
// DefaultIndex.
func New(index string, opts ...Option) *Client {
	if index == "" {
		index = DefaultIndex
	}
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		index: strings.TrimSuffix(index, "/"),
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		userAgent: "cargo-mono",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// IndexPath returns the index file path of a package name:
// 1/{name}, 2/{name}, 3/{first char}/{name} or {ab}/{cd}/{name}.
func IndexPath(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 0:
		return ""
	case 1:
		return "1/" + name
	case 2:
		return "2/" + name
	case 3:
		return "3/" + name[:1] + "/" + name
	default:
		return name[:2] + "/" + name[2:4] + "/" + name
	}
}

// Latest returns the highest version of name ever published, yanked versions
// included since they can never be published again. found is false if the
// index has no entry for name.
func (c *Client) Latest(ctx context.Context, name string) (v semver.Version, found bool, err error) {
	if cached, ok := c.cache.Load(name); ok {
		l := cached.(lookup)
		return l.version, l.found, nil
	}

	url := c.index + "/" + IndexPath(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return semver.Version{}, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return semver.Version{}, false, fmt.Errorf("fetching index entry of %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
		// Sparse registries may answer 403 for unknown names.
		c.logger.Debug("not published", "package", name, "status", resp.StatusCode)
		c.cache.Store(name, lookup{})
		return semver.Version{}, false, nil
	default:
		return semver.Version{}, false, fmt.Errorf("index returned status %d for %s", resp.StatusCode, name)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return semver.Version{}, false, fmt.Errorf("reading index entry of %s: %w", name, err)
	}
	v, found, err = parseEntries(data)
	if err != nil {
		return semver.Version{}, false, fmt.Errorf("parsing index entry of %s: %w", name, err)
	}
	c.logger.Debug("published version", "package", name, "version", v.String())
	c.cache.Store(name, lookup{version: v, found: found})
	return v, found, nil
}

// LatestAll looks up names concurrently. Packages that were never published
// are absent from the result.
func (c *Client) LatestAll(ctx context.Context, names []string) (map[string]semver.Version, error) {
	var mu sync.Mutex
	out := make(map[string]semver.Version, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupJobs)
	for _, name := range names {
		name := name
		g.Go(func() error {
			v, found, err := c.Latest(ctx, name)
			if err != nil {
				return err
			}
			if found {
				mu.Lock()
				out[name] = v
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// indexEntry is one line of a sparse index file.
type indexEntry struct {
	Name   string `json:"name"`
	Vers   string `json:"vers"`
	Yanked bool   `json:"yanked"`
}

func parseEntries(data []byte) (semver.Version, bool, error) {
	var (
		latest semver.Version
		found  bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var e indexEntry
		if err := json.Unmarshal(text, &e); err != nil {
			return semver.Version{}, false, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := semver.ParseVersion(e.Vers)
		if err != nil {
			return semver.Version{}, false, fmt.Errorf("line %d: %w", line, err)
		}
		latest = semver.Max(latest, v)
		found = true
	}
	if err := sc.Err(); err != nil {
		return semver.Version{}, false, err
	}
	return latest, found, nil
}
