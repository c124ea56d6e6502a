package manifest

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// writeJobs bounds how many manifests are rewritten concurrently.
const writeJobs = 4

// Apply writes mutations to disk. Mutations are grouped per manifest; each
// manifest is rewritten as one atomic unit (temporary file plus rename), so a
// failure leaves it either fully old or fully new. Distinct manifests are
// written in parallel. The first failure is returned as a *WriteError.
func Apply(ctx context.Context, muts []Mutation) error {
	order, groups := GroupByLocation(muts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(writeJobs)
	for _, loc := range order {
		loc, ms := loc, groups[loc]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &WriteError{Path: loc, Err: err}
			}
			if err := applyFile(loc, ms); err != nil {
				return &WriteError{Path: loc, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// GroupByLocation groups mutations per manifest, returning manifests in order
// of first appearance.
func GroupByLocation(muts []Mutation) ([]string, map[string][]Mutation) {
	var order []string
	groups := make(map[string][]Mutation)
	for _, m := range muts {
		if _, ok := groups[m.Location]; !ok {
			order = append(order, m.Location)
		}
		groups[m.Location] = append(groups[m.Location], m)
	}
	return order, groups
}

func applyFile(path string, muts []Mutation) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is a workspace manifest
	if err != nil {
		return err
	}
	edited, err := applyEdits(data, muts)
	if err != nil {
		return err
	}
	if err := verifyEdits(edited, muts); err != nil {
		return err
	}
	return writeFileAtomic(path, edited, info.Mode().Perm())
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
