package manifest

import (
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Result of resolving a package's local dependency graph.
type Resolution struct {
	Paths   map[string]struct{} // Absolute dependency directories, excluding the package root.
	Ignored []string            // Directories whose own dependencies could not be resolved further.
}

// Returns the resolved dependency directories in sorted order.
func (r *Resolution) Sorted() []string {
	paths := make([]string, 0, len(r.Paths))
	for p := range r.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Resolves every local path-dependency reachable from the package at root.
//
// The root manifest must parse ([ErrNotFound] otherwise) and each of its
// local dependencies must resolve to an absolute writable directory
// ([ErrInvalidDependency] otherwise). Below the first level, resolution is
// best-effort: a dependency whose own manifest fails to resolve is kept in
// the result and recorded in Ignored. Directories already in the set are not
// revisited, so cyclic and diamond graphs terminate. The package root itself
// is never part of the result.
func ResolveDependencies(root string) (*Resolution, error) {
	rootAbs, err := AbsoluteWritable(root)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Paths: make(map[string]struct{})}
	if err := res.resolve(rootAbs, rootAbs); err != nil {
		return nil, err
	}

	for _, dir := range res.Ignored {
		slog.Debug("dependency resolved partially", "dir", dir)
	}

	return res, nil
}

// Resolves the local dependencies declared by the manifest at dir, recursing
// into each newly discovered directory.
//
// Recursion failures are swallowed: the failing directory stays in the set
// and is appended to Ignored. Only errors at the current level propagate, so
// the top-level call is strict and everything below it is best-effort.
func (r *Resolution) resolve(dir, rootAbs string) error {
	m, err := Read(dir)
	if err != nil {
		return err
	}

	for _, depPath := range m.LocalDependencyPaths() {
		// Try the path as given, then relative to the declaring package.
		abs, err := AbsoluteWritable(depPath)
		if err != nil {
			abs, err = AbsoluteWritable(filepath.Join(dir, depPath))
		}
		if err != nil {
			return errors.Wrapf(ErrInvalidDependency, "%s: %v", depPath, err)
		}

		if abs == rootAbs {
			continue
		}
		if _, seen := r.Paths[abs]; seen {
			continue
		}
		r.Paths[abs] = struct{}{}

		if err := r.resolve(abs, rootAbs); err != nil {
			r.Ignored = append(r.Ignored, abs)
		}
	}

	return nil
}
