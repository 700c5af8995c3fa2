package manifest

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Filename of the package manifest.
const Filename = "Cargo.toml"

// A parsed package manifest.
type Manifest struct {
	Package      Package        `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

// The package section of a manifest.
type Package struct {
	Name string `toml:"name"`
}

// Reads and parses the manifest in the given directory.
//
// Returns [ErrNotFound] when the manifest file is absent, unreadable, or
// unparseable, or when it declares no package name.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "%s: %v", dir, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrNotFound, "%s: %v", dir, err)
	}

	if m.Package.Name == "" {
		return nil, errors.Wrapf(ErrNotFound, "%s: manifest declares no package name", dir)
	}

	return &m, nil
}

// Returns the package name declared in the manifest at dir.
func PackageName(dir string) (string, error) {
	m, err := Read(dir)
	if err != nil {
		return "", err
	}
	return m.Package.Name, nil
}

// Returns the local filesystem paths declared by the manifest's dependencies,
// in dependency-name order.
//
// A dependency carries a local path when its value is a table with a "path"
// entry. Plain version-string dependencies and tables without a path are
// registry dependencies and are skipped.
func (m *Manifest) LocalDependencyPaths() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		detail, ok := m.Dependencies[name].(map[string]any)
		if !ok {
			continue
		}
		if p, ok := detail["path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
