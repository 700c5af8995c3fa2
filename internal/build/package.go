package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/manifest"
)

// Extension of the output artifact.
const artifactExt = ".wasm"

// One buildable unit. Created at orchestration start from a validated source
// path and immutable afterwards.
type Package struct {
	Dir      string // Absolute source directory.
	Name     string // Package name declared in the manifest.
	Artifact string // Output artifact filename derived from the name.
}

// Loads the package rooted at dir.
//
// The directory must be an absolute, writable path ([ErrInvalidSourcePath]
// otherwise) containing a parseable manifest.
func LoadPackage(dir string) (*Package, error) {
	abs, err := manifest.AbsoluteWritable(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSourcePath, "%s: %v", dir, err)
	}

	name, err := manifest.PackageName(abs)
	if err != nil {
		return nil, err
	}

	return &Package{
		Dir:      abs,
		Name:     name,
		Artifact: ArtifactName(name),
	}, nil
}

// Derives the output artifact filename from a package name.
//
// Hyphens become underscores, matching the filename the compiler itself
// produces for the package.
func ArtifactName(name string) string {
	return strings.ReplaceAll(name, "-", "_") + artifactExt
}

// Reports whether the package carries a dependency lock file.
func (p *Package) HasLockFile() bool {
	_, err := os.Stat(filepath.Join(p.Dir, lockFilename))
	return err == nil
}

// Filename of the dependency lock file.
const lockFilename = "Cargo.lock"
