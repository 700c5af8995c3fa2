package manifest

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Resolves a path to an absolute, symlink-free directory and verifies write
// access.
//
// Returns [ErrInvalidPath] when the path does not exist, is not a directory,
// or is not writable by the current user. Dependency trees are written into
// the build workspace, so read-only directories cannot participate in a
// build.
func AbsoluteWritable(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
	}
	if !info.IsDir() {
		return "", errors.Wrapf(ErrInvalidPath, "%s: not a directory", path)
	}

	if err := unix.Access(resolved, unix.W_OK); err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: not writable", path)
	}

	return resolved, nil
}
