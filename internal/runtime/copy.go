package runtime

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/archive"
)

// Pushes a host directory tree into the sandbox.
//
// The tree is packed into a compressed archive rooted at the sanitized form
// of localDir, written to a local temporary file, then streamed into the
// sandbox and extracted under its root. The temporary archive is deleted
// regardless of the upload outcome.
func (s *Sandbox) Push(ctx context.Context, localDir string) error {
	root := archive.SanitizeRoot(localDir)

	tmp, err := os.CreateTemp("", "wasmkiln-*.tar.gz")
	if err != nil {
		return errors.Wrapf(ErrDaemon, "creating archive: %v", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := archive.Pack(localDir, root, tmp); err != nil {
		return errors.Wrapf(ErrDaemon, "archiving %s: %v", localDir, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(ErrDaemon, "rewinding archive: %v", err)
	}

	if err := s.mustExec(ctx, "tar extract", tmp, nil, "tar", "xzf", "-", "-C", "/"); err != nil {
		return err
	}

	slog.Debug("pushed", "dir", localDir, "root", root, "sandbox", s.id)
	return nil
}

// Pulls a directory from the sandbox, returning its non-empty regular files.
//
// The directory is archived inside the sandbox, streamed out, and unpacked
// in memory. Directory entries and zero-byte files are dropped; the caller
// decides whether an empty result is acceptable.
func (s *Sandbox) PullDir(ctx context.Context, remoteDir string) ([]archive.File, error) {
	var buf bytes.Buffer
	err := s.mustExec(ctx, "tar archive", nil, &buf,
		"tar", "czf", "-", "-C", path.Dir(remoteDir), path.Base(remoteDir))
	if err != nil {
		return nil, err
	}

	files, err := archive.Unpack(&buf)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "unpacking %s: %v", remoteDir, err)
	}

	slog.Debug("pulled", "dir", remoteDir, "files", len(files), "sandbox", s.id)
	return files, nil
}

// Helper method that runs a command inside the sandbox, returning an error
// that includes desc if the process exits with a non-zero code.
func (s *Sandbox) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	pspec, err := s.processSpec(ctx, "", args)
	if err != nil {
		return errors.Wrapf(ErrDaemon, "preparing %s: %v", desc, err)
	}

	var stderr bytes.Buffer
	if stdout == nil {
		stdout = io.Discard
	}

	exitCode, err := s.execProcess(ctx, pspec, stdin, stdout, &stderr, 0)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return errors.Wrapf(ErrDaemon, "%s failed with exit code %d (%s)", desc, exitCode, stderr.String())
	}
	return nil
}
