package build

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/paths"
)

// Builds one package directly on the host, without a sandbox.
//
// The pipeline shape matches the sandboxed path minus transfer and
// retrieval: the same steps run against the host filesystem with
// temporaries in a scratch directory, and the final pass writes the
// artifact straight into the destination. The scratch directory is removed
// unconditionally. The host must provide the toolchain (cargo with the wasm
// target, wasm-opt, wasm-snip); builds here are not reproducible across
// machines the way sandboxed builds are.
func runLocal(ctx context.Context, pkg *Package, opts Options) (*Result, error) {
	scratch := filepath.Join(paths.Scratch(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	if err := os.MkdirAll(scratch, paths.DefaultDirMode); err != nil {
		return nil, errors.Wrapf(ErrScratch, "%s: %v", scratch, err)
	}
	defer os.RemoveAll(scratch)

	slog.Info("building package on host", "package", pkg.Name, "scratch", scratch)

	locked := opts.Locked && pkg.HasLockFile()
	if _, err := runHostSteps(ctx, hostPipeline(pkg, scratch, opts.Destination, locked)); err != nil {
		return nil, err
	}

	return &Result{Artifact: pkg.Artifact}, nil
}

// Executes pipeline steps as host processes, short-circuiting on the first
// failure. Mirrors the sandbox executor's log accumulation and its timeout
// versus non-zero-exit distinction.
func runHostSteps(ctx context.Context, steps []Step) (string, error) {
	var log strings.Builder

	for i, step := range steps {
		slog.Debug("host step", "index", i+1, "command", step.Args[0], "workdir", step.Workdir)

		output, err := runHostStep(ctx, step)
		if step.Capture || err != nil {
			log.WriteString(output)
		}
		if err != nil {
			return log.String(), &PipelineError{
				Err: errors.Wrapf(err, "step %d", i+1),
				Log: log.String(),
			}
		}
	}

	return log.String(), nil
}

// Runs one pipeline step as a host process, returning its combined output.
//
// A step with a deadline that runs past it yields [ErrBuildTimeout]; a step
// that exits non-zero yields [ErrBuildLogs]. The caller attaches the
// accumulated log.
func runHostStep(ctx context.Context, step Step) (string, error) {
	runCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, step.Args[0], step.Args[1:]...)
	cmd.Dir = step.Workdir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return string(out), errors.Wrapf(ErrBuildTimeout, "%s: after %s", step.Args[0], step.Timeout)
		}
		return string(out), errors.Wrapf(ErrBuildLogs, "%s: %v", step.Args[0], err)
	}

	return string(out), nil
}
