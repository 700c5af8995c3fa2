package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/archive"
	"github.com/wasmkiln/wasmkiln/internal/manifest"
	"github.com/wasmkiln/wasmkiln/internal/paths"
	"github.com/wasmkiln/wasmkiln/internal/runtime"
)

// Grace period for sandbox removal once the pipeline has ended. Removal is
// decoupled from the build's cancellation so an interrupt during a long
// compile cannot orphan the sandbox, but it must not hang forever on a stuck
// daemon either.
const removeGrace = 30 * time.Second

// Outcome of one successful package build.
type Result struct {
	Artifact string // Artifact filename placed at the destination.
	Warning  string // Cleanup warning attached to the success, if any.
}

// Builds one package inside a disposable sandbox.
//
// Dependencies are resolved before any sandbox exists, so a resolution
// failure terminates with nothing to clean up. From sandbox start onward,
// removal runs on every exit path, exactly once; its failure is reported as
// a warning and never flips the decided outcome.
func runSandboxed(ctx context.Context, rt *runtime.Runtime, pkg *Package, opts Options) (res *Result, err error) {
	deps, err := manifest.ResolveDependencies(pkg.Dir)
	if err != nil {
		return nil, err
	}

	image, err := rt.Pull(ctx, imageRef(opts.ImageTag))
	if err != nil {
		return nil, err
	}

	sb, err := rt.StartSandbox(ctx, runtime.RandomName(), image)
	if err != nil {
		return nil, err
	}

	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeGrace)
		defer cancel()
		if rerr := sb.Remove(rctx); rerr != nil {
			slog.Warn("sandbox removal failed", "sandbox", sb.Name(), "error", rerr)
			if res != nil {
				res.Warning = "sandbox " + sb.Name() + " could not be removed; " + Hint(ErrCleanup)
			}
		}
	}()

	slog.Info("building package", "package", pkg.Name, "sandbox", sb.Name(), "dependencies", len(deps.Paths))

	for _, dir := range deps.Sorted() {
		if err := sb.Push(ctx, dir); err != nil {
			return nil, err
		}
	}
	if err := sb.Push(ctx, pkg.Dir); err != nil {
		return nil, err
	}

	locked := opts.Locked && pkg.HasLockFile()
	buildLog, err := runSteps(ctx, sb, sandboxPipeline(pkg, locked))
	if err != nil {
		return nil, err
	}

	files, err := sb.PullDir(ctx, resultDir)
	if err != nil {
		return nil, err
	}

	if err := stageArtifacts(files, buildLog, opts.Destination); err != nil {
		return nil, err
	}

	return &Result{Artifact: pkg.Artifact}, nil
}

// Executes pipeline steps in order against the sandbox, short-circuiting on
// the first failure.
//
// Captured output accumulates into the build log, which is returned on
// success and attached to any failure. A step that exceeds its deadline is a
// timeout, distinct from a step that exits non-zero.
func runSteps(ctx context.Context, sb *runtime.Sandbox, steps []Step) (string, error) {
	var log strings.Builder

	for i, step := range steps {
		slog.Debug("step", "index", i+1, "command", step.Args[0], "workdir", step.Workdir)

		result, err := sb.Exec(ctx, runtime.ExecSpec{
			Workdir: step.Workdir,
			Args:    step.Args,
			Capture: step.Capture,
			Timeout: step.Timeout,
		})
		if err != nil {
			if errors.Is(err, runtime.ErrTimeout) {
				err = errors.Wrapf(ErrBuildTimeout, "step %d (%s): %v", i+1, step.Args[0], err)
			}
			return log.String(), &PipelineError{Err: err, Log: log.String()}
		}

		log.WriteString(result.Output)

		if result.ExitCode != 0 {
			return log.String(), &PipelineError{
				Err: errors.Wrapf(ErrBuildLogs, "step %d (%s) exited with code %d", i+1, step.Args[0], result.ExitCode),
				Log: log.String(),
			}
		}
	}

	return log.String(), nil
}

// Writes retrieved artifact files to the destination directory.
//
// Zero retrieved files means the pipeline produced nothing even though every
// step reported success; that is a build failure carrying the accumulated
// log, never an empty success. A write failure is a filesystem-access
// failure, distinct from transport errors.
func stageArtifacts(files []archive.File, buildLog, dest string) error {
	if len(files) == 0 {
		return &PipelineError{
			Err: errors.Wrap(ErrBuildLogs, "pipeline produced no artifact"),
			Log: buildLog,
		}
	}

	for _, f := range files {
		target := filepath.Join(dest, f.Name)
		if err := os.WriteFile(target, f.Content, paths.DefaultFileMode); err != nil {
			return errors.Wrapf(ErrBuild, "writing %s: %v", target, err)
		}
		slog.Debug("artifact staged", "file", target, "bytes", len(f.Content))
	}

	return nil
}
