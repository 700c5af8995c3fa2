package build

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wasmkiln/wasmkiln/internal/manifest"
	"github.com/wasmkiln/wasmkiln/internal/paths"
	"github.com/wasmkiln/wasmkiln/internal/runtime"
)

// Controls a batch build.
type Options struct {
	Sources     []string // Package root directories, one independent build each.
	Destination string   // Output directory; empty means the current directory.
	Sandboxless bool     // Run the pipeline on the host instead of a sandbox.
	ImageTag    string   // Sandbox image tag; empty selects the default.
	Locked      bool     // Honor the dependency lock file exactly and ship it with the artifact.
	Address     string   // Containerd socket; empty selects the default.
	Namespace   string   // Containerd namespace; empty selects the default.
}

// One successfully built package.
type Success struct {
	Name    string // Artifact filename.
	Path    string // Destination directory holding the artifact.
	Warning string // Best-effort cleanup warning, if any.
}

// One failed package build.
type Failure struct {
	Source string // Package root directory as requested.
	Err    error  // Typed failure; [Hint] yields the remediation text.
}

// Partitioned outcome of a batch build. A report with both successes and
// failures is a valid mixed outcome, not a fatal condition.
type Report struct {
	Succeeded []Success
	Failed    []Failure
}

// Builds every source package concurrently and reports partitioned results.
//
// Batch-level validation happens up front: an empty source list is a usage
// error, the destination must resolve to a writable directory, and an
// unrecognized image tag fails fast before any sandbox work. Per-package
// failures never abort sibling builds.
func Build(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("no source packages given")
	}

	dest, err := prepareDestination(opts.Destination)
	if err != nil {
		return nil, err
	}
	opts.Destination = dest

	if opts.Sandboxless {
		run := func(ctx context.Context, source string) (*Result, error) {
			pkg, err := LoadPackage(source)
			if err != nil {
				return nil, err
			}
			return runLocal(ctx, pkg, opts)
		}
		return fanOut(ctx, opts.Sources, dest, run), nil
	}

	if opts.ImageTag == "" {
		opts.ImageTag = DefaultImageTag()
	}
	if !ValidImageTag(opts.ImageTag) {
		return nil, errors.Wrapf(ErrUnknownImageTag, "%s", opts.ImageTag)
	}

	address := opts.Address
	if address == "" {
		address = runtime.DefaultAddress
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = runtime.DefaultNamespace
	}

	// One client serves all concurrent builds; it carries no per-build state.
	rt, err := runtime.New(address, namespace)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	run := func(ctx context.Context, source string) (*Result, error) {
		pkg, err := LoadPackage(source)
		if err != nil {
			return nil, err
		}
		return runSandboxed(ctx, rt, pkg, opts)
	}
	return fanOut(ctx, opts.Sources, dest, run), nil
}

// Launches one orchestration per source and merges isolated per-task results
// after all complete.
//
// Each task writes only its own slot, so no result state is shared between
// concurrent builds and the report order matches the requested order.
func fanOut(ctx context.Context, sources []string, dest string, run func(context.Context, string) (*Result, error)) *Report {
	type outcome struct {
		res *Result
		err error
	}
	outcomes := make([]outcome, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		g.Go(func() error {
			res, err := run(ctx, source)
			outcomes[i] = outcome{res: res, err: err}
			return nil
		})
	}
	g.Wait()

	report := &Report{}
	for i, o := range outcomes {
		if o.err != nil {
			report.Failed = append(report.Failed, Failure{Source: sources[i], Err: o.err})
			continue
		}
		report.Succeeded = append(report.Succeeded, Success{
			Name:    o.res.Artifact,
			Path:    dest,
			Warning: o.res.Warning,
		})
	}
	return report
}

// Resolves the destination directory, creating it if needed.
func prepareDestination(dest string) (string, error) {
	if dest == "" {
		dest = "."
	}

	if err := os.MkdirAll(dest, paths.DefaultDirMode); err != nil {
		return "", errors.Wrapf(ErrInvalidDestinationPath, "%s: %v", dest, err)
	}

	abs, err := manifest.AbsoluteWritable(dest)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidDestinationPath, "%s: %v", dest, err)
	}

	return abs, nil
}
