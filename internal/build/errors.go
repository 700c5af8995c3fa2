package build

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/manifest"
	"github.com/wasmkiln/wasmkiln/internal/runtime"
)

var (
	ErrInvalidSourcePath      = errors.New("invalid source path")
	ErrInvalidDestinationPath = errors.New("invalid destination path")
	ErrBuild                  = errors.New("build failure")
	ErrBuildLogs              = errors.New("build failure, log available")
	ErrBuildTimeout           = errors.New("build step timed out")
	ErrCleanup                = errors.New("sandbox removal failed")
	ErrScratch                = errors.New("cannot create scratch directory")
	ErrUnknownImageTag        = errors.New("unknown image tag")
)

// Carries the accumulated build log alongside a pipeline failure, so
// diagnostics survive the sandbox that produced them.
type PipelineError struct {
	Err error  // Underlying failure kind.
	Log string // Captured tool output up to the point of failure.
}

func (e *PipelineError) Error() string {
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Extracts the captured build log from an error chain.
func BuildLog(err error) (string, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Log, true
	}
	return "", false
}

// Returns a human-oriented remediation hint for a build failure.
//
// The short error text names the category; the hint tells the user what to
// do about it.
func Hint(err error) string {
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return "Manifest file not found. Check that a Cargo.toml exists at the source code path."

	case errors.Is(err, ErrInvalidSourcePath):
		return "Source code path not valid. Check that the path points to your source directory and that you have write access to it."

	case errors.Is(err, ErrInvalidDestinationPath):
		return "Destination path not valid. Check that the path for saving the optimized wasm binary exists or can be created, and that you have write access to it."

	case errors.Is(err, manifest.ErrInvalidDependency):
		return "A dependency path declared in the manifest is not valid. Check the local path-dependencies of your source code and confirm write access to them."

	case errors.Is(err, ErrUnknownImageTag):
		return "The sandbox image tag is not recognised. Known tags: " + strings.Join(imageTags, ", ") + "."

	case errors.Is(err, runtime.ErrDaemon):
		return "The sandbox daemon did not respond. Check that containerd is running on your machine and that you have access to its socket."

	case errors.Is(err, ErrBuildTimeout):
		return "A post-processing step ran past its deadline. The sandbox daemon may be stuck; retry the build."

	case errors.Is(err, ErrBuildLogs):
		hint := "There may be problems in the source code."
		if log, ok := BuildLog(err); ok && log != "" {
			hint += " Build log follows:\n\n" + log
		}
		return hint

	case errors.Is(err, ErrBuild):
		return "Rectify the reported error and build your source code again."

	case errors.Is(err, ErrScratch):
		return "The sandboxless build needs a temporary working directory. Check that the cache directory is writable."

	case errors.Is(err, ErrCleanup):
		return "The build succeeded, but its sandbox could not be removed. Please remove it manually."
	}

	return "Rectify the reported error and build your source code again."
}
