package build

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/wasmkiln/wasmkiln/internal/archive"
)

// One command of the build pipeline.
//
// Steps are data, not code: the pipeline is a fixed ordered sequence with no
// branching beyond short-circuit on the first failure, and both the sandbox
// and host executors consume the same step list.
type Step struct {
	Workdir string        // Working directory for the command.
	Args    []string      // Command and arguments, never shell-concatenated.
	Capture bool          // Collect the command's output into the build log.
	Timeout time.Duration // Completion deadline; zero waits indefinitely.
}

const (

	// Deadline for the fixed-cost post-processing steps. The primary compile
	// step carries no deadline: its duration is workload-dependent.
	stepTimeout = 5 * time.Minute

	// Staging directory for artifacts inside the sandbox.
	resultDir = "/result"

	// Compilation target of the primary build step.
	wasmTarget = "wasm32-unknown-unknown"
)

// Registry repository for sandbox build images.
const imageRepository = "docker.io/wasmkiln/buildenv"

// Versioned allow-list of known sandbox image tags. The first entry is the
// default.
var imageTags = []string{"mainnet01", "0.4.2"}

// Returns the default sandbox image tag.
func DefaultImageTag() string {
	return imageTags[0]
}

// Reports whether tag is on the allow-list of known sandbox images.
func ValidImageTag(tag string) bool {
	return slices.Contains(imageTags, tag)
}

// Returns the full registry reference for an allow-listed tag.
func imageRef(tag string) string {
	return imageRepository + ":" + tag
}

// Returns the fixed step sequence for building pkg inside a sandbox.
//
// The source tree lands under the sandbox root at the sanitized form of its
// host path; the compile output appears in the target's release directory,
// is optimized and stripped in place, and ends up staged under /result.
// With locked set, the compiler must honor the lock file exactly and the
// lock file ships with the artifact.
func sandboxPipeline(pkg *Package, locked bool) []Step {
	code := "/" + archive.SanitizeRoot(pkg.Dir)
	release := code + "/target/" + wasmTarget + "/release"

	steps := []Step{
		{Workdir: code, Args: cargoArgs(locked), Capture: true},
		{Workdir: release, Args: []string{"chmod", "+x", "/root/bin/wasm-opt"}, Timeout: stepTimeout},
		{Workdir: release, Args: []string{"/root/bin/wasm-opt", "-Oz", pkg.Artifact, "--output", "temp.wasm"}, Timeout: stepTimeout},
		{Workdir: release, Args: []string{"wasm-snip", "temp.wasm", "--output", "temp2.wasm", "--snip-rust-fmt-code", "--snip-rust-panicking-code"}, Timeout: stepTimeout},
		{Workdir: release, Args: []string{"/root/bin/wasm-opt", "--dce", "temp2.wasm", "--output", "optimized.wasm"}, Timeout: stepTimeout},
		{Workdir: release, Args: []string{"mkdir", "-p", resultDir}, Timeout: stepTimeout},
		{Workdir: release, Args: []string{"mv", "optimized.wasm", resultDir + "/" + pkg.Artifact}, Timeout: stepTimeout},
	}

	if locked {
		steps = append(steps, Step{
			Workdir: code,
			Args:    []string{"cp", lockFilename, resultDir + "/"},
			Timeout: stepTimeout,
		})
	}

	return steps
}

// Returns the equivalent step sequence executed directly on the host.
//
// Temporaries live in the scratch directory; the final optimization pass
// writes the artifact straight into the destination, so there is no staging
// or retrieval.
func hostPipeline(pkg *Package, scratch, dest string, locked bool) []Step {
	release := filepath.Join(pkg.Dir, "target", wasmTarget, "release")
	temp1 := filepath.Join(scratch, "temp.wasm")
	temp2 := filepath.Join(scratch, "temp2.wasm")

	steps := []Step{
		{Workdir: pkg.Dir, Args: cargoArgs(locked), Capture: true},
		{Workdir: release, Args: []string{"wasm-opt", "-Oz", pkg.Artifact, "--output", temp1}, Timeout: stepTimeout},
		{Workdir: scratch, Args: []string{"wasm-snip", temp1, "--output", temp2, "--snip-rust-fmt-code", "--snip-rust-panicking-code"}, Timeout: stepTimeout},
		{Workdir: scratch, Args: []string{"wasm-opt", "--dce", temp2, "--output", filepath.Join(dest, pkg.Artifact)}, Timeout: stepTimeout},
	}

	if locked {
		steps = append(steps, Step{
			Workdir: pkg.Dir,
			Args:    []string{"cp", lockFilename, dest + string(filepath.Separator)},
			Timeout: stepTimeout,
		})
	}

	return steps
}

// Returns the primary compile command.
func cargoArgs(locked bool) []string {
	args := []string{"cargo", "build", "--target", wasmTarget, "--release", "--quiet"}
	if locked {
		args = append(args, "--locked")
	}
	return args
}
