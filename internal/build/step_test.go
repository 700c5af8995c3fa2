package build

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testPackage() *Package {
	return &Package{
		Dir:      "/home/dev/my contract",
		Name:     "my-contract",
		Artifact: "my_contract.wasm",
	}
}

func TestSandboxPipeline(t *testing.T) {
	steps := sandboxPipeline(testPackage(), false)

	if len(steps) != 7 {
		t.Fatalf("got %d steps, want 7", len(steps))
	}

	// The compile step captures its output and runs unbounded.
	first := steps[0]
	wantArgs := []string{"cargo", "build", "--target", wasmTarget, "--release", "--quiet"}
	if !reflect.DeepEqual(first.Args, wantArgs) {
		t.Errorf("compile args = %v, want %v", first.Args, wantArgs)
	}
	if !first.Capture {
		t.Error("compile step does not capture output")
	}
	if first.Timeout != 0 {
		t.Errorf("compile timeout = %v, want none", first.Timeout)
	}
	if first.Workdir != "/home/dev/my_contract" {
		t.Errorf("compile workdir = %q, want sanitized source root", first.Workdir)
	}

	// Post-processing steps run bounded and uncaptured.
	for i, step := range steps[1:] {
		if step.Timeout != stepTimeout {
			t.Errorf("step %d timeout = %v, want %v", i+2, step.Timeout, stepTimeout)
		}
		if step.Capture {
			t.Errorf("step %d captures output", i+2)
		}
	}

	last := steps[len(steps)-1]
	wantLast := []string{"mv", "optimized.wasm", resultDir + "/my_contract.wasm"}
	if !reflect.DeepEqual(last.Args, wantLast) {
		t.Errorf("final args = %v, want %v", last.Args, wantLast)
	}
}

func TestSandboxPipelineLocked(t *testing.T) {
	steps := sandboxPipeline(testPackage(), true)

	if len(steps) != 8 {
		t.Fatalf("got %d steps, want 8", len(steps))
	}

	if got := steps[0].Args[len(steps[0].Args)-1]; got != "--locked" {
		t.Errorf("compile step last arg = %q, want --locked", got)
	}

	last := steps[len(steps)-1]
	wantLast := []string{"cp", lockFilename, resultDir + "/"}
	if !reflect.DeepEqual(last.Args, wantLast) {
		t.Errorf("lock-ship args = %v, want %v", last.Args, wantLast)
	}
}

func TestHostPipeline(t *testing.T) {
	pkg := &Package{
		Dir:      "/abs/src",
		Name:     "widget",
		Artifact: "widget.wasm",
	}
	scratch := "/abs/scratch"
	dest := "/abs/out"

	steps := hostPipeline(pkg, scratch, dest, false)

	if len(steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(steps))
	}

	if steps[0].Workdir != pkg.Dir {
		t.Errorf("compile workdir = %q, want %q", steps[0].Workdir, pkg.Dir)
	}

	// The final pass writes the artifact straight into the destination.
	last := steps[len(steps)-1]
	wantOut := filepath.Join(dest, pkg.Artifact)
	if got := last.Args[len(last.Args)-1]; got != wantOut {
		t.Errorf("final output = %q, want %q", got, wantOut)
	}

	// Intermediates stay in scratch.
	for _, step := range steps[1:] {
		for _, arg := range step.Args {
			if strings.HasSuffix(arg, "temp.wasm") && !strings.HasPrefix(arg, scratch) {
				t.Errorf("intermediate %q outside scratch", arg)
			}
		}
	}
}

func TestImageTags(t *testing.T) {
	if got := DefaultImageTag(); got != "mainnet01" {
		t.Errorf("DefaultImageTag = %q, want %q", got, "mainnet01")
	}

	tests := []struct {
		tag  string
		want bool
	}{
		{"mainnet01", true},
		{"0.4.2", true},
		{"latest", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidImageTag(tt.tag); got != tt.want {
			t.Errorf("ValidImageTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}

	if got := imageRef("mainnet01"); got != imageRepository+":mainnet01" {
		t.Errorf("imageRef = %q", got)
	}
}
