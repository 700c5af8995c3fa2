package build

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/manifest"
	"github.com/wasmkiln/wasmkiln/internal/runtime"
)

func TestPipelineError(t *testing.T) {
	inner := errors.Wrap(ErrBuildLogs, "step 3 (wasm-snip) exited with code 1")
	err := &PipelineError{Err: inner, Log: "error[E0599]: no method named `foo`"}

	if !errors.Is(err, ErrBuildLogs) {
		t.Error("PipelineError does not unwrap to its kind")
	}
	if err.Error() != inner.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), inner.Error())
	}

	log, ok := BuildLog(err)
	if !ok {
		t.Fatal("BuildLog found no log")
	}
	if log != "error[E0599]: no method named `foo`" {
		t.Errorf("log = %q", log)
	}
}

func TestBuildLogAbsent(t *testing.T) {
	if _, ok := BuildLog(errors.New("plain failure")); ok {
		t.Error("BuildLog = true for error without a log")
	}
}

func TestTimeoutDistinctFromBuildFailure(t *testing.T) {
	timeout := &PipelineError{Err: errors.Wrap(ErrBuildTimeout, "step 2 (chmod)")}
	failure := &PipelineError{Err: errors.Wrap(ErrBuildLogs, "step 1 (cargo)")}

	if errors.Is(timeout, ErrBuildLogs) {
		t.Error("timeout matches ErrBuildLogs")
	}
	if errors.Is(failure, ErrBuildTimeout) {
		t.Error("build failure matches ErrBuildTimeout")
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string // Substring the hint must contain.
	}{
		{
			name: "manifest not found",
			err:  errors.Wrap(manifest.ErrNotFound, "/src"),
			want: "Cargo.toml",
		},
		{
			name: "invalid source",
			err:  errors.Wrap(ErrInvalidSourcePath, "/src"),
			want: "Source code path",
		},
		{
			name: "invalid destination",
			err:  errors.Wrap(ErrInvalidDestinationPath, "/out"),
			want: "Destination path",
		},
		{
			name: "invalid dependency",
			err:  errors.Wrap(manifest.ErrInvalidDependency, "../lib"),
			want: "dependency",
		},
		{
			name: "unknown image tag",
			err:  errors.Wrap(ErrUnknownImageTag, "latest"),
			want: "mainnet01",
		},
		{
			name: "daemon unreachable",
			err:  errors.Wrap(runtime.ErrDaemon, "dial unix"),
			want: "containerd",
		},
		{
			name: "step timeout",
			err:  errors.Wrap(ErrBuildTimeout, "step 4"),
			want: "deadline",
		},
		{
			name: "cleanup failure",
			err:  errors.Wrap(ErrCleanup, "sandbox x"),
			want: "manually",
		},
		{
			name: "scratch failure",
			err:  errors.Wrap(ErrScratch, "/tmp"),
			want: "cache",
		},
		{
			name: "generic failure",
			err:  errors.New("anything else"),
			want: "Rectify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := Hint(tt.err)
			if hint == "" {
				t.Fatal("empty hint")
			}
			if !strings.Contains(hint, tt.want) {
				t.Errorf("hint %q does not mention %q", hint, tt.want)
			}
		})
	}
}

func TestHintEmbedsBuildLog(t *testing.T) {
	err := &PipelineError{
		Err: errors.Wrap(ErrBuildLogs, "step 1 (cargo) exited with code 101"),
		Log: "error: could not compile `my-contract`",
	}

	hint := Hint(err)
	if !strings.Contains(hint, "could not compile") {
		t.Errorf("hint %q does not embed the build log", hint)
	}
}
