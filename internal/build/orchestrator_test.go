package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/archive"
)

func TestStageArtifacts(t *testing.T) {
	dest := t.TempDir()

	files := []archive.File{
		{Name: "my_contract.wasm", Content: []byte{0x00, 0x61, 0x73, 0x6d}},
		{Name: "Cargo.lock", Content: []byte("# lock")},
	}

	if err := stageArtifacts(files, "", dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, f := range files {
		got, err := os.ReadFile(filepath.Join(dest, f.Name))
		if err != nil {
			t.Fatalf("reading staged %s: %v", f.Name, err)
		}
		if string(got) != string(f.Content) {
			t.Errorf("%s content = %q, want %q", f.Name, got, f.Content)
		}
	}
}

func TestStageArtifactsEmpty(t *testing.T) {
	err := stageArtifacts(nil, "warning: unused variable", t.TempDir())
	if !errors.Is(err, ErrBuildLogs) {
		t.Fatalf("error = %v, want ErrBuildLogs", err)
	}

	log, ok := BuildLog(err)
	if !ok {
		t.Fatal("failure carries no build log")
	}
	if log != "warning: unused variable" {
		t.Errorf("log = %q", log)
	}
}

func TestStageArtifactsWriteFailure(t *testing.T) {
	files := []archive.File{{Name: "out.wasm", Content: []byte("x")}}

	err := stageArtifacts(files, "", filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("error = %v, want ErrBuild", err)
	}
	if errors.Is(err, ErrBuildLogs) {
		t.Error("write failure matched ErrBuildLogs")
	}
}
