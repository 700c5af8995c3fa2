package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, Filename), []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		manifest string // Empty means no manifest file at all.
		wantName string
		wantErr  bool
	}{
		{
			name:     "valid manifest",
			manifest: "[package]\nname = \"my-contract\"\nversion = \"0.1.0\"\n",
			wantName: "my-contract",
		},
		{
			name:    "missing manifest",
			wantErr: true,
		},
		{
			name:     "unparseable manifest",
			manifest: "[package\nname =",
			wantErr:  true,
		},
		{
			name:     "no package name",
			manifest: "[package]\nversion = \"0.1.0\"\n",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.manifest != "" {
				writeManifest(t, dir, tt.manifest)
			}

			m, err := Read(dir)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Package.Name != tt.wantName {
				t.Errorf("name = %q, want %q", m.Package.Name, tt.wantName)
			}
		})
	}
}

func TestPackageName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"widget\"\n")

	name, err := PackageName(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "widget" {
		t.Errorf("name = %q, want %q", name, "widget")
	}
}

func TestLocalDependencyPaths(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     []string
	}{
		{
			name: "path dependencies in name order",
			manifest: `[package]
name = "root"

[dependencies]
zeta = { path = "../zeta" }
alpha = { path = "../alpha" }
`,
			want: []string{"../alpha", "../zeta"},
		},
		{
			name: "registry dependencies skipped",
			manifest: `[package]
name = "root"

[dependencies]
serde = "1.0"
local = { path = "../local" }
pinned = { version = "0.2", features = ["derive"] }
`,
			want: []string{"../local"},
		},
		{
			name: "no dependencies",
			manifest: `[package]
name = "root"
`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.manifest)

			m, err := Read(dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := m.LocalDependencyPaths()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("paths = %v, want %v", got, tt.want)
			}
		})
	}
}
