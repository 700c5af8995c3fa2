package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "wasmkiln"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the cache directory for build state.
//
//	Linux:   ~/.cache/wasmkiln
//	macOS:   ~/Library/Caches/wasmkiln
func Cache() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Path to the directory for sandboxless scratch workspaces.
//
// Each host build creates a uniquely named subdirectory here and removes it
// when the build finishes.
//
//	Linux:   ~/.cache/wasmkiln/scratch
//	macOS:   ~/Library/Caches/wasmkiln/scratch
func Scratch() string {
	return filepath.Join(Cache(), "scratch")
}
