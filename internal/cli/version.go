package cli

import (
	"fmt"

	"github.com/wasmkiln/wasmkiln/internal"
)

// Represents the `version` subcommand.
type VersionCmd struct{}

// Prints the version string.
func (c *VersionCmd) Run() error {
	fmt.Println(internal.VersionString())
	return nil
}
