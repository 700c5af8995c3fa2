package cli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/wasmkiln/wasmkiln/internal/build"
)

// Represents the `build` subcommand.
type BuildCmd struct {
	Source      []string `short:"s" required:"" placeholder:"DIR" help:"Path to a package source directory. Repeat to build multiple packages in one run."`
	Destination string   `short:"o" placeholder:"DIR" help:"Directory where artifacts are saved. Defaults to the current directory."`
	Sandboxless bool     `xor:"backend" help:"Run the pipeline on the host instead of a sandbox. Requires cargo, wasm-opt, and wasm-snip."`
	ImageTag    string   `xor:"backend" placeholder:"TAG" help:"Build-environment image tag to pull for the sandbox."`
	Locked      bool     `help:"Require the dependency lock file to be honored exactly and ship it with the artifact."`
	Address     string   `placeholder:"PATH" help:"Container daemon socket address."`
	Namespace   string   `placeholder:"NAME" help:"Container daemon namespace."`
}

// Builds every requested package and prints the partitioned outcome.
//
// Per-package failures are reported with remediation hints but do not abort
// siblings; the command exits non-zero only when no package built
// successfully.
func (c *BuildCmd) Run(ctx context.Context) error {

	fmt.Println("Build started. This could take several minutes for large packages.")

	report, err := build.Build(ctx, build.Options{
		Sources:     c.Source,
		Destination: c.Destination,
		Sandboxless: c.Sandboxless,
		ImageTag:    c.ImageTag,
		Locked:      c.Locked,
		Address:     c.Address,
		Namespace:   c.Namespace,
	})
	if err != nil {
		return err
	}

	printReport(report)

	if len(report.Succeeded) == 0 {
		return errors.New("no package built successfully")
	}
	return nil
}

// Prints successes first, then failures with their hints.
func printReport(report *build.Report) {
	if len(report.Succeeded) > 0 {
		fmt.Println("Finished compiling. Artifacts:")
		for _, s := range report.Succeeded {
			fmt.Printf("  %s saved at %s\n", s.Name, s.Path)
			if s.Warning != "" {
				fmt.Printf("  warning: %s\n", s.Warning)
			}
		}
	}

	for _, f := range report.Failed {
		fmt.Printf("\nFailed to build %s: %v\n", f.Source, f.Err)
		if hint := build.Hint(f.Err); hint != "" {
			fmt.Println(hint)
		}
	}
}
