// Package build orchestrates wasm contract builds against disposable
// sandboxes.
//
// Each requested package runs the same fixed pipeline: resolve local
// path-dependencies, push them and the source tree into a fresh sandbox,
// compile and optimize, then pull the staged artifact back out. The sandbox
// is removed on every path out of the pipeline, exactly once, and a removal
// failure never changes an already-decided outcome. A sandboxless fallback
// runs the equivalent pipeline directly on the host inside a scratch
// directory.
//
// Multiple packages build concurrently and independently; the fan-out driver
// merges per-package results into a single partitioned report after all of
// them finish.
//
// Example usage:
//
//	report, err := build.Build(ctx, build.Options{
//	    Sources:     []string{"/home/user/contract"},
//	    Destination: "dist",
//	})
//	if err != nil {
//	    return err
//	}
//	for _, s := range report.Succeeded {
//	    fmt.Println(s.Name, "saved at", s.Path)
//	}
package build
