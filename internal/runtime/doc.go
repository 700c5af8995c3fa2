// Package runtime manages build sandboxes backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides image pulls and
// sandbox creation. Images are pulled from a registry by reference and
// unpacked for the host platform.
//
// Each [Sandbox] wraps a privileged container with a held-open task so that
// commands can be executed against it throughout a build. Source trees are
// pushed in as compressed tar streams, build outputs are pulled back out the
// same way, and commands run with a working directory, optional output
// capture, and an optional completion deadline enforced by polling the
// process state. When the build finishes the sandbox must be removed; removal
// is idempotent and safe to call for names that were never created.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "wasmkiln")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	image, err := rt.Pull(ctx, "docker.io/wasmkiln/buildenv:mainnet01")
//	if err != nil {
//	    return err
//	}
//
//	sb, err := rt.StartSandbox(ctx, runtime.RandomName(), image)
//	if err != nil {
//	    return err
//	}
//	defer sb.Remove(ctx)
//
//	if err := sb.Push(ctx, "/home/user/contract"); err != nil {
//	    return err
//	}
package runtime
