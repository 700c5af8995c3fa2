package runtime

import (
	"context"
	"log/slog"
	goruntime "runtime"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/platforms"
	"github.com/pkg/errors"
)

const (

	// Default containerd socket address.
	DefaultAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for images and sandboxes.
	DefaultNamespace = "wasmkiln"

	// Snapshotter used for sandbox filesystems. fuse-overlayfs provides
	// overlay semantics without requiring root privileges (no mount(2)),
	// allowing wasmkiln to run as a regular user.
	snapshotter = "fuse-overlayfs"

	// OCI runtime shim for running sandboxes.
	ociRuntime = "io.containerd.runc.v2"
)

// Manages the containerd client and provides image and sandbox operations.
type Runtime struct {
	client *containerd.Client // Containerd client for managing sandboxes and images.
}

// Creates a runtime connected to the containerd socket at the given address.
//
// The namespace scopes all containerd operations to a single tenant. The
// runtime must be closed when no longer needed. The client holds no mutable
// per-build state, so one runtime may be shared by concurrent builds.
func New(address, namespace string) (*Runtime, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "connecting to %s: %v", address, err)
	}
	return &Runtime{client: client}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Pulls an image from its registry and unpacks it for the host platform.
//
// The full layer fetch happens here so that sandbox creation afterwards is
// purely local.
func (rt *Runtime) Pull(ctx context.Context, ref string) (containerd.Image, error) {
	p, err := platforms.Parse(defaultPlatform())
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "parsing platform: %v", err)
	}

	image, err := rt.client.Pull(ctx, ref,
		containerd.WithPlatformMatcher(platforms.Only(p)),
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(snapshotter),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "pulling %s: %v", ref, err)
	}

	slog.Debug("image pulled", "ref", ref)
	return image, nil
}

// Returns the default OCI platform for the host architecture.
func defaultPlatform() string {
	return "linux/" + goruntime.GOARCH
}
