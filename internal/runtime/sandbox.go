package runtime

import (
	"context"
	"log/slog"
	"strings"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Prefix for generated sandbox names.
const namePrefix = "wasmkiln-"

// A running build sandbox backed by containerd.
//
// The sandbox is owned by exactly one build; its name is never shared across
// concurrent builds on the same daemon.
type Sandbox struct {
	client   *containerd.Client // Containerd client for managing the sandbox.
	id       string             // Unique identifier, used as the containerd container ID.
	platform string             // OCI platform (e.g., "linux/amd64").
}

// Returns a fresh sandbox name with a short random alphanumeric suffix,
// unique enough to avoid collisions across concurrent builds sharing one
// daemon.
func RandomName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return namePrefix + suffix
}

// Creates and starts a sandbox with the given name from a pulled image.
//
// The sandbox runs privileged with a long-running task (sleep infinity) so
// that subsequent Exec calls have a running process to attach to. Host
// networking and resolv.conf are shared so the build can fetch registry
// dependencies. Any stale sandbox with the same name is removed first.
func (rt *Runtime) StartSandbox(ctx context.Context, name string, image containerd.Image) (*Sandbox, error) {
	s := &Sandbox{
		client:   rt.client,
		id:       name,
		platform: defaultPlatform(),
	}

	// Creation may have half-succeeded on a previous attempt with this name.
	s.removeExisting(ctx)

	ctr, err := s.create(ctx, image)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "creating sandbox %s: %v", name, err)
	}

	if err := s.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, errors.Wrapf(ErrDaemon, "starting sandbox %s: %v", name, err)
	}

	slog.Debug("sandbox started", "name", name, "image", image.Name())
	return s, nil
}

// Returns the sandbox name.
func (s *Sandbox) Name() string {
	return s.id
}

// Force-removes the sandbox and its resources.
//
// The task is killed and the sandbox is removed from containerd along with
// its snapshot. Removing a sandbox that is already gone, or whose name was
// never created, is not an error. Callers treat a failure here as a
// best-effort side-effect: it is reported but never flips the outcome of a
// completed build.
func (s *Sandbox) Remove(ctx context.Context) error {
	ctr, err := s.client.LoadContainer(ctx, s.id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return errors.Wrapf(ErrDaemon, "loading sandbox %s: %v", s.id, err)
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		return errors.Wrapf(ErrDaemon, "removing sandbox %s: %v", s.id, err)
	}

	slog.Debug("sandbox removed", "name", s.id)
	return nil
}

// Creates the containerd container with the standard sandbox configuration.
func (s *Sandbox) create(ctx context.Context, image containerd.Image) (containerd.Container, error) {
	return s.client.NewContainer(ctx, s.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(snapshotter),
		containerd.WithNewSnapshot(s.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(
			oci.WithDefaultSpecForPlatform(s.platform),
			oci.WithImageConfig(image),
			oci.WithPrivileged,
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithProcessArgs("sleep", "infinity"),
		),
	)
}

// Starts the sandbox's long-running task with no attached IO.
func (s *Sandbox) startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}

// Removes an existing sandbox with this name, if one exists.
//
// Any running task is killed and the container is deleted along with its
// snapshot. This is a no-op when no container with the name is found.
func (s *Sandbox) removeExisting(ctx context.Context) {
	existing, err := s.client.LoadContainer(ctx, s.id)
	if err != nil {
		return
	}
	if task, err := existing.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}
	existing.Delete(ctx, containerd.WithSnapshotCleanup)
}
