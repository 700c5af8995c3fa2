package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"syscall"
	"time"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/pkg/errors"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// How often a bounded execution polls the process running-state.
const pollInterval = 20 * time.Millisecond

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Describes one command execution inside a sandbox.
type ExecSpec struct {
	Workdir string        // Working directory inside the sandbox; empty keeps the image default.
	Args    []string      // Command and arguments, run directly without shell wrapping.
	Capture bool          // Collect combined stdout/stderr into the result.
	Timeout time.Duration // Completion deadline; zero waits indefinitely.
}

// Output of a command execution inside a sandbox.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Output   string // Captured combined output, empty unless capture was requested.
}

// Runs a command inside the sandbox.
//
// The command runs attached. With a timeout set, the process running-state
// is polled at a fixed short interval until the process stops or the deadline
// elapses; exceeding the deadline yields [ErrTimeout], which is distinct from
// a non-zero exit (reported through the result, not as an error). Without a
// timeout the call blocks until the process exits and its output is
// collected — used for the primary compile step, whose duration is
// workload-dependent and must not be artificially bounded.
func (s *Sandbox) Exec(ctx context.Context, spec ExecSpec) (*ExecResult, error) {
	pspec, err := s.processSpec(ctx, spec.Workdir, spec.Args)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "preparing exec: %v", err)
	}

	var out bytes.Buffer
	var stdout, stderr io.Writer = io.Discard, io.Discard
	if spec.Capture {
		stdout, stderr = &out, &out
	}

	code, err := s.execProcess(ctx, pspec, nil, stdout, stderr, spec.Timeout)
	if err != nil {
		return nil, err
	}

	return &ExecResult{ExitCode: code, Output: out.String()}, nil
}

// Builds an OCI process spec for running a command inside the sandbox.
//
// The base values are copied from the sandbox's own OCI spec, then the
// working directory is overridden if provided.
func (s *Sandbox) processSpec(ctx context.Context, workdir string, args []string) (*specs.Process, error) {
	ctr, err := s.client.LoadContainer(ctx, s.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Starts a process inside the sandbox's running task and waits for it to
// finish, returning the exit code.
//
// The process is attached to the task as an additional exec, not as the
// primary process. A start that yields no attached IO is an error: the
// execution would be detached and its completion unobservable. A non-zero
// exit code is not treated as an error; the caller decides.
//
// When stdin is provided, the sandbox's stdin is explicitly closed after the
// reader returns EOF so the exec process receives the EOF signal. This is
// required because the containerd shim holds both ends of the stdin FIFO open
// and will not propagate EOF on its own.
func (s *Sandbox) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer, timeout time.Duration) (int, error) {
	task, err := s.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	// Wrap stdin to detect when the reader returns EOF.
	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.done
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, errors.Wrapf(ErrDaemon, "creating exec: %v", err)
	}

	if process.IO() == nil {
		process.Delete(ctx)
		return 0, ErrNotAttached
	}

	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, errors.Wrapf(ErrDaemon, "waiting on exec: %v", err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, errors.Wrapf(ErrDaemon, "starting exec: %v", err)
	}

	// Close the sandbox's stdin after the reader is exhausted. Without this
	// the shim keeps its write end of the stdin FIFO open and the exec
	// process never receives EOF.
	if stdinDone != nil {
		go func() {
			<-stdinDone
			process.CloseIO(ctx, containerd.WithStdinCloser)
		}()
	}

	if timeout > 0 {
		return s.pollProcess(ctx, process, timeout)
	}

	exitStatus := <-statusC
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, errors.Wrapf(ErrDaemon, "reading exit status: %v", err)
	}

	return int(code), nil
}

// Polls a started exec process until it stops or the deadline elapses.
//
// A poll that itself cannot reach the daemon fails immediately. Exceeding
// the deadline kills the process and yields [ErrTimeout].
func (s *Sandbox) pollProcess(ctx context.Context, process containerd.Process, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			process.Kill(ctx, syscall.SIGKILL)
			process.Delete(ctx)
			return 0, ctx.Err()

		case <-ticker.C:
			status, err := process.Status(ctx)
			if err != nil {
				process.Delete(ctx)
				return 0, errors.Wrapf(ErrDaemon, "polling exec: %v", err)
			}

			if status.Status == containerd.Stopped {
				process.Delete(ctx)
				return int(status.ExitStatus), nil
			}

			if time.Now().After(deadline) {
				process.Kill(ctx, syscall.SIGKILL)
				process.Delete(ctx)
				return 0, errors.Wrapf(ErrTimeout, "after %s", timeout)
			}
		}
	}
}

// Loads the sandbox's running task.
func (s *Sandbox) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := s.client.LoadContainer(ctx, s.id)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "loading sandbox %s: %v", s.id, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrDaemon, "loading sandbox task: %v", err)
	}

	return task, nil
}
