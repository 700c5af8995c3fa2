package build

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestRunHostStepCapturesOutput(t *testing.T) {
	requireTool(t, "sh")

	out, err := runHostStep(context.Background(), Step{
		Workdir: t.TempDir(),
		Args:    []string{"sh", "-c", "echo compiled"},
		Capture: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "compiled" {
		t.Errorf("output = %q, want %q", out, "compiled")
	}
}

func TestRunHostStepNonZeroExit(t *testing.T) {
	requireTool(t, "sh")

	_, err := runHostStep(context.Background(), Step{
		Workdir: t.TempDir(),
		Args:    []string{"sh", "-c", "exit 3"},
	})
	if !errors.Is(err, ErrBuildLogs) {
		t.Fatalf("error = %v, want ErrBuildLogs", err)
	}
	if errors.Is(err, ErrBuildTimeout) {
		t.Error("non-zero exit matched ErrBuildTimeout")
	}
}

func TestRunHostStepTimeout(t *testing.T) {
	requireTool(t, "sleep")

	_, err := runHostStep(context.Background(), Step{
		Workdir: t.TempDir(),
		Args:    []string{"sleep", "10"},
		Timeout: 50 * time.Millisecond,
	})
	if !errors.Is(err, ErrBuildTimeout) {
		t.Fatalf("error = %v, want ErrBuildTimeout", err)
	}
}

func TestRunHostStepsShortCircuits(t *testing.T) {
	requireTool(t, "sh")

	dir := t.TempDir()
	steps := []Step{
		{Workdir: dir, Args: []string{"sh", "-c", "echo first"}, Capture: true},
		{Workdir: dir, Args: []string{"sh", "-c", "echo broken >&2; exit 1"}},
		{Workdir: dir, Args: []string{"sh", "-c", "echo never"}, Capture: true},
	}

	_, err := runHostSteps(context.Background(), steps)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	log, ok := BuildLog(err)
	if !ok {
		t.Fatal("failure carries no build log")
	}
	if !strings.Contains(log, "first") {
		t.Errorf("log %q missing captured output from earlier step", log)
	}
	if !strings.Contains(log, "broken") {
		t.Errorf("log %q missing output of the failing step", log)
	}
	if strings.Contains(log, "never") {
		t.Errorf("log %q contains output from a step past the failure", log)
	}
}
