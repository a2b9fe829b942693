package ffmpeg

import (
	"context"
	"io"
	"os/exec"
)

// CommandRunner starts ffmpeg processes. Output captures stdout for short
// checks such as -version; Stream wires the process to caller-owned pipes.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Stream(ctx context.Context, inv Invocation, name string, args ...string) error
}

// Invocation carries the working directory and standard streams for Stream
type Invocation struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExecCommandRunner is the production implementation using os/exec
type ExecCommandRunner struct{}

// Output executes a command and returns its output
func (r *ExecCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Stream executes a command wired to the invocation's directory and streams
func (r *ExecCommandRunner) Stream(ctx context.Context, inv Invocation, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	return cmd.Run()
}

var _ CommandRunner = (*ExecCommandRunner)(nil)
