package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// ErrTransport marks failures to reach or drive the command service, as
// opposed to a command that ran and exited non-zero.
var ErrTransport = errors.New("command service unavailable")

const defaultTimeout = 30 * time.Second

// Executor runs one command line and captures its streams.
type Executor interface {
	Execute(ctx context.Context, command string) (model.CommandOutput, error)
}

// Runner forwards command proposals to an Executor.
type Runner struct {
	exec Executor
}

// NewRunner creates a Runner.
func NewRunner(exec Executor) *Runner {
	return &Runner{exec: exec}
}

// Run executes the proposal. A non-zero exit is reported in the output,
// not as an error.
func (r *Runner) Run(ctx context.Context, p model.CommandProposal) (model.CommandOutput, error) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return model.CommandOutput{}, errors.New("empty command")
	}
	return r.exec.Execute(ctx, text)
}

// Result is a finished asynchronous run.
type Result struct {
	Output model.CommandOutput
	Err    error
}

// Go runs the proposal in the background. The channel receives exactly one
// result.
func (r *Runner) Go(ctx context.Context, p model.CommandProposal) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		out, err := r.Run(ctx, p)
		ch <- Result{Output: out, Err: err}
	}()
	return ch
}

// Local runs commands through the system shell.
type Local struct {
	Dir     string
	Timeout time.Duration
}

// Execute implements Executor.
func (l *Local) Execute(ctx context.Context, command string) (model.CommandOutput, error) {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = l.Dir
	// Children of the shell may keep the pipes open after a timeout kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := model.CommandOutput{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("command timeout after %s: %w", timeout, ErrTransport)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return out, nil
}
