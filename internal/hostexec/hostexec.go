// Package hostexec runs external tools as blocking subprocesses.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
)

// ErrCommandFailed is the sentinel for any subprocess that exits non-zero.
var ErrCommandFailed = errors.New("external command failed")

// CommandError carries the argv, exit status and captured stderr of a failed command.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("`%s` exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return ErrCommandFailed }

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// RunFunc executes name with args and returns stdout, stderr, exit code, and error.
// A non-zero exit is reported through exitCode with a nil error.
type RunFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

// NewLocal returns a RunFunc that executes commands on this host.
func NewLocal() RunFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		exitCode := 0
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else {
				return stdout.Bytes(), stderr.Bytes(), 1, err
			}
		}
		return stdout.Bytes(), stderr.Bytes(), exitCode, nil
	}
}

// Runner adds exit-status checking on top of a RunFunc.
type Runner struct {
	run RunFunc

	// Stdin, Stdout and Stderr are used by Attached.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner wraps run. A nil run executes locally.
func NewRunner(run RunFunc) *Runner {
	if run == nil {
		run = NewLocal()
	}
	return &Runner{run: run, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Output runs the command and returns its stdout. A non-zero exit yields a *CommandError.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	stdout, stderr, code, err := r.run(ctx, name, args...)
	if err != nil {
		return nil, fmt.Errorf("start `%s`: %w", name, err)
	}
	if code != 0 {
		return stdout, &CommandError{Args: append([]string{name}, args...), ExitCode: code, Stderr: string(stderr)}
	}
	return stdout, nil
}

// Check runs the command and discards its output.
func (r *Runner) Check(ctx context.Context, name string, args ...string) error {
	_, err := r.Output(ctx, name, args...)
	return err
}

// Attached runs the command wired to the runner's standard streams and
// blocks until it exits. The child owns the console for its lifetime:
// cancelling ctx does not kill it, and interrupts delivered to dragon while
// it runs are left for the child to handle.
func (r *Runner) Attached(ctx context.Context, name string, args ...string) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &CommandError{Args: append([]string{name}, args...), ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("start `%s`: %w", name, err)
	}
	return nil
}
