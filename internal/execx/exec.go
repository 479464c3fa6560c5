package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command describes a single external tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory for the process. Empty means inherit.
	Dir string
	// Env lists extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Failed reports whether the process exited non-zero.
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// String renders the command line Command describes, for logs and errors.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Run executes the command synchronously, capturing stdout and stderr.
// A non-zero exit is not an error: the harness asserts on exit codes in both
// directions, so it is reported through Result.ExitCode instead. The returned
// error covers genuine invocation failures (binary not found, context
// cancelled, …).
func Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	result := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			// Process ran and exited non-zero: the caller decides whether
			// that is the expected outcome.
			if ctx.Err() != nil {
				return result, fmt.Errorf("command '%s' interrupted: %w", c, ctx.Err())
			}
			return result, nil
		}
		return result, fmt.Errorf("failed to execute '%s': %w. Stderr: %s", c, runErr, result.Stderr)
	}

	return result, nil
}
