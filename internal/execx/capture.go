package execx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// LineCapture buffers process output line by line, optionally forwarding each
// line to a callback as it arrives. Long-running builds use this so progress
// is visible before the process exits.
type LineCapture struct {
	stdoutBuf    *bytes.Buffer
	stderrBuf    *bytes.Buffer
	stdoutReader *io.PipeReader
	stderrReader *io.PipeReader
	stdoutWriter *io.PipeWriter
	stderrWriter *io.PipeWriter
	onLine       func(stream, line string)
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

// NewLineCapture creates a capture whose pipes are ready to be attached to a
// command. onLine may be nil.
func NewLineCapture(onLine func(stream, line string)) *LineCapture {
	lc := &LineCapture{
		stdoutBuf: &bytes.Buffer{},
		stderrBuf: &bytes.Buffer{},
		onLine:    onLine,
	}

	lc.stdoutReader, lc.stdoutWriter = io.Pipe()
	lc.stderrReader, lc.stderrWriter = io.Pipe()

	lc.wg.Add(2)
	go lc.captureOutput("stdout", lc.stdoutReader, lc.stdoutBuf)
	go lc.captureOutput("stderr", lc.stderrReader, lc.stderrBuf)

	return lc
}

func (lc *LineCapture) captureOutput(stream string, reader io.Reader, buffer *bytes.Buffer) {
	defer lc.wg.Done()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lc.mu.Lock()
		buffer.WriteString(line + "\n")
		lc.mu.Unlock()
		if lc.onLine != nil {
			lc.onLine(stream, line)
		}
	}
}

// close closes the capture pipes and waits for the readers to drain.
func (lc *LineCapture) close() {
	lc.stdoutWriter.Close()
	lc.stderrWriter.Close()
	lc.wg.Wait()
}

// Stdout returns everything captured from stdout so far.
func (lc *LineCapture) Stdout() string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.stdoutBuf.String()
}

// Stderr returns everything captured from stderr so far.
func (lc *LineCapture) Stderr() string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.stderrBuf.String()
}

// RunStreaming executes the command like Run but forwards output lines to
// onLine as they are produced.
func RunStreaming(ctx context.Context, c Command, onLine func(stream, line string)) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	lc := NewLineCapture(onLine)
	cmd.Stdout = lc.stdoutWriter
	cmd.Stderr = lc.stderrWriter

	runErr := cmd.Run()
	lc.close()

	result := Result{
		Stdout: lc.Stdout(),
		Stderr: lc.Stderr(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if ctx.Err() != nil {
				return result, fmt.Errorf("command '%s' interrupted: %w", c, ctx.Err())
			}
			return result, nil
		}
		return result, fmt.Errorf("failed to execute '%s': %w. Stderr: %s", c, runErr, result.Stderr)
	}

	return result, nil
}
