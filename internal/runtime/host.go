package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Maximum length of a single stderr line. Compilers occasionally print very
// long lines (linker invocations); longer lines are split.
const maxLineSize = 1 << 20

// How long Wait keeps copying stderr after the process exits or is killed.
// Descendants that outlive the process may hold the pipe open.
const waitDelay = 2 * time.Second

// A [Runner] that starts processes on the host with os/exec.
type HostRunner struct{}

// Creates a new [HostRunner].
func NewHostRunner() *HostRunner {
	return &HostRunner{}
}

// Runs cmd on the host and waits for it to exit.
//
// Unless it reads stdin, the process runs in its own process group and
// cancelling ctx kills the whole group, so compiler workers stop with it.
// Interactive processes stay in the terminal's foreground group. The returned
// error wraps [ErrProcess] when the process could not be started, could not be
// waited for, or was killed by the context. A non-zero exit status is reported through
// [ExecResult.ExitCode] only.
func (h *HostRunner) Exec(ctx context.Context, cmd Command) (*ExecResult, error) {
	id := nextExecID()

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	if len(cmd.Env) > 0 {
		c.Env = mergeEnv(os.Environ(), cmd.Env)
	}

	tail := &lineTail{max: stderrTailLines}
	var lines *lineWriter
	if cmd.OnStderrLine == nil && cmd.Stderr != nil {
		c.Stderr = cmd.Stderr
	} else {
		lines = &lineWriter{cmd: cmd, tail: tail}
		c.Stderr = lines
	}
	if cmd.Stdin == nil {
		setProcessGroup(c)
	}
	c.WaitDelay = waitDelay

	slog.Debug("exec", "id", id, "command", cmd.String(), "dir", cmd.Dir)

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %w", ErrProcess, cmd.Name, err)
	}

	err := c.Wait()
	if lines != nil {
		lines.flush()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProcess, cmd.Name, ctxErr)
	}

	result := &ExecResult{Stderr: tail.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(err, exec.ErrWaitDelay):
		slog.Debug("exec left stderr open after exit", "id", id)
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrProcess, cmd.Name, err)
	}

	slog.Debug("exec finished", "id", id, "exit", result.ExitCode)
	return result, nil
}

// Splits a stream into lines, feeding each non-empty line to the command's
// callback, its passthrough writer and the captured tail.
//
// Assigned as the process's stderr so that [exec.Cmd.Wait] owns the copy and
// gives up on it after [exec.Cmd.WaitDelay]. Writes come from a single
// goroutine.
type lineWriter struct {
	cmd  Command
	tail *lineTail
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.line(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineSize {
		w.line(string(w.buf))
		w.buf = nil
	}
	return len(p), nil
}

// Emits a trailing line that was not newline terminated.
func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.line(string(w.buf))
		w.buf = nil
	}
}

func (w *lineWriter) line(raw string) {
	if w.cmd.Stderr != nil {
		fmt.Fprintln(w.cmd.Stderr, raw)
	}

	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	w.tail.add(line)
	if w.cmd.OnStderrLine != nil {
		w.cmd.OnStderrLine(line)
	}
}
