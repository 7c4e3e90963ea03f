package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// Number of trailing stderr lines kept in [ExecResult.Stderr].
const stderrTailLines = 20

// Sequence counter for exec identifiers.
var execSeq uint64

// Returns a unique identifier for an exec, used to correlate log lines.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// An external command to run.
type Command struct {
	Name   string    // Program to execute, resolved through PATH.
	Args   []string  // Arguments, not including the program name.
	Dir    string    // Working directory. Empty uses the current directory.
	Env    []string  // "KEY=VALUE" overrides merged over the host environment.
	Stdin  io.Reader // Standard input. Nil reads from the null device.
	Stdout io.Writer // Standard output. Nil discards it.

	// Standard error passthrough. When set and OnStderrLine is nil the
	// stream is connected directly and nothing is captured.
	Stderr io.Writer

	// Called with every trimmed, non-empty line written to standard error.
	OnStderrLine func(line string)
}

// Returns the command line for diagnostics.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Outcome of a finished process.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Stderr   string // Last lines written to standard error, newline separated.
}

// Whether the process exited with status zero.
func (r *ExecResult) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Starts external commands and waits for them to finish.
type Runner interface {

	// Runs cmd to completion. Returns an error wrapping [ErrProcess] if the
	// process could not be started or the context was cancelled.
	Exec(ctx context.Context, cmd Command) (*ExecResult, error)
}

// Merges override env vars on top of a base env slice.
//
// Later entries win. Malformed entries without "=" are dropped.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	order := make([]string, 0, len(base)+len(overrides))
	for _, list := range [][]string{base, overrides} {
		for _, entry := range list {
			k, v, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = v
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+merged[k])
	}
	return result
}

// Fixed-size window over the most recent lines of a stream.
type lineTail struct {
	max   int
	lines []string
}

func (t *lineTail) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "\n")
}
