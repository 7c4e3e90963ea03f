package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/runtime"
)

// Simulates the compiler, the metadata query and the script shell.
//
// Build commands create the artifact the real compiler would leave behind,
// keyed by the base name of the component directory.
type fakeToolchain struct {
	fail    map[string]int           // Build exit code per component.
	missing map[string]bool          // Succeed without writing the artifact.
	block   map[string]bool          // Wait for cancellation.
	delay   map[string]time.Duration // Sleep before finishing.
	stderr  []string                 // Lines emitted by every build.

	scriptExit int // Exit code of post-copy scripts.

	mu         sync.Mutex
	commands   []runtime.Command
	running    int
	maxRunning int
}

func (f *fakeToolchain) Exec(ctx context.Context, cmd runtime.Command) (*runtime.ExecResult, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.running++
	f.maxRunning = max(f.maxRunning, f.running)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()

	name := filepath.Base(cmd.Dir)
	switch {
	case cmd.Name == "sh":
		return &runtime.ExecResult{ExitCode: f.scriptExit, Stderr: "script said no"}, nil

	case len(cmd.Args) > 0 && cmd.Args[0] == "metadata":
		fmt.Fprintf(cmd.Stdout, `{"packages":[{"name":%q}]}`, name)
		return &runtime.ExecResult{}, nil

	case len(cmd.Args) > 0 && cmd.Args[0] == "build":
		for _, line := range f.stderr {
			if cmd.OnStderrLine != nil {
				cmd.OnStderrLine(line)
			}
		}
		if f.block[name] {
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %w", runtime.ErrProcess, ctx.Err())
		}
		if d := f.delay[name]; d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", runtime.ErrProcess, ctx.Err())
			}
		}
		if code := f.fail[name]; code != 0 {
			return &runtime.ExecResult{ExitCode: code, Stderr: "error[E0425]: cannot find value `x`"}, nil
		}
		if !f.missing[name] {
			if err := writeArtifact(cmd, name); err != nil {
				return nil, err
			}
		}
		return &runtime.ExecResult{}, nil
	}
	return nil, fmt.Errorf("%w: unexpected command %s", runtime.ErrProcess, cmd)
}

// Returns the commands whose first argument is verb.
func (f *fakeToolchain) commandsFor(verb string) []runtime.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []runtime.Command
	for _, c := range f.commands {
		if len(c.Args) > 0 && c.Args[0] == verb {
			out = append(out, c)
		}
	}
	return out
}

func writeArtifact(cmd runtime.Command, name string) error {
	profile := "debug"
	if slices.Contains(cmd.Args, "--release") {
		profile = "release"
	}
	target := ""
	if i := slices.Index(cmd.Args, "--target"); i >= 0 && i+1 < len(cmd.Args) {
		target = cmd.Args[i+1]
	}

	dir := filepath.Join(cmd.Dir, "target", target, profile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte("ELF:"+name), 0755)
}

// Creates a component directory and returns it as a binary.
func binary(t *testing.T, root, name string, cfg component.BuildConfig) component.Component {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return component.Component{Name: name, Path: dir, Variant: component.Binary{Config: cfg}}
}

// Lists regular files under root as slash-separated relative paths.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(files)
	return files
}

// Records progress updates.
type recorder struct {
	mu       sync.Mutex
	updates  map[string][]string
	finished map[string]bool
}

func newRecorder() *recorder {
	return &recorder{updates: map[string][]string{}, finished: map[string]bool{}}
}

func (r *recorder) Upsert(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = append(r.updates[id], text)
}

func (r *recorder) Finish(id string, ok bool, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[id] = ok
}
