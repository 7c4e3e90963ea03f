package component

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/osforge/forge/internal/runtime"
)

// Answers metadata queries from a table keyed by component directory.
type metadataRunner struct {
	mu       sync.Mutex
	names    map[string]string // Directory base name to package name.
	exitCode int
	err      error
	calls    []runtime.Command
}

func (r *metadataRunner) Exec(_ context.Context, cmd runtime.Command) (*runtime.ExecResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	if r.exitCode != 0 {
		return &runtime.ExecResult{ExitCode: r.exitCode, Stderr: "could not find Cargo.toml"}, nil
	}

	var packages []map[string]string
	if name, ok := r.names[filepath.Base(cmd.Dir)]; ok {
		packages = append(packages, map[string]string{"name": name})
	}
	data, err := json.Marshal(map[string]any{"packages": packages, "version": 1})
	if err != nil {
		return nil, err
	}
	if cmd.Stdout != nil {
		fmt.Fprint(cmd.Stdout, string(data))
	}
	return &runtime.ExecResult{}, nil
}

// Creates dir and any missing parents under base.
func mkdir(t *testing.T, base string, parts ...string) string {
	t.Helper()
	dir := filepath.Join(append([]string{base}, parts...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// Writes content to name inside dir.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// Creates a binary component with the given output path.
func binaryDir(t *testing.T, base, name, out string) string {
	t.Helper()
	dir := mkdir(t, base, name)
	writeFile(t, dir, BuildDescriptor, fmt.Sprintf("out = %q\n", out))
	return dir
}

// Creates an empty module directory.
func moduleDir(t *testing.T, base, name string) string {
	t.Helper()
	dir := mkdir(t, base, name)
	writeFile(t, dir, ModuleDescriptor, "")
	return dir
}
