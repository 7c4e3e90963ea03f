package component

import (
	"os"
	"path/filepath"

	"github.com/osforge/forge/internal/runtime"
)

// Compiler used when none is configured.
const DefaultCompiler = "cargo"

// Describes how to drive the compiler for a component.
type Toolchain struct {
	Program string // Compiler executable. Empty uses [DefaultCompiler].
}

func (t Toolchain) program() string {
	if t.Program == "" {
		return DefaultCompiler
	}
	return t.Program
}

// Returns the compile command for the component at dir.
//
// The command runs in dir. When dir has a lib subdirectory it is exported as
// LD_LIBRARY_PATH so build scripts can link against bundled libraries.
func (t Toolchain) BuildCommand(dir string, profile Profile, target string) runtime.Command {
	args := []string{"build"}
	if profile == Release {
		args = append(args, "--release")
	}
	args = append(args, "--target", target)

	cmd := runtime.Command{Name: t.program(), Args: args, Dir: dir}
	if lib := LibDir(dir); isDir(lib) {
		cmd.Env = []string{"LD_LIBRARY_PATH=" + lib}
	}
	return cmd
}

// Returns the package metadata query for the component at dir.
func (t Toolchain) MetadataCommand(dir string) runtime.Command {
	return runtime.Command{
		Name: t.program(),
		Args: []string{"metadata", "--no-deps", "--format-version", "1"},
		Dir:  dir,
	}
}

// Returns where the compiler leaves the artifact named name.
func (t Toolchain) ArtifactPath(dir, target string, profile Profile, name string) string {
	return filepath.Join(dir, "target", target, profile.String(), name)
}

// Returns the directory holding a component's bundled shared libraries.
func LibDir(dir string) string {
	return filepath.Join(dir, "lib")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
