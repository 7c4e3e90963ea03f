package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/osforge/forge/internal/component"
	"github.com/osforge/forge/internal/paths"
)

// Directory inside the staging root that receives bundled libraries.
const libDir = "lib"

// Maps an absolute image path to its location under root.
//
// The result always starts with root, and stripping root from it yields the
// cleaned path without its leading separator. Returns [ErrRelativeOutput] for
// relative paths and [ErrInvalidOutput] for "/" itself.
func Reroot(path, root string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q", ErrRelativeOutput, path)
	}
	rel := strings.TrimPrefix(filepath.Clean(path), string(filepath.Separator))
	if rel == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutput, path)
	}
	return filepath.Join(root, rel), nil
}

// A file written to the staging root by one component.
type PlacedFile struct {
	Path string // Location in the staging root.

	// Digest of the bytes this component wrote. Empty for the artifact, which
	// the post-copy script may rewrite and is digested when the report is made.
	Digest digest.Digest
	Size   int64
}

// Copies the artifact and bundled libraries into the staging root, then runs
// the post-copy script. Returns the files written so far.
func (s *scheduler) place(ctx context.Context, c component.Component, cfg component.BuildConfig, artifact string) ([]PlacedFile, error) {
	dest, err := Reroot(cfg.Out, s.rootfs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}
	if _, _, err := copyFile(artifact, dest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCopy, err)
	}
	slog.Debug("placed artifact", "name", c.Name, "src", artifact, "dest", dest)
	placed := []PlacedFile{{Path: dest}}

	libs, err := s.copyLibraries(c)
	placed = append(placed, libs...)
	if err != nil {
		return placed, err
	}

	if cfg.PostCopyScript != "" {
		if err := s.runScript(ctx, c, cfg); err != nil {
			return placed, err
		}
	}
	return placed, nil
}

// Copies shared objects from the component's lib directory into the
// staging root's lib directory. A missing lib directory is not an error.
// Symlinks (soname and dev links) are followed and placed as regular files
// holding the target's contents.
func (s *scheduler) copyLibraries(c component.Component) ([]PlacedFile, error) {
	src := component.LibDir(c.Path)
	names, err := libraryNames(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCopy, err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Join(s.rootfs, libDir), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	var placed []PlacedFile
	for _, name := range names {
		dest := filepath.Join(s.rootfs, libDir, name)
		d, size, err := copyFile(filepath.Join(src, name), dest)
		if err != nil {
			return placed, fmt.Errorf("%w: %w", ErrCopy, err)
		}
		slog.Debug("placed library", "name", c.Name, "lib", name, "digest", d)
		placed = append(placed, PlacedFile{Path: dest, Digest: d, Size: size})
	}
	return placed, nil
}

// Lists the shared objects in dir that would be bundled, in directory order.
// A missing dir yields none.
func libraryNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !isSharedObject(entry.Name()) {
			continue
		}
		ok, err := isLibraryFile(dir, entry)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Whether entry in dir is a regular file or a symlink resolving to one.
// Dangling links are skipped with a warning.
func isLibraryFile(dir string, entry os.DirEntry) (bool, error) {
	if entry.Type().IsRegular() {
		return true, nil
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if os.IsNotExist(err) {
		slog.Warn("skipping dangling library link", "path", filepath.Join(dir, entry.Name()))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Whether name looks like a shared object, versioned or not.
func isSharedObject(name string) bool {
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.")
}

// Copies src to dst, keeping the source permission bits, and returns the
// digest and size of the bytes written.
//
// The data is written to a temporary file next to dst and renamed into place,
// so concurrent copies of the same library never leave a partial file.
func copyFile(src, dst string) (digest.Digest, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	digester := digest.SHA256.Digester()
	size, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), in)
	if err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", 0, err
	}
	return digester.Digest(), size, nil
}
