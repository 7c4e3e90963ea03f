package component

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/osforge/forge/internal/runtime"
)

// Nesting limit applied when [Options.MaxDepth] is zero.
const DefaultMaxDepth = 16

// Replaced in tests to simulate unreadable directories.
var readDir = os.ReadDir

// Options for [Discover].
type Options struct {
	Root      string    // Components directory to scan.
	Toolchain Toolchain // Used for the package metadata query.
	MaxDepth  int       // Maximum module nesting. Zero uses [DefaultMaxDepth].
}

// Pending worklist entry.
type pending struct {
	component Component
	depth     int // Number of modules enclosing the component.
}

// Scans opts.Root and returns the flattened component list.
//
// Modules are replaced in place by their contents, so the result never
// contains a [Module]. Entries keep the directory listing order at every
// level. An unreadable root is an error wrapping [ErrDirectory]; an
// unreadable module is logged and contributes nothing. Nesting deeper than
// the depth cap fails with [ErrDepthExceeded]. After flattening, binaries
// are renamed from package metadata, and two binaries ending up with the
// same name fail with [ErrDuplicateName].
func Discover(ctx context.Context, rt runtime.Runner, opts Options) ([]Component, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	top, err := scan(root)
	if err != nil {
		return nil, err
	}

	var out []Component
	stack := pushReversed(nil, top, 0)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := next.component.Variant.(Module); !ok {
			out = append(out, next.component)
			continue
		}

		if next.depth+1 > maxDepth {
			return nil, fmt.Errorf("%w: module %q exceeds %d levels", ErrDepthExceeded, next.component.Path, maxDepth)
		}

		children, err := scan(next.component.Path)
		if err != nil {
			if errors.Is(err, ErrDirectory) {
				slog.Warn("skipping unreadable module", "module", next.component.Name, "path", next.component.Path, "error", err)
				continue
			}
			return nil, err
		}
		slog.Debug("expanded module", "module", next.component.Name, "components", len(children))
		stack = pushReversed(stack, children, next.depth+1)
	}

	if err := resolveNames(ctx, rt, opts.Toolchain, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Appends items to the stack so that the first item is popped first.
func pushReversed(stack []pending, items []Component, depth int) []pending {
	for _, c := range slices.Backward(items) {
		stack = append(stack, pending{component: c, depth: depth})
	}
	return stack
}

// Lists and classifies the immediate children of dir.
//
// Hidden entries and non-directories are skipped. Listing failures wrap
// [ErrDirectory]; descriptor failures wrap [ErrParse].
func scan(dir string) ([]Component, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	var components []Component
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, name)
		variant, err := classify(path)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", name, err)
		}
		components = append(components, Component{Name: name, Path: path, Variant: variant})
	}
	return components, nil
}

// Determines the variant of the component directory at path.
func classify(path string) (Variant, error) {
	build := filepath.Join(path, BuildDescriptor)
	if fileExists(build) {
		cfg, err := ParseBuildConfig(build)
		if err != nil {
			return nil, err
		}
		return Binary{Config: cfg}, nil
	}
	if fileExists(filepath.Join(path, ModuleDescriptor)) {
		return Module{}, nil
	}
	return Other{}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Renames binaries to their package names and checks for collisions.
func resolveNames(ctx context.Context, rt runtime.Runner, tc Toolchain, components []Component) error {
	seen := make(map[string]string)
	for i := range components {
		c := &components[i]
		if _, ok := c.Variant.(Binary); !ok {
			continue
		}

		name, ok, err := PackageName(ctx, rt, tc, c.Path)
		if err != nil {
			return fmt.Errorf("component %q: %w", c.Name, err)
		}
		if ok && name != c.Name {
			slog.Debug("renamed component", "dir", c.Name, "package", name)
			c.Name = name
		}

		if prev, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: %q is declared by %s and %s", ErrDuplicateName, c.Name, prev, c.Path)
		}
		seen[c.Name] = c.Path
	}
	return nil
}
