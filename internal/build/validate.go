package build

import (
	"fmt"
	"path/filepath"

	"github.com/osforge/forge/internal/component"
)

// Checks that binaries can be built concurrently without interfering.
//
// Names must be unique, output paths must be absolute, and no two placed
// outputs may be equal or nested inside one another. Bundled libraries count
// as outputs at /lib/<name>, except that several components may ship a
// library of the same name; the last one copied wins. Components that use
// the no-placement sentinel are exempt from the output checks.
func validate(binaries []component.Component) error {
	type output struct {
		path string
		name string
		lib  bool
	}

	names := make(map[string]string, len(binaries))
	var outputs []output

	for _, c := range binaries {
		if prev, ok := names[c.Name]; ok {
			return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateName, c.Name, prev, c.Path)
		}
		names[c.Name] = c.Path

		cfg, _ := c.BuildConfig()
		if !cfg.Placed() {
			continue
		}
		if _, err := Reroot(cfg.Out, string(filepath.Separator)); err != nil {
			return fmt.Errorf("component %q: %w", c.Name, err)
		}
		outputs = append(outputs, output{path: filepath.Clean(cfg.Out), name: c.Name})

		libs, err := libraryNames(component.LibDir(c.Path))
		if err != nil {
			return fmt.Errorf("component %q: %w: %w", c.Name, ErrFileSystemOperation, err)
		}
		for _, lib := range libs {
			outputs = append(outputs, output{path: filepath.Join("/", libDir, lib), name: c.Name, lib: true})
		}
	}

	owners := make(map[string]output, len(outputs))
	for _, o := range outputs {
		if prev, ok := owners[o.path]; ok {
			if prev.lib && o.lib {
				continue
			}
			return fmt.Errorf("%w: %q and %q both write %s", ErrOverlappingOutput, prev.name, o.name, o.path)
		}
		owners[o.path] = o
	}
	for _, o := range outputs {
		for dir := filepath.Dir(o.path); dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			if prev, ok := owners[dir]; ok {
				return fmt.Errorf("%w: %q writes %s inside %q output %s", ErrOverlappingOutput, o.name, o.path, prev.name, dir)
			}
		}
	}
	return nil
}
