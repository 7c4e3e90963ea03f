// Package component discovers the buildable units of an image source tree.
//
// A components directory holds one directory per unit. A directory with a
// build.toml is a [Binary] and carries its parsed [BuildConfig]; a directory
// with a module.toml is a [Module] that groups further components; anything
// else is [Other] and is ignored by the build. Hidden entries (names starting
// with a dot) are skipped at every level.
//
// [Discover] scans one directory level at a time and replaces every Module
// with the components found inside it, using an explicit worklist bounded by
// a maximum nesting depth. Once the list is flat, each Binary is renamed to
// the package name reported by the toolchain's metadata query, so the
// directory name may differ from the name of the artifact it produces.
//
// Example usage:
//
//	components, err := component.Discover(ctx, rt, component.Options{
//	    Root:      "components",
//	    Toolchain: component.Toolchain{Program: "cargo"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, c := range components {
//	    if cfg, ok := c.BuildConfig(); ok {
//	        fmt.Println(c.Name, cfg.Out)
//	    }
//	}
package component
