// Package config loads the top-level builder.toml.
//
// The file has a [builder] table describing where components live and where
// the staging root and distribution directory go, and a [runner] table with
// the emulator settings. Values are layered: built-in defaults, then the
// file, then FORGE_* environment variables. Directory values may start with
// "~" and relative directories are resolved against the directory holding
// the configuration file.
//
// Example usage:
//
//	path, err := config.Locate(flagPath, cwd)
//	if err != nil {
//	    return err
//	}
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Builder.ComponentsDir)
package config
