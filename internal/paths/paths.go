package paths

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/osforge/forge/internal"
)

const (

	// File name of the top-level configuration.
	ConfigFileName = "builder.toml"

	// Default permission mode for directories created in the staging root.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files written by forge.
	DefaultFileMode os.FileMode = 0644
)

// Directory holding the user-level configuration.
//
//	Linux:   $XDG_CONFIG_HOME/forge
//	macOS:   ~/Library/Application Support/forge
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, internal.Name)
}

// Locates the configuration file to use when none is given explicitly.
//
// The working directory is searched first, then the XDG configuration
// directories. Returns [os.ErrNotExist] when neither has a builder.toml.
func FindConfig(workdir string) (string, error) {
	local := filepath.Join(workdir, ConfigFileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	found, err := xdg.SearchConfigFile(filepath.Join(internal.Name, ConfigFileName))
	if err != nil {
		return "", os.ErrNotExist
	}
	return found, nil
}
