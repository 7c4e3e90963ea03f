package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/osforge/forge/internal"
	"github.com/osforge/forge/internal/config"
	"github.com/osforge/forge/internal/progress"
)

// Locates and loads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path, err := config.Locate(RootCmd.Config, wd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration",
		"path", cfg.Path,
		"target", cfg.Builder.BuildTarget,
		"components", cfg.Builder.ComponentsDir,
		"rootfs", cfg.Builder.RootfsDir,
		"dist", cfg.Builder.DistDir,
	)
	return cfg, nil
}

// Returns a progress display on stderr, or a silent one in quiet mode.
func newDisplay() *progress.Display {
	if internal.IsQuiet() {
		return progress.New(io.Discard)
	}
	return progress.New(os.Stderr)
}
