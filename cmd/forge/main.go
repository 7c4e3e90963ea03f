package main

import (
	"log/slog"
	"os"

	"github.com/osforge/forge/internal"
	"github.com/osforge/forge/internal/cli"
)

// The entry point for forge.
//
// Initializes logging from build-time defaults and executes the root command.
// If any error occurs during execution, it logs a single diagnostic and exits
// with a non-zero code.
func main() {
	slog.SetDefault(cli.NewLogger(cli.LogLevel(), internal.IsVerbose()))

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("forge is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
