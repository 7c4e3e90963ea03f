package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/osforge/forge/internal"
)

// Flags and commands accepted by forge.
type Root struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Enable verbose output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Config  string     `short:"c" help:"Path to builder.toml." placeholder:"PATH"`
	Build   BuildCmd   `cmd:"" default:"withargs" aliases:"b" help:"Build all components, package the image and boot it."`
	Run     RunCmd     `cmd:"" aliases:"r" help:"Boot the last built image in the emulator."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Represents the root command for forge.
var RootCmd Root

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd, options(ctx)...)

	configureLogger()

	return kongCtx.Run()
}

// Returns the kong options shared by [Execute] and tests.
func options(ctx context.Context) []kong.Option {
	return []kong.Option{
		kong.Name(internal.Name),
		kong.Description("Builds an operating system image from a tree of components.\n\nCompiles every component in parallel, assembles the root filesystem, packages it as an initrd or ISO and boots it in QEMU."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	}
}

// Rebuilds the global logger from CLI flags and build-time defaults.
func configureLogger() {
	internal.SetDebug(RootCmd.Debug || internal.IsDebug())
	internal.SetQuiet(RootCmd.Quiet || internal.IsQuiet())
	internal.SetVerbose(RootCmd.Verbose || internal.IsVerbose())

	setDefaultLogger(LogLevel(), internal.IsVerbose())
}
