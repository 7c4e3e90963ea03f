// Parses flags, loads the configuration and runs forge commands.
//
// The CLI accepts the following global flags:
//
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//	-c, --config    Path to builder.toml.
//
// and the commands:
//
//	build (b)   Build every component, package the image and boot it.
//	            This is the default when no command is given.
//	            -n, --no-run   Stop after packaging.
//	            -i, --iso      Also build a bootable ISO and boot from it.
//	run (r)     Boot the previously built image.
//	            --iso          Boot the ISO instead of kernel and initrd.
//	version     Show version information.
//
// Flags override build-time defaults set via linker flags. After parsing, the
// global logger is rebuilt to reflect the final level and verbosity before
// the command runs. SIGINT and SIGTERM cancel the command's context, which
// stops any running compiler or emulator.
package cli
