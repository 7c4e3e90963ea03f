package internal

import (
	"strconv"
	"sync/atomic"
)

var (
	rawQuiet   = "false" // Linker default for quiet mode.
	rawDebug   = "false" // Linker default for debug mode.
	rawVerbose = "false" // Linker default for verbose mode.
)

var (
	quiet   atomic.Bool
	debug   atomic.Bool
	verbose atomic.Bool
)

// Seeds the output modes from linker flags. Unparseable values are ignored.
func init() {
	seed(&quiet, rawQuiet)
	seed(&debug, rawDebug)
	seed(&verbose, rawVerbose)
}

func seed(flag *atomic.Bool, raw string) {
	if v, err := strconv.ParseBool(raw); err == nil {
		flag.Store(v)
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) { quiet.Store(enabled) }

// Returns true if quiet mode is enabled.
func IsQuiet() bool { return quiet.Load() }

// Enables or disables debug mode.
func SetDebug(enabled bool) { debug.Store(enabled) }

// Returns true if debug mode is enabled.
func IsDebug() bool { return debug.Load() }

// Enables or disables verbose mode.
func SetVerbose(enabled bool) { verbose.Store(enabled) }

// Returns true if verbose mode is enabled.
func IsVerbose() bool { return verbose.Load() }
