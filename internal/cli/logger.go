package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/osforge/forge/internal"
	"github.com/phuslu/log"
	"golang.org/x/term"
)

// Returns the log level derived from the current output modes.
func LogLevel() slog.Level {
	if internal.IsDebug() {
		return slog.LevelDebug
	}
	if internal.IsQuiet() {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Creates a console logger writing to stderr.
//
// Colour is enabled when stderr is a terminal. Verbose mode adds the caller
// to every record.
func NewLogger(level slog.Level, verbose bool) *slog.Logger {
	return newLogger(os.Stderr, isatty(os.Stderr), level, verbose)
}

func newLogger(w io.Writer, color bool, level slog.Level, verbose bool) *slog.Logger {
	logger := &log.Logger{
		Level: phusluLevel(level),
		Writer: &log.ConsoleWriter{
			ColorOutput:    color,
			EndWithMessage: true,
			Writer:         w,
		},
	}
	if verbose {
		logger.Caller = 1
	}
	return logger.Slog()
}

func setDefaultLogger(level slog.Level, verbose bool) {
	slog.SetDefault(NewLogger(level, verbose))
}

// Maps a slog level onto the backend's levels.
func phusluLevel(level slog.Level) log.Level {
	switch {
	case level <= slog.LevelDebug:
		return log.DebugLevel
	case level <= slog.LevelInfo:
		return log.InfoLevel
	case level <= slog.LevelWarn:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
