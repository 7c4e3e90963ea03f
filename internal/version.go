package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// Program name, used for the CLI, the logger group and XDG directories.
const Name = "forge"

const (

	// Placeholder for a linker variable that was not set.
	unset = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	localBuild = "(local)"

	// Channel that is omitted from version strings.
	releaseChannel = "main"
)

var (
	version = "" // Release number, e.g. "0.4.1". Set via -ldflags.
	channel = "" // Release channel or branch, e.g. "main", "nightly".
	commit  = "" // Source commit hash.
)

// Returns the release number without a leading "v", or "(undefined)".
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return unset
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the release channel in lower case, or "(undefined)".
func Channel() string {
	c := strings.ToLower(strings.TrimSpace(channel))
	if c == "" {
		return unset
	}
	return c
}

// Returns the source commit hash, or "(undefined)".
func Commit() string {
	c := strings.TrimSpace(commit)
	if c == "" {
		return unset
	}
	return c
}

// Whether the binary was built without release metadata.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" || strings.TrimSpace(commit) == ""
}

// Returns the human-readable version line printed by "forge version".
//
// Local builds report "(local)". Release builds report
// "<version>[+<channel>] <commit> [<os>/<arch>]", omitting the channel when
// it is the main release channel.
func VersionString() string {
	if IsLocal() {
		return localBuild
	}

	suffix := ""
	if c := Channel(); c != releaseChannel && c != unset {
		suffix = "+" + c
	}

	return fmt.Sprintf("%s%s %s [%s/%s]", Version(), suffix, Commit(), runtime.GOOS, runtime.GOARCH)
}
